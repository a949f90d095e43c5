// Package host is a development host for the plugin: it owns the URI table and
// the worker, feeds audio blocks from a source to a sink, turns API requests into
// control events and fans the plugin's notifications out to subscribers.
package host

import (
	"context"
	"errors"
	"io"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"namd/internal/atom"
	"namd/internal/dsp"
	"namd/internal/pathbuf"
	"namd/internal/plugin"
	"namd/internal/state"
	"namd/internal/urid"
	"namd/pkg/types"
)

// Defaults applied when corresponding Config fields are unset.
const (
	DefaultSampleRate  = 48000
	DefaultBlockSize   = 256
	defaultNotifySize  = 4096
	defaultControlSize = 8192
	maxPendingRequests = 256
)

// Engine states reported by Status.
const (
	StateStopped = "stopped"
	StateRunning = "running"
	StateClosed  = "closed"
)

// Config holds the engine's tunables. Zero values mean "use the default".
type Config struct {
	SampleRate   float64
	BlockSize    int
	MaxBlock     int
	QueueSize    int
	NotifySize   int
	ControlSize  int
	MaxModelSize int64
	InputDB      float32
	OutputDB     float32
	// Paths maps model paths for saved state. Nil stores absolute paths.
	Paths plugin.PathMapper
	// Loader overrides the plugin's file loader.
	Loader plugin.LoadFunc
	Log    zerolog.Logger
}

type requestKind uint8

const (
	reqSet requestKind = iota + 1
	reqGet
)

type request struct {
	kind requestKind
	path []byte
}

// Engine drives one plugin instance.
type Engine struct {
	id    uuid.UUID
	cfg   Config
	log   zerolog.Logger
	table *urid.Map
	uris  urid.URIs
	p     *plugin.Plugin
	sched *Scheduler

	// runMu serialises blocks with Save, Restore and reads of plugin state.
	runMu   sync.Mutex
	block   plugin.Block
	ctrl    []byte
	notify  []byte
	forge   atom.Forge
	in, out []float32
	pending []types.Notification

	reqMu sync.Mutex
	reqs  *queue.Queue

	inputDB  atomic.Uint32
	outputDB atomic.Uint32
	blocks   atomic.Uint64
	overruns atomic.Uint64

	subMu    sync.Mutex
	subs     map[uint64]chan types.Notification
	nextSub  uint64
	lastPath string
	lastErr  string

	lifeMu  sync.Mutex
	state   string
	started time.Time
	cancel  context.CancelFunc
	done    chan struct{}
}

// New instantiates the plugin with this engine as its host. The instance is not
// activated until Start or Render.
func New(cfg Config) (*Engine, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.MaxBlock <= 0 {
		cfg.MaxBlock = plugin.DefaultMaxBlockLength
	}
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = DefaultBlockSize
	}
	if cfg.BlockSize > cfg.MaxBlock {
		cfg.BlockSize = cfg.MaxBlock
	}
	if cfg.NotifySize <= 0 {
		cfg.NotifySize = defaultNotifySize
	}
	if cfg.ControlSize <= 0 {
		cfg.ControlSize = defaultControlSize
	}
	id := uuid.New()
	log := cfg.Log.With().Str("instance", id.String()).Logger()

	table := urid.NewMap()
	sched := NewScheduler(cfg.QueueSize, log)
	p, err := plugin.Instantiate(cfg.SampleRate, plugin.Features{
		Map:            table,
		Schedule:       sched,
		Log:            &log,
		MaxBlockLength: cfg.MaxBlock,
	}, plugin.Options{Loader: cfg.Loader, MaxModelSize: cfg.MaxModelSize})
	if err != nil {
		return nil, err
	}
	sched.Bind(p)

	e := &Engine{
		id:      id,
		cfg:     cfg,
		log:     log.With().Str("component", "host").Logger(),
		table:   table,
		uris:    p.URIs(),
		p:       p,
		sched:   sched,
		ctrl:    make([]byte, cfg.ControlSize),
		notify:  make([]byte, cfg.NotifySize),
		in:      make([]float32, cfg.MaxBlock),
		out:     make([]float32, cfg.MaxBlock),
		pending: make([]types.Notification, 0, 8),
		reqs:    queue.New(),
		subs:    make(map[uint64]chan types.Notification),
		state:   StateStopped,
	}
	e.forge = atom.NewForge(e.uris)
	e.block.Control = e.ctrl[:0]
	e.block.Notify = e.notify
	e.inputDB.Store(math.Float32bits(cfg.InputDB))
	e.outputDB.Store(math.Float32bits(cfg.OutputDB))
	e.log.Info().Float64("rate", cfg.SampleRate).Int("block", cfg.BlockSize).Int("max_block", cfg.MaxBlock).Msg("engine created")
	return e, nil
}

// ID returns the engine's instance id.
func (e *Engine) ID() uuid.UUID { return e.id }

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// SetModel queues a model change. It is applied by the plugin through the
// control port on the next block.
func (e *Engine) SetModel(path string) error {
	if path == "" {
		return errors.New("empty model path")
	}
	if len(path) >= pathbuf.MaxPathLen {
		return ErrPathTooLong
	}
	return e.enqueue(request{kind: reqSet, path: []byte(path)})
}

// RequestPath asks the plugin to report its current model path.
func (e *Engine) RequestPath() error {
	return e.enqueue(request{kind: reqGet})
}

func (e *Engine) enqueue(r request) error {
	e.reqMu.Lock()
	defer e.reqMu.Unlock()
	if n := e.reqs.Length(); n >= maxPendingRequests {
		return busyError{pending: n}
	}
	e.reqs.Add(r)
	return nil
}

// SetGain updates the gain controls; nil leaves a control unchanged.
func (e *Engine) SetGain(inputDB, outputDB *float32) {
	if inputDB != nil {
		e.inputDB.Store(math.Float32bits(*inputDB))
	}
	if outputDB != nil {
		e.outputDB.Store(math.Float32bits(*outputDB))
	}
}

// Gain returns the current gain controls in dB.
func (e *Engine) Gain() (inputDB, outputDB float32) {
	return math.Float32frombits(e.inputDB.Load()), math.Float32frombits(e.outputDB.Load())
}

// fillControl forges queued requests into the control buffer. Requests that do
// not fit wait for the next block; a contended queue is skipped for this block.
func (e *Engine) fillControl() {
	e.block.Control = e.ctrl[:0]
	if !e.reqMu.TryLock() {
		return
	}
	defer e.reqMu.Unlock()
	if e.reqs.Length() == 0 {
		return
	}
	e.forge.Reset(e.ctrl)
	seq := e.forge.BeginSequence(0)
	for e.reqs.Length() > 0 {
		r := e.reqs.Peek().(request)
		var err error
		switch r.kind {
		case reqSet:
			err = atom.WriteSetPath(&e.forge, e.uris, 0, e.uris.ModelPath, r.path)
		case reqGet:
			err = atom.WriteGet(&e.forge, e.uris, 0, e.uris.ModelPath)
		}
		if err != nil {
			break
		}
		e.reqs.Remove()
	}
	e.forge.Pop(seq)
	if e.forge.Err() == nil {
		e.block.Control = e.ctrl[:e.forge.Len()]
	}
}

// cycle runs one block under runMu and collects the notifications it produced.
func (e *Engine) cycle(in, out []float32, count bool) {
	e.runMu.Lock()
	e.sched.Deliver()
	e.fillControl()
	e.block.In, e.block.Out = in, out
	e.block.InputDB = math.Float32frombits(e.inputDB.Load())
	e.block.OutputDB = math.Float32frombits(e.outputDB.Load())
	e.p.Run(&e.block)
	n := e.blocks.Load()
	if count {
		n = e.blocks.Add(1)
		blocksTotal.Inc()
	}
	e.collect(n)
	if len(e.pending) > 0 {
		e.publish(e.pending)
		clear(e.pending)
		e.pending = e.pending[:0]
	}
	e.runMu.Unlock()
}

// Process runs one block. Calls must not overlap.
func (e *Engine) Process(in, out []float32) {
	e.cycle(in, out, true)
}

func (e *Engine) collect(block uint64) {
	it, err := atom.NewSequenceIter(e.notify, e.uris.AtomSequence)
	if err != nil {
		return
	}
	var now int64
	for it.Next() {
		obj, ok := atom.AsObject(it.Event().Body, e.uris.AtomObject)
		if !ok {
			continue
		}
		if now == 0 {
			now = time.Now().UnixMilli()
		}
		switch obj.OType {
		case e.uris.PatchSet:
			v, ok := obj.Get(e.uris.PatchValue)
			if !ok || v.Type != e.uris.AtomPath {
				continue
			}
			e.pending = append(e.pending, types.Notification{Kind: types.NotifyModel, Path: string(v.CString()), Block: block, TimeUnixMs: now})
		case e.uris.StateChanged:
			e.pending = append(e.pending, types.Notification{Kind: types.NotifyChanged, Block: block, TimeUnixMs: now})
		}
	}
}

func (e *Engine) publish(notes []types.Notification) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, n := range notes {
		if n.Kind == types.NotifyModel {
			e.lastPath = n.Path
		}
		e.log.Debug().Str("kind", n.Kind).Str("path", n.Path).Uint64("block", n.Block).Msg("notification")
		for _, ch := range e.subs {
			select {
			case ch <- n:
			default:
			}
		}
	}
}

// Subscribe returns a channel of notifications and a function that cancels the
// subscription. Slow subscribers lose events rather than stall the audio loop.
func (e *Engine) Subscribe(buf int) (<-chan types.Notification, func()) {
	if buf <= 0 {
		buf = 16
	}
	ch := make(chan types.Notification, buf)
	e.subMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch
	e.subMu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.subMu.Lock()
			delete(e.subs, id)
			e.subMu.Unlock()
		})
	}
}

// LastPath returns the most recent path the plugin reported.
func (e *Engine) LastPath() string {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	return e.lastPath
}

func (e *Engine) setErr(err error) {
	e.subMu.Lock()
	e.lastErr = err.Error()
	e.subMu.Unlock()
}

// CurrentPath reads the plugin's active model path between blocks.
func (e *Engine) CurrentPath() string {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	return e.p.CurrentPath()
}

// SwapState reports the plugin's hot-swap phase.
func (e *Engine) SwapState() plugin.SwapState { return e.p.SwapState() }

// Model reports the active model and swap phase.
func (e *Engine) Model() types.ModelResponse {
	return types.ModelResponse{Path: e.CurrentPath(), SwapState: e.SwapState().String()}
}

// Status summarises the engine for the API.
func (e *Engine) Status() types.StatusResponse {
	e.lifeMu.Lock()
	st, started := e.state, e.started
	e.lifeMu.Unlock()
	in, out := e.Gain()
	e.subMu.Lock()
	lastErr := e.lastErr
	e.subMu.Unlock()
	e.runMu.Lock()
	path, active := e.p.CurrentPath(), e.p.Activated()
	e.runMu.Unlock()
	loads, switches, frees := e.p.InFlight()
	resp := types.StatusResponse{
		InstanceID:     e.id.String(),
		State:          st,
		SwapState:      e.SwapState().String(),
		ModelPath:      path,
		SampleRate:     e.cfg.SampleRate,
		BlockSize:      e.cfg.BlockSize,
		MaxBlock:       e.cfg.MaxBlock,
		InputDB:        in,
		OutputDB:       out,
		Blocks:         e.blocks.Load(),
		Overruns:       e.overruns.Load(),
		ServerTimeUnix: time.Now().Unix(),
		LastError:      lastErr,
		LastLoadError:  e.p.LastLoadError(),
		Activated:      active,
		InFlight:       types.SwapCounters{Loads: loads, Switches: switches, Frees: frees},
		Architectures:  dsp.Architectures(),
	}
	if st == StateRunning {
		resp.UptimeSeconds = int64(time.Since(started).Seconds())
	}
	return resp
}

// Running reports whether the real-time loop is active.
func (e *Engine) Running() bool {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	return e.state == StateRunning
}

// Save stores the plugin state into store, replacing its contents.
func (e *Engine) Save(store *state.Store) error {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	store.Reset()
	return e.p.Save(store.Store, e.cfg.Paths)
}

// Restore applies state from store. Before Start the model is loaded
// synchronously; while running it is swapped in by the worker.
func (e *Engine) Restore(store *state.Store) error {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	return e.p.Restore(store.Retrieve, e.cfg.Paths)
}

// SaveFile saves the plugin state to a preset file.
func (e *Engine) SaveFile(path string) error {
	s := state.New(e.table)
	if err := e.Save(s); err != nil {
		return err
	}
	if err := s.SaveFile(path); err != nil {
		return err
	}
	e.log.Info().Str("file", path).Int("properties", s.Len()).Msg("state saved")
	return nil
}

// RestoreFile restores the plugin state from a preset file.
func (e *Engine) RestoreFile(path string) error {
	s := state.New(e.table)
	if err := s.LoadFile(path); err != nil {
		return err
	}
	if err := e.Restore(s); err != nil {
		e.setErr(err)
		return err
	}
	e.log.Info().Str("file", path).Msg("state restored")
	return nil
}

// Settle runs empty blocks until queued control requests are consumed and the
// swap protocol is idle, so that offline work starts from a known model.
func (e *Engine) Settle(ctx context.Context) error {
	t := time.NewTicker(time.Millisecond)
	defer t.Stop()
	for {
		e.cycle(e.in[:0], e.out[:0], false)
		e.reqMu.Lock()
		queued := e.reqs.Length()
		e.reqMu.Unlock()
		if queued == 0 && e.p.SwapState() == plugin.SwapIdle {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (e *Engine) activate(ctx context.Context) error {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	switch e.state {
	case StateRunning:
		return errAlreadyRunning
	case StateClosed:
		return errClosed
	}
	e.runMu.Lock()
	e.p.Activate()
	e.runMu.Unlock()
	e.sched.Start(ctx)
	e.state = StateRunning
	e.started = time.Now()
	return nil
}

func (e *Engine) deactivate() {
	e.sched.Stop()
	e.runMu.Lock()
	e.p.Deactivate()
	e.sched.Drain()
	e.runMu.Unlock()
	e.lifeMu.Lock()
	if e.state == StateRunning {
		e.state = StateStopped
	}
	e.lifeMu.Unlock()
}

// Start activates the plugin and runs the real-time loop on its own OS thread,
// pacing blocks at the sample rate, until Stop or ctx is done.
func (e *Engine) Start(ctx context.Context, src Source, dst Sink) error {
	if err := e.activate(ctx); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	e.lifeMu.Lock()
	e.cancel, e.done = cancel, done
	e.lifeMu.Unlock()
	go e.loop(ctx, src, dst, done)
	e.log.Info().Msg("engine started")
	return nil
}

func (e *Engine) blockPeriod() time.Duration {
	return time.Duration(float64(time.Second) * float64(e.cfg.BlockSize) / e.cfg.SampleRate)
}

func (e *Engine) loop(ctx context.Context, src Source, dst Sink, done chan struct{}) {
	defer close(done)
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	period := e.blockPeriod()
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	in, out := e.in[:e.cfg.BlockSize], e.out[:e.cfg.BlockSize]
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		start := time.Now()
		n, err := src.ReadBlock(in)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				e.setErr(err)
				e.log.Error().Err(err).Msg("source failed")
			} else {
				e.log.Info().Msg("source exhausted")
			}
			return
		}
		e.Process(in[:n], out[:n])
		if err := dst.WriteBlock(out[:n]); err != nil {
			e.setErr(err)
			e.log.Error().Err(err).Msg("sink failed")
			return
		}
		if time.Since(start) > period {
			e.overruns.Add(1)
			overrunsTotal.Inc()
		}
	}
}

// Stop ends the real-time loop, waits for it and deactivates the plugin. Work
// still in flight is completed before Stop returns.
func (e *Engine) Stop() {
	e.lifeMu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	running := e.state == StateRunning
	e.lifeMu.Unlock()
	if !running {
		return
	}
	if cancel != nil {
		cancel()
		<-done
	}
	e.deactivate()
	e.log.Info().Uint64("blocks", e.blocks.Load()).Msg("engine stopped")
}

// Render processes src into dst as fast as possible. Queued requests and
// pending swaps are settled first, so the whole render uses one model unless a
// request arrives meanwhile.
func (e *Engine) Render(ctx context.Context, src Source, dst Sink) (int, error) {
	if err := e.activate(ctx); err != nil {
		return 0, err
	}
	defer e.deactivate()
	if err := e.Settle(ctx); err != nil {
		return 0, err
	}
	in, out := e.in[:e.cfg.BlockSize], e.out[:e.cfg.BlockSize]
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := src.ReadBlock(in)
		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return total, err
		}
		e.Process(in[:n], out[:n])
		if err := dst.WriteBlock(out[:n]); err != nil {
			return total, err
		}
		total += n
	}
}

// Close stops the engine and releases the plugin and its models.
func (e *Engine) Close() error {
	e.Stop()
	e.lifeMu.Lock()
	if e.state == StateClosed {
		e.lifeMu.Unlock()
		return nil
	}
	e.state = StateClosed
	e.lifeMu.Unlock()
	e.runMu.Lock()
	defer e.runMu.Unlock()
	e.sched.Drain()
	e.subMu.Lock()
	for id, ch := range e.subs {
		close(ch)
		delete(e.subs, id)
	}
	e.subMu.Unlock()
	return e.p.Close()
}
