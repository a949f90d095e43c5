package plugin

import (
	"errors"
	"time"

	"namd/internal/dsp"
	"namd/internal/pathbuf"
)

// WorkKind tags a WorkMessage.
type WorkKind uint8

const (
	// WorkLoad asks the worker to load the model at Path.
	WorkLoad WorkKind = iota + 1
	// WorkSwitchComplete hands a loaded Model (possibly nil) and its Path back to
	// the audio context.
	WorkSwitchComplete
	// WorkFree hands a replaced Model to the worker for destruction.
	WorkFree
)

func (k WorkKind) String() string {
	switch k {
	case WorkLoad:
		return "load"
	case WorkSwitchComplete:
		return "switch_complete"
	case WorkFree:
		return "free"
	default:
		return "unknown"
	}
}

// WorkMessage crosses the worker boundary in both directions. Its size is fixed
// and independent of the model; schedulers copy it by value. Whoever holds a
// message carrying a Model owns that Model.
type WorkMessage struct {
	Kind  WorkKind
	Model dsp.Model
	Path  pathbuf.Buffer
}

// WorkScheduler is the host's worker queue, called from the audio context.
// ScheduleWork copies *msg and returns immediately; it must not block or
// allocate. It returns an error when the queue cannot take the message.
type WorkScheduler interface {
	ScheduleWork(msg *WorkMessage) error
}

// Responder sends a message from the worker back to the audio context. The
// message is copied.
type Responder func(msg *WorkMessage) error

var errUnknownWork = errors.New("unknown work message")

// Work runs in the worker context. Load messages produce a SwitchComplete
// response on success; failures are logged and leave the active model alone.
// Free messages destroy the model they carry.
func (p *Plugin) Work(respond Responder, msg *WorkMessage) error {
	switch msg.Kind {
	case WorkLoad:
		return p.workLoad(respond, msg)
	case WorkFree:
		m := msg.Model
		msg.Model = nil
		if m != nil {
			if err := m.Close(); err != nil {
				p.log.Warn().Err(err).Msg("close model")
			}
		}
		p.swap.freesPending.Add(-1)
		freesTotal.Inc()
		return nil
	default:
		return errUnknownWork
	}
}

func (p *Plugin) workLoad(respond Responder, msg *WorkMessage) error {
	path := msg.Path.String()
	start := time.Now()
	m, err := p.load(path)
	loadDuration.Observe(time.Since(start).Seconds())
	p.noteLoad(err)
	if err != nil {
		p.swap.loadsPending.Add(-1)
		loadFailures.Inc()
		p.log.Error().Err(err).Str("path", path).Msg("model load failed; keeping current model")
		return err
	}
	p.log.Info().Str("path", path).Bool("empty", m == nil).Dur("took", time.Since(start)).Msg("model loaded")

	resp := WorkMessage{Kind: WorkSwitchComplete, Model: m}
	_ = resp.Path.Set(msg.Path.Bytes())
	p.swap.switchesQueued.Add(1)
	p.swap.loadsPending.Add(-1)
	if err := respond(&resp); err != nil {
		// The handle never reached the audio side, so it is still ours to drop.
		p.swap.switchesQueued.Add(-1)
		if m != nil {
			_ = m.Close()
		}
		p.log.Error().Err(err).Str("path", path).Msg("respond failed; discarding loaded model")
		return err
	}
	return nil
}

// noteLoad records the outcome of the latest load attempt. Worker context or
// inactive instance only; it allocates on failure.
func (p *Plugin) noteLoad(err error) {
	if err == nil {
		p.loadErr.Store(nil)
		return
	}
	msg := err.Error()
	p.loadErr.Store(&msg)
}

// LastLoadError returns why the most recent model load failed, or "" when it
// succeeded. Safe to call from any goroutine.
func (p *Plugin) LastLoadError() string {
	if msg := p.loadErr.Load(); msg != nil {
		return *msg
	}
	return ""
}

// WorkResponse runs in the audio context at a cycle boundary, before the next
// Run. A SwitchComplete installs the new model, records its path in place,
// raises the notifications and sends the previous model back for destruction.
// It is O(1) and never blocks.
//
// When the current model can neither be queued for destruction nor parked,
// WorkResponse returns ErrSwitchDeferred and leaves msg and all state
// untouched; the host must hand the same message back on a later cycle.
func (p *Plugin) WorkResponse(msg *WorkMessage) error {
	if msg.Kind != WorkSwitchComplete {
		return errUnknownWork
	}
	if p.model != nil && p.nRetire == len(p.retired) {
		p.retryRetired()
		if p.nRetire == len(p.retired) {
			switchesDeferred.Inc()
			return ErrSwitchDeferred
		}
	}
	p.swap.switchesQueued.Add(-1)

	old := p.model
	p.model = msg.Model
	msg.Model = nil
	if err := p.path.Set(msg.Path.Bytes()); err != nil {
		// Unreachable for worker-built messages; keep the old path rather than
		// truncating.
		p.log.Error().Err(err).Msg("switch path does not fit buffer")
	}
	p.notifyChanged = true
	p.notifyPath = true
	swapsTotal.Inc()
	p.retire(old)
	return nil
}
