package host

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"namd/internal/plugin"
)

// DefaultQueueSize is the capacity of each worker ring.
const DefaultQueueSize = 64

// ErrNoSpace is returned when a worker ring is full.
var ErrNoSpace = errors.New("worker queue full")

// Worker is the plugin side of the worker protocol.
type Worker interface {
	Work(respond plugin.Responder, msg *plugin.WorkMessage) error
	WorkResponse(msg *plugin.WorkMessage) error
}

// Scheduler is the host worker: requests flow from the audio goroutine to a
// worker goroutine through one ring, responses come back through another and
// are handed to the plugin only when the audio goroutine calls Deliver.
type Scheduler struct {
	log       zerolog.Logger
	requests  *ring[plugin.WorkMessage]
	responses *ring[plugin.WorkMessage]
	wake      chan struct{}
	w         Worker
	respondFn plugin.Responder

	// scratch cells, one per goroutine role
	audioMsg  plugin.WorkMessage
	workerMsg plugin.WorkMessage

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewScheduler allocates both rings with size cells each (rounded up to a power
// of two).
func NewScheduler(size int, log zerolog.Logger) *Scheduler {
	if size <= 0 {
		size = DefaultQueueSize
	}
	n := 1
	for n < size {
		n <<= 1
	}
	s := &Scheduler{
		log:       log.With().Str("component", "worker").Logger(),
		requests:  newRing[plugin.WorkMessage](n),
		responses: newRing[plugin.WorkMessage](n),
		wake:      make(chan struct{}, 1),
	}
	s.respondFn = s.respond
	return s
}

// Bind attaches the plugin instance served by this scheduler. It must be called
// before Start, Deliver or Drain.
func (s *Scheduler) Bind(w Worker) { s.w = w }

// ScheduleWork implements plugin.WorkScheduler. It copies msg into the request
// ring and nudges the worker without blocking.
func (s *Scheduler) ScheduleWork(msg *plugin.WorkMessage) error {
	if !s.requests.push(msg) {
		workerQueueFull.Inc()
		return ErrNoSpace
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

func (s *Scheduler) respond(msg *plugin.WorkMessage) error {
	if !s.responses.push(msg) {
		workerQueueFull.Inc()
		return ErrNoSpace
	}
	return nil
}

// Start runs the worker goroutine until ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	s.log.Debug().Msg("worker started")
	for {
		select {
		case <-ctx.Done():
			s.log.Debug().Msg("worker stopped")
			return
		case <-s.wake:
			s.runPending()
		}
	}
}

// runPending executes every queued request. Worker goroutine only.
func (s *Scheduler) runPending() int {
	n := 0
	for s.requests.pop(&s.workerMsg) {
		n++
		kind := s.workerMsg.Kind
		if err := s.w.Work(s.respondFn, &s.workerMsg); err != nil {
			s.log.Debug().Err(err).Stringer("kind", kind).Msg("work failed")
		}
		s.workerMsg = plugin.WorkMessage{}
	}
	return n
}

// Deliver hands every pending response to the plugin. Call it from the audio
// goroutine between blocks; it returns how many responses were consumed. A
// response the plugin defers stays at the head of the ring, and everything
// behind it waits, until a later Deliver.
func (s *Scheduler) Deliver() int {
	n := 0
	for s.responses.peek(&s.audioMsg) {
		err := s.w.WorkResponse(&s.audioMsg)
		s.audioMsg = plugin.WorkMessage{}
		if errors.Is(err, plugin.ErrSwitchDeferred) {
			s.log.Debug().Msg("switch deferred")
			break
		}
		s.responses.drop()
		n++
		if err != nil {
			s.log.Error().Err(err).Msg("work response rejected")
		}
	}
	return n
}

// Pending reports queued requests and undelivered responses.
func (s *Scheduler) Pending() (requests, responses int) {
	return s.requests.len(), s.responses.len()
}

// Stop ends the worker goroutine and waits for it. The audio goroutine must be
// quiet when Stop is called.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	done, cancel := s.done, s.cancel
	running := s.running
	s.running = false
	s.mu.Unlock()
	if !running {
		return
	}
	cancel()
	<-done
}

// Drain runs the protocol to quiescence on the calling goroutine: requests are
// worked and responses delivered until both rings are empty. Only valid while
// the worker goroutine is stopped and no block is being processed.
func (s *Scheduler) Drain() {
	for {
		worked := s.runPending()
		delivered := s.Deliver()
		if worked == 0 && delivered == 0 {
			return
		}
	}
}
