package plugin

import (
	"sync/atomic"

	"namd/internal/dsp"
)

// retireSlots bounds how many replaced models can wait for a free slot in the
// worker queue.
const retireSlots = 8

// SwapState is the observable phase of the hot-swap protocol.
type SwapState int

const (
	// SwapIdle: nothing in flight.
	SwapIdle SwapState = iota
	// SwapLoadRequested: a Load is queued or running in the worker.
	SwapLoadRequested
	// SwapAwaitingSwitch: a loaded model waits for delivery to the audio context.
	SwapAwaitingSwitch
	// SwapPendingFree: a replaced model waits for destruction in the worker.
	SwapPendingFree
)

func (s SwapState) String() string {
	switch s {
	case SwapIdle:
		return "idle"
	case SwapLoadRequested:
		return "load_requested"
	case SwapAwaitingSwitch:
		return "awaiting_switch"
	case SwapPendingFree:
		return "pending_free"
	default:
		return "unknown"
	}
}

// swapCounters track messages in flight. Each counter is incremented by the side
// that sends and decremented by the side that consumes, so it can be read from
// any goroutine.
type swapCounters struct {
	loadsPending   atomic.Int32
	switchesQueued atomic.Int32
	freesPending   atomic.Int32
}

// SwapState reports the current protocol phase. Safe to call from any goroutine.
func (p *Plugin) SwapState() SwapState {
	switch {
	case p.swap.switchesQueued.Load() > 0:
		return SwapAwaitingSwitch
	case p.swap.loadsPending.Load() > 0:
		return SwapLoadRequested
	case p.swap.freesPending.Load() > 0:
		return SwapPendingFree
	default:
		return SwapIdle
	}
}

// InFlight reports the raw counters behind SwapState.
func (p *Plugin) InFlight() (loads, switches, frees int) {
	return int(p.swap.loadsPending.Load()), int(p.swap.switchesQueued.Load()), int(p.swap.freesPending.Load())
}

// requestLoad copies path into the load message and hands it to the worker.
// Audio context; it only copies bounded data. A full queue drops the request.
func (p *Plugin) requestLoad(path []byte) bool {
	if err := p.loadMsg.Path.Set(path); err != nil {
		return false
	}
	p.loadMsg.Kind = WorkLoad
	p.loadMsg.Model = nil
	p.swap.loadsPending.Add(1)
	if err := p.schedule.ScheduleWork(&p.loadMsg); err != nil {
		p.swap.loadsPending.Add(-1)
		scheduleDropped.Inc()
		p.log.Warn().Err(err).Bytes("path", path).Msg("load request dropped")
		return false
	}
	loadsRequested.Inc()
	return true
}

// retire sends a replaced model to the worker. When the queue is full the model
// is parked and retried on the next cycle; it is never closed here.
// WorkResponse guarantees a free slot before it replaces a model.
func (p *Plugin) retire(m dsp.Model) {
	if m == nil {
		return
	}
	if p.scheduleFree(m) {
		return
	}
	p.retired[p.nRetire] = m
	p.nRetire++
}

// retryRetired resubmits parked models in order, stopping at the first refusal.
func (p *Plugin) retryRetired() {
	sent := 0
	for sent < p.nRetire && p.scheduleFree(p.retired[sent]) {
		sent++
	}
	if sent == 0 {
		return
	}
	copy(p.retired[:], p.retired[sent:p.nRetire])
	for i := p.nRetire - sent; i < p.nRetire; i++ {
		p.retired[i] = nil
	}
	p.nRetire -= sent
}

func (p *Plugin) scheduleFree(m dsp.Model) bool {
	p.freeMsg.Kind = WorkFree
	p.freeMsg.Model = m
	p.freeMsg.Path.Reset()
	p.swap.freesPending.Add(1)
	err := p.schedule.ScheduleWork(&p.freeMsg)
	p.freeMsg.Model = nil
	if err != nil {
		p.swap.freesPending.Add(-1)
		return false
	}
	return true
}
