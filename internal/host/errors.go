package host

import (
	"errors"
	"strconv"

	"namd/internal/plugin"
)

// ErrPathTooLong is returned for model paths the plugin cannot hold.
var ErrPathTooLong = plugin.ErrPathTooLong

var (
	errAlreadyRunning = errors.New("engine already running")
	errClosed         = errors.New("engine closed")
)

// busyError signals that the control request queue is full.
type busyError struct{ pending int }

func (e busyError) Error() string {
	return "control queue full: " + strconv.Itoa(e.pending) + " pending"
}

// IsBusy reports whether err indicates control-queue backpressure.
func IsBusy(err error) bool {
	var b busyError
	return errors.As(err, &b)
}
