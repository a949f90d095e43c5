//go:build headless

package host

import "errors"

// DeviceSink is unavailable in headless builds.
type DeviceSink struct{}

// NewDeviceSink always fails in headless builds.
func NewDeviceSink(rate int, blockSize int) (*DeviceSink, error) {
	return nil, errors.New("audio output not available in headless build")
}

func (*DeviceSink) WriteBlock([]float32) error { return nil }

func (*DeviceSink) Close() error { return nil }
