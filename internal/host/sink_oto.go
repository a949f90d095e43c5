//go:build !headless

package host

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// DeviceSink plays processed blocks on the default audio device. Blocks are
// staged in a sample ring the device callback drains; when the device falls
// behind, the newest samples are dropped.
type DeviceSink struct {
	ctx    *oto.Context
	player *oto.Player
	ring   *ring[float32]
	mu     sync.Mutex
	closed bool
}

// NewDeviceSink opens the default output device at rate Hz, mono float32.
func NewDeviceSink(rate int, blockSize int) (*DeviceSink, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, err
	}
	<-ready
	size := 1
	for size < 8*blockSize {
		size <<= 1
	}
	s := &DeviceSink{ctx: ctx, ring: newRing[float32](size)}
	s.player = ctx.NewPlayer(s)
	s.player.Play()
	return s, nil
}

// WriteBlock stages buf for playback.
func (s *DeviceSink) WriteBlock(buf []float32) error {
	for i := range buf {
		if !s.ring.push(&buf[i]) {
			break
		}
	}
	return nil
}

// Read is the device pull callback; underruns are filled with silence.
func (s *DeviceSink) Read(p []byte) (int, error) {
	var v float32
	for i := 0; i+4 <= len(p); i += 4 {
		if !s.ring.pop(&v) {
			v = 0
		}
		binary.LittleEndian.PutUint32(p[i:], math.Float32bits(v))
	}
	return len(p) &^ 3, nil
}

// Close stops playback.
func (s *DeviceSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.player.Close()
}
