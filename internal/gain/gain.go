// Package gain applies a smoothed decibel gain to sample buffers.
package gain

import "math"

const (
	// Threshold below which the smoothed gain snaps to its target.
	Threshold = 1e-4
	// Coefficient of the one-pole smoother, per sample.
	Coefficient = 0.99
)

// DBToLinear converts decibels to a linear amplitude factor.
func DBToLinear(db float32) float32 {
	return float32(math.Pow(10, float64(db)/20))
}

// Stage holds the smoothed linear gain between blocks. The zero value is not
// ready to use; call New.
type Stage struct {
	current float32
}

// New returns a stage starting at unity gain.
func New() Stage { return Stage{current: 1} }

// Current reports the smoothed linear gain after the last Apply.
func (s *Stage) Current() float32 { return s.current }

// Reset jumps to the given gain in dB without smoothing.
func (s *Stage) Reset(db float32) { s.current = DBToLinear(db) }

// Apply writes in scaled by the smoothed gain to out. in and out may be the same
// slice. Only min(len(in), len(out)) samples are processed.
func (s *Stage) Apply(in, out []float32, targetDB float32) {
	n := len(in)
	if len(out) < n {
		n = len(out)
	}
	target := DBToLinear(targetDB)
	if abs(target-s.current) > Threshold {
		cur := s.current
		for i := 0; i < n; i++ {
			cur = Coefficient*cur + (1-Coefficient)*target
			out[i] = in[i] * cur
		}
		s.current = cur
		return
	}
	s.current = target
	for i := 0; i < n; i++ {
		out[i] = in[i] * target
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
