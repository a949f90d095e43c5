package dsp

import (
	"errors"
	"fmt"
)

// ModelLoadError reports a model file that could not be turned into a Model.
type ModelLoadError struct {
	Path string
	Err  error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("load model %q: %v", e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// IsModelLoadFailure reports whether err came from a failed model load.
func IsModelLoadFailure(err error) bool {
	var le *ModelLoadError
	return errors.As(err, &le)
}

var (
	errUnknownArchitecture = errors.New("unknown architecture")
	errWeightCount         = errors.New("weight count mismatch")
	errTooLarge            = errors.New("model file too large")
	errPanic               = errors.New("model construction panicked")
)
