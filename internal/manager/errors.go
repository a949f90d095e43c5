package manager

// tooBusyError signals control-queue overflow for 429 mapping.
type tooBusyError struct{ what string }

func (e tooBusyError) Error() string { return "too busy: " + e.what }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	_, ok := err.(tooBusyError)
	return ok
}

type modelNotFoundError struct{ id string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.id }

// ErrModelNotFound returns an error when a requested model is neither in the
// catalog nor an existing file.
func ErrModelNotFound(id string) error { return modelNotFoundError{id: id} }

// IsModelNotFound reports whether the error indicates a missing model.
func IsModelNotFound(err error) bool {
	_, ok := err.(modelNotFoundError)
	return ok
}

// invalidError marks a request that can never succeed as given (400).
type invalidError struct{ msg string }

func (e invalidError) Error() string { return e.msg }

// ErrInvalid constructs an invalid-request error.
func ErrInvalid(msg string) error { return invalidError{msg: msg} }

// IsInvalid reports whether err marks a malformed request.
func IsInvalid(err error) bool {
	_, ok := err.(invalidError)
	return ok
}

type stateNotFoundError struct{ path string }

func (e stateNotFoundError) Error() string { return "state file not found: " + e.path }

// IsNotFound reports whether err names a missing model or preset (404).
func IsNotFound(err error) bool {
	if IsModelNotFound(err) {
		return true
	}
	_, ok := err.(stateNotFoundError)
	return ok
}
