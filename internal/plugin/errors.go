package plugin

import (
	"errors"

	"namd/internal/pathbuf"
)

// Host feature URIs checked at instantiation.
const (
	FeatureURIDMap  = "http://lv2plug.in/ns/ext/urid#map"
	FeatureSchedule = "http://lv2plug.in/ns/ext/worker#schedule"
)

// MissingFeatureError reports a required host service that was not provided.
type MissingFeatureError struct{ Feature string }

func (e *MissingFeatureError) Error() string { return "missing required feature: " + e.Feature }

// IsMissingHostFeature reports whether err came from Instantiate lacking a
// required host service.
func IsMissingHostFeature(err error) bool {
	var mf *MissingFeatureError
	return errors.As(err, &mf)
}

// ErrPathTooLong is returned by Save and Restore for paths that do not fit the
// path buffer.
var ErrPathTooLong = pathbuf.ErrPathTooLong

// ErrSwitchDeferred is returned by WorkResponse when the model it would replace
// has nowhere to go yet. The response is still valid and must be redelivered.
var ErrSwitchDeferred = errors.New("switch deferred: retire list full")

var errScheduleRefused = errors.New("worker queue refused load request")
