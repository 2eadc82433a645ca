package engine

import "errors"

var (
	// ErrUnsupportedActivity means an Activity was dispatched for a kind
	// that has no behavior. It indicates a corrupted schedule.
	ErrUnsupportedActivity  = errors.New("activity not supported")
	ErrUnsupportedAnimation = errors.New("animation not supported")
	ErrUnknownAction        = errors.New("unknown action")
)
