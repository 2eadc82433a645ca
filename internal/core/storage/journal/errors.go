package journal

import "errors"

var (
	ErrRunNotFound   = errors.New("run not found")
	ErrNoSnapshots   = errors.New("run has no recorded snapshots")
	ErrEmptyPath     = errors.New("empty journal path")
	ErrJournalClosed = errors.New("journal closed")
)
