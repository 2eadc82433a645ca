package loader

import "errors"

var (
	ErrInvalidDocument = errors.New("invalid world document")
	ErrUnknownKind     = errors.New("unknown entity kind")
)
