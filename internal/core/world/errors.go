package world

import "errors"

var (
	ErrCellOccupied      = errors.New("position occupied")
	ErrNilEntity         = errors.New("nil entity")
	ErrAlreadyRegistered = errors.New("entity already registered")
	ErrInvalidDimensions = errors.New("world dimensions must be positive")
)
