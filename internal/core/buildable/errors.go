package buildable

import "errors"

var (
	ErrUnknownPrototype = errors.New("buildable: unknown prototype")
	ErrOutOfBounds      = errors.New("buildable: footprint leaves the world")
	ErrOccupied         = errors.New("buildable: tile already occupied")
	ErrRemoved          = errors.New("buildable: already removed")
)
