package simulation

import "errors"

var (
	ErrInvalidTimeScale = errors.New("time scale must be positive")
	ErrNoTile           = errors.New("no such tile")
	ErrNotLandingPad    = errors.New("buildable is not a landing pad")
	ErrChecksumMismatch = errors.New("save checksum mismatch")
	ErrSaveVersion      = errors.New("unsupported save version")
)
