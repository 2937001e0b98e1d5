package scheduler

import "errors"

var (
	ErrInvalidCooldown   = errors.New("scheduler: cooldown must be positive")
	ErrInvalidRepeats    = errors.New("scheduler: repeats must not be negative")
	ErrEmptyName         = errors.New("scheduler: event name is empty")
	ErrNoCallback        = errors.New("scheduler: event has no callback")
	ErrScriptHostMissing = errors.New("scheduler: no script host for scripted callback")
	ErrScriptNotFound    = errors.New("scheduler: script function not found")
	ErrCallbackPanic     = errors.New("scheduler: callback panicked")
	ErrUnknownPrototype  = errors.New("scheduler: unknown event prototype")
	ErrFireCapReached    = errors.New("scheduler: fires per update capped")
)
