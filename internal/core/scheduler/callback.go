package scheduler

// CallbackKind tags which member of Callback is set.
type CallbackKind uint8

const (
	CallbackNone CallbackKind = iota
	CallbackNative
	CallbackScripted
)

func (k CallbackKind) String() string {
	switch k {
	case CallbackNative:
		return "native"
	case CallbackScripted:
		return "scripted"
	default:
		return "none"
	}
}

// NativeFunc is a Go callback. It receives the firing event; the event's
// repeat count is decremented only after the function returns.
type NativeFunc func(evt *Event) error

// Callback is either a Go function or the name of a function living in a
// ScriptHost. Scripted callbacks are resolved when they fire, so events
// restored from a save never hold script closures.
type Callback struct {
	kind     CallbackKind
	native   NativeFunc
	function string
}

func Native(fn NativeFunc) Callback {
	if fn == nil {
		return Callback{}
	}
	return Callback{kind: CallbackNative, native: fn}
}

func Scripted(function string) Callback {
	if function == "" {
		return Callback{}
	}
	return Callback{kind: CallbackScripted, function: function}
}

func (c Callback) Kind() CallbackKind   { return c.kind }
func (c Callback) FunctionName() string { return c.function }
func (c Callback) IsZero() bool         { return c.kind == CallbackNone }

// ScriptHost resolves scripted callbacks by function name.
type ScriptHost interface {
	Has(function string) bool
	Call(function string, evt *Event) error
}

// FuncTable is a ScriptHost backed by a map of Go functions. It is what the
// runner uses when no script file is configured, and what tests use in place
// of a real interpreter.
type FuncTable map[string]NativeFunc

func (t FuncTable) Has(function string) bool {
	_, ok := t[function]
	return ok
}

func (t FuncTable) Call(function string, evt *Event) error {
	fn, ok := t[function]
	if !ok {
		return ErrScriptNotFound
	}
	return fn(evt)
}
