// Package params is a typed, schema-validated key/value store attached to a
// single entity. Every key is declared once with a Kind; accessors fail with
// an error instead of silently coercing.
package params

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUndefined    = errors.New("params: parameter not defined")
	ErrKindMismatch = errors.New("params: kind mismatch")
	ErrRedefined    = errors.New("params: parameter already defined with another kind")
)

type Kind uint8

const (
	KindString Kind = iota + 1
	KindFloat
	KindInt
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	default:
		return "invalid"
	}
}

type value struct {
	kind Kind
	s    string
	f    float64
	i    int
	b    bool
}

// Bag holds the parameters of one entity. The zero value is not usable; call New.
type Bag struct {
	values map[string]*value
}

func New() *Bag {
	return &Bag{values: make(map[string]*value)}
}

// Define declares name with kind and a default value. Redefining a key with
// the same kind keeps the current value.
func (b *Bag) Define(name string, kind Kind, def any) error {
	if v, ok := b.values[name]; ok {
		if v.kind != kind {
			return fmt.Errorf("%w: %s is %s, not %s", ErrRedefined, name, v.kind, kind)
		}
		return nil
	}
	v := &value{kind: kind}
	if err := v.assign(def); err != nil {
		return fmt.Errorf("define %s: %w", name, err)
	}
	b.values[name] = v
	return nil
}

func (b *Bag) Has(name string) bool {
	_, ok := b.values[name]
	return ok
}

func (b *Bag) Kind(name string) (Kind, bool) {
	v, ok := b.values[name]
	if !ok {
		return 0, false
	}
	return v.kind, true
}

func (b *Bag) lookup(name string, kind Kind) (*value, error) {
	v, ok := b.values[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUndefined, name)
	}
	if v.kind != kind {
		return nil, fmt.Errorf("%w: %s is %s, not %s", ErrKindMismatch, name, v.kind, kind)
	}
	return v, nil
}

func (b *Bag) String(name string) (string, error) {
	v, err := b.lookup(name, KindString)
	if err != nil {
		return "", err
	}
	return v.s, nil
}

func (b *Bag) Float(name string) (float64, error) {
	v, err := b.lookup(name, KindFloat)
	if err != nil {
		return 0, err
	}
	return v.f, nil
}

func (b *Bag) Int(name string) (int, error) {
	v, err := b.lookup(name, KindInt)
	if err != nil {
		return 0, err
	}
	return v.i, nil
}

func (b *Bag) Bool(name string) (bool, error) {
	v, err := b.lookup(name, KindBool)
	if err != nil {
		return false, err
	}
	return v.b, nil
}

func (b *Bag) SetString(name, s string) error {
	v, err := b.lookup(name, KindString)
	if err != nil {
		return err
	}
	v.s = s
	return nil
}

func (b *Bag) SetFloat(name string, f float64) error {
	v, err := b.lookup(name, KindFloat)
	if err != nil {
		return err
	}
	v.f = f
	return nil
}

// AddFloat increments a float parameter and returns the new value.
func (b *Bag) AddFloat(name string, delta float64) (float64, error) {
	v, err := b.lookup(name, KindFloat)
	if err != nil {
		return 0, err
	}
	v.f += delta
	return v.f, nil
}

func (b *Bag) SetInt(name string, i int) error {
	v, err := b.lookup(name, KindInt)
	if err != nil {
		return err
	}
	v.i = i
	return nil
}

func (b *Bag) SetBool(name string, val bool) error {
	v, err := b.lookup(name, KindBool)
	if err != nil {
		return err
	}
	v.b = val
	return nil
}

// Names returns the declared keys in sorted order.
func (b *Bag) Names() []string {
	names := make([]string, 0, len(b.values))
	for k := range b.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Snapshot exports every parameter as a plain value keyed by name.
func (b *Bag) Snapshot() map[string]any {
	out := make(map[string]any, len(b.values))
	for k, v := range b.values {
		out[k] = v.get()
	}
	return out
}

// Restore assigns values from a snapshot. Keys must already be defined; the
// schema comes from the owning component, never from save data.
func (b *Bag) Restore(snapshot map[string]any) error {
	var errs error
	for k, raw := range snapshot {
		v, ok := b.values[k]
		if !ok {
			errs = errors.Join(errs, fmt.Errorf("%w: %s", ErrUndefined, k))
			continue
		}
		if err := v.assign(raw); err != nil {
			errs = errors.Join(errs, fmt.Errorf("restore %s: %w", k, err))
		}
	}
	return errs
}

func (v *value) get() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindFloat:
		return v.f
	case KindInt:
		return v.i
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// assign accepts the natural Go type of the kind plus the numeric widenings
// produced by yaml and json decoders.
func (v *value) assign(raw any) error {
	if raw == nil {
		*v = value{kind: v.kind}
		return nil
	}
	switch v.kind {
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return fmt.Errorf("%w: want string, got %T", ErrKindMismatch, raw)
		}
		v.s = s
	case KindFloat:
		switch n := raw.(type) {
		case float64:
			v.f = n
		case float32:
			v.f = float64(n)
		case int:
			v.f = float64(n)
		case int64:
			v.f = float64(n)
		default:
			return fmt.Errorf("%w: want float, got %T", ErrKindMismatch, raw)
		}
	case KindInt:
		switch n := raw.(type) {
		case int:
			v.i = n
		case int64:
			v.i = int(n)
		case float64:
			if n != float64(int(n)) {
				return fmt.Errorf("%w: %v is not integral", ErrKindMismatch, n)
			}
			v.i = int(n)
		default:
			return fmt.Errorf("%w: want int, got %T", ErrKindMismatch, raw)
		}
	case KindBool:
		bv, ok := raw.(bool)
		if !ok {
			return fmt.Errorf("%w: want bool, got %T", ErrKindMismatch, raw)
		}
		v.b = bv
	default:
		return fmt.Errorf("%w: invalid kind", ErrKindMismatch)
	}
	return nil
}
