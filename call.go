package transcode

import (
	"strings"

	"github.com/branched-services/go-ink-transcode/registry"
	"github.com/branched-services/go-ink-transcode/scale"
	"github.com/branched-services/go-ink-transcode/value"
)

// Call is a constructor, message or event together with argument values
// that are known to encode against its declared types.
// Call is immutable - modifier methods return new instances.
type Call struct {
	item *registry.CallableItem
	args []value.Value
	enc  *Encoder
}

// newCall checks each argument against the item's declared types.
func newCall(enc *Encoder, item *registry.CallableItem, args []value.Value) (*Call, error) {
	if len(args) != len(item.Args) {
		return nil, &ArgumentError{
			Callable: item.Name,
			Index:    len(args),
			Err:      ErrLengthMismatch,
		}
	}
	for i, arg := range args {
		if _, err := enc.Encode(arg, item.Args[i].Type); err != nil {
			return nil, &ArgumentError{
				Callable: item.Name,
				Index:    i,
				Name:     item.Args[i].Name,
				Err:      err,
			}
		}
	}
	return &Call{
		item: item,
		args: append([]value.Value(nil), args...),
		enc:  enc,
	}, nil
}

// Item returns the callable item this call targets.
func (c *Call) Item() *registry.CallableItem {
	return c.item
}

// Name returns the callable's label.
func (c *Call) Name() string {
	return c.item.Name
}

// Kind returns whether this is a constructor, message or event.
func (c *Call) Kind() registry.CallableKind {
	return c.item.Kind
}

// Args returns a copy of the argument values.
func (c *Call) Args() []value.Value {
	return append([]value.Value(nil), c.args...)
}

// Arg returns the value of the named argument.
func (c *Call) Arg(name string) (value.Value, bool) {
	for i, a := range c.item.Args {
		if a.Name == name {
			return c.args[i], true
		}
	}
	return nil, false
}

// Selector returns a copy of the selector bytes.
func (c *Call) Selector() []byte {
	return append([]byte(nil), c.item.Selector...)
}

// HasReturnValue returns true if the callable declares a return type.
func (c *Call) HasReturnValue() bool {
	return c.item.ReturnType != nil
}

// ReturnType returns the declared return type, if any.
func (c *Call) ReturnType() (registry.TypeID, bool) {
	if c.item.ReturnType == nil {
		return 0, false
	}
	return *c.item.ReturnType, true
}

// Payable reports whether the callable accepts a value transfer.
func (c *Call) Payable() bool {
	return c.item.Payable
}

// WithArg replaces argument i.
//
// Returns a new Call with the argument set.
func (c *Call) WithArg(i int, v value.Value) (*Call, error) {
	if i < 0 || i >= len(c.args) {
		return nil, &ArgumentError{Callable: c.item.Name, Index: i, Err: ErrLengthMismatch}
	}
	if _, err := c.enc.Encode(v, c.item.Args[i].Type); err != nil {
		return nil, &ArgumentError{Callable: c.item.Name, Index: i, Name: c.item.Args[i].Name, Err: err}
	}
	clone := c.clone()
	clone.args[i] = v
	return clone, nil
}

// Encode returns the selector followed by each encoded argument.
func (c *Call) Encode() ([]byte, error) {
	return encodeCall(c.enc, c.item, c.args)
}

// encodeCall writes item's selector followed by args. The caller has checked
// that args matches item's arity.
func encodeCall(enc *Encoder, item *registry.CallableItem, args []value.Value) ([]byte, error) {
	w := scale.NewWriter(len(item.Selector) + 32*len(args))
	_, _ = w.Write(item.Selector)
	for i, arg := range args {
		if err := enc.EncodeTo(w, arg, item.Args[i].Type); err != nil {
			return nil, &ArgumentError{Callable: item.Name, Index: i, Name: item.Args[i].Name, Err: err}
		}
	}
	return w.Bytes(), nil
}

// Value returns the call as a variant named after the callable, with the
// arguments as named fields.
func (c *Call) Value() value.Variant {
	if len(c.args) == 0 {
		return value.Tag(c.item.Name)
	}
	m := make(value.Map, len(c.args))
	for i, a := range c.item.Args {
		m[i] = value.Field{Name: a.Name, Value: c.args[i]}
	}
	return value.Variant{Name: c.item.Name, Payload: m}
}

// String renders the call as name(arg: value, ...).
func (c *Call) String() string {
	var b strings.Builder
	b.WriteString(c.item.Name)
	b.WriteByte('(')
	for i, a := range c.item.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.Name)
		b.WriteString(": ")
		b.WriteString(c.args[i].String())
	}
	b.WriteByte(')')
	return b.String()
}

// clone creates a shallow copy of the Call.
func (c *Call) clone() *Call {
	clone := *c
	clone.args = make([]value.Value, len(c.args))
	copy(clone.args, c.args)
	return &clone
}
