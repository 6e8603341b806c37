// Package value is the untyped intermediate representation shared by the
// literal parser, the encoder and the decoder.
//
// Values mirror the shapes of type definitions but carry no type
// information: the encoder coerces them against a target type, and the
// decoder produces them from one.
package value

import (
	"math/big"
)

// MaxWidth is the width given to integers whose type is not yet known.
const MaxWidth = 256

// Kind identifies a Value's shape.
type Kind uint8

const (
	KindUnit Kind = iota
	KindBool
	KindUInt
	KindInt
	KindBytes
	KindString
	KindChar
	KindSeq
	KindTuple
	KindMap
	KindVariant
)

var kindNames = [...]string{
	KindUnit:    "unit",
	KindBool:    "bool",
	KindUInt:    "unsigned integer",
	KindInt:     "signed integer",
	KindBytes:   "bytes",
	KindString:  "string",
	KindChar:    "char",
	KindSeq:     "sequence",
	KindTuple:   "tuple",
	KindMap:     "map",
	KindVariant: "variant",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is any literal the parser or decoder can produce.
// This is a sealed interface - only types within this package implement it.
type Value interface {
	// isValue is unexported to seal the interface.
	isValue()

	// Kind returns the shape of this value.
	Kind() Kind

	// String returns the canonical rendering, which the literal parser
	// accepts back.
	String() string
}

// Unit is the empty value ().
type Unit struct{}

func (Unit) isValue()         {}
func (Unit) Kind() Kind       { return KindUnit }
func (u Unit) String() string { return render(u) }

// Bool is a boolean.
type Bool bool

func (Bool) isValue()         {}
func (Bool) Kind() Kind       { return KindBool }
func (b Bool) String() string { return render(b) }

// UInt is a non-negative integer. Width is the bit width of the type it was
// decoded from, or MaxWidth for parsed literals.
type UInt struct {
	Width int
	V     *big.Int
}

func (UInt) isValue()         {}
func (UInt) Kind() Kind       { return KindUInt }
func (u UInt) String() string { return render(u) }

// Int is a signed integer. Width follows the same rules as UInt.
type Int struct {
	Width int
	V     *big.Int
}

func (Int) isValue()         {}
func (Int) Kind() Kind       { return KindInt }
func (i Int) String() string { return render(i) }

// Bytes is a raw byte string.
type Bytes []byte

func (Bytes) isValue()         {}
func (Bytes) Kind() Kind       { return KindBytes }
func (b Bytes) String() string { return render(b) }

// String is a UTF-8 character string.
type String string

func (String) isValue()         {}
func (String) Kind() Kind       { return KindString }
func (s String) String() string { return render(s) }

// Char is a single Unicode scalar value.
type Char rune

func (Char) isValue()         {}
func (Char) Kind() Kind       { return KindChar }
func (c Char) String() string { return render(c) }

// Seq is an ordered homogeneous list.
type Seq []Value

func (Seq) isValue()         {}
func (Seq) Kind() Kind       { return KindSeq }
func (s Seq) String() string { return render(s) }

// Tuple is an ordered heterogeneous list.
type Tuple []Value

func (Tuple) isValue()         {}
func (Tuple) Kind() Kind       { return KindTuple }
func (t Tuple) String() string { return render(t) }

// Field is a named member of a Map.
type Field struct {
	Name  string
	Value Value
}

// Map is a named-field composite. Field order is preserved as written or decoded.
type Map []Field

func (Map) isValue()         {}
func (Map) Kind() Kind       { return KindMap }
func (m Map) String() string { return render(m) }

// Get returns the value of the named field.
func (m Map) Get(name string) (Value, bool) {
	for _, f := range m {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Variant is a tagged enum case. Payload is Unit, Tuple or Map.
type Variant struct {
	Name    string
	Payload Value
}

func (Variant) isValue()         {}
func (Variant) Kind() Kind       { return KindVariant }
func (v Variant) String() string { return render(v) }

// NewUInt creates an unsigned integer value of the given width.
func NewUInt(width int, v uint64) UInt {
	return UInt{Width: width, V: new(big.Int).SetUint64(v)}
}

// NewInt creates a signed integer value of the given width.
func NewInt(width int, v int64) Int {
	return Int{Width: width, V: big.NewInt(v)}
}

// BigUInt creates an unsigned integer value from a *big.Int.
func BigUInt(width int, v *big.Int) UInt {
	return UInt{Width: width, V: new(big.Int).Set(v)}
}

// BigInt creates a signed integer value from a *big.Int.
func BigInt(width int, v *big.Int) Int {
	return Int{Width: width, V: new(big.Int).Set(v)}
}

// Integer returns the numeric value of an UInt or Int.
func Integer(v Value) (*big.Int, bool) {
	switch n := v.(type) {
	case UInt:
		return n.V, n.V != nil
	case Int:
		return n.V, n.V != nil
	default:
		return nil, false
	}
}

// Unit-payload variant helper.
func Tag(name string) Variant {
	return Variant{Name: name, Payload: Unit{}}
}

// TupleVariant creates a variant with positional payload.
func TupleVariant(name string, fields ...Value) Variant {
	return Variant{Name: name, Payload: Tuple(fields)}
}

// Some wraps v in the Some case of an Option.
func Some(v Value) Variant {
	return TupleVariant("Some", v)
}

// None is the empty case of an Option.
func None() Variant {
	return Tag("None")
}
