package registry

import (
	"strings"
)

// TypeID is a key into the Registry. IDs are stable for the lifetime of one
// loaded metadata document.
type TypeID uint32

// Kind identifies the shape of a TypeDef.
type Kind uint8

const (
	// KindPrimitive is a bool, char, str or fixed-width integer.
	KindPrimitive Kind = iota

	// KindComposite is a struct or tuple-struct.
	KindComposite

	// KindVariant is a sum type; exactly one case is selected per value.
	KindVariant

	// KindSequence is a variable-length homogeneous list.
	KindSequence

	// KindArray is a fixed-length homogeneous list.
	KindArray

	// KindTuple is an anonymous ordered product.
	KindTuple

	// KindCompact is the compact encoding of an unsigned integer.
	KindCompact

	// KindUnsupported is a definition this package can load but not transcode,
	// such as a bit sequence.
	KindUnsupported
)

var kindNames = [...]string{
	KindPrimitive:   "primitive",
	KindComposite:   "composite",
	KindVariant:     "variant",
	KindSequence:    "sequence",
	KindArray:       "array",
	KindTuple:       "tuple",
	KindCompact:     "compact",
	KindUnsupported: "unsupported",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Primitive is a built-in scalar type.
type Primitive uint8

const (
	Bool Primitive = iota + 1
	Char
	Str
	U8
	U16
	U32
	U64
	U128
	U256
	I8
	I16
	I32
	I64
	I128
	I256
)

var primitiveNames = map[Primitive]string{
	Bool: "bool", Char: "char", Str: "str",
	U8: "u8", U16: "u16", U32: "u32", U64: "u64", U128: "u128", U256: "u256",
	I8: "i8", I16: "i16", I32: "i32", I64: "i64", I128: "i128", I256: "i256",
}

// ParsePrimitive maps a metadata primitive name to a Primitive.
func ParsePrimitive(name string) (Primitive, bool) {
	for p, n := range primitiveNames {
		if n == name {
			return p, true
		}
	}
	return 0, false
}

func (p Primitive) String() string {
	if n, ok := primitiveNames[p]; ok {
		return n
	}
	return "invalid"
}

// IsInteger reports whether p is a fixed-width integer.
func (p Primitive) IsInteger() bool {
	return p >= U8 && p <= I256
}

// Signed reports whether p is a signed integer.
func (p Primitive) Signed() bool {
	return p >= I8 && p <= I256
}

// Bits returns the width of an integer primitive, 32 for char, 8 for bool and
// 0 for str.
func (p Primitive) Bits() int {
	switch p {
	case Bool, U8, I8:
		return 8
	case U16, I16:
		return 16
	case U32, I32, Char:
		return 32
	case U64, I64:
		return 64
	case U128, I128:
		return 128
	case U256, I256:
		return 256
	default:
		return 0
	}
}

// Field is a composite or variant-case field. Name is empty for tuple-like fields.
type Field struct {
	Name     string
	Type     TypeID
	TypeName string
}

// VariantCase is one case of a Variant definition.
type VariantCase struct {
	Name   string
	Index  uint8
	Fields []Field
	Docs   []string
}

// TypeDef describes the shape of a type. Only the members relevant to Kind are set.
type TypeDef struct {
	Kind      Kind
	Primitive Primitive
	Fields    []Field       // KindComposite
	Cases     []VariantCase // KindVariant
	Elem      TypeID        // KindSequence, KindArray, KindCompact
	Len       uint32        // KindArray
	Elems     []TypeID      // KindTuple
	Raw       string        // KindUnsupported: the definition's key in the document
}

// CaseByName returns the variant case with the given name.
func (d *TypeDef) CaseByName(name string) (*VariantCase, bool) {
	for i := range d.Cases {
		if d.Cases[i].Name == name {
			return &d.Cases[i], true
		}
	}
	return nil, false
}

// CaseByIndex returns the variant case with the given discriminant.
func (d *TypeDef) CaseByIndex(index uint8) (*VariantCase, bool) {
	for i := range d.Cases {
		if d.Cases[i].Index == index {
			return &d.Cases[i], true
		}
	}
	return nil, false
}

// Named reports whether fields are named. Empty field lists are unnamed.
func Named(fields []Field) bool {
	return len(fields) > 0 && fields[0].Name != ""
}

// TypeParam is a generic parameter of a type. Type is nil for unbound parameters.
type TypeParam struct {
	Name string
	Type *TypeID
}

// Type is a registry entry.
type Type struct {
	ID     TypeID
	Path   []string
	Params []TypeParam
	Def    TypeDef
	Docs   []string
}

// Name returns the last path segment, or "" for anonymous types.
func (t *Type) Name() string {
	if len(t.Path) == 0 {
		return ""
	}
	return t.Path[len(t.Path)-1]
}

// PathString returns the path joined with "::".
func (t *Type) PathString() string {
	return strings.Join(t.Path, "::")
}
