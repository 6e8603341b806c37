package value

import (
	"bytes"
	"math/big"
)

// Equal reports whether a and b have the same shape and contents.
// Integers compare by numeric value: UInt and Int are interchangeable and
// widths are ignored, so a parsed literal equals its decoded counterpart.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if isInteger(a) && isInteger(b) {
		xa, _ := Integer(a)
		xb, _ := Integer(b)
		return zeroIfNil(xa).Cmp(zeroIfNil(xb)) == 0
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Unit:
		return true
	case Bool:
		return x == b.(Bool)
	case Bytes:
		return bytes.Equal(x, b.(Bytes))
	case String:
		return x == b.(String)
	case Char:
		return x == b.(Char)
	case Seq:
		return equalList(x, b.(Seq))
	case Tuple:
		return equalList(x, b.(Tuple))
	case Map:
		y := b.(Map)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if x[i].Name != y[i].Name || !Equal(x[i].Value, y[i].Value) {
				return false
			}
		}
		return true
	case Variant:
		y := b.(Variant)
		return x.Name == y.Name && Equal(payloadOrUnit(x.Payload), payloadOrUnit(y.Payload))
	default:
		return false
	}
}

func equalList(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func isInteger(v Value) bool {
	k := v.Kind()
	return k == KindUInt || k == KindInt
}

func zeroIfNil(n *big.Int) *big.Int {
	if n == nil {
		return new(big.Int)
	}
	return n
}

func payloadOrUnit(v Value) Value {
	if v == nil {
		return Unit{}
	}
	return v
}
