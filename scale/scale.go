// Package scale implements the low-level pieces of the SCALE wire format:
// little-endian fixed-width integers, compact integers and a bounded read
// cursor. It knows nothing about type metadata.
package scale

import (
	"math/big"

	"github.com/cockroachdb/errors"
)

// Compact integer thresholds.
const (
	compactSingleMax = 1<<6 - 1
	compactTwoMax    = 1<<14 - 1
	compactFourMax   = 1<<30 - 1

	// MaxCompactBytes is the largest payload the big-integer compact mode can carry.
	MaxCompactBytes = 67
)

var (
	// ErrUnexpectedEOF is returned when a read runs past the end of the input.
	ErrUnexpectedEOF = errors.New("scale: unexpected end of input")

	// ErrNonCanonical indicates a compact integer not in its shortest form.
	ErrNonCanonical = errors.New("scale: non-canonical compact encoding")

	// ErrCompactTooLarge indicates a value beyond the compact big-integer range.
	ErrCompactTooLarge = errors.New("scale: value too large for compact encoding")

	// ErrNegative indicates a negative value was given to an unsigned encoding.
	ErrNegative = errors.New("scale: negative value for unsigned encoding")
)

// CompactLen returns the encoded size of v in compact form.
func CompactLen(v *big.Int) int {
	switch {
	case v.Sign() < 0:
		return 0
	case v.IsUint64() && v.Uint64() <= compactSingleMax:
		return 1
	case v.IsUint64() && v.Uint64() <= compactTwoMax:
		return 2
	case v.IsUint64() && v.Uint64() <= compactFourMax:
		return 4
	default:
		n := (v.BitLen() + 7) / 8
		if n < 4 {
			n = 4
		}
		return 1 + n
	}
}

// AppendCompact appends the compact encoding of v to dst.
func AppendCompact(dst []byte, v *big.Int) ([]byte, error) {
	if v.Sign() < 0 {
		return dst, ErrNegative
	}
	if v.IsUint64() {
		if u := v.Uint64(); u <= compactFourMax {
			return AppendCompactUint64(dst, u), nil
		}
	}
	n := (v.BitLen() + 7) / 8
	if n < 4 {
		n = 4
	}
	if n > MaxCompactBytes {
		return dst, ErrCompactTooLarge
	}
	dst = append(dst, byte((n-4)<<2)|0b11)
	return appendLE(dst, v, n), nil
}

// AppendCompactUint64 appends the compact encoding of u to dst.
func AppendCompactUint64(dst []byte, u uint64) []byte {
	switch {
	case u <= compactSingleMax:
		return append(dst, byte(u<<2))
	case u <= compactTwoMax:
		x := uint16(u<<2) | 0b01
		return append(dst, byte(x), byte(x>>8))
	case u <= compactFourMax:
		x := uint32(u<<2) | 0b10
		return append(dst, byte(x), byte(x>>8), byte(x>>16), byte(x>>24))
	default:
		n := 4
		for n < 8 && u>>(8*n) != 0 {
			n++
		}
		dst = append(dst, byte((n-4)<<2)|0b11)
		for i := 0; i < n; i++ {
			dst = append(dst, byte(u>>(8*i)))
		}
		return dst
	}
}

// AppendUint appends v as an n-byte little-endian unsigned integer.
// The caller guarantees 0 <= v < 2^(8n).
func AppendUint(dst []byte, v *big.Int, n int) []byte {
	return appendLE(dst, v, n)
}

// AppendInt appends v as an n-byte little-endian two's complement integer.
// The caller guarantees v fits in 8n bits.
func AppendInt(dst []byte, v *big.Int, n int) []byte {
	if v.Sign() >= 0 {
		return appendLE(dst, v, n)
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(8*n))
	return appendLE(dst, new(big.Int).Add(mod, v), n)
}

func appendLE(dst []byte, v *big.Int, n int) []byte {
	be := v.Bytes()
	for i := 0; i < n; i++ {
		if i < len(be) {
			dst = append(dst, be[len(be)-1-i])
		} else {
			dst = append(dst, 0)
		}
	}
	return dst
}

// Uint interprets b as a little-endian unsigned integer.
func Uint(b []byte) *big.Int {
	be := make([]byte, len(b))
	for i := range b {
		be[len(b)-1-i] = b[i]
	}
	return new(big.Int).SetBytes(be)
}

// Int interprets b as a little-endian two's complement integer.
func Int(b []byte) *big.Int {
	v := Uint(b)
	if len(b) > 0 && b[len(b)-1]&0x80 != 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(8*len(b)))
		v.Sub(v, mod)
	}
	return v
}
