package scale

import (
	"math/big"

	"github.com/cockroachdb/errors"
)

// Reader is a bounded cursor over an encoded buffer.
// Reads never go past the end of the buffer; they fail with ErrUnexpectedEOF instead.
type Reader struct {
	buf []byte
	off int
}

// NewReader creates a Reader positioned at the start of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.off
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	if r.off >= len(r.buf) {
		return 0, ErrUnexpectedEOF
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

// Peek returns the next n bytes without consuming them.
func (r *Reader) Peek(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, ErrUnexpectedEOF
	}
	return r.buf[r.off : r.off+n], nil
}

// Next consumes n bytes and returns them. The returned slice aliases the buffer.
func (r *Reader) Next(n int) ([]byte, error) {
	b, err := r.Peek(n)
	if err != nil {
		return nil, err
	}
	r.off += n
	return b, nil
}

// ReadUint reads an n-byte little-endian unsigned integer.
func (r *Reader) ReadUint(n int) (*big.Int, error) {
	b, err := r.Next(n)
	if err != nil {
		return nil, err
	}
	return Uint(b), nil
}

// ReadInt reads an n-byte little-endian two's complement integer.
func (r *Reader) ReadInt(n int) (*big.Int, error) {
	b, err := r.Next(n)
	if err != nil {
		return nil, err
	}
	return Int(b), nil
}

// ReadCompact reads a compact integer, rejecting encodings that are not in
// their shortest form.
func (r *Reader) ReadCompact() (*big.Int, error) {
	first, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch first & 0b11 {
	case 0b00:
		return big.NewInt(int64(first >> 2)), nil
	case 0b01:
		b, err := r.Next(1)
		if err != nil {
			return nil, err
		}
		v := (uint64(first) | uint64(b[0])<<8) >> 2
		if v <= compactSingleMax {
			return nil, ErrNonCanonical
		}
		return new(big.Int).SetUint64(v), nil
	case 0b10:
		b, err := r.Next(3)
		if err != nil {
			return nil, err
		}
		v := (uint64(first) | uint64(b[0])<<8 | uint64(b[1])<<16 | uint64(b[2])<<24) >> 2
		if v <= compactTwoMax {
			return nil, ErrNonCanonical
		}
		return new(big.Int).SetUint64(v), nil
	default:
		n := int(first>>2) + 4
		b, err := r.Next(n)
		if err != nil {
			return nil, err
		}
		if b[n-1] == 0 {
			return nil, ErrNonCanonical
		}
		v := Uint(b)
		if v.IsUint64() && v.Uint64() <= compactFourMax {
			return nil, ErrNonCanonical
		}
		return v, nil
	}
}

// ReadCompactLen reads a compact length prefix and checks that it is
// addressable on this platform.
func (r *Reader) ReadCompactLen() (int, error) {
	v, err := r.ReadCompact()
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() || v.Int64() > int64(^uint(0)>>1) {
		return 0, errors.Wrapf(ErrUnexpectedEOF, "length %s exceeds input", v)
	}
	return int(v.Int64()), nil
}
