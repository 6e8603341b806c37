package scale

import (
	"math/big"

	"fortio.org/safecast"
	"github.com/holiman/uint256"
)

// Writer accumulates an encoded buffer.
type Writer struct {
	buf []byte
}

// NewWriter creates a Writer with capacity hint n.
func NewWriter(n int) *Writer {
	return &Writer{buf: make([]byte, 0, n)}
}

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return len(w.buf)
}

// WriteByte appends a single byte.
func (w *Writer) WriteByte(b byte) error {
	w.buf = append(w.buf, b)
	return nil
}

// Write appends raw bytes.
func (w *Writer) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

// WriteUint appends v as an n-byte little-endian unsigned integer.
func (w *Writer) WriteUint(v *big.Int, n int) {
	if n == 32 {
		w.buf = appendUint256(w.buf, v)
		return
	}
	w.buf = AppendUint(w.buf, v, n)
}

// WriteInt appends v as an n-byte little-endian two's complement integer.
func (w *Writer) WriteInt(v *big.Int, n int) {
	if n == 32 {
		w.buf = appendUint256(w.buf, v)
		return
	}
	w.buf = AppendInt(w.buf, v, n)
}

// WriteCompact appends v in compact form.
func (w *Writer) WriteCompact(v *big.Int) error {
	buf, err := AppendCompact(w.buf, v)
	if err != nil {
		return err
	}
	w.buf = buf
	return nil
}

// WriteCompactLen appends a collection length in compact form.
func (w *Writer) WriteCompactLen(n int) error {
	u, err := safecast.Conv[uint64](n)
	if err != nil {
		return err
	}
	w.buf = AppendCompactUint64(w.buf, u)
	return nil
}

// appendUint256 writes a 256-bit word; negative values are written in two's
// complement form.
func appendUint256(dst []byte, v *big.Int) []byte {
	u, _ := uint256.FromBig(v)
	be := u.Bytes32()
	for i := len(be) - 1; i >= 0; i-- {
		dst = append(dst, be[i])
	}
	return dst
}
