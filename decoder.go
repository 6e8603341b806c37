package transcode

import (
	"fmt"
	"math/big"
	"strconv"
	"unicode/utf8"

	"github.com/cockroachdb/errors"

	"github.com/branched-services/go-ink-transcode/registry"
	"github.com/branched-services/go-ink-transcode/scale"
	"github.com/branched-services/go-ink-transcode/value"
)

// maxZeroSized caps sequences whose elements encode to no bytes at all, since
// their length prefix is not bounded by the input size.
const maxZeroSized = 1 << 16

// Decoder reads values in the wire format of a registry's types.
// A Decoder holds no mutable state and is safe for concurrent use.
type Decoder struct {
	reg *registry.Registry
	cfg *config
}

// NewDecoder creates a Decoder over reg.
func NewDecoder(reg *registry.Registry, opts ...Option) *Decoder {
	return &Decoder{reg: reg, cfg: newConfig(opts)}
}

// Decode decodes exactly one value of type id from data. Unconsumed input
// fails with ErrTrailingBytes.
func (d *Decoder) Decode(data []byte, id registry.TypeID) (value.Value, error) {
	r := scale.NewReader(data)
	v, err := d.DecodeFrom(r, id)
	if err != nil {
		return nil, err
	}
	if r.Remaining() > 0 {
		return nil, errors.WithStack(&DecodeError{
			Offset: r.Offset(),
			Reason: ErrTrailingBytes,
			Detail: fmt.Sprintf("%d bytes left", r.Remaining()),
		})
	}
	return v, nil
}

// DecodeFrom decodes one value of type id starting at the reader's position.
// On success the reader is positioned just after the value.
func (d *Decoder) DecodeFrom(r *scale.Reader, id registry.TypeID) (value.Value, error) {
	s := &decodeState{Decoder: d, r: r}
	return s.decode(id, 0)
}

type decodeState struct {
	*Decoder
	r    *scale.Reader
	path []string
}

func (s *decodeState) push(seg string) { s.path = append(s.path, seg) }
func (s *decodeState) pop()            { s.path = s.path[:len(s.path)-1] }

func (s *decodeState) fail(t *registry.Type, offset int, reason error, format string, args ...any) error {
	err := &DecodeError{
		Offset: offset,
		Path:   append([]string(nil), s.path...),
		Type:   typeName(t),
		Reason: reason,
	}
	if format != "" {
		err.Detail = fmt.Sprintf(format, args...)
	}
	return errors.WithStack(err)
}

// readErr converts a scale read error into a DecodeError.
func (s *decodeState) readErr(t *registry.Type, offset int, err error) error {
	switch {
	case errors.Is(err, scale.ErrUnexpectedEOF):
		return s.fail(t, offset, ErrUnexpectedEOF, "%d bytes left", s.r.Remaining())
	case errors.Is(err, scale.ErrNonCanonical):
		return s.fail(t, offset, ErrNonCanonical, "")
	default:
		return s.fail(t, offset, err, "")
	}
}

func (s *decodeState) decode(id registry.TypeID, depth int) (value.Value, error) {
	if depth > s.cfg.maxDepth {
		return nil, s.fail(nil, s.r.Offset(), ErrRecursionLimit, "depth %d", depth)
	}
	t, err := s.reg.Resolve(id)
	if err != nil {
		return nil, s.fail(nil, s.r.Offset(), ErrTypeMismatch, "%v", err)
	}
	if len(t.Path) > 0 && len(s.cfg.custom) > 0 {
		if codec, ok := s.cfg.custom[t.PathString()]; ok {
			off := s.r.Offset()
			v, err := codec.Decode(s.r)
			if err != nil {
				return nil, s.readErr(t, off, err)
			}
			return v, nil
		}
	}

	switch t.Def.Kind {
	case registry.KindPrimitive:
		return s.primitive(t)
	case registry.KindComposite:
		return s.fields(t.Def.Fields, depth)
	case registry.KindVariant:
		return s.variant(t, depth)
	case registry.KindSequence:
		return s.sequence(t, depth)
	case registry.KindArray:
		return s.array(t, depth)
	case registry.KindTuple:
		return s.tuple(t, depth)
	case registry.KindCompact:
		return s.compact(t)
	default:
		return nil, s.fail(t, s.r.Offset(), ErrUnsupported, "%s", t.Def.Raw)
	}
}

func (s *decodeState) primitive(t *registry.Type) (value.Value, error) {
	off := s.r.Offset()
	switch p := t.Def.Primitive; p {
	case registry.Bool:
		b, err := s.r.ReadByte()
		if err != nil {
			return nil, s.readErr(t, off, err)
		}
		switch b {
		case 0:
			return value.Bool(false), nil
		case 1:
			return value.Bool(true), nil
		}
		return nil, s.fail(t, off, ErrInvalidBool, "0x%02x", b)

	case registry.Char:
		n, err := s.r.ReadUint(4)
		if err != nil {
			return nil, s.readErr(t, off, err)
		}
		r := rune(n.Int64())
		if !utf8.ValidRune(r) {
			return nil, s.fail(t, off, ErrInvalidText, "invalid code point %#x", n.Int64())
		}
		return value.Char(r), nil

	case registry.Str:
		n, err := s.r.ReadCompactLen()
		if err != nil {
			return nil, s.readErr(t, off, err)
		}
		b, err := s.r.Next(n)
		if err != nil {
			return nil, s.readErr(t, off, err)
		}
		if !utf8.Valid(b) {
			return nil, s.fail(t, off, ErrInvalidText, "%q", b)
		}
		return value.String(b), nil

	default:
		var (
			n   *big.Int
			err error
		)
		if p.Signed() {
			n, err = s.r.ReadInt(p.Bits() / 8)
		} else {
			n, err = s.r.ReadUint(p.Bits() / 8)
		}
		if err != nil {
			return nil, s.readErr(t, off, err)
		}
		if p.Signed() {
			return value.Int{Width: p.Bits(), V: n}, nil
		}
		return value.UInt{Width: p.Bits(), V: n}, nil
	}
}

func (s *decodeState) compact(t *registry.Type) (value.Value, error) {
	off := s.r.Offset()
	inner, err := s.reg.Unwrap(t.Def.Elem)
	if err != nil || inner.Def.Kind != registry.KindPrimitive || !inner.Def.Primitive.IsInteger() {
		return nil, s.fail(t, off, ErrUnsupported, "compact of non-integer")
	}
	n, err := s.r.ReadCompact()
	if err != nil {
		return nil, s.readErr(t, off, err)
	}
	bits := inner.Def.Primitive.Bits()
	if n.BitLen() > bits {
		return nil, s.fail(t, off, ErrOverflow, "%s exceeds %d bits", n, bits)
	}
	return value.UInt{Width: bits, V: n}, nil
}

// fields decodes a composite or variant case field list. Empty lists decode
// to Unit, newtypes to their inner value.
func (s *decodeState) fields(fields []registry.Field, depth int) (value.Value, error) {
	switch {
	case len(fields) == 0:
		return value.Unit{}, nil
	case len(fields) == 1 && fields[0].Name == "":
		return s.decode(fields[0].Type, depth+1)
	case registry.Named(fields):
		m := make(value.Map, len(fields))
		for i, f := range fields {
			s.push(f.Name)
			v, err := s.decode(f.Type, depth+1)
			if err != nil {
				return nil, err
			}
			s.pop()
			m[i] = value.Field{Name: f.Name, Value: v}
		}
		return m, nil
	default:
		tup := make(value.Tuple, len(fields))
		for i, f := range fields {
			s.push(strconv.Itoa(i))
			v, err := s.decode(f.Type, depth+1)
			if err != nil {
				return nil, err
			}
			s.pop()
			tup[i] = v
		}
		return tup, nil
	}
}

func (s *decodeState) variant(t *registry.Type, depth int) (value.Value, error) {
	off := s.r.Offset()
	b, err := s.r.ReadByte()
	if err != nil {
		return nil, s.readErr(t, off, err)
	}
	c, ok := t.Def.CaseByIndex(b)
	if !ok {
		return nil, s.fail(t, off, ErrUnknownDiscriminant, "%d", b)
	}

	s.push(c.Name)
	defer s.pop()
	switch {
	case len(c.Fields) == 0:
		return value.Variant{Name: c.Name, Payload: value.Unit{}}, nil
	case registry.Named(c.Fields):
		payload, err := s.fields(c.Fields, depth)
		if err != nil {
			return nil, err
		}
		return value.Variant{Name: c.Name, Payload: payload}, nil
	default:
		tup := make(value.Tuple, len(c.Fields))
		for i, f := range c.Fields {
			s.push(strconv.Itoa(i))
			v, err := s.decode(f.Type, depth+1)
			if err != nil {
				return nil, err
			}
			s.pop()
			tup[i] = v
		}
		return value.Variant{Name: c.Name, Payload: tup}, nil
	}
}

func (s *decodeState) sequence(t *registry.Type, depth int) (value.Value, error) {
	off := s.r.Offset()
	n, err := s.r.ReadCompactLen()
	if err != nil {
		return nil, s.readErr(t, off, err)
	}
	if isByteType(s.reg, t.Def.Elem) {
		return s.bytes(t, off, n)
	}

	if err := s.checkLen(t, off, n); err != nil {
		return nil, err
	}
	return s.elements(t, n, depth)
}

// checkLen rejects element counts the remaining input cannot hold, before
// anything is allocated for them.
func (s *decodeState) checkLen(t *registry.Type, off, n int) error {
	if n == 0 {
		return nil
	}
	size := s.reg.MinSize(t.Def.Elem)
	if size == 0 {
		if n > maxZeroSized {
			return s.fail(t, off, ErrLengthMismatch, "%d zero-sized elements", n)
		}
		return nil
	}
	if need := int64(n) * int64(size); need > int64(s.r.Remaining()) {
		return s.fail(t, off, ErrUnexpectedEOF, "%d elements need at least %d bytes, %d left", n, need, s.r.Remaining())
	}
	return nil
}

func (s *decodeState) array(t *registry.Type, depth int) (value.Value, error) {
	off := s.r.Offset()
	n := int(t.Def.Len)
	if isByteType(s.reg, t.Def.Elem) {
		return s.bytes(t, off, n)
	}
	if err := s.checkLen(t, off, n); err != nil {
		return nil, err
	}
	return s.elements(t, n, depth)
}

func (s *decodeState) bytes(t *registry.Type, off, n int) (value.Value, error) {
	b, err := s.r.Next(n)
	if err != nil {
		return nil, s.readErr(t, off, err)
	}
	return value.Bytes(append([]byte{}, b...)), nil
}

func (s *decodeState) elements(t *registry.Type, n, depth int) (value.Value, error) {
	items := make(value.Seq, 0, n)
	for i := 0; i < n; i++ {
		s.push("[" + strconv.Itoa(i) + "]")
		v, err := s.decode(t.Def.Elem, depth+1)
		if err != nil {
			return nil, err
		}
		s.pop()
		items = append(items, v)
	}
	return items, nil
}

func (s *decodeState) tuple(t *registry.Type, depth int) (value.Value, error) {
	if len(t.Def.Elems) == 0 {
		return value.Unit{}, nil
	}
	tup := make(value.Tuple, len(t.Def.Elems))
	for i, id := range t.Def.Elems {
		s.push(strconv.Itoa(i))
		v, err := s.decode(id, depth+1)
		if err != nil {
			return nil, err
		}
		s.pop()
		tup[i] = v
	}
	return tup, nil
}
