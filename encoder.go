package transcode

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"

	"github.com/branched-services/go-ink-transcode/registry"
	"github.com/branched-services/go-ink-transcode/scale"
	"github.com/branched-services/go-ink-transcode/value"
)

// Encoder writes values in the wire format of a registry's types.
// An Encoder holds no mutable state and is safe for concurrent use.
type Encoder struct {
	reg *registry.Registry
	cfg *config
}

// NewEncoder creates an Encoder over reg.
func NewEncoder(reg *registry.Registry, opts ...Option) *Encoder {
	return &Encoder{reg: reg, cfg: newConfig(opts)}
}

// Encode encodes v as type id.
func (e *Encoder) Encode(v value.Value, id registry.TypeID) ([]byte, error) {
	w := scale.NewWriter(64)
	if err := e.EncodeTo(w, v, id); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// EncodeTo appends the encoding of v as type id to w. On error w may hold a
// partial encoding.
func (e *Encoder) EncodeTo(w *scale.Writer, v value.Value, id registry.TypeID) error {
	s := &encodeState{Encoder: e, w: w}
	return s.encode(v, id, 0)
}

type encodeState struct {
	*Encoder
	w    *scale.Writer
	path []string
}

func (s *encodeState) push(seg string) { s.path = append(s.path, seg) }
func (s *encodeState) pop()            { s.path = s.path[:len(s.path)-1] }

func (s *encodeState) fail(t *registry.Type, reason error, format string, args ...any) error {
	err := &EncodeError{
		Path:   append([]string(nil), s.path...),
		Type:   typeName(t),
		Reason: reason,
	}
	if format != "" {
		err.Detail = fmt.Sprintf(format, args...)
	}
	return errors.WithStack(err)
}

func (s *encodeState) mismatch(t *registry.Type, v value.Value) error {
	return s.fail(t, ErrTypeMismatch, "got %s", kindOf(v))
}

func (s *encodeState) encode(v value.Value, id registry.TypeID, depth int) error {
	if depth > s.cfg.maxDepth {
		return s.fail(nil, ErrRecursionLimit, "depth %d", depth)
	}
	t, err := s.reg.Resolve(id)
	if err != nil {
		return s.fail(nil, ErrTypeMismatch, "%v", err)
	}
	if codec, ok := s.customCodec(t); ok {
		if err := codec.Encode(s.w, v); err != nil {
			return s.fail(t, err, "")
		}
		return nil
	}

	// A variant named after a non-variant type stands for its payload,
	// e.g. AccountId(0x...) or Point { x: 1, y: 2 }.
	if vr, ok := v.(value.Variant); ok && t.Def.Kind != registry.KindVariant && t.Name() != "" && vr.Name == t.Name() {
		v = unwrapPayload(vr.Payload)
	}

	switch t.Def.Kind {
	case registry.KindPrimitive:
		return s.primitive(t, v)
	case registry.KindComposite:
		return s.fields(t, t.Def.Fields, v, depth)
	case registry.KindVariant:
		return s.variant(t, v, depth)
	case registry.KindSequence:
		return s.list(t, v, -1, depth)
	case registry.KindArray:
		return s.list(t, v, int64(t.Def.Len), depth)
	case registry.KindTuple:
		return s.tuple(t, v, depth)
	case registry.KindCompact:
		return s.compact(t, v)
	default:
		return s.fail(t, ErrUnsupported, "%s", t.Def.Raw)
	}
}

func (s *encodeState) customCodec(t *registry.Type) (TypeCodec, bool) {
	if len(t.Path) == 0 || len(s.cfg.custom) == 0 {
		return nil, false
	}
	c, ok := s.cfg.custom[t.PathString()]
	return c, ok
}

func (s *encodeState) primitive(t *registry.Type, v value.Value) error {
	switch p := t.Def.Primitive; p {
	case registry.Bool:
		b, ok := v.(value.Bool)
		if !ok {
			return s.mismatch(t, v)
		}
		if b {
			return s.w.WriteByte(1)
		}
		return s.w.WriteByte(0)

	case registry.Char:
		r, err := s.char(t, v)
		if err != nil {
			return err
		}
		s.w.WriteUint(big.NewInt(int64(r)), 4)
		return nil

	case registry.Str:
		var text []byte
		switch x := v.(type) {
		case value.String:
			text = []byte(x)
		case value.Bytes:
			text = x
		default:
			return s.mismatch(t, v)
		}
		if !utf8.Valid(text) {
			return s.fail(t, ErrInvalidText, "%q", text)
		}
		if err := s.w.WriteCompactLen(len(text)); err != nil {
			return s.fail(t, ErrOverflow, "%v", err)
		}
		_, _ = s.w.Write(text)
		return nil

	default:
		n, err := s.integer(t, v, p.Bits(), p.Signed())
		if err != nil {
			return err
		}
		if p.Signed() {
			s.w.WriteInt(n, p.Bits()/8)
		} else {
			s.w.WriteUint(n, p.Bits()/8)
		}
		return nil
	}
}

func (s *encodeState) char(t *registry.Type, v value.Value) (rune, error) {
	var r rune
	switch x := v.(type) {
	case value.Char:
		r = rune(x)
	case value.String:
		if utf8.RuneCountInString(string(x)) != 1 {
			return 0, s.fail(t, ErrLengthMismatch, "char needs exactly one character, got %q", string(x))
		}
		r, _ = utf8.DecodeRuneInString(string(x))
	default:
		return 0, s.mismatch(t, v)
	}
	if !utf8.ValidRune(r) {
		return 0, s.fail(t, ErrInvalidText, "invalid code point %U", r)
	}
	return r, nil
}

// integer extracts a number from v and checks it fits the given width.
// Byte strings are read as big-endian unsigned numbers.
func (s *encodeState) integer(t *registry.Type, v value.Value, bits int, signed bool) (*big.Int, error) {
	var n *big.Int
	switch x := v.(type) {
	case value.UInt:
		n = x.V
	case value.Int:
		n = x.V
	case value.Bytes:
		if len(x)*8 > bits {
			return nil, s.fail(t, ErrOverflow, "%d bytes do not fit %d bits", len(x), bits)
		}
		n = new(big.Int).SetBytes(x)
	default:
		return nil, s.mismatch(t, v)
	}
	if n == nil {
		n = new(big.Int)
	}
	if !fitsInteger(n, bits, signed) {
		return nil, s.fail(t, ErrOverflow, "%s out of range", n)
	}
	return n, nil
}

func (s *encodeState) compact(t *registry.Type, v value.Value) error {
	inner, err := s.reg.Unwrap(t.Def.Elem)
	if err != nil {
		return s.fail(t, ErrTypeMismatch, "%v", err)
	}
	if inner.Def.Kind != registry.KindPrimitive || !inner.Def.Primitive.IsInteger() || inner.Def.Primitive.Signed() {
		return s.fail(t, ErrUnsupported, "compact of %s", typeName(inner))
	}
	v = unwrapSingle(v)
	n, err := s.integer(t, v, inner.Def.Primitive.Bits(), false)
	if err != nil {
		return err
	}
	if err := s.w.WriteCompact(n); err != nil {
		return s.fail(t, ErrOverflow, "%v", err)
	}
	return nil
}

// fields encodes v against a composite or variant case field list.
func (s *encodeState) fields(t *registry.Type, fields []registry.Field, v value.Value, depth int) error {
	if len(fields) == 0 {
		if !isEmpty(v) {
			return s.mismatch(t, v)
		}
		return nil
	}

	// Newtypes are transparent.
	if len(fields) == 1 && fields[0].Name == "" {
		if tup, ok := v.(value.Tuple); ok && len(tup) == 1 {
			v = tup[0]
		}
		return s.encode(v, fields[0].Type, depth+1)
	}

	switch x := v.(type) {
	case value.Map:
		if !registry.Named(fields) {
			return s.fail(t, ErrTypeMismatch, "positional fields need a tuple, got map")
		}
		return s.namedFields(t, fields, x, depth)
	case value.Tuple:
		if len(x) != len(fields) {
			return s.fail(t, ErrLengthMismatch, "expected %d fields, got %d", len(fields), len(x))
		}
		for i, f := range fields {
			s.push(fieldLabel(f, i))
			if err := s.encode(x[i], f.Type, depth+1); err != nil {
				return err
			}
			s.pop()
		}
		return nil
	default:
		return s.mismatch(t, v)
	}
}

func (s *encodeState) namedFields(t *registry.Type, fields []registry.Field, m value.Map, depth int) error {
	if !s.cfg.lenientFields {
		for _, f := range m {
			if !hasField(fields, f.Name) {
				s.push(f.Name)
				return s.fail(t, ErrUnexpectedField, "expected one of [%s]", fieldNames(fields))
			}
		}
	}
	for _, f := range fields {
		fv, ok := m.Get(f.Name)
		s.push(f.Name)
		if !ok {
			return s.fail(t, ErrMissingField, "")
		}
		if err := s.encode(fv, f.Type, depth+1); err != nil {
			return err
		}
		s.pop()
	}
	return nil
}

func (s *encodeState) variant(t *registry.Type, v value.Value, depth int) error {
	vr, ok := v.(value.Variant)
	if !ok {
		return s.mismatch(t, v)
	}
	c, ok := t.Def.CaseByName(vr.Name)
	if !ok {
		// Accept a qualified tag such as Error::Custom.
		if i := strings.LastIndex(vr.Name, "::"); i >= 0 {
			if q := vr.Name[:i]; q == t.Name() || q == t.PathString() {
				c, ok = t.Def.CaseByName(vr.Name[i+2:])
			}
		}
	}
	if !ok {
		names := make([]string, len(t.Def.Cases))
		for i, c := range t.Def.Cases {
			names[i] = c.Name
		}
		return s.fail(t, ErrUnknownVariant, "%q, expected one of [%s]", vr.Name, strings.Join(names, ", "))
	}

	_ = s.w.WriteByte(c.Index)
	s.push(c.Name)
	payload := vr.Payload
	if payload == nil {
		payload = value.Unit{}
	}
	if err := s.fields(t, c.Fields, payload, depth); err != nil {
		return err
	}
	s.pop()
	return nil
}

// list encodes a sequence when length is negative, or an array of the given
// length otherwise.
func (s *encodeState) list(t *registry.Type, v value.Value, length int64, depth int) error {
	var items []value.Value
	switch x := v.(type) {
	case value.Seq:
		items = x
	case value.Bytes:
		if !s.isByte(t.Def.Elem) {
			return s.mismatch(t, v)
		}
		if length >= 0 && int64(len(x)) != length {
			return s.fail(t, ErrLengthMismatch, "expected %d bytes, got %d", length, len(x))
		}
		if length < 0 {
			if err := s.w.WriteCompactLen(len(x)); err != nil {
				return s.fail(t, ErrOverflow, "%v", err)
			}
		}
		_, _ = s.w.Write(x)
		return nil
	default:
		return s.mismatch(t, v)
	}

	if length >= 0 && int64(len(items)) != length {
		return s.fail(t, ErrLengthMismatch, "expected %d elements, got %d", length, len(items))
	}
	if length < 0 {
		if err := s.w.WriteCompactLen(len(items)); err != nil {
			return s.fail(t, ErrOverflow, "%v", err)
		}
	}
	for i, item := range items {
		s.push("[" + strconv.Itoa(i) + "]")
		if err := s.encode(item, t.Def.Elem, depth+1); err != nil {
			return err
		}
		s.pop()
	}
	return nil
}

func (s *encodeState) tuple(t *registry.Type, v value.Value, depth int) error {
	elems := t.Def.Elems
	if len(elems) == 0 {
		if !isEmpty(v) {
			return s.mismatch(t, v)
		}
		return nil
	}
	tup, ok := v.(value.Tuple)
	if !ok {
		if len(elems) != 1 {
			return s.mismatch(t, v)
		}
		tup = value.Tuple{v}
	}
	if len(tup) != len(elems) {
		return s.fail(t, ErrLengthMismatch, "expected %d elements, got %d", len(elems), len(tup))
	}
	for i, id := range elems {
		s.push(strconv.Itoa(i))
		if err := s.encode(tup[i], id, depth+1); err != nil {
			return err
		}
		s.pop()
	}
	return nil
}

func (s *encodeState) isByte(id registry.TypeID) bool {
	return isByteType(s.reg, id)
}

func hasField(fields []registry.Field, name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func fieldNames(fields []registry.Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return strings.Join(names, ", ")
}

func fieldLabel(f registry.Field, i int) string {
	if f.Name != "" {
		return f.Name
	}
	return strconv.Itoa(i)
}

// unwrapPayload turns a variant payload into the value it stands for.
func unwrapPayload(p value.Value) value.Value {
	switch x := p.(type) {
	case nil:
		return value.Unit{}
	case value.Tuple:
		if len(x) == 1 {
			return x[0]
		}
	}
	return p
}

// unwrapSingle reduces one-element tuples and maps to their element.
func unwrapSingle(v value.Value) value.Value {
	for {
		switch x := v.(type) {
		case value.Tuple:
			if len(x) != 1 {
				return v
			}
			v = x[0]
		case value.Map:
			if len(x) != 1 {
				return v
			}
			v = x[0].Value
		default:
			return v
		}
	}
}

func isEmpty(v value.Value) bool {
	switch x := v.(type) {
	case nil, value.Unit:
		return true
	case value.Tuple:
		return len(x) == 0
	case value.Map:
		return len(x) == 0
	case value.Seq:
		return len(x) == 0
	}
	return false
}
