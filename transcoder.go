package transcode

import (
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"github.com/branched-services/go-ink-transcode/literal"
	"github.com/branched-services/go-ink-transcode/registry"
	"github.com/branched-services/go-ink-transcode/scale"
	"github.com/branched-services/go-ink-transcode/value"
)

// Transcoder resolves constructors, messages and events by name and converts
// their arguments, return values and event data between literal text and
// the wire format.
//
// A Transcoder is safe for concurrent use.
type Transcoder struct {
	reg *registry.Registry
	enc *Encoder
	dec *Decoder
	log *zap.Logger
}

// New creates a Transcoder over reg.
func New(reg *registry.Registry, opts ...Option) *Transcoder {
	cfg := newConfig(opts)
	return &Transcoder{
		reg: reg,
		enc: &Encoder{reg: reg, cfg: cfg},
		dec: &Decoder{reg: reg, cfg: cfg},
		log: cfg.logger,
	}
}

// NewFromFile loads a metadata document and creates a Transcoder over it.
func NewFromFile(path string, opts ...Option) (*Transcoder, error) {
	reg, err := registry.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return New(reg, opts...), nil
}

// Registry returns the underlying registry.
func (t *Transcoder) Registry() *registry.Registry {
	return t.reg
}

// Encoder returns the encoder used by t.
func (t *Transcoder) Encoder() *Encoder {
	return t.enc
}

// Decoder returns the decoder used by t.
func (t *Transcoder) Decoder() *Decoder {
	return t.dec
}

// EncodeCall encodes a message call: the message's selector followed by each
// literal encoded against its argument type. The message is resolved by name
// and by the number of literals.
func (t *Transcoder) EncodeCall(name string, args []string) ([]byte, error) {
	return t.encodeCallable(registry.Message, name, args)
}

// EncodeConstructor is like EncodeCall for constructors.
func (t *Transcoder) EncodeConstructor(name string, args []string) ([]byte, error) {
	return t.encodeCallable(registry.Constructor, name, args)
}

func (t *Transcoder) encodeCallable(kind registry.CallableKind, name string, args []string) ([]byte, error) {
	item, err := t.reg.FindCallable(kind, name, len(args))
	if err != nil {
		return nil, err
	}
	vals := make([]value.Value, len(args))
	for i, text := range args {
		v, err := literal.Parse(text)
		if err != nil {
			return nil, &ArgumentError{Callable: item.Name, Index: i, Name: item.Args[i].Name, Err: err}
		}
		vals[i] = v
	}
	data, err := encodeCall(t.enc, item, vals)
	if err != nil {
		return nil, err
	}
	t.log.Debug("encoded call",
		zap.Stringer("kind", kind),
		zap.String("name", item.Name),
		zap.String("selector", item.SelectorHex()),
		zap.Int("bytes", len(data)))
	return data, nil
}

// Invoke resolves a callable by name and argument count and returns a Call
// carrying args. Every argument is checked against its declared type.
func (t *Transcoder) Invoke(kind registry.CallableKind, name string, args ...value.Value) (*Call, error) {
	item, err := t.reg.FindCallable(kind, name, len(args))
	if err != nil {
		return nil, err
	}
	return newCall(t.enc, item, args)
}

// MustInvoke is like Invoke but panics on error.
func (t *Transcoder) MustInvoke(kind registry.CallableKind, name string, args ...value.Value) *Call {
	call, err := t.Invoke(kind, name, args...)
	if err != nil {
		panic(err)
	}
	return call
}

// DecodeReturn decodes the return value of the named message and renders it.
func (t *Transcoder) DecodeReturn(name string, data []byte) (string, error) {
	v, err := t.DecodeReturnValue(name, data)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// DecodeReturnValue decodes the return value of the named message. Messages
// without a return type decode empty input to Unit.
func (t *Transcoder) DecodeReturnValue(name string, data []byte) (value.Value, error) {
	item, err := t.reg.FindCallable(registry.Message, name, registry.AnyArity)
	if err != nil {
		return nil, err
	}
	if item.ReturnType == nil {
		if len(data) > 0 {
			return nil, errors.WithStack(&DecodeError{Reason: ErrTrailingBytes, Detail: "message returns nothing"})
		}
		return value.Unit{}, nil
	}
	return t.dec.Decode(data, *item.ReturnType)
}

// DecodeEvent decodes event data, identifying the event by its leading
// discriminant, and renders it as Name { arg: value, ... }.
func (t *Transcoder) DecodeEvent(data []byte) (string, error) {
	ev, err := t.DecodeEventCall(data)
	if err != nil {
		return "", err
	}
	return ev.Value().String(), nil
}

// DecodeEventCall is like DecodeEvent but returns the decoded arguments.
func (t *Transcoder) DecodeEventCall(data []byte) (*Call, error) {
	return t.decodeCallable(registry.Event, data)
}

// DecodeCall decodes an encoded constructor or message call, identifying the
// callable by its selector. It is the inverse of EncodeCall.
func (t *Transcoder) DecodeCall(kind registry.CallableKind, data []byte) (*Call, error) {
	return t.decodeCallable(kind, data)
}

func (t *Transcoder) decodeCallable(kind registry.CallableKind, data []byte) (*Call, error) {
	item, err := t.reg.CallableBySelector(kind, data)
	if err != nil {
		return nil, err
	}
	r := scale.NewReader(data)
	if _, err := r.Next(len(item.Selector)); err != nil {
		return nil, errors.WithStack(&DecodeError{Reason: ErrUnexpectedEOF})
	}
	args := make([]value.Value, len(item.Args))
	for i, a := range item.Args {
		v, err := t.dec.DecodeFrom(r, a.Type)
		if err != nil {
			return nil, &ArgumentError{Callable: item.Name, Index: i, Name: a.Name, Err: err}
		}
		args[i] = v
	}
	if r.Remaining() > 0 {
		return nil, errors.WithStack(&DecodeError{
			Offset: r.Offset(),
			Reason: ErrTrailingBytes,
			Detail: hexutil.Encode(data[r.Offset():]),
		})
	}
	t.log.Debug("decoded callable",
		zap.Stringer("kind", kind),
		zap.String("name", item.Name),
		zap.Int("bytes", len(data)))
	return &Call{item: item, args: args, enc: t.enc}, nil
}

// EncodeValue parses text and encodes it as type id.
func (t *Transcoder) EncodeValue(text string, id registry.TypeID) ([]byte, error) {
	v, err := literal.Parse(text)
	if err != nil {
		return nil, err
	}
	return t.enc.Encode(v, id)
}

// DecodeValue decodes exactly one value of type id.
func (t *Transcoder) DecodeValue(data []byte, id registry.TypeID) (value.Value, error) {
	return t.dec.Decode(data, id)
}

// Render returns the canonical text form of v, which Parse accepts back.
func Render(v value.Value) string {
	if v == nil {
		return value.Unit{}.String()
	}
	return v.String()
}
