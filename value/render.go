package value

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Canonical rendering:
//
//	()  true  42  -7  0x00ff  "text"  [a, b]  (a, b)  { a: 1, b: 2 }
//	None  Some(5)  Custom { reason: "x" }
//
// Chars render as one-character strings. Every rendering parses back to a
// value that encodes to the same bytes against the same type.

func render(v Value) string {
	var b strings.Builder
	p := printer{b: &b}
	p.value(v, 0)
	return b.String()
}

// Indent renders v across multiple lines, nesting composites by indent.
// The output is accepted by the literal parser like the single-line form.
func Indent(v Value, indent string) string {
	var b strings.Builder
	p := printer{b: &b, indent: indent}
	p.value(v, 0)
	return b.String()
}

type printer struct {
	b      *strings.Builder
	indent string
}

func (p *printer) value(v Value, depth int) {
	switch x := v.(type) {
	case nil:
		p.b.WriteString("()")
	case Unit:
		p.b.WriteString("()")
	case Bool:
		p.b.WriteString(strconv.FormatBool(bool(x)))
	case UInt:
		p.integer(x.V)
	case Int:
		p.integer(x.V)
	case Bytes:
		p.b.WriteString(hexutil.Encode(x))
	case String:
		p.b.WriteString(strconv.Quote(string(x)))
	case Char:
		p.b.WriteString(strconv.Quote(string(rune(x))))
	case Seq:
		p.list("[", "]", []Value(x), depth)
	case Tuple:
		p.list("(", ")", []Value(x), depth)
	case Map:
		p.fields(x, depth)
	case Variant:
		p.b.WriteString(x.Name)
		switch payload := x.Payload.(type) {
		case Tuple:
			p.list("(", ")", []Value(payload), depth)
		case Map:
			p.b.WriteByte(' ')
			p.fields(payload, depth)
		case nil, Unit:
		default:
			p.list("(", ")", []Value{payload}, depth)
		}
	}
}

func (p *printer) integer(n *big.Int) {
	if n == nil {
		p.b.WriteByte('0')
		return
	}
	p.b.WriteString(n.String())
}

func (p *printer) list(open, close string, items []Value, depth int) {
	p.b.WriteString(open)
	for i, item := range items {
		if i > 0 {
			p.b.WriteByte(',')
			if p.indent == "" {
				p.b.WriteByte(' ')
			}
		}
		p.newline(depth + 1)
		p.value(item, depth+1)
	}
	if len(items) > 0 {
		p.newline(depth)
	}
	p.b.WriteString(close)
}

func (p *printer) fields(m Map, depth int) {
	if len(m) == 0 {
		p.b.WriteString("{}")
		return
	}
	p.b.WriteByte('{')
	for i, f := range m {
		if i > 0 {
			p.b.WriteByte(',')
		}
		if p.indent == "" {
			p.b.WriteByte(' ')
		}
		p.newline(depth + 1)
		p.b.WriteString(f.Name)
		p.b.WriteString(": ")
		p.value(f.Value, depth+1)
	}
	if p.indent == "" {
		p.b.WriteByte(' ')
	}
	p.newline(depth)
	p.b.WriteByte('}')
}

func (p *printer) newline(depth int) {
	if p.indent == "" {
		return
	}
	p.b.WriteByte('\n')
	for i := 0; i < depth; i++ {
		p.b.WriteString(p.indent)
	}
}
