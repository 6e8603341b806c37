// Package literal parses the textual literal syntax used for contract
// arguments into untyped values.
//
// The grammar has no knowledge of types:
//
//	()                      unit
//	true false              booleans
//	42  -7  +3  1_000       integers
//	-0x10  +0xff            signed hex integers
//	0xdeadbeef              byte strings
//	"text\n"  'c'           strings and characters (Go escapes)
//	[a, b, c]               sequences
//	(a, b)                  tuples
//	{ name: value, ... }    named composites
//	None  Some(v)  Err { reason: "x" }   variants
//
// An identifier directly followed by "(" or "{" is always a parameterized
// variant. Trailing commas are allowed in every list.
package literal

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/branched-services/go-ink-transcode/value"
)

// MaxNesting bounds how deeply brackets may nest in one literal.
const MaxNesting = 256

// Parse parses a single literal. Leading and trailing whitespace is ignored.
func Parse(text string) (value.Value, error) {
	p := newParser(text)
	v, err := p.parseValue(0)
	if err != nil {
		return nil, err
	}
	if tok, pos, lit := p.scan(); tok != EOF {
		return nil, newParseError(tokstr(tok, lit), []string{"end of input"}, pos)
	}
	return v, nil
}

// MustParse is like Parse but panics on error.
func MustParse(text string) value.Value {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

// ParseAll parses each text in order.
func ParseAll(texts []string) ([]value.Value, error) {
	out := make([]value.Value, len(texts))
	for i, text := range texts {
		v, err := Parse(text)
		if err != nil {
			return nil, errors.Wrapf(err, "literal %d", i)
		}
		out[i] = v
	}
	return out, nil
}

// parser is a recursive descent parser with one token of lookahead.
type parser struct {
	s *scanner

	buf struct {
		tok  Token
		pos  Pos
		lit  string
		full bool
	}
}

func newParser(text string) *parser {
	return &parser{s: newScanner(text)}
}

func (p *parser) scan() (Token, Pos, string) {
	if p.buf.full {
		p.buf.full = false
		return p.buf.tok, p.buf.pos, p.buf.lit
	}
	return p.s.Scan()
}

// unscan pushes the previously read token back onto the buffer.
func (p *parser) unscan(tok Token, pos Pos, lit string) {
	p.buf.tok, p.buf.pos, p.buf.lit, p.buf.full = tok, pos, lit, true
}

func (p *parser) peek() Token {
	tok, pos, lit := p.scan()
	p.unscan(tok, pos, lit)
	return tok
}

var valueStart = []string{"value"}

func (p *parser) parseValue(depth int) (value.Value, error) {
	tok, pos, lit := p.scan()
	if depth > MaxNesting && (tok == LPAREN || tok == LBRACKET || tok == LBRACE || tok == IDENT) {
		return nil, errors.WithStack(&ParseError{Message: "literal nested too deeply", Pos: pos})
	}

	switch tok {
	case TRUE:
		return value.Bool(true), nil
	case FALSE:
		return value.Bool(false), nil
	case INTEGER:
		return parseDecimal(lit, pos, false)
	case HEX:
		b, err := hexutil.Decode(strings.ToLower(lit[:2]) + lit[2:])
		if err != nil {
			return nil, errors.WithStack(&ParseError{Message: "invalid byte string: " + err.Error(), Found: lit, Pos: pos})
		}
		if b == nil {
			b = []byte{}
		}
		return value.Bytes(b), nil
	case ADD, SUB:
		return p.parseSigned(tok == SUB)
	case STRING:
		if err := checkUTF8(lit, pos); err != nil {
			return nil, err
		}
		s, err := strconv.Unquote(lit)
		if err != nil {
			return nil, errors.WithStack(&ParseError{Message: "invalid escape sequence", Found: lit, Pos: pos})
		}
		return value.String(s), nil
	case CHAR:
		if err := checkUTF8(lit, pos); err != nil {
			return nil, err
		}
		s, err := strconv.Unquote(lit)
		if err != nil {
			return nil, errors.WithStack(&ParseError{Message: "invalid character literal", Found: lit, Pos: pos})
		}
		return value.Char([]rune(s)[0]), nil
	case BADSTRING:
		return nil, errors.WithStack(&ParseError{Message: "unterminated string", Found: lit, Pos: pos})
	case LPAREN:
		if p.peek() == RPAREN {
			p.scan()
			return value.Unit{}, nil
		}
		items, err := p.parseList(RPAREN, depth)
		if err != nil {
			return nil, err
		}
		return value.Tuple(items), nil
	case LBRACKET:
		items, err := p.parseList(RBRACKET, depth)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []value.Value{}
		}
		return value.Seq(items), nil
	case LBRACE:
		return p.parseMap(depth)
	case IDENT:
		return p.parseVariant(lit, depth)
	}
	return nil, newParseError(tokstr(tok, lit), valueStart, pos)
}

// checkUTF8 rejects quoted literals holding raw bytes that are not UTF-8,
// which strconv.Unquote would otherwise replace with U+FFFD.
func checkUTF8(lit string, pos Pos) error {
	for i := 0; i < len(lit); {
		r, size := utf8.DecodeRuneInString(lit[i:])
		if r == utf8.RuneError && size == 1 {
			return errors.WithStack(&ParseError{Message: "invalid UTF-8", Found: lit, Pos: pos + Pos(i)})
		}
		i += size
	}
	return nil
}

func (p *parser) parseSigned(negative bool) (value.Value, error) {
	tok, pos, lit := p.scan()
	switch tok {
	case INTEGER:
		return parseDecimal(lit, pos, negative)
	case HEX:
		digits := lit[2:]
		if digits == "" {
			return nil, errors.WithStack(&ParseError{Message: "hex integer without digits", Found: lit, Pos: pos})
		}
		n, ok := new(big.Int).SetString(digits, 16)
		if !ok {
			return nil, errors.WithStack(&ParseError{Message: "invalid hex integer", Found: lit, Pos: pos})
		}
		return integer(n, negative), nil
	}
	return nil, newParseError(tokstr(tok, lit), []string{"integer"}, pos)
}

func parseDecimal(lit string, pos Pos, negative bool) (value.Value, error) {
	n, ok := new(big.Int).SetString(stripUnderscores(lit), 10)
	if !ok {
		return nil, errors.WithStack(&ParseError{Message: "invalid integer", Found: lit, Pos: pos})
	}
	return integer(n, negative), nil
}

func integer(n *big.Int, negative bool) value.Value {
	if negative {
		return value.Int{Width: value.MaxWidth, V: n.Neg(n)}
	}
	return value.UInt{Width: value.MaxWidth, V: n}
}

// parseList parses comma separated values up to and including the closing
// token. The opening token has already been consumed.
func (p *parser) parseList(closing Token, depth int) ([]value.Value, error) {
	var items []value.Value
	for {
		if p.peek() == closing {
			p.scan()
			return items, nil
		}
		v, err := p.parseValue(depth + 1)
		if err != nil {
			return nil, err
		}
		items = append(items, v)

		tok, pos, lit := p.scan()
		switch tok {
		case COMMA:
		case closing:
			return items, nil
		default:
			return nil, newParseError(tokstr(tok, lit), []string{",", closing.String()}, pos)
		}
	}
}

// parseMap parses "name: value" pairs up to and including "}".
func (p *parser) parseMap(depth int) (value.Value, error) {
	m := value.Map{}
	seen := make(map[string]bool)
	for {
		tok, pos, lit := p.scan()
		if tok == RBRACE {
			return m, nil
		}
		if tok != IDENT {
			return nil, newParseError(tokstr(tok, lit), []string{"field name", "}"}, pos)
		}
		if seen[lit] {
			return nil, errors.WithStack(&ParseError{Message: fmt.Sprintf("duplicate field %q", lit), Found: lit, Pos: pos})
		}
		seen[lit] = true

		if tok, pos, lit := p.scan(); tok != COLON {
			return nil, newParseError(tokstr(tok, lit), []string{":"}, pos)
		}
		v, err := p.parseValue(depth + 1)
		if err != nil {
			return nil, err
		}
		m = append(m, value.Field{Name: lit, Value: v})

		tok, pos, lit = p.scan()
		switch tok {
		case COMMA:
		case RBRACE:
			return m, nil
		default:
			return nil, newParseError(tokstr(tok, lit), []string{",", "}"}, pos)
		}
	}
}

func (p *parser) parseVariant(name string, depth int) (value.Value, error) {
	switch p.peek() {
	case LPAREN:
		p.scan()
		items, err := p.parseList(RPAREN, depth)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []value.Value{}
		}
		return value.Variant{Name: name, Payload: value.Tuple(items)}, nil
	case LBRACE:
		p.scan()
		m, err := p.parseMap(depth)
		if err != nil {
			return nil, err
		}
		return value.Variant{Name: name, Payload: m}, nil
	}
	return value.Variant{Name: name, Payload: value.Unit{}}, nil
}

// ParseError represents an error that occurred during parsing.
type ParseError struct {
	Message  string
	Found    string
	Expected []string
	Pos      Pos
}

// newParseError returns a new instance of ParseError.
func newParseError(found string, expected []string, pos Pos) error {
	return errors.WithStack(&ParseError{Found: found, Expected: expected, Pos: pos})
}

// Error returns the string representation of the error.
func (e *ParseError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s at offset %d", e.Message, e.Pos)
	}
	return fmt.Sprintf("found %s, expected %s at offset %d", e.Found, strings.Join(e.Expected, ", "), e.Pos)
}

// Caret returns text with a second line pointing at the error position.
func (e *ParseError) Caret(text string) string {
	pos := int(e.Pos)
	if pos > len(text) {
		pos = len(text)
	}
	return text + "\n" + strings.Repeat(" ", len([]rune(text[:pos]))) + "^"
}
