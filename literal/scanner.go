package literal

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// scanner splits literal text into tokens. Whitespace is skipped.
type scanner struct {
	src string
	off int
}

func newScanner(src string) *scanner {
	return &scanner{src: src}
}

func (s *scanner) peekRune(at int) rune {
	if at >= len(s.src) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(s.src[at:])
	return r
}

// Scan returns the next token, its starting offset and its literal text.
func (s *scanner) Scan() (tok Token, pos Pos, lit string) {
	for s.off < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[s.off:])
		if !unicode.IsSpace(r) {
			break
		}
		s.off += size
	}
	pos = Pos(s.off)
	if s.off >= len(s.src) {
		return EOF, pos, ""
	}

	r, size := utf8.DecodeRuneInString(s.src[s.off:])
	switch {
	case r == '"':
		return s.scanQuoted('"', STRING)
	case r == '\'':
		return s.scanQuoted('\'', CHAR)
	case isDigit(r):
		return s.scanNumber()
	case isIdentStart(r):
		return s.scanIdent()
	}

	s.off += size
	switch r {
	case '+':
		return ADD, pos, ""
	case '-':
		return SUB, pos, ""
	case '(':
		return LPAREN, pos, ""
	case ')':
		return RPAREN, pos, ""
	case '[':
		return LBRACKET, pos, ""
	case ']':
		return RBRACKET, pos, ""
	case '{':
		return LBRACE, pos, ""
	case '}':
		return RBRACE, pos, ""
	case ',':
		return COMMA, pos, ""
	case ':':
		return COLON, pos, ""
	}
	return ILLEGAL, pos, string(r)
}

// scanQuoted consumes a quoted literal including its quotes. Escapes are
// validated later by strconv.Unquote.
func (s *scanner) scanQuoted(quote rune, tok Token) (Token, Pos, string) {
	start := s.off
	s.off++
	for s.off < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[s.off:])
		s.off += size
		switch r {
		case '\\':
			if s.off >= len(s.src) {
				return BADSTRING, Pos(start), s.src[start:]
			}
			_, esize := utf8.DecodeRuneInString(s.src[s.off:])
			s.off += esize
		case quote:
			return tok, Pos(start), s.src[start:s.off]
		case '\n':
			return BADSTRING, Pos(start), s.src[start:s.off]
		}
	}
	return BADSTRING, Pos(start), s.src[start:]
}

func (s *scanner) scanNumber() (Token, Pos, string) {
	start := s.off
	if s.src[s.off] == '0' && (s.peekRune(s.off+1) == 'x' || s.peekRune(s.off+1) == 'X') {
		s.off += 2
		for s.off < len(s.src) && isHexDigit(rune(s.src[s.off])) {
			s.off++
		}
		return HEX, Pos(start), s.src[start:s.off]
	}
	for s.off < len(s.src) && (isDigit(rune(s.src[s.off])) || s.src[s.off] == '_') {
		s.off++
	}
	return INTEGER, Pos(start), s.src[start:s.off]
}

func (s *scanner) scanIdent() (Token, Pos, string) {
	start := s.off
	for s.off < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[s.off:])
		if isIdentChar(r) {
			s.off += size
			continue
		}
		// Path separator between identifier segments.
		if r == ':' && s.peekRune(s.off+1) == ':' && isIdentStart(s.peekRune(s.off+2)) {
			s.off += 2
			continue
		}
		break
	}
	lit := s.src[start:s.off]
	switch lit {
	case "true":
		return TRUE, Pos(start), ""
	case "false":
		return FALSE, Pos(start), ""
	}
	return IDENT, Pos(start), lit
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }

func isIdentChar(r rune) bool { return isIdentStart(r) || unicode.IsDigit(r) }

// stripUnderscores removes digit separators from a decimal literal.
func stripUnderscores(lit string) string {
	if !strings.Contains(lit, "_") {
		return lit
	}
	return strings.ReplaceAll(lit, "_", "")
}
