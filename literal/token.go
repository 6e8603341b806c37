package literal

// Token is a lexical token of the literal grammar.
type Token int

const (
	ILLEGAL Token = iota
	EOF

	IDENT     // Some, PSP22Error::Custom
	INTEGER   // 1_000
	HEX       // 0xdeadbeef
	STRING    // "abc"
	CHAR      // 'a'
	BADSTRING // "abc
	BADESCAPE // "\q"
	TRUE      // true
	FALSE     // false

	ADD      // +
	SUB      // -
	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]
	LBRACE   // {
	RBRACE   // }
	COMMA    // ,
	COLON    // :
)

var tokens = [...]string{
	ILLEGAL:   "ILLEGAL",
	EOF:       "EOF",
	IDENT:     "IDENT",
	INTEGER:   "INTEGER",
	HEX:       "HEX",
	STRING:    "STRING",
	CHAR:      "CHAR",
	BADSTRING: "BADSTRING",
	BADESCAPE: "BADESCAPE",
	TRUE:      "true",
	FALSE:     "false",
	ADD:       "+",
	SUB:       "-",
	LPAREN:    "(",
	RPAREN:    ")",
	LBRACKET:  "[",
	RBRACKET:  "]",
	LBRACE:    "{",
	RBRACE:    "}",
	COMMA:     ",",
	COLON:     ":",
}

func (tok Token) String() string {
	if tok >= 0 && int(tok) < len(tokens) {
		return tokens[tok]
	}
	return ""
}

// Pos is a byte offset into the parsed text.
type Pos int

// tokstr returns a literal if provided, otherwise returns the token string.
func tokstr(tok Token, lit string) string {
	if lit != "" {
		return lit
	}
	return tok.String()
}
