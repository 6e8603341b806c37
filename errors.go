package transcode

import (
	"fmt"
	"strings"
)

// Reason categorizes an encode or decode failure. Reasons are comparable, so
// errors.Is(err, ErrOverflow) works through any wrapping.
type Reason string

func (r Reason) Error() string {
	return string(r)
}

// Failure reasons reported by EncodeError and DecodeError.
const (
	// ErrOverflow indicates an integer does not fit the target width or sign.
	ErrOverflow Reason = "integer overflow"

	// ErrMissingField indicates a named composite field has no value.
	ErrMissingField Reason = "missing field"

	// ErrUnexpectedField indicates a map names a field the type does not declare.
	ErrUnexpectedField Reason = "unexpected field"

	// ErrUnknownVariant indicates a variant tag names no case of the type.
	ErrUnknownVariant Reason = "unknown variant"

	// ErrLengthMismatch indicates an element count differs from the declared one.
	ErrLengthMismatch Reason = "length mismatch"

	// ErrInvalidText indicates a string or char that is not valid UTF-8 text.
	ErrInvalidText Reason = "invalid text"

	// ErrTypeMismatch indicates the value's shape cannot represent the type.
	ErrTypeMismatch Reason = "type mismatch"

	// ErrUnexpectedEOF indicates a read past the end of the input.
	ErrUnexpectedEOF Reason = "unexpected end of input"

	// ErrUnknownDiscriminant indicates a variant byte matches no declared case.
	ErrUnknownDiscriminant Reason = "unknown discriminant"

	// ErrInvalidBool indicates a boolean byte other than 0 or 1.
	ErrInvalidBool Reason = "invalid boolean"

	// ErrTrailingBytes indicates input left over after a standalone value.
	ErrTrailingBytes Reason = "trailing bytes"

	// ErrRecursionLimit indicates nesting deeper than the configured maximum.
	ErrRecursionLimit Reason = "recursion limit exceeded"

	// ErrUnsupported indicates a type this package loads but cannot transcode.
	ErrUnsupported Reason = "unsupported type"

	// ErrNonCanonical indicates a compact integer not in its shortest form.
	ErrNonCanonical Reason = "non-canonical compact encoding"
)

// EncodeError reports a value that could not be encoded against a type.
// Path names the nested element that failed, outermost first.
type EncodeError struct {
	Path   []string
	Type   string
	Reason error
	Detail string
}

func (e *EncodeError) Error() string {
	var b strings.Builder
	b.WriteString("transcode: encode")
	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(joinPath(e.Path))
	}
	b.WriteString(": ")
	b.WriteString(e.Reason.Error())
	if e.Type != "" {
		b.WriteString(" for ")
		b.WriteString(e.Type)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *EncodeError) Unwrap() error {
	return e.Reason
}

// DecodeError reports input that could not be decoded. Offset is the byte
// position of the failing read within the decoded buffer.
type DecodeError struct {
	Offset int
	Path   []string
	Type   string
	Reason error
	Detail string
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "transcode: decode at offset %d", e.Offset)
	if len(e.Path) > 0 {
		b.WriteString(" (")
		b.WriteString(joinPath(e.Path))
		b.WriteByte(')')
	}
	b.WriteString(": ")
	b.WriteString(e.Reason.Error())
	if e.Type != "" {
		b.WriteString(" for ")
		b.WriteString(e.Type)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *DecodeError) Unwrap() error {
	return e.Reason
}

// ArgumentError indicates an issue with one argument of a message,
// constructor or event.
type ArgumentError struct {
	Callable string
	Index    int
	Name     string
	Err      error
}

func (e *ArgumentError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("transcode: argument %d (%s) of %q: %v", e.Index, e.Name, e.Callable, e.Err)
	}
	return fmt.Sprintf("transcode: argument %d of %q: %v", e.Index, e.Callable, e.Err)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// joinPath renders a traversal path. Index segments such as "[2]" attach to
// the previous segment without a dot.
func joinPath(path []string) string {
	var b strings.Builder
	for i, seg := range path {
		if i > 0 && !strings.HasPrefix(seg, "[") {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}
