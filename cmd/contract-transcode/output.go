package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/branched-services/go-ink-transcode/literal"
	"github.com/branched-services/go-ink-transcode/value"
)

// printer writes command results, colorized when the output is a terminal
// or color is forced on.
type printer struct {
	w      io.Writer
	pretty bool

	name  *color.Color
	hint  *color.Color
	fault *color.Color
}

func newPrinter(w io.Writer, mode string, pretty bool) *printer {
	p := &printer{
		w:      w,
		pretty: pretty,
		name:   color.New(color.FgCyan, color.Bold),
		hint:   color.New(color.FgHiBlack),
		fault:  color.New(color.FgRed, color.Bold),
	}
	enabled := mode == "on" || (mode == "auto" && isTerminal(w))
	for _, c := range []*color.Color{p.name, p.hint, p.fault} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// value prints v in literal syntax, indented when pretty output is on.
func (p *printer) value(v value.Value) {
	if p.pretty {
		fmt.Fprintln(p.w, value.Indent(v, "  "))
		return
	}
	fmt.Fprintln(p.w, v.String())
}

func (p *printer) line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// heading prints a section title.
func (p *printer) heading(s string) {
	p.name.Fprintln(p.w, s)
}

// entry prints one item of a listing with a dimmed annotation.
func (p *printer) entry(label, note string) {
	fmt.Fprintf(p.w, "  %s  ", label)
	p.hint.Fprintln(p.w, note)
}

// failure prints err. When err is a literal syntax error and text is the
// literal it came from, the offending position is marked.
func (p *printer) failure(err error, text string) {
	p.fault.Fprint(p.w, "error: ")
	fmt.Fprintln(p.w, err)

	var pe *literal.ParseError
	if text != "" && errors.As(err, &pe) {
		p.hint.Fprintln(p.w, pe.Caret(text))
	}
}
