// Package format renders SQL ASTs back to text.
//
// SQL renders any node on a single line and is what lineage extraction
// uses to compare projections. Pretty renders a statement over multiple
// lines with two-space indentation.
package format

import (
	"bytes"
	"strings"

	"github.com/leapstack-labs/sqllineage/pkg/token"
)

const indentSize = 2

// Printer handles SQL formatting with proper indentation and style.
type Printer struct {
	output      *bytes.Buffer
	depth       int
	atLineStart bool

	// compact renders line breaks as single spaces and skips indentation.
	compact      bool
	pendingSpace bool
}

func newPrinter(compact bool) *Printer {
	return &Printer{
		output:      &bytes.Buffer{},
		atLineStart: true,
		compact:     compact,
	}
}

// String returns the formatted output.
func (p *Printer) String() string {
	if p.compact {
		return strings.TrimSpace(p.output.String())
	}
	return strings.TrimRight(p.output.String(), "\n") + "\n"
}

func (p *Printer) write(s string) {
	if s == "" {
		return
	}
	if p.pendingSpace {
		p.pendingSpace = false
		if p.output.Len() > 0 && !strings.ContainsAny(s[:1], "), ") && !p.lastByteIs('(', ' ') {
			p.output.WriteByte(' ')
		}
	}
	if p.atLineStart && !p.compact && s[0] != '\n' {
		p.writeIndent()
	}
	p.output.WriteString(s)
	p.atLineStart = false
}

func (p *Printer) lastByteIs(chars ...byte) bool {
	b := p.output.Bytes()
	if len(b) == 0 {
		return false
	}
	last := b[len(b)-1]
	for _, c := range chars {
		if last == c {
			return true
		}
	}
	return false
}

func (p *Printer) writeln() {
	if p.compact {
		p.pendingSpace = true
		return
	}
	p.output.WriteByte('\n')
	p.atLineStart = true
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.depth*indentSize; i++ {
		p.output.WriteByte(' ')
	}
	p.atLineStart = false
}

func (p *Printer) keyword(s string) {
	p.write(strings.ToUpper(s))
}

func (p *Printer) indent() {
	p.depth++
}

func (p *Printer) dedent() {
	if p.depth > 0 {
		p.depth--
	}
}

func (p *Printer) space() {
	p.write(" ")
}

// kw prints keywords for the given token types separated by spaces.
func (p *Printer) kw(tokens ...token.TokenType) {
	for i, t := range tokens {
		if i > 0 {
			p.space()
		}
		p.write(t.String())
	}
}

// formatList prints a list of items with separators.
// count is the number of items, format is called for each index,
// sep is the separator string, multiline adds newlines after separators.
func (p *Printer) formatList(count int, format func(i int), sep string, multiline bool) {
	for i := 0; i < count; i++ {
		format(i)
		if i < count-1 {
			p.write(sep)
			if multiline {
				p.writeln()
			}
		}
	}
}
