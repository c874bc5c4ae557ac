package ticket

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"pos-print-service/utils"
)

// builder appends instructions, skipping style and align changes that would be no-ops
type builder struct {
	doc   Document
	width int

	bold  bool
	size  Size
	align Alignment
}

func newBuilder(title string, width int) *builder {
	if width <= 0 {
		width = utils.PaperColumns
	}
	return &builder{doc: Document{Title: title}, width: width}
}

func (b *builder) style(bold bool, size Size) {
	if bold == b.bold && size == b.size {
		return
	}
	b.bold, b.size = bold, size
	b.doc.Instructions = append(b.doc.Instructions, Instruction{Kind: KindStyle, Bold: bold, Size: size})
}

func (b *builder) normal() { b.style(false, SizeNormal) }

func (b *builder) setAlign(a Alignment) {
	if a == b.align {
		return
	}
	b.align = a
	b.doc.Instructions = append(b.doc.Instructions, Instruction{Kind: KindAlign, Align: a})
}

func (b *builder) line(text string) {
	b.doc.Instructions = append(b.doc.Instructions, Instruction{Kind: KindText, Text: text})
}

// wrapped prints text over as many lines as the current character width needs
func (b *builder) wrapped(text, indent string) {
	for _, l := range utils.Wrap(text, b.columns(), indent) {
		b.line(l)
	}
}

func (b *builder) pair(left, right string) {
	b.line(utils.Columns(left, right, b.columns()))
}

func (b *builder) rule(ch rune) {
	b.line(utils.Rule(ch, b.columns()))
}

func (b *builder) feed(n int) {
	b.doc.Instructions = append(b.doc.Instructions, Instruction{Kind: KindFeed, Lines: n})
}

func (b *builder) logo(url, alt string, raster *Raster) {
	b.doc.Instructions = append(b.doc.Instructions, Instruction{Kind: KindLogo, Text: alt, Logo: &Logo{URL: url, Raster: raster}})
}

func (b *builder) cut() {
	b.doc.Instructions = append(b.doc.Instructions, Instruction{Kind: KindCut})
}

// columns is the usable line width at the current size; double width halves it
func (b *builder) columns() int {
	if b.size&SizeDoubleWidth != 0 {
		return b.width / 2
	}
	return b.width
}

func (b *builder) build() Document {
	return b.doc
}

func humanize(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(s, "_", " "), "-", " "))
	if s == "" {
		return ""
	}
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[n:]
}
