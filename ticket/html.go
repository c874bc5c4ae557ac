package ticket

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/ticket.html
var ticketTemplateHTML string

var ticketTemplate = template.Must(template.New("ticket").Parse(ticketTemplateHTML))

type htmlLine struct {
	Text    string
	Class   string
	LogoURL string
	Cut     bool
}

type htmlView struct {
	Title string
	Lines []htmlLine
}

// RenderHTML renders the document as a standalone 80mm page for preview and browser printing.
// The text of every line is the same as in the ESC/POS rendering.
func RenderHTML(doc Document) (string, error) {
	if doc.Empty() {
		return "", nil
	}

	view := htmlView{Title: doc.Title}
	bold, size, align := false, SizeNormal, AlignLeft
	for _, ins := range doc.Instructions {
		switch ins.Kind {
		case KindStyle:
			bold, size = ins.Bold, ins.Size
		case KindAlign:
			align = ins.Align
		case KindText:
			view.Lines = append(view.Lines, htmlLine{Text: ins.Text, Class: lineClass(bold, size, align)})
		case KindFeed:
			for i := 0; i < ins.Lines; i++ {
				view.Lines = append(view.Lines, htmlLine{Class: lineClass(false, SizeNormal, align)})
			}
		case KindCut:
			view.Lines = append(view.Lines, htmlLine{Cut: true})
		case KindLogo:
			line := htmlLine{Text: ins.Text, Class: lineClass(true, SizeDouble, AlignCenter)}
			if ins.Logo != nil {
				line.LogoURL = ins.Logo.URL
			}
			view.Lines = append(view.Lines, line)
		}
	}

	var buf bytes.Buffer
	if err := ticketTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("%w: html template: %v", ErrRenderingFailure, err)
	}
	return buf.String(), nil
}

func lineClass(bold bool, size Size, align Alignment) string {
	classes := make([]string, 0, 3)
	switch align {
	case AlignCenter:
		classes = append(classes, "center")
	case AlignRight:
		classes = append(classes, "right")
	default:
		classes = append(classes, "left")
	}
	if bold {
		classes = append(classes, "bold")
	}
	switch size {
	case SizeDoubleHeight:
		classes = append(classes, "dh")
	case SizeDoubleWidth:
		classes = append(classes, "dw")
	case SizeDouble:
		classes = append(classes, "ds")
	}
	return strings.Join(classes, " ")
}
