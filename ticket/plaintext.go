package ticket

import "strings"

// PlainText is the text projection of a document: one line per text instruction,
// blank lines for feeds, the alt text for a logo. Every serializer prints this text.
func PlainText(doc Document) string {
	var sb strings.Builder
	for _, ins := range doc.Instructions {
		switch ins.Kind {
		case KindText, KindLogo:
			sb.WriteString(ins.Text)
			sb.WriteByte('\n')
		case KindFeed:
			sb.WriteString(strings.Repeat("\n", ins.Lines))
		}
	}
	return sb.String()
}
