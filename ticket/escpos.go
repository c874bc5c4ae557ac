package ticket

import (
	"bytes"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// ESC/POS control codes
var (
	cmdInit = []byte{0x1B, 0x40} // ESC @
)

const (
	esc = 0x1B
	gs  = 0x1D
)

// newTextEncoder maps text to code page 437, the default character table of ESC/POS printers.
// Encoders carry state, so each document gets its own.
func newTextEncoder() *encoding.Encoder {
	return encoding.ReplaceUnsupported(charmap.CodePage437.NewEncoder())
}

// EncodeESCPOS renders the document as raw printer bytes.
// An empty document encodes to nil so nothing reaches the printer.
func EncodeESCPOS(doc Document) []byte {
	records := Records(doc)
	if len(records) == 0 {
		return nil
	}
	return bytes.Join(records, nil)
}

// Records splits the ESC/POS rendering into chunks: the initialize command followed
// by one chunk per instruction. Their concatenation is EncodeESCPOS(doc).
func Records(doc Document) [][]byte {
	if doc.Empty() {
		return nil
	}
	records := make([][]byte, 0, len(doc.Instructions)+1)
	records = append(records, append([]byte(nil), cmdInit...))
	enc := newTextEncoder()
	for _, ins := range doc.Instructions {
		records = append(records, encodeInstruction(enc, ins))
	}
	return records
}

func encodeInstruction(enc *encoding.Encoder, ins Instruction) []byte {
	switch ins.Kind {
	case KindText:
		return encodeLine(enc, ins.Text)
	case KindStyle:
		return []byte{esc, 'E', boolByte(ins.Bold), gs, '!', byte(ins.Size)}
	case KindAlign:
		return []byte{esc, 'a', byte(ins.Align)}
	case KindFeed:
		return []byte{esc, 'd', clampFeed(ins.Lines)}
	case KindCut:
		return []byte{gs, 'V', 0x00}
	case KindLogo:
		if ins.Logo != nil && ins.Logo.Raster != nil {
			return encodeRaster(ins.Logo.Raster)
		}
		return encodeLine(enc, ins.Text)
	}
	return nil
}

func encodeLine(enc *encoding.Encoder, text string) []byte {
	out, err := enc.Bytes([]byte(text))
	if err != nil {
		// invalid UTF-8, send as is
		out = []byte(text)
	}
	return append(out, '\n')
}

// encodeRaster emits GS v 0 (normal density) followed by a line feed
func encodeRaster(r *Raster) []byte {
	out := make([]byte, 0, 8+len(r.Data)+1)
	out = append(out, gs, 'v', '0', 0x00,
		byte(r.WidthBytes), byte(r.WidthBytes>>8),
		byte(r.Height), byte(r.Height>>8))
	out = append(out, r.Data...)
	return append(out, '\n')
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func clampFeed(n int) byte {
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return byte(n)
}
