package ticket

import (
	"encoding/base64"
	"fmt"
)

// Bridge instruction formats
const (
	FormatPlain  = "plain"
	FormatBase64 = "base64"
)

// BridgeRecord is one element of the instruction list sent to the print bridge
type BridgeRecord struct {
	Type   string `json:"type"`
	Format string `json:"format"`
	Data   string `json:"data"`
}

// EncodeBridgeData renders the document as the bridge instruction list.
// Chunks that are 7-bit clean travel as plain strings. Chunks carrying CP437 text
// or raster bytes are base64 so they survive JSON untouched.
func EncodeBridgeData(doc Document) []BridgeRecord {
	records := Records(doc)
	out := make([]BridgeRecord, 0, len(records))
	for _, chunk := range records {
		if isASCII(chunk) {
			out = append(out, BridgeRecord{Type: "raw", Format: FormatPlain, Data: string(chunk)})
		} else {
			out = append(out, BridgeRecord{Type: "raw", Format: FormatBase64, Data: base64.StdEncoding.EncodeToString(chunk)})
		}
	}
	return out
}

// DecodeBridgeData concatenates the raw bytes of an instruction list
func DecodeBridgeData(records []BridgeRecord) ([]byte, error) {
	var out []byte
	for i, r := range records {
		if r.Type != "raw" {
			return nil, fmt.Errorf("record %d: unsupported type %q", i, r.Type)
		}
		switch r.Format {
		case FormatPlain, "":
			out = append(out, r.Data...)
		case FormatBase64:
			b, err := base64.StdEncoding.DecodeString(r.Data)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			out = append(out, b...)
		default:
			return nil, fmt.Errorf("record %d: unsupported format %q", i, r.Format)
		}
	}
	return out, nil
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}
