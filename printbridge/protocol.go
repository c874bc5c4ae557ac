// Package printbridge implements the local print bridge: a websocket endpoint that
// exposes named printers to the print service and writes raw ESC/POS bytes to them.
package printbridge

import (
	"encoding/json"

	"pos-print-service/ticket"
)

// Bridge calls
const (
	CallFind  = "printers.find"
	CallList  = "printers.list"
	CallPrint = "print"
)

// Request is one call sent over the bridge connection.
// Example: {"uid": "2b7e...", "call": "printers.find", "params": {"query": "Kitchen"}}
type Request struct {
	UID    string          `json:"uid"`
	Call   string          `json:"call"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response answers the request with the same uid
// Example: {"uid": "2b7e...", "result": {"printers": ["Kitchen"]}}
type Response struct {
	UID    string          `json:"uid"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// FindParams looks a printer up by name
type FindParams struct {
	Query string `json:"query"`
}

// FindResult lists matching printer names, best match first
type FindResult struct {
	Printers []string `json:"printers"`
}

// PrintParams submits an instruction list to a named printer
// Example:
//
//	{"printer": "Kitchen", "jobId": "9f1c...", "options": {"copies": 2},
//	 "data": [{"type": "raw", "format": "plain", "data": "\u001b@"}]}
type PrintParams struct {
	Printer string                `json:"printer"`
	JobID   string                `json:"jobId,omitempty"`
	Options PrintOptions          `json:"options"`
	Data    []ticket.BridgeRecord `json:"data"`
}

// PrintOptions are per-job settings
type PrintOptions struct {
	Copies int `json:"copies"`
}

// PrintResult reports what was written
type PrintResult struct {
	Bytes  int `json:"bytes"`
	Copies int `json:"copies"`
}

// MaxCopies bounds a single print call
const MaxCopies = 10
