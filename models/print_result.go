package models

// Destination is a logical sink for a ticket
type Destination string

const (
	DestinationKitchen Destination = "kitchen"
	DestinationReceipt Destination = "receipt"
)

// Driver names reported in results and logs
const (
	DriverNetwork = "network"
	DriverBridge  = "bridge"
	DriverBrowser = "browser"
)

// PrintResult is the outcome for one destination
type PrintResult struct {
	Destination Destination `json:"destination"`
	Attempted   bool        `json:"attempted"`
	Succeeded   bool        `json:"succeeded"`
	DriverUsed  string      `json:"driverUsed,omitempty"`
	PrinterName string      `json:"printerName,omitempty"`
	Fallback    bool        `json:"fallback"` // printed by a lower tier after the configured one failed
	Error       string      `json:"error,omitempty"`

	Printers []PrinterOutcome `json:"printers,omitempty"`
}

// PrinterOutcome is the delivery outcome of one ticket on one printer
type PrinterOutcome struct {
	PrinterName string `json:"printerName,omitempty"`
	Succeeded   bool   `json:"succeeded"`
	DriverUsed  string `json:"driverUsed,omitempty"`
	Fallback    bool   `json:"fallback"`
	Error       string `json:"error,omitempty"`
}

// PrintStatus is the overall outcome of one print request
type PrintStatus string

const (
	PrintStatusSuccess PrintStatus = "success"
	PrintStatusPartial PrintStatus = "partial"
	PrintStatusFailed  PrintStatus = "failed"
)

// PrintSummary aggregates per-destination results
type PrintSummary struct {
	JobID             string                 `json:"jobId"`
	Status            PrintStatus            `json:"status"`
	Results           []PrintResult          `json:"results"`
	Message           string                 `json:"message"`
	FallbackDocuments map[Destination]string `json:"fallbackDocuments,omitempty"` // HTML, for manual reprint
	States            []string               `json:"-"`
}

// Result returns the result for a destination, or nil when it was not requested
func (s *PrintSummary) Result(d Destination) *PrintResult {
	for i := range s.Results {
		if s.Results[i].Destination == d {
			return &s.Results[i]
		}
	}
	return nil
}

// PrintType selects which destinations a server-side request prints
type PrintType string

const (
	PrintTypeKitchen PrintType = "kitchen"
	PrintTypeReceipt PrintType = "receipt"
	PrintTypeBoth    PrintType = "both"
)

// Valid reports whether t is a known print type
func (t PrintType) Valid() bool {
	return t == PrintTypeKitchen || t == PrintTypeReceipt || t == PrintTypeBoth
}

// PrintOrderRequest is the body of POST /api/print/order and of queued print jobs.
// Fallback is "browser" or "document"; empty uses the configured default.
// Example: {"orderId": "6c1f...", "orderData": {...}, "printType": "both", "receiptCopies": 1, "fallback": "document"}
type PrintOrderRequest struct {
	OrderID       string        `json:"orderId"`
	OrderData     OrderDocument `json:"orderData"`
	PrintType     PrintType     `json:"printType"`
	ReceiptCopies int           `json:"receiptCopies,omitempty"`
	Fallback      string        `json:"fallback,omitempty"`
}

// PrintOrderResponse is returned by the server-side print endpoint
type PrintOrderResponse struct {
	Success           bool                   `json:"success"`
	JobID             string                 `json:"jobId"`
	Results           PrintOrderResults      `json:"results"`
	FallbackDocuments map[Destination]string `json:"fallbackDocuments,omitempty"`
	Message           string                 `json:"message"`
}

// PrintOrderResults holds the per-destination outcome of a server-side print
type PrintOrderResults struct {
	Receipt *PrintResult `json:"receipt,omitempty"`
	Kitchen *PrintResult `json:"kitchen,omitempty"`
}
