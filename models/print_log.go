package models

import "time"

// PrintLogStatus values stored in print_logs.status
const (
	PrintLogSuccess = "success"
	PrintLogFailed  = "failed"
	PrintLogPartial = "partial"
)

// PrintLog is one append-only delivery attempt record
type PrintLog struct {
	ID             int64     `json:"id,omitempty"`
	JobID          string    `json:"jobId"`
	PrinterName    string    `json:"printerName"`
	PrinterAddress string    `json:"printerAddress"`
	OrderID        string    `json:"orderId"`
	TicketType     string    `json:"ticketType"` // kitchen | receipt
	Status         string    `json:"status"`     // success | failed | partial
	Driver         string    `json:"driver"`
	ErrorMessage   string    `json:"errorMessage,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ArchivedDocument is a fallback document kept for manual reprint
type ArchivedDocument struct {
	FileID    string `json:"fileId"`
	Name      string `json:"name"`
	ViewURL   string `json:"viewUrl"`
	CreatedAt string `json:"createdAt,omitempty"`
}
