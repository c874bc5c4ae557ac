package driver

import (
	"context"

	"pos-print-service/models"
	"pos-print-service/ticket"
)

// Delivery is one rendered ticket bound for one printer
type Delivery struct {
	JobID    string
	Printer  *models.PrinterDefinition // nil for the browser driver
	Document ticket.Document
	Copies   int
}

func (d Delivery) copies() int {
	if d.Copies < 1 {
		return 1
	}
	return d.Copies
}

func (d Delivery) printerName() string {
	if d.Printer == nil {
		return ""
	}
	return d.Printer.Name
}

// Driver transmits a rendered ticket.
// A nil error means the driver accepted the job; the browser driver reports that optimistically.
type Driver interface {
	Name() string
	Deliver(ctx context.Context, d Delivery) error
}
