package driver

import (
	"errors"
	"fmt"
)

var (
	// ErrDeliveryTimeout means the endpoint could not be reached within the bound
	ErrDeliveryTimeout = errors.New("delivery timeout")
	// ErrDeliveryUnreachable means the endpoint failed before the bound, e.g. connection refused
	ErrDeliveryUnreachable = errors.New("printer unreachable")
	// ErrDeliveryRejected means the endpoint was reached but refused the job
	ErrDeliveryRejected = errors.New("delivery rejected")
	// ErrBridgeNotConnected means no connection to the print bridge could be established
	ErrBridgeNotConnected = errors.New("print bridge not connected")
)

// DeliveryError records which driver and endpoint failed
type DeliveryError struct {
	Driver   string
	Endpoint string
	Err      error
}

func (e *DeliveryError) Error() string {
	if e.Endpoint == "" {
		return fmt.Sprintf("%s delivery failed: %v", e.Driver, e.Err)
	}
	return fmt.Sprintf("%s delivery to %s failed: %v", e.Driver, e.Endpoint, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
