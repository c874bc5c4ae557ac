package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"pos-print-service/models"
	"pos-print-service/ticket"
)

const defaultRawPort = "9100"

// NetworkDriver sends ESC/POS bytes straight to a printer, probing an ordered
// list of endpoint shapes until one accepts the payload.
type NetworkDriver struct {
	endpoints      []string
	attemptTimeout time.Duration
	probeDeadline  time.Duration
	client         *http.Client
	dialer         *net.Dialer
}

// NewNetworkDriver creates a new NetworkDriver.
// endpoints are templates using {host}, {port} and {addr}, see config.DefaultNetworkEndpoints.
func NewNetworkDriver(endpoints []string, attemptTimeout, probeDeadline time.Duration) *NetworkDriver {
	return &NetworkDriver{
		endpoints:      endpoints,
		attemptTimeout: attemptTimeout,
		probeDeadline:  probeDeadline,
		client:         &http.Client{},
		dialer:         &net.Dialer{},
	}
}

// Ensure NetworkDriver implements Driver
var _ Driver = (*NetworkDriver)(nil)

func (d *NetworkDriver) Name() string { return models.DriverNetwork }

// Deliver tries each endpoint once, in order, and stops at the first success
func (d *NetworkDriver) Deliver(ctx context.Context, del Delivery) error {
	if del.Printer == nil || strings.TrimSpace(del.Printer.Address) == "" {
		return &DeliveryError{Driver: d.Name(), Err: fmt.Errorf("%w: printer has no network address", ErrDeliveryRejected)}
	}

	doc := ticket.EncodeESCPOS(del.Document)
	if len(doc) == 0 {
		return nil
	}
	payload := bytes.Repeat(doc, del.copies())

	ctx, cancel := context.WithTimeout(ctx, d.probeDeadline)
	defer cancel()

	targets := ExpandEndpoints(d.endpoints, del.Printer.Address)
	var lastErr error
	for _, target := range targets {
		if ctx.Err() != nil {
			lastErr = &DeliveryError{Driver: d.Name(), Endpoint: target, Err: fmt.Errorf("%w: probe deadline of %s reached", ErrDeliveryTimeout, d.probeDeadline)}
			break
		}

		err := d.attempt(ctx, target, payload)
		if err == nil {
			log.Printf("✅ [%s] %s accepted %d bytes at %s", del.JobID, del.Printer.Name, len(payload), target)
			return nil
		}
		log.Printf("⚠️  [%s] %s: %v", del.JobID, del.Printer.Name, err)
		lastErr = err
	}
	return lastErr
}

func (d *NetworkDriver) attempt(ctx context.Context, target string, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, d.attemptTimeout)
	defer cancel()

	var err error
	if hostport, ok := strings.CutPrefix(target, "tcp://"); ok {
		err = d.sendRaw(ctx, hostport, payload)
	} else {
		err = d.sendHTTP(ctx, target, payload)
	}
	if err == nil {
		return nil
	}
	return &DeliveryError{Driver: d.Name(), Endpoint: target, Err: classify(err)}
}

// classify maps a transport error onto the delivery error kinds
func classify(err error) error {
	if errors.Is(err, ErrDeliveryRejected) {
		return err
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%w: %v", ErrDeliveryTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrDeliveryUnreachable, err)
}

// sendRaw writes the payload to a JetDirect style socket (port 9100)
func (d *NetworkDriver) sendRaw(ctx context.Context, hostport string, payload []byte) error {
	conn, err := d.dialer.DialContext(ctx, "tcp", hostport)
	if err != nil {
		return err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	if _, err := conn.Write(payload); err != nil {
		return err
	}
	return nil
}

func (d *NetworkDriver) sendHTTP(ctx context.Context, url string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: HTTP %d", ErrDeliveryRejected, resp.StatusCode)
	}
	return nil
}

// ExpandEndpoints fills the endpoint templates for one printer address.
// {host} is the bare host, {port} the address port or 9100, {addr} the address without scheme.
func ExpandEndpoints(templates []string, address string) []string {
	addr := strings.TrimSpace(address)
	for _, scheme := range []string{"tcp://", "http://", "https://"} {
		addr = strings.TrimPrefix(addr, scheme)
	}
	addr = strings.TrimRight(addr, "/")

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		host, port = strings.Trim(addr, "[]"), defaultRawPort
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}

	r := strings.NewReplacer("{host}", host, "{port}", port, "{addr}", addr)
	out := make([]string, 0, len(templates))
	for _, t := range templates {
		out = append(out, r.Replace(t))
	}
	return out
}
