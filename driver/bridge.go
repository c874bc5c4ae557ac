package driver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pos-print-service/models"
	"pos-print-service/printbridge"
	"pos-print-service/ticket"
)

// ConnState is the state of the bridge connection
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

type callResult struct {
	resp printbridge.Response
	err  error
}

// BridgeConnection owns the single persistent websocket to the print bridge.
// It connects lazily, shares one in-flight connection attempt between callers and
// multiplexes concurrent calls over the socket by request uid.
type BridgeConnection struct {
	url    string
	dialer *websocket.Dialer

	mu         sync.Mutex
	state      ConnState
	conn       *websocket.Conn
	connecting chan struct{}
	connectErr error
	pending    map[string]chan callResult
	dials      int

	writeMu sync.Mutex
}

// NewBridgeConnection creates a disconnected BridgeConnection for the bridge URL (ws://127.0.0.1:8182)
func NewBridgeConnection(url string) *BridgeConnection {
	return &BridgeConnection{
		url:     url,
		dialer:  &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
		pending: make(map[string]chan callResult),
	}
}

// State returns the current connection state
func (c *BridgeConnection) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dials returns how many connection attempts were started
func (c *BridgeConnection) Dials() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dials
}

// EnsureConnected connects if needed. Callers arriving while an attempt is in
// flight wait for that attempt instead of dialing again. The attempt is shared, so a
// caller giving up does not cancel it for the others.
func (c *BridgeConnection) EnsureConnected(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateConnected:
		c.mu.Unlock()
		return nil
	case StateConnecting:
		wait := c.connecting
		c.mu.Unlock()
		return c.wait(ctx, wait)
	}

	c.state = StateConnecting
	done := make(chan struct{})
	c.connecting = done
	c.dials++
	c.mu.Unlock()

	go c.dial(context.WithoutCancel(ctx), done)
	return c.wait(ctx, done)
}

func (c *BridgeConnection) wait(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.state == StateConnected {
			return nil
		}
		return c.connectErr
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrBridgeNotConnected, ctx.Err())
	}
}

// dial runs one connection attempt, bounded by the dialer's handshake timeout
func (c *BridgeConnection) dial(ctx context.Context, done chan struct{}) {
	log.Printf("🔌 Connecting to print bridge at %s", c.url)
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer close(done)
	if err != nil {
		c.state = StateDisconnected
		c.connectErr = fmt.Errorf("%w: %v", ErrBridgeNotConnected, err)
		log.Printf("❌ Print bridge connection failed: %v", err)
		return
	}
	c.conn = conn
	c.state = StateConnected
	c.connectErr = nil
	go c.readLoop(conn)
	log.Printf("✓ Print bridge connected")
}

func (c *BridgeConnection) readLoop(conn *websocket.Conn) {
	for {
		var resp printbridge.Response
		if err := conn.ReadJSON(&resp); err != nil {
			c.drop(conn, err)
			return
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.UID]
		delete(c.pending, resp.UID)
		c.mu.Unlock()
		if ok {
			ch <- callResult{resp: resp}
		}
	}
}

// drop returns the manager to Disconnected and fails every pending call
func (c *BridgeConnection) drop(conn *websocket.Conn, cause error) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
		c.state = StateDisconnected
		for uid, ch := range c.pending {
			ch <- callResult{err: fmt.Errorf("%w: connection lost: %v", ErrBridgeNotConnected, cause)}
			delete(c.pending, uid)
		}
		log.Printf("⚠️  Print bridge connection lost: %v", cause)
	}
	c.mu.Unlock()
	conn.Close()
}

func (c *BridgeConnection) forget(uid string) {
	c.mu.Lock()
	delete(c.pending, uid)
	c.mu.Unlock()
}

// Call sends one request and waits for its response. result may be nil.
func (c *BridgeConnection) Call(ctx context.Context, call string, params, result any) error {
	if err := c.EnsureConnected(ctx); err != nil {
		return err
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode %s params: %w", call, err)
	}

	uid := uuid.NewString()
	ch := make(chan callResult, 1)

	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return ErrBridgeNotConnected
	}
	c.pending[uid] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(deadline)
	}
	err = conn.WriteJSON(printbridge.Request{UID: uid, Call: call, Params: raw})
	c.writeMu.Unlock()
	if err != nil {
		c.forget(uid)
		c.drop(conn, err)
		return fmt.Errorf("%w: %v", ErrBridgeNotConnected, err)
	}

	select {
	case res := <-ch:
		if res.err != nil {
			return res.err
		}
		if res.resp.Error != "" {
			return fmt.Errorf("%w: %s", ErrDeliveryRejected, res.resp.Error)
		}
		if result != nil && len(res.resp.Result) > 0 {
			if err := json.Unmarshal(res.resp.Result, result); err != nil {
				return fmt.Errorf("failed to decode %s result: %w", call, err)
			}
		}
		return nil
	case <-ctx.Done():
		c.forget(uid)
		return fmt.Errorf("%w: %s: %v", ErrDeliveryTimeout, call, ctx.Err())
	}
}

// Close closes the socket; the next call reconnects
func (c *BridgeConnection) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	c.writeMu.Lock()
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	c.drop(conn, errors.New("closed by client"))
	return nil
}

// BridgeDriver submits tickets to a named printer registered with the print bridge
type BridgeDriver struct {
	conn    *BridgeConnection
	timeout time.Duration
}

// NewBridgeDriver creates a new BridgeDriver over a shared connection
func NewBridgeDriver(conn *BridgeConnection, timeout time.Duration) *BridgeDriver {
	return &BridgeDriver{conn: conn, timeout: timeout}
}

// Ensure BridgeDriver implements Driver
var _ Driver = (*BridgeDriver)(nil)

func (d *BridgeDriver) Name() string { return models.DriverBridge }

// Deliver looks the printer up on the bridge and sends the instruction list with the copy count
func (d *BridgeDriver) Deliver(ctx context.Context, del Delivery) error {
	if del.Printer == nil {
		return &DeliveryError{Driver: d.Name(), Err: fmt.Errorf("%w: no printer given", ErrDeliveryRejected)}
	}
	data := ticket.EncodeBridgeData(del.Document)
	if len(data) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var found printbridge.FindResult
	if err := d.conn.Call(ctx, printbridge.CallFind, printbridge.FindParams{Query: del.Printer.Name}, &found); err != nil {
		return &DeliveryError{Driver: d.Name(), Endpoint: del.Printer.Name, Err: err}
	}
	if len(found.Printers) == 0 {
		return &DeliveryError{Driver: d.Name(), Endpoint: del.Printer.Name, Err: fmt.Errorf("%w: printer not registered with the bridge", ErrDeliveryRejected)}
	}

	params := printbridge.PrintParams{
		Printer: found.Printers[0],
		JobID:   del.JobID,
		Options: printbridge.PrintOptions{Copies: del.copies()},
		Data:    data,
	}
	var res printbridge.PrintResult
	if err := d.conn.Call(ctx, printbridge.CallPrint, params, &res); err != nil {
		return &DeliveryError{Driver: d.Name(), Endpoint: found.Printers[0], Err: err}
	}

	log.Printf("✅ [%s] bridge printed %d bytes x%d on %s", del.JobID, res.Bytes, res.Copies, found.Printers[0])
	return nil
}
