package driver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-print-service/models"
	"pos-print-service/printbridge"
	"pos-print-service/ticket"
)

type memorySink struct {
	mu     sync.Mutex
	writes [][]byte
}

func (s *memorySink) Write(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, append([]byte(nil), data...))
	return nil
}

func (s *memorySink) String() string { return "memory" }

func (s *memorySink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

func startBridge(t *testing.T, printers ...printbridge.Printer) string {
	t.Helper()
	srv := httptest.NewServer(printbridge.NewServer(printers))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestBridgeDriverPrints(t *testing.T) {
	sink := &memorySink{}
	conn := NewBridgeConnection(startBridge(t, printbridge.Printer{Name: "Kitchen", Sink: sink}))
	defer conn.Close()
	d := NewBridgeDriver(conn, 5*time.Second)

	doc := sampleDocument()
	err := d.Deliver(context.Background(), Delivery{
		JobID:    "job-9",
		Printer:  &models.PrinterDefinition{Name: "kitchen"},
		Document: doc,
		Copies:   3,
	})
	require.NoError(t, err)
	assert.Equal(t, StateConnected, conn.State())

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.writes, 3)
	assert.Equal(t, ticket.EncodeESCPOS(doc), sink.writes[0])
}

func TestBridgeConnectionCoalescesConnects(t *testing.T) {
	conn := NewBridgeConnection(startBridge(t))
	defer conn.Close()

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = conn.EnsureConnected(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, conn.Dials())
	assert.Equal(t, StateConnected, conn.State())
}

func TestBridgeConnectionAttemptSurvivesCallerTimeout(t *testing.T) {
	bridge := printbridge.NewServer(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		bridge.ServeHTTP(w, r)
	}))
	defer srv.Close()
	conn := NewBridgeConnection("ws" + strings.TrimPrefix(srv.URL, "http"))
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	first := make(chan error, 1)
	go func() { first <- conn.EnsureConnected(ctx) }()
	require.Eventually(t, func() bool { return conn.State() == StateConnecting }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.EnsureConnected(context.Background()))
	assert.True(t, errors.Is(<-first, ErrBridgeNotConnected))
	assert.Equal(t, 1, conn.Dials())
	assert.Equal(t, StateConnected, conn.State())
}

func TestBridgeConnectionReconnectsAfterDrop(t *testing.T) {
	sink := &memorySink{}
	conn := NewBridgeConnection(startBridge(t, printbridge.Printer{Name: "Bar", Sink: sink}))
	d := NewBridgeDriver(conn, 5*time.Second)
	del := Delivery{Printer: &models.PrinterDefinition{Name: "Bar"}, Document: sampleDocument()}

	require.NoError(t, d.Deliver(context.Background(), del))
	require.NoError(t, conn.Close())
	assert.Equal(t, StateDisconnected, conn.State())

	require.NoError(t, d.Deliver(context.Background(), del))
	assert.Equal(t, 2, conn.Dials())
	assert.Equal(t, 2, sink.count())
	conn.Close()
}

func TestBridgeDriverNotConnected(t *testing.T) {
	conn := NewBridgeConnection("ws://" + closedAddr(t))
	d := NewBridgeDriver(conn, 2*time.Second)

	err := d.Deliver(context.Background(), Delivery{Printer: &models.PrinterDefinition{Name: "Kitchen"}, Document: sampleDocument()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBridgeNotConnected))
	assert.Equal(t, StateDisconnected, conn.State())
}

func TestBridgeDriverUnknownPrinter(t *testing.T) {
	conn := NewBridgeConnection(startBridge(t, printbridge.Printer{Name: "Kitchen", Sink: &memorySink{}}))
	defer conn.Close()
	d := NewBridgeDriver(conn, 5*time.Second)

	err := d.Deliver(context.Background(), Delivery{Printer: &models.PrinterDefinition{Name: "Receipt"}, Document: sampleDocument()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDeliveryRejected))
}
