package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-print-service/models"
	"pos-print-service/ticket"
)

func sampleDocument() ticket.Document {
	return ticket.Document{
		Title: "Receipt #7",
		Instructions: []ticket.Instruction{
			{Kind: ticket.KindAlign, Align: ticket.AlignCenter},
			{Kind: ticket.KindText, Text: "Receipt #7"},
			{Kind: ticket.KindFeed, Lines: 2},
			{Kind: ticket.KindCut},
		},
	}
}

func closedAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestExpandEndpoints(t *testing.T) {
	templates := []string{"tcp://{host}:{port}", "http://{addr}/print"}

	assert.Equal(t, []string{"tcp://192.168.1.50:9100", "http://192.168.1.50/print"},
		ExpandEndpoints(templates, "192.168.1.50"))
	assert.Equal(t, []string{"tcp://printer.local:9101", "http://printer.local:9101/print"},
		ExpandEndpoints(templates, "http://printer.local:9101/"))
	assert.Equal(t, []string{"tcp://[fe80::1]:9100", "http://[fe80::1]:9100/print"},
		ExpandEndpoints(templates, "[fe80::1]:9100"))
}

func TestNetworkDriverRawSocket(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	d := NewNetworkDriver([]string{"tcp://{host}:{port}"}, time.Second, 5*time.Second)
	doc := sampleDocument()
	err = d.Deliver(context.Background(), Delivery{
		JobID:    "job-1",
		Printer:  &models.PrinterDefinition{Name: "Front", Address: ln.Addr().String()},
		Document: doc,
		Copies:   2,
	})
	require.NoError(t, err)

	single := ticket.EncodeESCPOS(doc)
	select {
	case got := <-received:
		assert.Equal(t, append(append([]byte(nil), single...), single...), got)
	case <-time.After(5 * time.Second):
		t.Fatal("printer never received the job")
	}
}

func TestNetworkDriverProbesInOrder(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/printer/print" {
			body, _ := io.ReadAll(r.Body)
			if len(body) > 0 {
				w.WriteHeader(http.StatusOK)
				return
			}
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	d := NewNetworkDriver([]string{"http://{addr}/print", "http://{addr}/printer/print", "http://{addr}/"}, time.Second, 5*time.Second)
	err := d.Deliver(context.Background(), Delivery{
		Printer:  &models.PrinterDefinition{Name: "Front", Address: strings.TrimPrefix(srv.URL, "http://")},
		Document: sampleDocument(),
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/print", "/printer/print"}, paths)
}

func TestNetworkDriverRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewNetworkDriver([]string{"http://{addr}/print", "http://{addr}/"}, time.Second, 5*time.Second)
	err := d.Deliver(context.Background(), Delivery{
		Printer:  &models.PrinterDefinition{Name: "Front", Address: srv.Listener.Addr().String()},
		Document: sampleDocument(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDeliveryRejected))

	var de *DeliveryError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, models.DriverNetwork, de.Driver)
	assert.Equal(t, "http://"+srv.Listener.Addr().String()+"/", de.Endpoint)
}

func TestNetworkDriverUnreachable(t *testing.T) {
	addr := closedAddr(t)
	d := NewNetworkDriver([]string{"tcp://{host}:{port}", "http://{addr}/print"}, 500*time.Millisecond, 5*time.Second)

	err := d.Deliver(context.Background(), Delivery{
		Printer:  &models.PrinterDefinition{Name: "Front", Address: addr},
		Document: sampleDocument(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDeliveryUnreachable))
	assert.False(t, errors.Is(err, ErrDeliveryTimeout))
}

func TestClassify(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connect: connection refused")}
	assert.True(t, errors.Is(classify(refused), ErrDeliveryUnreachable))
	assert.True(t, errors.Is(classify(context.DeadlineExceeded), ErrDeliveryTimeout))
	assert.True(t, errors.Is(classify(fmt.Errorf("post: %w", context.DeadlineExceeded)), ErrDeliveryTimeout))

	rejected := fmt.Errorf("%w: HTTP 500", ErrDeliveryRejected)
	assert.Same(t, rejected, classify(rejected))
}

func TestNetworkDriverProbeDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	}))
	defer srv.Close()

	endpoints := []string{"http://{addr}/a", "http://{addr}/b", "http://{addr}/c", "http://{addr}/d", "http://{addr}/e"}
	d := NewNetworkDriver(endpoints, 100*time.Millisecond, 250*time.Millisecond)

	start := time.Now()
	err := d.Deliver(context.Background(), Delivery{
		Printer:  &models.PrinterDefinition{Name: "Slow", Address: srv.Listener.Addr().String()},
		Document: sampleDocument(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDeliveryTimeout))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNetworkDriverWithoutAddress(t *testing.T) {
	d := NewNetworkDriver([]string{"tcp://{host}:{port}"}, time.Second, time.Second)
	err := d.Deliver(context.Background(), Delivery{Printer: &models.PrinterDefinition{Name: "Ghost"}, Document: sampleDocument()})
	require.Error(t, err)
}

func TestNetworkDriverSkipsEmptyDocument(t *testing.T) {
	d := NewNetworkDriver([]string{"tcp://{host}:{port}"}, time.Second, time.Second)
	err := d.Deliver(context.Background(), Delivery{Printer: &models.PrinterDefinition{Name: "Front", Address: closedAddr(t)}})
	assert.NoError(t, err)
}
