package printbridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-print-service/ticket"
)

type recordingSink struct {
	mu     sync.Mutex
	writes [][]byte
	err    error
}

func (s *recordingSink) Write(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.writes = append(s.writes, append([]byte(nil), data...))
	return nil
}

func (s *recordingSink) String() string { return "memory" }

func (s *recordingSink) Writes() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func call(t *testing.T, conn *websocket.Conn, uid, name string, params any) Response {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Request{UID: uid, Call: name, Params: raw}))

	var resp Response
	require.NoError(t, conn.ReadJSON(&resp))
	require.Equal(t, uid, resp.UID)
	return resp
}

func TestServerFindAndPrint(t *testing.T) {
	kitchen := &recordingSink{}
	bar := &recordingSink{}
	srv := httptest.NewServer(NewServer([]Printer{
		{Name: "Kitchen Pass", Sink: kitchen},
		{Name: "Kitchen", Sink: bar},
	}))
	defer srv.Close()
	conn := dial(t, srv)

	resp := call(t, conn, "1", CallFind, FindParams{Query: "kitchen"})
	require.Empty(t, resp.Error)
	var found FindResult
	require.NoError(t, json.Unmarshal(resp.Result, &found))
	assert.Equal(t, []string{"Kitchen", "Kitchen Pass"}, found.Printers)

	doc := ticket.Document{Instructions: []ticket.Instruction{{Kind: ticket.KindText, Text: "2 x Burger"}, {Kind: ticket.KindCut}}}
	resp = call(t, conn, "2", CallPrint, PrintParams{
		Printer: "Kitchen Pass",
		Options: PrintOptions{Copies: 2},
		Data:    ticket.EncodeBridgeData(doc),
	})
	require.Empty(t, resp.Error)
	var printed PrintResult
	require.NoError(t, json.Unmarshal(resp.Result, &printed))
	assert.Equal(t, 2, printed.Copies)

	want := ticket.EncodeESCPOS(doc)
	assert.Equal(t, len(want), printed.Bytes)
	assert.Equal(t, [][]byte{want, want}, kitchen.Writes())
	assert.Empty(t, bar.Writes())
}

func TestServerErrors(t *testing.T) {
	broken := &recordingSink{err: errors.New("paper out")}
	srv := httptest.NewServer(NewServer([]Printer{{Name: "Receipt", Sink: broken}}))
	defer srv.Close()
	conn := dial(t, srv)

	resp := call(t, conn, "a", CallPrint, PrintParams{Printer: "Nope", Data: []ticket.BridgeRecord{{Type: "raw", Format: "plain", Data: "x"}}})
	assert.Contains(t, resp.Error, "not found")

	resp = call(t, conn, "b", CallPrint, PrintParams{Printer: "Receipt", Data: []ticket.BridgeRecord{{Type: "raw", Format: "plain", Data: "x"}}})
	assert.Contains(t, resp.Error, "paper out")

	resp = call(t, conn, "c", CallPrint, PrintParams{Printer: "Receipt", Options: PrintOptions{Copies: MaxCopies + 1}})
	assert.Contains(t, resp.Error, "copies")

	resp = call(t, conn, "d", "printers.reboot", struct{}{})
	assert.Contains(t, resp.Error, "unknown call")
}

func TestServerList(t *testing.T) {
	s := NewServer([]Printer{{Name: "A", Sink: &recordingSink{}}, {Name: "B", Sink: &recordingSink{}}})
	resp := s.Handle(context.Background(), Request{UID: "x", Call: CallList})
	require.Empty(t, resp.Error)
	assert.JSONEq(t, `{"printers":["A","B"]}`, string(resp.Result))
	assert.Equal(t, []string{"A", "B"}, s.Find(""))
}

func TestParseTarget(t *testing.T) {
	sink, err := ParseTarget("tcp://192.168.1.50")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.50:9100", sink.(*TCPSink).Addr)

	sink, err = ParseTarget("serial:///dev/ttyUSB0?baud=19200")
	require.NoError(t, err)
	assert.Equal(t, &SerialSink{Port: "/dev/ttyUSB0", Baud: 19200}, sink)

	sink, err = ParseTarget("serial://COM3")
	require.NoError(t, err)
	assert.Equal(t, &SerialSink{Port: "COM3", Baud: 9600}, sink)

	sink, err = ParseTarget("file:///dev/usb/lp0")
	require.NoError(t, err)
	assert.Equal(t, &FileSink{Path: "/dev/usb/lp0"}, sink)

	for _, bad := range []string{"lpt://1", "tcp://", "serial:///dev/ttyS0?baud=fast", "file://"} {
		_, err := ParseTarget(bad)
		assert.Error(t, err, bad)
	}
}

func TestFileSinkAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spool.bin")
	sink := &FileSink{Path: path}
	require.NoError(t, sink.Write(context.Background(), []byte("one")))
	require.NoError(t, sink.Write(context.Background(), []byte("two")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "onetwo", string(data))
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: 127.0.0.1:9999
printers:
  - name: Kitchen
    target: tcp://10.0.0.5:9100
  - name: Counter
    target: file:///tmp/counter.bin
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.Listen)

	printers, err := cfg.Build()
	require.NoError(t, err)
	require.Len(t, printers, 2)
	assert.Equal(t, "Kitchen", printers[0].Name)
	assert.Equal(t, "tcp://10.0.0.5:9100", printers[0].Sink.String())

	cfg.Printers = append(cfg.Printers, PrinterConfig{Name: "kitchen", Target: "tcp://10.0.0.6"})
	_, err = cfg.Build()
	assert.Error(t, err)
}
