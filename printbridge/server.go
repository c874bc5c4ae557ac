package printbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"pos-print-service/ticket"
)

// Printer is a named output registered with the bridge
type Printer struct {
	Name string
	Sink Sink
}

// Server is the bridge websocket endpoint
type Server struct {
	printers []Printer
	locks    map[string]*sync.Mutex
	upgrader websocket.Upgrader
}

// NewServer creates a new Server for the given printers
func NewServer(printers []Printer) *Server {
	locks := make(map[string]*sync.Mutex, len(printers))
	for _, p := range printers {
		locks[p.Name] = &sync.Mutex{}
	}
	return &Server{
		printers: printers,
		locks:    locks,
		upgrader: websocket.Upgrader{
			// the bridge listens on loopback and serves the POS page from any origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and serves calls until the client goes away.
// Calls run concurrently; jobs for the same printer are written one at a time.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ Bridge upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	log.Printf("📥 Bridge client connected from %s", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var writeMu sync.Mutex
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("⚠️  Bridge client %s: %v", r.RemoteAddr, err)
			}
			return
		}

		wg.Add(1)
		go func(req Request) {
			defer wg.Done()
			resp := s.Handle(ctx, req)
			writeMu.Lock()
			defer writeMu.Unlock()
			if err := conn.WriteJSON(resp); err != nil {
				log.Printf("⚠️  Bridge reply to %s failed: %v", r.RemoteAddr, err)
			}
		}(req)
	}
}

// Handle executes one call
func (s *Server) Handle(ctx context.Context, req Request) Response {
	resp := Response{UID: req.UID}
	var result any
	var err error

	switch req.Call {
	case CallList:
		result = FindResult{Printers: s.names()}
	case CallFind:
		var p FindParams
		if err = decodeParams(req.Params, &p); err == nil {
			result = FindResult{Printers: s.Find(p.Query)}
		}
	case CallPrint:
		var p PrintParams
		if err = decodeParams(req.Params, &p); err == nil {
			result, err = s.print(ctx, p)
		}
	default:
		err = fmt.Errorf("unknown call %q", req.Call)
	}

	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	resp.Result, err = json.Marshal(result)
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}

// Find returns printer names matching query: exact (case-insensitive) matches
// first, then names containing it. An empty query matches every printer.
func (s *Server) Find(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return s.names()
	}
	var exact, partial []string
	for _, p := range s.printers {
		name := strings.ToLower(p.Name)
		switch {
		case name == q:
			exact = append(exact, p.Name)
		case strings.Contains(name, q):
			partial = append(partial, p.Name)
		}
	}
	return append(exact, partial...)
}

func (s *Server) names() []string {
	names := make([]string, 0, len(s.printers))
	for _, p := range s.printers {
		names = append(names, p.Name)
	}
	return names
}

func (s *Server) printer(name string) (Printer, bool) {
	for _, p := range s.printers {
		if p.Name == name {
			return p, true
		}
	}
	return Printer{}, false
}

func (s *Server) print(ctx context.Context, p PrintParams) (PrintResult, error) {
	printer, ok := s.printer(p.Printer)
	if !ok {
		return PrintResult{}, fmt.Errorf("printer %q not found", p.Printer)
	}
	data, err := ticket.DecodeBridgeData(p.Data)
	if err != nil {
		return PrintResult{}, fmt.Errorf("invalid print data: %w", err)
	}
	copies := p.Options.Copies
	if copies < 1 {
		copies = 1
	}
	if copies > MaxCopies {
		return PrintResult{}, fmt.Errorf("copies must be at most %d", MaxCopies)
	}

	lock := s.locks[printer.Name]
	lock.Lock()
	defer lock.Unlock()

	for i := 0; i < copies; i++ {
		if err := printer.Sink.Write(ctx, data); err != nil {
			log.Printf("❌ Bridge job %s on %s failed: %v", p.JobID, printer.Name, err)
			return PrintResult{}, err
		}
	}
	log.Printf("🖨️  Bridge job %s: %d bytes x%d to %s (%s)", p.JobID, len(data), copies, printer.Name, printer.Sink)
	return PrintResult{Bytes: len(data), Copies: copies}, nil
}

func decodeParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing params")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}
