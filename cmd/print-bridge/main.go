package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"pos-print-service/printbridge"
)

func main() {
	listen := pflag.String("listen", "", "address to listen on (default 127.0.0.1:8182, or listen: from the config)")
	configPath := pflag.String("config", "bridge.yaml", "printer registry YAML")
	pflag.Parse()

	cfg, err := printbridge.LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	printers, err := cfg.Build()
	if err != nil {
		log.Fatalf("invalid bridge config: %v", err)
	}
	for _, p := range printers {
		log.Printf("🖨️  %s -> %s", p.Name, p.Sink)
	}

	addr := *listen
	if addr == "" {
		addr = cfg.Listen
	}
	if addr == "" {
		addr = "127.0.0.1:8182"
	}
	if !strings.HasPrefix(addr, "127.0.0.1:") && !strings.HasPrefix(addr, "localhost:") {
		log.Printf("⚠️  Bridge listening on %s accepts print jobs from the network", addr)
	}

	mux := http.NewServeMux()
	mux.Handle("/", printbridge.NewServer(printers))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("Print bridge listening on ws://%s with %d printers", addr, len(printers))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Bridge failed to start: %v", err)
	}
}
