package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pos-print-service/app"
)

func main() {
	// Load .env file in development (ignores error if file doesn't exist)
	// In production, variables should be set directly
	if os.Getenv("ENV") != "production" {
		// Use Overload to ensure .env values override system environment variables
		envPath := ".env"
		if err := godotenv.Overload(envPath); err != nil {
			log.Printf("Warning: .env file not found at %s, using system environment variables", envPath)
		} else {
			log.Printf("Successfully loaded environment variables from %s (overriding system variables)", envPath)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize application
	application, err := app.Initialize(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer application.Close()

	go func() {
		if err := application.RunConsumer(ctx); err != nil {
			log.Printf("❌ Print job consumer stopped: %v", err)
		}
	}()

	// Listen on 0.0.0.0 to accept connections from all interfaces (required for Docker)
	addr := "0.0.0.0:" + application.Config.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           application.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("⚠️  Server shutdown: %v", err)
		}
	}()

	log.Printf("Server starting on %s", addr)
	log.Printf("Print endpoint: POST http://localhost:%s/api/print/order", application.Config.Port)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed to start: %v", err)
	}
}
