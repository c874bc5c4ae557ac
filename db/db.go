package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed schema.sql
var schemaSQL string

// DB holds the database connection
var DB *sql.DB

// ConnString builds the connection string from DATABASE_URL or the DB_* variables
func ConnString() (string, error) {
	if connStr := os.Getenv("DATABASE_URL"); connStr != "" {
		return connStr, nil
	}

	host := os.Getenv("DB_HOST")
	user := os.Getenv("DB_USER")
	dbname := os.Getenv("DB_NAME")
	if host == "" || user == "" || dbname == "" {
		return "", fmt.Errorf("database connection variables not set. Set DATABASE_URL or DB_HOST, DB_USER, DB_NAME")
	}

	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}
	sslmode := os.Getenv("DB_SSLMODE")
	if sslmode == "" {
		sslmode = "disable"
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, os.Getenv("DB_PASSWORD"), dbname, sslmode), nil
}

// InitDB opens the pool, pings it and applies the print schema
func InitDB(ctx context.Context) error {
	connStr, err := ConnString()
	if err != nil {
		return err
	}

	conn, err := sql.Open("pgx", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	conn.SetMaxOpenConns(10)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := conn.ExecContext(ctx, schemaSQL); err != nil {
		conn.Close()
		return fmt.Errorf("failed to apply print schema: %w", err)
	}

	DB = conn
	log.Printf("✓ Database connection established, print schema applied")
	return nil
}

// CloseDB closes the database connection
func CloseDB() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
