package repository

import (
	"context"
	"database/sql"
	"fmt"

	"pos-print-service/db"
	"pos-print-service/models"
)

// PrintLogRepository appends print attempts to print_logs
type PrintLogRepository struct {
	conn *sql.DB
}

// NewPrintLogRepository creates a new PrintLogRepository on the shared connection
func NewPrintLogRepository() *PrintLogRepository {
	return &PrintLogRepository{conn: db.DB}
}

// Ensure PrintLogRepository implements PrintLogRepositoryInterface
var _ PrintLogRepositoryInterface = (*PrintLogRepository)(nil)

// Append stores one attempt. Rows are never updated.
func (r *PrintLogRepository) Append(ctx context.Context, entry *models.PrintLog) error {
	query := `
		INSERT INTO print_logs (job_id, printer_name, printer_address, order_id, ticket_type, status, driver, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9)
		RETURNING id
	`
	err := r.conn.QueryRowContext(ctx, query,
		entry.JobID,
		entry.PrinterName,
		entry.PrinterAddress,
		entry.OrderID,
		entry.TicketType,
		entry.Status,
		entry.Driver,
		entry.ErrorMessage,
		entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to append print log: %w", err)
	}
	return nil
}

// ListByOrder returns the most recent attempts for an order, newest first
func (r *PrintLogRepository) ListByOrder(ctx context.Context, orderID string, limit int) ([]models.PrintLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.conn.QueryContext(ctx, `
		SELECT id, job_id, printer_name, printer_address, order_id, ticket_type, status, driver,
		       COALESCE(error_message, ''), created_at
		FROM print_logs
		WHERE order_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, orderID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query print logs: %w", err)
	}
	defer rows.Close()

	var logs []models.PrintLog
	for rows.Next() {
		var l models.PrintLog
		if err := rows.Scan(&l.ID, &l.JobID, &l.PrinterName, &l.PrinterAddress, &l.OrderID,
			&l.TicketType, &l.Status, &l.Driver, &l.ErrorMessage, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan print log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate print logs: %w", err)
	}
	return logs, nil
}
