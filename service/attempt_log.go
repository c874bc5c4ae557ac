package service

import (
	"context"
	"log"

	"pos-print-service/models"
	"pos-print-service/repository"
)

// AttemptLogger records delivery attempts. Failures to record are logged, never returned.
type AttemptLogger interface {
	LogAttempt(ctx context.Context, entry models.PrintLog)
}

// RepositoryAttemptLogger appends attempts to print_logs
type RepositoryAttemptLogger struct {
	repo repository.PrintLogRepositoryInterface
}

// NewRepositoryAttemptLogger creates a new RepositoryAttemptLogger
func NewRepositoryAttemptLogger(repo repository.PrintLogRepositoryInterface) *RepositoryAttemptLogger {
	return &RepositoryAttemptLogger{repo: repo}
}

func (l *RepositoryAttemptLogger) LogAttempt(ctx context.Context, entry models.PrintLog) {
	if err := l.repo.Append(ctx, &entry); err != nil {
		log.Printf("❌ [%s] Error saving print log: %v", entry.JobID, err)
	}
}

// StdAttemptLogger writes attempts to the process log only
type StdAttemptLogger struct{}

func (StdAttemptLogger) LogAttempt(_ context.Context, entry models.PrintLog) {
	if entry.ErrorMessage != "" {
		log.Printf("📝 [%s] %s %s via %s on %q: %s", entry.JobID, entry.TicketType, entry.Status, entry.Driver, entry.PrinterName, entry.ErrorMessage)
		return
	}
	log.Printf("📝 [%s] %s %s via %s on %q", entry.JobID, entry.TicketType, entry.Status, entry.Driver, entry.PrinterName)
}

// MultiAttemptLogger fans one attempt out to several loggers
type MultiAttemptLogger []AttemptLogger

func (m MultiAttemptLogger) LogAttempt(ctx context.Context, entry models.PrintLog) {
	for _, l := range m {
		l.LogAttempt(ctx, entry)
	}
}
