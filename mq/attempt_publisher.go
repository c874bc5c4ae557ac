package mq

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"pos-print-service/models"
)

// Publisher is the publishing half of Client
type Publisher interface {
	Publish(ctx context.Context, exchange, key string, body []byte, contentType string) error
}

// Ensure Client implements Publisher
var _ Publisher = (*Client)(nil)

// AttemptPublisher broadcasts every delivery attempt on a fanout exchange so
// dashboards can follow printing without polling print_logs.
// Message body example:
// {"jobId": "6c1f...", "printerName": "Kitchen", "orderId": "1042", "ticketType": "kitchen", "status": "success", "driver": "network", "createdAt": "..."}
type AttemptPublisher struct {
	pub      Publisher
	exchange string
	timeout  time.Duration
}

// NewAttemptPublisher creates a new AttemptPublisher
func NewAttemptPublisher(pub Publisher, exchange string) *AttemptPublisher {
	return &AttemptPublisher{pub: pub, exchange: exchange, timeout: 5 * time.Second}
}

// LogAttempt publishes the attempt; failures are logged and dropped
func (p *AttemptPublisher) LogAttempt(ctx context.Context, entry models.PrintLog) {
	body, err := json.Marshal(entry)
	if err != nil {
		log.Printf("❌ [%s] Error encoding print attempt: %v", entry.JobID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	if err := p.pub.Publish(ctx, p.exchange, entry.TicketType, body, "application/json"); err != nil {
		log.Printf("⚠️  [%s] Print attempt not published: %v", entry.JobID, err)
	}
}
