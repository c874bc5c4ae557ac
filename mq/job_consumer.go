package mq

import (
	"context"
	"errors"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrDeadLetter tells the consumer to reject a message without requeueing it
var ErrDeadLetter = errors.New("dead letter")

// Handler processes one message body
type Handler func(ctx context.Context, body []byte) error

// JobConsumer feeds queued messages to a Handler one at a time
type JobConsumer struct {
	client   *Client
	queue    string
	tag      string
	prefetch int
	handle   Handler
}

// NewJobConsumer creates a new JobConsumer
func NewJobConsumer(client *Client, queue, tag string, prefetch int, handle Handler) *JobConsumer {
	if prefetch < 1 {
		prefetch = 1
	}
	return &JobConsumer{client: client, queue: queue, tag: tag, prefetch: prefetch, handle: handle}
}

// Run consumes until ctx is cancelled or the channel closes.
// The message in progress is settled before Run returns.
func (c *JobConsumer) Run(ctx context.Context) error {
	ch, err := c.client.Channel()
	if err != nil {
		return fmt.Errorf("open consume channel: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}
	msgs, err := ch.Consume(c.queue, c.tag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}
	log.Printf("📥 Consuming print jobs from %s (prefetch=%d)", c.queue, c.prefetch)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for d := range msgs {
			c.process(ctx, d)
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("🔌 Stopping print job consumer %s", c.tag)
		_ = ch.Cancel(c.tag, false)
	case <-done:
		return errors.New("print job channel closed")
	}
	<-done
	return nil
}

func (c *JobConsumer) process(ctx context.Context, d amqp.Delivery) {
	err := c.handle(ctx, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrDeadLetter):
		log.Printf("❌ Print job %s dead-lettered: %v", d.MessageId, err)
		_ = d.Nack(false, false)
	case d.Redelivered:
		log.Printf("❌ Print job %s failed twice, dead-lettered: %v", d.MessageId, err)
		_ = d.Nack(false, false)
	default:
		log.Printf("⚠️  Print job %s failed, requeued: %v", d.MessageId, err)
		_ = d.Nack(false, true)
	}
}
