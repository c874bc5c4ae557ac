package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"pos-print-service/models"
	"pos-print-service/mq"
	"pos-print-service/ticket"
)

// NewPrintJobHandler handles queued print requests with the server-side print semantics.
// Undeliverable tickets end up in the document archive; malformed jobs are dead-lettered.
func NewPrintJobHandler(svc *PrintService) mq.Handler {
	return func(ctx context.Context, body []byte) error {
		var req models.PrintOrderRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return fmt.Errorf("%w: invalid print job: %v", mq.ErrDeadLetter, err)
		}

		resp, err := svc.ServerPrint(ctx, req)
		if errors.Is(err, ticket.ErrRenderingFailure) {
			return fmt.Errorf("%w: %v", mq.ErrDeadLetter, err)
		}
		if err != nil {
			return err
		}
		log.Printf("✅ Queued print job %s for order %q: %s", resp.JobID, req.OrderID, resp.Message)
		return nil
	}
}
