package service

import (
	"context"

	"pos-print-service/models"
)

// PrintServiceInterface is what the HTTP layer needs from the orchestrator
type PrintServiceInterface interface {
	ServerPrint(ctx context.Context, req models.PrintOrderRequest) (*models.PrintOrderResponse, error)
	Preview(ctx context.Context, order *models.OrderDocument, typ models.PrintType) (string, error)
}

// Ensure PrintService implements PrintServiceInterface
var _ PrintServiceInterface = (*PrintService)(nil)
