package repository

import (
	"context"

	"pos-print-service/models"
)

// SettingsRepositoryInterface defines the contract for print settings reads and rule upserts
type SettingsRepositoryInterface interface {
	FetchSettings(ctx context.Context) (*models.Settings, error)
	UpsertRoutingRule(ctx context.Context, rule models.RoutingRule) (*models.RoutingRule, error)
}

// PrintLogRepositoryInterface defines the contract for the append-only print-attempt log
type PrintLogRepositoryInterface interface {
	Append(ctx context.Context, entry *models.PrintLog) error
	ListByOrder(ctx context.Context, orderID string, limit int) ([]models.PrintLog, error)
}
