package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"pos-print-service/db"
	"pos-print-service/models"
)

// ErrUnknownPrinter is returned when a routing rule targets a printer that does not exist
var ErrUnknownPrinter = errors.New("unknown printer")

const (
	selectPrintersQuery = `
		SELECT id, name, address, kind, is_active
		FROM printers
		ORDER BY created_at, id
	`

	// insertion order is the rule fetch order
	selectRulesQuery = `
		SELECT category_name, printer_id
		FROM category_printer_rules
		ORDER BY created_at, id
	`

	selectBrandingQuery = `
		SELECT logo_url, business_name, address_lines, phone, footer_text
		FROM receipt_settings
		WHERE id = 1
	`

	// no row comes back when the printer does not exist
	upsertRuleQuery = `
		INSERT INTO category_printer_rules (category_name, printer_id)
		SELECT $1, p.id FROM printers p WHERE p.id = $2
		ON CONFLICT (category_name)
		DO UPDATE SET
			printer_id = EXCLUDED.printer_id,
			updated_at = NOW()
		RETURNING category_name, printer_id
	`
)

// SettingsRepository reads printers, routing rules and receipt branding
type SettingsRepository struct {
	conn *sql.DB
}

// NewSettingsRepository creates a new SettingsRepository on the shared connection
func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{conn: db.DB}
}

// Ensure SettingsRepository implements SettingsRepositoryInterface
var _ SettingsRepositoryInterface = (*SettingsRepository)(nil)

// FetchSettings loads the three settings tables in one read transaction.
// Rules come back in fetch order (oldest first), which the classifier's first-match policy relies on.
func (r *SettingsRepository) FetchSettings(ctx context.Context) (*models.Settings, error) {
	tx, err := r.conn.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to start settings read: %w", err)
	}
	defer tx.Rollback()

	settings := &models.Settings{}

	printerRows, err := tx.QueryContext(ctx, selectPrintersQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query printers: %w", err)
	}
	for printerRows.Next() {
		var p models.PrinterDefinition
		var kind string
		if err := printerRows.Scan(&p.ID, &p.Name, &p.Address, &kind, &p.Active); err != nil {
			printerRows.Close()
			return nil, fmt.Errorf("failed to scan printer: %w", err)
		}
		p.Kind = models.PrinterKind(kind)
		settings.Printers = append(settings.Printers, p)
	}
	printerRows.Close()
	if err := printerRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate printers: %w", err)
	}

	ruleRows, err := tx.QueryContext(ctx, selectRulesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query routing rules: %w", err)
	}
	for ruleRows.Next() {
		var rule models.RoutingRule
		if err := ruleRows.Scan(&rule.Category, &rule.PrinterID); err != nil {
			ruleRows.Close()
			return nil, fmt.Errorf("failed to scan routing rule: %w", err)
		}
		settings.Rules = append(settings.Rules, rule)
	}
	ruleRows.Close()
	if err := ruleRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate routing rules: %w", err)
	}

	var branding models.ReceiptBranding
	var addressLines string
	err = tx.QueryRowContext(ctx, selectBrandingQuery).Scan(&branding.LogoURL, &branding.BusinessName, &addressLines, &branding.Phone, &branding.FooterText)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// no branding row: defaults apply downstream
	case err != nil:
		return nil, fmt.Errorf("failed to query receipt settings: %w", err)
	default:
		branding.AddressLines = splitLines(addressLines)
		settings.Branding = &branding
	}

	log.Printf("✓ Settings fetched: %d printers, %d rules, branding=%t", len(settings.Printers), len(settings.Rules), settings.Branding != nil)
	return settings, nil
}

// UpsertRoutingRule inserts a rule or replaces the printer of the existing rule for that category
func (r *SettingsRepository) UpsertRoutingRule(ctx context.Context, rule models.RoutingRule) (*models.RoutingRule, error) {
	category := strings.TrimSpace(rule.Category)
	if category == "" {
		return nil, fmt.Errorf("category is required")
	}

	var saved models.RoutingRule
	err := r.conn.QueryRowContext(ctx, upsertRuleQuery, category, rule.PrinterID).Scan(&saved.Category, &saved.PrinterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPrinter, rule.PrinterID)
		}
		log.Printf("❌ Error upserting routing rule: %v", err)
		return nil, fmt.Errorf("failed to upsert routing rule: %w", err)
	}

	log.Printf("✅ Routing rule saved: category=%s -> printer=%s", saved.Category, saved.PrinterID)
	return &saved, nil
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
