package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"pos-print-service/models"
	"pos-print-service/repository"
)

// SettingsInvalidator drops cached print settings
type SettingsInvalidator interface {
	Invalidate()
}

// SettingsController handles HTTP requests for print settings administration
type SettingsController struct {
	repository repository.SettingsRepositoryInterface
	logs       repository.PrintLogRepositoryInterface
	cache      SettingsInvalidator
}

// NewSettingsController creates a new SettingsController
func NewSettingsController(repo repository.SettingsRepositoryInterface, logs repository.PrintLogRepositoryInterface, cache SettingsInvalidator) *SettingsController {
	return &SettingsController{
		repository: repo,
		logs:       logs,
		cache:      cache,
	}
}

// GetSettings handles GET /admin/print/settings
// Example response:
// {
//   "printers": [{"id": "k1", "name": "Kitchen", "address": "192.168.1.50", "kind": "kitchen", "active": true}],
//   "rules": [{"category": "Cocktails", "printerId": "b1"}],
//   "branding": {"businessName": "Mama Grill", "addressLines": ["12 Main Road"], "footerText": "Thank you!"}
// }
func (c *SettingsController) GetSettings(w http.ResponseWriter, r *http.Request) {
	log.Printf("📥 GetSettings: Received %s request to %s", r.Method, r.URL.Path)

	if r.Method != http.MethodGet {
		log.Printf("❌ GetSettings: Method not allowed: %s", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	settings, err := c.repository.FetchSettings(r.Context())
	if err != nil {
		log.Printf("❌ GetSettings: Error fetching settings: %v", err)
		http.Error(w, fmt.Sprintf("Failed to fetch settings: %v", err), http.StatusInternalServerError)
		return
	}

	log.Printf("✅ GetSettings: %d printers, %d rules", len(settings.Printers), len(settings.Rules))
	writeJSON(w, "GetSettings", http.StatusOK, settings)
}

// UpsertRoutingRule handles PUT /admin/print/routing-rules
// Example request:
// {
//   "category": "Cocktails",
//   "printerId": "b1"
// }
func (c *SettingsController) UpsertRoutingRule(w http.ResponseWriter, r *http.Request) {
	log.Printf("📥 UpsertRoutingRule: Received %s request to %s", r.Method, r.URL.Path)

	if r.Method != http.MethodPut {
		log.Printf("❌ UpsertRoutingRule: Method not allowed: %s", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var rule models.RoutingRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		log.Printf("❌ UpsertRoutingRule: Failed to decode request body: %v", err)
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	rule.Category = strings.TrimSpace(rule.Category)
	rule.PrinterID = strings.TrimSpace(rule.PrinterID)
	if rule.Category == "" {
		http.Error(w, "category is required", http.StatusBadRequest)
		return
	}
	if rule.PrinterID == "" {
		http.Error(w, "printerId is required", http.StatusBadRequest)
		return
	}

	saved, err := c.repository.UpsertRoutingRule(r.Context(), rule)
	if err != nil {
		log.Printf("❌ UpsertRoutingRule: Error saving rule: %v", err)
		if errors.Is(err, repository.ErrUnknownPrinter) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Failed to save routing rule: %v", err), http.StatusInternalServerError)
		return
	}
	c.cache.Invalidate()

	log.Printf("✅ UpsertRoutingRule: %q -> %s", saved.Category, saved.PrinterID)
	writeJSON(w, "UpsertRoutingRule", http.StatusOK, saved)
}

// InvalidateSettings handles POST /admin/print/settings/invalidate
func (c *SettingsController) InvalidateSettings(w http.ResponseWriter, r *http.Request) {
	log.Printf("📥 InvalidateSettings: Received %s request to %s", r.Method, r.URL.Path)

	if r.Method != http.MethodPost {
		log.Printf("❌ InvalidateSettings: Method not allowed: %s", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	c.cache.Invalidate()
	writeJSON(w, "InvalidateSettings", http.StatusOK, map[string]string{"status": "invalidated"})
}

// ListPrintLogs handles GET /admin/print/logs?orderId=1042&limit=50
func (c *SettingsController) ListPrintLogs(w http.ResponseWriter, r *http.Request) {
	log.Printf("📥 ListPrintLogs: Received %s request to %s", r.Method, r.URL.Path)

	if r.Method != http.MethodGet {
		log.Printf("❌ ListPrintLogs: Method not allowed: %s", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	orderID := strings.TrimSpace(r.URL.Query().Get("orderId"))
	if orderID == "" {
		http.Error(w, "orderId parameter is required", http.StatusBadRequest)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	logs, err := c.logs.ListByOrder(r.Context(), orderID, limit)
	if err != nil {
		log.Printf("❌ ListPrintLogs: Error fetching print logs: %v", err)
		http.Error(w, fmt.Sprintf("Failed to fetch print logs: %v", err), http.StatusInternalServerError)
		return
	}
	if logs == nil {
		logs = []models.PrintLog{}
	}

	log.Printf("✅ ListPrintLogs: %d entries for order %s", len(logs), orderID)
	writeJSON(w, "ListPrintLogs", http.StatusOK, map[string]any{"logs": logs})
}
