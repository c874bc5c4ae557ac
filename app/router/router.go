package router

import (
	"net/http"

	"pos-print-service/app/controller"
)

type Controllers struct {
	Print    *controller.PrintController
	Settings *controller.SettingsController
	Archive  *controller.ArchiveController
}

// pingHandler handles GET /ping
func pingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// SetupRoutes registers every endpoint on mux. All routes except /ping need a bearer token.
func SetupRoutes(mux *http.ServeMux, controllers *Controllers, tokens []string) {
	// Ping endpoint
	mux.HandleFunc("/ping", pingHandler)

	// Print routes
	mux.HandleFunc("/api/print/order", requireToken(tokens, controllers.Print.PrintOrder))
	mux.HandleFunc("/api/print/preview", requireToken(tokens, controllers.Print.Preview))

	// Settings admin routes
	mux.HandleFunc("/admin/print/settings", requireToken(tokens, controllers.Settings.GetSettings))
	mux.HandleFunc("/admin/print/settings/invalidate", requireToken(tokens, controllers.Settings.InvalidateSettings))
	mux.HandleFunc("/admin/print/routing-rules", requireToken(tokens, controllers.Settings.UpsertRoutingRule))
	mux.HandleFunc("/admin/print/logs", requireToken(tokens, controllers.Settings.ListPrintLogs))

	// Archived fallback documents
	mux.HandleFunc("/admin/print/archive", requireToken(tokens, controllers.Archive.ListDocuments))
}
