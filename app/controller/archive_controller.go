package controller

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"pos-print-service/models"
	"pos-print-service/service"
)

// ArchiveController handles HTTP requests for archived fallback documents
type ArchiveController struct {
	archive service.DocumentArchive
}

// NewArchiveController creates a new ArchiveController. archive may be nil when archiving is not configured.
func NewArchiveController(archive service.DocumentArchive) *ArchiveController {
	return &ArchiveController{
		archive: archive,
	}
}

// ListDocuments handles GET /admin/print/archive?limit=25
// Example response:
// {
//   "documents": [
//     {"fileId": "1AbC...", "name": "order-1042-receipt-0b9e1c2d.html", "viewUrl": "https://drive.google.com/...", "createdAt": "2026-03-01T18:46:02Z"}
//   ]
// }
func (c *ArchiveController) ListDocuments(w http.ResponseWriter, r *http.Request) {
	log.Printf("📥 ListDocuments: Received %s request to %s", r.Method, r.URL.Path)

	if r.Method != http.MethodGet {
		log.Printf("❌ ListDocuments: Method not allowed: %s", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if c.archive == nil {
		http.Error(w, "document archive is not configured", http.StatusServiceUnavailable)
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

	docs, err := c.archive.List(r.Context(), limit)
	if err != nil {
		log.Printf("❌ ListDocuments: Error listing archive: %v", err)
		http.Error(w, fmt.Sprintf("Failed to list archived documents: %v", err), http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []models.ArchivedDocument{}
	}

	log.Printf("✅ ListDocuments: %d documents", len(docs))
	writeJSON(w, "ListDocuments", http.StatusOK, map[string]any{"documents": docs})
}
