package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"pos-print-service/models"
	"pos-print-service/service"
	"pos-print-service/ticket"
)

// PrintController handles HTTP requests for server-side printing
type PrintController struct {
	service service.PrintServiceInterface
}

// NewPrintController creates a new PrintController
func NewPrintController(svc service.PrintServiceInterface) *PrintController {
	return &PrintController{
		service: svc,
	}
}

// PrintOrder handles POST /api/print/order
// Example request:
// {
//   "orderId": "6c1f...",
//   "orderData": {"orderNumber": "1042", "orderType": "dine_in", "items": [...], "total": 103.5, ...},
//   "printType": "both",
//   "receiptCopies": 1,
//   "fallback": "document"
// }
// Example response:
// {
//   "success": false,
//   "jobId": "0b9e...",
//   "results": {
//     "kitchen": {"destination": "kitchen", "attempted": true, "succeeded": true, "driverUsed": "network", ...},
//     "receipt": {"destination": "receipt", "attempted": true, "succeeded": false, "error": "..."}
//   },
//   "fallbackDocuments": {"receipt": "<!DOCTYPE html>..."},
//   "message": "Kitchen ticket printed; Receipt failed to print: ..."
// }
func (c *PrintController) PrintOrder(w http.ResponseWriter, r *http.Request) {
	log.Printf("📥 PrintOrder: Received %s request to %s", r.Method, r.URL.Path)

	if r.Method != http.MethodPost {
		log.Printf("❌ PrintOrder: Method not allowed: %s", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.PrintOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ PrintOrder: Failed to decode request body: %v", err)
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if !req.PrintType.Valid() {
		log.Printf("❌ PrintOrder: Invalid printType: %q", req.PrintType)
		http.Error(w, "printType must be kitchen, receipt or both", http.StatusBadRequest)
		return
	}

	if req.Fallback != "" {
		if _, err := service.ParseFallback(req.Fallback); err != nil {
			log.Printf("❌ PrintOrder: Invalid fallback: %q", req.Fallback)
			http.Error(w, "fallback must be browser or document", http.StatusBadRequest)
			return
		}
	}

	resp, err := c.service.ServerPrint(r.Context(), req)
	if err != nil {
		log.Printf("❌ PrintOrder: Error printing order: %v", err)
		if errors.Is(err, ticket.ErrRenderingFailure) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, fmt.Sprintf("Failed to print order: %v", err), http.StatusInternalServerError)
		return
	}

	log.Printf("✅ PrintOrder: job=%s success=%t: %s", resp.JobID, resp.Success, resp.Message)
	writeJSON(w, "PrintOrder", http.StatusOK, resp)
}

// Preview handles POST /api/print/preview?type=kitchen|receipt
// The body is the order document; the response is the HTML ticket, or 204 when there is nothing to print.
func (c *PrintController) Preview(w http.ResponseWriter, r *http.Request) {
	log.Printf("📥 Preview: Received %s request to %s", r.Method, r.URL.Path)

	if r.Method != http.MethodPost {
		log.Printf("❌ Preview: Method not allowed: %s", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	typ := models.PrintType(r.URL.Query().Get("type"))
	if typ != models.PrintTypeKitchen && typ != models.PrintTypeReceipt {
		http.Error(w, "type must be kitchen or receipt", http.StatusBadRequest)
		return
	}

	var order models.OrderDocument
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		log.Printf("❌ Preview: Failed to decode request body: %v", err)
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	html, err := c.service.Preview(r.Context(), &order, typ)
	if err != nil {
		log.Printf("❌ Preview: Error rendering %s preview: %v", typ, err)
		if errors.Is(err, ticket.ErrRenderingFailure) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, fmt.Sprintf("Failed to render preview: %v", err), http.StatusInternalServerError)
		return
	}

	if html == "" {
		log.Printf("✅ Preview: Nothing to print for %s", typ)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

func writeJSON(w http.ResponseWriter, op string, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ %s: Error encoding response: %v", op, err)
	}
}
