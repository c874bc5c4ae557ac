package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-print-service/config"
	"pos-print-service/driver"
	"pos-print-service/models"
	"pos-print-service/repository"
	"pos-print-service/service"
	"pos-print-service/ticket"
	"pos-print-service/utils"
)

type fakePrintService struct {
	got     models.PrintOrderRequest
	resp    *models.PrintOrderResponse
	err     error
	preview string
}

func (f *fakePrintService) ServerPrint(_ context.Context, req models.PrintOrderRequest) (*models.PrintOrderResponse, error) {
	f.got = req
	return f.resp, f.err
}

func (f *fakePrintService) Preview(_ context.Context, _ *models.OrderDocument, _ models.PrintType) (string, error) {
	return f.preview, f.err
}

type fakeSettingsRepo struct {
	settings *models.Settings
	upserted []models.RoutingRule
	err      error
}

func (f *fakeSettingsRepo) FetchSettings(context.Context) (*models.Settings, error) {
	return f.settings, f.err
}

func (f *fakeSettingsRepo) UpsertRoutingRule(_ context.Context, rule models.RoutingRule) (*models.RoutingRule, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.upserted = append(f.upserted, rule)
	return &rule, nil
}

type fakeLogRepo struct {
	logs      []models.PrintLog
	lastLimit int
}

func (f *fakeLogRepo) Append(context.Context, *models.PrintLog) error { return nil }

func (f *fakeLogRepo) ListByOrder(_ context.Context, _ string, limit int) ([]models.PrintLog, error) {
	f.lastLimit = limit
	return f.logs, nil
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate() { c.n++ }

type fakeArchive struct {
	docs []models.ArchivedDocument
}

func (f *fakeArchive) Archive(context.Context, string, string) (*models.ArchivedDocument, error) {
	return nil, errors.New("not used")
}

func (f *fakeArchive) List(context.Context, int) ([]models.ArchivedDocument, error) {
	return f.docs, nil
}

const orderJSON = `{"orderNumber": "1042", "orderType": "dine_in", "items": [{"productName": "Burger", "qty": 1, "categoryName": "Burgers"}], "total": 45, "paymentMethod": "cash"}`

func TestPrintOrder(t *testing.T) {
	svc := &fakePrintService{resp: &models.PrintOrderResponse{
		Success: false,
		JobID:   "job-1",
		Results: models.PrintOrderResults{
			Receipt: &models.PrintResult{Destination: models.DestinationReceipt, Attempted: true, Error: "delivery timeout"},
		},
		FallbackDocuments: map[models.Destination]string{models.DestinationReceipt: "<html></html>"},
		Message:           "delivery timeout",
	}}
	c := NewPrintController(svc)

	body := `{"orderId": "ord-1", "orderData": ` + orderJSON + `, "printType": "receipt", "receiptCopies": 2}`
	rec := httptest.NewRecorder()
	c.PrintOrder(rec, httptest.NewRequest(http.MethodPost, "/api/print/order", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ord-1", svc.got.OrderID)
	assert.Equal(t, 2, svc.got.ReceiptCopies)
	assert.Equal(t, "1042", svc.got.OrderData.OrderNumber)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "<html></html>", resp["fallbackDocuments"].(map[string]any)["receipt"])
	results := resp["results"].(map[string]any)
	assert.Contains(t, results, "receipt")
	assert.NotContains(t, results, "kitchen")
}

type pageSurface struct {
	mu    sync.Mutex
	pages []string
}

func (s *pageSurface) Print(_ context.Context, _, html string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = append(s.pages, html)
	return nil
}

func TestPrintOrderBrowserFallback(t *testing.T) {
	clock := utils.NewFakeClock(time.Date(2026, 3, 1, 18, 46, 0, 0, time.UTC))
	surface := &pageSurface{}
	browser := driver.NewBrowserDriver(surface, clock, 750*time.Millisecond)
	store := service.NewSettingsStore(func(context.Context) (*models.Settings, error) { return &models.Settings{}, nil }, clock, time.Minute)
	svc := service.NewPrintService(service.PrintServiceDeps{
		Settings:        store,
		Classifier:      service.NewClassifier(service.SubstringMatcher{}, service.LongestMatch, config.DefaultKitchenCategories),
		Mode:            config.ModeDirect,
		Network:         driver.NewNetworkDriver(config.DefaultNetworkEndpoints, time.Second, time.Second),
		Browser:         browser,
		Clock:           clock,
		DefaultFallback: service.FallbackDocument,
	})
	c := NewPrintController(svc)

	body := `{"orderId": "ord-1", "orderData": ` + orderJSON + `, "printType": "receipt", "receiptCopies": 2, "fallback": "browser"}`
	rec := httptest.NewRecorder()
	c.PrintOrder(rec, httptest.NewRequest(http.MethodPost, "/api/print/order", strings.NewReader(body)))
	browser.Wait()

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.PrintOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Results.Receipt)
	assert.Equal(t, models.DriverBrowser, resp.Results.Receipt.DriverUsed)
	assert.True(t, resp.Results.Receipt.Fallback)
	assert.Empty(t, resp.FallbackDocuments)

	surface.mu.Lock()
	defer surface.mu.Unlock()
	require.Len(t, surface.pages, 2)
	assert.Contains(t, surface.pages[0], "Burger")
}

func TestPrintOrderBadRequests(t *testing.T) {
	tests := []struct {
		name   string
		method string
		body   string
		err    error
		code   int
	}{
		{name: "method", method: http.MethodGet, code: http.StatusMethodNotAllowed},
		{name: "json", method: http.MethodPost, body: `{`, code: http.StatusBadRequest},
		{name: "print type", method: http.MethodPost, body: `{"orderData": ` + orderJSON + `, "printType": "fax"}`, code: http.StatusBadRequest},
		{name: "fallback", method: http.MethodPost, body: `{"orderData": ` + orderJSON + `, "printType": "both", "fallback": "fax"}`, code: http.StatusBadRequest},
		{name: "rendering", method: http.MethodPost, body: `{"orderData": {}, "printType": "both"}`, err: fmt.Errorf("%w: order has no items", ticket.ErrRenderingFailure), code: http.StatusBadRequest},
		{name: "internal", method: http.MethodPost, body: `{"orderData": ` + orderJSON + `, "printType": "both"}`, err: errors.New("boom"), code: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewPrintController(&fakePrintService{err: tt.err})
			rec := httptest.NewRecorder()
			c.PrintOrder(rec, httptest.NewRequest(tt.method, "/api/print/order", strings.NewReader(tt.body)))
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestPreview(t *testing.T) {
	c := NewPrintController(&fakePrintService{preview: "<html>ticket</html>"})
	rec := httptest.NewRecorder()
	c.Preview(rec, httptest.NewRequest(http.MethodPost, "/api/print/preview?type=receipt", strings.NewReader(orderJSON)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<html>ticket</html>", rec.Body.String())

	c = NewPrintController(&fakePrintService{})
	rec = httptest.NewRecorder()
	c.Preview(rec, httptest.NewRequest(http.MethodPost, "/api/print/preview?type=kitchen", strings.NewReader(orderJSON)))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	c.Preview(rec, httptest.NewRequest(http.MethodPost, "/api/print/preview?type=both", strings.NewReader(orderJSON)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSettings(t *testing.T) {
	repo := &fakeSettingsRepo{settings: &models.Settings{
		Printers: []models.PrinterDefinition{{ID: "k1", Name: "Kitchen", Kind: models.PrinterKindKitchen, Active: true}},
	}}
	c := NewSettingsController(repo, &fakeLogRepo{}, &countingInvalidator{})

	rec := httptest.NewRecorder()
	c.GetSettings(rec, httptest.NewRequest(http.MethodGet, "/admin/print/settings", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Settings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, repo.settings.Printers, got.Printers)
}

func TestUpsertRoutingRuleInvalidatesCache(t *testing.T) {
	repo := &fakeSettingsRepo{}
	cache := &countingInvalidator{}
	c := NewSettingsController(repo, &fakeLogRepo{}, cache)

	rec := httptest.NewRecorder()
	c.UpsertRoutingRule(rec, httptest.NewRequest(http.MethodPut, "/admin/print/routing-rules", strings.NewReader(`{"category": " Cocktails ", "printerId": "b1"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []models.RoutingRule{{Category: "Cocktails", PrinterID: "b1"}}, repo.upserted)
	assert.Equal(t, 1, cache.n)
}

func TestUpsertRoutingRuleErrors(t *testing.T) {
	cache := &countingInvalidator{}
	c := NewSettingsController(&fakeSettingsRepo{err: repository.ErrUnknownPrinter}, &fakeLogRepo{}, cache)

	rec := httptest.NewRecorder()
	c.UpsertRoutingRule(rec, httptest.NewRequest(http.MethodPut, "/admin/print/routing-rules", strings.NewReader(`{"category": "Cocktails", "printerId": "nope"}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	c.UpsertRoutingRule(rec, httptest.NewRequest(http.MethodPut, "/admin/print/routing-rules", strings.NewReader(`{"category": "", "printerId": "b1"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Zero(t, cache.n)
}

func TestInvalidateSettings(t *testing.T) {
	cache := &countingInvalidator{}
	c := NewSettingsController(&fakeSettingsRepo{}, &fakeLogRepo{}, cache)

	rec := httptest.NewRecorder()
	c.InvalidateSettings(rec, httptest.NewRequest(http.MethodPost, "/admin/print/settings/invalidate", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, cache.n)
}

func TestListPrintLogs(t *testing.T) {
	logs := &fakeLogRepo{logs: []models.PrintLog{{ID: 1, JobID: "job-1", OrderID: "1042", Status: models.PrintLogSuccess}}}
	c := NewSettingsController(&fakeSettingsRepo{}, logs, &countingInvalidator{})

	rec := httptest.NewRecorder()
	c.ListPrintLogs(rec, httptest.NewRequest(http.MethodGet, "/admin/print/logs?orderId=1042&limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, logs.lastLimit)
	assert.Contains(t, rec.Body.String(), `"jobId":"job-1"`)

	rec = httptest.NewRecorder()
	c.ListPrintLogs(rec, httptest.NewRequest(http.MethodGet, "/admin/print/logs", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListDocuments(t *testing.T) {
	c := NewArchiveController(&fakeArchive{docs: []models.ArchivedDocument{{FileID: "f1", Name: "order-1042-receipt-0b9e1c2d.html"}}})
	rec := httptest.NewRecorder()
	c.ListDocuments(rec, httptest.NewRequest(http.MethodGet, "/admin/print/archive", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"fileId":"f1"`)

	c = NewArchiveController(nil)
	rec = httptest.NewRecorder()
	c.ListDocuments(rec, httptest.NewRequest(http.MethodGet, "/admin/print/archive", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
