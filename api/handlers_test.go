/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Stock, sale and log endpoints
- Error status mapping (400/404/409/503)
- Archive endpoints and date handling
- Scenarios, health and metrics routes
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/inventory-ledger/inventory"
	"github.com/warp/inventory-ledger/inventory/store"
	"github.com/warp/inventory-ledger/metrics"
)

var (
	fixedNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	today    = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
)

type testServer struct {
	handler *Handler
	router  http.Handler
	reg     *prometheus.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	reg := prometheus.NewRegistry()
	ledger := inventory.NewLedger(store.NewMemory(),
		inventory.WithClock(func() time.Time { return fixedNow }),
		inventory.WithRecorder(metrics.NewLedgerMetrics(reg)),
	)
	h := NewHandler(ledger, nil)
	h.today = func() time.Time { return today }
	return &testServer{
		handler: h,
		router:  NewRouter(h, RouterOptions{Gatherer: reg, AllowedOrigins: []string{"http://localhost:5173"}}),
		reg:     reg,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestAddStockAndList(t *testing.T) {
	s := newTestServer(t)

	// GIVEN: Two additions of the same product at different prices
	rec := s.do(t, http.MethodPost, "/api/inventory/stock", `{"product_name":"MacBook Pro","quantity":5,"unit_price":"82000"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPost, "/api/inventory/stock", `{"product_name":"MacBook Pro","quantity":2,"unit_price":80000.5}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// WHEN: Listing inventory
	rec = s.do(t, http.MethodGet, "/api/inventory", "")
	require.Equal(t, http.StatusOK, rec.Code)

	// THEN: Quantities are summed and the last price wins
	items := decode[[]ItemDTO](t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, ItemDTO{ProductName: "MacBook Pro", Quantity: 7, UnitPrice: "80000.50"}, items[0])
}

func TestAddStock_Validation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing name", `{"quantity":1,"unit_price":"1"}`, "product_name"},
		{"zero quantity", `{"product_name":"Widget","quantity":0,"unit_price":"1"}`, "quantity"},
		{"negative price", `{"product_name":"Widget","quantity":1,"unit_price":"-1"}`, "unit_price"},
		{"missing price", `{"product_name":"Widget","quantity":1}`, "unit_price"},
		{"null price", `{"product_name":"Widget","quantity":1,"unit_price":null}`, "unit_price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/inventory/stock", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			resp := decode[ErrorResponse](t, rec)
			assert.Contains(t, resp.Fields, tt.field)
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/inventory/stock", `{"product_name":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/inventory/stock", `{"product_name":"W","quantity":1,"price":"1"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	// Nothing was stocked by the rejected requests
	rec := s.do(t, http.MethodGet, "/api/inventory", "")
	assert.Empty(t, decode[[]ItemDTO](t, rec))
}

func TestRecordSale_MissingPriceRejected(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/inventory/stock", `{"product_name":"Widget","quantity":10,"unit_price":"5.00"}`)

	// WHEN: A sale omits its price
	rec := s.do(t, http.MethodPost, "/api/sales", `{"product_name":"Widget","quantity":3}`)

	// THEN: It is rejected and no stock leaves
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, decode[ErrorResponse](t, rec).Fields, "sale_price")

	items := decode[[]ItemDTO](t, s.do(t, http.MethodGet, "/api/inventory", ""))
	require.Len(t, items, 1)
	assert.Equal(t, 10, items[0].Quantity)
}

func TestAddStock_QuantityOverflowConflict(t *testing.T) {
	s := newTestServer(t)
	body := fmt.Sprintf(`{"product_name":"Widget","quantity":%d,"unit_price":"1"}`, math.MaxInt)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/inventory/stock", body).Code)

	rec := s.do(t, http.MethodPost, "/api/inventory/stock", `{"product_name":"Widget","quantity":2,"unit_price":"1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	items := decode[[]ItemDTO](t, s.do(t, http.MethodGet, "/api/inventory", ""))
	require.Len(t, items, 1)
	assert.Equal(t, math.MaxInt, items[0].Quantity)
}

func TestRecordSale(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/inventory/stock", `{"product_name":"Widget","quantity":10,"unit_price":"5.00"}`)

	t.Run("within stock", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/sales", `{"product_name":"Widget","quantity":3,"sale_price":"7.50"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		sale := decode[SaleDTO](t, rec)
		assert.Equal(t, "22.50", sale.TotalPrice)
		assert.Equal(t, "7.50", sale.UnitPrice)
		require.NotNil(t, sale.Remaining)
		assert.Equal(t, 7, *sale.Remaining)
		assert.Equal(t, "2025-03-10T09:30:00Z", sale.SoldAt)
	})

	t.Run("insufficient stock", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/sales", `{"product_name":"Widget","quantity":100,"sale_price":"7.50"}`)
		require.Equal(t, http.StatusConflict, rec.Code)

		items := decode[[]ItemDTO](t, s.do(t, http.MethodGet, "/api/inventory", ""))
		assert.Equal(t, 7, items[0].Quantity)
	})

	t.Run("unknown product", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/sales", `{"product_name":"Gizmo","quantity":1,"sale_price":"1"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestArchiveFlow(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/inventory/stock", `{"product_name":"Widget","quantity":10,"unit_price":"5.00"}`)
	s.do(t, http.MethodPost, "/api/sales", `{"product_name":"Widget","quantity":3,"sale_price":"7.50"}`)

	// Pending logs before archiving
	logs := decode[LogsDTO](t, s.do(t, http.MethodGet, "/api/logs", ""))
	assert.Len(t, logs.Additions, 1)
	assert.Len(t, logs.Sales, 1)

	// WHEN: Archiving with no body (defaults to today)
	rec := s.do(t, http.MethodPost, "/api/archives", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, ArchiveCountsDTO{Date: "2025-03-10", Additions: 1, Sales: 1}, decode[ArchiveCountsDTO](t, rec))

	// THEN: Logs are empty
	logs = decode[LogsDTO](t, s.do(t, http.MethodGet, "/api/logs", ""))
	assert.Empty(t, logs.Additions)
	assert.Empty(t, logs.Sales)

	// AND: The archive is readable by date
	archived := decode[ArchivedLogsDTO](t, s.do(t, http.MethodGet, "/api/archives/2025-03-10", ""))
	require.Len(t, archived.Sales, 1)
	assert.Equal(t, "22.50", archived.Sales[0].TotalPrice)
	assert.Equal(t, 10, archived.Additions[0].QuantityAdded)

	// AND: An explicit date is honoured
	rec = s.do(t, http.MethodPost, "/api/archives", `{"date":"2025-03-11"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ArchiveCountsDTO{Date: "2025-03-11"}, decode[ArchiveCountsDTO](t, rec))

	// AND: Only dates with rows are listed
	dates := decode[[]string](t, s.do(t, http.MethodGet, "/api/archives", ""))
	assert.Equal(t, []string{"2025-03-10"}, dates)
}

func TestArchive_InvalidDates(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/archives", `{"date":"10/03/2025"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/archives/yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/archives/2024-01-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	archived := decode[ArchivedLogsDTO](t, rec)
	assert.NotNil(t, archived.Additions)
	assert.Empty(t, archived.Additions)
}

func TestScenarios(t *testing.T) {
	s := newTestServer(t)

	list := decode[[]map[string]any](t, s.do(t, http.MethodGet, "/api/scenarios", ""))
	assert.Len(t, list, 2)

	rec := s.do(t, http.MethodPost, "/api/scenarios/run", `{"scenario_id":"widget"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	items := decode[[]ItemDTO](t, s.do(t, http.MethodGet, "/api/inventory", ""))
	require.Len(t, items, 1)
	assert.Equal(t, 7, items[0].Quantity)

	rec = s.do(t, http.MethodPost, "/api/scenarios/run", `{"scenario_id":"nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	s.handler.Ping = func(context.Context) error { return errors.New("closed") }
	rec = s.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsAndRequestID(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/inventory/stock", `{"product_name":"Widget","quantity":10,"unit_price":"5.00"}`)

	rec := s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `inventory_operations_total{operation="add_stock",outcome="ok"} 1`)
	assert.Contains(t, rec.Body.String(), "inventory_units_added_total 10")
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(requestIDHeader))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&inventory.ValidationError{Fields: map[string]string{"quantity": "x"}}, http.StatusBadRequest},
		{&inventory.InsufficientStockError{ProductName: "W"}, http.StatusConflict},
		{&inventory.StorageError{Op: "add_stock", Err: inventory.ErrConflict}, http.StatusConflict},
		{&inventory.StorageError{Op: "add_stock", Err: inventory.ErrStoreBusy}, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: %w", inventory.ErrStoreBusy, errors.New("database is locked")), http.StatusServiceUnavailable},
		{&inventory.StorageError{Op: "add_stock", Err: errors.New("disk")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestWriteLedgerError_BusySetsRetryAfter(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/inventory", nil)
	s.handler.writeLedgerError(rec, req, "Failed to list inventory",
		&inventory.StorageError{Op: "list_inventory", Err: inventory.ErrStoreBusy})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	rec = httptest.NewRecorder()
	s.handler.writeLedgerError(rec, req, "Failed to list inventory",
		&inventory.StorageError{Op: "list_inventory", Err: errors.New("disk")})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Header().Get("Retry-After"))
}
