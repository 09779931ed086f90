/*
handlers.go - HTTP API handlers for the inventory ledger

PURPOSE:
  Exposes the ledger via REST API. Handles HTTP request/response, JSON
  serialization, and delegates every decision to inventory.Ledger.

ENDPOINTS:
  Inventory:
    GET    /api/inventory              List stock
    POST   /api/inventory/stock        Add stock
    POST   /api/sales                  Record a sale
    GET    /api/logs                   Log rows not archived yet

  Archives:
    POST   /api/archives               Archive and clear the logs
    GET    /api/archives               Dates with archived rows
    GET    /api/archives/{date}        Archived rows for one date

  Scenarios:
    GET    /api/scenarios              List demonstration scenarios
    POST   /api/scenarios/run          Run one against the ledger

  Operations:
    GET    /healthz                    Store reachability
    GET    /metrics                    Prometheus exposition

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, malformed body or date
  - 404: Unknown scenario
  - 409: Insufficient stock, constraint violation
  - 503: Store busy
  - 500: Storage failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/warp/inventory-ledger/inventory"
	"github.com/warp/inventory-ledger/logger"
	"github.com/warp/inventory-ledger/scenario"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger inventory.Ledger
	Logger *logger.Logger

	// Ping reports store reachability for /healthz. Optional.
	Ping func(ctx context.Context) error

	today func() time.Time
}

// NewHandler creates a new handler for the given ledger.
func NewHandler(ledger inventory.Ledger, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		Ledger: ledger,
		Logger: log,
		today:  inventory.Today,
	}
}

// =============================================================================
// INVENTORY HANDLERS
// =============================================================================

// ListInventory returns every item.
func (h *Handler) ListInventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.Ledger.ListInventory(r.Context())
	if err != nil {
		h.writeLedgerError(w, r, "Failed to list inventory", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTOs(items))
}

// AddStock logs an addition and increments the item.
func (h *Handler) AddStock(w http.ResponseWriter, r *http.Request) {
	var req AddStockRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.writeLedgerError(w, r, "Invalid request body", err)
		return
	}

	if err := h.Ledger.AddStock(r.Context(), req.ProductName, req.Quantity, *req.UnitPrice); err != nil {
		h.writeLedgerError(w, r, "Failed to add stock", err)
		return
	}

	writeJSON(w, http.StatusCreated, AdditionDTO{
		ProductName:   strings.TrimSpace(req.ProductName),
		QuantityAdded: req.Quantity,
		UnitPrice:     money(*req.UnitPrice),
	})
}

// RecordSale sells stock at the requested price.
func (h *Handler) RecordSale(w http.ResponseWriter, r *http.Request) {
	var req RecordSaleRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.writeLedgerError(w, r, "Invalid request body", err)
		return
	}

	sale, err := h.Ledger.RecordSale(r.Context(), req.ProductName, req.Quantity, *req.SalePrice)
	if err != nil {
		h.writeLedgerError(w, r, "Failed to record sale", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSaleDTO(sale))
}

// PendingLogs returns the log rows not archived yet.
func (h *Handler) PendingLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.Ledger.PendingLogs(r.Context())
	if err != nil {
		h.writeLedgerError(w, r, "Failed to read logs", err)
		return
	}
	writeJSON(w, http.StatusOK, toLogsDTO(logs))
}

// =============================================================================
// ARCHIVE HANDLERS
// =============================================================================

// Archive moves both logs into the archive. The date defaults to today.
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	var req ArchiveRequest
	if err := decodeJSON(r, &req, true); err != nil {
		h.writeLedgerError(w, r, "Invalid request body", err)
		return
	}

	date, err := h.dateOrToday(req.Date)
	if err != nil {
		h.writeLedgerError(w, r, "Invalid date", err)
		return
	}

	counts, err := h.Ledger.ArchiveAndClearDailyLogs(r.Context(), date)
	if err != nil {
		h.writeLedgerError(w, r, "Failed to archive logs", err)
		return
	}
	writeJSON(w, http.StatusOK, toArchiveCountsDTO(counts))
}

// ListArchiveDates returns every date with archived rows, ascending.
func (h *Handler) ListArchiveDates(w http.ResponseWriter, r *http.Request) {
	dates, err := h.Ledger.ArchiveDates(r.Context())
	if err != nil {
		h.writeLedgerError(w, r, "Failed to list archive dates", err)
		return
	}

	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = inventory.FormatDate(d)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetArchivedLogs returns the rows archived under {date}.
func (h *Handler) GetArchivedLogs(w http.ResponseWriter, r *http.Request) {
	date, err := inventory.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		h.writeLedgerError(w, r, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	logs, err := h.Ledger.GetArchivedLogs(r.Context(), date)
	if err != nil {
		h.writeLedgerError(w, r, "Failed to read archived logs", err)
		return
	}
	writeJSON(w, http.StatusOK, toArchivedLogsDTO(logs))
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns the demonstration scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenario.List())
}

// RunScenario runs a scenario against the live ledger. Nothing is reset first.
func (h *Handler) RunScenario(w http.ResponseWriter, r *http.Request) {
	var req RunScenarioRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.writeLedgerError(w, r, "Invalid request body", err)
		return
	}

	sc, ok := scenario.Get(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown scenario", fmt.Errorf("scenario %q not found", req.ScenarioID))
		return
	}

	date, err := h.dateOrToday(req.Date)
	if err != nil {
		h.writeLedgerError(w, r, "Invalid date", err)
		return
	}

	result, err := scenario.Run(r.Context(), h.Ledger, sc, date, nil)
	if err != nil {
		h.writeLedgerError(w, r, "Failed to run scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Health reports whether the store answers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.Ping != nil {
		if err := h.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Store unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// decodeJSON decodes and validates a request body. allowEmpty accepts a
// missing body as the zero value.
func decodeJSON(r *http.Request, dest any, allowEmpty bool) error {
	defer io.Copy(io.Discard, r.Body)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return fmt.Errorf("%w: %v", inventory.ErrInvalidInput, err)
		}
	}

	if err := validate.Struct(dest); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			return fmt.Errorf("%w: %v", inventory.ErrInvalidInput, err)
		}
		fields := map[string]string{}
		for _, fe := range errs {
			fields[fe.Field()] = validationMessage(fe)
		}
		return &inventory.ValidationError{Fields: fields}
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "datetime":
		return "must be YYYY-MM-DD"
	}
	return "is invalid"
}

func (h *Handler) dateOrToday(s string) (time.Time, error) {
	if s == "" {
		return h.today(), nil
	}
	return inventory.ParseDate(s)
}

// statusFor maps ledger errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, inventory.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, inventory.ErrInsufficientStock), errors.Is(err, inventory.ErrConflict):
		return http.StatusConflict
	case inventory.IsRetryable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeLedgerError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if inventory.IsRetryable(err) {
		w.Header().Set("Retry-After", "1")
	} else if status >= http.StatusInternalServerError {
		h.Logger.Error(r.Context(), message, err)
	}

	resp := ErrorResponse{Error: message, Details: err.Error()}
	var verr *inventory.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
