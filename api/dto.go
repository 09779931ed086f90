/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Money is rendered as a
  fixed two-decimal string, timestamps as RFC 3339 and dates as YYYY-MM-DD.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry go-playground/validator tags, checked in decodeJSON.
  The ledger validates again; the tags only reject malformed bodies early.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/inventory-ledger/inventory"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// AddStockRequest is the body of POST /api/inventory/stock.
type AddStockRequest struct {
	ProductName string           `json:"product_name" validate:"required"`
	Quantity    int              `json:"quantity" validate:"gt=0"`
	UnitPrice   *decimal.Decimal `json:"unit_price" validate:"required"`
}

// RecordSaleRequest is the body of POST /api/sales.
type RecordSaleRequest struct {
	ProductName string           `json:"product_name" validate:"required"`
	Quantity    int              `json:"quantity" validate:"gt=0"`
	SalePrice   *decimal.Decimal `json:"sale_price" validate:"required"`
}

// ArchiveRequest is the optional body of POST /api/archives.
type ArchiveRequest struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// RunScenarioRequest is the body of POST /api/scenarios/run.
type RunScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
	Date       string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type ItemDTO struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

type AdditionDTO struct {
	ProductName   string `json:"product_name"`
	QuantityAdded int    `json:"quantity_added"`
	UnitPrice     string `json:"unit_price,omitempty"`
	AddedAt       string `json:"added_at,omitempty"`
}

type SaleDTO struct {
	ProductName  string `json:"product_name"`
	QuantitySold int    `json:"quantity_sold"`
	UnitPrice    string `json:"unit_price,omitempty"`
	TotalPrice   string `json:"total_price"`
	Remaining    *int   `json:"remaining,omitempty"`
	SoldAt       string `json:"sold_at,omitempty"`
}

// LogsDTO lists the log rows not archived yet.
type LogsDTO struct {
	Additions []AdditionDTO `json:"additions"`
	Sales     []SaleDTO     `json:"sales"`
}

type ArchiveCountsDTO struct {
	Date      string `json:"date"`
	Additions int    `json:"additions"`
	Sales     int    `json:"sales"`
}

type ArchivedLogsDTO struct {
	Date      string        `json:"date"`
	Additions []AdditionDTO `json:"additions"`
	Sales     []SaleDTO     `json:"sales"`
}

// ErrorResponse is returned for every non-2xx status.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// optionalTimestamp leaves archived rows without a timestamp blank.
func optionalTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return timestamp(t)
}

func toItemDTOs(items []inventory.Item) []ItemDTO {
	dtos := make([]ItemDTO, len(items))
	for i, it := range items {
		dtos[i] = ItemDTO{
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   money(it.UnitPrice),
		}
	}
	return dtos
}

func toSaleDTO(r inventory.SaleResult) SaleDTO {
	remaining := r.Remaining
	return SaleDTO{
		ProductName:  r.ProductName,
		QuantitySold: r.Quantity,
		UnitPrice:    money(r.UnitPrice),
		TotalPrice:   money(r.TotalPrice),
		Remaining:    &remaining,
		SoldAt:       timestamp(r.SoldAt),
	}
}

func toLogsDTO(logs inventory.DailyLogs) LogsDTO {
	dto := LogsDTO{
		Additions: make([]AdditionDTO, len(logs.Additions)),
		Sales:     make([]SaleDTO, len(logs.Sales)),
	}
	for i, a := range logs.Additions {
		dto.Additions[i] = AdditionDTO{
			ProductName:   a.ProductName,
			QuantityAdded: a.QuantityAdded,
			AddedAt:       timestamp(a.AddedAt),
		}
	}
	for i, s := range logs.Sales {
		dto.Sales[i] = SaleDTO{
			ProductName:  s.ProductName,
			QuantitySold: s.QuantitySold,
			TotalPrice:   money(s.TotalPrice),
			SoldAt:       timestamp(s.SoldAt),
		}
	}
	return dto
}

func toArchiveCountsDTO(c inventory.ArchiveCounts) ArchiveCountsDTO {
	return ArchiveCountsDTO{
		Date:      inventory.FormatDate(c.Date),
		Additions: c.Additions,
		Sales:     c.Sales,
	}
}

func toArchivedLogsDTO(logs inventory.ArchivedLogs) ArchivedLogsDTO {
	dto := ArchivedLogsDTO{
		Date:      inventory.FormatDate(logs.Date),
		Additions: make([]AdditionDTO, len(logs.Additions)),
		Sales:     make([]SaleDTO, len(logs.Sales)),
	}
	for i, a := range logs.Additions {
		dto.Additions[i] = AdditionDTO{
			ProductName:   a.ProductName,
			QuantityAdded: a.QuantityAdded,
			AddedAt:       optionalTimestamp(a.AddedAt),
		}
	}
	for i, s := range logs.Sales {
		dto.Sales[i] = SaleDTO{
			ProductName:  s.ProductName,
			QuantitySold: s.QuantitySold,
			TotalPrice:   money(s.TotalPrice),
			SoldAt:       optionalTimestamp(s.SoldAt),
		}
	}
	return dto
}
