/*
Package scenario holds the scripted demonstration sessions.

PURPOSE:
  A scenario is a fixed list of ledger steps (add stock, sell, list, archive,
  show the archive) run in order against a Ledger. The CLI "demo" command
  and POST /api/scenarios/run both execute them.

AVAILABLE SCENARIOS:
  macbook:  5 MacBook Pro @ 82000, sell 2 @ 85000, list, archive, show
  widget:   10 Widget @ 5.00, sell 3 @ 7.50, oversell 100, list, archive, show

FAILURE HANDLING:
  An insufficient-stock sale is reported to the Observer and the run
  continues. Any other error stops the run and is returned.

ADDING NEW SCENARIOS:
  1. Add a Scenario value to the scenarios slice
  2. Compose it from the Step constructors below

SEE ALSO:
  - report/report.go: The text Observer
  - cli/demo.go: demo command
*/
package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/inventory-ledger/inventory"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type StepKind string

const (
	StepAddStock    StepKind = "add_stock"
	StepSale        StepKind = "sale"
	StepList        StepKind = "list"
	StepArchive     StepKind = "archive"
	StepShowArchive StepKind = "show_archive"
)

// DefaultScenarioID is run when no scenario is named.
const DefaultScenarioID = "macbook"

type Step struct {
	Kind        StepKind
	ProductName string
	Quantity    int
	Price       decimal.Decimal
}

type Scenario struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Steps       []Step `json:"-"`
}

func addStock(name string, qty int, price string) Step {
	return Step{Kind: StepAddStock, ProductName: name, Quantity: qty, Price: decimal.RequireFromString(price)}
}

func sell(name string, qty int, price string) Step {
	return Step{Kind: StepSale, ProductName: name, Quantity: qty, Price: decimal.RequireFromString(price)}
}

var closeOfDay = []Step{{Kind: StepList}, {Kind: StepArchive}, {Kind: StepShowArchive}}

var scenarios = []Scenario{
	{
		ID:          "macbook",
		Name:        "MacBook Pro",
		Description: "Stock 5 laptops, sell 2 above list price, archive the day",
		Steps: append([]Step{
			addStock("MacBook Pro", 5, "82000"),
			sell("MacBook Pro", 2, "85000"),
		}, closeOfDay...),
	},
	{
		ID:          "widget",
		Name:        "Widget",
		Description: "Stock 10 widgets, sell 3, reject an oversell of 100, archive the day",
		Steps: append([]Step{
			addStock("Widget", 10, "5.00"),
			sell("Widget", 3, "7.50"),
			sell("Widget", 100, "7.50"),
		}, closeOfDay...),
	},
}

// List returns every available scenario.
func List() []Scenario {
	return append([]Scenario{}, scenarios...)
}

// Get looks up a scenario by ID.
func Get(id string) (Scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}

// IDs returns the scenario IDs in definition order.
func IDs() []string {
	ids := make([]string, 0, len(scenarios))
	for _, s := range scenarios {
		ids = append(ids, s.ID)
	}
	return ids
}

// =============================================================================
// RUNNER
// =============================================================================

// Observer receives the outcome of every step as it completes.
type Observer interface {
	StockAdded(productName string, quantity int, unitPrice decimal.Decimal)
	Sale(r inventory.SaleResult)
	InsufficientStock(productName string)
	Inventory(items []inventory.Item)
	Archived(c inventory.ArchiveCounts)
	ArchivedLogs(logs inventory.ArchivedLogs)
}

// StepResult records one executed step.
type StepResult struct {
	Kind    StepKind `json:"kind"`
	Outcome string   `json:"outcome"`
	Detail  any      `json:"detail,omitempty"`
}

// Result records a full run.
type Result struct {
	ScenarioID string       `json:"scenario_id"`
	Date       string       `json:"date"`
	Steps      []StepResult `json:"steps"`
}

// Run executes sc against ledger, archiving under day. obs may be nil.
func Run(ctx context.Context, ledger inventory.Ledger, sc Scenario, day time.Time, obs Observer) (Result, error) {
	if obs == nil {
		obs = discard{}
	}
	result := Result{ScenarioID: sc.ID, Date: inventory.FormatDate(day), Steps: []StepResult{}}

	for i, step := range sc.Steps {
		sr, err := runStep(ctx, ledger, step, day, obs)
		if err != nil {
			return result, fmt.Errorf("step %d (%s): %w", i+1, step.Kind, err)
		}
		result.Steps = append(result.Steps, sr)
	}
	return result, nil
}

func runStep(ctx context.Context, ledger inventory.Ledger, step Step, day time.Time, obs Observer) (StepResult, error) {
	sr := StepResult{Kind: step.Kind, Outcome: inventory.OutcomeOK}

	switch step.Kind {
	case StepAddStock:
		if err := ledger.AddStock(ctx, step.ProductName, step.Quantity, step.Price); err != nil {
			return sr, err
		}
		obs.StockAdded(step.ProductName, step.Quantity, step.Price)
		sr.Detail = map[string]any{"product_name": step.ProductName, "quantity": step.Quantity}

	case StepSale:
		sale, err := ledger.RecordSale(ctx, step.ProductName, step.Quantity, step.Price)
		var short *inventory.InsufficientStockError
		switch {
		case errors.As(err, &short):
			obs.InsufficientStock(step.ProductName)
			sr.Outcome = inventory.OutcomeRejected
			sr.Detail = short
		case err != nil:
			return sr, err
		default:
			obs.Sale(sale)
			sr.Detail = sale
		}

	case StepList:
		items, err := ledger.ListInventory(ctx)
		if err != nil {
			return sr, err
		}
		obs.Inventory(items)
		sr.Detail = items

	case StepArchive:
		counts, err := ledger.ArchiveAndClearDailyLogs(ctx, day)
		if err != nil {
			return sr, err
		}
		obs.Archived(counts)
		sr.Detail = counts

	case StepShowArchive:
		logs, err := ledger.GetArchivedLogs(ctx, day)
		if err != nil {
			return sr, err
		}
		obs.ArchivedLogs(logs)
		sr.Detail = logs

	default:
		return sr, fmt.Errorf("unknown step kind %q", step.Kind)
	}
	return sr, nil
}

type discard struct{}

func (discard) StockAdded(string, int, decimal.Decimal) {}
func (discard) Sale(inventory.SaleResult) {}
func (discard) InsufficientStock(string) {}
func (discard) Inventory([]inventory.Item) {}
func (discard) Archived(inventory.ArchiveCounts) {}
func (discard) ArchivedLogs(inventory.ArchivedLogs) {}
