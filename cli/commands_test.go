package cli

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestDemo_DefaultScenario(t *testing.T) {
	// WHEN: Running the root command with no subcommand
	res := execute(t, tempDB(t))
	require.NoError(t, res.err)

	// THEN: The MacBook session is printed
	newGoldie(t).Assert(t, "demo_macbook", []byte(res.stdout))
}

func TestDemo_WidgetContinuesAfterRejection(t *testing.T) {
	res := execute(t, tempDB(t), "demo", "--scenario", "widget")
	require.NoError(t, res.err)

	newGoldie(t).Assert(t, "demo_widget", []byte(res.stdout))
}

func TestRoot_DateFlagRunsDemoForThatDay(t *testing.T) {
	res := execute(t, tempDB(t), "--date", "2025-03-11", "--scenario", "widget")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Archived and cleared logs for 2025-03-11 (1 additions, 1 sales)\n")
	assert.Contains(t, res.stdout, "\nArchived Logs for 2025-03-11:\n")

	res = execute(t, tempDB(t), "--date", "next week")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
}

func TestDemo_VerboseNamesDatabase(t *testing.T) {
	db := tempDB(t)
	res := execute(t, db, "demo", "-v")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "running scenario macbook against "+db)
	assert.NotContains(t, res.stdout, "running scenario")
}

func TestDemo_UnknownScenario(t *testing.T) {
	res := execute(t, tempDB(t), "demo", "--scenario", "boats")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
}

func TestDemo_JSON(t *testing.T) {
	res := execute(t, tempDB(t), "demo", "--format", "json")
	require.NoError(t, res.err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			ScenarioID string `json:"scenario_id"`
			Date       string `json:"date"`
			Steps      []struct {
				Kind    string `json:"kind"`
				Outcome string `json:"outcome"`
			} `json:"steps"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "macbook", resp.Data.ScenarioID)
	assert.Equal(t, "2025-03-10", resp.Data.Date)
	assert.Len(t, resp.Data.Steps, 5)
}

func TestAddSellList(t *testing.T) {
	db := tempDB(t)

	res := execute(t, db, "add", "MacBook Pro", "5", "82000")
	require.NoError(t, res.err)
	assert.Equal(t, "Added 5 MacBook Pro at ₹82000.00 each\n", res.stdout)

	res = execute(t, db, "sell", "MacBook Pro", "2", "85000")
	require.NoError(t, res.err)
	assert.Equal(t, "Sold 2 MacBook Pro for ₹170000.00 at ₹85000.00 each\n", res.stdout)

	res = execute(t, db, "list")
	require.NoError(t, res.err)
	assert.Equal(t, "Current Inventory:\nMacBook Pro: 3 units available at ₹82000.00 each\n", res.stdout)

	res = execute(t, db, "logs")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "+ 5 MacBook Pro (Added on 2025-03-10 09:30:00)")
	assert.Contains(t, res.stdout, "- 2 MacBook Pro ₹170000.00 (Sold on 2025-03-10 09:30:00)")
}

func TestSell_InsufficientStock(t *testing.T) {
	db := tempDB(t)
	require.NoError(t, execute(t, db, "add", "Widget", "10", "5.00").err)

	// WHEN: Selling more than is on hand
	res := execute(t, db, "sell", "Widget", "100", "7.50")

	// THEN: The informational message is printed and the exit code is 1
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))
	assert.Empty(t, res.err.Error(), "already reported on stdout")
	assert.Equal(t, "Not enough Widget in inventory to complete the sale.\n", res.stdout)

	// AND: Stock is unchanged
	res = execute(t, db, "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Widget: 10 units available")
}

func TestSell_InsufficientStockJSON(t *testing.T) {
	db := tempDB(t)

	res := execute(t, db, "sell", "Gizmo", "1", "1", "--format", "json")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInsufficientStock, resp.Error.Code)
}

func TestAdd_QuantityOverflow(t *testing.T) {
	db := tempDB(t)
	require.NoError(t, execute(t, db, "add", "Widget", strconv.Itoa(math.MaxInt), "5").err)

	res := execute(t, db, "add", "Widget", "2", "5")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))
	assert.Contains(t, res.stderr, "Error [conflict]")

	res = execute(t, db, "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Widget: "+strconv.Itoa(math.MaxInt)+" units available")
}

func TestAdd_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"non-numeric quantity", []string{"add", "Widget", "ten", "5"}},
		{"zero quantity", []string{"add", "Widget", "0", "5"}},
		{"non-numeric price", []string{"add", "Widget", "1", "five"}},
		{"blank name", []string{"add", "  ", "1", "5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execute(t, tempDB(t), tt.args...)
			require.Error(t, res.err)
			assert.Equal(t, ExitFailure, GetExitCode(res.err))
			assert.Contains(t, res.stderr, "Error [invalid_input]")
		})
	}

	t.Run("wrong arg count", func(t *testing.T) {
		res := execute(t, tempDB(t), "add", "Widget", "1")
		require.Error(t, res.err)
		assert.Equal(t, ExitCommandError, GetExitCode(res.err))
	})
}

func TestArchiveAndArchived(t *testing.T) {
	db := tempDB(t)

	res := execute(t, db, "archived")
	require.NoError(t, res.err)
	assert.Equal(t, "No archived logs.\n", res.stdout)

	require.NoError(t, execute(t, db, "add", "Widget", "10", "5.00").err)
	require.NoError(t, execute(t, db, "sell", "Widget", "3", "7.50").err)

	res = execute(t, db, "archive")
	require.NoError(t, res.err)
	assert.Equal(t, "Archived and cleared logs for 2025-03-10 (1 additions, 1 sales)\n", res.stdout)

	// A second archive moves nothing
	res = execute(t, db, "archive", "--date", "2025-03-11")
	require.NoError(t, res.err)
	assert.Equal(t, "Archived and cleared logs for 2025-03-11 (0 additions, 0 sales)\n", res.stdout)

	res = execute(t, db, "archived")
	require.NoError(t, res.err)
	assert.Equal(t, "Archived Dates:\n2025-03-10\n", res.stdout)

	res = execute(t, db, "archived", "2025-03-10")
	require.NoError(t, res.err)
	assert.True(t, strings.HasPrefix(res.stdout, "\nArchived Logs for 2025-03-10:\n"))
	assert.Contains(t, res.stdout, "+ 10 Widget\n")
	assert.Contains(t, res.stdout, "- 3 Widget ₹22.50 (Sold on 2025-03-10 09:30:00)\n")

	res = execute(t, db, "archived", "March")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))

	res = execute(t, db, "archive", "--date", "tomorrow")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
}

func TestListJSON(t *testing.T) {
	db := tempDB(t)
	require.NoError(t, execute(t, db, "add", "Widget", "10", "5.00").err)

	res := execute(t, db, "list", "--format", "json")
	require.NoError(t, res.err)

	var resp struct {
		Status string `json:"status"`
		Data   []struct {
			ProductName string `json:"product_name"`
			Quantity    int    `json:"quantity"`
			UnitPrice   string `json:"unit_price"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Widget", resp.Data[0].ProductName)
	assert.Equal(t, 10, resp.Data[0].Quantity)
	assert.Equal(t, "5", resp.Data[0].UnitPrice)
}

func TestMigrate(t *testing.T) {
	db := tempDB(t)

	res := execute(t, db, "migrate", "version")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "schema version: 0")

	res = execute(t, db, "migrate", "up")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "up: 00001_create_inventory_tables.sql")
	assert.Contains(t, res.stdout, "schema version: 1")

	res = execute(t, db, "migrate", "status")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "00001 00001_create_inventory_tables.sql applied")

	res = execute(t, db, "migrate", "sideways")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
}
