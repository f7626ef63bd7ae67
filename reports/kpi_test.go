package reports_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/reports"
)

func TestCalculateKPIs(t *testing.T) {
	// GIVEN: Two sales, one expense, two stocked items
	sales := []ledger.Sale{
		{Date: "2024-01-02", Item: "Cola", Qty: dec("10"), Price: dec("180"), Cost: dec("120")},
		{Date: "2024-01-03", Item: "Fanta", Qty: dec("2"), Price: dec("175"), Cost: dec("115")},
	}
	expenses := []ledger.Expense{
		{Date: "2024-01-05", Item: "Shop Rent", Amount: dec("500"), Category: "Rent"},
	}
	inventory := []ledger.InventoryItem{
		item("Cola", "100", "10", "120"),
		item("Fanta", "50", "2", "115"),
	}

	// WHEN
	k := reports.CalculateKPIs(sales, expenses, inventory)

	// THEN: revenue 10*180 + 2*175 = 2150; cost 10*120 + 2*115 = 1430
	assert.True(t, k.TotalSales.Equal(dec("2150")), "got %s", k.TotalSales)
	assert.True(t, k.TotalCost.Equal(dec("1430")))
	assert.True(t, k.GrossProfit.Equal(dec("720")))
	assert.True(t, k.TotalExpenses.Equal(dec("500")))
	assert.True(t, k.NetProfit.Equal(dec("220")))
	// inventory: 90*120 + 48*115 = 10800 + 5520
	assert.True(t, k.TotalInventoryValue.Equal(dec("16320")), "got %s", k.TotalInventoryValue)
}

func TestCalculateKPIs_Empty(t *testing.T) {
	k := reports.CalculateKPIs(nil, nil, nil)

	assert.True(t, k.TotalSales.IsZero())
	assert.True(t, k.TotalCost.IsZero())
	assert.True(t, k.GrossProfit.IsZero())
	assert.True(t, k.TotalExpenses.IsZero())
	assert.True(t, k.NetProfit.IsZero())
	assert.True(t, k.TotalInventoryValue.IsZero())
}

func TestCalculateKPIs_MissingAmounts(t *testing.T) {
	// Records with zero-valued numeric fields contribute nothing but
	// never fail the calculation
	sales := []ledger.Sale{{Date: "2024-01-02", Item: "Cola"}}
	expenses := []ledger.Expense{{Date: "2024-01-05", Item: "Mystery"}}

	k := reports.CalculateKPIs(sales, expenses, nil)
	assert.True(t, k.TotalSales.IsZero())
	assert.True(t, k.NetProfit.IsZero())
}
