package reports

import (
	"github.com/shopspring/decimal"
	"github.com/warp/ledger-engine/ledger"
)

// =============================================================================
// KPI CALCULATOR - Summary financial figures
// =============================================================================

// KPISet is the dashboard's summary figures. All fields are zero for empty
// inputs; missing numeric record fields count as zero.
type KPISet struct {
	TotalSales          decimal.Decimal
	TotalCost           decimal.Decimal
	GrossProfit         decimal.Decimal
	TotalExpenses       decimal.Decimal
	NetProfit           decimal.Decimal
	TotalInventoryValue decimal.Decimal
}

// CalculateKPIs computes the summary figures from date-filtered sales and
// expenses plus the full (unfiltered) inventory mirror.
func CalculateKPIs(sales []ledger.Sale, expenses []ledger.Expense, inventory []ledger.InventoryItem) KPISet {
	var k KPISet
	for _, s := range sales {
		k.TotalSales = k.TotalSales.Add(s.LineRevenue())
		k.TotalCost = k.TotalCost.Add(s.LineCost())
	}
	for _, e := range expenses {
		k.TotalExpenses = k.TotalExpenses.Add(e.Amount)
	}
	for _, i := range inventory {
		k.TotalInventoryValue = k.TotalInventoryValue.Add(i.StockValue())
	}
	k.GrossProfit = k.TotalSales.Sub(k.TotalCost)
	k.NetProfit = k.GrossProfit.Sub(k.TotalExpenses)
	return k
}
