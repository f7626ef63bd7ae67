/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling internal
  record types from the external contract. Derived values (line profit,
  current stock, stock value) are computed here so clients never recompute
  them.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/reports"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// RECORD DTOS
// =============================================================================

// SaleDTO represents a sale in API responses.
type SaleDTO struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Item        string          `json:"item"`
	Qty         decimal.Decimal `json:"qty"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	Customer    string          `json:"customer"`
	LineRevenue decimal.Decimal `json:"line_revenue"`
	LineCost    decimal.Decimal `json:"line_cost"`
	LineProfit  decimal.Decimal `json:"line_profit"`
}

func toSaleDTO(s ledger.Sale) SaleDTO {
	return SaleDTO{
		ID:          s.ID,
		Date:        s.Date,
		Item:        s.Item,
		Qty:         s.Qty,
		Price:       s.Price,
		Cost:        s.Cost,
		Customer:    s.Customer,
		LineRevenue: s.LineRevenue(),
		LineCost:    s.LineCost(),
		LineProfit:  s.LineProfit(),
	}
}

// ExpenseDTO represents an expense in API responses.
type ExpenseDTO struct {
	ID       string          `json:"id"`
	Date     string          `json:"date"`
	Item     string          `json:"item"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
}

func toExpenseDTO(e ledger.Expense) ExpenseDTO {
	return ExpenseDTO{ID: e.ID, Date: e.Date, Item: e.Item, Amount: e.Amount, Category: e.CategoryOrDefault()}
}

// InventoryDTO represents an inventory item in API responses.
type InventoryDTO struct {
	ItemName     string          `json:"item_name"`
	QtyIn        decimal.Decimal `json:"qty_in"`
	QtyOut       decimal.Decimal `json:"qty_out"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SalePrice    decimal.Decimal `json:"sale_price"`
	StockValue   decimal.Decimal `json:"stock_value"`
}

func toInventoryDTO(i ledger.InventoryItem) InventoryDTO {
	return InventoryDTO{
		ItemName:     i.ItemName,
		QtyIn:        i.QtyIn,
		QtyOut:       i.QtyOut,
		CurrentStock: i.CurrentStock(),
		CostPrice:    i.CostPrice,
		SalePrice:    i.SalePrice,
		StockValue:   i.StockValue(),
	}
}

// =============================================================================
// DASHBOARD DTOS
// =============================================================================

// KPIDTO is the dashboard summary block.
type KPIDTO struct {
	TotalSales          decimal.Decimal `json:"total_sales"`
	TotalCost           decimal.Decimal `json:"total_cost"`
	GrossProfit         decimal.Decimal `json:"gross_profit"`
	TotalExpenses       decimal.Decimal `json:"total_expenses"`
	NetProfit           decimal.Decimal `json:"net_profit"`
	TotalInventoryValue decimal.Decimal `json:"total_inventory_value"`
}

func toKPIDTO(k reports.KPISet) KPIDTO {
	return KPIDTO{
		TotalSales:          k.TotalSales,
		TotalCost:           k.TotalCost,
		GrossProfit:         k.GrossProfit,
		TotalExpenses:       k.TotalExpenses,
		NetProfit:           k.NetProfit,
		TotalInventoryValue: k.TotalInventoryValue,
	}
}

// SeriesDTO is the aligned sales/expenses chart payload.
type SeriesDTO struct {
	Granularity string            `json:"granularity"`
	Labels      []string          `json:"labels"`
	Sales       []decimal.Decimal `json:"sales"`
	Expenses    []decimal.Decimal `json:"expenses"`
}

// RankedItemDTO is one entry of the inventory value ranking.
type RankedItemDTO struct {
	ItemName   string          `json:"item_name"`
	StockValue decimal.Decimal `json:"stock_value"`
}

// ExportDTO is an export selection: headers plus stringified rows.
type ExportDTO struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// =============================================================================
// REQUESTS
// =============================================================================

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}
