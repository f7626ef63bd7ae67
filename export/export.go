/*
Package export selects the rows and columns emitted by data exports.

PURPOSE:
  Serializing bytes (CSV quoting, PDF layout) is a presentation concern and
  lives with the consumer. This package owns only the SELECTION: which
  records, in which columns, formatted as plain strings.

COLUMN SETS:
  sales:     date, item, qty, price, cost, customer   (date-filtered view)
  expenses:  date, item, amount, category             (date-filtered view)
  inventory: itemName, qtyIn, qtyOut, currentStock, costPrice
             (full mirror - inventory has no date axis)
*/
package export

import (
	"fmt"

	"github.com/warp/ledger-engine/ledger"
)

// Table is an export selection: a header row plus data rows.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Sales selects export rows from an already date-filtered sales view.
func Sales(sales []ledger.Sale) Table {
	t := Table{Headers: []string{"date", "item", "qty", "price", "cost", "customer"}}
	for _, s := range sales {
		t.Rows = append(t.Rows, []string{
			s.Date, s.Item, s.Qty.String(), s.Price.String(), s.Cost.String(), s.Customer,
		})
	}
	return t
}

// Expenses selects export rows from an already date-filtered expenses view.
func Expenses(expenses []ledger.Expense) Table {
	t := Table{Headers: []string{"date", "item", "amount", "category"}}
	for _, e := range expenses {
		t.Rows = append(t.Rows, []string{e.Date, e.Item, e.Amount.String(), e.Category})
	}
	return t
}

// Inventory selects export rows from the full inventory mirror.
func Inventory(items []ledger.InventoryItem) Table {
	t := Table{Headers: []string{"itemName", "qtyIn", "qtyOut", "currentStock", "costPrice"}}
	for _, i := range items {
		t.Rows = append(t.Rows, []string{
			i.ItemName, i.QtyIn.String(), i.QtyOut.String(), i.CurrentStock().String(), i.CostPrice.String(),
		})
	}
	return t
}

// ForKind dispatches on the record kind.
func ForKind(kind ledger.Kind, sales []ledger.Sale, expenses []ledger.Expense, inventory []ledger.InventoryItem) (Table, error) {
	switch kind {
	case ledger.KindSale:
		return Sales(sales), nil
	case ledger.KindExpense:
		return Expenses(expenses), nil
	case ledger.KindInventory:
		return Inventory(inventory), nil
	}
	return Table{}, fmt.Errorf("%w: %q", ledger.ErrUnknownKind, string(kind))
}
