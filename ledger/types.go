/*
Package ledger provides the core types of the small-business ledger engine.

PURPOSE:
  This package contains the record shapes, calendar-date handling, collection
  addressing, and document-store contracts shared by every other package.
  The engine tracks three collections per principal - sales, expenses, and
  inventory - and derives all financial figures from them.

KEY CONCEPTS IN THIS FILE (types.go):
  - Sale: One line of revenue, referencing an inventory item by name
  - Expense: One line of spend with a category
  - InventoryItem: Stock record keyed by item name (natural key)
  - Derived values: lineRevenue/lineCost/lineProfit, currentStock/stockValue

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Closed shapes: Records are typed structs, not loose maps; a missing
     numeric field decodes to decimal zero rather than failing
  3. Server authority: IDs and timestamps are assigned by the store, never
     by callers; the mirror reflects only what the store confirms

STOCK INVARIANT:
  For every InventoryItem i, i.QtyOut equals the sum of Qty over all live
  Sales whose Item == i.ItemName, provided every sale write went through
  the writer package. QtyOut is never edited directly.

SEE ALSO:
  - forms.go: Input shapes and validation for creates/updates
  - store.go: Document persistence contracts
  - date.go: Calendar dates and ranges
*/
package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Stored payloads carry numerics as bare JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// =============================================================================
// RECORD KINDS
// =============================================================================

// Kind identifies one of the three record families.
type Kind string

const (
	KindSale      Kind = "sale"
	KindExpense   Kind = "expense"
	KindInventory Kind = "inventory"
)

// Collection returns the collection name a kind lives in.
func (k Kind) Collection() (string, error) {
	switch k {
	case KindSale:
		return CollectionSales, nil
	case KindExpense:
		return CollectionExpenses, nil
	case KindInventory:
		return CollectionInventory, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, string(k))
}

// =============================================================================
// SALE
// =============================================================================

// Sale is one revenue line. Cost is copied from the inventory item at the
// time of sale so later cost-price edits do not rewrite history.
type Sale struct {
	ID        string          `json:"-"`
	Date      string          `json:"date"`
	Item      string          `json:"item"`
	Qty       decimal.Decimal `json:"qty"`
	Price     decimal.Decimal `json:"price"`
	Cost      decimal.Decimal `json:"cost"`
	Customer  string          `json:"customer"`
	UserID    string          `json:"userId"`
	CreatedAt time.Time       `json:"-"`
	UpdatedAt time.Time       `json:"-"`
}

func (s Sale) LineRevenue() decimal.Decimal { return s.Qty.Mul(s.Price) }
func (s Sale) LineCost() decimal.Decimal    { return s.Qty.Mul(s.Cost) }
func (s Sale) LineProfit() decimal.Decimal  { return s.LineRevenue().Sub(s.LineCost()) }

// Day parses the record's calendar date. Records with a missing or
// unparsable date are excluded from date-filtered views by the caller.
func (s Sale) Day() (Date, error) { return ParseDate(s.Date) }

// =============================================================================
// EXPENSE
// =============================================================================

// Uncategorized is the breakdown label for expenses without a category.
const Uncategorized = "Uncategorized"

// ExpenseCategories is the default category set. It is advisory, not
// enforced: an unknown category is stored as-is.
var ExpenseCategories = []string{
	"Rent",
	"Salaries",
	"Utilities",
	"Supplies",
	"Transport",
	"Marketing",
	"Maintenance",
	"Other",
}

// Expense is one spend line. Item is a free-text description, unrelated to
// inventory item names.
type Expense struct {
	ID        string          `json:"-"`
	Date      string          `json:"date"`
	Item      string          `json:"item"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category"`
	UserID    string          `json:"userId"`
	CreatedAt time.Time       `json:"-"`
	UpdatedAt time.Time       `json:"-"`
}

func (e Expense) Day() (Date, error) { return ParseDate(e.Date) }

// CategoryOrDefault maps a missing category to the Uncategorized label.
func (e Expense) CategoryOrDefault() string {
	if e.Category == "" {
		return Uncategorized
	}
	return e.Category
}

// =============================================================================
// INVENTORY ITEM
// =============================================================================

// InventoryItem is a stock record. Its document id equals ItemName verbatim,
// so at most one row exists per spelling. QtyOut is maintained exclusively by
// the writer as a side effect of sale writes.
type InventoryItem struct {
	ID        string          `json:"-"`
	ItemName  string          `json:"itemName"`
	QtyIn     decimal.Decimal `json:"qtyIn"`
	QtyOut    decimal.Decimal `json:"qtyOut"`
	CostPrice decimal.Decimal `json:"costPrice"`
	SalePrice decimal.Decimal `json:"salePrice"`
	UserID    string          `json:"userId"`
	CreatedAt time.Time       `json:"-"`
	UpdatedAt time.Time       `json:"-"`
}

func (i InventoryItem) CurrentStock() decimal.Decimal { return i.QtyIn.Sub(i.QtyOut) }
func (i InventoryItem) StockValue() decimal.Decimal   { return i.CurrentStock().Mul(i.CostPrice) }

// =============================================================================
// DOCUMENT DECODING
// =============================================================================

// DecodeSale converts a stored document into a Sale.
func DecodeSale(doc Document) (Sale, error) {
	var s Sale
	if err := json.Unmarshal(doc.Data, &s); err != nil {
		return Sale{}, fmt.Errorf("decode sale %s: %w", doc.ID, err)
	}
	s.ID = doc.ID
	s.CreatedAt = doc.CreatedAt
	s.UpdatedAt = doc.UpdatedAt
	return s, nil
}

// DecodeExpense converts a stored document into an Expense.
func DecodeExpense(doc Document) (Expense, error) {
	var e Expense
	if err := json.Unmarshal(doc.Data, &e); err != nil {
		return Expense{}, fmt.Errorf("decode expense %s: %w", doc.ID, err)
	}
	e.ID = doc.ID
	e.CreatedAt = doc.CreatedAt
	e.UpdatedAt = doc.UpdatedAt
	return e, nil
}

// DecodeInventoryItem converts a stored document into an InventoryItem.
func DecodeInventoryItem(doc Document) (InventoryItem, error) {
	var i InventoryItem
	if err := json.Unmarshal(doc.Data, &i); err != nil {
		return InventoryItem{}, fmt.Errorf("decode inventory item %s: %w", doc.ID, err)
	}
	i.ID = doc.ID
	if i.ItemName == "" {
		i.ItemName = doc.ID
	}
	i.CreatedAt = doc.CreatedAt
	i.UpdatedAt = doc.UpdatedAt
	return i, nil
}
