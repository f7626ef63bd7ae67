/*
forms.go - Input shapes and validation for record writes

PURPOSE:
  Forms are what callers hand to the writer. They are validated before any
  write is attempted, so a malformed input never produces a partial effect.
  Each form marshals into the document payload actually committed; IDs and
  timestamps are added by the store, the owning user id by the writer.

VALIDATION RULES:
  Sale:      date parses, item set, customer set, qty > 0, price > 0
  Expense:   date parses, item set, amount > 0
  Inventory: item name set, qtyIn >= 0, costPrice >= 0, salePrice >= 0

NOTE ON STOCK:
  A sale whose qty exceeds remaining stock is accepted; current stock is
  expected non-negative but not enforced anywhere. Oversell drives it
  negative until corrected.

SEE ALSO:
  - writer package: the only sanctioned path that commits these forms
*/
package ledger

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SALE FORM
// =============================================================================

// SaleForm is the input for creating or updating a sale.
type SaleForm struct {
	Date     string          `json:"date"`
	Item     string          `json:"item"`
	Qty      decimal.Decimal `json:"qty"`
	Price    decimal.Decimal `json:"price"`
	Cost     decimal.Decimal `json:"cost"`
	Customer string          `json:"customer"`
}

// Validate checks structural well-formedness. It does not check stock.
func (f SaleForm) Validate() error {
	if _, err := ParseDate(f.Date); err != nil {
		return &ValidationError{Field: "date", Message: "must be a valid yyyy-mm-dd date"}
	}
	if f.Item == "" {
		return &ValidationError{Field: "item", Message: "required"}
	}
	if f.Customer == "" {
		return &ValidationError{Field: "customer", Message: "required"}
	}
	if !f.Qty.IsPositive() {
		return &ValidationError{Field: "qty", Message: "must be positive"}
	}
	if !f.Price.IsPositive() {
		return &ValidationError{Field: "price", Message: "must be positive"}
	}
	if f.Cost.IsNegative() {
		return &ValidationError{Field: "cost", Message: "must not be negative"}
	}
	return nil
}

// Payload marshals the form into a sale document stamped with its owner.
func (f SaleForm) Payload(userID string) (json.RawMessage, error) {
	return json.Marshal(struct {
		SaleForm
		UserID string `json:"userId"`
	}{SaleForm: f, UserID: userID})
}

// =============================================================================
// EXPENSE FORM
// =============================================================================

// ExpenseForm is the input for creating or updating an expense.
type ExpenseForm struct {
	Date     string          `json:"date"`
	Item     string          `json:"item"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
}

func (f ExpenseForm) Validate() error {
	if _, err := ParseDate(f.Date); err != nil {
		return &ValidationError{Field: "date", Message: "must be a valid yyyy-mm-dd date"}
	}
	if f.Item == "" {
		return &ValidationError{Field: "item", Message: "required"}
	}
	if !f.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Message: "must be positive"}
	}
	return nil
}

func (f ExpenseForm) Payload(userID string) (json.RawMessage, error) {
	return json.Marshal(struct {
		ExpenseForm
		UserID string `json:"userId"`
	}{ExpenseForm: f, UserID: userID})
}

// =============================================================================
// INVENTORY FORM
// =============================================================================

// InventoryForm is the input for creating or updating an inventory item.
// QtyOut is absent on purpose: it belongs to the writer alone.
type InventoryForm struct {
	ItemName  string          `json:"itemName"`
	QtyIn     decimal.Decimal `json:"qtyIn"`
	CostPrice decimal.Decimal `json:"costPrice"`
	SalePrice decimal.Decimal `json:"salePrice"`
}

func (f InventoryForm) Validate() error {
	if f.ItemName == "" {
		return &ValidationError{Field: "itemName", Message: "required"}
	}
	if f.QtyIn.IsNegative() {
		return &ValidationError{Field: "qtyIn", Message: "must not be negative"}
	}
	if f.CostPrice.IsNegative() {
		return &ValidationError{Field: "costPrice", Message: "must not be negative"}
	}
	if f.SalePrice.IsNegative() {
		return &ValidationError{Field: "salePrice", Message: "must not be negative"}
	}
	return nil
}

// Payload marshals the form for an update. Creates go through CreatePayload
// so qtyOut starts at zero exactly once.
func (f InventoryForm) Payload(userID string) (json.RawMessage, error) {
	return json.Marshal(struct {
		InventoryForm
		UserID string `json:"userId"`
	}{InventoryForm: f, UserID: userID})
}

// CreatePayload is Payload plus the initial qtyOut counter.
func (f InventoryForm) CreatePayload(userID string) (json.RawMessage, error) {
	return json.Marshal(struct {
		InventoryForm
		QtyOut decimal.Decimal `json:"qtyOut"`
		UserID string          `json:"userId"`
	}{InventoryForm: f, QtyOut: decimal.Zero, UserID: userID})
}
