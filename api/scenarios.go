/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built scenarios that populate the store with realistic
  shop data for demos. Each scenario stocks the inventory and optionally
  records sales and expenses, always going through the writer so that
  sold-quantity counters stay in step with the sales on record.

AVAILABLE SCENARIOS:
  fresh-start:    Stocked shelves, no trading history
  corner-shop:    A small shop's current month of trading
  year-in-review: Twelve months of trading across a full catalog

HOW SCENARIOS WORK:
 1. Clear all collections under the active principal
 2. Create inventory items
 3. Record sales and expenses via the writer

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "corner-shop"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, h)
 3. Add case to LoadScenario handler

NOTE:
  Scenarios clear existing data. Only use in development/demo
  environments.

SEE ALSO:
  - handlers.go: Route handlers and error helpers
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/warp/ledger-engine/ledger"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "fresh-start",
		Name:        "Fresh Start",
		Description: "Stocked shelves, nothing sold yet",
	},
	{
		ID:          "corner-shop",
		Name:        "Corner Shop",
		Description: "A small shop's current month of trading",
	},
	{
		ID:          "year-in-review",
		Name:        "Year In Review",
		Description: "Twelve months of trading across a full catalog",
	},
}

// catalogEntry is one line of the demo product catalog.
type catalogEntry struct {
	name  string
	cost  int64
	price int64
}

var demoCatalog = []catalogEntry{
	{"Coca-Cola (35cl)", 120, 180},
	{"Pepsi (35cl)", 110, 170},
	{"Fanta (35cl)", 115, 175},
	{"Sprite (35cl)", 115, 175},
	{"Schweppes (35cl)", 130, 200},
	{"Maltina (33cl)", 180, 250},
	{"Amstel Malta (33cl)", 170, 240},
	{"Star Beer (60cl)", 300, 450},
	{"Gulder Beer (60cl)", 320, 480},
	{"Guinness Stout (60cl)", 350, 550},
	{"Fearless Energy Drink", 250, 380},
	{"Red Bull", 600, 900},
	{"Nestle Pure Life Water (50cl)", 50, 100},
	{"Eva Water (75cl)", 70, 120},
	{"Hollandia Yoghurt (1L)", 800, 1200},
	{"Peak Milk (400g tin)", 1000, 1500},
	{"Milo (500g)", 1500, 2200},
	{"Bournvita (450g)", 1400, 2100},
	{"Lipton Tea Bags (25pcs)", 300, 450},
	{"Nescafe Classic (50g)", 500, 750},
}

var demoExpenseCategories = []string{
	"Rent", "Salaries", "Utilities", "Marketing",
	"Supplies", "Maintenance", "Transportation", "Miscellaneous",
}

// =============================================================================
// HANDLERS
// =============================================================================

func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"scenario": h.currentScenario})
}

func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	if err := h.clearAll(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clear data", err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "fresh-start":
		err = h.loadFreshStartScenario(ctx)
	case "corner-shop":
		err = h.loadCornerShopScenario(ctx)
	case "year-in-review":
		err = h.loadYearInReviewScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("scenario %q not found", req.ScenarioID))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "loaded",
		"scenario": req.ScenarioID,
	})
}

// =============================================================================
// LOADERS
// =============================================================================

// clearAll deletes every document under the active principal, one
// atomic batch per collection.
func (h *Handler) clearAll(ctx context.Context) error {
	scope := h.Writer.Scope()
	for _, name := range []string{ledger.CollectionSales, ledger.CollectionExpenses, ledger.CollectionInventory} {
		col, err := scope.Collection(name)
		if err != nil {
			return err
		}
		docs, err := h.Writer.Store().Documents(ctx, col)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			continue
		}
		batch := h.Writer.Store().Batch()
		for _, doc := range docs {
			batch.Delete(col, doc.ID)
		}
		if err := batch.Commit(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) stockCatalog(ctx context.Context, entries []catalogEntry, qtyIn int64) error {
	for _, e := range entries {
		form := ledger.InventoryForm{
			ItemName:  e.name,
			QtyIn:     decimal.NewFromInt(qtyIn),
			CostPrice: decimal.NewFromInt(e.cost),
			SalePrice: decimal.NewFromInt(e.price),
		}
		if _, err := h.Writer.UpsertInventory(ctx, form, nil); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadFreshStartScenario(ctx context.Context) error {
	return h.stockCatalog(ctx, demoCatalog[:8], 50)
}

func (h *Handler) loadCornerShopScenario(ctx context.Context) error {
	if err := h.stockCatalog(ctx, demoCatalog[:8], 100); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(7))
	today := ledger.Today()
	monthStart := today.MonthStart()
	span := ledger.DaysBetween(monthStart, today)

	for i := 0; i < 25; i++ {
		entry := demoCatalog[rng.Intn(8)]
		form := ledger.SaleForm{
			Date:     monthStart.AddDays(rng.Intn(span + 1)).String(),
			Item:     entry.name,
			Qty:      decimal.NewFromInt(int64(rng.Intn(5) + 1)),
			Price:    decimal.NewFromInt(entry.price),
			Cost:     decimal.NewFromInt(entry.cost),
			Customer: fmt.Sprintf("Customer %d", rng.Intn(20)+1),
		}
		if _, err := h.Writer.UpsertSale(ctx, form, nil); err != nil {
			return err
		}
	}

	for _, exp := range []struct {
		item     string
		amount   int64
		category string
	}{
		{"Shop Rent", 25000, "Rent"},
		{"Attendant Wages", 15000, "Salaries"},
		{"Electricity Bill", 4500, "Utilities"},
	} {
		form := ledger.ExpenseForm{
			Date:     monthStart.String(),
			Item:     exp.item,
			Amount:   decimal.NewFromInt(exp.amount),
			Category: exp.category,
		}
		if _, err := h.Writer.UpsertExpense(ctx, form, nil); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadYearInReviewScenario(ctx context.Context) error {
	if err := h.stockCatalog(ctx, demoCatalog, 500); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(42))
	today := ledger.Today()
	yearAgo := today.AddMonths(-12)
	span := ledger.DaysBetween(yearAgo, today)

	for i := 0; i < 200; i++ {
		entry := demoCatalog[rng.Intn(len(demoCatalog))]
		form := ledger.SaleForm{
			Date:     yearAgo.AddDays(rng.Intn(span + 1)).String(),
			Item:     entry.name,
			Qty:      decimal.NewFromInt(int64(rng.Intn(10) + 1)),
			Price:    decimal.NewFromInt(entry.price),
			Cost:     decimal.NewFromInt(entry.cost),
			Customer: fmt.Sprintf("Customer %d", rng.Intn(100)+1),
		}
		if _, err := h.Writer.UpsertSale(ctx, form, nil); err != nil {
			return err
		}
	}

	for i := 0; i < 60; i++ {
		category := demoExpenseCategories[rng.Intn(len(demoExpenseCategories))]
		form := ledger.ExpenseForm{
			Date:     yearAgo.AddDays(rng.Intn(span + 1)).String(),
			Item:     fmt.Sprintf("%s Expense", category),
			Amount:   decimal.NewFromInt(int64(rng.Intn(9500) + 500)),
			Category: category,
		}
		if _, err := h.Writer.UpsertExpense(ctx, form, nil); err != nil {
			return err
		}
	}
	return nil
}
