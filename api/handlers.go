/*
handlers.go - HTTP API handlers for the ledger engine

PURPOSE:
  Exposes the engine via REST. Handlers parse the request, delegate to the
  mirror (reads), the writer and delete coordinator (mutations), and the
  reports/export packages (derivations), then serialize the response.

ENDPOINTS:
  Records:
    GET    /api/sales                 List sales in range
    POST   /api/sales                 Create sale
    PUT    /api/sales/{id}            Update sale
    DELETE /api/sales/{id}            Delete sale (reverses stock delta)
    ... same shape for /api/expenses and /api/inventory

  Dashboard:
    GET /api/dashboard/kpis           Summary figures for range
    GET /api/dashboard/series         Aligned sales/expenses series
    GET /api/dashboard/categories     Expense category breakdown
    GET /api/dashboard/ranking        Inventory stock-value ranking

  Export:
    GET /api/export/{kind}            Row/column selection for export

  Scenarios:
    GET  /api/scenarios               List demo scenarios
    POST /api/scenarios/load          Seed demo data

RANGE PARAMETERS:
  start/end are yyyy-mm-dd query params, inclusive on both ends. Absent
  params default to the current month (first of month through today).

ERROR HANDLING:
  - 400: Validation errors, malformed dates or ranges
  - 404: Missing record or batch target
  - 409: Create of an already-stocked item, or a batch otherwise rejected
  - 500: Store failures

NOTE:
  The mirror reflects a write only after the store's snapshot comes back;
  a read issued immediately after a mutation may briefly see pre-write
  state. Consumers follow the change feed rather than assuming
  read-your-write.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo data seeding
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/warp/ledger-engine/export"
	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/mirror"
	"github.com/warp/ledger-engine/reports"
	"github.com/warp/ledger-engine/writer"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Mirror  *mirror.Mirror
	Writer  *writer.Writer
	Deletes *writer.Coordinator

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler wires the engine components behind the API.
func NewHandler(m *mirror.Mirror, w *writer.Writer, d *writer.Coordinator) *Handler {
	return &Handler{Mirror: m, Writer: w, Deletes: d}
}

// =============================================================================
// SALES
// =============================================================================

func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}
	sales := reports.FilterByDate(h.Mirror.Sales(), rng)
	dtos := make([]SaleDTO, 0, len(sales))
	for _, s := range sales {
		dtos = append(dtos, toSaleDTO(s))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var form ledger.SaleForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	id, err := h.Writer.UpsertSale(r.Context(), form, nil)
	if err != nil {
		writeDomainError(w, "Failed to save sale", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) UpdateSale(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	prev, ok := h.Mirror.SaleByID(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Sale not found", nil)
		return
	}
	var form ledger.SaleForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if _, err := h.Writer.UpsertSale(r.Context(), form, &prev); err != nil {
		writeDomainError(w, "Failed to save sale", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *Handler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	h.deleteRecord(w, r, ledger.KindSale)
}

// =============================================================================
// EXPENSES
// =============================================================================

func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}
	expenses := reports.FilterByDate(h.Mirror.Expenses(), rng)
	dtos := make([]ExpenseDTO, 0, len(expenses))
	for _, e := range expenses {
		dtos = append(dtos, toExpenseDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var form ledger.ExpenseForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	id, err := h.Writer.UpsertExpense(r.Context(), form, nil)
	if err != nil {
		writeDomainError(w, "Failed to save expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var prev *ledger.Expense
	for _, e := range h.Mirror.Expenses() {
		if e.ID == id {
			expense := e
			prev = &expense
			break
		}
	}
	if prev == nil {
		writeError(w, http.StatusNotFound, "Expense not found", nil)
		return
	}
	var form ledger.ExpenseForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if _, err := h.Writer.UpsertExpense(r.Context(), form, prev); err != nil {
		writeDomainError(w, "Failed to save expense", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	h.deleteRecord(w, r, ledger.KindExpense)
}

// =============================================================================
// INVENTORY
// =============================================================================

func (h *Handler) ListInventory(w http.ResponseWriter, r *http.Request) {
	items := h.Mirror.Inventory()
	dtos := make([]InventoryDTO, 0, len(items))
	for _, i := range items {
		dtos = append(dtos, toInventoryDTO(i))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateInventory(w http.ResponseWriter, r *http.Request) {
	var form ledger.InventoryForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	id, err := h.Writer.UpsertInventory(r.Context(), form, nil)
	if err != nil {
		writeDomainError(w, "Failed to save inventory item", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) UpdateInventory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "id")
	prev, ok := h.Mirror.InventoryByName(name)
	if !ok {
		writeError(w, http.StatusNotFound, "Inventory item not found", nil)
		return
	}
	var form ledger.InventoryForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if _, err := h.Writer.UpsertInventory(r.Context(), form, &prev); err != nil {
		writeDomainError(w, "Failed to save inventory item", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": name})
}

func (h *Handler) DeleteInventory(w http.ResponseWriter, r *http.Request) {
	h.deleteRecord(w, r, ledger.KindInventory)
}

// deleteRecord runs the two-phase coordinator in one request: the HTTP
// DELETE itself is the confirmation.
func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request, kind ledger.Kind) {
	id := chi.URLParam(r, "id")
	h.Deletes.RequestDelete(id, kind)
	if err := h.Deletes.ConfirmDelete(r.Context()); err != nil {
		writeDomainError(w, "Failed to delete record", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

// =============================================================================
// DASHBOARD
// =============================================================================

func (h *Handler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}
	kpis := reports.CalculateKPIs(
		reports.FilterByDate(h.Mirror.Sales(), rng),
		reports.FilterByDate(h.Mirror.Expenses(), rng),
		h.Mirror.Inventory(),
	)
	writeJSON(w, http.StatusOK, toKPIDTO(kpis))
}

func (h *Handler) GetSeries(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}
	series, err := reports.BuildSeries(h.Mirror.Sales(), h.Mirror.Expenses(), rng)
	if err != nil {
		writeDomainError(w, "Failed to build series", err)
		return
	}
	writeJSON(w, http.StatusOK, SeriesDTO{
		Granularity: string(series.Granularity),
		Labels:      series.Labels,
		Sales:       series.Sales,
		Expenses:    series.Expenses,
	})
}

func (h *Handler) GetCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}
	breakdown := reports.CategoryBreakdown(reports.FilterByDate(h.Mirror.Expenses(), rng))
	writeJSON(w, http.StatusOK, breakdown)
}

func (h *Handler) GetInventoryRanking(w http.ResponseWriter, r *http.Request) {
	n := 0
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "Invalid n", nil)
			return
		}
		n = parsed
	}
	top := r.URL.Query().Get("order") != "bottom"
	ranked := reports.RankInventory(h.Mirror.Inventory(), n, top)
	dtos := make([]RankedItemDTO, 0, len(ranked))
	for _, ri := range ranked {
		dtos = append(dtos, RankedItemDTO{ItemName: ri.Item.ItemName, StockValue: ri.StockValue})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// EXPORT
// =============================================================================

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	kind, err := kindFromPath(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid export kind", err)
		return
	}
	rng, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}
	table, err := export.ForKind(kind,
		reports.FilterByDate(h.Mirror.Sales(), rng),
		reports.FilterByDate(h.Mirror.Expenses(), rng),
		h.Mirror.Inventory(),
	)
	if err != nil {
		writeDomainError(w, "Failed to build export", err)
		return
	}
	writeJSON(w, http.StatusOK, ExportDTO{Headers: table.Headers, Rows: table.Rows})
}

// =============================================================================
// HELPERS
// =============================================================================

// parseRange reads start/end query params. Absent params default to the
// current month.
func parseRange(r *http.Request) (ledger.DateRange, error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")
	if startStr == "" && endStr == "" {
		return ledger.ThisMonth(), nil
	}

	rng := ledger.ThisMonth()
	if startStr != "" {
		start, err := ledger.ParseDate(startStr)
		if err != nil {
			return ledger.DateRange{}, err
		}
		rng.Start = start
	}
	if endStr != "" {
		end, err := ledger.ParseDate(endStr)
		if err != nil {
			return ledger.DateRange{}, err
		}
		rng.End = end
	}
	return rng, rng.Validate()
}

func kindFromPath(s string) (ledger.Kind, error) {
	switch s {
	case ledger.CollectionSales:
		return ledger.KindSale, nil
	case ledger.CollectionExpenses:
		return ledger.KindExpense, nil
	case ledger.CollectionInventory:
		return ledger.KindInventory, nil
	}
	return "", ledger.ErrUnknownKind
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, ledger.ErrCommitFailed):
		writeError(w, http.StatusConflict, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
