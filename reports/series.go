/*
series.go - Time-bucketed sales/expenses series, breakdowns, and rankings

GRANULARITY SELECTION:
  dayCount = end - start + 1
    dayCount <= 60            daily buckets,   label "Jan 2"
    60 < dayCount <= 112      ISO weekly,      label "W14 '24" (Monday start)
    dayCount > 112            monthly buckets, label "Jan 24"

BUCKET ALIGNMENT:
  The label axis is the union of bucket keys active in either series,
  ordered by the underlying date (never by label string). A bucket with no
  activity in one series still appears there with value zero, so both
  series always have the same length as the label axis.
*/
package reports

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/ledger-engine/ledger"
)

// =============================================================================
// GRANULARITY
// =============================================================================

type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

// Range widths (days, inclusive) at which bucketing coarsens.
const (
	maxDailyDays  = 60
	maxWeeklyDays = 112
)

// GranularityFor picks the bucket size for a range.
func GranularityFor(rng ledger.DateRange) Granularity {
	switch days := rng.Days(); {
	case days <= maxDailyDays:
		return Daily
	case days <= maxWeeklyDays:
		return Weekly
	default:
		return Monthly
	}
}

// bucketOf maps a date onto its bucket's start day and display label.
func bucketOf(day ledger.Date, g Granularity) (start ledger.Date, label string) {
	switch g {
	case Daily:
		return day, day.Format("Jan 2")
	case Weekly:
		start = day.WeekStart()
		year, week := day.ISOWeek()
		return start, fmt.Sprintf("W%d '%02d", week, year%100)
	default:
		start = day.MonthStart()
		return start, start.Format("Jan 06")
	}
}

// =============================================================================
// SERIES
// =============================================================================

// Series is a pair of aligned time series sharing one ordered label axis.
type Series struct {
	Granularity Granularity
	Labels      []string
	Sales       []decimal.Decimal
	Expenses    []decimal.Decimal
}

// BuildSeries filters both collections to the range and buckets sales by
// qty*price and expenses by amount.
func BuildSeries(sales []ledger.Sale, expenses []ledger.Expense, rng ledger.DateRange) (Series, error) {
	if err := rng.Validate(); err != nil {
		return Series{}, err
	}
	g := GranularityFor(rng)

	type bucket struct {
		label    string
		sales    decimal.Decimal
		expenses decimal.Decimal
	}
	buckets := make(map[string]*bucket)
	starts := make(map[string]ledger.Date)

	add := func(day ledger.Date, value decimal.Decimal, isSale bool) {
		start, label := bucketOf(day, g)
		key := start.String()
		b, ok := buckets[key]
		if !ok {
			b = &bucket{label: label}
			buckets[key] = b
			starts[key] = start
		}
		if isSale {
			b.sales = b.sales.Add(value)
		} else {
			b.expenses = b.expenses.Add(value)
		}
	}

	for _, s := range FilterByDate(sales, rng) {
		day, err := s.Day()
		if err != nil {
			continue
		}
		add(day, s.LineRevenue(), true)
	}
	for _, e := range FilterByDate(expenses, rng) {
		day, err := e.Day()
		if err != nil {
			continue
		}
		add(day, e.Amount, false)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return starts[keys[i]].Before(starts[keys[j]]) })

	out := Series{
		Granularity: g,
		Labels:      make([]string, len(keys)),
		Sales:       make([]decimal.Decimal, len(keys)),
		Expenses:    make([]decimal.Decimal, len(keys)),
	}
	for i, k := range keys {
		out.Labels[i] = buckets[k].label
		out.Sales[i] = buckets[k].sales
		out.Expenses[i] = buckets[k].expenses
	}
	return out, nil
}

// =============================================================================
// CATEGORY BREAKDOWN
// =============================================================================

// CategoryBreakdown sums expense amounts by category over an
// already-filtered set. Missing categories fall under Uncategorized; a
// missing amount counts as zero but keeps the record in the breakdown.
// The result is unordered; consumers sort as needed.
func CategoryBreakdown(expenses []ledger.Expense) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		cat := e.CategoryOrDefault()
		out[cat] = out[cat].Add(e.Amount)
	}
	return out
}

// =============================================================================
// INVENTORY RANKING
// =============================================================================

// DefaultRankingSize is the repository default for top/bottom N.
const DefaultRankingSize = 10

// RankedItem pairs an inventory record with its computed stock value.
type RankedItem struct {
	Item       ledger.InventoryItem
	StockValue decimal.Decimal
}

// RankInventory computes stock value for every inventory record (inventory
// has no date axis, so no filtering) and returns the top (descending) or
// bottom (ascending) n items. n <= 0 uses DefaultRankingSize.
func RankInventory(items []ledger.InventoryItem, n int, top bool) []RankedItem {
	if n <= 0 {
		n = DefaultRankingSize
	}

	ranked := make([]RankedItem, 0, len(items))
	for _, item := range items {
		ranked = append(ranked, RankedItem{Item: item, StockValue: item.StockValue()})
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if !a.StockValue.Equal(b.StockValue) {
			if top {
				return a.StockValue.GreaterThan(b.StockValue)
			}
			return a.StockValue.LessThan(b.StockValue)
		}
		return a.Item.ItemName < b.Item.ItemName
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
