/*
Package reports derives date-filtered views, time-bucketed series, category
breakdowns, inventory rankings, and KPI figures from the mirrored
collections.

PURPOSE:
  Everything here is a pure function of record slices plus a date range; no
  package state, no store access. Consumers (dashboard, tables, export)
  recompute these views whenever the mirror changes.

PARSE-ERROR POLICY:
  A record whose date is missing or unparsable is excluded from
  date-filtered and bucketed views with a log warning - never a failure.
  Missing numeric fields are treated as zero everywhere.

SEE ALSO:
  - series.go: Granularity selection and aligned bucketing
  - kpi.go: Summary financial figures
*/
package reports

import (
	"log"

	"github.com/warp/ledger-engine/ledger"
)

// Dated is any record carrying a parseable calendar date.
type Dated interface {
	Day() (ledger.Date, error)
}

// FilterByDate keeps records whose date parses and falls within the
// inclusive range, compared at calendar-day granularity.
func FilterByDate[T Dated](records []T, rng ledger.DateRange) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		day, err := r.Day()
		if err != nil {
			log.Printf("reports: excluding record from filtered view: %v", err)
			continue
		}
		if rng.Contains(day) {
			out = append(out, r)
		}
	}
	return out
}
