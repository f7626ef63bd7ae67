package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PAYLOAD PATCH HELPERS - Shared by Store implementations
// =============================================================================

// MergePayload overlays the fields of patch onto base, returning the merged
// document payload. Top-level fields only; patch values win.
func MergePayload(base, patch json.RawMessage) (json.RawMessage, error) {
	merged := map[string]json.RawMessage{}
	if len(base) > 0 {
		if err := json.Unmarshal(base, &merged); err != nil {
			return nil, fmt.Errorf("merge base: %w", err)
		}
	}
	overlay := map[string]json.RawMessage{}
	if len(patch) > 0 {
		if err := json.Unmarshal(patch, &overlay); err != nil {
			return nil, fmt.Errorf("merge patch: %w", err)
		}
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// IncrementField applies a signed delta to a numeric field of the payload.
// A missing or null field counts as zero, so the first increment against a
// fresh counter behaves like a set.
func IncrementField(data json.RawMessage, field string, delta decimal.Decimal) (json.RawMessage, error) {
	doc := map[string]json.RawMessage{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("increment %s: %w", field, err)
		}
	}

	current := decimal.Zero
	if raw, ok := doc[field]; ok && string(raw) != "null" {
		var err error
		current, err = decimal.NewFromString(trimQuotes(string(raw)))
		if err != nil {
			return nil, fmt.Errorf("increment %s: field is not numeric: %w", field, err)
		}
	}

	next, err := json.Marshal(current.Add(delta))
	if err != nil {
		return nil, err
	}
	doc[field] = next
	return json.Marshal(doc)
}

// decimal marshals as a bare number, but tolerate string-encoded numbers in
// stored documents.
func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
