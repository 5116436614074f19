package etl

import (
	"strings"

	"github.com/slooze/marketpulse/internal/table"
)

// Price sanity bounds, both exclusive. A listing at exactly zero or at or
// above one crore is treated as a data error.
const (
	minValidPrice = 0
	maxValidPrice = 10_000_000
)

// Validate drops rows with out-of-range prices and rows whose product_url
// lacks a scheme marker. A null price or an absent product_url is valid by
// default; only present, malformed values disqualify a row. Runs last so
// the duplicate and missing-value passes see the fullest data. Returns the
// number of rows removed.
func Validate(t *table.Table) int {
	removed := 0

	if t.HasColumn("price") {
		removed += t.Filter(func(r table.Row) bool {
			f, ok := r["price"].Float()
			if !ok {
				return true
			}
			return f > minValidPrice && f < maxValidPrice
		})
	}

	if t.HasColumn("product_url") {
		removed += t.Filter(func(r table.Row) bool {
			u, ok := r["product_url"].Str()
			if !ok {
				return true
			}
			return strings.Contains(u, "http")
		})
	}

	return removed
}
