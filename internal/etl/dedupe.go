package etl

import (
	"go.uber.org/zap"

	"github.com/slooze/marketpulse/internal/table"
)

// Dedupe removes duplicate listings in two phases: rows identical across
// every column, then rows sharing the (product_name, company_name) natural
// key. The first occurrence in table order survives. Paginated search
// results re-render the same listing, and a supplier rarely lists the
// identical product name twice, so name+company is a sufficient key.
// Returns the total number of rows removed.
func Dedupe(t *table.Table) int {
	initial := t.Len()

	seen := make(map[string]struct{}, initial)
	t.Filter(func(r table.Row) bool {
		key := t.RowKey(r)
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		return true
	})

	if t.HasColumn("product_name") && t.HasColumn("company_name") {
		seenNK := make(map[string]struct{}, t.Len())
		t.Filter(func(r table.Row) bool {
			key := table.KeyOver(r, "product_name", "company_name")
			if _, dup := seenNK[key]; dup {
				return false
			}
			seenNK[key] = struct{}{}
			return true
		})
	}

	removed := initial - t.Len()
	if removed > 0 {
		zap.L().Info("etl: removed duplicate records", zap.Int("removed", removed))
	}
	return removed
}
