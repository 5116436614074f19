package etl

import (
	"github.com/slooze/marketpulse/internal/table"
)

// Unknown is the fill value for missing text fields.
const Unknown = "Unknown"

// textColumns are the fields that receive the Unknown fill.
var textColumns = []string{"product_name", "company_name", "location"}

// FillMissing replaces absent or null text fields with "Unknown", then drops
// rows whose product_name is "Unknown": a product with no name carries no
// signal and cannot be deduplicated or displayed. Returns the number of rows
// dropped. This is the only pass that deletes rows for missing data.
func FillMissing(t *table.Table) int {
	for _, col := range textColumns {
		if !t.HasColumn(col) {
			continue
		}
		for _, row := range t.Rows {
			if row[col].IsNull() {
				row[col] = table.String(Unknown)
			}
		}
	}

	if !t.HasColumn("product_name") {
		return 0
	}
	return t.Filter(func(r table.Row) bool {
		name, _ := r["product_name"].Str()
		return name != Unknown
	})
}
