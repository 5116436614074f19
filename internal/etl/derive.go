package etl

import (
	"time"
	"unicode/utf8"

	"github.com/slooze/marketpulse/internal/table"
)

// timestampLayouts are tried in order when parsing scraped_date. Anything
// unparseable yields null, never an error.
var timestampLayouts = []string{
	table.TimeLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// AddDerived computes the analytical columns: timestamp (defaulted to
// processedAt when absent), scraped_date (coercive parse of timestamp),
// name_length (character count of product_name), and has_image (presence
// of image_url).
func AddDerived(t *table.Table, processedAt time.Time) {
	t.EnsureColumn("timestamp")
	t.EnsureColumn("scraped_date")
	stamp := table.String(processedAt.Format(table.TimeLayout))

	for _, row := range t.Rows {
		if row["timestamp"].IsNull() {
			row["timestamp"] = stamp
		}
		row["scraped_date"] = parseTimestamp(row["timestamp"])
	}

	if t.HasColumn("product_name") {
		t.EnsureColumn("name_length")
		for _, row := range t.Rows {
			name, ok := row["product_name"].Str()
			if !ok {
				row["name_length"] = table.Null()
				continue
			}
			row["name_length"] = table.Float(float64(utf8.RuneCountInString(name)))
		}
	}

	t.EnsureColumn("has_image")
	for _, row := range t.Rows {
		row["has_image"] = table.Bool(!row["image_url"].IsNull())
	}
}

func parseTimestamp(v table.Value) table.Value {
	if ts, ok := v.Time(); ok {
		return table.Time(ts)
	}
	s, ok := v.Str()
	if !ok {
		return table.Null()
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return table.Time(ts)
		}
	}
	return table.Null()
}
