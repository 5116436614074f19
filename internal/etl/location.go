package etl

import (
	"strings"

	"github.com/slooze/marketpulse/internal/table"
)

// majorCities is the fixed reference set used for geographic segmentation.
// Membership is an exact, case-sensitive match: a city differing only in
// case or trailing punctuation is classified as not major. That precision
// gap is accepted behavior, kept for compatibility with historical data.
var majorCities = map[string]bool{
	"Mumbai":    true,
	"Delhi":     true,
	"Bangalore": true,
	"Chennai":   true,
	"Kolkata":   true,
	"Hyderabad": true,
	"Pune":      true,
	"Ahmedabad": true,
	"Surat":     true,
	"Jaipur":    true,
}

// IsMajorCity reports exact-string membership in the major-city set.
func IsMajorCity(city string) bool { return majorCities[city] }

// ParseLocations splits location on commas into city (first segment) and
// state (last segment), both trimmed. A single segment means city == state.
func ParseLocations(t *table.Table) {
	if !t.HasColumn("location") {
		return
	}
	t.EnsureColumn("city")
	t.EnsureColumn("state")
	t.EnsureColumn("is_major_city")

	for _, row := range t.Rows {
		loc, ok := row["location"].Str()
		if !ok {
			row["city"] = table.Null()
			row["state"] = table.Null()
			row["is_major_city"] = table.Bool(false)
			continue
		}
		parts := strings.Split(loc, ",")
		city := strings.TrimSpace(parts[0])
		state := strings.TrimSpace(parts[len(parts)-1])

		row["city"] = table.String(city)
		row["state"] = table.String(state)
		row["is_major_city"] = table.Bool(IsMajorCity(city))
	}
}
