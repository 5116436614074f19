package etl

import (
	"regexp"
	"strings"

	"github.com/slooze/marketpulse/internal/table"
)

// hygieneColumns are the free-text fields subject to cleaning.
var hygieneColumns = []string{"product_name", "company_name", "location", "category"}

var (
	// disallowedChars matches anything outside letters, digits, whitespace,
	// comma, period, and hyphen.
	disallowedChars = regexp.MustCompile(`[^\p{L}\p{N}\s,.-]`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// CleanText normalizes the free-text columns: disallowed characters are
// stripped, whitespace runs collapse to a single space, and leading/trailing
// whitespace is trimmed. Stripping runs first so removed characters cannot
// leave double spaces behind.
func CleanText(t *table.Table) {
	for _, col := range hygieneColumns {
		if !t.HasColumn(col) {
			continue
		}
		for _, row := range t.Rows {
			s, ok := row[col].Str()
			if !ok {
				continue
			}
			row[col] = table.String(cleanText(s))
		}
	}
}

func cleanText(s string) string {
	s = disallowedChars.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
