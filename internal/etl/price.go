package etl

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/slooze/marketpulse/internal/table"
)

// Price category labels, in ascending bin order.
const (
	PriceBudget     = "Budget"
	PriceMidRange   = "Mid-Range"
	PricePremium    = "Premium"
	PriceEnterprise = "Enterprise"
)

// priceToken matches the first numeric run in free-form price text,
// tolerating thousands separators ("₹1,234.00" → "1,234.00").
var priceToken = regexp.MustCompile(`[\d,]+\.?\d*`)

// CoercePrice parses free-form price text into a number. Failure yields
// false, never an error; the noisy-input policy is null-propagation.
func CoercePrice(s string) (float64, bool) {
	m := priceToken.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// StandardizePrices coerces the price column to numeric and derives
// price_category from right-open bins [0,1000) Budget, [1000,10000)
// Mid-Range, [10000,100000) Premium, [100000,∞) Enterprise. Rows whose
// price cannot be parsed get a null price and a null category. When the
// scraper did not record price_raw, the original text is preserved there
// before coercion.
func StandardizePrices(t *table.Table) {
	if !t.HasColumn("price") {
		return
	}
	t.EnsureColumn("price_raw")
	t.EnsureColumn("price_category")

	for _, row := range t.Rows {
		orig := row["price"]
		if row["price_raw"].IsNull() {
			if s, ok := orig.Str(); ok {
				row["price_raw"] = table.String(s)
			}
		}
		row["price"] = coerceValue(orig)
		row["price_category"] = priceCategory(row["price"])
	}
}

func coerceValue(v table.Value) table.Value {
	switch v.Kind() {
	case table.KindFloat:
		return v
	case table.KindString:
		s, _ := v.Str()
		if f, ok := CoercePrice(s); ok {
			return table.Float(f)
		}
		return table.Null()
	default:
		return table.Null()
	}
}

func priceCategory(v table.Value) table.Value {
	f, ok := v.Float()
	if !ok || f < 0 {
		return table.Null()
	}
	switch {
	case f < 1_000:
		return table.String(PriceBudget)
	case f < 10_000:
		return table.String(PriceMidRange)
	case f < 100_000:
		return table.String(PricePremium)
	default:
		return table.String(PriceEnterprise)
	}
}
