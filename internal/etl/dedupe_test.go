package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slooze/marketpulse/internal/table"
)

func TestDedupeExactAndNaturalKey(t *testing.T) {
	tab := table.New("product_name", "company_name", "price")
	tab.Rows = []table.Row{
		{"product_name": table.String("Pump"), "company_name": table.String("Acme"), "price": table.Float(100)},
		// exact duplicate
		{"product_name": table.String("Pump"), "company_name": table.String("Acme"), "price": table.Float(100)},
		// same natural key, different price: still a duplicate, first wins
		{"product_name": table.String("Pump"), "company_name": table.String("Acme"), "price": table.Float(200)},
		// same product, different supplier: kept
		{"product_name": table.String("Pump"), "company_name": table.String("Zenith"), "price": table.Float(100)},
	}

	removed := Dedupe(tab)

	assert.Equal(t, 2, removed)
	require.Equal(t, 2, tab.Len())

	f, _ := tab.Rows[0]["price"].Float()
	assert.Equal(t, 100.0, f, "first occurrence survives")
	company, _ := tab.Rows[1]["company_name"].Str()
	assert.Equal(t, "Zenith", company)
}

func TestDedupeNumericNamesStayDistinct(t *testing.T) {
	tab := table.New("product_name", "company_name", "price")
	tab.Rows = []table.Row{
		{"product_name": table.Float(101), "company_name": table.String("Acme"), "price": table.Float(500)},
		{"product_name": table.Float(202), "company_name": table.String("Acme"), "price": table.Float(900)},
		// same numeric name and supplier: a real duplicate
		{"product_name": table.Float(101), "company_name": table.String("Acme"), "price": table.Float(700)},
		// numeric vs string rendering of the same digits: different pairs
		{"product_name": table.String("101"), "company_name": table.String("Acme"), "price": table.Float(500)},
	}

	removed := Dedupe(tab)

	assert.Equal(t, 1, removed)
	require.Equal(t, 3, tab.Len())
	f, _ := tab.Rows[0]["price"].Float()
	assert.Equal(t, 500.0, f)
}

func TestTransformKeepsDistinctNumericProductNames(t *testing.T) {
	set := &RawSet{Categories: []RawCategory{
		{Name: "parts", Records: []map[string]any{
			{"product_name": 101.0, "company_name": "Acme", "price": "500"},
			{"product_name": 202.0, "company_name": "Acme", "price": "900"},
		}},
	}}

	tab := Extract(set)
	stats := Transform(tab)

	assert.Equal(t, 0, stats.DroppedDuplicates)
	assert.Equal(t, 2, tab.Len())
}

func TestDedupeWithoutNaturalKeyColumns(t *testing.T) {
	tab := table.New("product_name", "price")
	tab.Rows = []table.Row{
		{"product_name": table.String("A"), "price": table.Float(1)},
		{"product_name": table.String("A"), "price": table.Float(2)},
	}

	// no company_name column: only exact duplicates are removed
	removed := Dedupe(tab)
	assert.Equal(t, 0, removed)
	assert.Equal(t, 2, tab.Len())
}

func TestValidatePriceBounds(t *testing.T) {
	tab := table.New("product_name", "price")
	for _, p := range []table.Value{
		table.Float(0),          // dropped, exclusive lower bound
		table.Float(0.01),       // kept
		table.Float(9_999_999),  // kept
		table.Float(10_000_000), // dropped, exclusive upper bound
		table.Null(),            // kept, null price is valid
	} {
		tab.Rows = append(tab.Rows, table.Row{"product_name": table.String("X"), "price": p})
	}

	removed := Validate(tab)

	assert.Equal(t, 2, removed)
	require.Equal(t, 3, tab.Len())
	f, _ := tab.Rows[0]["price"].Float()
	assert.Equal(t, 0.01, f)
	assert.True(t, tab.Rows[2]["price"].IsNull())
}

func TestValidateProductURL(t *testing.T) {
	tab := table.New("product_name", "product_url")
	tab.Rows = []table.Row{
		{"product_name": table.String("A"), "product_url": table.String("https://example.com/p/1")},
		{"product_name": table.String("B"), "product_url": table.String("ftp://example.com/p/2")},
		{"product_name": table.String("C"), "product_url": table.Null()},
	}

	removed := Validate(tab)

	assert.Equal(t, 1, removed)
	require.Equal(t, 2, tab.Len())
	name, _ := tab.Rows[1]["product_name"].Str()
	assert.Equal(t, "C", name)
}
