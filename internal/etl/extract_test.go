package etl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRawSetPreservesCategoryOrder(t *testing.T) {
	// zebra before alpha: document order, not lexical order, must survive
	input := `{
		"zebra supplies": [{"product_name": "Z1"}],
		"alpha tools": [{"product_name": "A1"}, {"product_name": "A2"}]
	}`

	set, err := decodeRawSet(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, set.Categories, 2)
	assert.Equal(t, "zebra supplies", set.Categories[0].Name)
	assert.Equal(t, "alpha tools", set.Categories[1].Name)
	assert.Len(t, set.Categories[1].Records, 2)
}

func TestDecodeRawSetRejectsBadShapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"top-level array", `[{"product_name": "X"}]`},
		{"category not a list", `{"pumps": {"product_name": "X"}}`},
		{"list of non-objects", `{"pumps": [1, 2, 3]}`},
		{"not json", `not json at all`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeRawSet(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrInputFormat))
		})
	}
}

func TestExtractStampsCategoryAndOrder(t *testing.T) {
	set := &RawSet{Categories: []RawCategory{
		{Name: "pumps", Records: []map[string]any{
			{"product_name": "Pump A", "price": 500.0},
			{"product_name": "Pump B"},
		}},
		{Name: "valves", Records: []map[string]any{
			{"product_name": "Valve C", "location": "Pune, Maharashtra"},
		}},
	}}

	tab := Extract(set)
	require.Equal(t, 3, tab.Len())

	cat, _ := tab.Rows[0]["category"].Str()
	assert.Equal(t, "pumps", cat)
	cat, _ = tab.Rows[2]["category"].Str()
	assert.Equal(t, "valves", cat)

	// canonical columns come first, in canonical order
	assert.Equal(t, "product_name", tab.Columns[0])
	assert.True(t, tab.HasColumn("category"))
	assert.True(t, tab.HasColumn("location"))
}

func TestExtractUnknownColumnsSortedAfterCanonical(t *testing.T) {
	set := &RawSet{Categories: []RawCategory{
		{Name: "misc", Records: []map[string]any{
			{"product_name": "X", "zz_extra": "v", "aa_extra": "w"},
		}},
	}}

	tab := Extract(set)
	n := len(tab.Columns)
	require.GreaterOrEqual(t, n, 2)
	assert.Equal(t, "aa_extra", tab.Columns[n-2])
	assert.Equal(t, "zz_extra", tab.Columns[n-1])
}

func TestExtractFileMissing(t *testing.T) {
	_, err := ExtractFile(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestWriteThenReadRawFileRoundTrip(t *testing.T) {
	set := &RawSet{Categories: []RawCategory{
		{Name: "second first", Records: []map[string]any{{"product_name": "P"}}},
		{Name: "first second", Records: nil},
	}}

	path := filepath.Join(t.TempDir(), "nested", "raw.json")
	require.NoError(t, WriteRawFile(set, path))

	got, err := ReadRawFile(path)
	require.NoError(t, err)
	require.Len(t, got.Categories, 2)
	assert.Equal(t, "second first", got.Categories[0].Name)
	assert.Equal(t, "first second", got.Categories[1].Name)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(b), "\n"))
}

func TestExtractMapSortsCategories(t *testing.T) {
	tab := ExtractMap(map[string][]map[string]any{
		"valves": {{"product_name": "V"}},
		"pumps":  {{"product_name": "P"}},
	})
	require.Equal(t, 2, tab.Len())
	cat, _ := tab.Rows[0]["category"].Str()
	assert.Equal(t, "pumps", cat)
}
