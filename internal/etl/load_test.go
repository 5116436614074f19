package etl

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slooze/marketpulse/internal/table"
)

func sampleTable() *table.Table {
	t := table.New("product_name", "price", "price_category", "is_major_city", "scraped_date", "name_length")
	t.Rows = []table.Row{
		{
			"product_name":   table.String("Pump"),
			"price":          table.Float(1500),
			"price_category": table.String(PriceMidRange),
			"is_major_city":  table.Bool(true),
			"scraped_date":   table.Time(time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)),
			"name_length":    table.Float(4),
		},
		{
			"product_name":   table.String("Valve"),
			"price":          table.Null(),
			"price_category": table.Null(),
			"is_major_city":  table.Bool(false),
			"scraped_date":   table.Null(),
			"name_length":    table.Float(5),
		},
	}
	return t
}

func TestLoadUnknownFormatTouchesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "out.xlsx")

	err := Load(sampleTable(), path, Format("xlsx"))

	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnsupportedFormat))
	_, statErr := os.Stat(filepath.Join(dir, "sub"))
	assert.True(t, os.IsNotExist(statErr), "directory must not be created for a bad format")
}

func TestLoadCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "out.csv")
	require.NoError(t, Load(sampleTable(), path, FormatCSV))

	got, err := ReadCSVFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, []string{"product_name", "price", "price_category", "is_major_city", "scraped_date", "name_length"}, got.Columns)

	f, ok := got.Rows[0]["price"].Float()
	require.True(t, ok)
	assert.Equal(t, 1500.0, f)

	b, ok := got.Rows[0]["is_major_city"].Bool()
	require.True(t, ok)
	assert.True(t, b)

	ts, ok := got.Rows[0]["scraped_date"].Time()
	require.True(t, ok)
	assert.Equal(t, 2026, ts.Year())

	// null cells render empty and come back null
	assert.True(t, got.Rows[1]["price"].IsNull())
	assert.True(t, got.Rows[1]["price_category"].IsNull())
	assert.True(t, got.Rows[1]["scraped_date"].IsNull())
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, Load(sampleTable(), path, FormatJSON))

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal(b, &records))
	require.Len(t, records, 2)
	assert.Equal(t, "Pump", records[0]["product_name"])
	assert.Equal(t, 1500.0, records[0]["price"])
	assert.Nil(t, records[1]["price"], "null price must serialize as JSON null")
}

func TestLoadParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.parquet")
	require.NoError(t, Load(sampleTable(), path, FormatParquet))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestReadCSVFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	got, err := ReadCSVFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}
