package etl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slooze/marketpulse/internal/table"
)

func TestAddDerivedTimestampCoercion(t *testing.T) {
	processedAt := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	tab := table.New("product_name", "timestamp")
	tab.Rows = []table.Row{
		{"product_name": table.String("A"), "timestamp": table.String("2026-08-20 09:00:00")},
		{"product_name": table.String("B"), "timestamp": table.String("2026-08-20T09:00:00Z")},
		{"product_name": table.String("C"), "timestamp": table.String("2026-08-20")},
		// malformed text coerces to null, the row survives
		{"product_name": table.String("D"), "timestamp": table.String("not a date")},
		{"product_name": table.String("E"), "timestamp": table.Null()},
	}

	AddDerived(tab, processedAt)

	require.Equal(t, 5, tab.Len())

	ts, ok := tab.Rows[0]["scraped_date"].Time()
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC), ts)

	_, ok = tab.Rows[1]["scraped_date"].Time()
	assert.True(t, ok)
	_, ok = tab.Rows[2]["scraped_date"].Time()
	assert.True(t, ok)

	assert.True(t, tab.Rows[3]["scraped_date"].IsNull())
	stamp, _ := tab.Rows[3]["timestamp"].Str()
	assert.Equal(t, "not a date", stamp, "the original text is left in place")

	// absent timestamp defaults to the processing time and parses back
	stamp, _ = tab.Rows[4]["timestamp"].Str()
	assert.Equal(t, "2026-08-25 12:00:00", stamp)
	ts, ok = tab.Rows[4]["scraped_date"].Time()
	require.True(t, ok)
	assert.Equal(t, processedAt, ts)
}
