package analysis

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slooze/marketpulse/internal/table"
)

func analysisFixture() *table.Table {
	t := table.New("product_name", "price", "price_category", "company_name", "category", "city", "is_major_city", "location")
	add := func(name string, price float64, priceCat, company, category, city string, major bool) {
		t.Rows = append(t.Rows, table.Row{
			"product_name":   table.String(name),
			"price":          table.Float(price),
			"price_category": table.String(priceCat),
			"company_name":   table.String(company),
			"category":       table.String(category),
			"city":           table.String(city),
			"is_major_city":  table.Bool(major),
			"location":       table.String(city),
		})
	}
	add("Pump A", 100, "Budget", "Acme", "pumps", "Mumbai", true)
	add("Pump B", 200, "Budget", "Acme", "pumps", "Mumbai", true)
	add("Pump C", 300, "Budget", "Beta", "pumps", "Indore", false)
	add("Valve A", 400, "Budget", "Beta", "valves", "Indore", false)
	// outlier relative to the rest
	add("Valve B", 90_000, "Premium", "Gamma", "valves", "Surat", true)
	return t
}

func TestSummarize(t *testing.T) {
	tab := analysisFixture()
	s := Summarize(tab)

	assert.Equal(t, 5, s.DatasetOverview.TotalRecords)
	assert.Equal(t, len(tab.Columns), s.DatasetOverview.TotalColumns)
	assert.Equal(t, map[string]int{"pumps": 3, "valves": 2}, s.CategoryDistribution)

	require.NotNil(t, s.PriceAnalysis)
	assert.Equal(t, 5, s.PriceAnalysis.Count)
	assert.Equal(t, 100.0, s.PriceAnalysis.Min)
	assert.Equal(t, 90_000.0, s.PriceAnalysis.Max)
	assert.Equal(t, 300.0, s.PriceAnalysis.Median)

	require.NotNil(t, s.LocationAnalysis)
	assert.Equal(t, 3, s.LocationAnalysis.UniqueCities)
	assert.Equal(t, 2, s.LocationAnalysis.TopCities["Mumbai"])

	assert.Equal(t, 100.0, s.DataQuality.CompletenessPercentage)
}

func TestSummarizeMissingValues(t *testing.T) {
	tab := table.New("product_name", "price")
	tab.Rows = []table.Row{
		{"product_name": table.String("A"), "price": table.Float(1)},
		{"product_name": table.String("B"), "price": table.Null()},
	}

	s := Summarize(tab)

	assert.Equal(t, 1, s.DataQuality.MissingValues["price"])
	assert.Equal(t, 75.0, s.DataQuality.CompletenessPercentage)
}

func TestDetectAnomalies(t *testing.T) {
	tab := analysisFixture()
	a := DetectAnomalies(tab)

	require.NotNil(t, a.PriceOutliers)
	assert.Equal(t, 1, a.PriceOutliers.Count)
	assert.Equal(t, 20.0, a.PriceOutliers.Percentage)
	assert.Equal(t, 0, a.DataQualityIssues.MissingPrices)
}

func TestDetectAnomaliesEmptyPrices(t *testing.T) {
	tab := table.New("product_name", "price")
	tab.Rows = []table.Row{{"product_name": table.String("A"), "price": table.Null()}}

	a := DetectAnomalies(tab)

	assert.Nil(t, a.PriceOutliers)
	assert.Equal(t, 1, a.DataQualityIssues.MissingPrices)
}

func TestBuildInsights(t *testing.T) {
	tab := analysisFixture()
	summary := Summarize(tab)
	anomalies := DetectAnomalies(tab)

	ins := BuildInsights(tab, summary, anomalies, time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC))

	assert.Equal(t, "2026-08-25 12:00:00", ins.GeneratedAt)
	assert.NotEmpty(t, ins.ExecutiveSummary)
	assert.NotEmpty(t, ins.KeyFindings)
	assert.NotEmpty(t, ins.Recommendations)
	require.NotNil(t, ins.SupplierAnalysis)
	assert.Equal(t, 3, ins.SupplierAnalysis.UniqueSuppliers)
	assert.Equal(t, 2, ins.SupplierAnalysis.TopSuppliers["Acme"])
}

func TestRunWritesAllArtifacts(t *testing.T) {
	tab := analysisFixture()
	dir := filepath.Join(t.TempDir(), "results")

	ins, err := Run(t.Context(), tab, dir)
	require.NoError(t, err)
	require.NotNil(t, ins)

	for _, name := range []string{
		"summary_statistics.json",
		"anomalies.json",
		"insights_report.json",
		"ANALYSIS_REPORT.md",
		"category_distribution.png",
		"price_distribution.png",
		"price_distribution_log.png",
		"price_categories.png",
		"top_cities.png",
		"top_suppliers.png",
		"major_cities_distribution.png",
	} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, "missing artifact %s", name)
		assert.Greater(t, info.Size(), int64(0), "%s is empty", name)
	}

	b, err := os.ReadFile(filepath.Join(dir, "insights_report.json"))
	require.NoError(t, err)
	var decoded Insights
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, ins.GeneratedAt, decoded.GeneratedAt)

	md, err := os.ReadFile(filepath.Join(dir, "ANALYSIS_REPORT.md"))
	require.NoError(t, err)
	for _, heading := range []string{
		"# Marketplace Analysis Report",
		"## Executive Summary",
		"## Key Findings",
		"## Recommendations",
	} {
		assert.Contains(t, string(md), heading)
	}
}

func TestRunDoesNotMutateTable(t *testing.T) {
	tab := analysisFixture()
	before := tab.Clone()

	_, err := Run(t.Context(), tab, t.TempDir())
	require.NoError(t, err)

	require.Equal(t, before.Len(), tab.Len())
	for i := range tab.Rows {
		for _, col := range tab.Columns {
			assert.True(t, before.Rows[i][col].Equal(tab.Rows[i][col]))
		}
	}
}
