package etl

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/slooze/marketpulse/internal/table"
)

// PriceStats summarizes the non-null values of the price column.
type PriceStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// QualityReport is a completeness/duplication snapshot of a table at any
// pipeline stage.
type QualityReport struct {
	TotalRecords   int            `json:"total_records"`
	Columns        []string       `json:"columns"`
	MissingValues  map[string]int `json:"missing_values"`
	DuplicateCount int            `json:"duplicate_count"`
	MemoryUsage    string         `json:"memory_usage"`
	PriceStats     *PriceStats    `json:"price_stats,omitempty"`
}

// Quality computes a report over the table without mutating it. Usable
// mid-pipeline or standalone. DuplicateCount counts rows that exactly
// duplicate an earlier row.
func Quality(t *table.Table) *QualityReport {
	report := &QualityReport{
		TotalRecords:  t.Len(),
		Columns:       append([]string(nil), t.Columns...),
		MissingValues: make(map[string]int, len(t.Columns)),
	}

	for _, col := range t.Columns {
		report.MissingValues[col] = 0
	}
	var bytes int
	for _, row := range t.Rows {
		for _, col := range t.Columns {
			v := row[col]
			if v.IsNull() {
				report.MissingValues[col]++
			}
			bytes += cellFootprint(v)
		}
	}
	report.MemoryUsage = fmt.Sprintf("%.2f MB", float64(bytes)/1024/1024)

	seen := make(map[string]struct{}, t.Len())
	for _, row := range t.Rows {
		key := t.RowKey(row)
		if _, dup := seen[key]; dup {
			report.DuplicateCount++
			continue
		}
		seen[key] = struct{}{}
	}

	if t.HasColumn("price") {
		report.PriceStats = priceStats(t)
	}
	return report
}

func priceStats(t *table.Table) *PriceStats {
	var prices []float64
	for _, row := range t.Rows {
		if f, ok := row["price"].Float(); ok {
			prices = append(prices, f)
		}
	}
	if len(prices) == 0 {
		return &PriceStats{}
	}
	sort.Float64s(prices)
	return &PriceStats{
		Count:  len(prices),
		Mean:   stat.Mean(prices, nil),
		Median: stat.Quantile(0.5, stat.LinInterp, prices, nil),
		Min:    prices[0],
		Max:    prices[len(prices)-1],
	}
}

// cellFootprint approximates the in-memory size of a cell. The report key
// is contractual, the number is an estimate.
func cellFootprint(v table.Value) int {
	const header = 16
	if s, ok := v.Str(); ok {
		return header + len(s)
	}
	return header
}
