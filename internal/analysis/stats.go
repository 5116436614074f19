// Package analysis computes descriptive statistics and renders charts and
// reports over the processed dataset. It only ever reads the table.
package analysis

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/stat"

	"github.com/slooze/marketpulse/internal/table"
)

// Overview describes the dataset shape.
type Overview struct {
	TotalRecords  int      `json:"total_records"`
	TotalColumns  int      `json:"total_columns"`
	Columns       []string `json:"columns"`
	MemoryUsageMB string   `json:"memory_usage_mb"`
}

// PriceAnalysis summarizes the non-null price distribution.
type PriceAnalysis struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
}

// LocationAnalysis summarizes the geographic spread.
type LocationAnalysis struct {
	UniqueCities int            `json:"unique_cities"`
	TopCities    map[string]int `json:"top_cities"`
}

// DataQuality carries completeness metrics.
type DataQuality struct {
	MissingValues          map[string]int `json:"missing_values"`
	CompletenessPercentage float64        `json:"completeness_percentage"`
}

// Summary is the full statistical overview written to
// summary_statistics.json.
type Summary struct {
	DatasetOverview      Overview          `json:"dataset_overview"`
	CategoryDistribution map[string]int    `json:"category_distribution"`
	PriceAnalysis        *PriceAnalysis    `json:"price_analysis,omitempty"`
	LocationAnalysis     *LocationAnalysis `json:"location_analysis,omitempty"`
	DataQuality          DataQuality       `json:"data_quality"`
}

// Summarize computes the summary statistics for a dataset snapshot.
func Summarize(t *table.Table) *Summary {
	s := &Summary{
		DatasetOverview: Overview{
			TotalRecords:  t.Len(),
			TotalColumns:  len(t.Columns),
			Columns:       append([]string(nil), t.Columns...),
			MemoryUsageMB: memoryEstimate(t),
		},
		CategoryDistribution: valueCounts(t, "category"),
	}

	if prices := columnFloats(t, "price"); len(prices) > 0 {
		sort.Float64s(prices)
		s.PriceAnalysis = &PriceAnalysis{
			Count:  len(prices),
			Mean:   stat.Mean(prices, nil),
			Median: stat.Quantile(0.5, stat.LinInterp, prices, nil),
			Std:    stat.StdDev(prices, nil),
			Min:    prices[0],
			Max:    prices[len(prices)-1],
			Q25:    stat.Quantile(0.25, stat.LinInterp, prices, nil),
			Q75:    stat.Quantile(0.75, stat.LinInterp, prices, nil),
		}
	}

	if t.HasColumn("city") {
		counts := valueCounts(t, "city")
		s.LocationAnalysis = &LocationAnalysis{
			UniqueCities: len(counts),
			TopCities:    topN(counts, 10),
		}
	}

	missing := make(map[string]int, len(t.Columns))
	totalMissing := 0
	for _, col := range t.Columns {
		missing[col] = 0
	}
	for _, row := range t.Rows {
		for _, col := range t.Columns {
			if row[col].IsNull() {
				missing[col]++
				totalMissing++
			}
		}
	}
	completeness := 100.0
	if cells := t.Len() * len(t.Columns); cells > 0 {
		completeness = (1 - float64(totalMissing)/float64(cells)) * 100
	}
	s.DataQuality = DataQuality{
		MissingValues:          missing,
		CompletenessPercentage: completeness,
	}

	return s
}

// WriteFile saves the summary as summary_statistics.json in dir.
func (s *Summary) WriteFile(dir string) error {
	return writeJSON(filepath.Join(dir, "summary_statistics.json"), s)
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "analysis: marshal %s", filepath.Base(path))
	}
	b = append(b, '\n')
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return eris.Wrapf(err, "analysis: write %s", path)
	}
	return nil
}

// valueCounts counts occurrences of each non-null string value in a column.
func valueCounts(t *table.Table, col string) map[string]int {
	counts := make(map[string]int)
	if !t.HasColumn(col) {
		return counts
	}
	for _, row := range t.Rows {
		if s, ok := row[col].Str(); ok {
			counts[s]++
		}
	}
	return counts
}

func columnFloats(t *table.Table, col string) []float64 {
	if !t.HasColumn(col) {
		return nil
	}
	var out []float64
	for _, row := range t.Rows {
		if f, ok := row[col].Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

// topN keeps the n highest counts. Ties break by name so output is stable.
func topN(counts map[string]int, n int) map[string]int {
	type kv struct {
		k string
		v int
	}
	pairs := make([]kv, 0, len(counts))
	for k, v := range counts {
		pairs = append(pairs, kv{k, v})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].v != pairs[j].v {
			return pairs[i].v > pairs[j].v
		}
		return pairs[i].k < pairs[j].k
	})
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	out := make(map[string]int, len(pairs))
	for _, p := range pairs {
		out[p.k] = p.v
	}
	return out
}

// rankedCounts returns (label, count) pairs sorted descending, for charts
// that need a stable bar order.
func rankedCounts(counts map[string]int, n int) ([]string, []float64) {
	type kv struct {
		k string
		v int
	}
	pairs := make([]kv, 0, len(counts))
	for k, v := range counts {
		pairs = append(pairs, kv{k, v})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].v != pairs[j].v {
			return pairs[i].v > pairs[j].v
		}
		return pairs[i].k < pairs[j].k
	})
	if n > 0 && len(pairs) > n {
		pairs = pairs[:n]
	}
	labels := make([]string, len(pairs))
	values := make([]float64, len(pairs))
	for i, p := range pairs {
		labels[i] = p.k
		values[i] = float64(p.v)
	}
	return labels, values
}

func memoryEstimate(t *table.Table) string {
	var bytes int
	for _, row := range t.Rows {
		for _, col := range t.Columns {
			bytes += 16
			if s, ok := row[col].Str(); ok {
				bytes += len(s)
			}
		}
	}
	return fmt.Sprintf("%.2f", float64(bytes)/1024/1024)
}
