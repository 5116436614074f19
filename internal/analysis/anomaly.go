package analysis

import (
	"path/filepath"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/slooze/marketpulse/internal/table"
)

// PriceOutliers counts rows outside the 1.5×IQR fences.
type PriceOutliers struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// QualityIssues counts missing values in the fields that matter most for
// downstream use.
type QualityIssues struct {
	MissingPrices    int `json:"missing_prices"`
	MissingLocations int `json:"missing_locations"`
	MissingCompany   int `json:"missing_company"`
}

// Anomalies is the anomaly-detection result written to anomalies.json.
type Anomalies struct {
	PriceOutliers     *PriceOutliers `json:"price_outliers,omitempty"`
	DataQualityIssues QualityIssues  `json:"data_quality_issues"`
}

// DetectAnomalies flags price outliers (IQR method) and field-level
// completeness issues.
func DetectAnomalies(t *table.Table) *Anomalies {
	a := &Anomalies{
		DataQualityIssues: QualityIssues{
			MissingPrices:    nullCount(t, "price"),
			MissingLocations: nullCount(t, "location"),
			MissingCompany:   nullCount(t, "company_name"),
		},
	}

	prices := columnFloats(t, "price")
	if len(prices) == 0 || t.Len() == 0 {
		return a
	}
	sort.Float64s(prices)
	q1 := stat.Quantile(0.25, stat.LinInterp, prices, nil)
	q3 := stat.Quantile(0.75, stat.LinInterp, prices, nil)
	iqr := q3 - q1
	lo, hi := q1-1.5*iqr, q3+1.5*iqr

	count := 0
	for _, p := range prices {
		if p < lo || p > hi {
			count++
		}
	}
	a.PriceOutliers = &PriceOutliers{
		Count:      count,
		Percentage: float64(count) / float64(t.Len()) * 100,
	}
	return a
}

// WriteFile saves the anomalies as anomalies.json in dir.
func (a *Anomalies) WriteFile(dir string) error {
	return writeJSON(filepath.Join(dir, "anomalies.json"), a)
}

func nullCount(t *table.Table, col string) int {
	if !t.HasColumn(col) {
		return 0
	}
	n := 0
	for _, row := range t.Rows {
		if row[col].IsNull() {
			n++
		}
	}
	return n
}
