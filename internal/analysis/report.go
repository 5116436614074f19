package analysis

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/slooze/marketpulse/internal/table"
)

// SupplierAnalysis ranks suppliers by listing volume.
type SupplierAnalysis struct {
	UniqueSuppliers int            `json:"unique_suppliers"`
	TopSuppliers    map[string]int `json:"top_suppliers"`
}

// Insights is the full analysis report written to insights_report.json and
// rendered to ANALYSIS_REPORT.md.
type Insights struct {
	GeneratedAt       string            `json:"generated_at"`
	ExecutiveSummary  []string          `json:"executive_summary"`
	KeyFindings       []string          `json:"key_findings"`
	Recommendations   []string          `json:"recommendations"`
	SupplierAnalysis  *SupplierAnalysis `json:"supplier_analysis,omitempty"`
	SummaryStatistics *Summary          `json:"summary_statistics"`
	Anomalies         *Anomalies        `json:"anomalies"`
}

// inr formats rupee amounts with Indian digit grouping.
var inr = message.NewPrinter(language.MustParse("en-IN"))

// BuildInsights derives narrative findings from the computed statistics.
func BuildInsights(t *table.Table, summary *Summary, anomalies *Anomalies, generatedAt time.Time) *Insights {
	ins := &Insights{
		GeneratedAt:       generatedAt.Format(table.TimeLayout),
		SummaryStatistics: summary,
		Anomalies:         anomalies,
	}

	ins.ExecutiveSummary = append(ins.ExecutiveSummary,
		fmt.Sprintf("Analyzed %d product listings across %d categories.",
			summary.DatasetOverview.TotalRecords, len(summary.CategoryDistribution)))
	if pa := summary.PriceAnalysis; pa != nil {
		ins.ExecutiveSummary = append(ins.ExecutiveSummary,
			inr.Sprintf("Prices range from ₹%.0f to ₹%.0f with a median of ₹%.0f.",
				pa.Min, pa.Max, pa.Median))
	}
	ins.ExecutiveSummary = append(ins.ExecutiveSummary,
		fmt.Sprintf("Overall data completeness is %.1f%%.",
			summary.DataQuality.CompletenessPercentage))

	if cat, n := maxCount(summary.CategoryDistribution); cat != "" {
		ins.KeyFindings = append(ins.KeyFindings,
			fmt.Sprintf("%q is the largest category with %d listings.", cat, n))
	}
	if pa := summary.PriceAnalysis; pa != nil {
		if pa.Mean > pa.Median*1.5 {
			ins.KeyFindings = append(ins.KeyFindings,
				"The price distribution is heavily right-skewed; a small number of premium listings pull the mean well above the median.")
		}
		ins.KeyFindings = append(ins.KeyFindings,
			inr.Sprintf("The middle half of listings is priced between ₹%.0f and ₹%.0f.", pa.Q25, pa.Q75))
	}
	if la := summary.LocationAnalysis; la != nil {
		if city, n := maxCount(la.TopCities); city != "" {
			ins.KeyFindings = append(ins.KeyFindings,
				fmt.Sprintf("Listings span %d cities; %s leads with %d.", la.UniqueCities, city, n))
		}
	}
	if po := anomalies.PriceOutliers; po != nil && po.Count > 0 {
		ins.KeyFindings = append(ins.KeyFindings,
			fmt.Sprintf("%d price outliers detected (%.1f%% of listings).", po.Count, po.Percentage))
	}

	if t.HasColumn("company_name") {
		counts := valueCounts(t, "company_name")
		ins.SupplierAnalysis = &SupplierAnalysis{
			UniqueSuppliers: len(counts),
			TopSuppliers:    topN(counts, 10),
		}
		if len(counts) > 0 && t.Len() > 0 {
			avg := float64(t.Len()) / float64(len(counts))
			ins.KeyFindings = append(ins.KeyFindings,
				fmt.Sprintf("%d unique suppliers, averaging %.1f listings each.", len(counts), avg))
		}
	}

	ins.Recommendations = recommendations(summary, anomalies)
	return ins
}

func recommendations(summary *Summary, anomalies *Anomalies) []string {
	var recs []string
	if summary.DataQuality.CompletenessPercentage < 90 {
		recs = append(recs,
			"Improve extraction coverage for the fields with the most missing values before drawing category-level conclusions.")
	}
	q := anomalies.DataQualityIssues
	if q.MissingPrices > 0 {
		recs = append(recs,
			fmt.Sprintf("Follow up on %d listings without a usable price; they are excluded from all price statistics.", q.MissingPrices))
	}
	if po := anomalies.PriceOutliers; po != nil && po.Percentage > 5 {
		recs = append(recs,
			"Review price outliers manually; at this rate they are more likely unit-of-sale mismatches than genuine premium products.")
	}
	if len(recs) == 0 {
		recs = append(recs, "Data quality is sufficient for downstream use; refresh the dataset on a regular cadence to track price movement.")
	}
	return recs
}

func maxCount(counts map[string]int) (string, int) {
	best, bestN := "", -1
	for k, v := range counts {
		if v > bestN || (v == bestN && k < best) {
			best, bestN = k, v
		}
	}
	if bestN < 0 {
		return "", 0
	}
	return best, bestN
}

// WriteFile saves the insights as insights_report.json in dir.
func (ins *Insights) WriteFile(dir string) error {
	return writeJSON(filepath.Join(dir, "insights_report.json"), ins)
}

// WriteMarkdown renders the human-readable report as ANALYSIS_REPORT.md.
func (ins *Insights) WriteMarkdown(dir string) error {
	var b strings.Builder

	b.WriteString("# Marketplace Analysis Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", ins.GeneratedAt)

	b.WriteString("## Executive Summary\n\n")
	for _, line := range ins.ExecutiveSummary {
		fmt.Fprintf(&b, "- %s\n", line)
	}
	b.WriteString("\n## Key Findings\n\n")
	for _, line := range ins.KeyFindings {
		fmt.Fprintf(&b, "- %s\n", line)
	}

	if s := ins.SummaryStatistics; s != nil {
		b.WriteString("\n## Dataset Overview\n\n")
		fmt.Fprintf(&b, "| Metric | Value |\n|---|---|\n")
		fmt.Fprintf(&b, "| Records | %d |\n", s.DatasetOverview.TotalRecords)
		fmt.Fprintf(&b, "| Columns | %d |\n", s.DatasetOverview.TotalColumns)
		fmt.Fprintf(&b, "| Memory (MB) | %s |\n", s.DatasetOverview.MemoryUsageMB)
		fmt.Fprintf(&b, "| Completeness | %.1f%% |\n", s.DataQuality.CompletenessPercentage)

		if len(s.CategoryDistribution) > 0 {
			b.WriteString("\n## Category Distribution\n\n")
			b.WriteString("| Category | Listings |\n|---|---|\n")
			labels, values := rankedCounts(s.CategoryDistribution, 0)
			for i, label := range labels {
				fmt.Fprintf(&b, "| %s | %d |\n", label, int(values[i]))
			}
		}

		if pa := s.PriceAnalysis; pa != nil {
			b.WriteString("\n## Price Analysis\n\n")
			b.WriteString("| Statistic | Value |\n|---|---|\n")
			fmt.Fprintf(&b, "| Count | %d |\n", pa.Count)
			inr.Fprintf(&b, "| Mean | ₹%.2f |\n", pa.Mean)
			inr.Fprintf(&b, "| Median | ₹%.2f |\n", pa.Median)
			inr.Fprintf(&b, "| Std Dev | ₹%.2f |\n", pa.Std)
			inr.Fprintf(&b, "| Min | ₹%.2f |\n", pa.Min)
			inr.Fprintf(&b, "| Max | ₹%.2f |\n", pa.Max)
			inr.Fprintf(&b, "| Q25 | ₹%.2f |\n", pa.Q25)
			inr.Fprintf(&b, "| Q75 | ₹%.2f |\n", pa.Q75)
		}
	}

	if sa := ins.SupplierAnalysis; sa != nil && len(sa.TopSuppliers) > 0 {
		b.WriteString("\n## Top Suppliers\n\n")
		b.WriteString("| Supplier | Listings |\n|---|---|\n")
		labels, values := rankedCounts(sa.TopSuppliers, 0)
		for i, label := range labels {
			fmt.Fprintf(&b, "| %s | %d |\n", label, int(values[i]))
		}
	}

	b.WriteString("\n## Recommendations\n\n")
	for i, rec := range ins.Recommendations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
	}

	path := filepath.Join(dir, "ANALYSIS_REPORT.md")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return eris.Wrapf(err, "analysis: write %s", path)
	}
	return nil
}
