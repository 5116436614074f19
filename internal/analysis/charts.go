package analysis

import (
	"context"
	"math"
	"path/filepath"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/slooze/marketpulse/internal/table"
)

const (
	chartWidth  = 12 * vg.Inch
	chartHeight = 6 * vg.Inch
)

// RenderCharts renders every PNG chart into dir. Charts are independent of
// one another, so rendering fans out; the ETL core stays synchronous, this
// runs after it.
func RenderCharts(ctx context.Context, t *table.Table, dir string) error {
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error { return categoryChart(t, filepath.Join(dir, "category_distribution.png")) })
	g.Go(func() error { return priceHistogram(t, filepath.Join(dir, "price_distribution.png"), false) })
	g.Go(func() error { return priceHistogram(t, filepath.Join(dir, "price_distribution_log.png"), true) })
	g.Go(func() error { return priceCategoryChart(t, filepath.Join(dir, "price_categories.png")) })
	g.Go(func() error { return topCitiesChart(t, filepath.Join(dir, "top_cities.png")) })
	g.Go(func() error { return topSuppliersChart(t, filepath.Join(dir, "top_suppliers.png")) })
	g.Go(func() error { return majorCityChart(t, filepath.Join(dir, "major_cities_distribution.png")) })

	return g.Wait()
}

func categoryChart(t *table.Table, path string) error {
	labels, values := rankedCounts(valueCounts(t, "category"), 0)
	if len(labels) == 0 {
		return nil
	}
	return barChart("Product Distribution by Category", "Number of Products", labels, values, false, path)
}

func priceCategoryChart(t *table.Table, path string) error {
	labels, values := rankedCounts(valueCounts(t, "price_category"), 0)
	if len(labels) == 0 {
		return nil
	}
	return barChart("Products by Price Category", "Number of Products", labels, values, false, path)
}

func topCitiesChart(t *table.Table, path string) error {
	labels, values := rankedCounts(valueCounts(t, "city"), 15)
	if len(labels) == 0 {
		return nil
	}
	return barChart("Top 15 Cities by Product Listings", "Number of Products", labels, values, true, path)
}

func topSuppliersChart(t *table.Table, path string) error {
	labels, values := rankedCounts(valueCounts(t, "company_name"), 15)
	if len(labels) == 0 {
		return nil
	}
	return barChart("Top 15 Suppliers by Product Count", "Number of Products", labels, values, true, path)
}

func majorCityChart(t *table.Table, path string) error {
	if !t.HasColumn("is_major_city") || t.Len() == 0 {
		return nil
	}
	major, other := 0, 0
	for _, row := range t.Rows {
		if b, ok := row["is_major_city"].Bool(); ok && b {
			major++
		} else {
			other++
		}
	}
	return barChart("Major Cities vs Others", "Number of Products",
		[]string{"Major Cities", "Other Cities"},
		[]float64{float64(major), float64(other)}, false, path)
}

func barChart(title, valueLabel string, labels []string, values []float64, horizontal bool, path string) error {
	p := plot.New()
	p.Title.Text = title

	bars, err := plotter.NewBarChart(plotter.Values(values), vg.Points(20))
	if err != nil {
		return eris.Wrapf(err, "analysis: bar chart %s", title)
	}
	bars.Horizontal = horizontal
	p.Add(bars)

	if horizontal {
		p.NominalY(labels...)
		p.X.Label.Text = valueLabel
	} else {
		p.NominalX(labels...)
		p.Y.Label.Text = valueLabel
	}

	if err := p.Save(chartWidth, chartHeight, path); err != nil {
		return eris.Wrapf(err, "analysis: save %s", path)
	}
	return nil
}

// priceHistogram renders the price distribution. The log variant bins
// log10(price) so heavy right tails stay readable.
func priceHistogram(t *table.Table, path string, logScale bool) error {
	prices := columnFloats(t, "price")
	if len(prices) == 0 {
		return nil
	}

	xLabel := "Price (₹)"
	if logScale {
		logged := make([]float64, 0, len(prices))
		for _, v := range prices {
			if v > 0 {
				logged = append(logged, math.Log10(v))
			}
		}
		if len(logged) == 0 {
			return nil
		}
		prices = logged
		xLabel = "log10(Price)"
	}

	p := plot.New()
	p.Title.Text = "Price Distribution"
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "Frequency"

	hist, err := plotter.NewHist(plotter.Values(prices), 50)
	if err != nil {
		return eris.Wrap(err, "analysis: price histogram")
	}
	p.Add(hist)

	if err := p.Save(chartWidth, chartHeight, path); err != nil {
		return eris.Wrapf(err, "analysis: save %s", path)
	}
	return nil
}
