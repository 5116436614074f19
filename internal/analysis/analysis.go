package analysis

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/slooze/marketpulse/internal/table"
)

// Run executes the full analysis stage over a processed dataset: summary
// statistics, anomaly detection, charts, and the insights report, all
// written into dir.
func Run(ctx context.Context, t *table.Table, dir string) (*Insights, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "analysis: create output dir %s", dir)
	}

	log := zap.L().With(zap.String("dir", dir))
	log.Info("analysis: starting", zap.Int("records", t.Len()))

	summary := Summarize(t)
	if err := summary.WriteFile(dir); err != nil {
		return nil, err
	}

	anomalies := DetectAnomalies(t)
	if err := anomalies.WriteFile(dir); err != nil {
		return nil, err
	}

	if err := RenderCharts(ctx, t, dir); err != nil {
		return nil, err
	}

	insights := BuildInsights(t, summary, anomalies, time.Now())
	if err := insights.WriteFile(dir); err != nil {
		return nil, err
	}
	if err := insights.WriteMarkdown(dir); err != nil {
		return nil, err
	}

	log.Info("analysis: complete",
		zap.Int("findings", len(insights.KeyFindings)),
		zap.Int("recommendations", len(insights.Recommendations)),
	)
	return insights, nil
}
