package etl

import (
	"time"

	"go.uber.org/zap"

	"github.com/slooze/marketpulse/internal/table"
)

// TransformStats counts what each destructive stage removed.
type TransformStats struct {
	Input             int `json:"input_records"`
	DroppedMissing    int `json:"dropped_missing_name"`
	DroppedDuplicates int `json:"dropped_duplicates"`
	DroppedInvalid    int `json:"dropped_invalid"`
	Output            int `json:"output_records"`
}

// Transform runs the cleaning passes in their fixed order: missing-value
// fill, text hygiene, price standardization, location parsing, derived
// fields, deduplication, validation. The order is part of the contract:
// hygiene must see filled values, dedupe must see cleaned text, and
// validation runs last. The table is mutated in place.
func Transform(t *table.Table) TransformStats {
	log := zap.L()
	stats := TransformStats{Input: t.Len()}
	log.Info("etl: starting transformation", zap.Int("rows", stats.Input))

	stats.DroppedMissing = FillMissing(t)
	log.Debug("etl: handled missing values", zap.Int("dropped", stats.DroppedMissing))

	CleanText(t)
	log.Debug("etl: cleaned text fields")

	StandardizePrices(t)
	log.Debug("etl: standardized prices")

	ParseLocations(t)
	log.Debug("etl: parsed locations")

	AddDerived(t, time.Now())
	log.Debug("etl: added derived fields")

	stats.DroppedDuplicates = Dedupe(t)

	stats.DroppedInvalid = Validate(t)
	log.Debug("etl: validated records", zap.Int("dropped", stats.DroppedInvalid))

	stats.Output = t.Len()
	log.Info("etl: transformation complete",
		zap.Int("rows", stats.Output),
		zap.Int("dropped_missing_name", stats.DroppedMissing),
		zap.Int("dropped_duplicates", stats.DroppedDuplicates),
		zap.Int("dropped_invalid", stats.DroppedInvalid),
	)
	return stats
}
