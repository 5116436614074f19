package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/slooze/marketpulse/internal/analysis"
	"github.com/slooze/marketpulse/internal/etl"
)

var (
	analyzeInput string
	analyzeDir   string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute statistics, charts, and the insights report",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		input := analyzeInput
		if input == "" {
			input = cfg.Analysis.Input
		}
		dir := analyzeDir
		if dir == "" {
			dir = cfg.Analysis.OutputDir
		}

		runID, st := startRun(ctx, "analyze")

		t, err := etl.ReadCSVFile(input)
		if err != nil {
			finishRun(ctx, st, runID, false, nil)
			return err
		}

		insights, err := analysis.Run(ctx, t, dir)
		if err != nil {
			finishRun(ctx, st, runID, false, nil)
			return err
		}

		finishRun(ctx, st, runID, true, map[string]int{
			"records":  t.Len(),
			"findings": len(insights.KeyFindings),
		})
		zap.L().Info("analysis complete", zap.String("dir", dir))
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeInput, "input", "", "processed dataset path, CSV (default from config)")
	analyzeCmd.Flags().StringVar(&analyzeDir, "output-dir", "", "analysis output directory (default from config)")
	rootCmd.AddCommand(analyzeCmd)
}
