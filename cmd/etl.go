package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/slooze/marketpulse/internal/etl"
)

var (
	etlInput  string
	etlOutput string
	etlFormat string
)

var etlCmd = &cobra.Command{
	Use:   "etl",
	Short: "Normalize raw scraped data into the processed dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		input := etlInput
		if input == "" {
			input = cfg.ETL.Input
		}
		output := etlOutput
		if output == "" {
			output = cfg.ETL.Output
		}
		format := etlFormat
		if format == "" {
			format = cfg.ETL.Format
		}

		runID, st := startRun(ctx, "etl")

		t, err := etl.ExtractFile(input)
		if err != nil {
			finishRun(ctx, st, runID, false, nil)
			return err
		}

		stats := etl.Transform(t)

		if err := etl.Load(t, output, etl.Format(format)); err != nil {
			finishRun(ctx, st, runID, false, stats)
			return err
		}

		if st != nil {
			if n, err := st.InsertProducts(ctx, runID, t); err != nil {
				zap.L().Warn("run ledger product snapshot failed", zap.Error(err))
			} else {
				zap.L().Debug("run ledger snapshot", zap.Int("products", n))
			}
		}
		finishRun(ctx, st, runID, true, stats)

		zap.L().Info("etl complete",
			zap.String("output", output),
			zap.Int("input_records", stats.Input),
			zap.Int("output_records", stats.Output),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(stats), "encode stats")
	},
}

func init() {
	etlCmd.Flags().StringVar(&etlInput, "input", "", "raw input path (default from config)")
	etlCmd.Flags().StringVar(&etlOutput, "output", "", "processed output path (default from config)")
	etlCmd.Flags().StringVar(&etlFormat, "format", "", "output format: csv, json, or parquet (default from config)")
	rootCmd.AddCommand(etlCmd)
}
