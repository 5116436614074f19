package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/slooze/marketpulse/internal/analysis"
	"github.com/slooze/marketpulse/internal/etl"
)

var runSkipScrape bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: scrape, etl, analyze",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		runID, st := startRun(ctx, "run")
		fail := func(err error) error {
			finishRun(ctx, st, runID, false, nil)
			return err
		}

		if !runSkipScrape {
			s, err := newScraper()
			if err != nil {
				return fail(err)
			}
			set, err := s.ScrapeCategories(ctx, cfg.Scrape.Categories, cfg.Scrape.MaxPages)
			if err != nil {
				return fail(eris.Wrap(err, "scrape stage"))
			}
			if err := etl.WriteRawFile(set, cfg.Scrape.Output); err != nil {
				return fail(err)
			}
		}

		t, err := etl.ExtractFile(cfg.ETL.Input)
		if err != nil {
			return fail(err)
		}
		stats := etl.Transform(t)
		if err := etl.Load(t, cfg.ETL.Output, etl.Format(cfg.ETL.Format)); err != nil {
			return fail(err)
		}

		if st != nil {
			if _, err := st.InsertProducts(ctx, runID, t); err != nil {
				zap.L().Warn("run ledger product snapshot failed", zap.Error(err))
			}
		}

		if _, err := analysis.Run(ctx, t, cfg.Analysis.OutputDir); err != nil {
			return fail(eris.Wrap(err, "analysis stage"))
		}

		finishRun(ctx, st, runID, true, stats)
		zap.L().Info("pipeline complete",
			zap.Int("records", t.Len()),
			zap.String("dataset", cfg.ETL.Output),
			zap.String("analysis_dir", cfg.Analysis.OutputDir),
		)
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runSkipScrape, "skip-scrape", false, "reuse existing raw data instead of scraping")
	rootCmd.AddCommand(runCmd)
}
