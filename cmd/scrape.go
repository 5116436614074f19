package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/slooze/marketpulse/internal/etl"
	"github.com/slooze/marketpulse/internal/scraper"
)

var (
	scrapeCategories []string
	scrapeOutput     string
	scrapeMaxPages   int
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape product listings from the marketplace",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		categories := scrapeCategories
		if len(categories) == 0 {
			categories = cfg.Scrape.Categories
		}
		output := scrapeOutput
		if output == "" {
			output = cfg.Scrape.Output
		}
		maxPages := scrapeMaxPages
		if maxPages == 0 {
			maxPages = cfg.Scrape.MaxPages
		}

		s, err := newScraper()
		if err != nil {
			return err
		}

		runID, st := startRun(ctx, "scrape")

		set, err := s.ScrapeCategories(ctx, categories, maxPages)
		if err != nil {
			finishRun(ctx, st, runID, false, nil)
			return eris.Wrap(err, "scrape")
		}

		if err := etl.WriteRawFile(set, output); err != nil {
			finishRun(ctx, st, runID, false, nil)
			return err
		}

		total := 0
		for _, c := range set.Categories {
			total += len(c.Records)
		}
		finishRun(ctx, st, runID, true, map[string]int{"products": total})
		zap.L().Info("scrape complete",
			zap.String("output", output),
			zap.Int("categories", len(set.Categories)),
			zap.Int("products", total),
		)
		return nil
	},
}

func newScraper() (*scraper.Scraper, error) {
	return scraper.New(scraper.Options{
		BaseURL:    cfg.Scrape.BaseURL,
		SearchURL:  cfg.Scrape.SearchURL,
		UserAgent:  cfg.Scrape.UserAgent,
		Timeout:    time.Duration(cfg.Scrape.TimeoutSecs) * time.Second,
		MaxRetries: cfg.Scrape.MaxRetries,
		MinDelay:   time.Duration(cfg.Scrape.MinDelaySecs) * time.Second,
		MaxDelay:   time.Duration(cfg.Scrape.MaxDelaySecs) * time.Second,
	})
}

func init() {
	scrapeCmd.Flags().StringSliceVar(&scrapeCategories, "category", nil, "category to scrape (repeatable, default from config)")
	scrapeCmd.Flags().StringVar(&scrapeOutput, "output", "", "raw output path (default from config)")
	scrapeCmd.Flags().IntVar(&scrapeMaxPages, "max-pages", 0, "pages per category (default from config)")
	rootCmd.AddCommand(scrapeCmd)
}
