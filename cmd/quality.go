package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/slooze/marketpulse/internal/etl"
	"github.com/slooze/marketpulse/internal/table"
)

var qualityRaw bool

var qualityCmd = &cobra.Command{
	Use:   "quality [path]",
	Short: "Print a data quality report for a dataset",
	Long:  "Reports record counts, missing values, duplicates, and price statistics for a raw JSON file or a processed CSV dataset.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.ETL.Output
		if len(args) == 1 {
			path = args[0]
		}

		var t *table.Table
		var err error
		if qualityRaw || strings.HasSuffix(path, ".json") {
			t, err = etl.ExtractFile(path)
		} else {
			t, err = etl.ReadCSVFile(path)
		}
		if err != nil {
			return err
		}

		report := etl.Quality(t)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(report), "encode quality report")
	},
}

func init() {
	qualityCmd.Flags().BoolVar(&qualityRaw, "raw", false, "treat the input as raw scraped JSON")
	rootCmd.AddCommand(qualityCmd)
}
