package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/metrics"
	"github.com/rustyeddy/tradejournal/report"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show performance statistics and the edge score",
	Long: `Aggregate the trades of an account and window into performance
statistics, an edge score and data-quality warnings.

Examples:
  tradejournal stats --window 30d
  tradejournal stats --account ACC-1 --window 90d --org q2.org
  tradejournal stats --json`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

var (
	statsAccount string
	statsWindow  string
	statsOrg     string
	statsJSON    bool
)

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVar(&statsAccount, "account", "", "account ID (default all)")
	statsCmd.Flags().StringVar(&statsWindow, "window", "30d", "7d, 30d, 90d, 365d or all")
	statsCmd.Flags().StringVar(&statsOrg, "org", "", "also write an org-mode report to this path")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print JSON instead of text")
}

func runStats(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	trades, err := selectTrades(cmd, j, statsAccount, statsWindow, "")
	if err != nil {
		return err
	}

	opts := cfg.MetricsOptions()
	if statsAccount != "" && cfg.Metrics.StartingBalance == 0 {
		a, err := j.GetAccount(cmd.Context(), statsAccount)
		switch {
		case err == nil:
			opts = append(opts, metrics.WithStartingBalance(a.StartingBalance))
		case !errors.Is(err, journal.ErrNotFound):
			return fmt.Errorf("get account: %w", err)
		}
	}
	s := metrics.Aggregate(trades, opts...)
	e := metrics.EdgeScore(s, cfg.Metrics.Edge)

	if statsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"summary": s, "edge": e})
	}

	title := fmt.Sprintf("Performance (%s)", statsWindow)
	if statsAccount != "" {
		title = fmt.Sprintf("Performance %s (%s)", statsAccount, statsWindow)
	}
	report.PrintSummary(os.Stdout, title, s, e)

	if statsOrg != "" {
		err := report.WriteSummaryOrg(report.SummaryDoc{
			Title:     title,
			AccountID: statsAccount,
			Window:    statsWindow,
			Created:   time.Now(),
			Summary:   s,
			Edge:      e,
			Days:      metrics.Daily(trades, opts...),
			OrgPath:   statsOrg,
		})
		if err != nil {
			return fmt.Errorf("write org report: %w", err)
		}
		fmt.Printf("Org Report:    %s\n", statsOrg)
	}
	return nil
}
