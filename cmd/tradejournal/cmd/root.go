package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradejournal/config"
	"github.com/rustyeddy/tradejournal/internal/logger"
	"github.com/rustyeddy/tradejournal/journal"
)

var rootCmd = &cobra.Command{
	Use:   "tradejournal",
	Short: "A trading journal with performance analytics",
	Long: `Tradejournal records trades, daily reflections and notes, and turns them
into performance statistics.

It provides tools for:
  - Logging, importing and exporting trades
  - Win rate, profit factor, drawdown, streaks and an edge score
  - Daily reflections with insight blocks and notes
  - Publishing a read-only snapshot of a trading day
  - Serving the journal over an HTTP API`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Shutdown(ctx)
	},
}

var (
	cfgFile string
	dbPath  string
	envFile string

	cfg *config.Config
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "path to SQLite journal DB (overrides config)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file to load")
}

func setup() error {
	if err := config.LoadEnv(envFile); err != nil {
		return err
	}

	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if dbPath != "" {
		c.Journal.DBPath = dbPath
	}
	cfg = c

	return logger.Init(cfg.LoggerConfig())
}

func openJournal() (*journal.SQLite, error) {
	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func location() *time.Location {
	loc, err := cfg.Location()
	if err != nil {
		return time.UTC
	}
	return loc
}

// dayOrToday returns day, or today's date in the configured location.
func dayOrToday(day string) string {
	if day != "" {
		return day
	}
	return time.Now().In(location()).Format(journal.DayLayout)
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation(journal.DayLayout, day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start, end, nil
}
