package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradejournal/internal/logger"
	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/window"
)

var tradeCmd = &cobra.Command{
	Use:   "trade",
	Short: "Record and query trades",
	Long: `Record, query and move trades in and out of the journal.

Examples:
  tradejournal trade add --symbol ES --direction long --entry "2024-05-14 09:31" --pnl 250
  tradejournal trade list --account ACC-1 --window 30d
  tradejournal trade get <trade-id>
  tradejournal trade day 2024-05-14
  tradejournal trade import trades.csv`,
}

var tradeAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a trade",
	Args:  cobra.NoArgs,
	RunE:  runTradeAdd,
}

var tradeGetCmd = &cobra.Command{
	Use:   "get <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runTradeGet,
}

var tradeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trades in a window",
	Args:  cobra.NoArgs,
	RunE:  runTradeList,
}

var tradeDayCmd = &cobra.Command{
	Use:   "day [YYYY-MM-DD]",
	Short: "List trades closed on a day (default today)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTradeDay,
}

var tradeDeleteCmd = &cobra.Command{
	Use:   "delete <trade-id>",
	Short: "Delete a trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runTradeDelete,
}

var tradeImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import trades from CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runTradeImport,
}

var tradeExportCmd = &cobra.Command{
	Use:   "export <file.csv>",
	Short: "Export trades to CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runTradeExport,
}

type tradeFlags struct {
	account, symbol, direction string
	entry, exit                string
	pnl, rr                    string
	result                     string
	risk, qty                  float64
	entryPrice, exitPrice      float64
	stop, target               float64
	tags                       []string
	notes, mood                string
}

var (
	tradeAdd tradeFlags

	tradeAccount string
	tradeWindow  string
	tradeSymbol  string
	tradeOrg     bool
)

func init() {
	rootCmd.AddCommand(tradeCmd)
	tradeCmd.AddCommand(tradeAddCmd, tradeGetCmd, tradeListCmd, tradeDayCmd, tradeDeleteCmd, tradeImportCmd, tradeExportCmd)

	f := tradeAddCmd.Flags()
	f.StringVar(&tradeAdd.account, "account", "", "account ID")
	f.StringVar(&tradeAdd.symbol, "symbol", "", "instrument symbol (required)")
	f.StringVar(&tradeAdd.direction, "direction", "long", "long or short")
	f.StringVar(&tradeAdd.entry, "entry", "", "entry time, RFC3339 or YYYY-MM-DD HH:MM (required)")
	f.StringVar(&tradeAdd.exit, "exit", "", "exit time")
	f.StringVar(&tradeAdd.pnl, "pnl", "", "realized P/L")
	f.StringVar(&tradeAdd.result, "result", "", "win, loss or breakeven")
	f.StringVar(&tradeAdd.rr, "rr", "", "planned risk:reward")
	f.Float64Var(&tradeAdd.risk, "risk", 0, "amount at risk")
	f.Float64Var(&tradeAdd.qty, "qty", 0, "quantity")
	f.Float64Var(&tradeAdd.entryPrice, "entry-price", 0, "entry price")
	f.Float64Var(&tradeAdd.exitPrice, "exit-price", 0, "exit price")
	f.Float64Var(&tradeAdd.stop, "stop", 0, "stop price")
	f.Float64Var(&tradeAdd.target, "target", 0, "target price")
	f.StringSliceVar(&tradeAdd.tags, "tag", nil, "tag (repeatable)")
	f.StringVar(&tradeAdd.notes, "notes", "", "free-form notes")
	f.StringVar(&tradeAdd.mood, "mood", "", "mood during the trade")
	tradeAddCmd.MarkFlagRequired("symbol")
	tradeAddCmd.MarkFlagRequired("entry")

	for _, c := range []*cobra.Command{tradeListCmd, tradeExportCmd} {
		c.Flags().StringVar(&tradeAccount, "account", "", "account ID (default all)")
		c.Flags().StringVar(&tradeWindow, "window", "all", "7d, 30d, 90d, 365d or all")
	}
	tradeListCmd.Flags().StringVar(&tradeSymbol, "symbol", "", "only this symbol")
	tradeListCmd.Flags().BoolVar(&tradeOrg, "org", false, "print org-mode entries")
}

func (f tradeFlags) trade(loc *time.Location) (journal.Trade, error) {
	t := journal.Trade{
		AccountID:   f.account,
		Symbol:      strings.ToUpper(f.symbol),
		Direction:   journal.Direction(strings.ToLower(f.direction)),
		Result:      journal.Result(strings.ToLower(f.result)),
		RiskAmount:  f.risk,
		Quantity:    f.qty,
		EntryPrice:  f.entryPrice,
		ExitPrice:   f.exitPrice,
		StopPrice:   f.stop,
		TargetPrice: f.target,
		Tags:        f.tags,
		Notes:       f.notes,
		Mood:        f.mood,
	}
	switch t.Direction {
	case journal.Long, journal.Short:
	default:
		return t, fmt.Errorf("direction must be long or short, got %q", f.direction)
	}

	var err error
	if t.EntryTime, err = parseTime(f.entry, loc); err != nil {
		return t, fmt.Errorf("entry: %w", err)
	}
	if f.exit != "" {
		if t.ExitTime, err = parseTime(f.exit, loc); err != nil {
			return t, fmt.Errorf("exit: %w", err)
		}
	}
	if t.PnL, err = optionalFloat(f.pnl); err != nil {
		return t, fmt.Errorf("pnl: %w", err)
	}
	if t.RiskRewardRatio, err = optionalFloat(f.rr); err != nil {
		return t, fmt.Errorf("rr: %w", err)
	}
	return t, nil
}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04", journal.DayLayout} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

func optionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func runTradeAdd(cmd *cobra.Command, args []string) error {
	t, err := tradeAdd.trade(location())
	if err != nil {
		return err
	}

	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	saved, err := j.RecordTrade(cmd.Context(), t)
	if err != nil {
		return fmt.Errorf("record trade: %w", err)
	}
	fmt.Printf("✓ Recorded trade %s\n", saved.ID)
	return nil
}

func runTradeGet(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	rec, err := j.GetTrade(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	fmt.Println(journal.FormatTradeOrg(rec))
	return nil
}

// selectTrades loads the trades of account within the named window.
func selectTrades(cmd *cobra.Command, j journal.Store, account, win, symbol string) ([]journal.Trade, error) {
	w, err := window.Parse(win)
	if err != nil {
		return nil, err
	}
	trades, err := j.ListTrades(cmd.Context(), journal.Query{AccountID: account, Symbol: symbol})
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	return window.Filter(trades, time.Now(), w, account), nil
}

func runTradeList(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	trades, err := selectTrades(cmd, j, tradeAccount, tradeWindow, strings.ToUpper(tradeSymbol))
	if err != nil {
		return err
	}

	if tradeOrg {
		fmt.Println(journal.FormatTradesOrg(trades))
		return nil
	}
	return journal.WriteCSV(os.Stdout, trades)
}

func runTradeDay(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	day := ""
	if len(args) == 1 {
		day = args[0]
	}
	start, end, err := dayBounds(location(), dayOrToday(day))
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	recs, err := j.ListTradesClosedBetween(cmd.Context(), start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	fmt.Println(journal.FormatTradesOrg(recs))
	return nil
}

func runTradeDelete(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	if err := j.DeleteTrade(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("delete trade: %w", err)
	}
	fmt.Printf("✓ Deleted trade %s\n", args[0])
	return nil
}

func runTradeImport(cmd *cobra.Command, args []string) (err error) {
	done := logger.Timed(cmd.Context(), "trade.import", "file", args[0])
	defer func() { done(err) }()

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	trades, err := journal.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	for _, t := range trades {
		if _, err := j.RecordTrade(cmd.Context(), t); err != nil {
			return fmt.Errorf("record trade: %w", err)
		}
	}
	fmt.Printf("✓ Imported %d trades from %s\n", len(trades), args[0])
	return nil
}

func runTradeExport(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	trades, err := selectTrades(cmd, j, tradeAccount, tradeWindow, "")
	if err != nil {
		return err
	}

	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	if err := journal.WriteCSV(f, trades); err != nil {
		return fmt.Errorf("write %s: %w", args[0], err)
	}
	fmt.Printf("✓ Exported %d trades to %s\n", len(trades), args[0])
	return nil
}
