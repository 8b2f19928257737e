// Package report renders metrics summaries for people.
package report

import (
	"fmt"
	"io"

	"github.com/rustyeddy/tradejournal/metrics"
)

// PrintSummary writes a plain text performance report.
func PrintSummary(w io.Writer, title string, s metrics.Summary, e metrics.Edge) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, " %s\n", title)
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", s.TotalTrades)
	fmt.Fprintf(w, "Wins:          %d\n", s.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", s.Losses)
	fmt.Fprintf(w, "Scratches:     %d\n", s.Scratches)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", s.WinRate)
	fmt.Fprintf(w, "Day Win Rate:  %.2f%% (%d/%d days)\n", s.DayWinRate, s.WinningDays, s.TradingDays)
	fmt.Fprintf(w, "Win Streak:    %d\n", s.LongestWinStreak)
	fmt.Fprintf(w, "Loss Streak:   %d\n", s.LongestLossStreak)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Profit and Loss")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Net P/L:       %.2f\n", s.TotalPnL)
	fmt.Fprintf(w, "Avg Win:       %.2f\n", s.AvgWin)
	fmt.Fprintf(w, "Avg Loss:      %.2f\n", s.AvgLoss)
	fmt.Fprintf(w, "Largest Win:   %.2f\n", s.LargestWin)
	fmt.Fprintf(w, "Largest Loss:  %.2f\n", s.LargestLoss)
	fmt.Fprintf(w, "Expectancy:    %.2f\n", s.Expectancy)
	fmt.Fprintf(w, "Profit Factor: %s\n", ProfitFactor(s))
	if s.AvgRiskReward > 0 {
		fmt.Fprintf(w, "Avg R:R:       %.2f\n", s.AvgRiskReward)
	}
	if s.MaxDrawdownPct > 0 {
		fmt.Fprintf(w, "Max Drawdown:  %.2f%% (%.2f)\n", s.MaxDrawdownPct, s.MaxDrawdownAmount)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Edge Score")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Score:         %.1f / 100\n", e.Score)
	for _, c := range e.Components {
		fmt.Fprintf(w, "  %-16s %6.1f\n", c.Name, c.Score)
	}
	if e.Weakest != "" && s.TotalTrades > 0 {
		fmt.Fprintf(w, "Weakest:       %s\n", e.Weakest)
	}

	if len(s.Warnings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Data Warnings")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, wr := range s.Warnings {
			fmt.Fprintf(w, "- %s: %s\n", wr.TradeID, wr.Message)
		}
	}

	fmt.Fprintln(w)
}

// ProfitFactor formats the profit factor, showing "inf" when there are wins
// and no losses.
func ProfitFactor(s metrics.Summary) string {
	if s.ProfitFactorUnbounded {
		return "inf"
	}
	return fmt.Sprintf("%.2f", s.ProfitFactor)
}
