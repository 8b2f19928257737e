package metrics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradejournal/journal"
)

// Day is the net result of one calendar day.
type Day struct {
	Date    string  `json:"date"`
	PnL     float64 `json:"pnl"`
	Trades  int     `json:"trades"`
	Outcome Outcome `json:"outcome"`
}

// Daily groups trades by the calendar day of their EntryTime and returns the
// days in ascending order. A day's Outcome classifies its net P/L with the
// same epsilon as single trades.
func Daily(trades []journal.Trade, opts ...Option) []Day {
	o := newOptions(opts)

	sums := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	for _, t := range trades {
		key := t.EntryTime.In(o.Location).Format(journal.DayLayout)
		sum, ok := sums[key]
		if !ok {
			sum = decimal.Zero
		}
		sums[key] = sum.Add(decimal.NewFromFloat(finite(t.PnLValue())))
		counts[key]++
	}

	days := make([]Day, 0, len(sums))
	for key, sum := range sums {
		pnl := sum.InexactFloat64()
		days = append(days, Day{
			Date:    key,
			PnL:     pnl,
			Trades:  counts[key],
			Outcome: Classify(pnl, o.Epsilon),
		})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}
