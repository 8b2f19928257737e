package metrics

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradejournal/journal"
)

var base = time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)

// tradesOf builds one trade per pnl, an hour apart.
func tradesOf(pnls ...float64) []journal.Trade {
	out := make([]journal.Trade, 0, len(pnls))
	for i, p := range pnls {
		out = append(out, journal.Trade{
			ID:        fmt.Sprintf("T%d", i+1),
			AccountID: "ACC-1",
			Symbol:    "EUR_USD",
			EntryTime: base.Add(time.Duration(i) * time.Hour),
			PnL:       journal.Float(p),
		})
	}
	return out
}

func assertNoNaN(t *testing.T, s Summary) {
	t.Helper()
	for name, v := range map[string]float64{
		"WinRate":           s.WinRate,
		"DayWinRate":        s.DayWinRate,
		"TotalPnL":          s.TotalPnL,
		"AvgWin":            s.AvgWin,
		"AvgLoss":           s.AvgLoss,
		"Expectancy":        s.Expectancy,
		"ProfitFactor":      s.ProfitFactor,
		"AvgRiskReward":     s.AvgRiskReward,
		"MaxDrawdownPct":    s.MaxDrawdownPct,
		"MaxDrawdownAmount": s.MaxDrawdownAmount,
	} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "%s is %v", name, v)
	}
}

func TestAggregateEmpty(t *testing.T) {
	t.Parallel()

	s := Aggregate(nil)
	assert.Equal(t, Summary{}, s)
	assertNoNaN(t, s)

	s = Aggregate([]journal.Trade{})
	assert.Equal(t, Summary{}, s)
}

func TestAggregateBreakevenFiltering(t *testing.T) {
	t.Parallel()

	s := Aggregate(tradesOf(100, -50, 0.001))

	assert.Equal(t, 3, s.TotalTrades)
	assert.Equal(t, 1, s.Wins)
	assert.Equal(t, 1, s.Losses)
	assert.Equal(t, 1, s.Scratches)
	assert.InDelta(t, 50.0, s.WinRate, 1e-9)

	assert.InDelta(t, 50.001, s.TotalPnL, 1e-9)
	assert.InDelta(t, 100.0, s.GrossProfit, 1e-9)
	assert.InDelta(t, 50.0, s.GrossLoss, 1e-9)
	assert.InDelta(t, 100.0, s.AvgWin, 1e-9)
	assert.InDelta(t, 50.0, s.AvgLoss, 1e-9)
	assert.InDelta(t, 100.0, s.LargestWin, 1e-9)
	assert.InDelta(t, -50.0, s.LargestLoss, 1e-9)
	assert.InDelta(t, 2.0, s.ProfitFactor, 1e-9)
	assert.False(t, s.ProfitFactorUnbounded)
	// 0.5*100 - 0.5*50
	assert.InDelta(t, 25.0, s.Expectancy, 1e-9)
	assertNoNaN(t, s)
}

func TestWinRateIgnoresScratches(t *testing.T) {
	t.Parallel()

	core := tradesOf(100, -50, 30)
	before := Aggregate(core)
	require.InDelta(t, 200.0/3, before.WinRate, 1e-9)

	for _, n := range []int{1, 5, 20} {
		withScratches := append([]journal.Trade{}, core...)
		for i := 0; i < n; i++ {
			withScratches = append(withScratches, tradesOf(0, 0.004, -0.009)...)
		}
		after := Aggregate(withScratches)
		assert.InDelta(t, before.WinRate, after.WinRate, 1e-9, "n=%d", n)
		assert.Equal(t, before.Wins, after.Wins)
		assert.Equal(t, before.Losses, after.Losses)
		assert.Equal(t, 3*n, after.Scratches)
	}
}

func TestProfitFactorMonotonic(t *testing.T) {
	t.Parallel()

	prev := -1.0
	for _, win := range []float64{0.5, 10, 75, 100, 150, 1000} {
		s := Aggregate(tradesOf(win, -50, -25))
		assert.GreaterOrEqual(t, s.ProfitFactor, prev, "win=%v", win)
		prev = s.ProfitFactor
	}
	assert.InDelta(t, 1000.0/75, prev, 1e-9)
}

func TestProfitFactorNoLosses(t *testing.T) {
	t.Parallel()

	s := Aggregate(tradesOf(100, 50))
	assert.Equal(t, 0.0, s.ProfitFactor)
	assert.True(t, s.ProfitFactorUnbounded)
	assert.Equal(t, 0.0, s.AvgLoss)
	assert.InDelta(t, 75.0, s.Expectancy, 1e-9)

	s = Aggregate(tradesOf(0, 0))
	assert.Equal(t, 0.0, s.ProfitFactor)
	assert.False(t, s.ProfitFactorUnbounded)
}

func TestAggregateMissingAndNonFinite(t *testing.T) {
	t.Parallel()

	trades := tradesOf(100, -40)
	trades[0].RiskRewardRatio = journal.Float(2)
	trades[1].RiskRewardRatio = journal.Float(math.Inf(1))
	trades = append(trades,
		journal.Trade{ID: "nil-pnl", EntryTime: base.Add(5 * time.Hour), RiskRewardRatio: journal.Float(math.NaN())},
		journal.Trade{ID: "inf-pnl", EntryTime: base.Add(6 * time.Hour), PnL: journal.Float(math.Inf(-1)), RiskRewardRatio: journal.Float(3)},
	)

	s := Aggregate(trades)
	assert.Equal(t, 4, s.TotalTrades)
	assert.Equal(t, 1, s.Wins)
	assert.Equal(t, 1, s.Losses)
	assert.Equal(t, 2, s.Scratches)
	assert.InDelta(t, 60.0, s.TotalPnL, 1e-9)
	assert.InDelta(t, 2.5, s.AvgRiskReward, 1e-9)
	assertNoNaN(t, s)
}

func TestStreaks(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		pnls     []float64
		win, los int
	}{
		{"example", []float64{-10, -10, 10, 10, 10, -10}, 3, 2},
		{"scratch does not break", []float64{10, 0, 10, 0.001, 10}, 3, 0},
		{"scratch does not extend", []float64{-10, 0, 0, -10, 10}, 1, 2},
		{"all scratches", []float64{0, 0}, 0, 0},
		{"single", []float64{-5}, 0, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s := Aggregate(tradesOf(tc.pnls...))
			assert.Equal(t, tc.win, s.LongestWinStreak)
			assert.Equal(t, tc.los, s.LongestLossStreak)
		})
	}
}

func TestStreaksUseEntryTimeOrder(t *testing.T) {
	t.Parallel()

	trades := tradesOf(-10, -10, 10, 10, 10, -10)
	// Reverse the slice; the walk must still follow entry time.
	for i, j := 0, len(trades)-1; i < j; i, j = i+1, j-1 {
		trades[i], trades[j] = trades[j], trades[i]
	}

	s := Aggregate(trades)
	assert.Equal(t, 3, s.LongestWinStreak)
	assert.Equal(t, 2, s.LongestLossStreak)
}

func TestStreaksTiesKeepInputOrder(t *testing.T) {
	t.Parallel()

	trades := tradesOf(10, -10, 10)
	for i := range trades {
		trades[i].EntryTime = base
	}

	s := Aggregate(trades)
	assert.Equal(t, 1, s.LongestWinStreak)
	assert.Equal(t, 1, s.LongestLossStreak)
}

func TestDrawdown(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		pnls   []float64
		start  float64
		pct    float64
		amount float64
	}{
		{"empty", nil, 0, 0, 0},
		{"half back", []float64{100, -50}, 0, 50, 50},
		{"never positive", []float64{-100, -20}, 0, 0, 0},
		{"below zero clamps", []float64{100, -300}, 0, 100, 300},
		{"with balance", []float64{50, -20, 60, -40}, 1000, 40.0 / 1090 * 100, 40},
		{"monotonic up", []float64{10, 20, 30}, 0, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			pct, amount := Drawdown(tc.pnls, tc.start)
			assert.InDelta(t, tc.pct, pct, 1e-9)
			assert.InDelta(t, tc.amount, amount, 1e-9)
		})
	}
}

func TestDrawdownBounds(t *testing.T) {
	t.Parallel()

	seqs := [][]float64{
		{1e9, -1e12},
		{-5, 5, -5, 5},
		{math.NaN(), 10, math.Inf(-1), -3},
		{0.01, -0.02, 0.03},
	}
	for _, seq := range seqs {
		for _, start := range []float64{0, -100, 100, math.Inf(1)} {
			pct, amount := Drawdown(seq, start)
			assert.GreaterOrEqual(t, pct, 0.0)
			assert.LessOrEqual(t, pct, 100.0)
			assert.GreaterOrEqual(t, amount, 0.0)
		}
	}
}

func TestAggregateDrawdownUsesStartingBalance(t *testing.T) {
	t.Parallel()

	s := Aggregate(tradesOf(100, -50), WithStartingBalance(900))
	assert.InDelta(t, 5.0, s.MaxDrawdownPct, 1e-9)
	assert.InDelta(t, 50.0, s.MaxDrawdownAmount, 1e-9)
}

func TestWithEpsilon(t *testing.T) {
	t.Parallel()

	trades := tradesOf(0.5, -0.5, 5)
	s := Aggregate(trades)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 1, s.Losses)

	s = Aggregate(trades, WithEpsilon(1))
	assert.Equal(t, 1, s.Wins)
	assert.Equal(t, 0, s.Losses)
	assert.Equal(t, 2, s.Scratches)

	for _, bad := range []float64{math.NaN(), math.Inf(1)} {
		s = Aggregate(trades, WithEpsilon(bad))
		assert.Equal(t, 2, s.Wins, "epsilon %v", bad)
		assert.Equal(t, 1, s.Losses, "epsilon %v", bad)
	}
}

func TestDayWinRate(t *testing.T) {
	t.Parallel()

	day := 24 * time.Hour
	trades := tradesOf(100, -30, -90, 20, 5, -5)
	trades[0].EntryTime = base
	trades[1].EntryTime = base.Add(time.Hour)
	trades[2].EntryTime = base.Add(day)
	trades[3].EntryTime = base.Add(day + time.Hour)
	trades[4].EntryTime = base.Add(2 * day)
	trades[5].EntryTime = base.Add(2*day + time.Hour)

	s := Aggregate(trades)
	assert.Equal(t, 3, s.TradingDays)
	assert.Equal(t, 1, s.WinningDays)
	assert.Equal(t, 1, s.LosingDays)
	assert.InDelta(t, 50.0, s.DayWinRate, 1e-9)
}

func TestDailyLocation(t *testing.T) {
	t.Parallel()

	trades := tradesOf(10, 20)
	trades[0].EntryTime = time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	trades[1].EntryTime = time.Date(2024, 3, 2, 3, 0, 0, 0, time.UTC)

	utc := Daily(trades)
	require.Len(t, utc, 2)
	assert.Equal(t, "2024-03-01", utc[0].Date)
	assert.Equal(t, "2024-03-02", utc[1].Date)

	est := Daily(trades, WithLocation(time.FixedZone("EST", -5*3600)))
	require.Len(t, est, 1)
	assert.Equal(t, "2024-03-01", est[0].Date)
	assert.Equal(t, 2, est[0].Trades)
	assert.InDelta(t, 30.0, est[0].PnL, 1e-9)
	assert.Equal(t, Win, est[0].Outcome)
}

func TestDailyOutcomeJSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(Day{Date: "2024-03-01", PnL: -4, Trades: 1, Outcome: Loss})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-03-01","pnl":-4,"trades":1,"outcome":"loss"}`, string(b))
}

func TestExpectancy(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 25.0, Expectancy(50, 100, 50), 1e-9)
	assert.InDelta(t, -50.0, Expectancy(0, 100, 50), 1e-9)
	assert.InDelta(t, 100.0, Expectancy(100, 100, 50), 1e-9)
	assert.InDelta(t, 25.0, Expectancy(50, 100, -50), 1e-9)
	assert.InDelta(t, -50.0, Expectancy(math.NaN(), 100, 50), 1e-9)
}
