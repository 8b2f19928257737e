// Package metrics computes trading performance statistics over journal trades.
// Everything here is pure: no I/O, no shared state, safe for concurrent use.
package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradejournal/journal"
)

// Options tune Aggregate and Daily.
type Options struct {
	// Epsilon is the scratch threshold passed to Classify.
	Epsilon float64
	// StartingBalance seeds the equity curve used for drawdown.
	StartingBalance float64
	// Location decides which calendar day a trade belongs to.
	Location *time.Location
}

// Option sets one field of Options.
type Option func(*Options)

// WithEpsilon sets the scratch threshold. The sign is dropped; NaN and
// infinities are ignored.
func WithEpsilon(eps float64) Option {
	return func(o *Options) {
		if eps = math.Abs(eps); finite(eps) == eps {
			o.Epsilon = eps
		}
	}
}

func WithStartingBalance(balance float64) Option {
	return func(o *Options) { o.StartingBalance = finite(balance) }
}

func WithLocation(loc *time.Location) Option {
	return func(o *Options) {
		if loc != nil {
			o.Location = loc
		}
	}
}

func newOptions(opts []Option) Options {
	o := Options{Epsilon: DefaultScratchEpsilon, Location: time.UTC}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Summary is the full aggregate over one trade list. Rates are percentages.
// AvgLoss and GrossLoss are positive magnitudes; LargestLoss is negative.
type Summary struct {
	TotalTrades int `json:"totalTrades"`
	Wins        int `json:"wins"`
	Losses      int `json:"losses"`
	Scratches   int `json:"scratches"`

	WinRate     float64 `json:"winRate"`
	TradingDays int     `json:"tradingDays"`
	WinningDays int     `json:"winningDays"`
	LosingDays  int     `json:"losingDays"`
	DayWinRate  float64 `json:"dayWinRate"`

	TotalPnL    float64 `json:"totalPnl"`
	GrossProfit float64 `json:"grossProfit"`
	GrossLoss   float64 `json:"grossLoss"`
	AvgWin      float64 `json:"avgWin"`
	AvgLoss     float64 `json:"avgLoss"`
	LargestWin  float64 `json:"largestWin"`
	LargestLoss float64 `json:"largestLoss"`
	Expectancy  float64 `json:"expectancy"`

	// ProfitFactor is 0 when there are no losses. ProfitFactorUnbounded
	// marks the case where that 0 hides winners with no losers.
	ProfitFactor          float64 `json:"profitFactor"`
	ProfitFactorUnbounded bool    `json:"profitFactorUnbounded"`
	AvgRiskReward         float64 `json:"avgRiskReward"`

	MaxDrawdownPct    float64 `json:"maxDrawdownPct"`
	MaxDrawdownAmount float64 `json:"maxDrawdownAmount"`

	LongestWinStreak  int `json:"longestWinStreak"`
	LongestLossStreak int `json:"longestLossStreak"`

	Warnings []Warning `json:"warnings,omitempty"`
}

// Aggregate computes the Summary for trades. Missing P/L counts as zero and
// non-finite R:R values are left out of the average. Order-dependent metrics
// (drawdown, streaks) walk trades by EntryTime, ties kept in input order.
func Aggregate(trades []journal.Trade, opts ...Option) Summary {
	o := newOptions(opts)

	var (
		s        Summary
		total    = decimal.Zero
		profit   = decimal.Zero
		loss     = decimal.Zero
		rrSum    float64
		rrCount  int
		outcomes = make([]Outcome, 0, len(trades))
		pnls     = make([]float64, 0, len(trades))
	)

	ordered := chronological(trades)
	for _, t := range ordered {
		pnl := finite(t.PnLValue())
		d := decimal.NewFromFloat(pnl)
		total = total.Add(d)

		out := Classify(pnl, o.Epsilon)
		switch out {
		case Win:
			s.Wins++
			profit = profit.Add(d)
			if pnl > s.LargestWin {
				s.LargestWin = pnl
			}
		case Loss:
			s.Losses++
			loss = loss.Add(d.Abs())
			if pnl < s.LargestLoss {
				s.LargestLoss = pnl
			}
		default:
			s.Scratches++
		}
		outcomes = append(outcomes, out)
		pnls = append(pnls, pnl)

		if t.RiskRewardRatio != nil {
			if rr := *t.RiskRewardRatio; !math.IsNaN(rr) && !math.IsInf(rr, 0) {
				rrSum += rr
				rrCount++
			}
		}

		if w, ok := Check(t, o.Epsilon); ok {
			s.Warnings = append(s.Warnings, w)
		}
	}

	s.TotalTrades = len(trades)
	s.TotalPnL = total.InexactFloat64()
	s.GrossProfit = profit.InexactFloat64()
	s.GrossLoss = loss.InexactFloat64()

	if decided := s.Wins + s.Losses; decided > 0 {
		s.WinRate = float64(s.Wins) / float64(decided) * 100
	}
	if s.Wins > 0 {
		s.AvgWin = profit.Div(decimal.NewFromInt(int64(s.Wins))).InexactFloat64()
	}
	if s.Losses > 0 {
		s.AvgLoss = loss.Div(decimal.NewFromInt(int64(s.Losses))).InexactFloat64()
		s.ProfitFactor = profit.Div(loss).InexactFloat64()
	} else if s.Wins > 0 {
		s.ProfitFactorUnbounded = true
	}
	if rrCount > 0 {
		s.AvgRiskReward = rrSum / float64(rrCount)
	}

	s.Expectancy = Expectancy(s.WinRate, s.AvgWin, s.AvgLoss)
	s.MaxDrawdownPct, s.MaxDrawdownAmount = Drawdown(pnls, o.StartingBalance)
	s.LongestWinStreak, s.LongestLossStreak = Streaks(outcomes)

	days := Daily(ordered, opts...)
	s.TradingDays = len(days)
	for _, d := range days {
		switch d.Outcome {
		case Win:
			s.WinningDays++
		case Loss:
			s.LosingDays++
		}
	}
	if decided := s.WinningDays + s.LosingDays; decided > 0 {
		s.DayWinRate = float64(s.WinningDays) / float64(decided) * 100
	}

	return s
}

// Expectancy is the probability-weighted outcome per trade. winRate is a
// percentage that excludes scratches; avgLoss is a positive magnitude.
func Expectancy(winRate, avgWin, avgLoss float64) float64 {
	p := clamp(winRate, 0, 100) / 100
	return finite(p*avgWin - (1-p)*math.Abs(avgLoss))
}

// Drawdown walks P/L values in order from a starting balance and returns the
// largest peak-to-trough decline as a percentage of the peak (clamped to
// [0, 100]) and as an amount. Steps where the peak is not positive add nothing.
func Drawdown(pnls []float64, start float64) (pct, amount float64) {
	equity := decimal.NewFromFloat(finite(start))
	peak := equity

	for _, p := range pnls {
		equity = equity.Add(decimal.NewFromFloat(finite(p)))
		if equity.GreaterThan(peak) {
			peak = equity
		}
		if !peak.IsPositive() {
			continue
		}

		drop := peak.Sub(equity)
		if a := drop.InexactFloat64(); a > amount {
			amount = a
		}
		if dd := drop.Div(peak).InexactFloat64() * 100; dd > pct {
			pct = dd
		}
	}
	return clamp(pct, 0, 100), amount
}

// Streaks returns the longest runs of consecutive wins and losses. A win
// resets the loss run and vice versa; scratches leave both runs untouched.
func Streaks(outcomes []Outcome) (longestWin, longestLoss int) {
	var win, loss int
	for _, o := range outcomes {
		switch o {
		case Win:
			win++
			loss = 0
			if win > longestWin {
				longestWin = win
			}
		case Loss:
			loss++
			win = 0
			if loss > longestLoss {
				longestLoss = loss
			}
		}
	}
	return longestWin, longestLoss
}

func chronological(trades []journal.Trade) []journal.Trade {
	out := make([]journal.Trade, len(trades))
	copy(out, trades)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EntryTime.Before(out[j].EntryTime)
	})
	return out
}
