package metrics

import (
	"fmt"
	"math"

	"github.com/rustyeddy/tradejournal/journal"
)

// DefaultScratchEpsilon is the absolute P/L below which a trade counts as a
// scratch. Small fee residuals on a flat exit land under it.
const DefaultScratchEpsilon = 0.01

// Outcome is the classification of one trade or one day.
type Outcome int

const (
	Scratch Outcome = iota
	Win
	Loss
)

func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Loss:
		return "loss"
	default:
		return "scratch"
	}
}

// MarshalText encodes an Outcome as its name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Classify is the single classification rule for P/L values. Non-finite input
// is a scratch.
func Classify(pnl, epsilon float64) Outcome {
	pnl = finite(pnl)
	switch {
	case pnl >= epsilon && pnl > 0:
		return Win
	case pnl <= -epsilon && pnl < 0:
		return Loss
	default:
		return Scratch
	}
}

// ClassifyTrade classifies by P/L; the hand-entered Result is ignored here and
// only checked by Check.
func ClassifyTrade(t journal.Trade, epsilon float64) Outcome {
	return Classify(t.PnLValue(), epsilon)
}

type WarningKind string

const (
	ResultMismatch WarningKind = "result_mismatch"
	UnknownResult  WarningKind = "unknown_result"
)

// Warning flags a trade whose data disagrees with itself. Warnings never
// change the computed metrics.
type Warning struct {
	TradeID string      `json:"tradeId"`
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

// Check reports a warning when the recorded Result disagrees with the P/L
// classification. Trades with no Result are not checked.
func Check(t journal.Trade, epsilon float64) (Warning, bool) {
	if t.Result == "" {
		return Warning{}, false
	}

	got := ClassifyTrade(t, epsilon)
	var want Outcome
	switch t.Result {
	case journal.ResultWin:
		want = Win
	case journal.ResultLoss:
		want = Loss
	case journal.ResultBreakeven:
		want = Scratch
	default:
		return Warning{
			TradeID: t.ID,
			Kind:    UnknownResult,
			Message: fmt.Sprintf("result %q is not win, loss or breakeven", t.Result),
		}, true
	}

	if got == want {
		return Warning{}, false
	}
	return Warning{
		TradeID: t.ID,
		Kind:    ResultMismatch,
		Message: fmt.Sprintf("result %q but pnl %.2f classifies as %s", t.Result, t.PnLValue(), got),
	}, true
}

func finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

func clamp(x, lo, hi float64) float64 {
	x = finite(x)
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
