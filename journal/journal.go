// Package journal holds the trade journal data model and its persistence.
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/tradejournal/risk"
)

// ErrNotFound is returned when a trade, account or reflection does not exist.
var ErrNotFound = errors.New("not found")

// DayLayout is the format used for journal days (reflections, notes).
const DayLayout = "2006-01-02"

type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// Result is the outcome a trader recorded by hand. It is not guaranteed to
// agree with the sign of PnL; metrics.Classify is the canonical view.
type Result string

const (
	ResultWin       Result = "win"
	ResultLoss      Result = "loss"
	ResultBreakeven Result = "breakeven"
)

// Trade is a single journaled trade.
type Trade struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Symbol    string    `json:"symbol"`
	Direction Direction `json:"direction"`
	EntryTime time.Time `json:"entryTime"`
	ExitTime  time.Time `json:"exitTime"`

	// PnL is nil when the trader has not filled it in.
	PnL    *float64 `json:"pnl,omitempty"`
	Result Result   `json:"result,omitempty"`

	RiskRewardRatio *float64 `json:"riskRewardRatio,omitempty"`
	RiskAmount      float64  `json:"riskAmount"`

	// Execution details, optional.
	Quantity    float64 `json:"quantity,omitempty"`
	EntryPrice  float64 `json:"entryPrice,omitempty"`
	ExitPrice   float64 `json:"exitPrice,omitempty"`
	StopPrice   float64 `json:"stopPrice,omitempty"`
	TargetPrice float64 `json:"targetPrice,omitempty"`

	Tags  []string `json:"tags,omitempty"`
	Notes string   `json:"notes,omitempty"`
	Mood  string   `json:"mood,omitempty"`
}

// PnLValue returns the trade P/L, treating a missing value as zero.
func (t Trade) PnLValue() float64 {
	if t.PnL == nil {
		return 0
	}
	return *t.PnL
}

// Normalize fills derived fields from the execution details. A planned R:R is
// only derived when the trader did not enter one, and the risk amount only
// when it is zero.
func (t *Trade) Normalize() {
	if t.Direction == "" {
		t.Direction = Long
	}
	if t.RiskRewardRatio == nil {
		if rr := risk.RR(t.EntryPrice, t.StopPrice, t.TargetPrice); rr > 0 {
			t.RiskRewardRatio = &rr
		}
	}
	if t.RiskAmount == 0 {
		t.RiskAmount = risk.PlannedRisk(t.Quantity, t.EntryPrice, t.StopPrice)
	}
}

// Float returns a pointer to v, for filling the optional Trade fields.
func Float(v float64) *float64 {
	return &v
}

type Account struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Currency        string  `json:"currency"`
	StartingBalance float64 `json:"startingBalance"`
}

// Block is one insight section of a daily reflection.
type Block struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// Reflection is the trader's write-up for one day on one account.
type Reflection struct {
	AccountID string    `json:"accountId"`
	Day       string    `json:"day"`
	Mood      string    `json:"mood,omitempty"`
	Summary   string    `json:"summary"`
	Blocks    []Block   `json:"blocks,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Note struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Day       string    `json:"day"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// Query narrows ListTrades. Zero values match everything; From is inclusive
// and To exclusive on EntryTime.
type Query struct {
	AccountID string
	Symbol    string
	From      time.Time
	To        time.Time
}

// Store owns the Trade lifecycle. Nothing else mutates trades.
type Store interface {
	RecordTrade(ctx context.Context, t Trade) (Trade, error)
	UpdateTrade(ctx context.Context, t Trade) error
	GetTrade(ctx context.Context, tradeID string) (Trade, error)
	DeleteTrade(ctx context.Context, tradeID string) error
	ListTrades(ctx context.Context, q Query) ([]Trade, error)
	ListTradesClosedBetween(ctx context.Context, start, end time.Time) ([]Trade, error)
	Close() error
}

var _ Store = (*SQLite)(nil)
