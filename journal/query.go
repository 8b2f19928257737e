package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const tradeColumns = `trade_id, account_id, symbol, direction, entry_time, exit_time, pnl, result,
	risk_reward, risk_amount, quantity, entry_price, exit_price, stop_price, target_price,
	tags, notes, mood`

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(s scanner) (Trade, error) {
	var (
		rec       Trade
		direction string
		result    string
		pnl       sql.NullFloat64
		rr        sql.NullFloat64
		tags      string
	)
	err := s.Scan(
		&rec.ID,
		&rec.AccountID,
		&rec.Symbol,
		&direction,
		&rec.EntryTime,
		&rec.ExitTime,
		&pnl,
		&result,
		&rr,
		&rec.RiskAmount,
		&rec.Quantity,
		&rec.EntryPrice,
		&rec.ExitPrice,
		&rec.StopPrice,
		&rec.TargetPrice,
		&tags,
		&rec.Notes,
		&rec.Mood,
	)
	if err != nil {
		return Trade{}, err
	}

	rec.Direction = Direction(direction)
	rec.Result = Result(result)
	if pnl.Valid {
		rec.PnL = Float(pnl.Float64)
	}
	if rr.Valid {
		rec.RiskRewardRatio = Float(rr.Float64)
	}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &rec.Tags); err != nil {
			return Trade{}, fmt.Errorf("decode tags of %s: %w", rec.ID, err)
		}
		if len(rec.Tags) == 0 {
			rec.Tags = nil
		}
	}
	return rec, nil
}

// GetTrade returns a single trade by ID.
func (j *SQLite) GetTrade(ctx context.Context, tradeID string) (Trade, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+tradeColumns+` FROM trades WHERE trade_id = ?`, tradeID)

	rec, err := scanTrade(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return Trade{}, fmt.Errorf("trade %q: %w", tradeID, ErrNotFound)
		}
		return Trade{}, err
	}
	return rec, nil
}

// ListTrades returns the trades matching q ordered by entry time, oldest first.
func (j *SQLite) ListTrades(ctx context.Context, q Query) ([]Trade, error) {
	var (
		where []string
		args  []any
	)
	if q.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, q.AccountID)
	}
	if q.Symbol != "" {
		where = append(where, "symbol = ?")
		args = append(args, q.Symbol)
	}
	if !q.From.IsZero() {
		where = append(where, "entry_time >= ?")
		args = append(args, q.From.UTC())
	}
	if !q.To.IsZero() {
		where = append(where, "entry_time < ?")
		args = append(args, q.To.UTC())
	}

	stmt := `SELECT ` + tradeColumns + ` FROM trades`
	if len(where) > 0 {
		stmt += ` WHERE ` + strings.Join(where, " AND ")
	}
	stmt += ` ORDER BY entry_time ASC, trade_id ASC`

	return j.listTrades(ctx, stmt, args...)
}

// ListTradesClosedBetween returns trades whose exit time is within [start, end).
func (j *SQLite) ListTradesClosedBetween(ctx context.Context, start, end time.Time) ([]Trade, error) {
	return j.listTrades(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE exit_time >= ? AND exit_time < ?
		ORDER BY exit_time ASC`, start.UTC(), end.UTC())
}

func (j *SQLite) listTrades(ctx context.Context, stmt string, args ...any) ([]Trade, error) {
	rows, err := j.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Trade
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
