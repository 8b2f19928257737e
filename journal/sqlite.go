package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/tradejournal/id"
)

// SQLite is the journal store backed by a single SQLite file.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

// RecordTrade inserts t, assigning an ID when it has none. The stored trade
// is returned with derived fields filled in.
func (j *SQLite) RecordTrade(ctx context.Context, t Trade) (Trade, error) {
	if t.ID == "" {
		t.ID = newTradeID(t.EntryTime)
	}
	t.Normalize()

	tags, err := encodeTags(t.Tags)
	if err != nil {
		return Trade{}, err
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO trades
		(trade_id, account_id, symbol, direction, entry_time, exit_time, pnl, result,
		 risk_reward, risk_amount, quantity, entry_price, exit_price, stop_price,
		 target_price, tags, notes, mood)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.AccountID, t.Symbol, string(t.Direction), t.EntryTime.UTC(), t.ExitTime.UTC(),
		nullFloat(t.PnL), string(t.Result), nullFloat(t.RiskRewardRatio), t.RiskAmount,
		t.Quantity, t.EntryPrice, t.ExitPrice, t.StopPrice, t.TargetPrice,
		tags, t.Notes, t.Mood,
	)
	if err != nil {
		return Trade{}, fmt.Errorf("insert trade %s: %w", t.ID, err)
	}
	return t, nil
}

// newTradeID stamps the ID with the entry time so IDs sort like trades do.
func newTradeID(entry time.Time) string {
	if entry.IsZero() {
		return id.New()
	}
	return id.NewAt(entry)
}

func (j *SQLite) UpdateTrade(ctx context.Context, t Trade) error {
	t.Normalize()

	tags, err := encodeTags(t.Tags)
	if err != nil {
		return err
	}

	res, err := j.db.ExecContext(ctx, `
		UPDATE trades SET
			account_id = ?, symbol = ?, direction = ?, entry_time = ?, exit_time = ?,
			pnl = ?, result = ?, risk_reward = ?, risk_amount = ?, quantity = ?,
			entry_price = ?, exit_price = ?, stop_price = ?, target_price = ?,
			tags = ?, notes = ?, mood = ?
		WHERE trade_id = ?`,
		t.AccountID, t.Symbol, string(t.Direction), t.EntryTime.UTC(), t.ExitTime.UTC(),
		nullFloat(t.PnL), string(t.Result), nullFloat(t.RiskRewardRatio), t.RiskAmount,
		t.Quantity, t.EntryPrice, t.ExitPrice, t.StopPrice, t.TargetPrice,
		tags, t.Notes, t.Mood, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update trade %s: %w", t.ID, err)
	}
	return expectOne(res, "trade", t.ID)
}

func (j *SQLite) DeleteTrade(ctx context.Context, tradeID string) error {
	res, err := j.db.ExecContext(ctx, `DELETE FROM trades WHERE trade_id = ?`, tradeID)
	if err != nil {
		return err
	}
	return expectOne(res, "trade", tradeID)
}

func (j *SQLite) SaveAccount(ctx context.Context, a Account) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO accounts (account_id, name, currency, starting_balance)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			name = excluded.name,
			currency = excluded.currency,
			starting_balance = excluded.starting_balance`,
		a.ID, a.Name, a.Currency, a.StartingBalance,
	)
	return err
}

func (j *SQLite) GetAccount(ctx context.Context, accountID string) (Account, error) {
	var a Account
	err := j.db.QueryRowContext(ctx, `
		SELECT account_id, name, currency, starting_balance
		FROM accounts WHERE account_id = ?`, accountID).
		Scan(&a.ID, &a.Name, &a.Currency, &a.StartingBalance)
	if err == sql.ErrNoRows {
		return Account{}, fmt.Errorf("account %q: %w", accountID, ErrNotFound)
	}
	return a, err
}

func (j *SQLite) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT account_id, name, currency, starting_balance
		FROM accounts ORDER BY account_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Currency, &a.StartingBalance); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SaveSetting stores an opaque JSON blob, e.g. a dashboard layout keyed by
// account. The value is validated as JSON but never interpreted.
func (j *SQLite) SaveSetting(ctx context.Context, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return fmt.Errorf("setting %q: value is not valid JSON", key)
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), time.Now().UTC(),
	)
	return err
}

func (j *SQLite) LoadSetting(ctx context.Context, key string) (json.RawMessage, error) {
	var v string
	err := j.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("setting %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(v), nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

func expectOne(res sql.Result, kind, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", kind, key, ErrNotFound)
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}
