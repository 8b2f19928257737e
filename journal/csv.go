package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

var csvHeader = []string{
	"trade_id", "account_id", "symbol", "direction", "entry_time", "exit_time",
	"pnl", "result", "risk_reward", "risk_amount", "quantity", "entry_price",
	"exit_price", "stop_price", "target_price", "tags", "notes", "mood",
}

// WriteCSV writes trades with a header row. Missing P/L and R:R are written as
// empty cells and tags are joined with ';'.
func WriteCSV(w io.Writer, trades []Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, t := range trades {
		err := cw.Write([]string{
			t.ID,
			t.AccountID,
			t.Symbol,
			string(t.Direction),
			t.EntryTime.UTC().Format(time.RFC3339),
			formatTime(t.ExitTime),
			optional(t.PnL),
			string(t.Result),
			optional(t.RiskRewardRatio),
			f(t.RiskAmount),
			f(t.Quantity),
			f(t.EntryPrice),
			f(t.ExitPrice),
			f(t.StopPrice),
			f(t.TargetPrice),
			strings.Join(t.Tags, ";"),
			t.Notes,
			t.Mood,
		})
		if err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses trades written by WriteCSV or exported by a broker, as long
// as the header names match. symbol and entry_time are required columns.
func ReadCSV(r io.Reader) ([]Trade, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, req := range []string{"symbol", "entry_time"} {
		if _, ok := cols[req]; !ok {
			return nil, fmt.Errorf("missing required column %q", req)
		}
	}

	var out []Trade
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		t, err := parseRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func parseRow(rec []string, cols map[string]int) (Trade, error) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var (
		t   Trade
		err error
	)
	t.ID = get("trade_id")
	t.AccountID = get("account_id")
	t.Symbol = get("symbol")
	t.Direction = Direction(strings.ToLower(get("direction")))
	t.Result = Result(strings.ToLower(get("result")))
	t.Notes = get("notes")
	t.Mood = get("mood")
	if tags := get("tags"); tags != "" {
		t.Tags = strings.Split(tags, ";")
	}

	if t.EntryTime, err = parseTime(get("entry_time")); err != nil {
		return Trade{}, fmt.Errorf("entry_time: %w", err)
	}
	if t.ExitTime, err = parseTime(get("exit_time")); err != nil {
		return Trade{}, fmt.Errorf("exit_time: %w", err)
	}
	if t.PnL, err = parseOptional(get("pnl")); err != nil {
		return Trade{}, fmt.Errorf("pnl: %w", err)
	}
	if t.RiskRewardRatio, err = parseOptional(get("risk_reward")); err != nil {
		return Trade{}, fmt.Errorf("risk_reward: %w", err)
	}

	for name, dst := range map[string]*float64{
		"risk_amount":  &t.RiskAmount,
		"quantity":     &t.Quantity,
		"entry_price":  &t.EntryPrice,
		"exit_price":   &t.ExitPrice,
		"stop_price":   &t.StopPrice,
		"target_price": &t.TargetPrice,
	} {
		v := get(name)
		if v == "" {
			continue
		}
		if *dst, err = strconv.ParseFloat(v, 64); err != nil {
			return Trade{}, fmt.Errorf("%s: %w", name, err)
		}
	}
	return t, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04", DayLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

func parseOptional(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return f(*v)
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
