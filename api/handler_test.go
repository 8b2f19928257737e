package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/share"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var now = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

type fakeExporter struct {
	date    time.Time
	account string
	res     share.Result
	err     error
}

func (f *fakeExporter) Export(_ context.Context, date time.Time, accountID string) (share.Result, error) {
	f.date, f.account = date, accountID
	return f.res, f.err
}

func newTestServer(t *testing.T, exp Exporter) (*gin.Engine, *journal.SQLite) {
	t.Helper()

	j, err := journal.NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	ctx := context.Background()
	seed := []journal.Trade{
		{ID: "T1", AccountID: "ACC-1", Symbol: "ES", EntryTime: now.AddDate(0, 0, -1), PnL: journal.Float(100)},
		{ID: "T2", AccountID: "ACC-1", Symbol: "ES", EntryTime: now.AddDate(0, 0, -2), PnL: journal.Float(-50), Result: journal.ResultWin},
		{ID: "T3", AccountID: "ACC-1", Symbol: "NQ", EntryTime: now.AddDate(0, 0, -40), PnL: journal.Float(30)},
		{ID: "T4", AccountID: "ACC-2", Symbol: "CL", EntryTime: now.AddDate(0, 0, -1), PnL: journal.Float(-10)},
	}
	for _, tr := range seed {
		_, err := j.RecordTrade(ctx, tr)
		require.NoError(t, err)
	}

	h := NewHandler(j, j, exp, WithClock(func() time.Time { return now }))
	return NewRouter(h), j
}

func do(r http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListTrades(t *testing.T) {
	t.Parallel()
	r, _ := newTestServer(t, nil)

	cases := []struct {
		query string
		ids   []string
	}{
		{"", []string{"T3", "T2", "T1", "T4"}},
		{"?account=ACC-1", []string{"T3", "T2", "T1"}},
		{"?account=ACC-1&window=30d", []string{"T2", "T1"}},
		{"?window=7d", []string{"T2", "T1", "T4"}},
	}
	for _, tc := range cases {
		w := do(r, http.MethodGet, "/api/trades"+tc.query, nil)
		require.Equal(t, http.StatusOK, w.Code, tc.query)

		var body struct {
			Trades []journal.Trade `json:"trades"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		var ids []string
		for _, tr := range body.Trades {
			ids = append(ids, tr.ID)
		}
		assert.ElementsMatch(t, tc.ids, ids, tc.query)
	}

	w := do(r, http.MethodGet, "/api/trades?window=14d", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown window")
}

func TestStats(t *testing.T) {
	t.Parallel()
	r, _ := newTestServer(t, nil)

	w := do(r, http.MethodGet, "/api/stats?account=ACC-1&window=30d", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Window  string `json:"window"`
		Summary struct {
			TotalTrades int     `json:"totalTrades"`
			WinRate     float64 `json:"winRate"`
			TotalPnL    float64 `json:"totalPnl"`
		} `json:"summary"`
		Edge struct {
			Score      float64 `json:"score"`
			Components []struct {
				Name string `json:"name"`
			} `json:"components"`
		} `json:"edge"`
		Warnings []struct {
			TradeID string `json:"tradeId"`
		} `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, "30d", body.Window)
	assert.Equal(t, 2, body.Summary.TotalTrades)
	assert.InDelta(t, 50.0, body.Summary.WinRate, 1e-9)
	assert.InDelta(t, 50.0, body.Summary.TotalPnL, 1e-9)
	assert.Len(t, body.Edge.Components, 6)
	assert.GreaterOrEqual(t, body.Edge.Score, 0.0)
	assert.LessOrEqual(t, body.Edge.Score, 100.0)
	require.Len(t, body.Warnings, 1)
	assert.Equal(t, "T2", body.Warnings[0].TradeID)
}

func TestCreateGetDeleteTrade(t *testing.T) {
	t.Parallel()
	r, _ := newTestServer(t, nil)

	w := do(r, http.MethodPost, "/api/trades", []byte(`{"accountId":"ACC-1","symbol":"GC","direction":"short","entryTime":"2024-06-29T14:00:00Z","pnl":42.5}`))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created journal.Trade
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	w = do(r, http.MethodGet, "/api/trades/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got journal.Trade
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "GC", got.Symbol)
	assert.Equal(t, journal.Short, got.Direction)
	require.NotNil(t, got.PnL)
	assert.InDelta(t, 42.5, *got.PnL, 1e-9)

	w = do(r, http.MethodDelete, "/api/trades/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodGet, "/api/trades/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"trade not found"}`, w.Body.String())

	w = do(r, http.MethodDelete, "/api/trades/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateTradeValidation(t *testing.T) {
	t.Parallel()
	r, _ := newTestServer(t, nil)

	w := do(r, http.MethodPost, "/api/trades", []byte(`{"symbol":`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/trades", []byte(`{"symbol":"ES"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "entryTime")
}

func TestLayout(t *testing.T) {
	t.Parallel()
	r, _ := newTestServer(t, nil)

	w := do(r, http.MethodGet, "/api/layout/ACC-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	layout := []byte(`{"tiles":[{"id":"pnl","x":0,"y":0,"w":4,"h":2}],"hidden":["streaks"]}`)
	w = do(r, http.MethodPut, "/api/layout/ACC-1", layout)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodGet, "/api/layout/ACC-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, string(layout), w.Body.String())

	w = do(r, http.MethodPut, "/api/layout/ACC-1", []byte(`not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateShare(t *testing.T) {
	t.Parallel()

	exp := &fakeExporter{res: share.Result{
		ShareID:  "SHARE1",
		Degraded: []share.DegradedImage{{URL: "https://img.example.com/b.png", BlockID: "B1", Err: "timeout"}},
	}}
	r, _ := newTestServer(t, exp)

	w := do(r, http.MethodPost, "/api/shares", []byte(`{"date":"2024-06-29","account":"ACC-1"}`))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.JSONEq(t,
		`{"shareId":"SHARE1","degraded":[{"url":"https://img.example.com/b.png","blockId":"B1","error":"timeout"}]}`,
		w.Body.String())
	assert.Equal(t, "ACC-1", exp.account)
	assert.Equal(t, "2024-06-29", exp.date.Format(journal.DayLayout))

	w = do(r, http.MethodPost, "/api/shares", []byte(`{"date":"29/06/2024"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/shares", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateShareErrors(t *testing.T) {
	t.Parallel()

	r, _ := newTestServer(t, &fakeExporter{err: errors.New("share: commit: unavailable")})
	w := do(r, http.MethodPost, "/api/shares", []byte(`{"date":"2024-06-29"}`))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"share: commit: unavailable"}`, w.Body.String())

	r, _ = newTestServer(t, nil)
	w = do(r, http.MethodPost, "/api/shares", []byte(`{"date":"2024-06-29"}`))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
