//go:build blackbox

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tjBin string

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "tradejournal-blackbox-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmp)

	tjBin = filepath.Join(tmp, "tradejournal")

	// Build the binary once for all tests.
	cmd := exec.Command("go", "build", "-o", tjBin, ".")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

// workspace writes a config pointing the journal and share output into dir.
func workspace(t *testing.T) (cfgPath, dir string) {
	t.Helper()

	dir = t.TempDir()
	cfgPath = filepath.Join(dir, "tradejournal.yaml")
	yaml := fmt.Sprintf(`journal:
  db_path: %s
share:
  backend: file
  out_dir: %s
  retry_attempts: 2
  inline_limit: 200
log:
  level: ERROR
`, filepath.Join(dir, "journal.db"), filepath.Join(dir, "shares"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0644))
	return cfgPath, dir
}

func run(t *testing.T, cfgPath string, args ...string) string {
	t.Helper()

	args = append([]string{"--config", cfgPath, "--env", filepath.Join(filepath.Dir(cfgPath), "none.env")}, args...)
	cmd := exec.Command(tjBin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		// CombinedOutput merges stdout/stderr; still useful in failures.
		t.Fatalf("command failed: %v\nargs: %v\noutput:\n%s", err, args, string(out))
	}
	return string(out)
}

func writeTradesCSV(t *testing.T, path string, rows ...string) {
	t.Helper()
	body := "trade_id,account_id,symbol,direction,entry_time,pnl,result\n" + strings.Join(rows, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func TestImportAndStats(t *testing.T) {
	cfgPath, dir := workspace(t)

	csvPath := filepath.Join(dir, "trades.csv")
	writeTradesCSV(t, csvPath,
		"T1,ACC-1,ES,long,2024-05-13T14:00:00Z,100,win",
		"T2,ACC-1,ES,short,2024-05-14T14:00:00Z,-50,win",
		"T3,ACC-1,NQ,long,2024-05-14T15:00:00Z,0.001,breakeven",
	)

	out := run(t, cfgPath, "trade", "import", csvPath)
	assert.Contains(t, out, "Imported 3 trades")

	out = run(t, cfgPath, "stats", "--window", "all", "--json")
	var body struct {
		Summary struct {
			Wins      int     `json:"wins"`
			Losses    int     `json:"losses"`
			Scratches int     `json:"scratches"`
			WinRate   float64 `json:"winRate"`
			Warnings  []struct {
				TradeID string `json:"tradeId"`
			} `json:"warnings"`
		} `json:"summary"`
		Edge struct {
			Score float64 `json:"score"`
		} `json:"edge"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body), out)
	assert.Equal(t, 1, body.Summary.Wins)
	assert.Equal(t, 1, body.Summary.Losses)
	assert.Equal(t, 1, body.Summary.Scratches)
	assert.InDelta(t, 50.0, body.Summary.WinRate, 1e-9)
	require.Len(t, body.Summary.Warnings, 1)
	assert.Equal(t, "T2", body.Summary.Warnings[0].TradeID)
	assert.GreaterOrEqual(t, body.Edge.Score, 0.0)
	assert.LessOrEqual(t, body.Edge.Score, 100.0)

	orgPath := filepath.Join(dir, "report.org")
	out = run(t, cfgPath, "stats", "--window", "all", "--org", orgPath)
	assert.Contains(t, out, "Win Rate:      50.00%")
	org, err := os.ReadFile(orgPath)
	require.NoError(t, err)
	assert.Contains(t, string(org), "* PERFORMANCE:")
}

func TestAccountStartingBalance(t *testing.T) {
	cfgPath, dir := workspace(t)

	csvPath := filepath.Join(dir, "trades.csv")
	writeTradesCSV(t, csvPath,
		"T1,ACC-1,ES,long,2024-05-13T14:00:00Z,100,win",
		"T2,ACC-1,ES,long,2024-05-14T14:00:00Z,-550,loss",
	)
	run(t, cfgPath, "trade", "import", csvPath)

	out := run(t, cfgPath, "account", "add", "ACC-1", "--balance", "1000")
	assert.Contains(t, out, "Saved account ACC-1")
	assert.Contains(t, run(t, cfgPath, "account", "list"), "ACC-1")

	out = run(t, cfgPath, "stats", "--account", "ACC-1", "--window", "all", "--json")
	var body struct {
		Summary struct {
			MaxDrawdownPct    float64 `json:"maxDrawdownPct"`
			MaxDrawdownAmount float64 `json:"maxDrawdownAmount"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body), out)
	assert.InDelta(t, 50.0, body.Summary.MaxDrawdownPct, 1e-9)
	assert.InDelta(t, 550.0, body.Summary.MaxDrawdownAmount, 1e-9)
}

func TestShareExportKeepsFailedImageURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/b.png" {
			http.Error(w, "gone", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png"))
	}))
	defer srv.Close()

	cfgPath, dir := workspace(t)

	csvPath := filepath.Join(dir, "trades.csv")
	writeTradesCSV(t, csvPath, "T1,ACC-1,ES,long,2024-05-14T14:00:00Z,250,win")
	run(t, cfgPath, "trade", "import", csvPath)

	images := strings.Join([]string{srv.URL + "/a.png", srv.URL + "/b.png", srv.URL + "/c.png"}, ",")
	run(t, cfgPath, "reflect", "set", "--day", "2024-05-14", "--account", "ACC-1",
		"--mood", "calm", "--summary", "Good day",
		"--block", "Charts|Entries and exits|"+images)
	run(t, cfgPath, "note", "add", "--day", "2024-05-14", "--account", "ACC-1", "FOMC", "at", "2pm")

	out := run(t, cfgPath, "share", "export", "--day", "2024-05-14", "--account", "ACC-1")
	assert.Contains(t, out, "1 image(s) kept their original URL")
	assert.Contains(t, out, srv.URL+"/b.png")

	var shareID string
	for _, line := range strings.Split(out, "\n") {
		if i := strings.Index(line, " as "); i >= 0 && strings.Contains(line, "Shared") {
			shareID = strings.TrimSpace(line[i+4:])
		}
	}
	require.NotEmpty(t, shareID, out)

	assert.Contains(t, run(t, cfgPath, "share", "show", shareID), `"Good day"`)

	entries, err := os.ReadDir(filepath.Join(dir, "shares", "share_block_images"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	raw, err := os.ReadFile(filepath.Join(dir, "shares", "share_block_images", entries[0].Name()))
	require.NoError(t, err)
	var imgs struct {
		Images []string `json:"images"`
	}
	require.NoError(t, json.Unmarshal(raw, &imgs))
	require.Len(t, imgs.Images, 3)
	assert.Equal(t, srv.URL+"/b.png", imgs.Images[1])
	assert.FileExists(t, imgs.Images[0])
	assert.FileExists(t, imgs.Images[2])
}
