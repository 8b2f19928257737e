package report

import (
	"bytes"
	"fmt"
	"os"
	"text/template"
	"time"

	"github.com/rustyeddy/tradejournal/metrics"
)

// SummaryDoc is the input of the org-mode performance report.
type SummaryDoc struct {
	Title     string
	AccountID string
	Window    string
	Created   time.Time
	Summary   metrics.Summary
	Edge      metrics.Edge
	Days      []metrics.Day
	OrgPath   string
}

var summaryOrgFuncs = template.FuncMap{
	"pf": ProfitFactor,
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var summaryOrg = template.Must(template.New("summary").Funcs(summaryOrgFuncs).Parse(SummaryOrgTemplate))

// RenderSummaryOrg renders d as an org-mode document.
func RenderSummaryOrg(d SummaryDoc) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := summaryOrg.Execute(buf, d); err != nil {
		return nil, fmt.Errorf("render summary: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteSummaryOrg renders d to d.OrgPath.
func WriteSummaryOrg(d SummaryDoc) error {
	if d.OrgPath == "" {
		return fmt.Errorf("summary org path is required")
	}
	b, err := RenderSummaryOrg(d)
	if err != nil {
		return err
	}
	return os.WriteFile(d.OrgPath, b, 0644)
}

const SummaryOrgTemplate = `* PERFORMANCE: {{if .Title}}{{.Title}}{{else}}(title?){{end}}
:PROPERTIES:
:ACCOUNT:     {{if .AccountID}}{{.AccountID}}{{else}}all{{end}}
:WINDOW:      {{if .Window}}{{.Window}}{{else}}all{{end}}
:TRADES:      {{.Summary.TotalTrades}}
:WINS:        {{.Summary.Wins}}
:LOSSES:      {{.Summary.Losses}}
:SCRATCHES:   {{.Summary.Scratches}}
:WIN_RATE:    {{printf "%.2f" .Summary.WinRate}}
:NET_PL:      {{printf "%.2f" .Summary.TotalPnL}}
:PROFIT_FAC:  {{pf .Summary}}
:MAX_DD_PCT:  {{printf "%.2f" .Summary.MaxDrawdownPct}}
:EDGE:        {{printf "%.1f" .Edge.Score}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Net P/L:          *{{printf "%.2f" .Summary.TotalPnL}}*
- Expectancy:       *{{printf "%.2f" .Summary.Expectancy}}*
- Avg Win / Loss:   *{{printf "%.2f" .Summary.AvgWin}} / {{printf "%.2f" .Summary.AvgLoss}}*
- Largest Win:      *{{printf "%.2f" .Summary.LargestWin}}*
- Largest Loss:     *{{printf "%.2f" .Summary.LargestLoss}}*
- Day Win Rate:     *{{printf "%.2f" .Summary.DayWinRate}}%*
- Streaks (W / L):  *{{.Summary.LongestWinStreak}} / {{.Summary.LongestLossStreak}}*

** Edge Score
| Component | Raw | Score |
|-----------+-----+-------|
{{- range .Edge.Components }}
| {{.Name}} | {{printf "%.2f" .Raw}} | {{printf "%.1f" .Score}} |
{{- end }}

Weakest area: {{if .Edge.Weakest}}{{.Edge.Weakest}}{{else}}(none){{end}}

{{- if .Days }}

** Daily P/L
| Date | Trades | P/L | Outcome |
|------+--------+-----+---------|
{{- range .Days }}
| {{.Date}} | {{.Trades}} | {{printf "%.2f" .PnL}} | {{.Outcome}} |
{{- end }}
{{- end }}

{{- if .Summary.Warnings }}

** Data Warnings
{{- range .Summary.Warnings }}
- [ ] {{.TradeID}}: {{.Message}}
{{- end }}
{{- end }}
`
