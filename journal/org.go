package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/tradejournal/risk"
)

// FormatTradeOrg renders a Trade as an Org-mode block for pasting into a
// journal file. Structured facts live in the PROPERTIES drawer; the Thesis,
// Execution and Review sections are seeded from the trade notes.
func FormatTradeOrg(t Trade) string {
	heading := fmt.Sprintf("** Trade: %s %s (%s)", t.Symbol, t.Direction, shortID(t.ID))

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":ID: %s\n", t.ID))
	b.WriteString(fmt.Sprintf(":ACCOUNT: %s\n", t.AccountID))
	b.WriteString(fmt.Sprintf(":SYMBOL: %s\n", t.Symbol))
	b.WriteString(fmt.Sprintf(":DIRECTION: %s\n", t.Direction))
	b.WriteString(fmt.Sprintf(":ENTRY_TIME: %s\n", t.EntryTime.UTC().Format(time.RFC3339)))
	if !t.ExitTime.IsZero() {
		b.WriteString(fmt.Sprintf(":EXIT_TIME: %s\n", t.ExitTime.UTC().Format(time.RFC3339)))
	}
	if t.EntryPrice != 0 {
		b.WriteString(fmt.Sprintf(":ENTRY_PRICE: %.5f\n", t.EntryPrice))
	}
	if t.ExitPrice != 0 {
		b.WriteString(fmt.Sprintf(":EXIT_PRICE: %.5f\n", t.ExitPrice))
	}
	if t.PnL != nil {
		b.WriteString(fmt.Sprintf(":PNL: %.2f\n", *t.PnL))
	}
	if t.Result != "" {
		b.WriteString(fmt.Sprintf(":RESULT: %s\n", t.Result))
	}
	if t.RiskRewardRatio != nil {
		b.WriteString(fmt.Sprintf(":RR: %.2f\n", *t.RiskRewardRatio))
	}
	if t.PnL != nil && t.RiskAmount > 0 {
		b.WriteString(fmt.Sprintf(":R_MULTIPLE: %.2f\n", risk.RMultiple(*t.PnL, t.RiskAmount)))
	}
	if len(t.Tags) > 0 {
		b.WriteString(fmt.Sprintf(":TAGS: %s\n", strings.Join(t.Tags, " ")))
	}
	if t.Mood != "" {
		b.WriteString(fmt.Sprintf(":MOOD: %s\n", t.Mood))
	}
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Thesis\n- \n\n")
	b.WriteString("*** Execution\n- \n\n")
	if t.Notes != "" {
		b.WriteString("*** Review\n- " + t.Notes + "\n")
	} else {
		b.WriteString("*** Review\n- \n")
	}

	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []Trade) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
