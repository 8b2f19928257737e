package share

import (
	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/metrics"
)

// BlockDocID is the document ID shared by a block's content and image docs.
func BlockDocID(shareID, blockID string) string {
	return shareID + "_" + blockID
}

// Documents lays snap out as the primary share document followed by one
// content document and one image list document per block. Text in the
// primary document is cut to inlineLimit runes; block documents carry the
// full text.
func Documents(snap Snapshot, inlineLimit int) []Document {
	blocks := make([]map[string]any, 0, len(snap.Blocks))
	for i, b := range snap.Blocks {
		preview := truncate(b.Content, inlineLimit)
		blocks = append(blocks, map[string]any{
			"id":         b.ID,
			"title":      b.Title,
			"preview":    preview,
			"truncated":  preview != b.Content,
			"imageCount": len(b.Images),
			"position":   i,
		})
	}

	notes := make([]map[string]any, 0, len(snap.Notes))
	for _, n := range snap.Notes {
		notes = append(notes, map[string]any{
			"id":        n.ID,
			"body":      truncate(n.Body, inlineLimit),
			"createdAt": n.CreatedAt.UTC(),
		})
	}

	trades := make([]map[string]any, 0, len(snap.Trades))
	for _, t := range snap.Trades {
		trades = append(trades, tradeData(t))
	}

	calendar := make([]map[string]any, 0, len(snap.Calendar))
	for _, d := range snap.Calendar {
		calendar = append(calendar, map[string]any{
			"date":    d.Date,
			"pnl":     d.PnL,
			"trades":  d.Trades,
			"outcome": d.Outcome.String(),
		})
	}

	docs := []Document{{
		Collection: SharesCollection,
		ID:         snap.ShareID,
		Data: map[string]any{
			"shareId":   snap.ShareID,
			"accountId": snap.AccountID,
			"date":      snap.Date,
			"createdAt": snap.CreatedAt.UTC(),
			"mood":      snap.Mood,
			"summary":   truncate(snap.Summary, inlineLimit),
			"blocks":    blocks,
			"notes":     notes,
			"trades":    trades,
			"stats":     statsData(snap.Stats),
			"calendar":  calendar,
		},
	}}

	for i, b := range snap.Blocks {
		docID := BlockDocID(snap.ShareID, b.ID)
		docs = append(docs,
			Document{
				Collection: BlocksCollection,
				ID:         docID,
				Data: map[string]any{
					"shareId":  snap.ShareID,
					"blockId":  b.ID,
					"title":    b.Title,
					"content":  b.Content,
					"position": i,
				},
			},
			Document{
				Collection: BlockImagesCollection,
				ID:         docID,
				Data: map[string]any{
					"shareId": snap.ShareID,
					"blockId": b.ID,
					"images":  append([]string{}, b.Images...),
				},
			},
		)
	}
	return docs
}

func tradeData(t journal.Trade) map[string]any {
	m := map[string]any{
		"id":         t.ID,
		"symbol":     t.Symbol,
		"direction":  string(t.Direction),
		"entryTime":  t.EntryTime.UTC(),
		"pnl":        t.PnLValue(),
		"result":     string(t.Result),
		"riskAmount": t.RiskAmount,
	}
	if !t.ExitTime.IsZero() {
		m["exitTime"] = t.ExitTime.UTC()
	}
	if t.RiskRewardRatio != nil {
		m["riskRewardRatio"] = *t.RiskRewardRatio
	}
	if len(t.Tags) > 0 {
		m["tags"] = append([]string{}, t.Tags...)
	}
	return m
}

func statsData(s metrics.Summary) map[string]any {
	return map[string]any{
		"totalTrades":    s.TotalTrades,
		"wins":           s.Wins,
		"losses":         s.Losses,
		"scratches":      s.Scratches,
		"winRate":        s.WinRate,
		"totalPnl":       s.TotalPnL,
		"largestWin":     s.LargestWin,
		"largestLoss":    s.LargestLoss,
		"profitFactor":   s.ProfitFactor,
		"avgRiskReward":  s.AvgRiskReward,
		"maxDrawdownPct": s.MaxDrawdownPct,
	}
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

