// Package share builds public snapshots of a journal day.
//
// An export runs in two phases. Stage copies referenced images and never
// fails: an image that cannot be copied keeps its original URL and is
// reported in Result.Degraded. Commit then writes every snapshot document in
// one atomic batch. Staged image copies are not rolled back when Commit fails.
package share

import (
	"context"
	"time"

	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/metrics"
)

// Collections written by Commit.
const (
	SharesCollection      = "shares"
	BlocksCollection      = "share_blocks"
	BlockImagesCollection = "share_block_images"
)

// Source is the read side of the journal an export needs.
type Source interface {
	ListTrades(ctx context.Context, q journal.Query) ([]journal.Trade, error)
	GetReflection(ctx context.Context, accountID, day string) (journal.Reflection, error)
	ListNotes(ctx context.Context, accountID, day string) ([]journal.Note, error)
}

// ImageCopier copies the image at srcURL somewhere owned by the share and
// returns the new URL.
type ImageCopier interface {
	Copy(ctx context.Context, shareID, srcURL string) (string, error)
}

// Document is one record in a DocumentStore.
type Document struct {
	Collection string
	ID         string
	Data       map[string]any
}

// DocumentStore writes documents all-or-nothing.
type DocumentStore interface {
	Commit(ctx context.Context, docs []Document) error
}

// Snapshot is the self-contained record of one day.
type Snapshot struct {
	ShareID   string    `json:"shareId"`
	AccountID string    `json:"accountId"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"createdAt"`

	Mood    string          `json:"mood,omitempty"`
	Summary string          `json:"summary,omitempty"`
	Blocks  []journal.Block `json:"blocks,omitempty"`
	Notes   []journal.Note  `json:"notes,omitempty"`
	Trades  []journal.Trade `json:"trades,omitempty"`

	Stats    metrics.Summary `json:"stats"`
	Calendar []metrics.Day   `json:"calendar"`
}

// Images returns the distinct image URLs of s in block order.
func (s Snapshot) Images() []string {
	seen := make(map[string]bool)
	var out []string
	for _, b := range s.Blocks {
		for _, u := range b.Images {
			if u == "" || seen[u] {
				continue
			}
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}

// DegradedImage is an image Stage could not copy. The snapshot keeps URL.
type DegradedImage struct {
	URL     string `json:"url"`
	BlockID string `json:"blockId"`
	Err     string `json:"error"`
}

type Result struct {
	ShareID  string          `json:"shareId"`
	Snapshot Snapshot        `json:"snapshot"`
	Degraded []DegradedImage `json:"degraded,omitempty"`
}
