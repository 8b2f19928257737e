// Package window narrows a trade list to an account and a rolling time window.
package window

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/tradejournal/journal"
)

var ErrUnknownWindow = errors.New("unknown window")

// Window is a rolling look-back period ending now.
type Window string

const (
	Week    Window = "7d"
	Month   Window = "30d"
	Quarter Window = "90d"
	Year    Window = "365d"
	All     Window = "all"
)

// Windows lists the supported windows, shortest first.
var Windows = []Window{Week, Month, Quarter, Year, All}

// Parse accepts the window names plus "1y" and an empty string (All).
func Parse(s string) (Window, error) {
	switch w := Window(strings.ToLower(strings.TrimSpace(s))); w {
	case "":
		return All, nil
	case "1y":
		return Year, nil
	case Week, Month, Quarter, Year, All:
		return w, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWindow, s)
}

// Days is the window length in calendar days, 0 for All.
func (w Window) Days() int {
	switch w {
	case Week:
		return 7
	case Month:
		return 30
	case Quarter:
		return 90
	case Year:
		return 365
	}
	return 0
}

// Cutoff is the earliest entry time kept by w. ok is false for All.
func (w Window) Cutoff(now time.Time) (cutoff time.Time, ok bool) {
	d := w.Days()
	if d == 0 {
		return time.Time{}, false
	}
	return now.AddDate(0, 0, -d), true
}

func (w Window) String() string { return string(w) }

// Filter returns the trades of accountID ("" keeps every account) whose
// EntryTime is at or after the window cutoff. Input order is preserved and
// trades is never modified.
func Filter(trades []journal.Trade, now time.Time, w Window, accountID string) []journal.Trade {
	cutoff, bounded := w.Cutoff(now)

	out := make([]journal.Trade, 0, len(trades))
	for _, t := range trades {
		if accountID != "" && t.AccountID != accountID {
			continue
		}
		if bounded && t.EntryTime.Before(cutoff) {
			continue
		}
		out = append(out, t)
	}
	return out
}
