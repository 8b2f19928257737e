package share

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/rustyeddy/tradejournal/id"
	"github.com/rustyeddy/tradejournal/internal/logger"
	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/metrics"
)

const (
	DefaultRetryAttempts = 1
	DefaultRetryInterval = 500 * time.Millisecond
	DefaultInlineLimit   = 1000
)

// Options tune a Builder. Zero values are replaced by the defaults.
type Options struct {
	// RetryAttempts is the number of tries per image, at least 1.
	RetryAttempts int
	// RetryInterval is the first wait between tries; later waits grow
	// exponentially with jitter.
	RetryInterval time.Duration
	// InlineLimit caps, in runes, the text inlined in the primary document.
	InlineLimit int
	Epsilon     float64
	Location    *time.Location
	Now         func() time.Time
	NewID       func() string
}

// Option configures a Builder.
type Option func(*Options)

func WithRetryAttempts(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.RetryAttempts = n
		}
	}
}

func WithRetryInterval(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.RetryInterval = d
		}
	}
}

func WithInlineLimit(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.InlineLimit = n
		}
	}
}

func WithEpsilon(eps float64) Option {
	return func(o *Options) { o.Epsilon = eps }
}

func WithLocation(loc *time.Location) Option {
	return func(o *Options) {
		if loc != nil {
			o.Location = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Options) { o.Now = now }
}

func WithIDs(newID func() string) Option {
	return func(o *Options) { o.NewID = newID }
}

// Builder exports read-only snapshots of a trading day. It reads journal
// data from a Source, copies images through an ImageCopier and writes the
// snapshot documents to a DocumentStore.
type Builder struct {
	src    Source
	images ImageCopier
	docs   DocumentStore
	opts   Options
}

// NewBuilder returns a Builder over the given collaborators.
func NewBuilder(src Source, images ImageCopier, docs DocumentStore, opts ...Option) *Builder {
	o := Options{
		RetryAttempts: DefaultRetryAttempts,
		RetryInterval: DefaultRetryInterval,
		InlineLimit:   DefaultInlineLimit,
		Epsilon:       metrics.DefaultScratchEpsilon,
		Location:      time.UTC,
		Now:           time.Now,
		NewID:         id.New,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Builder{src: src, images: images, docs: docs, opts: o}
}

// Export gathers the day of date for accountID, stages its images and
// commits the snapshot. Only gathering, cancellation and the commit can fail.
func (b *Builder) Export(ctx context.Context, date time.Time, accountID string) (res Result, err error) {
	ctx, span := logger.StartSpan(ctx, "share.export", attribute.String("account_id", accountID))
	defer func() { logger.EndSpan(span, err) }()

	snap, err := b.Gather(ctx, date, accountID)
	if err != nil {
		return Result{}, err
	}
	res.ShareID = snap.ShareID

	degraded, err := b.Stage(ctx, &snap)
	if err != nil {
		return res, err
	}
	res.Degraded = degraded

	if err := b.Commit(ctx, snap); err != nil {
		logger.ErrorWithErr(ctx, "share export failed", err, "share_id", snap.ShareID)
		return res, err
	}
	res.Snapshot = snap

	logger.Info(ctx, "share exported",
		"share_id", snap.ShareID,
		"date", snap.Date,
		"trades", len(snap.Trades),
		"degraded_images", len(degraded),
	)
	return res, nil
}

// Gather reads everything the snapshot of one day needs. A missing
// reflection is not an error.
func (b *Builder) Gather(ctx context.Context, date time.Time, accountID string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	loc := b.opts.Location
	local := date.In(loc)
	day := local.Format(journal.DayLayout)

	snap := Snapshot{
		ShareID:   b.opts.NewID(),
		AccountID: accountID,
		Date:      day,
		CreatedAt: b.opts.Now().UTC(),
	}

	refl, err := b.src.GetReflection(ctx, accountID, day)
	switch {
	case err == nil:
		snap.Mood = refl.Mood
		snap.Summary = refl.Summary
		snap.Blocks = cloneBlocks(refl.Blocks)
	case errors.Is(err, journal.ErrNotFound):
	default:
		return Snapshot{}, fmt.Errorf("share: reflection: %w", err)
	}

	if snap.Notes, err = b.src.ListNotes(ctx, accountID, day); err != nil {
		return Snapshot{}, fmt.Errorf("share: notes: %w", err)
	}

	monthStart := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	month, err := b.src.ListTrades(ctx, journal.Query{
		AccountID: accountID,
		From:      monthStart,
		To:        monthStart.AddDate(0, 1, 0),
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("share: trades: %w", err)
	}

	opts := []metrics.Option{metrics.WithEpsilon(b.opts.Epsilon), metrics.WithLocation(loc)}
	for _, t := range month {
		if t.EntryTime.In(loc).Format(journal.DayLayout) == day {
			snap.Trades = append(snap.Trades, t)
		}
	}
	snap.Stats = metrics.Aggregate(snap.Trades, opts...)
	snap.Calendar = metrics.Daily(month, opts...)

	return snap, nil
}

// Stage copies every distinct image of snap and rewrites the block image
// URLs in place. Copy failures fall back to the original URL and are
// returned; the only error is a cancelled context.
func (b *Builder) Stage(ctx context.Context, snap *Snapshot) (degraded []DegradedImage, err error) {
	ctx, span := logger.StartSpan(ctx, "share.stage", attribute.String("share_id", snap.ShareID))
	defer func() { logger.EndSpan(span, err) }()

	owner := make(map[string]string)
	for _, blk := range snap.Blocks {
		for _, u := range blk.Images {
			if _, ok := owner[u]; !ok {
				owner[u] = blk.ID
			}
		}
	}

	copied := make(map[string]string)
	for _, src := range snap.Images() {
		if err := ctx.Err(); err != nil {
			return degraded, err
		}

		dst, err := b.copyImage(ctx, snap.ShareID, src)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return degraded, ctxErr
			}
			logger.Warn(ctx, "image copy failed, keeping original url",
				"share_id", snap.ShareID,
				"url", src,
				"error", err,
			)
			degraded = append(degraded, DegradedImage{URL: src, BlockID: owner[src], Err: err.Error()})
			dst = src
		}
		copied[src] = dst
	}

	for i := range snap.Blocks {
		for j, u := range snap.Blocks[i].Images {
			if dst, ok := copied[u]; ok {
				snap.Blocks[i].Images[j] = dst
			}
		}
	}
	return degraded, nil
}

func (b *Builder) copyImage(ctx context.Context, shareID, src string) (string, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = b.opts.RetryInterval

	attempt := 0
	return backoff.Retry(ctx, func() (string, error) {
		attempt++
		dst, err := b.images.Copy(ctx, shareID, src)
		if err != nil && ctx.Err() != nil {
			return "", backoff.Permanent(err)
		}
		return dst, err
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(b.opts.RetryAttempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.Debug(ctx, "image copy attempt failed",
				"url", src, "attempt", attempt, "retry_in", wait, "error", err)
		}),
	)
}

// Commit writes the documents of snap in one batch.
func (b *Builder) Commit(ctx context.Context, snap Snapshot) (err error) {
	ctx, span := logger.StartSpan(ctx, "share.commit", attribute.String("share_id", snap.ShareID))
	defer func() { logger.EndSpan(span, err) }()

	if err := ctx.Err(); err != nil {
		return err
	}

	docs := Documents(snap, b.opts.InlineLimit)
	if err := b.docs.Commit(ctx, docs); err != nil {
		return fmt.Errorf("share: commit: %w", err)
	}
	return nil
}

func cloneBlocks(in []journal.Block) []journal.Block {
	if in == nil {
		return nil
	}
	out := make([]journal.Block, len(in))
	for i, b := range in {
		out[i] = b
		out[i].Images = append([]string(nil), b.Images...)
	}
	return out
}
