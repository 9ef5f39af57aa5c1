package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robertmeta/catalog-cli/model"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTimeout     = 30 * time.Second
	DefaultConcurrency = 8
)

// ErrNoFeeds is returned when the feed list is empty.
var ErrNoFeeds = errors.New("no feeds configured")

// FeedError reports the failure of a single feed during a load.
type FeedError struct {
	Source model.Source
	Err    error
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("feed %s (%s): %v", e.Source.Tag, e.Source.Location, e.Err)
}

func (e *FeedError) Unwrap() error {
	return e.Err
}

// FailedFeeds returns the per-feed failures contained in a Load error.
func FailedFeeds(err error) []*FeedError {
	errs := []error{err}
	var group interface{ Errors() []error }
	if errors.As(err, &group) {
		errs = group.Errors()
	}

	var failed []*FeedError
	for _, e := range errs {
		var fe *FeedError
		if errors.As(e, &fe) {
			failed = append(failed, fe)
		}
	}
	return failed
}

// SnapshotCache stores raw feed bodies between runs.
type SnapshotCache interface {
	Get(location string) (string, bool)
	Put(location, body string) error
}

// Loader fetches a list of feeds concurrently and merges them into one collection.
type Loader struct {
	fetcher     *Fetcher
	cache       SnapshotCache
	log         *zap.SugaredLogger
	timeout     time.Duration
	concurrency int
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithCache serves fresh snapshots from c and stores fetched bodies in it.
func WithCache(c SnapshotCache) LoaderOption {
	return func(l *Loader) { l.cache = c }
}

// WithTimeout bounds the fetch of each individual feed.
func WithTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) { l.timeout = d }
}

// WithConcurrency limits how many feeds are fetched at once.
func WithConcurrency(n int) LoaderOption {
	return func(l *Loader) { l.concurrency = n }
}

// WithLogger sets the logger used for load diagnostics.
func WithLogger(log *zap.SugaredLogger) LoaderOption {
	return func(l *Loader) { l.log = log }
}

// NewLoader creates a Loader that fetches through fetcher.
func NewLoader(fetcher *Fetcher, opts ...LoaderOption) *Loader {
	l := &Loader{
		fetcher:     fetcher,
		log:         zap.NewNop().Sugar(),
		timeout:     DefaultTimeout,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load tags the locations by position and loads them with LoadSources.
func (l *Loader) Load(ctx context.Context, locations []string) ([]model.Product, error) {
	return l.LoadSources(ctx, model.NewSources(locations))
}

// LoadSources fetches and parses every source concurrently. The result is the
// concatenation of all feeds in source order, then row order. If any feed
// fails, no products are returned and the error combines a *FeedError for
// every failed feed. A load canceled through ctx returns ctx's error.
func (l *Loader) LoadSources(ctx context.Context, sources []model.Source) ([]model.Product, error) {
	if len(sources) == 0 {
		return nil, ErrNoFeeds
	}

	results := make([][]model.Product, len(sources))
	errs := make([]error, len(sources))

	var g errgroup.Group
	if l.concurrency > 0 {
		g.SetLimit(l.concurrency)
	}

	for i, src := range sources {
		i, src := i, src // per-iteration copy (go 1.21 loop semantics)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			products, err := l.loadOne(ctx, src)
			if err != nil {
				errs[i] = &FeedError{Source: src, Err: err}
				return nil
			}
			results[i] = products
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	if err := multierr.Combine(errs...); err != nil {
		for _, fe := range FailedFeeds(err) {
			l.log.Errorw("feed load failed", "tag", fe.Source.Tag, "location", fe.Source.Location, "error", fe.Err)
		}
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	merged := make([]model.Product, 0, total)
	for _, r := range results {
		merged = append(merged, r...)
	}

	l.log.Infow("catalog loaded", "feeds", len(sources), "products", len(merged))
	return merged, nil
}

func (l *Loader) loadOne(ctx context.Context, src model.Source) ([]model.Product, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}

	body, err := l.body(ctx, src)
	if err != nil {
		return nil, err
	}

	products, defects, err := Parse(body, src)
	if err != nil {
		return nil, err
	}

	if defects.Any() {
		l.log.Warnw("feed has unparseable values, defaulted",
			"tag", src.Tag, "location", src.Location,
			"bad_prices", defects.Prices, "bad_dates", defects.Dates)
	}
	l.log.Debugw("feed parsed", "tag", src.Tag, "location", src.Location, "products", len(products))

	return products, nil
}

func (l *Loader) body(ctx context.Context, src model.Source) (string, error) {
	if l.cache != nil {
		if body, ok := l.cache.Get(src.Location); ok {
			l.log.Debugw("feed served from cache", "tag", src.Tag, "location", src.Location)
			return body, nil
		}
	}

	fetchCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	body, err := l.fetcher.Fetch(fetchCtx, src.Location)
	if err != nil {
		return "", err
	}

	if l.cache != nil {
		if err := l.cache.Put(src.Location, body); err != nil {
			l.log.Warnw("failed to cache feed snapshot", "location", src.Location, "error", err)
		}
	}
	return body, nil
}
