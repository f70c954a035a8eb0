package collector

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds concurrent entity fetches. The API's per-second
// ceiling makes wider fan-out pointless.
const DefaultWorkers = 5

// FailedEntity records one entity excluded from the snapshot.
type FailedEntity struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Summary is the per-run success/failure accounting. A run always ends
// with one of these; there is no silent partial success.
type Summary struct {
	Succeeded []string       `json:"succeeded"`
	Failed    []FailedEntity `json:"failed"`
}

// Collector produces one Snapshot per run from a configured entity list.
type Collector struct {
	client  *Client
	workers int
	now     func() time.Time
	log     *zap.Logger
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithWorkers sets the concurrent fetch bound.
func WithWorkers(n int) CollectorOption {
	return func(c *Collector) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithCollectorLogger attaches a logger.
func WithCollectorLogger(l *zap.Logger) CollectorOption {
	return func(c *Collector) { c.log = l }
}

// WithCollectorClock injects the snapshot timestamp source.
func WithCollectorClock(f func() time.Time) CollectorOption {
	return func(c *Collector) { c.now = f }
}

// New builds a Collector around an API client.
func New(client *Client, opts ...CollectorOption) *Collector {
	c := &Collector{
		client:  client,
		workers: DefaultWorkers,
		now:     time.Now,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchAll runs one complete collection: reference data first (fatal on
// any failure), then every entity with bounded concurrency. Per-entity
// failures are folded into the summary instead of aborting; a canceled
// context aborts the run with no snapshot.
func (c *Collector) FetchAll(ctx context.Context, ids []string) (*Snapshot, *Summary, error) {
	refs, err := c.client.FetchReferenceData(ctx)
	if err != nil {
		return nil, nil, err
	}
	c.log.Info("reference data fetched", zap.Int("categories", len(refs)))

	records := make([]*EntityRecord, len(ids))
	errs := make([]error, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			rec, err := c.client.FetchEntity(gctx, id, refs)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				errs[i] = err
				c.log.Warn("entity fetch failed", zap.String("id", id), zap.Error(err))
				return nil
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("collection aborted: %w", err)
	}

	snap := &Snapshot{
		FetchedAt:     c.now().UTC(),
		ReferenceData: refs,
	}
	summary := &Summary{Succeeded: []string{}, Failed: []FailedEntity{}}
	for i, id := range ids {
		if records[i] != nil {
			snap.Projects = append(snap.Projects, records[i])
			summary.Succeeded = append(summary.Succeeded, id)
			continue
		}
		summary.Failed = append(summary.Failed, FailedEntity{ID: id, Reason: errs[i].Error()})
	}

	c.log.Info("collection finished",
		zap.Int("succeeded", len(summary.Succeeded)),
		zap.Int("failed", len(summary.Failed)))
	return snap, summary, nil
}
