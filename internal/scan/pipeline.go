// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package scan drives a full collection run: it ensures the pull request
// listing is present, filters it down to tracked items inside the window,
// resolves the per-item datasets, aggregates comment metrics into rows and
// reconciles those rows into the curated table.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	prscanerrors "github.com/sirseerhq/prscan/internal/errors"
	"github.com/sirseerhq/prscan/internal/github"
	"github.com/sirseerhq/prscan/internal/ident"
	"github.com/sirseerhq/prscan/internal/metadata"
	"github.com/sirseerhq/prscan/internal/metrics"
	"github.com/sirseerhq/prscan/internal/reconcile"
	"github.com/sirseerhq/prscan/internal/resolve"
	"github.com/sirseerhq/prscan/internal/snapshot"
	"github.com/sirseerhq/prscan/internal/table"
)

// Options configure one run of the pipeline.
type Options struct {
	// WindowStart drops items created before it. The zero time disables
	// the window.
	WindowStart time.Time

	// Allow is the set of tracked identifiers to keep. An empty set
	// keeps every item whose title carries an identifier.
	Allow ident.Set

	// ForceUpdate refetches the pull request listing even when a cached
	// snapshot exists. Per-item datasets stay cache-first; their
	// snapshots are keyed by item number and do not go stale when the
	// listing grows.
	ForceUpdate bool
}

// Result is the outcome of a run. Curated is the same table that was
// passed in, mutated in place by the reconciler. Matched counts the rows
// of this run that were applied to or intentionally dropped from the
// curated table.
type Result struct {
	Curated    *table.Table
	NotMatched []metrics.Row
	Overflow   []metrics.Row
	Matched    int
}

// Pipeline wires the collector, resolver and reconciler together for the
// duration of one run.
type Pipeline struct {
	collector  github.Collector
	resolver   *resolve.Resolver
	store      *snapshot.Store
	reconciler *reconcile.Reconciler
	tracker    *metadata.Tracker
	logger     *slog.Logger
	opts       Options
}

// New assembles a pipeline. tracker may be nil when no audit record is
// wanted, for example in tests.
func New(collector github.Collector, resolver *resolve.Resolver, store *snapshot.Store, reconciler *reconcile.Reconciler, tracker *metadata.Tracker, logger *slog.Logger, opts Options) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		collector:  collector,
		resolver:   resolver,
		store:      store,
		reconciler: reconciler,
		tracker:    tracker,
		logger:     logger,
		opts:       opts,
	}
}

// Run collects metric rows for every tracked item in the window and
// reconciles them into curated.
func (p *Pipeline) Run(ctx context.Context, curated *table.Table) (*Result, error) {
	rows, err := p.CollectRows(ctx)
	if err != nil {
		return nil, err
	}
	return p.reconcileRows(curated, rows)
}

// RunItem collects the metric row for a single pull request and
// reconciles it into curated. The identifier and window filters are not
// applied beyond requiring that the title carries an identifier; an
// explicitly requested item is scanned regardless of the window.
func (p *Pipeline) RunItem(ctx context.Context, curated *table.Table, number int) (*Result, error) {
	row, err := p.CollectRow(ctx, number)
	if err != nil {
		return nil, err
	}
	return p.reconcileRows(curated, []metrics.Row{row})
}

// CollectRows resolves the listing, filters it and builds one metric row
// per surviving item.
func (p *Pipeline) CollectRows(ctx context.Context) ([]metrics.Row, error) {
	pulls, err := p.listPulls(ctx)
	if err != nil {
		return nil, err
	}

	// A malformed record anywhere in the listing aborts the run before
	// any per-item work happens.
	for i := range pulls {
		if err := pulls[i].Validate(); err != nil {
			return nil, err
		}
	}

	kept := ident.Filter(pulls, p.opts.WindowStart, p.opts.Allow, p.logger)
	p.recordItems(pulls, kept)

	rows := make([]metrics.Row, 0, len(kept))
	for i := range kept {
		row, err := p.buildRow(ctx, &kept[i])
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", kept[i].Number, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// CollectRow resolves a single item and builds its metric row.
func (p *Pipeline) CollectRow(ctx context.Context, number int) (metrics.Row, error) {
	name := snapshot.PullItemName(number)
	if p.tracker != nil && p.store.HasItem(name) && !p.opts.ForceUpdate {
		p.tracker.RecordCacheHit()
	}

	resolver := p.resolver
	if p.opts.ForceUpdate {
		resolver = resolver.Forced()
	}

	pr, err := resolve.Item(ctx, resolver, name, func(ctx context.Context) (*github.PullRequest, error) {
		p.recordAPICall()
		return p.collector.GetPull(ctx, number)
	})
	if err != nil {
		return metrics.Row{}, err
	}
	if err := pr.Validate(); err != nil {
		return metrics.Row{}, err
	}
	if _, ok := ident.Extract(pr.Title); !ok {
		return metrics.Row{}, fmt.Errorf("item %d title %q: %w", number, pr.Title, prscanerrors.ErrMissingIdentifier)
	}

	if p.tracker != nil {
		p.tracker.RecordItem(pr.Number, pr.CreatedAt, pr.UpdatedAt, true)
	}
	return p.buildRow(ctx, pr)
}

// listPulls resolves the full pull request listing, from the snapshot
// when present unless a forced update was requested.
func (p *Pipeline) listPulls(ctx context.Context) ([]github.PullRequest, error) {
	kind := snapshot.PullsKind(p.resolver.PageSize())

	resolver := p.resolver
	if p.opts.ForceUpdate {
		resolver = resolver.Forced()
	} else if p.store.HasPages(kind) {
		if p.tracker != nil {
			p.tracker.RecordCacheHit()
		}
	}

	return resolve.Records(ctx, resolver, kind, func(ctx context.Context, page, perPage int) ([]github.PullRequest, error) {
		p.recordAPICall()
		return p.collector.ListPulls(ctx, page, perPage)
	}, nil)
}

// buildRow resolves the per-item datasets and aggregates them into one
// metric row.
func (p *Pipeline) buildRow(ctx context.Context, pr *github.PullRequest) (metrics.Row, error) {
	id, _ := ident.Extract(pr.Title)

	files, err := p.resolveFiles(ctx, pr.Number)
	if err != nil {
		return metrics.Row{}, err
	}
	issue, err := p.resolveComments(ctx, snapshot.IssueCommentsKind(pr.Number), pr.Number, p.collector.ListIssueComments, nil)
	if err != nil {
		return metrics.Row{}, err
	}
	// Review bodies are frequently empty shells around inline comments;
	// only substantive ones count.
	review, err := p.resolveComments(ctx, snapshot.ReviewsKind(pr.Number), pr.Number, p.collector.ListReviews, hasBody)
	if err != nil {
		return metrics.Row{}, err
	}
	threads, err := p.resolveComments(ctx, snapshot.ReviewCommentsKind(pr.Number), pr.Number, p.collector.ListReviewComments, nil)
	if err != nil {
		return metrics.Row{}, err
	}

	return metrics.NewRow(pr, id, metrics.FileNames(files),
		metrics.Aggregate(metrics.Bodies(issue)),
		metrics.Aggregate(metrics.Bodies(review)),
		metrics.Aggregate(metrics.Bodies(threads))), nil
}

type commentLister func(ctx context.Context, number, page, perPage int) ([]github.Comment, error)

func (p *Pipeline) resolveComments(ctx context.Context, kind string, number int, list commentLister, keep func(github.Comment) bool) ([]github.Comment, error) {
	p.noteCache(kind)
	return resolve.Records(ctx, p.resolver, kind, func(ctx context.Context, page, perPage int) ([]github.Comment, error) {
		p.recordAPICall()
		return list(ctx, number, page, perPage)
	}, keep)
}

func (p *Pipeline) resolveFiles(ctx context.Context, number int) ([]github.ChangedFile, error) {
	kind := snapshot.FilesKind(number)
	p.noteCache(kind)
	return resolve.Records(ctx, p.resolver, kind, func(ctx context.Context, page, perPage int) ([]github.ChangedFile, error) {
		p.recordAPICall()
		return p.collector.ListPullFiles(ctx, number, page, perPage)
	}, nil)
}

func (p *Pipeline) reconcileRows(curated *table.Table, rows []metrics.Row) (*Result, error) {
	notMatched, overflow, err := p.reconciler.Apply(curated, rows)
	if err != nil {
		return nil, err
	}

	matched := len(rows) - len(notMatched) - len(overflow)
	p.logger.Info("reconciliation complete",
		"rows", len(rows),
		"matched", matched,
		"not_matched", len(notMatched),
		"overflow", len(overflow))

	return &Result{Curated: curated, NotMatched: notMatched, Overflow: overflow, Matched: matched}, nil
}

// Outcome summarizes a result for the run audit record.
func (r *Result) Outcome() metadata.Outcome {
	return metadata.Outcome{
		Matched:    r.Matched,
		NotMatched: len(r.NotMatched),
		Overflow:   len(r.Overflow),
	}
}

func (p *Pipeline) recordItems(all, kept []github.PullRequest) {
	if p.tracker == nil {
		return
	}
	keptSet := make(map[int]bool, len(kept))
	for i := range kept {
		keptSet[kept[i].Number] = true
	}
	for i := range all {
		pr := &all[i]
		p.tracker.RecordItem(pr.Number, pr.CreatedAt, pr.UpdatedAt, keptSet[pr.Number])
	}
}

func (p *Pipeline) recordAPICall() {
	if p.tracker != nil {
		p.tracker.RecordAPICall()
	}
}

func (p *Pipeline) noteCache(kind string) {
	if p.tracker != nil && p.store.HasPages(kind) {
		p.tracker.RecordCacheHit()
	}
}

func hasBody(c github.Comment) bool {
	return len(c.Body) > 0
}
