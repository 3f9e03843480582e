package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobradar/internal/adapter"
	"github.com/amishk599/jobradar/internal/metrics"
	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/state"
)

const (
	defaultWorkers = 10
	persistTimeout = 2 * time.Minute // bounds saving and notifying after the fetch phase
)

// Options controls a single run.
type Options struct {
	Workers    int           // concurrent organization fetches; zero means 10
	RunTimeout time.Duration // bounds the fetch phase; zero means none
	DryRun     bool          // skip the report, the snapshot save and the notifier
	ReportPath string        // new-postings report; empty disables it
	Out        io.Writer     // where new postings are printed; nil means stdout
}

// Summary describes what a run did.
type Summary struct {
	Organizations int
	Failed        int
	Partial       int
	Fetched       int
	Matched       int
	New           []model.Posting
	SnapshotSize  int
	DryRun        bool
	Duration      time.Duration
}

// Pipeline fetches every organization, classifies the postings, diffs them
// against the snapshot and hands the new ones to the notifier.
type Pipeline struct {
	fetcher    model.Fetcher
	classifier model.Classifier
	store      state.Store
	notifier   model.Notifier
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a pipeline wired with all its dependencies. m may be nil.
func New(
	fetcher model.Fetcher,
	classifier model.Classifier,
	store state.Store,
	notifier model.Notifier,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		fetcher:    fetcher,
		classifier: classifier,
		store:      store,
		notifier:   notifier,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// Run executes one full pass over orgs. Per-organization failures are logged
// and never abort the run. The returned error is reserved for an interrupted
// fetch phase and for failures that would corrupt the next run, such as being
// unable to save the snapshot.
func (p *Pipeline) Run(ctx context.Context, orgs []model.Organization, opts Options) (Summary, error) {
	start := p.now()
	summary := Summary{Organizations: len(orgs), DryRun: opts.DryRun}

	p.logger.Info("scanning companies", "count", len(orgs), "dry_run", opts.DryRun)

	prior, err := p.store.Load(ctx)
	if err != nil {
		p.logger.Warn("snapshot unreadable, treating every posting as new", "error", err)
		prior = state.Snapshot{}
	}

	fetchCtx := ctx
	if opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, opts.RunTimeout)
		defer cancel()
	}
	results := p.FetchAll(fetchCtx, orgs, opts.Workers)

	// An interrupted run saves nothing, so the next run still reports and
	// notifies what this one found.
	if err := ctx.Err(); err != nil {
		p.logger.Warn("run interrupted, snapshot not saved", "error", err)
		return summary, fmt.Errorf("run interrupted: %w", err)
	}

	var all []model.Posting
	for _, r := range results {
		switch {
		case r.OK():
		case r.Partial():
			summary.Partial++
		default:
			summary.Failed++
		}
		all = append(all, r.Postings...)
	}
	summary.Fetched = len(all)
	p.logger.Info("total fetched (pre-filter)", "postings", len(all), "failed", summary.Failed, "partial", summary.Partial)

	matched := make([]model.Posting, 0, len(all))
	for _, posting := range all {
		if p.classifier.Match(posting) {
			matched = append(matched, posting)
		}
	}
	summary.Matched = len(matched)
	p.logger.Info("after filter", "postings", len(matched))

	fresh, updated := state.Reconcile(matched, prior)
	summary.New = fresh
	summary.SnapshotSize = len(updated)
	p.logger.Info("new (not seen before)", "postings", len(fresh))

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if len(fresh) > 0 {
		PrintPostings(out, fresh)
	}

	if opts.DryRun {
		p.logger.Info("dry run: snapshot not saved, no notification sent")
	} else {
		// Once saving starts, a signal must not split the save from the notify.
		persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
		err := p.persistAndNotify(persistCtx, fresh, updated, opts.ReportPath)
		cancel()
		if err != nil {
			return summary, err
		}
	}

	summary.Duration = p.now().Sub(start)
	if p.metrics != nil {
		p.metrics.ObserveRun(summary.Matched, len(fresh), summary.SnapshotSize, p.now(), summary.Duration)
	}
	p.logger.Info("run complete",
		"companies", summary.Organizations,
		"fetched", summary.Fetched,
		"matched", summary.Matched,
		"new", len(fresh),
		"duration", summary.Duration.Round(time.Millisecond),
	)
	return summary, nil
}

// persistAndNotify writes the report and the snapshot before notifying, so a
// crash after the save can lose an alert but never repeat one.
func (p *Pipeline) persistAndNotify(ctx context.Context, fresh []model.Posting, updated state.Snapshot, reportPath string) error {
	if len(fresh) > 0 && reportPath != "" {
		if err := state.WriteReport(reportPath, fresh, p.now()); err != nil {
			p.logger.Error("writing new-postings report", "path", reportPath, "error", err)
		} else {
			p.logger.Info("new postings saved", "path", reportPath)
		}
	}

	if err := p.store.Save(ctx, updated); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	p.logger.Info("snapshot saved", "tracked", len(updated))

	if len(fresh) == 0 {
		return nil
	}
	if err := p.notifier.Notify(ctx, fresh); err != nil {
		p.logger.Warn("notification failed", "postings", len(fresh), "error", err)
		if p.metrics != nil {
			p.metrics.NotifyFailedTotal.Inc()
		}
	}
	return nil
}

// FetchAll fetches every organization with at most workers in flight. The
// results are indexed like orgs. A failing organization never cancels its
// siblings.
func (p *Pipeline) FetchAll(ctx context.Context, orgs []model.Organization, workers int) []model.FetchResult {
	if workers <= 0 {
		workers = defaultWorkers
	}

	results := make([]model.FetchResult, len(orgs))
	var g errgroup.Group
	g.SetLimit(workers)

	for i, org := range orgs {
		g.Go(func() error {
			results[i] = p.fetchOne(ctx, org)
			return nil
		})
	}
	g.Wait()

	return results
}

func (p *Pipeline) fetchOne(ctx context.Context, org model.Organization) model.FetchResult {
	start := p.now()
	postings, err := p.fetcher.Fetch(ctx, org)
	elapsed := p.now().Sub(start)

	result := model.FetchResult{Organization: org, Postings: postings, Err: err}
	if p.metrics != nil {
		p.metrics.ObserveFetch(adapter.Canonical(org.ProviderKind()), len(postings), err, elapsed)
	}

	switch {
	case err == nil:
		p.logger.Debug("fetched company", "company", org.Name, "provider", org.Provider, "postings", len(postings), "elapsed", elapsed)
	case errors.Is(err, adapter.ErrUnknownProvider):
		p.logger.Warn("unsupported provider, skipping", "company", org.Name, "provider", org.Provider)
	case len(postings) > 0:
		p.logger.Warn("partial fetch, keeping earlier pages", "company", org.Name, "provider", org.Provider, "postings", len(postings), "error", err)
	default:
		p.logger.Warn("fetch failed", "company", org.Name, "provider", org.Provider, "error", err)
	}
	return result
}
