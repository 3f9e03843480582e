package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/jobradar/internal/adapter"
	"github.com/amishk599/jobradar/internal/filter"
	"github.com/amishk599/jobradar/internal/metrics"
	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/state"
)

// --- Fakes ---

// fakeFetcher serves canned postings and errors keyed by organization name.
type fakeFetcher struct {
	postings map[string][]model.Posting
	errs     map[string]error
	delay    time.Duration
	onFetch  func(org model.Organization)

	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeFetcher) Fetch(ctx context.Context, org model.Organization) ([]model.Posting, error) {
	if f.onFetch != nil {
		f.onFetch(org)
	}
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.postings[org.Name], f.errs[org.Name]
}

// memStore is an in-memory snapshot store.
type memStore struct {
	snap    state.Snapshot
	loadErr error
	saveErr error
	saves   int
	onLoad  func()
}

func (s *memStore) Load(context.Context) (state.Snapshot, error) {
	if s.onLoad != nil {
		s.onLoad()
	}
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	out := state.Snapshot{}
	for k, v := range s.snap {
		out[k] = v
	}
	return out, nil
}

func (s *memStore) Save(_ context.Context, snap state.Snapshot) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.snap = snap
	return nil
}

func (s *memStore) Close() error { return nil }

// recordingNotifier records which postings were sent to Notify.
type recordingNotifier struct {
	mu       sync.Mutex
	calls    int
	notified []model.Posting
	err      error
}

func (n *recordingNotifier) Notify(_ context.Context, postings []model.Posting) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	n.notified = append(n.notified, postings...)
	return n.err
}

type acceptAll struct{}

func (acceptAll) Match(model.Posting) bool { return true }

// --- Helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func org(name, provider string) model.Organization {
	return model.Organization{Name: name, Provider: provider, ID: strings.ToLower(name)}
}

func posting(id, company, title, location string) model.Posting {
	return model.Posting{ID: id, Organization: company, Title: title, Location: location, Provider: "greenhouse"}
}

func runOpts() Options {
	return Options{Workers: 4, Out: io.Discard}
}

// --- Tests ---

func TestRun_EndToEnd(t *testing.T) {
	classifier, err := filter.New(filter.Options{Ruleset: filter.RulesetStrict, MinPostedDate: "2026-02-01"})
	if err != nil {
		t.Fatal(err)
	}

	kept := posting("greenhouse-1", "Acme", "Software Engineer", "Remote")
	fresh := posting("greenhouse-2", "Acme", "Backend Engineer", "San Francisco, CA")
	rejected := posting("greenhouse-3", "Acme", "Senior Software Engineer", "Remote")

	fetcher := &fakeFetcher{postings: map[string][]model.Posting{"Acme": {kept, fresh, rejected}}}
	store := state.NewJSONFileStore(filepath.Join(t.TempDir(), "state", "jobs_seen.json"))
	if err := store.Save(context.Background(), state.Snapshot{kept.ID: kept}); err != nil {
		t.Fatal(err)
	}
	n := &recordingNotifier{}
	reportPath := filepath.Join(t.TempDir(), "new_jobs.json")

	p := New(fetcher, classifier, store, n, nil, discardLogger())
	opts := runOpts()
	opts.ReportPath = reportPath
	summary, err := p.Run(context.Background(), []model.Organization{org("Acme", "greenhouse")}, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(summary.New) != 1 || summary.New[0].ID != fresh.ID {
		t.Fatalf("expected exactly the fresh posting as new, got %+v", summary.New)
	}
	if n.calls != 1 || len(n.notified) != 1 || n.notified[0].ID != fresh.ID {
		t.Errorf("notifier got %d calls with %+v", n.calls, n.notified)
	}

	snap, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap) != 2 {
		t.Errorf("expected 2 snapshot entries, got %d", len(snap))
	}
	if _, ok := snap[rejected.ID]; ok {
		t.Error("rejected posting must not enter the snapshot")
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	var report state.Report
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatal(err)
	}
	if report.Count != 1 {
		t.Errorf("report count = %d, want 1", report.Count)
	}
}

func TestRun_FailingOrganizationDoesNotAbortSiblings(t *testing.T) {
	fetcher := &fakeFetcher{
		postings: map[string][]model.Posting{
			"Good": {posting("g-1", "Good", "SWE", "")},
		},
		errs: map[string]error{"Bad": &model.HTTPError{StatusCode: 500}},
	}
	n := &recordingNotifier{}
	p := New(fetcher, acceptAll{}, &memStore{}, n, nil, discardLogger())

	summary, err := p.Run(context.Background(), []model.Organization{org("Bad", "lever"), org("Good", "lever")}, runOpts())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Failed != 1 {
		t.Errorf("Failed = %d, want 1", summary.Failed)
	}
	if len(summary.New) != 1 || len(n.notified) != 1 {
		t.Errorf("expected the good organization's posting to be notified, got %+v", n.notified)
	}
}

func TestRun_PartialResultsAreKept(t *testing.T) {
	fetcher := &fakeFetcher{
		postings: map[string][]model.Posting{"Big": {posting("w-1", "Big", "SWE", ""), posting("w-2", "Big", "SDE", "")}},
		errs:     map[string]error{"Big": errors.New("page at offset 20: timeout")},
	}
	p := New(fetcher, acceptAll{}, &memStore{}, &recordingNotifier{}, nil, discardLogger())

	summary, err := p.Run(context.Background(), []model.Organization{org("Big", "workday")}, runOpts())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Partial != 1 || summary.Failed != 0 {
		t.Errorf("Partial=%d Failed=%d, want 1 and 0", summary.Partial, summary.Failed)
	}
	if len(summary.New) != 2 {
		t.Errorf("expected partial postings to be kept, got %d", len(summary.New))
	}
}

func TestRun_UnknownProviderIsSkipped(t *testing.T) {
	registry := adapter.NewRegistry(adapter.Options{})
	registry.Register(adapter.KindLever, &fakeFetcher{postings: map[string][]model.Posting{"Known": {posting("l-1", "Known", "SWE", "")}}})

	p := New(registry, acceptAll{}, &memStore{}, &recordingNotifier{}, nil, discardLogger())
	summary, err := p.Run(context.Background(), []model.Organization{org("Mystery", "taleo"), org("Known", "lever")}, runOpts())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Failed != 1 || len(summary.New) != 1 {
		t.Errorf("Failed=%d New=%d, want 1 and 1", summary.Failed, len(summary.New))
	}
}

func TestRun_DryRunSkipsPersistenceAndNotification(t *testing.T) {
	fetcher := &fakeFetcher{postings: map[string][]model.Posting{"Acme": {posting("a-1", "Acme", "SWE", "")}}}
	store := &memStore{}
	n := &recordingNotifier{}
	reportPath := filepath.Join(t.TempDir(), "new_jobs.json")

	p := New(fetcher, acceptAll{}, store, n, nil, discardLogger())
	var out bytes.Buffer
	opts := Options{DryRun: true, ReportPath: reportPath, Out: &out}
	summary, err := p.Run(context.Background(), []model.Organization{org("Acme", "greenhouse")}, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(summary.New) != 1 || !summary.DryRun {
		t.Errorf("unexpected summary %+v", summary)
	}
	if store.saves != 0 {
		t.Errorf("dry run saved the snapshot %d times", store.saves)
	}
	if n.calls != 0 {
		t.Errorf("dry run notified %d times", n.calls)
	}
	if _, err := os.Stat(reportPath); !os.IsNotExist(err) {
		t.Errorf("dry run wrote the report: %v", err)
	}
	if !strings.Contains(out.String(), "1 NEW POSTING(S) FOUND") || !strings.Contains(out.String(), "Acme | SWE") {
		t.Errorf("expected new postings to be printed, got:\n%s", out.String())
	}
}

func TestRun_NoNewPostingsStillRefreshesSnapshot(t *testing.T) {
	old := posting("a-1", "Acme", "Software Engineer", "")
	edited := old
	edited.Title = "Software Engineer I"

	store := &memStore{snap: state.Snapshot{old.ID: old}}
	n := &recordingNotifier{}
	fetcher := &fakeFetcher{postings: map[string][]model.Posting{"Acme": {edited}}}

	p := New(fetcher, acceptAll{}, store, n, nil, discardLogger())
	summary, err := p.Run(context.Background(), []model.Organization{org("Acme", "greenhouse")}, runOpts())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.New) != 0 || n.calls != 0 {
		t.Errorf("expected no notification, got %d calls", n.calls)
	}
	if store.saves != 1 || store.snap[old.ID].Title != "Software Engineer I" {
		t.Errorf("expected refreshed snapshot to be saved, saves=%d snap=%+v", store.saves, store.snap)
	}
}

func TestRun_UnreadableSnapshotIsColdStart(t *testing.T) {
	store := &memStore{loadErr: errors.New("parsing snapshot: unexpected EOF")}
	fetcher := &fakeFetcher{postings: map[string][]model.Posting{"Acme": {posting("a-1", "Acme", "SWE", ""), posting("a-2", "Acme", "SDE", "")}}}

	p := New(fetcher, acceptAll{}, store, &recordingNotifier{}, nil, discardLogger())
	summary, err := p.Run(context.Background(), []model.Organization{org("Acme", "greenhouse")}, runOpts())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.New) != 2 {
		t.Errorf("expected every posting to be new, got %d", len(summary.New))
	}
}

func TestRun_LoadsSnapshotBeforeFetching(t *testing.T) {
	var events []string
	store := &memStore{onLoad: func() { events = append(events, "load") }}
	fetcher := &fakeFetcher{
		postings: map[string][]model.Posting{"Acme": {posting("a-1", "Acme", "SWE", "")}},
		onFetch:  func(o model.Organization) { events = append(events, "fetch "+o.Name) },
	}

	p := New(fetcher, acceptAll{}, store, &recordingNotifier{}, nil, discardLogger())
	if _, err := p.Run(context.Background(), []model.Organization{org("Acme", "greenhouse")}, runOpts()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.Join(events, ",") != "load,fetch Acme" {
		t.Errorf("events = %v, want the snapshot loaded before any fetch", events)
	}
}

func TestRun_InterruptedRunSavesAndNotifiesNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Acme finishes, then the run is interrupted while Beta is still fetching.
	fetcher := &fakeFetcher{
		postings: map[string][]model.Posting{"Acme": {posting("a-1", "Acme", "SWE", "")}},
		onFetch: func(o model.Organization) {
			if o.Name == "Beta" {
				cancel()
			}
		},
	}
	store := &memStore{}
	n := &recordingNotifier{}
	p := New(fetcher, acceptAll{}, store, n, nil, discardLogger())

	orgs := []model.Organization{org("Acme", "greenhouse"), org("Beta", "lever")}
	_, err := p.Run(ctx, orgs, Options{Workers: 1, Out: io.Discard})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if store.saves != 0 {
		t.Error("an interrupted run must not mark postings as seen")
	}
	if n.calls != 0 {
		t.Error("an interrupted run must not notify")
	}
}

// ctxNotifier records whether its context was already done.
type ctxNotifier struct {
	err error
}

func (n *ctxNotifier) Notify(ctx context.Context, _ []model.Posting) error {
	n.err = ctx.Err()
	return nil
}

func TestRun_PersistAndNotifyIgnoreLateCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The signal arrives after the fetch phase, while the snapshot is being saved.
	store := &cancelOnSave{cancel: cancel}
	n := &ctxNotifier{}
	fetcher := &fakeFetcher{postings: map[string][]model.Posting{"Acme": {posting("a-1", "Acme", "SWE", "")}}}
	p := New(fetcher, acceptAll{}, store, n, nil, discardLogger())

	if _, err := p.Run(ctx, []model.Organization{org("Acme", "greenhouse")}, runOpts()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if store.saveErr != nil {
		t.Errorf("save saw a cancelled context: %v", store.saveErr)
	}
	if n.err != nil {
		t.Errorf("notify saw a cancelled context: %v", n.err)
	}
}

// cancelOnSave cancels the run context as soon as Save is called and records
// the context error Save observed afterwards.
type cancelOnSave struct {
	memStore
	cancel  context.CancelFunc
	saveErr error
}

func (s *cancelOnSave) Save(ctx context.Context, snap state.Snapshot) error {
	s.cancel()
	s.saveErr = ctx.Err()
	return s.memStore.Save(ctx, snap)
}

func TestRun_NotifierErrorIsNotFatal(t *testing.T) {
	fetcher := &fakeFetcher{postings: map[string][]model.Posting{"Acme": {posting("a-1", "Acme", "SWE", "")}}}
	store := &memStore{}
	m := metrics.New()
	p := New(fetcher, acceptAll{}, store, &recordingNotifier{err: errors.New("webhook down")}, m, discardLogger())

	if _, err := p.Run(context.Background(), []model.Organization{org("Acme", "greenhouse")}, runOpts()); err != nil {
		t.Fatalf("expected notifier failure to be logged only, got %v", err)
	}
	if store.saves != 1 {
		t.Error("snapshot must be saved before notifying")
	}
}

func TestRun_SaveErrorIsReturnedAndSkipsNotify(t *testing.T) {
	fetcher := &fakeFetcher{postings: map[string][]model.Posting{"Acme": {posting("a-1", "Acme", "SWE", "")}}}
	n := &recordingNotifier{}
	p := New(fetcher, acceptAll{}, &memStore{saveErr: errors.New("disk full")}, n, nil, discardLogger())

	if _, err := p.Run(context.Background(), []model.Organization{org("Acme", "greenhouse")}, runOpts()); err == nil {
		t.Fatal("expected save error")
	}
	if n.calls != 0 {
		t.Error("must not notify when the snapshot could not be saved")
	}
}

func TestRun_RunTimeoutBoundsFetchPhase(t *testing.T) {
	fetcher := &fakeFetcher{delay: 5 * time.Second}
	store := &memStore{}
	p := New(fetcher, acceptAll{}, store, &recordingNotifier{}, nil, discardLogger())

	opts := runOpts()
	opts.RunTimeout = 50 * time.Millisecond
	start := time.Now()
	summary, err := p.Run(context.Background(), []model.Organization{org("Slow", "workday")}, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("run timeout not applied, took %v", elapsed)
	}
	if summary.Failed != 1 {
		t.Errorf("Failed = %d, want 1", summary.Failed)
	}
	if store.saves != 1 {
		t.Error("snapshot should still be saved after the fetch phase times out")
	}
}

func TestFetchAll_BoundedConcurrencyAndOrder(t *testing.T) {
	postings := map[string][]model.Posting{}
	var orgs []model.Organization
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G", "H"} {
		orgs = append(orgs, org(name, "lever"))
		postings[name] = []model.Posting{posting(name+"-1", name, "SWE", "")}
	}
	fetcher := &fakeFetcher{postings: postings, delay: 20 * time.Millisecond}
	p := New(fetcher, acceptAll{}, &memStore{}, &recordingNotifier{}, nil, discardLogger())

	results := p.FetchAll(context.Background(), orgs, 3)

	if peak := fetcher.maxSeen.Load(); peak > 3 {
		t.Errorf("expected at most 3 concurrent fetches, saw %d", peak)
	}
	for i, r := range results {
		if r.Organization.Name != orgs[i].Name || r.Postings[0].Organization != orgs[i].Name {
			t.Errorf("result %d belongs to %q, want %q", i, r.Organization.Name, orgs[i].Name)
		}
	}
}
