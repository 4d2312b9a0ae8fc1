package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/amaumene/reelwatch/internal/config"
	"github.com/amaumene/reelwatch/internal/controllers"
	"github.com/amaumene/reelwatch/internal/metrics"
	"github.com/amaumene/reelwatch/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	mu        sync.Mutex
	platform  models.Platform
	available bool
	items     map[string][]models.RawItem
	errs      map[string]error
	panics    map[string]bool
	calls     []string
	block     chan struct{}
	started   chan struct{}
	ctxErr    error
}

func (f *fakeFetcher) Platform() models.Platform { return f.platform }

func (f *fakeFetcher) Available() bool { return f.available }

func (f *fakeFetcher) FetchRecent(ctx context.Context, account *models.SocialAccount, since time.Time) ([]models.RawItem, error) {
	f.mu.Lock()
	f.calls = append(f.calls, account.Username)
	f.mu.Unlock()

	if f.block != nil {
		close(f.started)
		<-f.block
		f.ctxErr = ctx.Err()
	}
	if f.panics[account.Username] {
		panic("unexpected payload")
	}
	if err := f.errs[account.Username]; err != nil {
		return nil, err
	}
	return f.items[account.Username], nil
}

type fakeAccountStore struct {
	mu       sync.Mutex
	accounts []models.SocialAccount
	listErr  error
	touched  []uint
	events   []models.MonitoringEvent
}

func (s *fakeAccountStore) GetActiveAccounts(ctx context.Context, platform models.Platform) ([]models.SocialAccount, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]models.SocialAccount(nil), s.accounts...), nil
}

func (s *fakeAccountStore) TouchAccount(ctx context.Context, id uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = append(s.touched, id)
	return nil
}

func (s *fakeAccountStore) LogEvent(ctx context.Context, e *models.MonitoringEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *e)
	return nil
}

func (s *fakeAccountStore) eventsWithStatus(status models.EventStatus) []models.MonitoringEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.MonitoringEvent
	for _, e := range s.events {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

type fakeIngester struct {
	mu    sync.Mutex
	items []models.RawItem
}

func (i *fakeIngester) Ingest(ctx context.Context, platform models.Platform, item models.RawItem) (controllers.Outcome, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.items = append(i.items, item)
	return controllers.OutcomeStored, nil
}

func (i *fakeIngester) contentIDs() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	ids := make([]string, 0, len(i.items))
	for _, item := range i.items {
		ids = append(ids, item.ContentID)
	}
	return ids
}

func testConfig() *config.Config {
	return &config.Config{
		RequestTimeout: time.Second,
		IdleBackoff:    time.Minute,
		Platforms: map[models.Platform]config.PlatformConfig{
			models.PlatformTwitter: {
				Interval:      10 * time.Minute,
				AccountDelay:  5 * time.Second,
				RecencyWindow: 24 * time.Hour,
			},
		},
	}
}

type loopFixture struct {
	loop     *Loop
	fetcher  *fakeFetcher
	store    *fakeAccountStore
	ingester *fakeIngester
	metrics  *metrics.Metrics
	sleeps   []time.Duration
}

func newLoopFixture(t *testing.T, usernames ...string) *loopFixture {
	t.Helper()
	f := &loopFixture{
		fetcher: &fakeFetcher{
			platform:  models.PlatformTwitter,
			available: true,
			items:     make(map[string][]models.RawItem),
			errs:      make(map[string]error),
			panics:    make(map[string]bool),
		},
		store:    &fakeAccountStore{},
		ingester: &fakeIngester{},
		metrics:  metrics.New(),
	}
	for i, name := range usernames {
		f.store.accounts = append(f.store.accounts, models.SocialAccount{
			ID:       uint(i + 1),
			Name:     name,
			Platform: models.PlatformTwitter,
			Username: name,
			Language: models.LanguageTelugu,
			Active:   true,
		})
		f.fetcher.items[name] = []models.RawItem{{ContentID: name + "-1", PublishedAt: testNow.Add(-time.Hour)}}
	}

	f.loop = NewLoop(f.fetcher, f.store, f.ingester, testConfig(), f.metrics, zerolog.New(io.Discard))
	f.loop.now = func() time.Time { return testNow }
	f.loop.sleep = func(ctx context.Context, d time.Duration) bool {
		f.sleeps = append(f.sleeps, d)
		return ctx.Err() == nil
	}
	return f
}

func TestRunBatchDropsStaleItems(t *testing.T) {
	f := newLoopFixture(t, "alpha")
	f.fetcher.items["alpha"] = []models.RawItem{
		{ContentID: "old", PublishedAt: testNow.Add(-25 * time.Hour)},
		{ContentID: "fresh", PublishedAt: testNow.Add(-23 * time.Hour)},
	}

	polled, found, err := f.loop.RunBatch(context.Background())
	if err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}
	if polled != 1 || found != 1 {
		t.Errorf("Expected 1 account and 1 update, got %d and %d", polled, found)
	}

	ids := f.ingester.contentIDs()
	if len(ids) != 1 || ids[0] != "fresh" {
		t.Errorf("Expected only the fresh item to be ingested, got %v", ids)
	}
	if got := testutil.ToFloat64(f.metrics.ItemsStale.WithLabelValues("twitter")); got != 1 {
		t.Errorf("Expected one stale item metric, got %v", got)
	}
}

func TestRunBatchKeepsUndatedItems(t *testing.T) {
	f := newLoopFixture(t, "alpha")
	f.fetcher.items["alpha"] = []models.RawItem{
		{ContentID: "undated"},
	}

	polled, found, err := f.loop.RunBatch(context.Background())
	if err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}
	if polled != 1 || found != 1 {
		t.Errorf("Expected 1 account and 1 update, got %d and %d", polled, found)
	}

	if len(f.ingester.items) != 1 {
		t.Fatalf("Expected the undated item to be ingested, got %d items", len(f.ingester.items))
	}
	if got := f.ingester.items[0].PublishedAt; !got.Equal(testNow) {
		t.Errorf("Expected undated item to be stamped with poll time %v, got %v", testNow, got)
	}
	if got := testutil.ToFloat64(f.metrics.ItemsStale.WithLabelValues("twitter")); got != 0 {
		t.Errorf("Expected no stale items, got %v", got)
	}
}

func TestRunBatchFillsAccountDefaults(t *testing.T) {
	f := newLoopFixture(t, "alpha")

	if _, _, err := f.loop.RunBatch(context.Background()); err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}

	item := f.ingester.items[0]
	if item.AccountName != "alpha" || item.AccountLanguage != models.LanguageTelugu {
		t.Errorf("Expected account defaults on item, got name=%q language=%q", item.AccountName, item.AccountLanguage)
	}
	if len(f.store.touched) != 1 || f.store.touched[0] != 1 {
		t.Errorf("Expected account 1 to be touched, got %v", f.store.touched)
	}
}

func TestRunBatchIsolatesAccountFailure(t *testing.T) {
	f := newLoopFixture(t, "first", "second", "third")
	f.fetcher.errs["second"] = errors.New("connection reset")

	polled, found, err := f.loop.RunBatch(context.Background())
	if err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}
	if polled != 2 || found != 2 {
		t.Errorf("Expected 2 accounts and 2 updates, got %d and %d", polled, found)
	}

	ids := f.ingester.contentIDs()
	if len(ids) != 2 || ids[0] != "first-1" || ids[1] != "third-1" {
		t.Errorf("Expected first and third to be ingested, got %v", ids)
	}

	errorEvents := f.store.eventsWithStatus(models.EventStatusError)
	if len(errorEvents) != 1 {
		t.Fatalf("Expected exactly one error event, got %d", len(errorEvents))
	}
	if errorEvents[0].AccountName != "second" || errorEvents[0].Platform != models.PlatformTwitter {
		t.Errorf("Unexpected error event: %+v", errorEvents[0])
	}
	if len(f.store.touched) != 2 {
		t.Errorf("Expected 2 accounts touched, got %v", f.store.touched)
	}
	if got := testutil.ToFloat64(f.metrics.AccountFailures.WithLabelValues("twitter")); got != 1 {
		t.Errorf("Expected one account failure metric, got %v", got)
	}
}

func TestRunBatchRecoversFromPanic(t *testing.T) {
	f := newLoopFixture(t, "first", "second", "third")
	f.fetcher.panics["second"] = true

	polled, _, err := f.loop.RunBatch(context.Background())
	if err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}
	if polled != 2 {
		t.Errorf("Expected 2 accounts polled, got %d", polled)
	}
	if n := len(f.store.eventsWithStatus(models.EventStatusError)); n != 1 {
		t.Errorf("Expected one error event, got %d", n)
	}
}

func TestRunBatchPacesAccounts(t *testing.T) {
	f := newLoopFixture(t, "first", "second", "third")

	if _, _, err := f.loop.RunBatch(context.Background()); err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}

	if len(f.sleeps) != 2 || f.sleeps[0] != 5*time.Second || f.sleeps[1] != 5*time.Second {
		t.Errorf("Expected two 5s delays between accounts, got %v", f.sleeps)
	}
}

func TestRunLogsBatchAndStops(t *testing.T) {
	f := newLoopFixture(t, "first", "second")
	ctx, cancel := context.WithCancel(context.Background())
	f.loop.sleep = func(ctx context.Context, d time.Duration) bool {
		f.sleeps = append(f.sleeps, d)
		if d == 10*time.Minute {
			cancel()
			return false
		}
		return true
	}

	f.loop.Run(ctx)

	success := f.store.eventsWithStatus(models.EventStatusSuccess)
	if len(success) != 1 {
		t.Fatalf("Expected one success event, got %d", len(success))
	}
	if success[0].Message != "Monitored 2 accounts" || success[0].UpdatesFound != 2 {
		t.Errorf("Unexpected success event: %+v", success[0])
	}
}

func TestRunWaitsWhenUnavailable(t *testing.T) {
	f := newLoopFixture(t, "first")
	f.fetcher.available = false
	ctx, cancel := context.WithCancel(context.Background())
	f.loop.sleep = func(ctx context.Context, d time.Duration) bool {
		f.sleeps = append(f.sleeps, d)
		cancel()
		return false
	}

	f.loop.Run(ctx)

	if len(f.fetcher.calls) != 0 {
		t.Errorf("Expected no fetches without credentials, got %v", f.fetcher.calls)
	}
	if len(f.sleeps) != 1 || f.sleeps[0] != time.Minute {
		t.Errorf("Expected one idle backoff, got %v", f.sleeps)
	}
	if len(f.store.events) != 0 {
		t.Errorf("Expected no events, got %d", len(f.store.events))
	}
}

func TestRunBacksOffOnBatchFailure(t *testing.T) {
	f := newLoopFixture(t, "first")
	f.store.listErr = errors.New("database is locked")
	ctx, cancel := context.WithCancel(context.Background())
	f.loop.sleep = func(ctx context.Context, d time.Duration) bool {
		f.sleeps = append(f.sleeps, d)
		cancel()
		return false
	}

	f.loop.Run(ctx)

	if n := len(f.store.eventsWithStatus(models.EventStatusError)); n != 1 {
		t.Errorf("Expected one error event, got %d", n)
	}
	if len(f.sleeps) != 1 || f.sleeps[0] != time.Minute {
		t.Errorf("Expected idle backoff after failure, got %v", f.sleeps)
	}
	if got := testutil.ToFloat64(f.metrics.BatchFailures.WithLabelValues("twitter")); got != 1 {
		t.Errorf("Expected one batch failure metric, got %v", got)
	}
}

func TestStopDoesNotCancelInFlightFetch(t *testing.T) {
	f := newLoopFixture(t, "first")
	f.fetcher.block = make(chan struct{})
	f.fetcher.started = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.loop.Run(ctx)
		close(done)
	}()

	<-f.fetcher.started
	cancel()
	close(f.fetcher.block)
	<-done

	if f.fetcher.ctxErr != nil {
		t.Errorf("Expected fetch context to survive stop, got %v", f.fetcher.ctxErr)
	}
	if ids := f.ingester.contentIDs(); len(ids) != 1 {
		t.Errorf("Expected in-flight account to finish, got %v", ids)
	}
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *recordingNotifier) Send(ctx context.Context, msg models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg.Text)
	return nil
}

func (n *recordingNotifier) Enabled() bool { return true }

func TestSchedulerStartStopIsIdempotent(t *testing.T) {
	m := metrics.New()
	fetcher := &fakeFetcher{platform: models.PlatformTwitter}
	cfg := testConfig()
	cfg.IdleBackoff = time.Hour
	loop := NewLoop(fetcher, &fakeAccountStore{}, &fakeIngester{}, cfg, m, zerolog.New(io.Discard))
	notifier := &recordingNotifier{}
	s := NewScheduler([]*Loop{loop}, notifier, time.Second, m, zerolog.New(io.Discard))

	if got := s.Stop(); got != StatusStopped {
		t.Errorf("Expected stopped before start, got %s", got)
	}
	if got := s.Start(); got != StatusStarted {
		t.Errorf("Expected started, got %s", got)
	}
	if got := s.Start(); got != StatusAlreadyRunning {
		t.Errorf("Expected already_running, got %s", got)
	}

	state := s.Status()
	if !state.Running || state.StartedAt == nil || len(state.Platforms) != 1 {
		t.Errorf("Unexpected running state: %+v", state)
	}
	if state.Platforms[0].Available {
		t.Error("Expected platform without credentials to be unavailable")
	}

	if got := s.Stop(); got != StatusStopped {
		t.Errorf("Expected stopped, got %s", got)
	}
	if got := s.Stop(); got != StatusStopped {
		t.Errorf("Expected repeated stop to report stopped, got %s", got)
	}

	finished := make(chan struct{})
	go func() {
		s.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("Loops did not exit after stop")
	}

	if s.Running() {
		t.Error("Expected scheduler not to be running")
	}
	if len(notifier.sent) != 2 || notifier.sent[0] != startMessage || notifier.sent[1] != stopMessage {
		t.Errorf("Expected start and stop notices, got %v", notifier.sent)
	}
	if got := testutil.ToFloat64(m.LoopsRunning); got != 0 {
		t.Errorf("Expected no loops running, got %v", got)
	}
}
