package fetch

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formmessages/pkg/schedule"
)

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type countingFetcher struct {
	mu      sync.Mutex
	calls   map[string]int
	respond func(id string, attempt int) ([]byte, error)
}

func newCountingFetcher(respond func(id string, attempt int) ([]byte, error)) *countingFetcher {
	return &countingFetcher{calls: make(map[string]int), respond: respond}
}

func (f *countingFetcher) Fetch(_ context.Context, id string) ([]byte, error) {
	f.mu.Lock()
	f.calls[id]++
	attempt := f.calls[id]
	f.mu.Unlock()
	return f.respond(id, attempt)
}

func (f *countingFetcher) count(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

type harness struct {
	coordinator *Coordinator
	turns       *schedule.Queue
	fetches     *schedule.Queue
}

func newHarness(fetcher Fetcher, options ...Option) harness {
	h := harness{turns: schedule.NewQueue(), fetches: schedule.NewQueue()}
	base := []Option{WithDispatcher(h.turns), WithRunner(h.fetches), WithLogger(quietLogger())}
	h.coordinator = New(fetcher, append(base, options...)...)
	return h
}

type delivery struct {
	name string
	body string
	err  error
}

func recorder(log *[]delivery, name string) Callback {
	return func(body []byte, err error) {
		*log = append(*log, delivery{name: name, body: string(body), err: err})
	}
}

func TestCoordinator_CollapsesConcurrentRequests(t *testing.T) {
	var h harness
	var got []delivery
	fetcher := newCountingFetcher(func(id string, _ int) ([]byte, error) {
		// a requester arriving while the fetch is in flight joins it
		h.coordinator.Request(id, recorder(&got, "late"))
		return []byte("<div data-message-on=\"ready\">Ready</div>"), nil
	})
	h = newHarness(fetcher)

	for _, name := range []string{"first", "second", "third"} {
		h.coordinator.Request("tpl", recorder(&got, name))
	}

	if state := h.coordinator.State("tpl"); state != StatePending {
		t.Fatalf("expected pending record, got %s", state)
	}
	if pending := h.fetches.Len(); pending != 1 {
		t.Fatalf("expected exactly one fetch scheduled, got %d", pending)
	}

	h.fetches.Drain()
	if len(got) != 0 {
		t.Fatalf("callbacks must wait for the next turn, got %v", got)
	}
	h.turns.Drain()

	if calls := fetcher.count("tpl"); calls != 1 {
		t.Fatalf("expected one underlying fetch, got %d", calls)
	}
	want := []delivery{
		{name: "first", body: "<div data-message-on=\"ready\">Ready</div>"},
		{name: "second", body: "<div data-message-on=\"ready\">Ready</div>"},
		{name: "third", body: "<div data-message-on=\"ready\">Ready</div>"},
		{name: "late", body: "<div data-message-on=\"ready\">Ready</div>"},
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(delivery{}), cmp.Comparer(func(a, b error) bool { return a == b })); diff != "" {
		t.Fatalf("deliveries mismatch (-want +got):\n%s", diff)
	}
}

func TestCoordinator_CachedBodyDeliveredOnNextTurn(t *testing.T) {
	fetcher := newCountingFetcher(func(string, int) ([]byte, error) { return []byte("abc"), nil })
	h := newHarness(fetcher)

	var got []delivery
	h.coordinator.Request("tpl", recorder(&got, "first"))
	h.fetches.Drain()
	h.turns.Drain()

	if body, ok := h.coordinator.Lookup("tpl"); !ok || string(body) != "abc" {
		t.Fatalf("expected cached body abc, got %q (ok=%v)", body, ok)
	}

	h.coordinator.Request("tpl", recorder(&got, "cached"))
	if len(got) != 1 {
		t.Fatalf("cached delivery must not be synchronous")
	}
	if pending := h.fetches.Len(); pending != 0 {
		t.Fatalf("cached request must not fetch, got %d scheduled", pending)
	}
	h.turns.Drain()

	if len(got) != 2 || got[1].name != "cached" || got[1].body != "abc" {
		t.Fatalf("unexpected deliveries: %+v", got)
	}
	if calls := fetcher.count("tpl"); calls != 1 {
		t.Fatalf("expected one fetch, got %d", calls)
	}
}

func TestCoordinator_FailureRetriesOnlyOnFreshRequest(t *testing.T) {
	transportErr := errors.New("connection refused")
	fetcher := newCountingFetcher(func(_ string, attempt int) ([]byte, error) {
		if attempt == 1 {
			return nil, transportErr
		}
		return []byte("recovered"), nil
	})
	h := newHarness(fetcher)

	var got []delivery
	h.coordinator.Request("tpl", recorder(&got, "a"))
	h.coordinator.Request("tpl", recorder(&got, "b"))
	h.fetches.Drain()
	h.turns.Drain()

	if len(got) != 2 {
		t.Fatalf("expected both waiters notified, got %d", len(got))
	}
	for _, d := range got {
		if !errors.Is(d.err, ErrFetchFailed) || !errors.Is(d.err, transportErr) {
			t.Fatalf("expected fetch failure wrapping transport error, got %v", d.err)
		}
		var fetchErr *Error
		if !errors.As(d.err, &fetchErr) || fetchErr.ID != "tpl" {
			t.Fatalf("expected *Error for tpl, got %#v", d.err)
		}
	}
	if state := h.coordinator.State("tpl"); state != StateFailed {
		t.Fatalf("expected failed record, got %s", state)
	}
	if pending := h.fetches.Len(); pending != 0 {
		t.Fatalf("failure must not retry automatically, got %d scheduled", pending)
	}

	h.coordinator.Request("tpl", recorder(&got, "retry"))
	h.coordinator.Request("tpl", recorder(&got, "retry-joined"))
	if pending := h.fetches.Len(); pending != 1 {
		t.Fatalf("expected a single retry fetch, got %d", pending)
	}
	h.fetches.Drain()
	h.turns.Drain()

	if calls := fetcher.count("tpl"); calls != 2 {
		t.Fatalf("expected two fetch attempts, got %d", calls)
	}
	if got[2].body != "recovered" || got[3].body != "recovered" || got[2].err != nil {
		t.Fatalf("unexpected retry deliveries: %+v", got[2:])
	}
}

func TestCoordinator_CancelledWaiterIsSkipped(t *testing.T) {
	fetcher := newCountingFetcher(func(string, int) ([]byte, error) { return []byte("body"), nil })
	h := newHarness(fetcher)

	var got []delivery
	gone := h.coordinator.Request("tpl", recorder(&got, "gone"))
	h.coordinator.Request("tpl", recorder(&got, "stays"))
	gone.Cancel()

	h.fetches.Drain()
	h.turns.Drain()

	if len(got) != 1 || got[0].name != "stays" {
		t.Fatalf("expected only the remaining waiter, got %+v", got)
	}
	if calls := fetcher.count("tpl"); calls != 1 {
		t.Fatalf("cancelling a waiter must not cancel the fetch, got %d calls", calls)
	}
}

func TestCoordinator_CancelAfterSchedulingDropsCallback(t *testing.T) {
	h := newHarness(newCountingFetcher(func(string, int) ([]byte, error) { return []byte("body"), nil }))
	h.coordinator.Put("tpl", []byte("seeded"))

	var got []delivery
	w := h.coordinator.Request("tpl", recorder(&got, "torn-down"))
	w.Cancel()
	h.turns.Drain()

	if len(got) != 0 {
		t.Fatalf("expected no delivery after cancel, got %+v", got)
	}
}

func TestCoordinator_PutSeedsCache(t *testing.T) {
	fetcher := newCountingFetcher(func(string, int) ([]byte, error) { return nil, errors.New("unreachable") })
	h := newHarness(fetcher)

	seed := []byte("abc.html body")
	h.coordinator.Put("abc.html", seed)
	seed[0] = 'X'

	var got []delivery
	h.coordinator.Request("abc.html", recorder(&got, "seeded"))
	h.turns.Drain()

	if len(got) != 1 || got[0].body != "abc.html body" {
		t.Fatalf("unexpected deliveries: %+v", got)
	}
	if h.fetches.Len() != 0 || fetcher.count("abc.html") != 0 {
		t.Fatalf("seeded template must not be fetched")
	}
}

func TestCoordinator_EmptyIdentifier(t *testing.T) {
	h := newHarness(nil)

	var got []delivery
	h.coordinator.Request("  ", recorder(&got, "blank"))
	h.turns.Drain()

	if len(got) != 1 || !errors.Is(got[0].err, ErrEmptyIdentifier) {
		t.Fatalf("expected ErrEmptyIdentifier, got %+v", got)
	}
}

func TestCoordinator_NilFetcherFails(t *testing.T) {
	h := newHarness(nil)

	var got []delivery
	h.coordinator.Request("tpl", recorder(&got, "a"))
	h.fetches.Drain()
	h.turns.Drain()

	if len(got) != 1 || !errors.Is(got[0].err, ErrNoFetcher) {
		t.Fatalf("expected ErrNoFetcher, got %+v", got)
	}
}

func TestCoordinator_ResetForgetsRecords(t *testing.T) {
	fetcher := newCountingFetcher(func(string, int) ([]byte, error) { return []byte("body"), nil })
	h := newHarness(fetcher)

	h.coordinator.Request("tpl", nil)
	h.fetches.Drain()
	h.coordinator.Reset()

	if state := h.coordinator.State("tpl"); state != StateAbsent {
		t.Fatalf("expected absent after reset, got %s", state)
	}
	h.coordinator.Request("tpl", nil)
	h.fetches.Drain()
	if calls := fetcher.count("tpl"); calls != 2 {
		t.Fatalf("expected refetch after reset, got %d calls", calls)
	}
}

func TestCoordinator_GetWithGoroutineRunner(t *testing.T) {
	release := make(chan struct{})
	fetcher := newCountingFetcher(func(string, int) ([]byte, error) {
		<-release
		return []byte("shared"), nil
	})
	loop := schedule.NewLoop()
	defer loop.Close()
	coordinator := New(fetcher, WithDispatcher(loop), WithLogger(quietLogger()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const consumers = 8
	results := make(chan string, consumers)
	var wg sync.WaitGroup
	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body, err := coordinator.Get(ctx, "tpl")
			if err != nil {
				t.Errorf("get: %v", err)
				return
			}
			results <- string(body)
		}()
	}

	deadline := time.Now().Add(5 * time.Second)
	for coordinator.State("tpl") != StatePending && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	close(release)
	wg.Wait()
	close(results)

	for body := range results {
		if body != "shared" {
			t.Fatalf("expected shared body, got %q", body)
		}
	}
	if calls := fetcher.count("tpl"); calls != 1 {
		t.Fatalf("expected one fetch across concurrent Get callers, got %d", calls)
	}
}

func TestCoordinator_GetHonoursContext(t *testing.T) {
	h := newHarness(newCountingFetcher(func(string, int) ([]byte, error) { return []byte("late"), nil }))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.coordinator.Get(ctx, "tpl"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}

	var got []delivery
	h.coordinator.Request("tpl", recorder(&got, "other"))
	h.fetches.Drain()
	h.turns.Drain()
	if len(got) != 1 || got[0].body != "late" {
		t.Fatalf("fetch must still complete for other waiters, got %+v", got)
	}
}

func TestCoordinator_RecordsMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	fetcher := newCountingFetcher(func(string, int) ([]byte, error) { return []byte("body"), nil })
	h := newHarness(fetcher, WithMetrics(NewMetrics(registry)))

	h.coordinator.Request("tpl", nil)
	h.coordinator.Request("tpl", nil)
	h.fetches.Drain()
	h.coordinator.Request("tpl", nil)
	h.turns.Drain()

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	got := map[string]float64{}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			name := family.GetName()
			for _, label := range metric.GetLabel() {
				name += "/" + label.GetValue()
			}
			if counter := metric.GetCounter(); counter != nil {
				got[name] = counter.GetValue()
			}
		}
	}

	want := map[string]float64{
		"formmessages_fetch_requests_total/miss":   1,
		"formmessages_fetch_requests_total/joined": 1,
		"formmessages_fetch_requests_total/hit":    1,
		"formmessages_fetch_fetches_total/ok":      1,
	}
	for name, value := range want {
		if got[name] != value {
			t.Fatalf("metric %s: want %v, got %v (all: %v)", name, value, got[name], got)
		}
	}
}
