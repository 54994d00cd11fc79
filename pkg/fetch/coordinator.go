package fetch

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-formmessages/pkg/schedule"
)

const tracerName = "github.com/goliatone/go-formmessages/pkg/fetch"

// State describes the lifecycle of a template record.
type State int

const (
	StateAbsent State = iota
	StatePending
	StateResolved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return "absent"
	}
}

// Callback receives a template body or the error that prevented loading it.
// Bodies are shared between requesters and must not be modified.
type Callback func(body []byte, err error)

type result struct {
	body []byte
	err  error
}

type record struct {
	state   State
	body    []byte
	err     error
	waiters []*Waiter
}

// Waiter is a single registration on a template record.
type Waiter struct {
	coordinator *Coordinator
	id          string
	record      *record
	callback    Callback
	ch          chan result

	// guarded by coordinator.mu
	cancelled bool
	delivered bool
}

// ID returns the template identifier the waiter is registered on.
func (w *Waiter) ID() string {
	if w == nil {
		return ""
	}
	return w.id
}

// Cancel drops the waiter. The underlying fetch keeps running for the other
// waiters; a callback that was already scheduled will not run.
func (w *Waiter) Cancel() {
	if w == nil || w.coordinator == nil {
		return
	}
	c := w.coordinator

	c.mu.Lock()
	if w.cancelled || w.delivered {
		c.mu.Unlock()
		return
	}
	w.cancelled = true
	if rec := w.record; rec != nil && rec.state == StatePending {
		for i, candidate := range rec.waiters {
			if candidate == w {
				rec.waiters = append(rec.waiters[:i], rec.waiters[i+1:]...)
				break
			}
		}
	}
	c.mu.Unlock()

	c.metrics.recordDropped()
}

// Coordinator deduplicates and caches template fetches.
type Coordinator struct {
	mu      sync.Mutex
	records map[string]*record

	fetcher    Fetcher
	dispatcher schedule.Dispatcher
	runner     schedule.Dispatcher
	logger     logrus.FieldLogger
	metrics    *Metrics
	tracer     trace.Tracer
	ctx        context.Context
	timeout    time.Duration
}

// New constructs a Coordinator around fetcher. Without WithDispatcher a
// dedicated schedule.Loop delivers callbacks.
func New(fetcher Fetcher, options ...Option) *Coordinator {
	c := &Coordinator{
		records: make(map[string]*record),
		fetcher: fetcher,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if c.dispatcher == nil {
		c.dispatcher = schedule.NewLoop()
	}
	if c.runner == nil {
		c.runner = schedule.Go
	}
	if c.logger == nil {
		c.logger = logrus.StandardLogger()
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	if c.ctx == nil {
		c.ctx = context.Background()
	}
	return c
}

// Dispatcher returns the dispatcher callbacks are delivered on.
func (c *Coordinator) Dispatcher() schedule.Dispatcher {
	return c.dispatcher
}

// Request registers cb for the template id. Cached bodies are delivered on
// the next dispatcher turn; otherwise cb runs once the (single) fetch for id
// settles, after every waiter that registered before it.
func (c *Coordinator) Request(id string, cb Callback) *Waiter {
	w := &Waiter{coordinator: c, callback: cb}
	c.register(id, w)
	return w
}

// Get blocks until the template id is available, the fetch fails or ctx is
// done. Cancelling ctx only drops this caller.
func (c *Coordinator) Get(ctx context.Context, id string) ([]byte, error) {
	w := &Waiter{coordinator: c, ch: make(chan result, 1)}
	c.register(id, w)

	select {
	case res := <-w.ch:
		return res.body, res.err
	case <-ctx.Done():
		w.Cancel()
		return nil, ctx.Err()
	}
}

// Put seeds the cache with a resolved body, replacing any settled record.
// Pending fetches are left alone.
func (c *Coordinator) Put(id string, body []byte) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	stored := append([]byte(nil), body...)

	c.mu.Lock()
	defer c.mu.Unlock()
	if rec, ok := c.records[id]; ok && rec.state == StatePending {
		return
	}
	c.records[id] = &record{state: StateResolved, body: stored}
}

// Lookup returns the cached body for id.
func (c *Coordinator) Lookup(id string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[strings.TrimSpace(id)]
	if !ok || rec.state != StateResolved {
		return nil, false
	}
	return rec.body, true
}

// State reports the record state for id.
func (c *Coordinator) State(id string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[strings.TrimSpace(id)]
	if !ok {
		return StateAbsent
	}
	return rec.state
}

// Reset forgets every record. In-flight fetches still notify their waiters
// but their results are not cached.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	c.records = make(map[string]*record)
	c.mu.Unlock()
}

func (c *Coordinator) register(id string, w *Waiter) {
	id = strings.TrimSpace(id)
	w.id = id
	if id == "" {
		c.deliver(w, nil, ErrEmptyIdentifier)
		return
	}

	c.mu.Lock()
	rec, exists := c.records[id]
	switch {
	case exists && rec.state == StateResolved:
		body := rec.body
		w.record = rec
		c.mu.Unlock()
		c.metrics.recordRequest(resultHit)
		c.deliver(w, body, nil)
		return
	case exists && rec.state == StatePending:
		w.record = rec
		rec.waiters = append(rec.waiters, w)
		waiting := len(rec.waiters)
		c.mu.Unlock()
		c.metrics.recordRequest(resultJoined)
		c.logger.WithFields(logrus.Fields{"template": id, "waiters": waiting}).Debug("fetch: joined pending template fetch")
		return
	}

	outcome := resultMiss
	if exists && rec.state == StateFailed {
		outcome = resultRetry
	}
	rec = &record{state: StatePending, waiters: []*Waiter{w}}
	w.record = rec
	c.records[id] = rec
	c.mu.Unlock()

	c.metrics.recordRequest(outcome)
	c.logger.WithFields(logrus.Fields{"template": id, "result": outcome}).Debug("fetch: starting template fetch")
	c.runner.Dispatch(func() { c.run(id, rec) })
}

func (c *Coordinator) run(id string, rec *record) {
	ctx, span := c.tracer.Start(c.ctx, "formmessages.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("formmessages.template", id)),
	)
	defer span.End()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	started := time.Now()
	body, err := c.fetch(ctx, id)
	c.metrics.recordFetch(err, time.Since(started))

	if err != nil {
		err = &Error{ID: id, Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("formmessages.template_bytes", len(body)))
	}

	entry := c.logger.WithField("template", id)
	if err != nil {
		entry.WithError(err).Warn("fetch: template fetch failed")
	} else {
		entry.Debug("fetch: template resolved")
	}

	final := StateResolved
	if err != nil {
		final = StateFailed
	}

	// The record stays pending until every waiter, including ones joining
	// while others are notified, has been handed the result.
	c.mu.Lock()
	rec.body, rec.err = body, err
	for len(rec.waiters) > 0 {
		waiters := rec.waiters
		rec.waiters = nil
		c.mu.Unlock()
		for _, w := range waiters {
			c.deliver(w, body, err)
		}
		c.mu.Lock()
	}
	rec.state = final
	c.mu.Unlock()
}

func (c *Coordinator) fetch(ctx context.Context, id string) ([]byte, error) {
	if c.fetcher == nil {
		return nil, ErrNoFetcher
	}
	return c.fetcher.Fetch(ctx, id)
}

// deliver hands a settled result to w: directly for Get callers, through the
// dispatcher for callbacks.
func (c *Coordinator) deliver(w *Waiter, body []byte, err error) {
	if w.ch != nil {
		if !c.claim(w) {
			return
		}
		w.ch <- result{body: body, err: err}
		return
	}
	if w.callback == nil {
		return
	}
	c.dispatcher.Dispatch(func() {
		if !c.claim(w) {
			return
		}
		w.callback(body, err)
	})
}

// claim marks w delivered unless it was cancelled first.
func (c *Coordinator) claim(w *Waiter) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if w.cancelled || w.delivered {
		return false
	}
	w.delivered = true
	return true
}
