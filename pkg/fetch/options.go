package fetch

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-formmessages/pkg/schedule"
)

// Option customises a Coordinator.
type Option func(*Coordinator)

// WithDispatcher sets the dispatcher callbacks are delivered on. Controllers
// sharing a coordinator should share its dispatcher so callbacks and
// recomputes interleave on the same turns.
func WithDispatcher(dispatcher schedule.Dispatcher) Option {
	return func(c *Coordinator) {
		c.dispatcher = dispatcher
	}
}

// WithRunner sets where underlying fetches execute. The default starts a
// goroutine per fetch; a schedule.Queue makes fetch execution explicit.
func WithRunner(runner schedule.Dispatcher) Option {
	return func(c *Coordinator) {
		c.runner = runner
	}
}

// WithLogger injects a logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithMetrics records request and fetch metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = metrics
	}
}

// WithTracer overrides the tracer used for fetch spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Coordinator) {
		c.tracer = tracer
	}
}

// WithContext sets the base context fetches run under. Fetches outlive their
// requesters, so this is the only context that can abort them.
func WithContext(ctx context.Context) Option {
	return func(c *Coordinator) {
		c.ctx = ctx
	}
}

// WithTimeout caps each underlying fetch.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Coordinator) {
		c.timeout = timeout
	}
}
