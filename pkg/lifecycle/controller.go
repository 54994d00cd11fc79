package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formmessages/pkg/catalog"
	"github.com/goliatone/go-formmessages/pkg/fetch"
	"github.com/goliatone/go-formmessages/pkg/messages"
	"github.com/goliatone/go-formmessages/pkg/schedule"
)

var (
	// ErrClosed is returned when starting a closed controller.
	ErrClosed = errors.New("lifecycle: controller is closed")
	// ErrNoCoordinator is returned when an include is configured without a
	// coordinator to fetch it.
	ErrNoCoordinator = errors.New("lifecycle: include requires a coordinator")
	// ErrInvalidMode is returned for a display mode other than single or
	// multiple.
	ErrInvalidMode = errors.New("lifecycle: invalid display mode")
)

// Config declares the messages of one display site.
type Config struct {
	// Include is the template identifier whose entries form the base list.
	Include string
	// Mode selects single or multiple display.
	Mode messages.Mode
	// Overrides are the inline entries. They replace included entries with
	// the same key. Duplicate keys collapse to their last declaration.
	Overrides messages.EntryList
}

// Controller keeps a view in sync with flag snapshots.
type Controller struct {
	cfg Config

	coordinator   *fetch.Coordinator
	parser        *catalog.Parser
	dispatcher    schedule.Dispatcher
	ownedLoop     *schedule.Loop
	view          View
	animator      Animator
	logger        logrus.FieldLogger
	activeClass   string
	inactiveClass string
	theme         themeChoice

	mu        sync.Mutex
	entries   messages.EntryList
	flags     any
	state     messages.RenderState
	scheduled bool
	rendered  bool
	revision  int
	err       error
	waiter    *fetch.Waiter
	started   bool
	closed    bool
}

// New constructs a Controller. Nothing is requested or rendered until Start.
func New(cfg Config, options ...Option) (*Controller, error) {
	cfg.Include = strings.TrimSpace(cfg.Include)
	if !cfg.Mode.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMode, cfg.Mode)
	}
	cfg.Overrides = messages.Normalize(cfg.Overrides)

	c := &Controller{
		cfg:           cfg,
		activeClass:   DefaultActiveClass,
		inactiveClass: DefaultInactiveClass,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}

	if cfg.Include != "" && c.coordinator == nil {
		return nil, ErrNoCoordinator
	}

	active, inactive, err := resolveClasses(c.theme, c.activeClass, c.inactiveClass)
	if err != nil {
		return nil, err
	}
	c.activeClass, c.inactiveClass = active, inactive

	if c.logger == nil {
		c.logger = logrus.StandardLogger()
	}
	if c.parser == nil && cfg.Include != "" {
		parser, err := catalog.NewParser(catalog.WithLogger(c.logger))
		if err != nil {
			return nil, fmt.Errorf("lifecycle: parser: %w", err)
		}
		c.parser = parser
	}
	if c.dispatcher == nil {
		if c.coordinator != nil {
			c.dispatcher = c.coordinator.Dispatcher()
		} else {
			c.ownedLoop = schedule.NewLoop()
			c.dispatcher = c.ownedLoop
		}
	}

	c.entries = cfg.Overrides
	return c, nil
}

// Start requests the include and schedules the first recompute.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	if c.cfg.Include != "" {
		waiter := c.coordinator.Request(c.cfg.Include, c.onTemplate)
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			waiter.Cancel()
			return ErrClosed
		}
		c.waiter = waiter
		c.mu.Unlock()
	}

	c.schedule()
	return nil
}

// NotifyFlagsChanged records a new flag snapshot. Snapshots arriving before
// the next turn collapse into one recompute.
func (c *Controller) NotifyFlagsChanged(flags any) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.flags = flags
	c.mu.Unlock()

	c.schedule()
}

// State returns the render state of the last recompute.
func (c *Controller) State() messages.RenderState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Entries returns the current entry list.
func (c *Controller) Entries() messages.EntryList {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries
}

// Revision counts completed recomputes.
func (c *Controller) Revision() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.revision
}

// Err reports why the include could not be used, if it could not.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Classes returns the active and inactive class names.
func (c *Controller) Classes() (string, string) {
	return c.activeClass, c.inactiveClass
}

// Close drops the pending template request and ignores further
// notifications. The shared fetch keeps running for other controllers.
//
// Close does not wait for a recompute in progress, so it may be called from a
// View or Animator callback. A loop owned by the controller is stopped and
// exits once its queued tasks have run. Queued recomputes are skipped.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	waiter := c.waiter
	c.waiter = nil
	c.mu.Unlock()

	waiter.Cancel()
	if c.ownedLoop != nil {
		c.ownedLoop.Stop()
	}
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) schedule() {
	c.mu.Lock()
	if c.closed || !c.started || c.scheduled {
		c.mu.Unlock()
		return
	}
	c.scheduled = true
	c.mu.Unlock()

	c.dispatcher.Dispatch(c.recompute)
}

func (c *Controller) onTemplate(body []byte, err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.waiter = nil
	c.mu.Unlock()

	entry := c.logger.WithField("template", c.cfg.Include)

	var base messages.EntryList
	if err == nil {
		base, err = c.parser.Parse(c.cfg.Include, body)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.err = err
	} else {
		c.entries = messages.Merge(base, c.cfg.Overrides)
	}
	size := len(c.entries)
	c.mu.Unlock()

	if err != nil {
		entry.WithError(err).Warn("lifecycle: include unavailable, using inline messages only")
	} else {
		entry.WithField("entries", size).Debug("lifecycle: include merged")
	}
	c.schedule()
}

func (c *Controller) recompute() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.scheduled = false

	if !messages.IsCollection(c.flags) && c.flags != nil {
		c.logger.WithField("type", fmt.Sprintf("%T", c.flags)).Debug("lifecycle: flags are not a collection, nothing matches")
	}

	prev := c.state
	next := messages.Select(c.flags, c.entries, c.cfg.Mode)
	instructions := Diff(prev, next)
	toggled := !c.rendered || prev.Active() != next.Active()
	c.rendered = true
	c.state = next
	c.revision++
	revision := c.revision
	c.mu.Unlock()

	if len(instructions) > 0 && c.view != nil {
		c.view.Apply(instructions)
	}
	if toggled && c.animator != nil && !c.isClosed() {
		if next.Active() {
			c.animator.SetClass(c.activeClass, c.inactiveClass)
		} else {
			c.animator.SetClass(c.inactiveClass, c.activeClass)
		}
	}

	c.logger.WithFields(logrus.Fields{
		"revision":     revision,
		"active":       next.Active(),
		"instructions": len(instructions),
	}).Debug("lifecycle: recomputed")
}
