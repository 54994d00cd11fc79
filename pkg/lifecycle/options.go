package lifecycle

import (
	"strings"

	"github.com/sirupsen/logrus"
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formmessages/pkg/catalog"
	"github.com/goliatone/go-formmessages/pkg/fetch"
	"github.com/goliatone/go-formmessages/pkg/schedule"
)

// Option customises a Controller.
type Option func(*Controller)

// WithCoordinator sets the coordinator included templates are requested
// from. Required when Config.Include is set.
func WithCoordinator(coordinator *fetch.Coordinator) Option {
	return func(c *Controller) {
		c.coordinator = coordinator
	}
}

// WithParser sets the parser downloaded templates are compiled with.
// Controllers sharing a parser share parsed entry lists.
func WithParser(parser *catalog.Parser) Option {
	return func(c *Controller) {
		c.parser = parser
	}
}

// WithDispatcher sets the dispatcher recomputes run on. Defaults to the
// coordinator's dispatcher.
func WithDispatcher(dispatcher schedule.Dispatcher) Option {
	return func(c *Controller) {
		c.dispatcher = dispatcher
	}
}

// WithView sets the view receiving instructions.
func WithView(view View) Option {
	return func(c *Controller) {
		c.view = view
	}
}

// WithAnimator sets the animator receiving activity classes.
func WithAnimator(animator Animator) Option {
	return func(c *Controller) {
		c.animator = animator
	}
}

// WithLogger injects a logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithClasses overrides the activity class pair.
func WithClasses(active, inactive string) Option {
	return func(c *Controller) {
		if trimmed := strings.TrimSpace(active); trimmed != "" {
			c.activeClass = trimmed
		}
		if trimmed := strings.TrimSpace(inactive); trimmed != "" {
			c.inactiveClass = trimmed
		}
	}
}

// WithTheme resolves the activity classes from the messages.activeClass and
// messages.inactiveClass tokens of a go-theme selection.
func WithTheme(selector theme.ThemeSelector, name, variant string) Option {
	return func(c *Controller) {
		c.theme = themeChoice{selector: selector, name: name, variant: variant}
	}
}
