// Package formmessages selects which validation messages a form field shows.
//
// A display site declares inline messages and optionally includes a shared
// template. Templates are fetched once per identifier through a
// fetch.Coordinator, parsed by a catalog.Parser and merged under the inline
// overrides; a lifecycle.Controller recomputes the displayed messages when
// the field's error flags change and drives a View with minimal updates.
//
//	loader := formmessages.NewLoader(fetch.WithFileSystem(templates))
//	coordinator := fetch.New(loader)
//	controller, err := formmessages.NewController(formmessages.Config{
//		Include:   "messages.html",
//		Overrides: overrides,
//	}, lifecycle.WithCoordinator(coordinator), lifecycle.WithView(view))
//	controller.Start()
//	controller.NotifyFlagsChanged(map[string]any{"required": true})
package formmessages

import (
	internalLoader "github.com/goliatone/go-formmessages/internal/loader"
	"github.com/goliatone/go-formmessages/pkg/catalog"
	"github.com/goliatone/go-formmessages/pkg/fetch"
	"github.com/goliatone/go-formmessages/pkg/lifecycle"
	"github.com/goliatone/go-formmessages/pkg/messages"
)

type (
	Entry       = messages.Entry
	EntryList   = messages.EntryList
	Mode        = messages.Mode
	RenderState = messages.RenderState
	Config      = lifecycle.Config
	Instruction = lifecycle.Instruction
)

const (
	ModeSingle   = messages.ModeSingle
	ModeMultiple = messages.ModeMultiple
)

// NewLoader constructs a template fetcher using the internal implementation
// while keeping the concrete type hidden from consumers.
func NewLoader(options ...fetch.LoaderOption) fetch.Fetcher {
	cfg := fetch.NewLoaderOptions(options...)
	return internalLoader.New(cfg)
}

// NewCoordinator constructs a coordinator backed by the built-in loader.
func NewCoordinator(loaderOptions []fetch.LoaderOption, options ...fetch.Option) *fetch.Coordinator {
	return fetch.New(NewLoader(loaderOptions...), options...)
}

// NewParser constructs a catalog parser.
func NewParser(options ...catalog.Option) (*catalog.Parser, error) {
	return catalog.NewParser(options...)
}

// NewController constructs a lifecycle controller.
func NewController(cfg Config, options ...lifecycle.Option) (*lifecycle.Controller, error) {
	return lifecycle.New(cfg, options...)
}

// Select computes the render state for a flag snapshot.
func Select(flags any, list EntryList, mode Mode) RenderState {
	return messages.Select(flags, list, mode)
}

// Merge overlays inline overrides on an included entry list.
func Merge(base, overrides EntryList) EntryList {
	return messages.Merge(base, overrides)
}
