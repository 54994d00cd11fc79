// Package template defines the renderer-agnostic template contract used to
// turn message templates into display text. The pongo2-backed implementation
// lives in the gotemplate subpackage.
package template
