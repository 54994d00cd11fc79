// Package catalog turns template bodies into message entry lists.
//
// A body is either markup, where every element carrying the message
// attribute (data-message-on by default) declares one entry whose inner
// markup is the template, or a YAML/JSON document:
//
//	multiple: true
//	messages:
//	  - on: required
//	    template: This field is required
//	  - on: minlength
//	    template: Use at least {{ control }} characters
//
// JSON documents may carry comments. Templates are pongo2 templates rendered
// with "key" and "control" in context. Output of downloaded templates is
// sanitized before it reaches the view; inline declarations are trusted.
//
// Parsed bodies are memoized by a BLAKE3 digest of identifier and body, so
// consumers sharing a template identifier share one entry list.
package catalog
