// Package fetch coordinates remote template retrieval. A Coordinator owns a
// record per template identifier and guarantees that concurrent requests for
// the same identifier collapse into a single Fetcher call; every requester is
// notified, in registration order, once the fetch settles.
//
// Resolved bodies are cached for the lifetime of the coordinator (or until
// Reset). A failed fetch is never retried automatically: the record stays
// failed until a new Request arrives, which re-attempts the fetch once.
//
// Coordinators are explicit values rather than package globals so hosts can
// share one per process while tests create isolated instances.
package fetch
