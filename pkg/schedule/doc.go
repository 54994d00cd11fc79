// Package schedule provides the scheduling turns the fetch coordinator and
// lifecycle controllers run on. Every continuation (fetch resolution,
// recompute) is handed to a Dispatcher and runs serially, which gives the
// engine single-threaded cooperative semantics without locks around
// controller state.
//
// Loop runs tasks on a dedicated goroutine and is the production default.
// Queue runs nothing until Drain is called, for hosts that own their event
// loop and for deterministic tests.
package schedule
