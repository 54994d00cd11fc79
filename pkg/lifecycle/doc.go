// Package lifecycle binds a message list to a view.
//
// A Controller owns the entry list for one display site. It starts from the
// inline overrides, merges in the entries of a downloaded template once the
// shared fetch.Coordinator delivers it, and recomputes the render state at
// most once per dispatcher turn however many flag snapshots arrive in between.
// Each recompute is diffed against the previous state and handed to the View
// as remove/insert/update instructions; the Animator sees the active/inactive
// class pair on the first recompute and on every transition after that.
package lifecycle
