// Package messages holds the selection core: condition-keyed entries, the
// base/override merge that produces an effective EntryList, and the stateless
// selection that turns a flag snapshot into a RenderState.
//
// A flag snapshot is any associative value (a map with string keys or a
// Collection). Values are tested with Truthy: nil, false, numeric zero and
// the empty string are falsy; everything else, empty maps and slices
// included, is truthy. Snapshots that are not associative never match.
package messages
