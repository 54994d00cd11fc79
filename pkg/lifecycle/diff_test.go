package lifecycle

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formmessages/pkg/messages"
)

func stateOf(entries []*messages.Entry) messages.RenderState {
	var state messages.RenderState
	for _, entry := range entries {
		state.Matches = append(state.Matches, messages.Match{Entry: entry, Control: true})
	}
	return state
}

// sequences returns every ordered selection of distinct entries, including
// the empty one.
func sequences(pool []*messages.Entry) [][]*messages.Entry {
	out := [][]*messages.Entry{nil}
	var grow func(prefix []*messages.Entry, used map[*messages.Entry]bool)
	grow = func(prefix []*messages.Entry, used map[*messages.Entry]bool) {
		for _, entry := range pool {
			if used[entry] {
				continue
			}
			next := append(append([]*messages.Entry(nil), prefix...), entry)
			out = append(out, next)
			used[entry] = true
			grow(next, used)
			used[entry] = false
		}
	}
	grow(nil, map[*messages.Entry]bool{})
	return out
}

func TestDiff_ApplyingInstructionsReachesNextState(t *testing.T) {
	pool := []*messages.Entry{
		{Key: "a", Renderer: messages.Text("A")},
		{Key: "b", Renderer: messages.Text("B")},
		{Key: "c", Renderer: messages.Text("C")},
	}
	all := sequences(pool)

	for _, from := range all {
		for _, to := range all {
			view := &ListView{}
			prev, next := stateOf(from), stateOf(to)
			view.Apply(Diff(messages.RenderState{}, prev))
			instructions := Diff(prev, next)
			view.Apply(instructions)

			if diff := cmp.Diff(next.Keys(), keysOf(view.Items())); diff != "" {
				t.Fatalf("%v -> %v mismatch (-want +got):\n%s", prev.Keys(), next.Keys(), diff)
			}
			if len(from) == len(to) && cmp.Equal(prev.Keys(), next.Keys()) && len(instructions) != 0 {
				t.Fatalf("%v -> %v: expected no instructions, got %d", prev.Keys(), next.Keys(), len(instructions))
			}
		}
	}
}

func TestDiff_OrdersRemovesFirst(t *testing.T) {
	a := &messages.Entry{Key: "a"}
	b := &messages.Entry{Key: "b"}
	c := &messages.Entry{Key: "c"}

	got := Diff(stateOf([]*messages.Entry{a, b}), stateOf([]*messages.Entry{c, b}))
	want := []Instruction{
		{Op: OpRemove, Entry: a, Control: true, Index: 0},
		{Op: OpInsert, Entry: c, Control: true, Index: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("instructions mismatch (-want +got):\n%s", diff)
	}
}

func TestDiff_UpdateOnControlChange(t *testing.T) {
	a := &messages.Entry{Key: "a"}
	prev := messages.RenderState{Matches: []messages.Match{{Entry: a, Control: map[string]any{"min": 3}}}}
	next := messages.RenderState{Matches: []messages.Match{{Entry: a, Control: map[string]any{"min": 4}}}}

	got := Diff(prev, next)
	if len(got) != 1 || got[0].Op != OpUpdate || got[0].Index != 0 {
		t.Fatalf("expected a single update, got %+v", got)
	}
	if same := Diff(next, next); len(same) != 0 {
		t.Fatalf("expected no instructions for equal states, got %+v", same)
	}
}

func keysOf(items []Item) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Entry.Key
	}
	return out
}
