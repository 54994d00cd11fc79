package messages

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func list(origin Origin, pairs ...string) EntryList {
	entries := make([]*Entry, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		entries = append(entries, &Entry{Key: pairs[i], Renderer: Text(pairs[i+1])})
	}
	source := ""
	if origin == OriginRemote {
		source = "tpl"
	}
	return NewEntryList(origin, source, entries...)
}

func texts(t *testing.T, entries EntryList) []string {
	t.Helper()
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		text, err := entry.Render(nil)
		if err != nil {
			t.Fatalf("render %q: %v", entry.Key, err)
		}
		out = append(out, text)
	}
	return out
}

func TestMerge_KeepsBaseOrder(t *testing.T) {
	base := list(OriginRemote, "c", "C", "a", "A", "b", "B")
	overrides := list(OriginLocal, "a", "AAA", "c", "CCC")

	merged := Merge(base, overrides)

	if diff := cmp.Diff([]string{"c", "a", "b"}, merged.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"CCC", "AAA", "B"}, texts(t, merged)); diff != "" {
		t.Fatalf("texts mismatch (-want +got):\n%s", diff)
	}
	if merged[0] != overrides[1] || merged[1] != overrides[0] {
		t.Fatalf("expected override entries to be substituted by identity")
	}
	if merged[2].Origin != OriginRemote {
		t.Fatalf("expected b to keep remote origin, got %s", merged[2].Origin)
	}
}

func TestMerge_AppendsOverrideOnlyKeys(t *testing.T) {
	base := list(OriginRemote, "a", "A", "b", "B")
	overrides := list(OriginLocal, "z", "Z", "a", "AAA", "c", "CCC")

	merged := Merge(base, overrides)

	if diff := cmp.Diff([]string{"a", "b", "z", "c"}, merged.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"AAA", "B", "Z", "CCC"}, texts(t, merged)); diff != "" {
		t.Fatalf("texts mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge_EmptyBaseReturnsOverrides(t *testing.T) {
	overrides := list(OriginLocal, "failed", "Failure")
	merged := Merge(nil, overrides)
	if len(merged) != 1 || merged[0] != overrides[0] {
		t.Fatalf("expected overrides verbatim, got %v", merged.Keys())
	}
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	base := list(OriginRemote, "a", "A", "b", "B")
	overrides := list(OriginLocal, "b", "BBB")

	_ = Merge(base, overrides)

	if diff := cmp.Diff([]string{"A", "B"}, texts(t, base)); diff != "" {
		t.Fatalf("base mutated (-want +got):\n%s", diff)
	}
}

func TestNewEntryList_LastDeclarationWins(t *testing.T) {
	entries := list(OriginLocal, "a", "first", "b", "B", "a", "second", " ", "blank")

	if diff := cmp.Diff([]string{"a", "b"}, entries.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"second", "B"}, texts(t, entries)); diff != "" {
		t.Fatalf("texts mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge_CollapsesDuplicateOverrides(t *testing.T) {
	base := list(OriginRemote, "b", "B")
	first := &Entry{Key: "a", Renderer: Text("A1"), Origin: OriginLocal}
	second := &Entry{Key: "a", Renderer: Text("A2"), Origin: OriginLocal}

	merged := Merge(base, EntryList{first, second})

	if diff := cmp.Diff([]string{"b", "a"}, merged.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if merged[1] != second {
		t.Fatalf("expected the last declaration of a to win")
	}

	state := Select(map[string]any{"a": true, "b": true}, merged, ModeMultiple)
	if diff := cmp.Diff([]string{"b", "a"}, state.Keys()); diff != "" {
		t.Fatalf("selection mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize(t *testing.T) {
	a1 := &Entry{Key: "a", Renderer: Text("A1"), Origin: OriginRemote, Source: "tpl"}
	b := &Entry{Key: "b", Renderer: Text("B")}
	a2 := &Entry{Key: "a", Renderer: Text("A2")}

	got := Normalize(EntryList{a1, nil, b, {Key: ""}, a2})
	if diff := cmp.Diff([]string{"a", "b"}, got.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if got[0] != a2 || got[0].Origin != OriginLocal || got[0].Source != "" {
		t.Fatalf("expected a2 untouched at the first position")
	}

	clean := EntryList{a1, b}
	if got := Normalize(clean); &got[0] != &clean[0] {
		t.Fatalf("expected a normalized list to be returned as-is")
	}
	if got := Normalize(nil); got != nil {
		t.Fatalf("expected nil, got %v", got.Keys())
	}
}
