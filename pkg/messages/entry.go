package messages

import "strings"

// Origin records where an entry was declared.
type Origin int

const (
	// OriginLocal marks entries declared inline at the point of use.
	OriginLocal Origin = iota
	// OriginRemote marks entries parsed from a fetched template.
	OriginRemote
)

func (o Origin) String() string {
	switch o {
	case OriginLocal:
		return "local"
	case OriginRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// RenderData is handed to a Renderer when its entry is displayed. Control is
// the flag value that made the entry match.
type RenderData struct {
	Key     string
	Control any
}

// Renderer produces the text of a message. The view runtime owns insertion;
// renderers only produce content.
type Renderer interface {
	Render(data RenderData) (string, error)
}

// RendererFunc adapts a function into a Renderer.
type RendererFunc func(data RenderData) (string, error)

// Render delegates to the underlying function.
func (fn RendererFunc) Render(data RenderData) (string, error) {
	return fn(data)
}

// Text is a Renderer that always yields the same string.
type Text string

// Render returns the constant text.
func (t Text) Render(RenderData) (string, error) {
	return string(t), nil
}

// Entry binds a condition key to a renderer. Entries are compared by pointer
// identity when diffing render states.
type Entry struct {
	Key      string
	Renderer Renderer
	Origin   Origin
	// Source names the template identifier remote entries were parsed from.
	Source string
}

// Render renders the entry for the supplied control value. Entries without a
// renderer render as the empty string.
func (e *Entry) Render(control any) (string, error) {
	if e == nil || e.Renderer == nil {
		return "", nil
	}
	return e.Renderer.Render(RenderData{Key: e.Key, Control: control})
}

// EntryList is an ordered list of entries holding at most one entry per key.
type EntryList []*Entry

// NewEntryList builds an EntryList from entries declared in one source,
// stamping origin and source on each. Entries with an empty key are skipped.
// When a key is declared twice the last declaration wins but keeps the
// position of the first.
func NewEntryList(origin Origin, source string, entries ...*Entry) EntryList {
	if len(entries) == 0 {
		return nil
	}

	out := make(EntryList, 0, len(entries))
	index := make(map[string]int, len(entries))
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		key := strings.TrimSpace(entry.Key)
		if key == "" {
			continue
		}
		entry.Key = key
		entry.Origin = origin
		entry.Source = source

		if pos, exists := index[key]; exists {
			out[pos] = entry
			continue
		}
		index[key] = len(out)
		out = append(out, entry)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Normalize drops nil entries and entries without a key and collapses
// duplicate keys, the last declaration winning at the position of the first.
// Origin and source are left untouched. A list that is already normalized is
// returned as-is.
func Normalize(list EntryList) EntryList {
	clean := true
	seen := make(map[string]struct{}, len(list))
	for _, entry := range list {
		if entry == nil || entry.Key == "" {
			clean = false
			break
		}
		if _, dup := seen[entry.Key]; dup {
			clean = false
			break
		}
		seen[entry.Key] = struct{}{}
	}
	if clean {
		return list
	}

	out := make(EntryList, 0, len(list))
	index := make(map[string]int, len(list))
	for _, entry := range list {
		if entry == nil || entry.Key == "" {
			continue
		}
		if pos, exists := index[entry.Key]; exists {
			out[pos] = entry
			continue
		}
		index[entry.Key] = len(out)
		out = append(out, entry)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Keys returns the condition keys in list order.
func (l EntryList) Keys() []string {
	if len(l) == 0 {
		return nil
	}
	keys := make([]string, len(l))
	for i, entry := range l {
		keys[i] = entry.Key
	}
	return keys
}

// Find returns the entry registered for key.
func (l EntryList) Find(key string) (*Entry, bool) {
	for _, entry := range l {
		if entry.Key == key {
			return entry, true
		}
	}
	return nil, false
}
