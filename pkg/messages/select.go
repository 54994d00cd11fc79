package messages

import (
	"fmt"
	"strconv"
	"strings"
)

// Mode is the display cardinality policy.
type Mode int

const (
	// ModeSingle renders the first matching entry only.
	ModeSingle Mode = iota
	// ModeMultiple renders every matching entry in list order.
	ModeMultiple
)

func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModeMultiple:
		return "multiple"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeSingle || m == ModeMultiple
}

// ParseMode accepts "single"/"multiple" as well as the boolean spelling of
// the multiple toggle ("true", "1", ...). An empty string is ModeSingle.
func ParseMode(raw string) (Mode, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	switch trimmed {
	case "", "single", "first":
		return ModeSingle, nil
	case "multiple", "all":
		return ModeMultiple, nil
	}
	multiple, err := strconv.ParseBool(trimmed)
	if err != nil {
		return ModeSingle, fmt.Errorf("messages: unknown mode %q", raw)
	}
	if multiple {
		return ModeMultiple, nil
	}
	return ModeSingle, nil
}

// Match is an entry chosen for display together with the flag value that
// selected it.
type Match struct {
	Entry   *Entry
	Control any
}

// RenderState is the set of entries currently chosen for display.
type RenderState struct {
	Matches []Match
}

// Active reports whether anything is displayed.
func (s RenderState) Active() bool {
	return len(s.Matches) > 0
}

// Keys returns the keys of the displayed entries in display order.
func (s RenderState) Keys() []string {
	if len(s.Matches) == 0 {
		return nil
	}
	keys := make([]string, len(s.Matches))
	for i, match := range s.Matches {
		keys[i] = match.Entry.Key
	}
	return keys
}

// Render renders every displayed entry in order.
func (s RenderState) Render() ([]string, error) {
	if len(s.Matches) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(s.Matches))
	for _, match := range s.Matches {
		text, err := match.Entry.Render(match.Control)
		if err != nil {
			return nil, fmt.Errorf("messages: render %q: %w", match.Entry.Key, err)
		}
		out = append(out, text)
	}
	return out, nil
}

// Select computes the render state for a flag snapshot. It is a pure function
// of its inputs. Only ModeMultiple shows more than one entry; any other mode
// stops at the first match.
func Select(flags any, list EntryList, mode Mode) RenderState {
	if len(list) == 0 || !IsCollection(flags) {
		return RenderState{}
	}

	var state RenderState
	for _, entry := range list {
		value, ok := Lookup(flags, entry.Key)
		if !ok || !Truthy(value) {
			continue
		}
		state.Matches = append(state.Matches, Match{Entry: entry, Control: value})
		if mode != ModeMultiple {
			break
		}
	}
	return state
}
