package lifecycle

import (
	"reflect"

	"github.com/goliatone/go-formmessages/pkg/messages"
)

// Op is a view mutation.
type Op int

const (
	// OpRemove detaches a displayed entry.
	OpRemove Op = iota
	// OpInsert attaches an entry at Index.
	OpInsert
	// OpUpdate re-renders a displayed entry whose control value changed.
	OpUpdate
)

func (o Op) String() string {
	switch o {
	case OpRemove:
		return "remove"
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// Instruction tells the view how to move from one render state to the next.
// Index is the entry's position in the new state for inserts and updates and
// its position in the old state for removes.
type Instruction struct {
	Op      Op
	Entry   *messages.Entry
	Control any
	Index   int
}

// Render renders the instruction's entry with its control value.
func (i Instruction) Render() (string, error) {
	return i.Entry.Render(i.Control)
}

// Diff computes the instructions turning prev into next. Entries are matched
// by identity. Removes come first in previous order, then inserts and updates
// in next order, so applying them in sequence to prev yields next.
func Diff(prev, next messages.RenderState) []Instruction {
	prevIndex := make(map[*messages.Entry]int, len(prev.Matches))
	for i, match := range prev.Matches {
		prevIndex[match.Entry] = i
	}

	// Keep entries that still appear in their previous relative order;
	// anything else is re-inserted.
	kept := make(map[*messages.Entry]bool, len(next.Matches))
	last := -1
	for _, match := range next.Matches {
		idx, ok := prevIndex[match.Entry]
		if ok && idx > last {
			kept[match.Entry] = true
			last = idx
		}
	}

	var out []Instruction
	for i, match := range prev.Matches {
		if !kept[match.Entry] {
			out = append(out, Instruction{Op: OpRemove, Entry: match.Entry, Control: match.Control, Index: i})
		}
	}
	for i, match := range next.Matches {
		if !kept[match.Entry] {
			out = append(out, Instruction{Op: OpInsert, Entry: match.Entry, Control: match.Control, Index: i})
			continue
		}
		old := prev.Matches[prevIndex[match.Entry]]
		if !reflect.DeepEqual(old.Control, match.Control) {
			out = append(out, Instruction{Op: OpUpdate, Entry: match.Entry, Control: match.Control, Index: i})
		}
	}
	return out
}
