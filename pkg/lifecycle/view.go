package lifecycle

import (
	"sync"

	"github.com/goliatone/go-formmessages/pkg/messages"
)

// View receives the instructions of each recompute that changed the display.
type View interface {
	Apply(instructions []Instruction)
}

// ViewFunc adapts a function into a View.
type ViewFunc func(instructions []Instruction)

// Apply delegates to the underlying function.
func (fn ViewFunc) Apply(instructions []Instruction) {
	fn(instructions)
}

// Animator receives the active/inactive class pair.
type Animator interface {
	SetClass(add, remove string)
}

// AnimatorFunc adapts a function into an Animator.
type AnimatorFunc func(add, remove string)

// SetClass delegates to the underlying function.
func (fn AnimatorFunc) SetClass(add, remove string) {
	fn(add, remove)
}

// Item is a displayed entry held by a ListView.
type Item struct {
	Entry   *messages.Entry
	Control any
	Text    string
	Err     error
}

// ListView is a View that materialises instructions into an ordered list of
// rendered items. It is safe for concurrent use.
type ListView struct {
	mu    sync.RWMutex
	items []Item
}

var _ View = (*ListView)(nil)

// Apply implements View.
func (v *ListView) Apply(instructions []Instruction) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, ins := range instructions {
		switch ins.Op {
		case OpRemove:
			for i, item := range v.items {
				if item.Entry == ins.Entry {
					v.items = append(v.items[:i], v.items[i+1:]...)
					break
				}
			}
		case OpInsert:
			item := renderItem(ins)
			at := ins.Index
			if at < 0 || at > len(v.items) {
				at = len(v.items)
			}
			v.items = append(v.items, Item{})
			copy(v.items[at+1:], v.items[at:])
			v.items[at] = item
		case OpUpdate:
			for i, item := range v.items {
				if item.Entry == ins.Entry {
					v.items[i] = renderItem(ins)
					break
				}
			}
		}
	}
}

// Items returns a copy of the displayed items.
func (v *ListView) Items() []Item {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]Item(nil), v.items...)
}

// Texts returns the rendered text of every displayed item.
func (v *ListView) Texts() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if len(v.items) == 0 {
		return nil
	}
	out := make([]string, len(v.items))
	for i, item := range v.items {
		out[i] = item.Text
	}
	return out
}

func renderItem(ins Instruction) Item {
	text, err := ins.Render()
	return Item{Entry: ins.Entry, Control: ins.Control, Text: text, Err: err}
}
