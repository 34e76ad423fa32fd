package forms

import "github.com/aretw0/nestflow/pkg/domain"

func (e *Editor) editItems(id string, fn func(items []string) ([]string, bool)) bool {
	return e.store.EditConfig(id, func(c domain.Config) bool {
		rc, ok := c.(*domain.RankingConfig)
		if !ok {
			return false
		}
		items, changed := fn(rc.Items)
		if changed {
			rc.Items = items
		}
		return changed
	})
}

// AddItem appends an item to a ranking node.
func (e *Editor) AddItem(id, text string) bool {
	return e.editItems(id, func(items []string) ([]string, bool) {
		return append(items, text), true
	})
}

// SetItem edits the item at index.
func (e *Editor) SetItem(id string, index int, text string) bool {
	return e.editItems(id, func(items []string) ([]string, bool) {
		if index < 0 || index >= len(items) {
			return items, false
		}
		items[index] = text
		return items, true
	})
}

// RemoveItem deletes the item at index.
func (e *Editor) RemoveItem(id string, index int) bool {
	return e.editItems(id, func(items []string) ([]string, bool) {
		if index < 0 || index >= len(items) {
			return items, false
		}
		return append(items[:index], items[index+1:]...), true
	})
}

// MoveItem reorders the authored items, moving the item at from to position to.
func (e *Editor) MoveItem(id string, from, to int) bool {
	return e.editItems(id, func(items []string) ([]string, bool) {
		return domain.MoveItem(items, from, to)
	})
}
