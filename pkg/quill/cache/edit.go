package cache

import (
	"github.com/quillreader/quill/pkg/quill/a11y"
)

// Event-application helpers. The pipeline's cache-maintenance handlers
// translate bus notifications into these in-place edits.

// AddChild records child at index in parent's children sequence and, when
// the child is cached, points its parent field back at parent. Both sides
// change under one identity-ordered dual lock.
func (c *Cache) AddChild(parent, child a11y.Identity, index int) bool {
	pe := c.lookup(parent)
	if pe == nil {
		return false
	}

	ce := c.lookup(child)
	if ce == nil || parent == child {
		pe.mu.Lock()
		insertChild(&pe.item, child, index)
		pe.mu.Unlock()
		return true
	}

	unlock := lockPair(parent, pe, child, ce)
	insertChild(&pe.item, child, index)
	ce.item.Parent = parent
	unlock()
	return true
}

// RemoveChild detaches child from parent's children sequence and removes
// the child's subtree from the store.
func (c *Cache) RemoveChild(parent, child a11y.Identity) bool {
	pe := c.lookup(parent)
	if pe == nil {
		return false
	}
	pe.mu.Lock()
	removeChild(&pe.item, child)
	pe.mu.Unlock()

	c.removeSubtree(child, make(map[a11y.Identity]bool), 0)
	return true
}

// SetText replaces the item's text content.
func (c *Cache) SetText(id a11y.Identity, text string) bool {
	return c.Modify(id, func(item *a11y.CacheItem) {
		item.Text = text
	})
}

// SetCaret records the caret offset within the item's text.
func (c *Cache) SetCaret(id a11y.Identity, offset int) bool {
	return c.Modify(id, func(item *a11y.CacheItem) {
		item.CaretOffset = offset
	})
}

// SetState flips one state flag.
func (c *Cache) SetState(id a11y.Identity, state a11y.State, enabled bool) bool {
	return c.Modify(id, func(item *a11y.CacheItem) {
		item.States = item.States.Set(state, enabled)
	})
}

// SetName replaces the accessible name.
func (c *Cache) SetName(id a11y.Identity, name string) bool {
	return c.Modify(id, func(item *a11y.CacheItem) {
		item.Name = name
	})
}

// SetDescription replaces the accessible description.
func (c *Cache) SetDescription(id a11y.Identity, description string) bool {
	return c.Modify(id, func(item *a11y.CacheItem) {
		item.Description = description
	})
}

// SetRole replaces the role.
func (c *Cache) SetRole(id a11y.Identity, role a11y.Role) bool {
	return c.Modify(id, func(item *a11y.CacheItem) {
		item.Role = role
	})
}
