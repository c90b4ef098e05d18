package receipt

import "registro/internal/core"

// Set is the bounded, ordered attachment collection held during one expense
// entry or edit session. It lives on the single event-handling goroutine and
// is discarded when the session ends, so it carries no locking.
type Set struct {
	items []core.Attachment
}

func NewSet() *Set {
	return &Set{}
}

// Add appends an attachment, preserving insertion order. At capacity it
// fails with core.ErrCapacityExceeded and changes nothing.
func (s *Set) Add(a core.Attachment) error {
	if len(s.items) >= core.MaxAttachmentsPerExpense {
		return core.ErrCapacityExceeded
	}
	s.items = append(s.items, a)
	return nil
}

// Remove deletes the attachment with the given id. An absent id is a no-op.
func (s *Set) Remove(id string) {
	for i, a := range s.items {
		if a.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// Clear empties the set. Used on save, reset, or cancel.
func (s *Set) Clear() {
	s.items = nil
}

// Load replaces the set wholesale with an expense's existing attachments,
// so an opened record can be resubmitted unchanged or amended.
func (s *Set) Load(existing []core.Attachment) {
	s.items = append([]core.Attachment(nil), existing...)
}

// Items returns a copy of the current contents in insertion order.
func (s *Set) Items() []core.Attachment {
	return append([]core.Attachment(nil), s.items...)
}

func (s *Set) Len() int {
	return len(s.items)
}

// Contains reports whether an attachment with the given name is present.
func (s *Set) Contains(name string) bool {
	for _, a := range s.items {
		if a.Name == name {
			return true
		}
	}
	return false
}
