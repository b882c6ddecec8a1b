// Package interact owns the tag selection of a network view and turns user
// gestures into selection changes, network re-fetches and node drags.
package interact

// Selection is an ordered set of selected tags. It lives only for the
// session and is never persisted.
type Selection struct {
	items []string
}

// NewSelection returns a selection holding tags in order, without duplicates
// or empty strings.
func NewSelection(tags ...string) *Selection {
	s := &Selection{}
	s.Replace(tags)
	return s
}

// Toggle adds tag if absent and removes it otherwise. It reports whether the
// tag is selected afterwards.
func (s *Selection) Toggle(tag string) bool {
	if tag == "" {
		return false
	}
	for i, t := range s.items {
		if t == tag {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return false
		}
	}
	s.items = append(s.items, tag)
	return true
}

// Contains reports whether tag is selected.
func (s *Selection) Contains(tag string) bool {
	for _, t := range s.items {
		if t == tag {
			return true
		}
	}
	return false
}

// Items returns a copy of the selected tags in selection order.
func (s *Selection) Items() []string {
	return append([]string{}, s.items...)
}

// Len returns the number of selected tags.
func (s *Selection) Len() int {
	return len(s.items)
}

// Replace swaps the selection for tags.
func (s *Selection) Replace(tags []string) {
	seen := make(map[string]bool, len(tags))
	items := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		items = append(items, t)
	}
	s.items = items
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.items = nil
}
