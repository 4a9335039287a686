package chatstore

import (
	"iter"
	"slices"
	"strings"

	"github.com/dentaware/assistd/internal/domain"
)

// SetFolderFilter selects the folder the filtered view is restricted to.
// An empty id clears the restriction.
func (s *Store) SetFolderFilter(folder domain.FolderID) {
	s.mu.Lock()
	s.selectedFolder = folder
	s.mu.Unlock()
}

// ToggleTagFilter adds the tag to the active tag selection, or removes it when
// already selected.
func (s *Store) ToggleTagFilter(tag string) {
	s.mu.Lock()
	if i := slices.Index(s.selectedTags, tag); i >= 0 {
		s.selectedTags = slices.Delete(s.selectedTags, i, i+1)
	} else {
		s.selectedTags = append(s.selectedTags, tag)
	}
	s.mu.Unlock()
}

// ClearFilters resets the folder and tag selection.
func (s *Store) ClearFilters() {
	s.mu.Lock()
	s.selectedFolder = ""
	s.selectedTags = nil
	s.mu.Unlock()
}

// Filtered applies the store's current folder and tag selection plus the given
// search term.
func (s *Store) Filtered(searchTerm string) iter.Seq[*domain.Chat] {
	s.mu.RLock()
	folder := s.selectedFolder
	tags := slices.Clone(s.selectedTags)
	s.mu.RUnlock()
	return s.FilteredView(folder, tags, searchTerm)
}

// FilteredView returns a lazy, restartable, order-preserving sequence over
// the chat order. Filters combine with logical AND:
//   - folder-equality when folder is non-empty,
//   - tag membership when tags is non-empty,
//   - case-insensitive substring search across name, tag and every message
//     when searchTerm is non-empty.
//
// It is a pure read projection; the yielded chats are copies.
func (s *Store) FilteredView(folder domain.FolderID, tags []string, searchTerm string) iter.Seq[*domain.Chat] {
	term := strings.ToLower(strings.TrimSpace(searchTerm))
	return func(yield func(*domain.Chat) bool) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		for _, id := range s.order {
			c, ok := s.chats[id]
			if !ok {
				continue // stale id, dropped from the view
			}
			if folder != "" && c.FolderID != folder {
				continue
			}
			if len(tags) > 0 && !slices.Contains(tags, c.Tag) {
				continue
			}
			if term != "" && !matchesSearch(c, term) {
				continue
			}
			if !yield(c.Clone()) {
				return
			}
		}
	}
}

func matchesSearch(c *domain.Chat, term string) bool {
	if strings.Contains(strings.ToLower(c.Name), term) {
		return true
	}
	if strings.Contains(strings.ToLower(c.Tag), term) {
		return true
	}
	for _, m := range c.Messages {
		if strings.Contains(strings.ToLower(m.Content), term) {
			return true
		}
	}
	return false
}

// Tags returns the distinct non-empty tags across all chats, sorted. This is
// the source list for the tag filter.
func (s *Store) Tags() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	var tags []string
	for _, c := range s.chats {
		if c.Tag != "" && !seen[c.Tag] {
			seen[c.Tag] = true
			tags = append(tags, c.Tag)
		}
	}
	slices.Sort(tags)
	return tags
}
