package chatstore_test

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/dentaware/assistd/internal/chatstore"
	"github.com/dentaware/assistd/internal/domain"
)

func collect(s *chatstore.Store, folder domain.FolderID, tags []string, term string) []domain.ChatID {
	var ids []domain.ChatID
	for c := range s.FilteredView(folder, tags, term) {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestFilteredViewNoFiltersPreservesOrder(t *testing.T) {
	ctx := context.Background()
	s, _, _, _ := newTestStore(t)

	s.CreateChat(ctx, "c", "", "")
	s.CreateChat(ctx, "b", "", "")
	s.CreateChat(ctx, "a", "", "")

	seq := s.FilteredView("", nil, "")

	first := collect(s, "", nil, "")
	if !slices.Equal(first, s.Order()) {
		t.Fatalf("view order %v, store order %v", first, s.Order())
	}

	// The sequence is restartable; a second pass yields the same result.
	var second []domain.ChatID
	for c := range seq {
		second = append(second, c.ID)
	}
	var third []domain.ChatID
	for c := range seq {
		third = append(third, c.ID)
	}
	if !slices.Equal(second, third) {
		t.Fatalf("restarted sequence diverged: %v vs %v", second, third)
	}
}

func TestFilteredViewFiltersCombineWithAnd(t *testing.T) {
	ctx := context.Background()
	s, _, _, _ := newTestStore(t)

	folder := s.CreateFolder(ctx, "Patients")
	match := s.CreateChat(ctx, "Molar pain", "urgent", folder)
	s.CreateChat(ctx, "Molar pain", "urgent", "")       // wrong folder
	s.CreateChat(ctx, "Molar pain", "routine", folder)  // wrong tag
	s.CreateChat(ctx, "Whitening", "urgent", folder)    // no term match

	got := collect(s, folder, []string{"urgent"}, "molar")
	if len(got) != 1 || got[0] != match {
		t.Fatalf("filtered ids = %v, want [%s]", got, match)
	}
}

func TestFilteredViewSearchesMessageContents(t *testing.T) {
	ctx := context.Background()
	s, _, _, _ := newTestStore(t)

	id := s.CreateChat(ctx, "Untitled", "", "")
	err := s.AppendMessage(ctx, id, domain.Message{
		Role:      domain.RoleUser,
		Content:   "Do you offer Invisalign?",
		Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	s.CreateChat(ctx, "Other", "", "")

	got := collect(s, "", nil, "invisalign")
	if len(got) != 1 || got[0] != id {
		t.Fatalf("filtered ids = %v, want [%s]", got, id)
	}
}

func TestFilteredViewYieldsCopies(t *testing.T) {
	ctx := context.Background()
	s, _, _, _ := newTestStore(t)

	id := s.CreateChat(ctx, "Original", "", "")
	for c := range s.FilteredView("", nil, "") {
		c.Name = "mutated"
	}
	c, _ := s.Chat(id)
	if c.Name != "Original" {
		t.Fatal("mutating a yielded chat leaked into the store")
	}
}

func TestFilteredUsesStoredSelection(t *testing.T) {
	ctx := context.Background()
	s, _, _, _ := newTestStore(t)

	folder := s.CreateFolder(ctx, "Patients")
	match := s.CreateChat(ctx, "A", "urgent", folder)
	s.CreateChat(ctx, "B", "urgent", "")
	s.CreateChat(ctx, "C", "routine", folder)

	s.SetFolderFilter(folder)
	s.ToggleTagFilter("urgent")

	var got []domain.ChatID
	for c := range s.Filtered("") {
		got = append(got, c.ID)
	}
	if len(got) != 1 || got[0] != match {
		t.Fatalf("filtered ids = %v, want [%s]", got, match)
	}

	// Toggling the same tag again deselects it.
	s.ToggleTagFilter("urgent")
	s.ClearFilters()
	if n := countFiltered(s.Filtered("")); n != 3 {
		t.Fatalf("cleared filters left %d chats visible", n)
	}

	// Deleting the selected folder drops the restriction with it.
	s.SetFolderFilter(folder)
	s.DeleteFolder(ctx, folder)
	if n := countFiltered(s.Filtered("")); n != 3 {
		t.Fatalf("deleted folder still restricts the view, %d visible", n)
	}
}

func countFiltered(seq func(func(*domain.Chat) bool)) int {
	n := 0
	for range seq {
		n++
	}
	return n
}

func TestTagsDistinctSorted(t *testing.T) {
	ctx := context.Background()
	s, _, _, _ := newTestStore(t)

	s.CreateChat(ctx, "a", "urgent", "")
	s.CreateChat(ctx, "b", "billing", "")
	s.CreateChat(ctx, "c", "urgent", "")
	s.CreateChat(ctx, "d", "", "")

	got := s.Tags()
	want := []string{"billing", "urgent"}
	if !slices.Equal(got, want) {
		t.Fatalf("Tags() = %v, want %v", got, want)
	}
}
