package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dentaware/assistd/internal/adapters/storage/sqlite"
	"github.com/dentaware/assistd/internal/domain"
)

func TestCacheGetSetAndOverwrite(t *testing.T) {
	ctx := context.Background()
	cache, err := sqlite.NewCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	defer cache.Close()

	if _, err := cache.Get(ctx, "dentalChats"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for absent key", err)
	}

	if err := cache.Set(ctx, "dentalChats", []byte(`{}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := cache.Set(ctx, "dentalChats", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Set (overwrite): %v", err)
	}

	got, err := cache.Get(ctx, "dentalChats")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("value = %s, want last write", got)
	}
}

func TestCacheSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	cache, err := sqlite.NewCache(path)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	if err := cache.Set(ctx, "chatOrder", []byte(`["a","b"]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := sqlite.NewCache(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "chatOrder")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if string(got) != `["a","b"]` {
		t.Fatalf("value = %s", got)
	}
}
