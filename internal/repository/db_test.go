package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/debemdeboas/autosave/internal/db"
	"github.com/debemdeboas/autosave/internal/model"
	"github.com/google/uuid"
)

func setupTestDb(t *testing.T) *db.SQLite {
	t.Helper()
	database := db.NewSQLite(db.MemoryPath)
	if err := database.InitDB(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestDBRepository_CreateAndLoad(t *testing.T) {
	ctx := context.Background()
	repo := NewDBRepository[model.Page](setupTestDb(t), model.KindPage)

	page := model.Page{
		Title:  "About",
		Slug:   "about",
		Blocks: []model.Block{{ID: "b1", Type: "text", Props: map[string]any{"body": "hi"}}},
	}

	id, err := repo.Create(ctx, page)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("Expected a uuid id, got %q", id)
	}

	got, err := repo.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Title != "About" || got.Slug != "about" || len(got.Blocks) != 1 {
		t.Errorf("Unexpected page %+v", got)
	}
	if got.Blocks[0].Props["body"] != "hi" {
		t.Errorf("Expected block props to survive, got %v", got.Blocks[0].Props)
	}
}

func TestDBRepository_LoadMissing(t *testing.T) {
	repo := NewDBRepository[model.Post](setupTestDb(t), model.KindPost)

	_, err := repo.Load(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDBRepository_KindsAreSeparate(t *testing.T) {
	ctx := context.Background()
	database := setupTestDb(t)
	pages := NewDBRepository[model.Page](database, model.KindPage)
	homes := NewDBRepository[model.Homepage](database, model.KindHomepage)

	if err := pages.Insert(ctx, "home", model.Page{Title: "Home"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, err := homes.Load(ctx, "home"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected the homepage kind not to see page rows, got %v", err)
	}
}

func TestDBRepository_Save(t *testing.T) {
	ctx := context.Background()
	repo := NewDBRepository[model.Post](setupTestDb(t), model.KindPost)

	clock := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }

	id, err := repo.Create(ctx, model.Post{Title: "Draft", Markdown: "# One"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	t.Run("Save updates content", func(t *testing.T) {
		clock = clock.Add(time.Minute)
		if err := repo.Save(ctx, id, model.Post{Title: "Draft", Markdown: "# Two"}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		got, _ := repo.Load(ctx, id)
		if got.Markdown != "# Two" {
			t.Errorf("Expected updated markdown, got %q", got.Markdown)
		}
		modified, err := repo.ModifiedAt(ctx, id)
		if err != nil {
			t.Fatalf("ModifiedAt failed: %v", err)
		}
		if !modified.Equal(clock) {
			t.Errorf("Expected modified_at %v, got %v", clock, modified)
		}
	})

	t.Run("Identical save keeps modified time", func(t *testing.T) {
		before, _ := repo.ModifiedAt(ctx, id)
		clock = clock.Add(time.Hour)
		if err := repo.Save(ctx, id, model.Post{Title: "Draft", Markdown: "# Two"}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		after, _ := repo.ModifiedAt(ctx, id)
		if !after.Equal(before) {
			t.Errorf("Expected modified_at to stay %v, got %v", before, after)
		}
	})

	t.Run("Save missing document", func(t *testing.T) {
		err := repo.Save(ctx, "missing", model.Post{})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestDBRepository_ContentIsCompressed(t *testing.T) {
	ctx := context.Background()
	database := setupTestDb(t)
	repo := NewDBRepository[model.Post](database, model.KindPost)

	id, err := repo.Create(ctx, model.Post{Markdown: "# Hello"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var raw []byte
	var hash string
	err = database.QueryRow(`SELECT content, content_hash FROM documents WHERE id = ?`, id).Scan(&raw, &hash)
	if err != nil {
		t.Fatalf("Failed to read row: %v", err)
	}
	if string(raw) == `{"title":"","markdown":"# Hello"}` {
		t.Error("Expected stored content to be compressed")
	}
	if len(hash) != 64 {
		t.Errorf("Expected sha256 hex content hash, got %q", hash)
	}
}
