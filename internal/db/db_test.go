package db

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

const failedToInitDB = "Failed to initialize database: %v"

func TestSetLogger(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.InfoLevel)
	SetLogger(logger)

	// Verify logger is set (we can't easily compare loggers directly)
	// This test mainly ensures the function doesn't panic
}

func TestNewSQLite(t *testing.T) {
	db := NewSQLite("")

	if db == nil {
		t.Fatal("Expected non-nil SQLite instance")
	}
	if db.conn != nil {
		t.Error("Expected connection to be nil initially")
	}
	if db.Path() != "./database.db" {
		t.Errorf("Expected default path, got %q", db.Path())
	}
	if err := db.Close(); err != nil {
		t.Errorf("Expected closing an unopened database to succeed, got %v", err)
	}
}

func TestSQLiteSchema(t *testing.T) {
	SetLogger(zerolog.New(os.Stdout).Level(zerolog.ErrorLevel))

	db := NewSQLite(filepath.Join(t.TempDir(), "test.sqlite"))
	defer db.Close()

	if err := db.InitDB(); err != nil {
		t.Fatalf(failedToInitDB, err)
	}

	t.Run("Tables exist", func(t *testing.T) {
		for _, table := range []string{"documents", "autosaves"} {
			var name string
			err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
			if err != nil {
				t.Errorf("Expected table %s to exist: %v", table, err)
			}
		}
	})

	t.Run("Table columns", func(t *testing.T) {
		expected := map[string][]string{
			"documents": {"kind", "id", "content", "content_hash", "created_at", "modified_at"},
			"autosaves": {"key", "value", "updated_at"},
		}

		for table, columns := range expected {
			rows, err := db.Query("PRAGMA table_info(" + table + ")")
			if err != nil {
				t.Fatalf("Failed to get %s table info: %v", table, err)
			}

			found := make(map[string]bool)
			for rows.Next() {
				var cid int
				var name, dataType string
				var notNull, pk int
				var defaultValue sql.NullString
				if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultValue, &pk); err != nil {
					t.Errorf("Failed to scan column info: %v", err)
					continue
				}
				found[name] = true
			}
			rows.Close()

			for _, col := range columns {
				if !found[col] {
					t.Errorf("Expected %s table to have column %s", table, col)
				}
			}
		}
	})

	t.Run("InitDB is idempotent", func(t *testing.T) {
		again := NewSQLite(db.Path())
		defer again.Close()
		if err := again.InitDB(); err != nil {
			t.Errorf("Expected second InitDB to succeed, got %v", err)
		}
	})
}

func TestSQLiteQueryAndExec(t *testing.T) {
	SetLogger(zerolog.New(os.Stdout).Level(zerolog.ErrorLevel))

	db := NewSQLite(MemoryPath)
	defer db.Close()

	if err := db.InitDB(); err != nil {
		t.Fatalf(failedToInitDB, err)
	}

	result, err := db.Exec(`INSERT INTO autosaves (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
		"page:home", []byte(`{"v":1}`))
	if err != nil {
		t.Fatalf("Failed to insert autosave: %v", err)
	}
	if n, _ := result.RowsAffected(); n != 1 {
		t.Errorf("Expected 1 row affected, got %d", n)
	}

	// A single pinned connection keeps the in-memory database visible.
	var value []byte
	if err := db.QueryRow(`SELECT value FROM autosaves WHERE key = ?`, "page:home").Scan(&value); err != nil {
		t.Fatalf("Failed to read autosave back: %v", err)
	}
	if string(value) != `{"v":1}` {
		t.Errorf("Expected stored value, got %s", value)
	}

	rows, err := db.Query(`SELECT key FROM autosaves`)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	defer rows.Close()
	count := 0
	for rows.Next() {
		count++
	}
	if count != 1 {
		t.Errorf("Expected 1 row, got %d", count)
	}
}
