package model

import (
	"encoding/json"
	"testing"
)

func TestStorageKey(t *testing.T) {
	tests := []struct {
		kind Kind
		id   string
		lang string
		want string
	}{
		{KindPage, "home", "", "page:home"},
		{KindPost, "42", "pt", "post:42:pt"},
		{KindHomepage, "main", "", "homepage:main"},
	}

	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			if got := StorageKey(tc.kind, tc.id, tc.lang); got != tc.want {
				t.Errorf("Expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestPostApplyFrontMatter(t *testing.T) {
	t.Run("Title and language", func(t *testing.T) {
		p := Post{Markdown: "%%%\ntitle = \"Hello\"\nlanguage = \"pt\"\n%%%\n# Body"}
		if !p.ApplyFrontMatter() {
			t.Fatal("Expected front matter to be found")
		}
		if p.Title != "Hello" {
			t.Errorf("Expected title 'Hello', got %q", p.Title)
		}
		if p.Language != "pt" {
			t.Errorf("Expected language 'pt', got %q", p.Language)
		}
	})

	t.Run("Series prefix", func(t *testing.T) {
		p := Post{Markdown: "%%%\ntitle = \"Part One\"\n[seriesinfo]\nname = \"Go\"\nvalue = \"1\"\n%%%\n"}
		p.ApplyFrontMatter()
		if p.Title != "[Go-1] Part One" {
			t.Errorf("Expected series-prefixed title, got %q", p.Title)
		}
	})

	t.Run("No front matter keeps fields", func(t *testing.T) {
		p := Post{Title: "Manual", Markdown: "# Just text"}
		if p.ApplyFrontMatter() {
			t.Error("Expected no front matter")
		}
		if p.Title != "Manual" {
			t.Errorf("Expected title to stay 'Manual', got %q", p.Title)
		}
	})
}

func TestDocumentsSerializeStably(t *testing.T) {
	page := Page{
		Title: "Home",
		Slug:  "home",
		Blocks: []Block{
			{ID: "b1", Type: "hero", Props: map[string]any{"z": 1, "a": "x"}},
		},
	}

	first, err := json.Marshal(page)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"title":"Home","slug":"home","blocks":[{"id":"b1","type":"hero","props":{"a":"x","z":1}}]}`
	if string(first) != want {
		t.Errorf("Expected %s, got %s", want, first)
	}

	var back Page
	if err := json.Unmarshal(first, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	second, _ := json.Marshal(back)
	if string(first) != string(second) {
		t.Errorf("Expected stable re-encoding, got %s", second)
	}

	home := Homepage{Sections: []Section{{ID: "s1", Kind: "posts", Enabled: true}}}
	b, _ := json.Marshal(home)
	if string(b) != `{"sections":[{"id":"s1","kind":"posts","enabled":true}]}` {
		t.Errorf("Unexpected homepage encoding %s", b)
	}
}
