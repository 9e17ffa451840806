// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

type record struct {
	ID   int    `json:"id"`
	Body string `json:"body"`
}

func TestKindNames(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{PullsKind(100), "repo_pulls_per_100"},
		{IssueCommentsKind(42), "issue_42_comments"},
		{ReviewCommentsKind(42), "pull_42_review_comments"},
		{ReviewsKind(42), "pull_42_reviews"},
		{FilesKind(42), "pull_42_files"},
		{PullItemName(42), "pull_42"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, tt.got)
		}
	}
}

func TestWriteAndLoadPages(t *testing.T) {
	store := New(t.TempDir())
	kind := IssueCommentsKind(1)

	if store.HasPages(kind) {
		t.Error("fresh store should have no pages")
	}

	if err := store.WritePage(kind, 1, []record{{ID: 1, Body: "a"}, {ID: 2, Body: "b"}}); err != nil {
		t.Fatalf("WritePage failed: %v", err)
	}
	if err := store.WritePage(kind, 2, []record{{ID: 3, Body: "c"}}); err != nil {
		t.Fatalf("WritePage failed: %v", err)
	}

	if !store.HasPages(kind) {
		t.Error("expected pages after write")
	}

	pages, hit, err := store.LoadPages(kind)
	if err != nil {
		t.Fatalf("LoadPages failed: %v", err)
	}
	if !hit {
		t.Fatal("expected cache hit")
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}

	var first []record
	if err := json.Unmarshal(pages[0], &first); err != nil {
		t.Fatalf("page 1 is not valid JSON: %v", err)
	}
	if len(first) != 2 || first[0].ID != 1 {
		t.Errorf("unexpected page 1 contents: %v", first)
	}
}

func TestLoadPagesStopsAtGap(t *testing.T) {
	store := New(t.TempDir())
	kind := ReviewsKind(5)

	if err := store.WritePage(kind, 1, []record{{ID: 1}}); err != nil {
		t.Fatal(err)
	}
	// Page 2 missing; page 3 is a stray that must be ignored.
	if err := store.WritePage(kind, 3, []record{{ID: 3}}); err != nil {
		t.Fatal(err)
	}

	pages, hit, err := store.LoadPages(kind)
	if err != nil {
		t.Fatalf("LoadPages failed: %v", err)
	}
	if !hit || len(pages) != 1 {
		t.Errorf("expected the contiguous run of 1 page, got %d (hit=%v)", len(pages), hit)
	}
}

func TestLoadPagesMiss(t *testing.T) {
	store := New(t.TempDir())

	pages, hit, err := store.LoadPages(PullsKind(100))
	if err != nil {
		t.Fatalf("LoadPages failed: %v", err)
	}
	if hit || pages != nil {
		t.Errorf("expected miss on empty store, got hit=%v pages=%v", hit, pages)
	}
}

func TestWriteAndLoadItem(t *testing.T) {
	store := New(t.TempDir())
	name := PullItemName(7)

	if store.HasItem(name) {
		t.Error("fresh store should have no item")
	}

	if err := store.WriteItem(name, record{ID: 7, Body: "x"}); err != nil {
		t.Fatalf("WriteItem failed: %v", err)
	}
	if !store.HasItem(name) {
		t.Error("expected item after write")
	}

	data, hit, err := store.LoadItem(name)
	if err != nil {
		t.Fatalf("LoadItem failed: %v", err)
	}
	if !hit {
		t.Fatal("expected item hit")
	}

	var got record
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("item is not valid JSON: %v", err)
	}
	if got.ID != 7 {
		t.Errorf("unexpected item: %+v", got)
	}
}

func TestWriteCreatesDirectoryAndLeavesNoTempFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	store := New(dir)

	if err := store.WritePage(PullsKind(100), 1, []record{{ID: 1}}); err != nil {
		t.Fatalf("WritePage failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("cache dir missing: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestWritePageOverwritesExisting(t *testing.T) {
	store := New(t.TempDir())
	kind := FilesKind(3)

	if err := store.WritePage(kind, 1, []record{{ID: 1, Body: "old"}}); err != nil {
		t.Fatal(err)
	}
	if err := store.WritePage(kind, 1, []record{{ID: 1, Body: "new"}}); err != nil {
		t.Fatal(err)
	}

	pages, _, err := store.LoadPages(kind)
	if err != nil {
		t.Fatal(err)
	}
	var got []record
	if err := json.Unmarshal(pages[0], &got); err != nil {
		t.Fatal(err)
	}
	if got[0].Body != "new" {
		t.Errorf("expected overwrite, got %q", got[0].Body)
	}
}
