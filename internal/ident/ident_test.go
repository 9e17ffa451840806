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

package ident

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirseerhq/prscan/internal/github"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
		found bool
	}{
		{"leading identifier", "[FLINK-12345] Fix connector", "FLINK-12345", true},
		{"identifier mid-title", "Backport of [HDFS-99] to 2.x", "HDFS-99", true},
		{"first of several wins", "[A-1] then [B-2]", "A-1", true},
		{"no brackets", "FLINK-12345 Fix connector", "", false},
		{"lowercase key", "[flink-123] nope", "", false},
		{"missing number", "[FLINK-] nope", "", false},
		{"plain title", "Bump dependencies", "", false},
		{"empty title", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := Extract(tt.title)
			if found != tt.found {
				t.Fatalf("Extract(%q) found = %v, want %v", tt.title, found, tt.found)
			}
			if got != tt.want {
				t.Errorf("Extract(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestLoadAllowList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bugs.txt")
	content := "FLINK-1\n\"FLINK-2\"\n  FLINK-3  \n\nnot an id\nflink-4\nFLINK-5 trailing junk\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	set, err := LoadAllowList(path)
	if err != nil {
		t.Fatalf("LoadAllowList failed: %v", err)
	}

	for _, id := range []string{"FLINK-1", "FLINK-2", "FLINK-3"} {
		if !set.Contains(id) {
			t.Errorf("expected %s in allow-list", id)
		}
	}
	if len(set) != 3 {
		t.Errorf("expected 3 identifiers, got %d: %v", len(set), set)
	}
}

func TestLoadAllowListMissingFile(t *testing.T) {
	if _, err := LoadAllowList(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pull(number int, title string, created time.Time) github.PullRequest {
	return github.PullRequest{Number: number, Title: title, CreatedAt: created}
}

func TestFilter(t *testing.T) {
	window := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	allow := Set{"X-1": {}, "Y-2": {}}

	items := []github.PullRequest{
		pull(1, "[X-1] at window start", window),
		pull(2, "[Y-2] later", window.AddDate(0, 2, 0)),
		pull(3, "[X-1] too old", window.Add(-time.Second)),
		pull(4, "[Z-3] not listed", window.AddDate(0, 1, 0)),
		pull(5, "no identifier", window.AddDate(0, 1, 0)),
	}

	kept := Filter(items, window, allow, discard())

	if len(kept) != 2 {
		t.Fatalf("expected 2 kept items, got %d", len(kept))
	}
	// Input order is preserved.
	if kept[0].Number != 1 || kept[1].Number != 2 {
		t.Errorf("unexpected order: %d, %d", kept[0].Number, kept[1].Number)
	}
}

func TestFilterEmptyAllowListKeepsAllIdentified(t *testing.T) {
	items := []github.PullRequest{
		pull(1, "[X-1] tracked", time.Now()),
		pull(2, "untracked", time.Now()),
	}

	kept := Filter(items, time.Time{}, nil, discard())

	if len(kept) != 1 || kept[0].Number != 1 {
		t.Errorf("expected only the identified item, got %v", kept)
	}
}

func TestFilterZeroWindowKeepsEverything(t *testing.T) {
	old := time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []github.PullRequest{pull(1, "[X-1] ancient", old)}

	kept := Filter(items, time.Time{}, Set{"X-1": {}}, discard())
	if len(kept) != 1 {
		t.Errorf("zero window must not drop items, got %d kept", len(kept))
	}
}
