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

package metadata

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTrackerItemStats(t *testing.T) {
	tracker := New()

	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mid := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)

	tracker.RecordItem(42, mid, mid, true)
	tracker.RecordItem(7, old, recent, false)
	tracker.RecordItem(100, mid, mid, true)

	if tracker.stats.TotalItems != 3 {
		t.Errorf("expected 3 total items, got %d", tracker.stats.TotalItems)
	}
	if tracker.stats.KeptItems != 2 {
		t.Errorf("expected 2 kept items, got %d", tracker.stats.KeptItems)
	}
	if tracker.stats.FirstItem != 7 || tracker.stats.LastItem != 100 {
		t.Errorf("expected item range 7..100, got %d..%d",
			tracker.stats.FirstItem, tracker.stats.LastItem)
	}
	if !tracker.stats.OldestItem.Equal(old) {
		t.Errorf("expected oldest %v, got %v", old, tracker.stats.OldestItem)
	}
	if !tracker.stats.NewestItem.Equal(recent) {
		t.Errorf("expected newest %v, got %v", recent, tracker.stats.NewestItem)
	}
}

func TestTrackerGenerate(t *testing.T) {
	tracker := New()
	tracker.RecordAPICall()
	tracker.RecordAPICall()
	tracker.RecordCacheHit()
	tracker.RecordItem(1, time.Now(), time.Now(), true)

	params := ScanParams{Owner: "acme", Repository: "widgets", Policy: "overwrite", PageSize: 100}
	md := tracker.Generate("1.2.3", params, Outcome{Matched: 1}, nil)

	if md.ScanVersion != "1.2.3" {
		t.Errorf("expected version 1.2.3, got %q", md.ScanVersion)
	}
	if !strings.HasPrefix(md.ScanID, "scan-") {
		t.Errorf("unexpected scan ID %q", md.ScanID)
	}
	if md.Results.APICallCount != 2 {
		t.Errorf("expected 2 API calls, got %d", md.Results.APICallCount)
	}
	if md.Results.CacheHits != 1 {
		t.Errorf("expected 1 cache hit, got %d", md.Results.CacheHits)
	}
	if md.Results.Matched != 1 {
		t.Errorf("expected 1 matched, got %d", md.Results.Matched)
	}
	if md.Results.CompletedAt.Before(md.Results.StartedAt) {
		t.Error("completed before started")
	}
}

func TestSaveAndLoadLatest(t *testing.T) {
	dir := t.TempDir()

	first := New()
	md1 := first.Generate("dev", ScanParams{Owner: "acme", Repository: "widgets"}, Outcome{}, nil)
	md1.Results.StartedAt = time.Unix(1700000000, 0)
	if err := Save(md1, dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	md2 := New().Generate("dev", ScanParams{Owner: "acme", Repository: "widgets"}, Outcome{}, nil)
	md2.ScanID = "scan-later"
	md2.Results.StartedAt = time.Unix(1700000100, 0)
	if err := Save(md2, dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// A record for another repository must not be picked up.
	other := New().Generate("dev", ScanParams{Owner: "acme", Repository: "other"}, Outcome{}, nil)
	other.Results.StartedAt = time.Unix(1700000200, 0)
	if err := Save(other, dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := LoadLatest(dir, "acme", "widgets")
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected metadata, got nil")
	}
	if got.ScanID != "scan-later" {
		t.Errorf("expected latest record, got %q", got.ScanID)
	}
}

func TestLoadLatestEmpty(t *testing.T) {
	got, err := LoadLatest(t.TempDir(), "acme", "widgets")
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil on empty dir, got %v", got)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	md := New().Generate("dev", ScanParams{Owner: "a", Repository: "b"}, Outcome{}, nil)
	if err := Save(md, dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	tmps, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if err != nil {
		t.Fatal(err)
	}
	if len(tmps) != 0 {
		t.Errorf("temp files left behind: %v", tmps)
	}
}
