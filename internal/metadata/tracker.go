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

// Package metadata tracks and persists audit records for scan runs. Each
// run produces a JSON file recording its parameters, item statistics, API
// usage and cache effectiveness, saved alongside the cached snapshots so
// external tooling can analyze scan history.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Tracker collects statistics while a scan runs. Create one at the start
// of the run and call its record methods as work happens.
type Tracker struct {
	startTime time.Time
	apiCalls  int
	cacheHits int
	stats     ItemStats
}

// ItemStats is the running numeric and temporal range of scanned items.
type ItemStats struct {
	TotalItems int
	KeptItems  int
	FirstItem  int
	LastItem   int
	OldestItem time.Time
	NewestItem time.Time
}

// New creates a tracker anchored at the current time.
func New() *Tracker {
	return &Tracker{startTime: time.Now()}
}

// RecordAPICall notes one network request to the GitHub API.
func (t *Tracker) RecordAPICall() {
	t.apiCalls++
}

// RecordCacheHit notes one dataset served entirely from cache.
func (t *Tracker) RecordCacheHit() {
	t.cacheHits++
}

// RecordItem updates the running ranges with one scanned item. kept
// reports whether the item survived the identifier and window filter.
func (t *Tracker) RecordItem(number int, createdAt, updatedAt time.Time, kept bool) {
	t.stats.TotalItems++
	if kept {
		t.stats.KeptItems++
	}

	if t.stats.FirstItem == 0 || number < t.stats.FirstItem {
		t.stats.FirstItem = number
	}
	if number > t.stats.LastItem {
		t.stats.LastItem = number
	}

	if t.stats.OldestItem.IsZero() || createdAt.Before(t.stats.OldestItem) {
		t.stats.OldestItem = createdAt
	}
	if updatedAt.After(t.stats.NewestItem) {
		t.stats.NewestItem = updatedAt
	}
}

// Outcome carries the reconciliation tallies into the final record.
type Outcome struct {
	Matched    int
	NotMatched int
	Overflow   int
}

// Generate assembles the final metadata record for a completed run.
// previous links the run to its predecessor and may be nil.
func (t *Tracker) Generate(version string, params ScanParams, outcome Outcome, previous *ScanRef) *ScanMetadata {
	completedAt := time.Now()

	return &ScanMetadata{
		ScanVersion: version,
		ScanID:      fmt.Sprintf("scan-%d", t.startTime.Unix()),
		Parameters:  params,
		Results: ScanResults{
			TotalItems:   t.stats.TotalItems,
			KeptItems:    t.stats.KeptItems,
			FirstItem:    t.stats.FirstItem,
			LastItem:     t.stats.LastItem,
			OldestItem:   t.stats.OldestItem,
			NewestItem:   t.stats.NewestItem,
			Matched:      outcome.Matched,
			NotMatched:   outcome.NotMatched,
			Overflow:     outcome.Overflow,
			APICallCount: t.apiCalls,
			CacheHits:    t.cacheHits,
			Duration:     completedAt.Sub(t.startTime).String(),
			StartedAt:    t.startTime,
			CompletedAt:  completedAt,
		},
		PreviousScan: previous,
	}
}

// Save persists a metadata record to dir as scan-metadata-{timestamp}.json.
// The file is written to a temporary name and renamed so a crash never
// leaves a truncated record.
func Save(md *ScanMetadata, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	name := fmt.Sprintf("scan-metadata-%d.json", md.Results.StartedAt.Unix())
	path := filepath.Join(dir, name)

	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create metadata file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(md); err != nil {
		_ = file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to close metadata file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to save metadata file: %w", err)
	}
	return nil
}

// LoadLatest returns the most recent metadata record for the repository
// in dir, or nil if none exists.
func LoadLatest(dir, owner, repo string) (*ScanMetadata, error) {
	files, err := filepath.Glob(filepath.Join(dir, "scan-metadata-*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata files: %w", err)
	}
	if len(files) == 0 {
		return nil, nil
	}

	// Timestamps in the filenames give chronological order.
	sort.Sort(sort.Reverse(sort.StringSlice(files)))

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			continue
		}
		var md ScanMetadata
		if err := json.Unmarshal(data, &md); err != nil {
			continue
		}
		if md.Parameters.Owner == owner && md.Parameters.Repository == repo {
			return &md, nil
		}
	}
	return nil, nil
}
