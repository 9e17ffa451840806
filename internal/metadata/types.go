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
	"time"
)

// ScanMetadata is the complete audit record for a single scan run. It
// captures what was scanned, with which settings, and what came out, so a
// run can be reproduced or investigated after the fact.
type ScanMetadata struct {
	ScanVersion  string      `json:"scan_version"`
	ScanID       string      `json:"scan_id"`
	Parameters   ScanParams  `json:"parameters"`
	Results      ScanResults `json:"results"`
	PreviousScan *ScanRef    `json:"previous_scan,omitempty"`
}

// ScanParams captures the input parameters of a scan run: the target
// repository, the tracking window, and the merge policy in effect.
type ScanParams struct {
	Owner       string     `json:"owner"`
	Repository  string     `json:"repository"`
	WindowStart *time.Time `json:"window_start,omitempty"`
	Policy      string     `json:"policy"`
	PageSize    int        `json:"page_size"`
	ForceUpdate bool       `json:"force_update"`
}

// ScanResults holds the output statistics of a completed scan: how many
// items were seen, kept and diverted, how much of the work was served
// from cache, and how long the run took.
type ScanResults struct {
	TotalItems   int       `json:"total_items"`
	KeptItems    int       `json:"kept_items"`
	FirstItem    int       `json:"first_item_number"`
	LastItem     int       `json:"last_item_number"`
	OldestItem   time.Time `json:"oldest_item_date"`
	NewestItem   time.Time `json:"newest_item_date"`
	Matched      int       `json:"matched"`
	NotMatched   int       `json:"not_matched"`
	Overflow     int       `json:"overflow"`
	APICallCount int       `json:"api_calls_made"`
	CacheHits    int       `json:"cache_hits"`
	Duration     string    `json:"scan_duration"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at"`
}

// ScanRef links a run to its predecessor, forming an audit chain over
// repeated scans of the same repository.
type ScanRef struct {
	ScanID      string    `json:"scan_id"`
	CompletedAt time.Time `json:"completed_at"`
}
