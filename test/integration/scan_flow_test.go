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

package integration

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirseerhq/prscan/internal/github"
	"github.com/sirseerhq/prscan/internal/ident"
	"github.com/sirseerhq/prscan/internal/metrics"
	"github.com/sirseerhq/prscan/internal/output"
	"github.com/sirseerhq/prscan/internal/reconcile"
	"github.com/sirseerhq/prscan/internal/resolve"
	"github.com/sirseerhq/prscan/internal/scan"
	"github.com/sirseerhq/prscan/internal/snapshot"
	"github.com/sirseerhq/prscan/internal/table"
	"github.com/sirseerhq/prscan/test/testutil"
)

const (
	testOwner = "acme"
	testRepo  = "widgets"
)

// harness wires a complete scan stack against a mock GitHub server, the
// same way the CLI does.
type harness struct {
	server   *testutil.RepoServer
	store    *snapshot.Store
	cacheDir string
	workDir  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	return &harness{
		server:   testutil.NewRepoServer(t, testOwner, testRepo),
		cacheDir: testutil.CreateTempDir(t, "prscan-cache"),
		workDir:  testutil.CreateTempDir(t, "prscan-work"),
	}
}

// pipeline assembles a fresh pipeline over the harness cache. Retry uses
// millisecond backoff so failure tests do not stall the suite.
func (h *harness) pipeline(opts scan.Options, policy reconcile.Policy) *scan.Pipeline {
	store := snapshot.New(h.cacheDir)
	collector := github.NewRetryCollector(
		github.NewRESTCollector(testOwner, testRepo, "test-token", store, github.WithBaseURL(h.server.URL)),
		&github.RetryConfig{
			MaxRetries:        3,
			InitialBackoff:    time.Millisecond,
			MaxBackoff:        10 * time.Millisecond,
			BackoffMultiplier: 2.0,
		},
	)
	resolver := resolve.New(store, 100, 0)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reconciler := reconcile.New(policy, testOwner, "main", logger)
	return scan.New(collector, resolver, store, reconciler, nil, logger, opts)
}

func (h *harness) tablePath() string {
	return filepath.Join(h.workDir, "curated.csv")
}

// seedCurated writes a curated table containing rows for the given bug
// identifiers.
func (h *harness) seedCurated(t *testing.T, ids ...string) {
	t.Helper()

	rows := make([]metrics.Row, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, metrics.Row{TrackedID: id})
	}
	if err := output.WriteTable(h.tablePath(), rows); err != nil {
		t.Fatalf("Failed to seed curated table: %v", err)
	}
}

func (h *harness) loadCurated(t *testing.T) *table.Table {
	t.Helper()

	tbl, err := table.Load(h.tablePath())
	if err != nil {
		t.Fatalf("Failed to load curated table: %v", err)
	}
	return tbl
}

// TestScanEndToEnd runs the full scan flow: collect pull requests from the
// mock server, reconcile them into a curated table and verify the CSV that
// reaches disk.
func TestScanEndToEnd(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run.")
	}

	h := newHarness(t)

	merged := time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)
	h.server.SeedPull(testutil.NewPullRequest(1, "[PROJ-1] Fix flaky retry").
		CreatedAt(time.Date(2024, 1, 20, 8, 0, 0, 0, time.UTC)).
		Merged(merged, "abc123").
		Labels("bug", "backend").
		Build())
	h.server.SeedPull(testutil.NewPullRequest(2, "Bump dependencies").Build())
	h.server.SeedPull(testutil.NewPullRequest(3, "[PROJ-9] Not in curated set").Build())

	h.server.SeedIssueComments(1,
		testutil.Comment(11, "alice", "Looks good to me"),
		testutil.Comment(12, "bob", "ship it"),
	)
	h.server.SeedReviews(1,
		testutil.Review(21, "carol", "needs a test", "CHANGES_REQUESTED"),
		testutil.Review(22, "carol", "", "APPROVED"),
	)
	h.server.SeedReviewComments(1,
		testutil.Comment(31, "carol", "typo here"),
	)
	h.server.SeedFiles(1,
		testutil.File("retry.go", "modified", 10, 2),
		testutil.File("retry_test.go", "added", 40, 0),
	)

	h.seedCurated(t, "PROJ-1", "PROJ-5")
	curated := h.loadCurated(t)

	pipeline := h.pipeline(scan.Options{}, reconcile.PolicyOverwrite)
	result, err := pipeline.Run(context.Background(), curated)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Matched != 1 {
		t.Errorf("Matched = %d, want 1", result.Matched)
	}
	if len(result.NotMatched) != 1 || result.NotMatched[0].TrackedID != "PROJ-9" {
		t.Errorf("NotMatched = %+v, want single PROJ-9 row", result.NotMatched)
	}
	if len(result.Overflow) != 0 {
		t.Errorf("Overflow = %+v, want empty", result.Overflow)
	}

	if err := output.WriteTable(h.tablePath(), curated.Rows()); err != nil {
		t.Fatalf("Failed to write curated table: %v", err)
	}

	header, records := testutil.ReadCSV(t, h.tablePath())
	if len(records) != 2 {
		t.Fatalf("Curated table has %d rows, want 2", len(records))
	}

	idCol := testutil.ColumnIndex(t, header, "bug_id")
	row := testutil.FindCSVRow(records, idCol, "PROJ-1")
	if row == nil {
		t.Fatal("PROJ-1 row missing from curated table")
	}

	want := map[string]string{
		"tool_created_at":        "2024-01-20T08:00:00Z",
		"tool_merged_at":         "2024-02-01T09:30:00Z",
		"tool_merge_commit_hash": "abc123",
		"tool_labels":            "bug;backend",
		"tool_files_changed":     "retry.go;retry_test.go",
		"tool_count_comments":    "4",
		"tool_total_chars":       "44",
		"tool_total_words":       "11",
		"tool_total_bytes":       "44",
		"issue_comments_count":   "2",
		"issue_comments_chars":   "23",
		"review_comments_count":  "1",
		"review_comments_chars":  "12",
		"review_threads_count":   "1",
		"review_threads_chars":   "9",
	}
	for col, wantVal := range want {
		idx := testutil.ColumnIndex(t, header, col)
		if row[idx] != wantVal {
			t.Errorf("%s = %q, want %q", col, row[idx], wantVal)
		}
	}

	// The untouched PROJ-5 row survives the write with zeroed metrics.
	if testutil.FindCSVRow(records, idCol, "PROJ-5") == nil {
		t.Error("PROJ-5 row missing from curated table")
	}
}

// TestScanWindowAndAllowList verifies that old items and items outside the
// allow-list never reach the reconciler.
func TestScanWindowAndAllowList(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run.")
	}

	h := newHarness(t)

	windowStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h.server.SeedPull(testutil.NewPullRequest(1, "[PROJ-1] In window").
		CreatedAt(windowStart).Build())
	h.server.SeedPull(testutil.NewPullRequest(2, "[PROJ-2] Too old").
		CreatedAt(windowStart.Add(-time.Hour)).Build())
	h.server.SeedPull(testutil.NewPullRequest(3, "[OTHER-3] Not allowed").
		CreatedAt(windowStart.Add(time.Hour)).Build())

	allowPath := filepath.Join(h.workDir, "allow.txt")
	testutil.WriteFile(t, allowPath, "PROJ-1\nPROJ-2\n")
	allow, err := ident.LoadAllowList(allowPath)
	if err != nil {
		t.Fatalf("Failed to load allow-list: %v", err)
	}

	h.seedCurated(t, "PROJ-1", "PROJ-2", "OTHER-3")
	curated := h.loadCurated(t)

	pipeline := h.pipeline(scan.Options{
		WindowStart: windowStart,
		Allow:       allow,
	}, reconcile.PolicyOverwrite)

	result, err := pipeline.Run(context.Background(), curated)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Matched != 1 {
		t.Errorf("Matched = %d, want 1 (only PROJ-1 survives the filters)", result.Matched)
	}
	if len(result.NotMatched) != 0 {
		t.Errorf("NotMatched = %+v, want empty", result.NotMatched)
	}
}
