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

package table

import (
	"strconv"

	"github.com/sirseerhq/prscan/internal/metrics"
)

// Header is the fixed column schema shared by the curated table and both
// overflow outputs. Changing it breaks every previously written table, so
// new columns go at the end and nothing is ever renamed.
var Header = []string{
	"bug_id",
	"tool_created_at",
	"tool_merged_at",
	"tool_merge_commit_hash",
	"tool_labels",
	"tool_files_changed",
	"tool_count_comments",
	"tool_total_chars",
	"tool_total_words",
	"tool_total_bytes",
	"issue_comments_count",
	"issue_comments_chars",
	"issue_comments_words",
	"issue_comments_bytes",
	"review_comments_count",
	"review_comments_chars",
	"review_comments_words",
	"review_comments_bytes",
	"review_threads_count",
	"review_threads_chars",
	"review_threads_words",
	"review_threads_bytes",
}

// Record flattens a metric row into CSV cells in Header order.
func Record(row metrics.Row) []string {
	return []string{
		row.TrackedID,
		row.CreatedAt,
		row.MergedAt,
		row.MergeCommitSHA,
		row.Labels,
		row.FilesChanged,
		strconv.Itoa(row.Tool.Count),
		strconv.Itoa(row.Tool.Chars),
		strconv.Itoa(row.Tool.Words),
		strconv.Itoa(row.Tool.Bytes),
		strconv.Itoa(row.IssueComments.Count),
		strconv.Itoa(row.IssueComments.Chars),
		strconv.Itoa(row.IssueComments.Words),
		strconv.Itoa(row.IssueComments.Bytes),
		strconv.Itoa(row.ReviewComments.Count),
		strconv.Itoa(row.ReviewComments.Chars),
		strconv.Itoa(row.ReviewComments.Words),
		strconv.Itoa(row.ReviewComments.Bytes),
		strconv.Itoa(row.ReviewThreads.Count),
		strconv.Itoa(row.ReviewThreads.Chars),
		strconv.Itoa(row.ReviewThreads.Words),
		strconv.Itoa(row.ReviewThreads.Bytes),
	}
}

// rowFromCells rebuilds a metric row from header-mapped CSV cells.
// Numeric cells that do not parse are read as zero rather than failing the
// run; curated tables are hand-maintained and occasionally carry blanks.
func rowFromCells(cells map[string]string) metrics.Row {
	return metrics.Row{
		TrackedID:      cells["bug_id"],
		CreatedAt:      cells["tool_created_at"],
		MergedAt:       cells["tool_merged_at"],
		MergeCommitSHA: cells["tool_merge_commit_hash"],
		Labels:         cells["tool_labels"],
		FilesChanged:   cells["tool_files_changed"],
		Tool: metrics.TextStats{
			Count: intCell(cells, "tool_count_comments"),
			Chars: intCell(cells, "tool_total_chars"),
			Words: intCell(cells, "tool_total_words"),
			Bytes: intCell(cells, "tool_total_bytes"),
		},
		IssueComments: metrics.TextStats{
			Count: intCell(cells, "issue_comments_count"),
			Chars: intCell(cells, "issue_comments_chars"),
			Words: intCell(cells, "issue_comments_words"),
			Bytes: intCell(cells, "issue_comments_bytes"),
		},
		ReviewComments: metrics.TextStats{
			Count: intCell(cells, "review_comments_count"),
			Chars: intCell(cells, "review_comments_chars"),
			Words: intCell(cells, "review_comments_words"),
			Bytes: intCell(cells, "review_comments_bytes"),
		},
		ReviewThreads: metrics.TextStats{
			Count: intCell(cells, "review_threads_count"),
			Chars: intCell(cells, "review_threads_chars"),
			Words: intCell(cells, "review_threads_words"),
			Bytes: intCell(cells, "review_threads_bytes"),
		},
	}
}

func intCell(cells map[string]string, key string) int {
	n, err := strconv.Atoi(cells[key])
	if err != nil {
		return 0
	}
	return n
}
