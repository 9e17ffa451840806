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

package metrics

import (
	"fmt"
	"strings"
	"time"

	prscanerrors "github.com/sirseerhq/prscan/internal/errors"
	"github.com/sirseerhq/prscan/internal/github"
)

// ListSeparator joins the label and file lists inside a single CSV cell.
const ListSeparator = ";"

// missingValue substitutes for a label or filename the API returned empty.
const missingValue = "N/A"

// Row is the flat per-item metrics record keyed by tracked identifier.
// Timestamps are carried as RFC 3339 strings because rows round-trip
// through the curated CSV, where an absent timestamp is an empty cell.
//
// BaseRef and BaseOwner feed the merge-conditional reconciliation policy;
// they are not part of the CSV schema and curated rows loaded from disk
// leave them empty.
type Row struct {
	TrackedID      string
	CreatedAt      string
	MergedAt       string
	MergeCommitSHA string
	Labels         string
	FilesChanged   string

	Tool           TextStats
	IssueComments  TextStats
	ReviewComments TextStats
	ReviewThreads  TextStats

	BaseRef   string
	BaseOwner string
}

// NewRow assembles the metric row for one pull request. The tool-level
// group is derived as the exact sum of the three source groups, which is
// the invariant every emitted row must satisfy.
func NewRow(pr *github.PullRequest, id string, files []string, issue, review, threads TextStats) Row {
	row := Row{
		TrackedID:      id,
		CreatedAt:      formatTime(&pr.CreatedAt),
		MergedAt:       formatTime(pr.MergedAt),
		MergeCommitSHA: pr.MergeCommitSHA,
		Labels:         joinList(labelNames(pr.Labels)),
		FilesChanged:   joinList(files),
		Tool:           Combine(issue, review, threads),
		IssueComments:  issue,
		ReviewComments: review,
		ReviewThreads:  threads,
		BaseRef:        pr.Base.Ref,
		BaseOwner:      pr.Base.Owner.Login,
	}
	return row
}

// Merged reports whether the row's item carries a merge timestamp.
func (r *Row) Merged() bool {
	return r.MergedAt != ""
}

// Validate checks the row invariants: a tracked identifier is present and
// the tool-level group equals the sum of the source groups.
func (r *Row) Validate() error {
	if r.TrackedID == "" {
		return prscanerrors.ErrMissingIdentifier
	}
	want := Combine(r.IssueComments, r.ReviewComments, r.ReviewThreads)
	if r.Tool != want {
		return fmt.Errorf("row %s: tool totals %+v do not equal source sum %+v", r.TrackedID, r.Tool, want)
	}
	return nil
}

// FileNames extracts the filenames from changed-file records, substituting
// a placeholder when the API omitted one.
func FileNames(files []github.ChangedFile) []string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		name := f.Filename
		if name == "" {
			name = missingValue
		}
		names = append(names, name)
	}
	return names
}

// Bodies extracts the body texts from comment records in input order.
func Bodies(comments []github.Comment) []string {
	bodies := make([]string, 0, len(comments))
	for _, c := range comments {
		bodies = append(bodies, c.Body)
	}
	return bodies
}

func labelNames(labels []github.Label) []string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		name := l.Name
		if name == "" {
			name = missingValue
		}
		names = append(names, name)
	}
	return names
}

func joinList(items []string) string {
	return strings.Join(items, ListSeparator)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
