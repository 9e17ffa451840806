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

package github

import (
	"fmt"
	"time"

	prscanerrors "github.com/sirseerhq/prscan/internal/errors"
)

// PullRequest represents a GitHub pull request with the metadata the scan
// pipeline needs. The JSON tags mirror the REST wire format so that records
// round-trip through the snapshot cache unchanged, and so that page files
// written by earlier runs remain readable.
type PullRequest struct {
	Number         int        `json:"number"`
	Title          string     `json:"title"`
	State          string     `json:"state"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	MergedAt       *time.Time `json:"merged_at,omitempty"`
	MergeCommitSHA string     `json:"merge_commit_sha,omitempty"`
	Labels         []Label    `json:"labels,omitempty"`
	Head           BranchRef  `json:"head"`
	Base           BranchRef  `json:"base"`
	Comments       int        `json:"comments"`
	ReviewComments int        `json:"review_comments"`
}

// Merged reports whether the pull request has been merged.
func (pr *PullRequest) Merged() bool {
	return pr.MergedAt != nil && !pr.MergedAt.IsZero()
}

// Validate checks that the record carries the fields every downstream stage
// depends on. A pull request without a number or title is a data-integrity
// violation and aborts the run.
func (pr *PullRequest) Validate() error {
	if pr.Number <= 0 {
		return fmt.Errorf("missing pull request number: %w", prscanerrors.ErrMalformedItem)
	}
	if pr.Title == "" {
		return fmt.Errorf("pull request #%d has no title: %w", pr.Number, prscanerrors.ErrMalformedItem)
	}
	return nil
}

// Label is a repository label attached to a pull request.
type Label struct {
	Name string `json:"name"`
}

// Account identifies a GitHub user or organization by login.
type Account struct {
	Login string `json:"login"`
}

// BranchRef describes one side of a pull request: the branch name and the
// account that owns the fork the branch lives on.
type BranchRef struct {
	Ref   string  `json:"ref"`
	Label string  `json:"label,omitempty"`
	Owner Account `json:"user"`
}

// Comment is a text-bearing record attached to a pull request: an issue
// comment, a review comment, or a review body. The aggregator only cares
// about the body text; the remaining fields are kept for diagnostics.
type Comment struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	User      Account   `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// ChangedFile is a single file touched by a pull request.
type ChangedFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status,omitempty"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// Default values for fetch operations
const (
	defaultPageSize = 100
)
