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

package testutil

import (
	"time"
)

// PullRequestBuilder provides a fluent API for creating REST pull request
// payloads for the mock server.
type PullRequestBuilder struct {
	number    int
	title     string
	state     string
	createdAt time.Time
	updatedAt time.Time
	mergedAt  *time.Time
	mergeSHA  string
	labels    []string
	baseRef   string
	baseOwner string
}

// NewPullRequest creates a builder with sensible defaults: an open pull
// request on acme/main created 2024-01-15.
func NewPullRequest(number int, title string) *PullRequestBuilder {
	created := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	return &PullRequestBuilder{
		number:    number,
		title:     title,
		state:     "open",
		createdAt: created,
		updatedAt: created,
		baseRef:   "main",
		baseOwner: "acme",
	}
}

// CreatedAt sets the creation (and update) timestamp.
func (b *PullRequestBuilder) CreatedAt(t time.Time) *PullRequestBuilder {
	b.createdAt = t
	b.updatedAt = t
	return b
}

// Merged marks the pull request merged at the given time with the given
// commit hash.
func (b *PullRequestBuilder) Merged(at time.Time, sha string) *PullRequestBuilder {
	b.state = "closed"
	b.mergedAt = &at
	b.mergeSHA = sha
	return b
}

// Base sets the base branch and its owning account.
func (b *PullRequestBuilder) Base(owner, ref string) *PullRequestBuilder {
	b.baseOwner = owner
	b.baseRef = ref
	return b
}

// Labels sets the label names.
func (b *PullRequestBuilder) Labels(names ...string) *PullRequestBuilder {
	b.labels = names
	return b
}

// Build produces the REST payload.
func (b *PullRequestBuilder) Build() map[string]any {
	labels := make([]map[string]any, 0, len(b.labels))
	for _, name := range b.labels {
		labels = append(labels, map[string]any{"name": name})
	}

	pr := map[string]any{
		"number":     b.number,
		"title":      b.title,
		"state":      b.state,
		"created_at": b.createdAt.Format(time.RFC3339),
		"updated_at": b.updatedAt.Format(time.RFC3339),
		"labels":     labels,
		"base": map[string]any{
			"ref":   b.baseRef,
			"label": b.baseOwner + ":" + b.baseRef,
			"user":  map[string]any{"login": b.baseOwner},
		},
		"head": map[string]any{
			"ref":   "topic",
			"label": "dev:topic",
			"user":  map[string]any{"login": "dev"},
		},
	}
	if b.mergedAt != nil {
		pr["merged_at"] = b.mergedAt.Format(time.RFC3339)
		pr["merge_commit_sha"] = b.mergeSHA
	}
	return pr
}

// Comment builds a comment payload with the given id and body.
func Comment(id int, author, body string) map[string]any {
	return map[string]any{
		"id":         id,
		"body":       body,
		"user":       map[string]any{"login": author},
		"created_at": "2024-01-15T12:00:00Z",
	}
}

// Review builds a review payload. An empty body models a bare approval.
func Review(id int, author, body, state string) map[string]any {
	return map[string]any{
		"id":           id,
		"body":         body,
		"state":        state,
		"user":         map[string]any{"login": author},
		"submitted_at": "2024-01-15T13:00:00Z",
	}
}

// File builds a changed-file payload.
func File(name, status string, additions, deletions int) map[string]any {
	return map[string]any{
		"filename":  name,
		"status":    status,
		"additions": additions,
		"deletions": deletions,
	}
}
