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

import "context"

// Collector defines the paginated list operations and the single-item fetch
// the scan pipeline consumes. Page numbers start at 1; a caller stops paging
// when a returned batch is empty or shorter than perPage.
//
// Implementations persist every fetched page to the local snapshot store as
// a side effect, before the next page is requested. This interface allows
// the REST and GraphQL transports to be swapped without touching the
// pipeline, and makes mocking in tests straightforward.
type Collector interface {
	// ListPulls retrieves one page of the repository's pull requests,
	// all states, sorted by creation time ascending.
	ListPulls(ctx context.Context, page, perPage int) ([]PullRequest, error)

	// ListIssueComments retrieves one page of the conversation comments on
	// a pull request (issue comments in REST terms).
	ListIssueComments(ctx context.Context, number, page, perPage int) ([]Comment, error)

	// ListReviewComments retrieves one page of the inline review comments
	// on a pull request.
	ListReviewComments(ctx context.Context, number, page, perPage int) ([]Comment, error)

	// ListReviews retrieves one page of the reviews submitted on a pull
	// request. Review bodies are returned as Comment records; reviews
	// without a body are included and filtered downstream.
	ListReviews(ctx context.Context, number, page, perPage int) ([]Comment, error)

	// ListPullFiles retrieves one page of the files changed by a pull request.
	ListPullFiles(ctx context.Context, number, page, perPage int) ([]ChangedFile, error)

	// GetPull retrieves a single pull request by number.
	GetPull(ctx context.Context, number int) (*PullRequest, error)
}
