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
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shurcooL/graphql"

	prscanerrors "github.com/sirseerhq/prscan/internal/errors"
	"github.com/sirseerhq/prscan/internal/giterror"
	"github.com/sirseerhq/prscan/internal/snapshot"
	"github.com/sirseerhq/prscan/pkg/version"
)

// GraphQLCollector implements the Collector interface using GitHub's
// GraphQL API. It exists as an alternate transport behind the same method
// set as the REST collector; the pipeline does not know which one it talks
// to.
//
// GraphQL connections are cursor-based and cannot be addressed by page
// number, so this adapter exhausts a connection when page 1 is requested,
// persisting each cursor batch as a sequential snapshot page, and reports
// every later page as empty. That satisfies the caller's termination rule
// (an empty page ends pagination) while keeping the snapshot layout
// identical to the REST adapter's.
type GraphQLCollector struct {
	client    *graphql.Client
	store     *snapshot.Store
	owner     string
	repo      string
	inspector giterror.Inspector
}

// authTransport adds the bearer token and User-Agent to every request.
type authTransport struct {
	token string
	base  http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("User-Agent", fmt.Sprintf("prscan/%s", version.Version))
	return t.base.RoundTrip(req)
}

// NewGraphQLCollector creates a GraphQL collector for one repository.
// The endpoint is the full GraphQL URL, e.g. https://api.github.com/graphql.
func NewGraphQLCollector(owner, repo, token, endpoint string, store *snapshot.Store) *GraphQLCollector {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	httpClient := &http.Client{
		Transport: &authTransport{
			token: token,
			base:  transport,
		},
	}

	return &GraphQLCollector{
		client:    graphql.NewClient(endpoint, httpClient),
		store:     store,
		owner:     owner,
		repo:      repo,
		inspector: giterror.NewInspector(),
	}
}

// prNode is the GraphQL shape of a pull request list entry.
type prNode struct {
	Number    graphql.Int
	Title     graphql.String
	State     graphql.String
	CreatedAt time.Time
	UpdatedAt time.Time
	MergedAt  *time.Time
	MergeCommit *struct {
		Oid graphql.String
	}
	Labels struct {
		Nodes []struct {
			Name graphql.String
		}
	} `graphql:"labels(first: 100)"`
	HeadRefName         graphql.String
	BaseRefName         graphql.String
	HeadRepositoryOwner *struct {
		Login graphql.String
	}
	BaseRepository *struct {
		Owner struct {
			Login graphql.String
		}
	}
	Comments struct {
		TotalCount graphql.Int
	}
}

// ListPulls implements Collector. Page 1 walks the whole connection;
// later pages are empty.
func (c *GraphQLCollector) ListPulls(ctx context.Context, page, perPage int) ([]PullRequest, error) {
	if page > 1 {
		return nil, nil
	}

	var all []PullRequest
	cursor := ""
	for batch := 1; ; batch++ {
		var query struct {
			Repository struct {
				PullRequests struct {
					PageInfo struct {
						HasNextPage graphql.Boolean
						EndCursor   graphql.String
					}
					Nodes []prNode
				} `graphql:"pullRequests(first: $first, after: $after, states: [OPEN, CLOSED, MERGED], orderBy: {field: CREATED_AT, direction: ASC})"`
			} `graphql:"repository(owner: $owner, name: $repo)"`
		}

		variables := map[string]interface{}{
			"owner": graphql.String(c.owner),
			"repo":  graphql.String(c.repo),
			"first": graphql.Int(perPage),
			"after": cursorValue(cursor),
		}

		if err := c.client.Query(ctx, &query, variables); err != nil {
			return nil, c.mapError(fmt.Errorf("failed to list pull requests (batch %d): %w", batch, err))
		}

		pulls := make([]PullRequest, 0, len(query.Repository.PullRequests.Nodes))
		for i := range query.Repository.PullRequests.Nodes {
			converted, err := convertPRNode(&query.Repository.PullRequests.Nodes[i])
			if err != nil {
				return nil, err
			}
			pulls = append(pulls, *converted)
		}

		if len(pulls) > 0 {
			if err := c.store.WritePage(snapshot.PullsKind(perPage), batch, pulls); err != nil {
				return nil, err
			}
		}
		all = append(all, pulls...)

		if !query.Repository.PullRequests.PageInfo.HasNextPage {
			break
		}
		cursor = string(query.Repository.PullRequests.PageInfo.EndCursor)
	}

	return all, nil
}

// commentNode is the GraphQL shape of an issue comment.
type commentNode struct {
	DatabaseId graphql.Int //nolint:revive // matches the GraphQL field name
	Body       graphql.String
	CreatedAt  time.Time
	Author     *struct {
		Login graphql.String
	}
}

// ListIssueComments implements Collector. Page 1 walks the whole
// connection; later pages are empty.
func (c *GraphQLCollector) ListIssueComments(ctx context.Context, number, page, perPage int) ([]Comment, error) {
	if page > 1 {
		return nil, nil
	}
	return c.walkComments(ctx, number, perPage, snapshot.IssueCommentsKind(number), "comments")
}

// ListReviewComments implements Collector. Review comments are reached
// through the review-thread connection; each thread's comments are
// flattened in thread order.
func (c *GraphQLCollector) ListReviewComments(ctx context.Context, number, page, perPage int) ([]Comment, error) {
	if page > 1 {
		return nil, nil
	}

	var all []Comment
	cursor := ""
	for batch := 1; ; batch++ {
		var query struct {
			Repository struct {
				PullRequest struct {
					ReviewThreads struct {
						PageInfo struct {
							HasNextPage graphql.Boolean
							EndCursor   graphql.String
						}
						Nodes []struct {
							Comments struct {
								Nodes []commentNode
							} `graphql:"comments(first: 100)"`
						}
					} `graphql:"reviewThreads(first: $first, after: $after)"`
				} `graphql:"pullRequest(number: $number)"`
			} `graphql:"repository(owner: $owner, name: $repo)"`
		}

		variables := map[string]interface{}{
			"owner":  graphql.String(c.owner),
			"repo":   graphql.String(c.repo),
			"number": graphql.Int(number),
			"first":  graphql.Int(perPage),
			"after":  cursorValue(cursor),
		}

		if err := c.client.Query(ctx, &query, variables); err != nil {
			return nil, c.mapError(fmt.Errorf("failed to list review comments for #%d (batch %d): %w", number, batch, err))
		}

		var comments []Comment
		for _, thread := range query.Repository.PullRequest.ReviewThreads.Nodes {
			for i := range thread.Comments.Nodes {
				comments = append(comments, convertCommentNode(&thread.Comments.Nodes[i]))
			}
		}

		if len(comments) > 0 {
			if err := c.store.WritePage(snapshot.ReviewCommentsKind(number), batch, comments); err != nil {
				return nil, err
			}
		}
		all = append(all, comments...)

		if !query.Repository.PullRequest.ReviewThreads.PageInfo.HasNextPage {
			break
		}
		cursor = string(query.Repository.PullRequest.ReviewThreads.PageInfo.EndCursor)
	}

	return all, nil
}

// ListReviews implements Collector. Page 1 walks the whole connection;
// later pages are empty.
func (c *GraphQLCollector) ListReviews(ctx context.Context, number, page, perPage int) ([]Comment, error) {
	if page > 1 {
		return nil, nil
	}

	var all []Comment
	cursor := ""
	for batch := 1; ; batch++ {
		var query struct {
			Repository struct {
				PullRequest struct {
					Reviews struct {
						PageInfo struct {
							HasNextPage graphql.Boolean
							EndCursor   graphql.String
						}
						Nodes []struct {
							DatabaseId  graphql.Int //nolint:revive // matches the GraphQL field name
							Body        graphql.String
							SubmittedAt *time.Time
							Author      *struct {
								Login graphql.String
							}
						}
					} `graphql:"reviews(first: $first, after: $after)"`
				} `graphql:"pullRequest(number: $number)"`
			} `graphql:"repository(owner: $owner, name: $repo)"`
		}

		variables := map[string]interface{}{
			"owner":  graphql.String(c.owner),
			"repo":   graphql.String(c.repo),
			"number": graphql.Int(number),
			"first":  graphql.Int(perPage),
			"after":  cursorValue(cursor),
		}

		if err := c.client.Query(ctx, &query, variables); err != nil {
			return nil, c.mapError(fmt.Errorf("failed to list reviews for #%d (batch %d): %w", number, batch, err))
		}

		reviews := make([]Comment, 0, len(query.Repository.PullRequest.Reviews.Nodes))
		for _, rv := range query.Repository.PullRequest.Reviews.Nodes {
			review := Comment{
				ID:   int64(rv.DatabaseId),
				Body: string(rv.Body),
			}
			if rv.SubmittedAt != nil {
				review.CreatedAt = *rv.SubmittedAt
			}
			if rv.Author != nil {
				review.User = Account{Login: string(rv.Author.Login)}
			}
			reviews = append(reviews, review)
		}

		if len(reviews) > 0 {
			if err := c.store.WritePage(snapshot.ReviewsKind(number), batch, reviews); err != nil {
				return nil, err
			}
		}
		all = append(all, reviews...)

		if !query.Repository.PullRequest.Reviews.PageInfo.HasNextPage {
			break
		}
		cursor = string(query.Repository.PullRequest.Reviews.PageInfo.EndCursor)
	}

	return all, nil
}

// ListPullFiles implements Collector. Page 1 walks the whole connection;
// later pages are empty.
func (c *GraphQLCollector) ListPullFiles(ctx context.Context, number, page, perPage int) ([]ChangedFile, error) {
	if page > 1 {
		return nil, nil
	}

	var all []ChangedFile
	cursor := ""
	for batch := 1; ; batch++ {
		var query struct {
			Repository struct {
				PullRequest struct {
					Files struct {
						PageInfo struct {
							HasNextPage graphql.Boolean
							EndCursor   graphql.String
						}
						Nodes []struct {
							Path      graphql.String
							Additions graphql.Int
							Deletions graphql.Int
						}
					} `graphql:"files(first: $first, after: $after)"`
				} `graphql:"pullRequest(number: $number)"`
			} `graphql:"repository(owner: $owner, name: $repo)"`
		}

		variables := map[string]interface{}{
			"owner":  graphql.String(c.owner),
			"repo":   graphql.String(c.repo),
			"number": graphql.Int(number),
			"first":  graphql.Int(perPage),
			"after":  cursorValue(cursor),
		}

		if err := c.client.Query(ctx, &query, variables); err != nil {
			return nil, c.mapError(fmt.Errorf("failed to list files for #%d (batch %d): %w", number, batch, err))
		}

		files := make([]ChangedFile, 0, len(query.Repository.PullRequest.Files.Nodes))
		for _, f := range query.Repository.PullRequest.Files.Nodes {
			files = append(files, ChangedFile{
				Filename:  string(f.Path),
				Additions: int(f.Additions),
				Deletions: int(f.Deletions),
			})
		}

		if len(files) > 0 {
			if err := c.store.WritePage(snapshot.FilesKind(number), batch, files); err != nil {
				return nil, err
			}
		}
		all = append(all, files...)

		if !query.Repository.PullRequest.Files.PageInfo.HasNextPage {
			break
		}
		cursor = string(query.Repository.PullRequest.Files.PageInfo.EndCursor)
	}

	return all, nil
}

// GetPull implements Collector.
func (c *GraphQLCollector) GetPull(ctx context.Context, number int) (*PullRequest, error) {
	var query struct {
		Repository struct {
			PullRequest prNode `graphql:"pullRequest(number: $number)"`
		} `graphql:"repository(owner: $owner, name: $repo)"`
	}

	variables := map[string]interface{}{
		"owner":  graphql.String(c.owner),
		"repo":   graphql.String(c.repo),
		"number": graphql.Int(number),
	}

	if err := c.client.Query(ctx, &query, variables); err != nil {
		return nil, c.mapError(fmt.Errorf("failed to get pull request #%d: %w", number, err))
	}

	pull, err := convertPRNode(&query.Repository.PullRequest)
	if err != nil {
		return nil, err
	}

	if err := c.store.WriteItem(snapshot.PullItemName(number), pull); err != nil {
		return nil, err
	}
	return pull, nil
}

// walkComments exhausts the issue-comment connection of one pull request.
func (c *GraphQLCollector) walkComments(ctx context.Context, number, perPage int, kind, connection string) ([]Comment, error) {
	var all []Comment
	cursor := ""
	for batch := 1; ; batch++ {
		var query struct {
			Repository struct {
				PullRequest struct {
					Comments struct {
						PageInfo struct {
							HasNextPage graphql.Boolean
							EndCursor   graphql.String
						}
						Nodes []commentNode
					} `graphql:"comments(first: $first, after: $after)"`
				} `graphql:"pullRequest(number: $number)"`
			} `graphql:"repository(owner: $owner, name: $repo)"`
		}

		variables := map[string]interface{}{
			"owner":  graphql.String(c.owner),
			"repo":   graphql.String(c.repo),
			"number": graphql.Int(number),
			"first":  graphql.Int(perPage),
			"after":  cursorValue(cursor),
		}

		if err := c.client.Query(ctx, &query, variables); err != nil {
			return nil, c.mapError(fmt.Errorf("failed to list %s for #%d (batch %d): %w", connection, number, batch, err))
		}

		comments := make([]Comment, 0, len(query.Repository.PullRequest.Comments.Nodes))
		for i := range query.Repository.PullRequest.Comments.Nodes {
			comments = append(comments, convertCommentNode(&query.Repository.PullRequest.Comments.Nodes[i]))
		}

		if len(comments) > 0 {
			if err := c.store.WritePage(kind, batch, comments); err != nil {
				return nil, err
			}
		}
		all = append(all, comments...)

		if !query.Repository.PullRequest.Comments.PageInfo.HasNextPage {
			break
		}
		cursor = string(query.Repository.PullRequest.Comments.PageInfo.EndCursor)
	}

	return all, nil
}

// cursorValue encodes an optional pagination cursor: GraphQL expects null
// for the first request rather than an empty string.
func cursorValue(cursor string) interface{} {
	if cursor == "" {
		return (*graphql.String)(nil)
	}
	return graphql.String(cursor)
}

// convertPRNode maps a GraphQL pull request node onto the shared wire type.
func convertPRNode(node *prNode) (*PullRequest, error) {
	converted := &PullRequest{
		Number:    int(node.Number),
		Title:     string(node.Title),
		State:     string(node.State),
		CreatedAt: node.CreatedAt,
		UpdatedAt: node.UpdatedAt,
		MergedAt:  node.MergedAt,
		Head: BranchRef{
			Ref: string(node.HeadRefName),
		},
		Base: BranchRef{
			Ref: string(node.BaseRefName),
		},
		Comments: int(node.Comments.TotalCount),
	}

	if node.MergeCommit != nil {
		converted.MergeCommitSHA = string(node.MergeCommit.Oid)
	}
	if node.HeadRepositoryOwner != nil {
		converted.Head.Owner = Account{Login: string(node.HeadRepositoryOwner.Login)}
	}
	if node.BaseRepository != nil {
		converted.Base.Owner = Account{Login: string(node.BaseRepository.Owner.Login)}
	}
	for _, label := range node.Labels.Nodes {
		converted.Labels = append(converted.Labels, Label{Name: string(label.Name)})
	}

	if err := converted.Validate(); err != nil {
		return nil, err
	}
	return converted, nil
}

// convertCommentNode maps a GraphQL comment node onto the shared wire type.
func convertCommentNode(node *commentNode) Comment {
	comment := Comment{
		ID:        int64(node.DatabaseId),
		Body:      string(node.Body),
		CreatedAt: node.CreatedAt,
	}
	if node.Author != nil {
		comment.User = Account{Login: string(node.Author.Login)}
	}
	return comment
}

// mapError translates transport errors into the sentinel errors the CLI
// maps to exit codes.
func (c *GraphQLCollector) mapError(err error) error {
	switch {
	case c.inspector.IsAuthError(err):
		return fmt.Errorf("%v: %w", err, prscanerrors.ErrInvalidToken)
	case c.inspector.IsNotFoundError(err):
		return fmt.Errorf("%v: %w", err, prscanerrors.ErrRepoNotFound)
	case c.inspector.IsRateLimitError(err):
		return fmt.Errorf("%v: %w", err, prscanerrors.ErrRateLimit)
	case c.inspector.IsNetworkError(err):
		return fmt.Errorf("%v: %w", err, prscanerrors.ErrNetworkFailure)
	default:
		return err
	}
}
