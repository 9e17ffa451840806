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

	gogithub "github.com/google/go-github/v60/github"
	"golang.org/x/oauth2"

	prscanerrors "github.com/sirseerhq/prscan/internal/errors"
	"github.com/sirseerhq/prscan/internal/giterror"
	"github.com/sirseerhq/prscan/internal/snapshot"
	"github.com/sirseerhq/prscan/pkg/version"
)

// RESTCollector implements the Collector interface against the GitHub REST
// API using go-github. Every page it fetches is converted to the wire types
// in this package and persisted to the snapshot store before it is returned.
type RESTCollector struct {
	client    *gogithub.Client
	store     *snapshot.Store
	owner     string
	repo      string
	inspector giterror.Inspector
}

// RESTOption configures the REST collector.
type RESTOption func(*RESTCollector)

// WithBaseURL points the collector at a custom API endpoint. Used for
// GitHub Enterprise deployments and for httptest servers in tests. The
// endpoint must end without a trailing slash; one is appended as go-github
// requires.
func WithBaseURL(endpoint string) RESTOption {
	return func(c *RESTCollector) {
		c.client.BaseURL, _ = c.client.BaseURL.Parse(endpoint + "/")
	}
}

// NewRESTCollector creates a REST collector for one repository. An empty
// token yields an unauthenticated client, which GitHub rate-limits heavily
// but still serves public data.
func NewRESTCollector(owner, repo, token string, store *snapshot.Store, opts ...RESTOption) *RESTCollector {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	client := gogithub.NewClient(httpClient)
	client.UserAgent = fmt.Sprintf("prscan/%s", version.Version)

	c := &RESTCollector{
		client:    client,
		store:     store,
		owner:     owner,
		repo:      repo,
		inspector: giterror.NewInspector(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ListPulls fetches one page of the repository's pull requests, all states,
// sorted by creation time ascending, and persists it before returning.
func (c *RESTCollector) ListPulls(ctx context.Context, page, perPage int) ([]PullRequest, error) {
	opts := &gogithub.PullRequestListOptions{
		State:     "all",
		Sort:      "created",
		Direction: "asc",
		ListOptions: gogithub.ListOptions{
			Page:    page,
			PerPage: perPage,
		},
	}

	raw, _, err := c.client.PullRequests.List(ctx, c.owner, c.repo, opts)
	if err != nil {
		return nil, c.mapError(fmt.Errorf("failed to list pull requests (page %d): %w", page, err))
	}

	pulls := make([]PullRequest, 0, len(raw))
	for _, pr := range raw {
		converted, convErr := convertPull(pr)
		if convErr != nil {
			return nil, convErr
		}
		pulls = append(pulls, *converted)
	}

	if err := c.store.WritePage(snapshot.PullsKind(perPage), page, pulls); err != nil {
		return nil, err
	}
	return pulls, nil
}

// ListIssueComments fetches one page of conversation comments and persists it.
func (c *RESTCollector) ListIssueComments(ctx context.Context, number, page, perPage int) ([]Comment, error) {
	opts := &gogithub.IssueListCommentsOptions{
		ListOptions: gogithub.ListOptions{Page: page, PerPage: perPage},
	}

	raw, _, err := c.client.Issues.ListComments(ctx, c.owner, c.repo, number, opts)
	if err != nil {
		return nil, c.mapError(fmt.Errorf("failed to list issue comments for #%d (page %d): %w", number, page, err))
	}

	comments := make([]Comment, 0, len(raw))
	for _, ic := range raw {
		comments = append(comments, Comment{
			ID:        ic.GetID(),
			Body:      ic.GetBody(),
			User:      Account{Login: ic.GetUser().GetLogin()},
			CreatedAt: ic.GetCreatedAt().Time,
		})
	}

	if err := c.store.WritePage(snapshot.IssueCommentsKind(number), page, comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// ListReviewComments fetches one page of inline review comments and persists it.
func (c *RESTCollector) ListReviewComments(ctx context.Context, number, page, perPage int) ([]Comment, error) {
	opts := &gogithub.PullRequestListCommentsOptions{
		ListOptions: gogithub.ListOptions{Page: page, PerPage: perPage},
	}

	raw, _, err := c.client.PullRequests.ListComments(ctx, c.owner, c.repo, number, opts)
	if err != nil {
		return nil, c.mapError(fmt.Errorf("failed to list review comments for #%d (page %d): %w", number, page, err))
	}

	comments := make([]Comment, 0, len(raw))
	for _, rc := range raw {
		comments = append(comments, Comment{
			ID:        rc.GetID(),
			Body:      rc.GetBody(),
			User:      Account{Login: rc.GetUser().GetLogin()},
			CreatedAt: rc.GetCreatedAt().Time,
		})
	}

	if err := c.store.WritePage(snapshot.ReviewCommentsKind(number), page, comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// ListReviews fetches one page of reviews and persists it. Review bodies
// are frequently empty (approvals without commentary); they are returned
// as-is and filtered by the resolver's predicate.
func (c *RESTCollector) ListReviews(ctx context.Context, number, page, perPage int) ([]Comment, error) {
	opts := &gogithub.ListOptions{Page: page, PerPage: perPage}

	raw, _, err := c.client.PullRequests.ListReviews(ctx, c.owner, c.repo, number, opts)
	if err != nil {
		return nil, c.mapError(fmt.Errorf("failed to list reviews for #%d (page %d): %w", number, page, err))
	}

	reviews := make([]Comment, 0, len(raw))
	for _, rv := range raw {
		reviews = append(reviews, Comment{
			ID:        rv.GetID(),
			Body:      rv.GetBody(),
			User:      Account{Login: rv.GetUser().GetLogin()},
			CreatedAt: rv.GetSubmittedAt().Time,
		})
	}

	if err := c.store.WritePage(snapshot.ReviewsKind(number), page, reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// ListPullFiles fetches one page of changed files and persists it.
func (c *RESTCollector) ListPullFiles(ctx context.Context, number, page, perPage int) ([]ChangedFile, error) {
	opts := &gogithub.ListOptions{Page: page, PerPage: perPage}

	raw, _, err := c.client.PullRequests.ListFiles(ctx, c.owner, c.repo, number, opts)
	if err != nil {
		return nil, c.mapError(fmt.Errorf("failed to list files for #%d (page %d): %w", number, page, err))
	}

	files := make([]ChangedFile, 0, len(raw))
	for _, f := range raw {
		files = append(files, ChangedFile{
			Filename:  f.GetFilename(),
			Status:    f.GetStatus(),
			Additions: f.GetAdditions(),
			Deletions: f.GetDeletions(),
		})
	}

	if err := c.store.WritePage(snapshot.FilesKind(number), page, files); err != nil {
		return nil, err
	}
	return files, nil
}

// GetPull fetches a single pull request by number and persists it as a
// single-item snapshot.
func (c *RESTCollector) GetPull(ctx context.Context, number int) (*PullRequest, error) {
	raw, _, err := c.client.PullRequests.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return nil, c.mapError(fmt.Errorf("failed to get pull request #%d: %w", number, err))
	}

	pull, err := convertPull(raw)
	if err != nil {
		return nil, err
	}

	if err := c.store.WriteItem(snapshot.PullItemName(number), pull); err != nil {
		return nil, err
	}
	return pull, nil
}

// convertPull maps a go-github pull request onto the wire type used by the
// rest of the pipeline, validating required fields in the process.
func convertPull(pr *gogithub.PullRequest) (*PullRequest, error) {
	converted := &PullRequest{
		Number:         pr.GetNumber(),
		Title:          pr.GetTitle(),
		State:          pr.GetState(),
		CreatedAt:      pr.GetCreatedAt().Time,
		UpdatedAt:      pr.GetUpdatedAt().Time,
		MergeCommitSHA: pr.GetMergeCommitSHA(),
		Head: BranchRef{
			Ref:   pr.GetHead().GetRef(),
			Label: pr.GetHead().GetLabel(),
			Owner: Account{Login: pr.GetHead().GetUser().GetLogin()},
		},
		Base: BranchRef{
			Ref:   pr.GetBase().GetRef(),
			Label: pr.GetBase().GetLabel(),
			Owner: Account{Login: pr.GetBase().GetUser().GetLogin()},
		},
		Comments:       pr.GetComments(),
		ReviewComments: pr.GetReviewComments(),
	}

	if mergedAt := pr.GetMergedAt(); !mergedAt.IsZero() {
		t := mergedAt.Time
		converted.MergedAt = &t
	}

	for _, label := range pr.Labels {
		converted.Labels = append(converted.Labels, Label{Name: label.GetName()})
	}

	if err := converted.Validate(); err != nil {
		return nil, err
	}
	return converted, nil
}

// mapError translates transport errors into the sentinel errors the CLI
// maps to exit codes. The original error stays in the chain for logs.
func (c *RESTCollector) mapError(err error) error {
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
