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

	prscanerrors "github.com/sirseerhq/prscan/internal/errors"
)

// MockCollector is an in-memory implementation of the Collector interface
// for testing. It serves pre-seeded records page by page, honoring the
// same short-page termination rule real adapters follow, and records every
// call for verification.
type MockCollector struct {
	// Data to serve
	Pulls          []PullRequest
	IssueComments  map[int][]Comment
	ReviewComments map[int][]Comment
	Reviews        map[int][]Comment
	Files          map[int][]ChangedFile

	// Error to return from every call
	Err error

	// Behavior flags
	ShouldFailAuth     bool
	ShouldFailNetwork  bool
	ShouldFailNotFound bool

	// Track calls for verification
	CallCount  int
	LastPage   int
	LastNumber int
}

// NewMockCollector creates an empty mock collector.
func NewMockCollector() *MockCollector {
	return &MockCollector{
		IssueComments:  make(map[int][]Comment),
		ReviewComments: make(map[int][]Comment),
		Reviews:        make(map[int][]Comment),
		Files:          make(map[int][]ChangedFile),
	}
}

// ListPulls implements the Collector interface.
func (m *MockCollector) ListPulls(ctx context.Context, page, perPage int) ([]PullRequest, error) {
	if err := m.observe(ctx, 0, page); err != nil {
		return nil, err
	}
	return slicePage(m.Pulls, page, perPage), nil
}

// ListIssueComments implements the Collector interface.
func (m *MockCollector) ListIssueComments(ctx context.Context, number, page, perPage int) ([]Comment, error) {
	if err := m.observe(ctx, number, page); err != nil {
		return nil, err
	}
	return slicePage(m.IssueComments[number], page, perPage), nil
}

// ListReviewComments implements the Collector interface.
func (m *MockCollector) ListReviewComments(ctx context.Context, number, page, perPage int) ([]Comment, error) {
	if err := m.observe(ctx, number, page); err != nil {
		return nil, err
	}
	return slicePage(m.ReviewComments[number], page, perPage), nil
}

// ListReviews implements the Collector interface.
func (m *MockCollector) ListReviews(ctx context.Context, number, page, perPage int) ([]Comment, error) {
	if err := m.observe(ctx, number, page); err != nil {
		return nil, err
	}
	return slicePage(m.Reviews[number], page, perPage), nil
}

// ListPullFiles implements the Collector interface.
func (m *MockCollector) ListPullFiles(ctx context.Context, number, page, perPage int) ([]ChangedFile, error) {
	if err := m.observe(ctx, number, page); err != nil {
		return nil, err
	}
	return slicePage(m.Files[number], page, perPage), nil
}

// GetPull implements the Collector interface.
func (m *MockCollector) GetPull(ctx context.Context, number int) (*PullRequest, error) {
	if err := m.observe(ctx, number, 0); err != nil {
		return nil, err
	}
	for i := range m.Pulls {
		if m.Pulls[i].Number == number {
			pull := m.Pulls[i]
			return &pull, nil
		}
	}
	return nil, fmt.Errorf("pull request #%d: %w", number, prscanerrors.ErrRepoNotFound)
}

// observe tracks the call and simulates configured failure modes.
func (m *MockCollector) observe(ctx context.Context, number, page int) error {
	m.CallCount++
	m.LastNumber = number
	m.LastPage = page

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if m.ShouldFailAuth {
		return fmt.Errorf("authentication failed: %w", prscanerrors.ErrInvalidToken)
	}
	if m.ShouldFailNetwork {
		return fmt.Errorf("network timeout: %w", prscanerrors.ErrNetworkFailure)
	}
	if m.ShouldFailNotFound {
		return fmt.Errorf("repository not found: %w", prscanerrors.ErrRepoNotFound)
	}
	return m.Err
}

// slicePage returns the 1-based page of a slice with the given page size.
func slicePage[T any](records []T, page, perPage int) []T {
	if perPage <= 0 {
		perPage = defaultPageSize
	}
	start := (page - 1) * perPage
	if start >= len(records) || start < 0 {
		return nil
	}
	end := start + perPage
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}
