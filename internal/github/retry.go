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
	"math"
	"time"

	"github.com/sirseerhq/prscan/internal/giterror"
)

// RetryConfig configures the retry behavior for API calls
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts
	MaxRetries int
	// InitialBackoff is the initial backoff duration
	InitialBackoff time.Duration
	// MaxBackoff is the maximum backoff duration
	MaxBackoff time.Duration
	// BackoffMultiplier is the multiplier for exponential backoff
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryCollector wraps a Collector with automatic retry logic for rate
// limits and transient network errors using exponential backoff. Auth and
// not-found errors are never retried; they cannot heal on their own.
type RetryCollector struct {
	collector Collector
	config    *RetryConfig
	inspector giterror.Inspector
	sleep     func(time.Duration)
}

// NewRetryCollector creates a RetryCollector with the given configuration.
// A nil config selects the defaults.
func NewRetryCollector(collector Collector, config *RetryConfig) Collector {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &RetryCollector{
		collector: collector,
		config:    config,
		inspector: giterror.NewInspector(),
		sleep:     time.Sleep,
	}
}

// ListPulls implements Collector with retry logic.
func (r *RetryCollector) ListPulls(ctx context.Context, page, perPage int) ([]PullRequest, error) {
	return retryList(ctx, r, func() ([]PullRequest, error) {
		return r.collector.ListPulls(ctx, page, perPage)
	})
}

// ListIssueComments implements Collector with retry logic.
func (r *RetryCollector) ListIssueComments(ctx context.Context, number, page, perPage int) ([]Comment, error) {
	return retryList(ctx, r, func() ([]Comment, error) {
		return r.collector.ListIssueComments(ctx, number, page, perPage)
	})
}

// ListReviewComments implements Collector with retry logic.
func (r *RetryCollector) ListReviewComments(ctx context.Context, number, page, perPage int) ([]Comment, error) {
	return retryList(ctx, r, func() ([]Comment, error) {
		return r.collector.ListReviewComments(ctx, number, page, perPage)
	})
}

// ListReviews implements Collector with retry logic.
func (r *RetryCollector) ListReviews(ctx context.Context, number, page, perPage int) ([]Comment, error) {
	return retryList(ctx, r, func() ([]Comment, error) {
		return r.collector.ListReviews(ctx, number, page, perPage)
	})
}

// ListPullFiles implements Collector with retry logic.
func (r *RetryCollector) ListPullFiles(ctx context.Context, number, page, perPage int) ([]ChangedFile, error) {
	return retryList(ctx, r, func() ([]ChangedFile, error) {
		return r.collector.ListPullFiles(ctx, number, page, perPage)
	})
}

// GetPull implements Collector with retry logic.
func (r *RetryCollector) GetPull(ctx context.Context, number int) (*PullRequest, error) {
	return retryList(ctx, r, func() (*PullRequest, error) {
		return r.collector.GetPull(ctx, number)
	})
}

// retryList runs one collector call with the retry policy. Methods share
// this helper so the backoff behavior cannot drift between endpoints.
func retryList[T any](ctx context.Context, r *RetryCollector, call func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		result, err := call()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !r.isRetryable(err) {
			return zero, err
		}
		if attempt == r.config.MaxRetries {
			break
		}

		backoff := r.backoffFor(attempt)
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
			r.sleep(backoff)
		}
	}

	return zero, fmt.Errorf("giving up after %d attempts: %w", r.config.MaxRetries+1, lastErr)
}

// isRetryable reports whether the error class is worth another attempt.
func (r *RetryCollector) isRetryable(err error) bool {
	return r.inspector.IsRateLimitError(err) || r.inspector.IsNetworkError(err)
}

// backoffFor computes the exponential backoff for a given attempt number.
func (r *RetryCollector) backoffFor(attempt int) time.Duration {
	backoff := float64(r.config.InitialBackoff) * math.Pow(r.config.BackoffMultiplier, float64(attempt))
	if backoff > float64(r.config.MaxBackoff) {
		backoff = float64(r.config.MaxBackoff)
	}
	return time.Duration(backoff)
}
