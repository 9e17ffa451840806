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

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		want     bool
	}{
		{
			name:     "direct invalid token error",
			err:      ErrInvalidToken,
			sentinel: ErrInvalidToken,
			want:     true,
		},
		{
			name:     "wrapped invalid token error",
			err:      fmt.Errorf("failed to authenticate: %w", ErrInvalidToken),
			sentinel: ErrInvalidToken,
			want:     true,
		},
		{
			name:     "different error type",
			err:      ErrRepoNotFound,
			sentinel: ErrInvalidToken,
			want:     false,
		},
		{
			name:     "wrapped network error",
			err:      fmt.Errorf("connection failed: %w", ErrNetworkFailure),
			sentinel: ErrNetworkFailure,
			want:     true,
		},
		{
			name:     "wrapped malformed item error",
			err:      fmt.Errorf("pull request #42: %w", ErrMalformedItem),
			sentinel: ErrMalformedItem,
			want:     true,
		},
		{
			name:     "wrapped unknown policy error",
			err:      fmt.Errorf("policy %q: %w", "bogus", ErrUnknownPolicy),
			sentinel: ErrUnknownPolicy,
			want:     true,
		},
		{
			name:     "missing identifier is not a policy error",
			err:      ErrMissingIdentifier,
			sentinel: ErrUnknownPolicy,
			want:     false,
		},
		{
			name:     "nil error",
			err:      nil,
			sentinel: ErrInvalidToken,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.sentinel); got != tt.want {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.sentinel, got, tt.want)
			}
		})
	}
}

func TestSentinelMessagesDistinct(t *testing.T) {
	sentinels := []error{
		ErrInvalidToken,
		ErrRepoNotFound,
		ErrNetworkFailure,
		ErrRateLimit,
		ErrMalformedItem,
		ErrUnknownPolicy,
		ErrMissingIdentifier,
	}

	seen := make(map[string]bool)
	for _, err := range sentinels {
		msg := err.Error()
		if msg == "" {
			t.Errorf("sentinel %v has empty message", err)
		}
		if seen[msg] {
			t.Errorf("duplicate sentinel message %q", msg)
		}
		seen[msg] = true
	}
}
