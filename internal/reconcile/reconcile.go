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

// Package reconcile merges freshly computed metric rows into a curated
// table. Rows whose tracked identifier is absent from the curated table go
// to the not-matched output; rows that match are applied according to the
// configured merge policy, with losers of a policy decision routed to the
// overflow output. Every input row ends up in exactly one of the three
// outputs or is explicitly logged as dropped.
package reconcile

import (
	"fmt"
	"log/slog"

	"github.com/sirseerhq/prscan/internal/errors"
	"github.com/sirseerhq/prscan/internal/metrics"
	"github.com/sirseerhq/prscan/internal/table"
)

// Policy selects how a row that matches an existing curated entry is
// merged into the table.
type Policy string

const (
	// PolicyOverwrite replaces the curated entry unconditionally. The
	// last occurrence of an identifier wins.
	PolicyOverwrite Policy = "overwrite"

	// PolicyFirstWins replaces the curated entry for the first occurrence
	// of an identifier; later occurrences go to overflow.
	PolicyFirstWins Policy = "first-wins"

	// PolicyMergeConditional replaces the curated entry only for merged
	// items that landed on the repository's default branch. Unmerged
	// items go to overflow; merged items on other base branches are
	// dropped as backports.
	PolicyMergeConditional Policy = "merge-conditional"
)

// ParsePolicy validates a policy name from configuration or a flag.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyOverwrite, PolicyFirstWins, PolicyMergeConditional:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("%w: %q (want overwrite, first-wins or merge-conditional)", errors.ErrUnknownPolicy, s)
	}
}

// Reconciler applies one merge policy to a batch of rows.
type Reconciler struct {
	policy        Policy
	owner         string
	defaultBranch string
	seen          map[string]bool
	logger        *slog.Logger
}

// New creates a reconciler. owner and defaultBranch identify the base a
// merged item must target under PolicyMergeConditional; the other
// policies ignore them.
func New(policy Policy, owner, defaultBranch string, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		policy:        policy,
		owner:         owner,
		defaultBranch: defaultBranch,
		seen:          make(map[string]bool),
		logger:        logger,
	}
}

// Apply merges rows into the curated table in order, mutating it in
// place. It returns the rows that did not match any curated entry and the
// rows the policy diverted to overflow.
func (r *Reconciler) Apply(curated *table.Table, rows []metrics.Row) (notMatched, overflow []metrics.Row, err error) {
	for _, row := range rows {
		if err := row.Validate(); err != nil {
			return nil, nil, err
		}

		pos, ok := curated.Lookup(row.TrackedID)
		if !ok {
			notMatched = append(notMatched, row)
			continue
		}

		switch r.policy {
		case PolicyOverwrite:
			curated.Replace(pos, row)

		case PolicyFirstWins:
			if r.seen[row.TrackedID] {
				r.logger.Warn("double occurrence, keeping first",
					"id", row.TrackedID)
				overflow = append(overflow, row)
				continue
			}
			curated.Replace(pos, row)
			r.seen[row.TrackedID] = true

		case PolicyMergeConditional:
			if r.mergeConditional(curated, pos, row) {
				overflow = append(overflow, row)
			}

		default:
			return nil, nil, fmt.Errorf("%w: %q", errors.ErrUnknownPolicy, r.policy)
		}
	}
	return notMatched, overflow, nil
}

// mergeConditional reports whether the row goes to overflow. Merged rows
// targeting a non-default base are dropped entirely.
func (r *Reconciler) mergeConditional(curated *table.Table, pos int, row metrics.Row) (overflow bool) {
	if !row.Merged() {
		r.logger.Debug("unmerged item diverted to overflow", "id", row.TrackedID)
		return true
	}

	if row.BaseOwner != r.owner || row.BaseRef != r.defaultBranch {
		r.logger.Info("merged item targets non-default base, dropping",
			"id", row.TrackedID,
			"base_owner", row.BaseOwner,
			"base_ref", row.BaseRef)
		return false
	}

	if r.seen[row.TrackedID] {
		r.logger.Warn("double merge on default branch, applying latest",
			"id", row.TrackedID)
	}
	curated.Replace(pos, row)
	r.seen[row.TrackedID] = true
	return false
}
