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

package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirseerhq/prscan/internal/snapshot"
)

// PageFetcher retrieves one page of records from the remote collector.
// Implementations persist the page before returning it.
type PageFetcher[T any] func(ctx context.Context, page, perPage int) ([]T, error)

// Resolver drives the cache-or-fetch decision for every collection
// endpoint. It is stateless apart from its configuration; one resolver
// serves all operations of a run.
type Resolver struct {
	store     *snapshot.Store
	pageSize  int
	delay     time.Duration
	skipCache bool
	sleep     func(time.Duration)
}

// New creates a resolver over the given snapshot store. delay is the
// courtesy throttle inserted after each network call; it is never applied
// on cache hits.
func New(store *snapshot.Store, pageSize int, delay time.Duration) *Resolver {
	return &Resolver{
		store:    store,
		pageSize: pageSize,
		delay:    delay,
		sleep:    time.Sleep,
	}
}

// PageSize returns the page size the resolver requests from collectors.
func (r *Resolver) PageSize() int {
	return r.pageSize
}

// Forced returns a resolver that ignores existing snapshots and always
// fetches. The fetched pages still land in the store, replacing the stale
// ones page by page.
func (r *Resolver) Forced() *Resolver {
	forced := *r
	forced.skipCache = true
	return &forced
}

// Records returns all records for one (operation, item) pair, serving the
// snapshot cache when any page exists and paging through fetch otherwise.
// The keep predicate, when non-nil, is applied to both paths so the output
// shape never depends on where the data came from. A nil keep keeps
// everything.
func Records[T any](ctx context.Context, r *Resolver, kind string, fetch PageFetcher[T], keep func(T) bool) ([]T, error) {
	var (
		records []T
		hit     bool
		err     error
	)
	if !r.skipCache {
		records, hit, err = cached[T](r, kind)
		if err != nil {
			return nil, err
		}
	}

	if !hit {
		for page := 1; ; page++ {
			batch, fetchErr := fetch(ctx, page, r.pageSize)
			if fetchErr != nil {
				return nil, fetchErr
			}
			r.throttle()
			records = append(records, batch...)
			if len(batch) == 0 || len(batch) < r.pageSize {
				break
			}
		}
	}

	if keep == nil {
		return records, nil
	}
	filtered := records[:0]
	for _, record := range records {
		if keep(record) {
			filtered = append(filtered, record)
		}
	}
	return filtered, nil
}

// Item returns a single-item record, serving the snapshot when present and
// fetching otherwise. The fetch persists the item before returning it.
func Item[T any](ctx context.Context, r *Resolver, name string, fetch func(ctx context.Context) (*T, error)) (*T, error) {
	var (
		data []byte
		hit  bool
		err  error
	)
	if !r.skipCache {
		data, hit, err = r.store.LoadItem(name)
		if err != nil {
			return nil, err
		}
	}
	if hit {
		var record T
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("corrupt snapshot %s: %w", name, err)
		}
		return &record, nil
	}

	record, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	r.throttle()
	return record, nil
}

// cached loads and decodes the contiguous snapshot pages for a kind.
func cached[T any](r *Resolver, kind string) ([]T, bool, error) {
	pages, hit, err := r.store.LoadPages(kind)
	if err != nil || !hit {
		return nil, hit, err
	}

	var records []T
	for i, data := range pages {
		var page []T
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, true, fmt.Errorf("corrupt snapshot page %d for %s: %w", i+1, kind, err)
		}
		records = append(records, page...)
	}
	return records, true, nil
}

// throttle sleeps for the configured inter-call delay.
func (r *Resolver) throttle() {
	if r.delay > 0 {
		r.sleep(r.delay)
	}
}
