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

package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store reads and writes snapshot files under a single cache directory.
type Store struct {
	dir string
}

// New creates a Store rooted at dir. The directory is created on the first
// write, not here, so constructing a store never touches the filesystem.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the cache directory the store is rooted at.
func (s *Store) Dir() string {
	return s.dir
}

// Kind builders. The kind string is the filename prefix shared by all pages
// of one (operation, item) pair and must stay stable across runs: it is the
// de facto contract between the collector writing pages and the resolver
// reading them back.

// PullsKind returns the kind for the repository pull request listing.
// The page size is part of the name so a run with a different page size
// does not silently mix page boundaries.
func PullsKind(perPage int) string {
	return fmt.Sprintf("repo_pulls_per_%d", perPage)
}

// IssueCommentsKind returns the kind for a pull request's issue comments.
func IssueCommentsKind(number int) string {
	return fmt.Sprintf("issue_%d_comments", number)
}

// ReviewCommentsKind returns the kind for a pull request's inline review comments.
func ReviewCommentsKind(number int) string {
	return fmt.Sprintf("pull_%d_review_comments", number)
}

// ReviewsKind returns the kind for a pull request's reviews.
func ReviewsKind(number int) string {
	return fmt.Sprintf("pull_%d_reviews", number)
}

// FilesKind returns the kind for a pull request's changed files.
func FilesKind(number int) string {
	return fmt.Sprintf("pull_%d_files", number)
}

// PullItemName returns the single-item snapshot name for one pull request.
func PullItemName(number int) string {
	return fmt.Sprintf("pull_%d", number)
}

// PagePath returns the path of one page file for a kind.
func (s *Store) PagePath(kind string, page int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_page_%d.json", kind, page))
}

// ItemPath returns the path of a single-item snapshot file.
func (s *Store) ItemPath(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// HasPages reports whether at least the first page of a kind exists.
func (s *Store) HasPages(kind string) bool {
	_, err := os.Stat(s.PagePath(kind, 1))
	return err == nil
}

// HasItem reports whether a single-item snapshot exists.
func (s *Store) HasItem(name string) bool {
	_, err := os.Stat(s.ItemPath(name))
	return err == nil
}

// LoadPages reads the contiguous run of pages for a kind starting at page 1
// and returns the raw JSON payloads in page order. The second return value
// reports whether any page existed at all. A gap in the page numbering ends
// the run; later stray pages are ignored.
func (s *Store) LoadPages(kind string) ([][]byte, bool, error) {
	var pages [][]byte
	for page := 1; ; page++ {
		data, err := os.ReadFile(s.PagePath(kind, page))
		if err != nil {
			if os.IsNotExist(err) {
				break
			}
			return nil, false, fmt.Errorf("failed to read snapshot page %s: %w", s.PagePath(kind, page), err)
		}
		pages = append(pages, data)
	}
	return pages, len(pages) > 0, nil
}

// WritePage persists one page of records. The write is atomic: the payload
// is written to a temporary file in the same directory and renamed into
// place, so a crash never leaves a truncated page that would be mistaken
// for a complete short page on the next run.
func (s *Store) WritePage(kind string, page int, records any) error {
	return s.writeJSON(s.PagePath(kind, page), records)
}

// LoadItem reads a single-item snapshot. The second return value reports
// whether the snapshot existed.
func (s *Store) LoadItem(name string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.ItemPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read snapshot %s: %w", s.ItemPath(name), err)
	}
	return data, true, nil
}

// WriteItem persists a single-item snapshot atomically.
func (s *Store) WriteItem(name string, record any) error {
	return s.writeJSON(s.ItemPath(name), record)
}

func (s *Store) writeJSON(path string, v any) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary snapshot file: %w", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to rename snapshot file: %w", err)
	}

	return nil
}
