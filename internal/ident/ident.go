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

// Package ident extracts tracked bug identifiers from pull request titles
// and filters the raw pull request list down to the items of interest.
//
// A tracked identifier is an uppercase project key and a number, written
// in the title between square brackets: "[FLINK-12345] Fix connector".
// The curated allow-list decides which identifiers a run cares about.
package ident

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/sirseerhq/prscan/internal/github"
)

// titlePattern matches a bracketed tracked identifier anywhere in a title.
var titlePattern = regexp.MustCompile(`\[([A-Z]+-[0-9]+)\]`)

// idPattern matches a bare identifier, used to validate allow-list lines.
var idPattern = regexp.MustCompile(`^[A-Z]+-[0-9]+$`)

// Extract returns the first tracked identifier found in a title, with the
// surrounding brackets stripped. The second return value reports whether a
// match was found. Titles without an identifier are a normal, expected
// outcome: some pull requests are legitimately unrelated to any tracked bug.
func Extract(title string) (string, bool) {
	match := titlePattern.FindStringSubmatch(title)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// Set is the allow-list of tracked identifiers for one run.
type Set map[string]struct{}

// Contains reports whether id is in the allow-list.
func (s Set) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// LoadAllowList reads the allow-list file: one identifier per line,
// optionally wrapped in quotes. Blank lines and lines that do not look
// like an identifier are ignored.
func LoadAllowList(path string) (Set, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open allow-list %s: %w", path, err)
	}
	defer file.Close()

	set := make(Set)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		line = strings.Trim(line, `"`)
		line = strings.TrimSpace(line)
		if idPattern.MatchString(line) {
			set[line] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read allow-list %s: %w", path, err)
	}
	return set, nil
}

// Filter keeps a pull request iff it was created at or after windowStart
// and its title carries an identifier present in the allow-list. An empty
// allow-list keeps every item with an identifier. Input order is
// preserved. The dropped counts are logged for visibility; they carry no
// correctness weight.
func Filter(items []github.PullRequest, windowStart time.Time, allow Set, logger *slog.Logger) []github.PullRequest {
	kept := make([]github.PullRequest, 0, len(items))
	var outsideWindow, untracked int

	for _, item := range items {
		if item.CreatedAt.Before(windowStart) {
			outsideWindow++
			continue
		}
		id, ok := Extract(item.Title)
		if !ok {
			untracked++
			logger.Debug("skipping pull request without tracked identifier",
				"number", item.Number, "title", item.Title)
			continue
		}
		if len(allow) > 0 && !allow.Contains(id) {
			untracked++
			continue
		}
		kept = append(kept, item)
	}

	logger.Info("filtered pull requests",
		"kept", len(kept),
		"outside_window", outsideWindow,
		"untracked", untracked)
	return kept
}
