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

// Package metrics reduces lists of text-bearing records into count,
// character, word and byte totals, and defines the per-item metric row
// those totals are assembled into.
package metrics

import (
	"strings"
)

// TextStats holds the aggregate totals of one group of text records.
type TextStats struct {
	// Count is the number of records in the group, including records
	// whose text was empty.
	Count int
	// Chars is the total number of Unicode code points across all
	// whitespace-trimmed texts.
	Chars int
	// Words is the total number of whitespace-delimited tokens.
	Words int
	// Bytes is the total UTF-8 encoded length of the trimmed texts.
	Bytes int
}

// Aggregate reduces a list of record bodies into TextStats. Each body is
// trimmed of leading and trailing whitespace before measuring. An empty
// body contributes zero to the three size totals but still counts toward
// Count. The result does not depend on the order of the input.
func Aggregate(bodies []string) TextStats {
	stats := TextStats{Count: len(bodies)}
	for _, body := range bodies {
		text := strings.TrimSpace(body)
		stats.Chars += len([]rune(text))
		stats.Words += len(strings.Fields(text))
		stats.Bytes += len(text)
	}
	return stats
}

// Combine sums groups element-wise. It is used to derive the tool-level
// totals from the per-source groups and must equal the exact sum even when
// some groups are all-zero.
func Combine(groups ...TextStats) TextStats {
	var total TextStats
	for _, g := range groups {
		total.Count += g.Count
		total.Chars += g.Chars
		total.Words += g.Words
		total.Bytes += g.Bytes
	}
	return total
}
