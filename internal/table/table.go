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

// Package table holds the curated metric table: an ordered collection of
// metric rows loaded from CSV, indexed by tracked identifier, and mutated
// only by in-place replacement or end-append. Row order is preserved from
// the file and never permuted; rows the reconciler does not touch are
// re-emitted as they were loaded.
package table

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/sirseerhq/prscan/internal/metrics"
)

// Table is the in-memory curated table.
type Table struct {
	rows  []metrics.Row
	index map[string]int
}

// New creates an empty table.
func New() *Table {
	return &Table{index: make(map[string]int)}
}

// Load reads the curated table from a CSV file. A missing file yields an
// empty table: first runs start with nothing curated. The first non-blank
// record is the header; data cells are mapped by header name so column
// order in the file does not matter, unknown columns are dropped and
// missing ones read as empty. Short records are padded. Fully blank
// records are skipped.
func Load(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to open curated table %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse curated table %s: %w", path, err)
	}

	t := New()
	var header []string
	for _, record := range records {
		if blank(record) {
			continue
		}
		if header == nil {
			header = record
			continue
		}
		cells := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				cells[strings.TrimSpace(name)] = record[i]
			} else {
				cells[strings.TrimSpace(name)] = ""
			}
		}
		t.Append(rowFromCells(cells))
	}
	return t, nil
}

// blank reports whether every field of a record is empty after trimming.
func blank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Rows returns the rows in table order. The slice is the table's backing
// storage; callers must not reorder it.
func (t *Table) Rows() []metrics.Row {
	return t.rows
}

// Lookup returns the position of the row keyed by id.
func (t *Table) Lookup(id string) (int, bool) {
	i, ok := t.index[id]
	return i, ok
}

// Replace overwrites the row at position i in place.
func (t *Table) Replace(i int, row metrics.Row) {
	old := t.rows[i].TrackedID
	if old != row.TrackedID {
		delete(t.index, old)
		t.index[row.TrackedID] = i
	}
	t.rows[i] = row
}

// Append adds a row at the end of the table. If the identifier is already
// present the index keeps pointing at the first occurrence, mirroring how
// the reconciler resolves matches.
func (t *Table) Append(row metrics.Row) {
	t.rows = append(t.rows, row)
	if _, exists := t.index[row.TrackedID]; !exists && row.TrackedID != "" {
		t.index[row.TrackedID] = len(t.rows) - 1
	}
}
