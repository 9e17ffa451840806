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

package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

// CreateTempDir creates a temporary directory that's automatically cleaned up
func CreateTempDir(t *testing.T, pattern string) string {
	t.Helper()

	dir, err := os.MkdirTemp("", pattern)
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	t.Cleanup(func() {
		os.RemoveAll(dir)
	})

	return dir
}

// WriteFile writes content to path, creating parent directories as needed.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create parent dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// ReadCSV reads a CSV file into header and records. It fails the test if the
// file is missing or malformed.
func ReadCSV(t *testing.T, path string) (header []string, records [][]string) {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	all, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse %s: %v", path, err)
	}
	if len(all) == 0 {
		t.Fatalf("CSV file %s is empty, expected at least a header", path)
	}
	return all[0], all[1:]
}

// FindCSVRow returns the first record whose column at idx equals value, or
// nil when no record matches.
func FindCSVRow(records [][]string, idx int, value string) []string {
	for _, rec := range records {
		if idx < len(rec) && rec[idx] == value {
			return rec
		}
	}
	return nil
}

// ColumnIndex returns the position of name in the header, failing the test
// when the column is absent.
func ColumnIndex(t *testing.T, header []string, name string) int {
	t.Helper()

	for i, col := range header {
		if col == name {
			return i
		}
	}
	t.Fatalf("Column %q not found in header %v", name, header)
	return -1
}
