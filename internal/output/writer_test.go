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

package output

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/sirseerhq/prscan/internal/metrics"
	"github.com/sirseerhq/prscan/internal/table"
)

func sampleRow(id string) metrics.Row {
	return metrics.Row{
		TrackedID:      id,
		CreatedAt:      "2024-01-15T10:00:00Z",
		MergedAt:       "2024-01-16T10:00:00Z",
		MergeCommitSHA: "abc123",
		Labels:         "bug;backend",
		FilesChanged:   "main.go",
		Tool:           metrics.TextStats{Count: 2, Chars: 11, Words: 3, Bytes: 11},
		IssueComments:  metrics.TextStats{Count: 2, Chars: 11, Words: 3, Bytes: 11},
	}
}

func TestWriterHeaderFirst(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	if err := w.Write(sampleRow("ABC-1")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d records", len(records))
	}
	if !reflect.DeepEqual(records[0], table.Header) {
		t.Errorf("first record is not the header: %v", records[0])
	}
	if records[1][0] != "ABC-1" {
		t.Errorf("expected bug_id ABC-1, got %q", records[1][0])
	}
}

func TestWriterEmptyTableHasHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected header only, got %d records", len(records))
	}
	if !reflect.DeepEqual(records[0], table.Header) {
		t.Errorf("expected header, got %v", records[0])
	}
}

func TestWriterCount(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	for i := 0; i < 3; i++ {
		if err := w.Write(sampleRow("ABC-1")); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if w.Count() != 3 {
		t.Errorf("expected count 3, got %d", w.Count())
	}
}

func TestFileWriterCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out", "curated.csv")

	w, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter failed: %v", err)
	}
	if err := w.Write(sampleRow("XY-2")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if len(data) == 0 {
		t.Error("output file is empty")
	}
}

func TestWriteTableRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.csv")
	rows := []metrics.Row{sampleRow("ABC-1"), sampleRow("DEF-2")}

	if err := WriteTable(path, rows); err != nil {
		t.Fatalf("WriteTable failed: %v", err)
	}

	tbl, err := table.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", tbl.Len())
	}
	pos, ok := tbl.Lookup("DEF-2")
	if !ok {
		t.Fatal("expected DEF-2 in loaded table")
	}
	if got := tbl.Rows()[pos]; got.MergeCommitSHA != "abc123" {
		t.Errorf("expected merge commit abc123, got %q", got.MergeCommitSHA)
	}
}
