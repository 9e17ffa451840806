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
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirseerhq/prscan/internal/metrics"
	"github.com/sirseerhq/prscan/internal/table"
)

// TableWriter defines the interface for writing metric rows to one output
// table. The abstraction keeps the pipeline independent of the on-disk
// format and makes capturing output in tests trivial.
type TableWriter interface {
	// Write appends a single row to the output.
	Write(row metrics.Row) error

	// Close flushes buffered rows and releases any resources.
	Close() error
}

// Writer streams metric rows as CSV to an io.Writer, emitting the shared
// header before the first row.
type Writer struct {
	csv       *csv.Writer
	count     int
	wroteHead bool
	closeFunc func() error
}

// NewWriter creates a CSV writer over w. The header is written lazily with
// the first row, or by Close for an empty table, so even an output with no
// rows is a well-formed table.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// NewFileWriter creates a CSV writer that writes to a file, creating
// parent directories as needed. The caller must call Close when done.
func NewFileWriter(filename string) (*Writer, error) {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	w := NewWriter(file)
	w.closeFunc = file.Close
	return w, nil
}

// Write appends a single row to the output.
func (w *Writer) Write(row metrics.Row) error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	if err := w.csv.Write(table.Record(row)); err != nil {
		return fmt.Errorf("failed to write row %s: %w", row.TrackedID, err)
	}
	w.count++
	return nil
}

// Count returns the number of rows written, excluding the header.
func (w *Writer) Count() int {
	return w.count
}

// Close writes the header if nothing was written yet, flushes the CSV
// buffer and closes the underlying file, if any.
func (w *Writer) Close() error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	if w.closeFunc != nil {
		return w.closeFunc()
	}
	return nil
}

func (w *Writer) writeHeader() error {
	if w.wroteHead {
		return nil
	}
	if err := w.csv.Write(table.Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	w.wroteHead = true
	return nil
}

// WriteTable writes rows to filename in one call. It is the convenience
// path the pipeline uses for each of its three outputs.
func WriteTable(filename string, rows []metrics.Row) error {
	w, err := NewFileWriter(filename)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			_ = w.Close()
			return err
		}
	}
	return w.Close()
}
