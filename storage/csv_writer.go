package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"property-recommender/models"
)

// CSVWriter writes cleaned listings to a CSV file with the dataset header.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	schema *models.Schema
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
// Values use the default dataset rendering so the file reads back identically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	if err := w.Write(models.Columns); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{schema: models.DefaultSchema(), file: f, writer: w}, nil
}

// Write appends listings to the file.
func (c *CSVWriter) Write(_ context.Context, listings []*models.Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	row := make([]string, len(models.Columns))
	for _, l := range listings {
		for i, col := range models.Columns {
			v, err := c.schema.Render(l, col)
			if err != nil {
				return fmt.Errorf("csv: property %d: %w", l.PropertyID, err)
			}
			row[i] = v
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
