package storage

import (
	"context"
	"fmt"

	"property-recommender/models"
)

// RowCleaner turns raw CSV rows into typed listings.
type RowCleaner interface {
	Clean(raw []*models.RawListing) []*models.Listing
}

// CSVSource loads the dataset file through a cleaner on every FetchAll, so a
// reload picks up edits to the file.
type CSVSource struct {
	reader   *CSVReader
	cleaner  RowCleaner
	required []string
}

// NewCSVSource reads path, requiring the given columns in its header.
func NewCSVSource(path string, cleaner RowCleaner, required ...string) *CSVSource {
	return &CSVSource{
		reader:   NewCSVReader(path),
		cleaner:  cleaner,
		required: append([]string(nil), required...),
	}
}

// FetchAll reads and cleans the whole file, preserving row order.
func (s *CSVSource) FetchAll(ctx context.Context) ([]*models.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := s.reader.ReadRaw(s.required...)
	if err != nil {
		return nil, err
	}
	listings := s.cleaner.Clean(raw)
	if len(listings) == 0 {
		return nil, fmt.Errorf("csv: %s: no usable rows", s.reader.Path())
	}
	return listings, nil
}
