package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"property-recommender/models"
)

// ErrMissingColumn is returned when the dataset header lacks a required column.
var ErrMissingColumn = errors.New("csv: missing column")

// CSVReader reads the rental dataset. Columns are addressed by header name,
// so their order in the file does not matter.
type CSVReader struct {
	path string
}

// NewCSVReader returns a reader for the CSV file at path.
func NewCSVReader(path string) *CSVReader {
	return &CSVReader{path: path}
}

// Path returns the file the reader reads from.
func (r *CSVReader) Path() string { return r.path }

// ReadRaw reads every row as untyped strings. required names the columns that
// must be present in the header; Property ID is always required. Missing
// optional columns read as empty strings.
func (r *CSVReader) ReadRaw(required ...string) ([]*models.RawListing, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", r.path, err)
	}
	defer f.Close()

	return readRaw(f, required)
}

func readRaw(src io.Reader, required []string) ([]*models.RawListing, error) {
	cr := csv.NewReader(src)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range append([]string{models.ColPropertyID}, required...) {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
	}

	var rows []*models.RawListing
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read line %d: %w", line, err)
		}

		get := func(col string) string {
			if i, ok := index[col]; ok && i < len(rec) {
				return rec[i]
			}
			return ""
		}
		rows = append(rows, &models.RawListing{
			PropertyID:       get(models.ColPropertyID),
			PostedOn:         get(models.ColPostedOn),
			BHK:              get(models.ColBHK),
			Rent:             get(models.ColRent),
			Size:             get(models.ColSize),
			Floor:            get(models.ColFloor),
			AreaType:         get(models.ColAreaType),
			AreaLocality:     get(models.ColAreaLocality),
			City:             get(models.ColCity),
			FurnishingStatus: get(models.ColFurnishingStatus),
			TenantPreferred:  get(models.ColTenantPreferred),
			Bathroom:         get(models.ColBathroom),
			PointOfContact:   get(models.ColPointOfContact),
			ImageLink:        get(models.ColImageLink),
		})
	}
	return rows, nil
}
