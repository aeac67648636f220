package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"property-recommender/models"
)

const sampleCSV = `Posted On,BHK,Rent,Size,Floor,Area Type,Area Locality,City,Furnishing Status,Tenant Preferred,Bathroom,Point of Contact,Property ID,Image Link
2022-05-18,2,10000,1100,Ground out of 2,Super Area,Bandel,Kolkata,Unfurnished,Bachelors/Family,2,Contact Owner,1,https://img.example/1.jpg
2022-05-13,2,20000,800,1 out of 3,Super Area,"Phool Bagan, Kankurgachi",Kolkata,Semi-Furnished,Bachelors/Family,1,Contact Owner,2,https://img.example/2.jpg
`

func TestReadRawByHeaderName(t *testing.T) {
	rows, err := readRaw(strings.NewReader(sampleCSV), []string{models.ColCity, models.ColRent})
	if err != nil {
		t.Fatalf("readRaw: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(rows))
	}
	if rows[1].PropertyID != "2" || rows[1].AreaLocality != "Phool Bagan, Kankurgachi" {
		t.Errorf("row 2 = %+v", rows[1])
	}
	if rows[0].ImageLink != "https://img.example/1.jpg" {
		t.Errorf("ImageLink = %q", rows[0].ImageLink)
	}
}

func TestReadRawMissingColumn(t *testing.T) {
	_, err := readRaw(strings.NewReader(sampleCSV), []string{"Balcony"})
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("error = %v; want ErrMissingColumn", err)
	}

	noID := "City,Rent\nMumbai,1000\n"
	if _, err := readRaw(strings.NewReader(noID), nil); !errors.Is(err, ErrMissingColumn) {
		t.Errorf("missing Property ID: error = %v; want ErrMissingColumn", err)
	}
}

func TestReadRawOptionalColumnsAreEmpty(t *testing.T) {
	rows, err := readRaw(strings.NewReader("Property ID,City\n5,Pune\n"), nil)
	if err != nil {
		t.Fatalf("readRaw: %v", err)
	}
	if rows[0].Rent != "" || rows[0].City != "Pune" {
		t.Errorf("row = %+v", rows[0])
	}
}

func TestCSVWriterOutputReadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "listings.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}

	listing := &models.Listing{
		PropertyID: 9, PostedOn: time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC),
		BHK: 3, Rent: 45000, Size: 1500, AreaLocality: "Andheri, West", City: "Mumbai",
	}
	if err := w.Write(context.Background(), []*models.Listing{listing}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("output file: %v", err)
	}
	rows, err := NewCSVReader(path).ReadRaw(models.Columns...)
	if err != nil {
		t.Fatalf("ReadRaw: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows: got %d, want 1", len(rows))
	}
	got := rows[0]
	if got.PropertyID != "9" || got.PostedOn != "2022-06-01" || got.Rent != "45000" || got.AreaLocality != "Andheri, West" {
		t.Errorf("row = %+v", got)
	}
}
