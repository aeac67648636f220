package models

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func sampleListing() *Listing {
	return &Listing{
		PropertyID: 7,
		PostedOn:   time.Date(2022, 5, 18, 0, 0, 0, 0, time.UTC),
		BHK:        2,
		Rent:       10000,
		Size:       1100,
		City:       "Kolkata",
		Bathroom:   2,
		ImageLink:  "https://img.example/7.jpg",
	}
}

func TestDefaultSchemaRender(t *testing.T) {
	s := DefaultSchema()
	l := sampleListing()

	tests := []struct {
		column string
		want   string
	}{
		{ColPropertyID, "7"},
		{ColBHK, "2"},
		{ColRent, "10000"},
		{ColCity, "Kolkata"},
		{ColPostedOn, "2022-05-18"},
		{ColImageLink, "https://img.example/7.jpg"},
		{ColFloor, ""},
	}

	for _, tt := range tests {
		got, err := s.Render(l, tt.column)
		if err != nil {
			t.Errorf("Render(%q): unexpected error %v", tt.column, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Render(%q) = %q; want %q", tt.column, got, tt.want)
		}
	}
}

func TestRenderUnknownColumn(t *testing.T) {
	s := DefaultSchema()
	_, err := s.Render(sampleListing(), "Balcony")
	if !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("Render(Balcony) error = %v; want ErrUnknownColumn", err)
	}
	if err := s.Has(ColCity, "Balcony"); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("Has(City, Balcony) = %v; want ErrUnknownColumn", err)
	}
	if err := s.Has(ColCity, ColRent); err != nil {
		t.Errorf("Has(City, Rent) = %v; want nil", err)
	}
}

func TestFloatKindRendersShortestForm(t *testing.T) {
	s, err := NewSchema([]Field{{Name: ColRent, Kind: KindFloat}})
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	got, err := s.Render(&Listing{Rent: 1200}, ColRent)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "1200" {
		t.Errorf("Render(Rent as float) = %q; want %q", got, "1200")
	}
}

func TestKindMismatchIsAnError(t *testing.T) {
	s, err := NewSchema([]Field{{Name: ColCity, Kind: KindInt}})
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	if _, err := s.Render(sampleListing(), ColCity); err == nil {
		t.Error("rendering a text value as int should fail")
	}
}

func TestNewSchemaRejectsBadFields(t *testing.T) {
	tests := []struct {
		name   string
		fields []Field
	}{
		{"empty name", []Field{{Kind: KindText}}},
		{"unknown kind", []Field{{Name: "City", Kind: "bool"}}},
		{"duplicate", []Field{{Name: "City", Kind: KindText}, {Name: "City", Kind: KindText}}},
	}
	for _, tt := range tests {
		if _, err := NewSchema(tt.fields); err == nil {
			t.Errorf("%s: NewSchema should fail", tt.name)
		}
	}
}

func TestLoadSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")
	content := `fields:
  - name: City
    kind: text
  - name: Posted On
    kind: date
    layout: 02/01/2006
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSchema(path)
	if err != nil {
		t.Fatalf("LoadSchema: %v", err)
	}
	got, err := s.Render(sampleListing(), ColPostedOn)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "18/05/2022" {
		t.Errorf("Render(Posted On) = %q; want %q", got, "18/05/2022")
	}
	if len(s.Fields()) != 2 {
		t.Errorf("Fields: got %d, want 2", len(s.Fields()))
	}
}

func TestLoadSchemaEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	if err := os.WriteFile(path, []byte("fields: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSchema(path); err == nil {
		t.Error("LoadSchema of an empty field list should fail")
	}
}
