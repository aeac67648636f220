package services

import (
	"testing"
	"time"

	"property-recommender/models"
)

func TestParseCount(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"1100", 1100},
		{"1,100", 1100},
		{"2 BHK", 2},
		{" 35000 ", 35000},
		{"", 0},
		{"n/a", 0},
	}

	for _, tt := range tests {
		got := parseCount(tt.raw)
		if got != tt.want {
			t.Errorf("parseCount(%q) = %d; want %d", tt.raw, got, tt.want)
		}
	}
}

func TestCleanerParseDate(t *testing.T) {
	c := NewCleaner(newTestLogger())
	want := time.Date(2022, 5, 18, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2022-05-18", want},
		{"2022/05/18", want},
		{"18-05-2022", want},
		{"5/18/2022", want},
		{"", time.Time{}},
		{"yesterday", time.Time{}},
	}

	for _, tt := range tests {
		got := c.parseDate(tt.raw)
		if !got.Equal(tt.want) {
			t.Errorf("parseDate(%q) = %v; want %v", tt.raw, got, tt.want)
		}
	}
}

func TestCleanerTypesFields(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []*models.RawListing{{
		PropertyID: "12", PostedOn: "2022-05-18", BHK: "2", Rent: "10,000", Size: "1100",
		Floor: "Ground out of 2", AreaType: "Super Area", AreaLocality: "  Bandel ",
		City: "Kolkata", FurnishingStatus: "Unfurnished", TenantPreferred: "Bachelors/Family",
		Bathroom: "2", PointOfContact: "Contact Owner", ImageLink: " https://img.example/12.jpg ",
	}}

	cleaned := c.Clean(raw)
	if len(cleaned) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(cleaned))
	}
	l := cleaned[0]
	if l.PropertyID != 12 || l.BHK != 2 || l.Rent != 10000 || l.Size != 1100 || l.Bathroom != 2 {
		t.Errorf("numeric fields not parsed: %+v", l)
	}
	if l.AreaLocality != "Bandel" {
		t.Errorf("AreaLocality = %q; want %q", l.AreaLocality, "Bandel")
	}
	if l.ImageLink != "https://img.example/12.jpg" {
		t.Errorf("ImageLink = %q", l.ImageLink)
	}
	if l.PostedOn.Year() != 2022 {
		t.Errorf("PostedOn = %v", l.PostedOn)
	}
}

func TestCleanerDropsInvalidID(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []*models.RawListing{
		{PropertyID: "", City: "Mumbai"},
		{PropertyID: "abc", City: "Mumbai"},
		{PropertyID: "3", City: "Delhi"},
	}

	cleaned := c.Clean(raw)
	if len(cleaned) != 1 {
		t.Errorf("expected 1 listing after dropping invalid ids, got %d", len(cleaned))
	}
}

func TestCleanerDeduplicatesID(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []*models.RawListing{
		{PropertyID: "1", City: "Mumbai"},
		{PropertyID: "1", City: "Delhi"},
	}

	cleaned := c.Clean(raw)
	if len(cleaned) != 1 {
		t.Fatalf("expected 1 listing after deduplication, got %d", len(cleaned))
	}
	if cleaned[0].City != "Mumbai" {
		t.Errorf("first occurrence should win, got city %q", cleaned[0].City)
	}
}
