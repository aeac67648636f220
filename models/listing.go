package models

import "time"

// RawListing holds one dataset row exactly as read from the source file.
// Values are untyped strings; the cleaner turns them into a Listing.
type RawListing struct {
	PropertyID       string
	PostedOn         string
	BHK              string
	Rent             string
	Size             string
	Floor            string
	AreaType         string
	AreaLocality     string
	City             string
	FurnishingStatus string
	TenantPreferred  string
	Bathroom         string
	PointOfContact   string
	ImageLink        string
}

// Listing is a cleaned, typed property record. Listings are never mutated
// after loading; every request reads the same snapshot.
type Listing struct {
	PropertyID       int64     `json:"property_id"`
	PostedOn         time.Time `json:"posted_on"`
	BHK              int       `json:"bhk"`
	Rent             int       `json:"rent"`
	Size             int       `json:"size"`
	Floor            string    `json:"floor"`
	AreaType         string    `json:"area_type"`
	AreaLocality     string    `json:"area_locality"`
	City             string    `json:"city"`
	FurnishingStatus string    `json:"furnishing_status"`
	TenantPreferred  string    `json:"tenant_preferred"`
	Bathroom         int       `json:"bathroom"`
	PointOfContact   string    `json:"point_of_contact"`
	ImageLink        string    `json:"image_link"`
}

// Dataset column names.
const (
	ColPropertyID       = "Property ID"
	ColPostedOn         = "Posted On"
	ColBHK              = "BHK"
	ColRent             = "Rent"
	ColSize             = "Size"
	ColFloor            = "Floor"
	ColAreaType         = "Area Type"
	ColAreaLocality     = "Area Locality"
	ColCity             = "City"
	ColFurnishingStatus = "Furnishing Status"
	ColTenantPreferred  = "Tenant Preferred"
	ColBathroom         = "Bathroom"
	ColPointOfContact   = "Point of Contact"
	ColImageLink        = "Image Link"
)

// Columns lists every dataset column in file order.
var Columns = []string{
	ColPropertyID, ColPostedOn, ColBHK, ColRent, ColSize, ColFloor, ColAreaType,
	ColAreaLocality, ColCity, ColFurnishingStatus, ColTenantPreferred, ColBathroom,
	ColPointOfContact, ColImageLink,
}

// Value returns the typed value stored under column. ok is false for a column
// the Listing does not carry.
func (l *Listing) Value(column string) (v any, ok bool) {
	switch column {
	case ColPropertyID:
		return l.PropertyID, true
	case ColPostedOn:
		return l.PostedOn, true
	case ColBHK:
		return l.BHK, true
	case ColRent:
		return l.Rent, true
	case ColSize:
		return l.Size, true
	case ColFloor:
		return l.Floor, true
	case ColAreaType:
		return l.AreaType, true
	case ColAreaLocality:
		return l.AreaLocality, true
	case ColCity:
		return l.City, true
	case ColFurnishingStatus:
		return l.FurnishingStatus, true
	case ColTenantPreferred:
		return l.TenantPreferred, true
	case ColBathroom:
		return l.Bathroom, true
	case ColPointOfContact:
		return l.PointOfContact, true
	case ColImageLink:
		return l.ImageLink, true
	}
	return nil, false
}

// Attribute is one rendered display column of a recommendation.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Recommendation is a ranked candidate listing with its similarity to the target.
type Recommendation struct {
	PropertyID int64       `json:"property_id"`
	Similarity float64     `json:"similarity"`
	Attributes []Attribute `json:"attributes"`
}

// InsightReport holds the computed analytics over the loaded dataset.
type InsightReport struct {
	TotalListings  int            `json:"total_listings"`
	AverageRent    float64        `json:"average_rent"`
	MinRent        int            `json:"min_rent"`
	MaxRent        int            `json:"max_rent"`
	MostExpensive  *Listing       `json:"most_expensive,omitempty"`
	Largest        []*Listing     `json:"largest"`
	ListingsByCity map[string]int `json:"listings_by_city"`
}
