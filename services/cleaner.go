package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"property-recommender/models"
	"property-recommender/utils"
)

// numberRegexp captures the first integer, allowing thousands separators.
var numberRegexp = regexp.MustCompile(`\d[\d,]*`)

// postedOnLayouts are tried in order when parsing the posting date.
var postedOnLayouts = []string{"2006-01-02", "2006/01/02", "02-01-2006", "1/2/2006"}

// Cleaner transforms RawListings into typed Listings.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean parses raw rows in order. Rows without a usable Property ID are
// dropped, and so is every repeat of an ID already seen.
func (c *Cleaner) Clean(raw []*models.RawListing) []*models.Listing {
	seen := utils.NewIDSet()
	result := make([]*models.Listing, 0, len(raw))

	for i, r := range raw {
		id, err := strconv.ParseInt(strings.TrimSpace(r.PropertyID), 10, 64)
		if err != nil {
			c.logger.Warn("[cleaner] Dropping row %d with invalid Property ID %q", i+1, r.PropertyID)
			continue
		}

		if !seen.Add(id) {
			c.logger.Debug("[cleaner] Duplicate Property ID skipped: %d", id)
			continue
		}

		listing := &models.Listing{
			PropertyID:       id,
			PostedOn:         c.parseDate(r.PostedOn),
			BHK:              parseCount(r.BHK),
			Rent:             parseCount(r.Rent),
			Size:             parseCount(r.Size),
			Floor:            normaliseText(r.Floor),
			AreaType:         normaliseText(r.AreaType),
			AreaLocality:     normaliseText(r.AreaLocality),
			City:             normaliseText(r.City),
			FurnishingStatus: normaliseText(r.FurnishingStatus),
			TenantPreferred:  normaliseText(r.TenantPreferred),
			Bathroom:         parseCount(r.Bathroom),
			PointOfContact:   normaliseText(r.PointOfContact),
			ImageLink:        strings.TrimSpace(r.ImageLink),
		}

		result = append(result, listing)
	}

	c.logger.Info("[cleaner] Cleaned %d → %d listings (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	return result
}

// parseDate accepts the dataset's ISO dates and a few common variants.
// Unparseable values yield the zero time.
func (c *Cleaner) parseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range postedOnLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	c.logger.Debug("[cleaner] Unrecognised Posted On value %q", raw)
	return time.Time{}
}

// parseCount extracts a non-negative integer from strings such as "1,100" or "2 BHK".
func parseCount(raw string) int {
	match := numberRegexp.FindString(raw)
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return 0
	}
	return n
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
