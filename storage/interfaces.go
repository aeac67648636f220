package storage

import (
	"context"

	"property-recommender/models"
)

// ListingWriter is the interface any storage backend must satisfy.
type ListingWriter interface {
	Write(ctx context.Context, listings []*models.Listing) error
}
