package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"property-recommender/metrics"
	"property-recommender/models"
	"property-recommender/utils"
)

// ListingSource loads the complete listing collection, in dataset order.
type ListingSource interface {
	FetchAll(ctx context.Context) ([]*models.Listing, error)
}

// Snapshot is an immutable view of the dataset. Nothing may modify its
// listings once it has been published.
type Snapshot struct {
	Listings []*models.Listing
	LoadedAt time.Time

	byID   map[int64]*models.Listing
	cities []string
	byCity map[string][]*models.Listing
}

func newSnapshot(listings []*models.Listing) *Snapshot {
	s := &Snapshot{
		Listings: listings,
		LoadedAt: time.Now(),
		byID:     make(map[int64]*models.Listing, len(listings)),
		byCity:   make(map[string][]*models.Listing),
	}
	for _, l := range listings {
		if _, dup := s.byID[l.PropertyID]; !dup {
			s.byID[l.PropertyID] = l
		}
		if _, seen := s.byCity[l.City]; !seen {
			s.cities = append(s.cities, l.City)
		}
		s.byCity[l.City] = append(s.byCity[l.City], l)
	}
	return s
}

// CitySample is a random selection of listings from one city.
type CitySample struct {
	City     string            `json:"city"`
	Listings []*models.Listing `json:"listings"`
}

// Catalog serves the current dataset snapshot to readers and hands it to the
// recommender. Reload swaps in a new snapshot atomically; in-flight requests
// keep the snapshot they started with.
type Catalog struct {
	source   ListingSource
	engine   *Recommender
	features []string
	logger   *utils.Logger

	current atomic.Pointer[Snapshot]

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewCatalog returns an empty Catalog; call Reload before serving.
func NewCatalog(source ListingSource, engine *Recommender, features []string, seed int64, logger *utils.Logger) *Catalog {
	c := &Catalog{
		source:   source,
		engine:   engine,
		features: append([]string(nil), features...),
		logger:   logger,
		rng:      rand.New(rand.NewSource(seed)),
	}
	c.current.Store(newSnapshot(nil))
	return c
}

// Reload reads the whole source and publishes it as the new snapshot.
// An empty source is an error and leaves the current snapshot in place.
func (c *Catalog) Reload(ctx context.Context) error {
	start := time.Now()
	listings, err := c.source.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("catalog: reload: %w", err)
	}
	if len(listings) == 0 {
		return fmt.Errorf("catalog: reload: %w", ErrEmptyDataset)
	}

	snap := newSnapshot(listings)
	c.current.Store(snap)
	metrics.DatasetListings.Set(float64(len(listings)))

	c.logger.Info("[catalog] Loaded %d listings across %d cities in %v",
		len(listings), len(snap.cities), time.Since(start))
	return nil
}

// Snapshot returns the dataset currently being served.
func (c *Catalog) Snapshot() *Snapshot {
	return c.current.Load()
}

// Get returns the first listing with id.
func (c *Catalog) Get(id int64) (*models.Listing, error) {
	l, ok := c.Snapshot().byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return l, nil
}

// Cities lists cities in the order they first appear in the dataset.
func (c *Catalog) Cities() []string {
	return append([]string(nil), c.Snapshot().cities...)
}

// ByCity returns every listing in city, in dataset order.
func (c *Catalog) ByCity(city string) []*models.Listing {
	return append([]*models.Listing(nil), c.Snapshot().byCity[city]...)
}

// SampleByCity picks up to n random listings from every city. Cities with
// fewer than n listings contribute all of them; a negative n samples nothing.
func (c *Catalog) SampleByCity(n int) []CitySample {
	snap := c.Snapshot()
	out := make([]CitySample, 0, len(snap.cities))

	c.rngMu.Lock()
	defer c.rngMu.Unlock()

	for _, city := range snap.cities {
		pool := snap.byCity[city]
		take := min(max(n, 0), len(pool))
		picked := make([]*models.Listing, 0, take)
		for _, idx := range c.rng.Perm(len(pool))[:take] {
			picked = append(picked, pool[idx])
		}
		out = append(out, CitySample{City: city, Listings: picked})
	}
	return out
}

// Recommend ranks the current snapshot against property id using the
// configured feature columns.
func (c *Catalog) Recommend(id int64, k int) ([]models.Recommendation, error) {
	start := time.Now()
	recs, err := c.engine.Recommend(c.Snapshot().Listings, id, c.features, k)
	metrics.ObserveRecommendation(outcome(err), time.Since(start))
	return recs, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	case IsMalformed(err):
		return metrics.OutcomeMalformed
	default:
		return metrics.OutcomeError
	}
}

// IsMalformed reports whether err stems from unusable recommendation input.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrEmptyDataset) ||
		errors.Is(err, ErrNoFeatureColumns) ||
		errors.Is(err, ErrInvalidCount) ||
		errors.Is(err, ErrUnknownColumn)
}
