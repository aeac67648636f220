package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"property-recommender/models"
	"property-recommender/utils"
)

var (
	// ErrNotFound means the target property is not in the dataset.
	ErrNotFound = errors.New("property not found")
	// ErrEmptyDataset means there is nothing to compare against.
	ErrEmptyDataset = errors.New("dataset is empty")
	// ErrNoFeatureColumns means no comparison attributes were requested.
	ErrNoFeatureColumns = errors.New("no feature columns")
	// ErrInvalidCount means a negative result count was requested.
	ErrInvalidCount = errors.New("result count must not be negative")
	// ErrUnknownColumn means a requested column is not part of the schema.
	ErrUnknownColumn = models.ErrUnknownColumn
)

// Recommender ranks listings by content similarity to a target listing.
//
// Every call fits a fresh TF-IDF space over the dataset it is given; nothing is
// cached between calls, so a Recommender is safe for concurrent use as long as
// callers do not mutate the listings while a call is running.
type Recommender struct {
	schema  *models.Schema
	display []string
	logger  *utils.Logger
}

// NewRecommender returns a Recommender that renders values with schema and
// attaches the display columns to every result.
func NewRecommender(schema *models.Schema, display []string, logger *utils.Logger) (*Recommender, error) {
	if err := schema.Has(display...); err != nil {
		return nil, fmt.Errorf("recommender: display columns: %w", err)
	}
	return &Recommender{
		schema:  schema,
		display: append([]string(nil), display...),
		logger:  logger,
	}, nil
}

// Recommend returns up to k listings most similar to the listing whose
// Property ID is targetID, most similar first. No listing carrying targetID is
// ever part of the result. Listings with equal similarity keep their dataset order.
//
// Duplicate identifiers are not detected: the first listing with targetID is
// the target.
//
// ErrNotFound is returned when targetID is absent; an empty slice with a nil
// error is a valid answer (k == 0 or a single-listing dataset).
func (r *Recommender) Recommend(listings []*models.Listing, targetID int64, featureColumns []string, k int) ([]models.Recommendation, error) {
	switch {
	case len(listings) == 0:
		return nil, ErrEmptyDataset
	case len(featureColumns) == 0:
		return nil, ErrNoFeatureColumns
	case k < 0:
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, k)
	}
	if err := r.schema.Has(featureColumns...); err != nil {
		return nil, err
	}

	target := -1
	for i, l := range listings {
		if l.PropertyID == targetID {
			target = i
			break
		}
	}
	if target == -1 {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, targetID)
	}

	start := time.Now()

	docs := make([]string, len(listings))
	for i, l := range listings {
		doc, err := r.featureDocument(l, featureColumns)
		if err != nil {
			return nil, fmt.Errorf("recommender: property %d: %w", l.PropertyID, err)
		}
		docs[i] = doc
	}

	space := FitTransform(docs)
	targetVec := space.Vectors[target]

	type candidate struct {
		row   int
		score float64
	}
	candidates := make([]candidate, 0, len(listings)-1)
	for i, l := range listings {
		if l.PropertyID == targetID {
			continue
		}
		candidates = append(candidates, candidate{row: i, score: Cosine(targetVec, space.Vectors[i])})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	results := make([]models.Recommendation, 0, len(candidates))
	for _, c := range candidates {
		l := listings[c.row]
		attrs, err := r.project(l)
		if err != nil {
			return nil, fmt.Errorf("recommender: property %d: %w", l.PropertyID, err)
		}
		results = append(results, models.Recommendation{
			PropertyID: l.PropertyID,
			Similarity: c.score,
			Attributes: attrs,
		})
	}

	if r.logger != nil {
		r.logger.Debug("[recommender] target=%d listings=%d vocab=%d returned=%d in %v",
			targetID, len(listings), len(space.Vocabulary), len(results), time.Since(start))
	}
	return results, nil
}

// featureDocument renders the feature columns of l and joins them with single spaces.
func (r *Recommender) featureDocument(l *models.Listing, columns []string) (string, error) {
	parts := make([]string, len(columns))
	for i, c := range columns {
		v, err := r.schema.Render(l, c)
		if err != nil {
			return "", err
		}
		parts[i] = v
	}
	return strings.Join(parts, " "), nil
}

func (r *Recommender) project(l *models.Listing) ([]models.Attribute, error) {
	attrs := make([]models.Attribute, len(r.display))
	for i, c := range r.display {
		v, err := r.schema.Render(l, c)
		if err != nil {
			return nil, err
		}
		attrs[i] = models.Attribute{Name: c, Value: v}
	}
	return attrs, nil
}
