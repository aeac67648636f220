package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"property-recommender/models"
	"property-recommender/utils"
)

// propertyColumns is the number of dataset columns stored per listing.
const propertyColumns = 14

const (
	stagingTable       = "properties_staging"
	propertyColumnList = `property_id, posted_on, bhk, rent, size, floor, area_type,
			area_locality, city, furnishing_status, tenant_preferred, bathroom,
			point_of_contact, image_link, row_order`
)

// PostgresStore persists listings to PostgreSQL and serves them back as the
// recommendation dataset.
type PostgresStore struct {
	db          *sql.DB
	concurrency int
	logger      *utils.Logger
}

// OpenPostgres opens a connection to PostgreSQL and waits for it to answer,
// retrying with back-off.
func OpenPostgres(ctx context.Context, dsn string, retry *utils.RetryConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	err = retry.Do(ctx, "postgres-ping", func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return db, nil
}

// NewPostgresStore runs schema migrations and returns a ready-to-use PostgresStore.
// concurrency bounds the number of staging batches in flight during Write.
func NewPostgresStore(ctx context.Context, db *sql.DB, concurrency int, logger *utils.Logger) (*PostgresStore, error) {
	ps := &PostgresStore{db: db, concurrency: concurrency, logger: logger}
	if err := ps.migrate(ctx); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS properties (
			property_id       BIGINT       PRIMARY KEY,
			posted_on         DATE,
			bhk               INTEGER      NOT NULL DEFAULT 0,
			rent              INTEGER      NOT NULL DEFAULT 0,
			size              INTEGER      NOT NULL DEFAULT 0,
			floor             TEXT         NOT NULL DEFAULT '',
			area_type         TEXT         NOT NULL DEFAULT '',
			area_locality     TEXT         NOT NULL DEFAULT '',
			city              TEXT         NOT NULL DEFAULT '',
			furnishing_status TEXT         NOT NULL DEFAULT '',
			tenant_preferred  TEXT         NOT NULL DEFAULT '',
			bathroom          INTEGER      NOT NULL DEFAULT 0,
			point_of_contact  TEXT         NOT NULL DEFAULT '',
			image_link        TEXT         NOT NULL DEFAULT '',
			row_order         BIGSERIAL
		);

		CREATE INDEX IF NOT EXISTS idx_properties_city ON properties(city);
		CREATE INDEX IF NOT EXISTS idx_properties_rent ON properties(rent);

		CREATE UNLOGGED TABLE IF NOT EXISTS properties_staging (LIKE properties);
	`)
	return err
}

// Write replaces the table contents with listings. Batches are loaded in
// parallel into properties_staging; the table swap then runs in a single
// transaction, so a failed import leaves the previous dataset in place.
// row_order keeps the dataset order for FetchAll.
func (ps *PostgresStore) Write(ctx context.Context, listings []*models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	if _, err := ps.db.ExecContext(ctx, "TRUNCATE "+stagingTable); err != nil {
		return fmt.Errorf("postgres: reset staging: %w", err)
	}

	const batchSize = 50
	pool := utils.NewWorkerPool(ps.concurrency, 0)
	for i := 0; i < len(listings); i += batchSize {
		end := min(i+batchSize, len(listings))
		batch := listings[i:end]
		offset := i
		pool.Submit(func() error {
			if err := ps.stageBatch(ctx, batch, offset); err != nil {
				return fmt.Errorf("postgres: stage rows %d-%d: %w", offset, offset+len(batch)-1, err)
			}
			return nil
		})
	}
	if err := pool.Wait(); err != nil {
		return err
	}

	if err := ps.swap(ctx); err != nil {
		return err
	}
	ps.logger.Info("[postgres] Stored %d listings", len(listings))
	return nil
}

// swap moves the staged rows into properties, replacing what was there.
func (ps *PostgresStore) swap(ctx context.Context) (err error) {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM properties"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO properties (`+propertyColumnList+`)
		SELECT `+propertyColumnList+`
		FROM `+stagingTable+`
		ORDER BY row_order
		ON CONFLICT (property_id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("postgres: copy staged rows: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func (ps *PostgresStore) stageBatch(ctx context.Context, batch []*models.Listing, offset int) error {
	const width = propertyColumns + 1
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*width)

	for idx, l := range batch {
		base := idx * width
		placeholders := make([]string, width)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		var posted interface{}
		if !l.PostedOn.IsZero() {
			posted = l.PostedOn
		}
		valueArgs = append(valueArgs,
			l.PropertyID, posted, l.BHK, l.Rent, l.Size, l.Floor, l.AreaType,
			l.AreaLocality, l.City, l.FurnishingStatus, l.TenantPreferred, l.Bathroom,
			l.PointOfContact, l.ImageLink, int64(offset+idx))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		stagingTable, propertyColumnList, strings.Join(valueStrings, ","))

	_, err := ps.db.ExecContext(ctx, query, valueArgs...)
	return err
}

// FetchAll retrieves all stored listings in their original dataset order.
func (ps *PostgresStore) FetchAll(ctx context.Context) ([]*models.Listing, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT property_id, posted_on, bhk, rent, size, floor, area_type, area_locality,
			city, furnishing_status, tenant_preferred, bathroom, point_of_contact, image_link
		FROM properties
		ORDER BY row_order
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		l := &models.Listing{}
		var posted sql.NullTime
		if err := rows.Scan(
			&l.PropertyID, &posted, &l.BHK, &l.Rent, &l.Size, &l.Floor, &l.AreaType,
			&l.AreaLocality, &l.City, &l.FurnishingStatus, &l.TenantPreferred, &l.Bathroom,
			&l.PointOfContact, &l.ImageLink,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		if posted.Valid {
			l.PostedOn = posted.Time.UTC()
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}
