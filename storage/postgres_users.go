package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"property-recommender/auth"
	"property-recommender/models"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// PostgresUserStore keeps accounts in the users table. It implements auth.UserRepository.
type PostgresUserStore struct {
	db *sql.DB
}

// NewPostgresUserStore migrates the users table and returns the store.
func NewPostgresUserStore(ctx context.Context, db *sql.DB) (*PostgresUserStore, error) {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id            BIGSERIAL   PRIMARY KEY,
			username      TEXT        UNIQUE NOT NULL,
			password_hash BYTEA       NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: migrate users: %w", err)
	}
	return &PostgresUserStore{db: db}, nil
}

// Create inserts a user and returns it with its assigned id.
func (s *PostgresUserStore) Create(ctx context.Context, username string, passwordHash []byte) (*models.User, error) {
	u := &models.User{Username: username, PasswordHash: passwordHash}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id, created_at`,
		username, passwordHash,
	).Scan(&u.ID, &u.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return nil, auth.ErrUserExists
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: create user: %w", err)
	}
	return u, nil
}

// GetByUsername loads a user by name.
func (s *PostgresUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u := &models.User{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get user: %w", err)
	}
	return u, nil
}
