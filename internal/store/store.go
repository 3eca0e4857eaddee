package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

var (
	ErrNotFound            = errors.New("not found")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrNegativeQuantity    = fmt.Errorf("%w: available_quantity must be non-negative", ErrConstraintViolation)
	ErrNonPositivePrice    = fmt.Errorf("%w: unit_price must be positive", ErrConstraintViolation)
	ErrDuplicate           = errors.New("duplicate key")
)

// Postgres SQLSTATE codes
const (
	codeCheckViolation  = "23514"
	codeUniqueViolation = "23505"

	constraintQuantityNonNegative = "items_available_quantity_non_negative"
	constraintPricePositive       = "items_unit_price_positive"
)

type Store struct {
	db *sqlx.DB
}

// NewStore connects to Postgres and sizes the connection pool.
func NewStore(databaseURL string, maxOpenConns, maxIdleConns int) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// New wraps an existing connection.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the items and orders tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// translateError maps Postgres integrity violations onto store errors.
func translateError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case codeCheckViolation:
		switch pqErr.Constraint {
		case constraintQuantityNonNegative:
			return ErrNegativeQuantity
		case constraintPricePositive:
			return ErrNonPositivePrice
		}
		return fmt.Errorf("%w: %s", ErrConstraintViolation, pqErr.Constraint)
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	}
	return err
}
