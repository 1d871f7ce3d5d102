package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	config.MaxConns = 20
	config.MinConns = 2
	return pgxpool.NewWithConfig(ctx, config)
}

// ErrNotNullViolation is returned when a write attempts to persist NULL
// into a NOT NULL column, e.g. allow_channel_wide_mentions.
var ErrNotNullViolation = errors.New("not-null violation")

// pgNotNullCode is the Postgres error code for not_null_violation.
const pgNotNullCode = "23502"

func mapConstraintError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgNotNullCode {
		return ErrNotNullViolation
	}
	return err
}
