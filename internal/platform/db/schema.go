package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const txKey contextKey = "db_tx"

var schemaPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ErrNoPool is returned by WithTx when it is handed a nil pool.
var ErrNoPool = errors.New("no database pool")

// ValidSchema reports whether name can be interpolated into DDL as a schema
// identifier.
func ValidSchema(name string) bool {
	return schemaPattern.MatchString(name)
}

// EnsureSchema creates schema if it does not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, schema string) error {
	if !ValidSchema(schema) {
		return fmt.Errorf("invalid schema identifier: %s", schema)
	}
	if pool == nil {
		return ErrNoPool
	}
	if _, err := pool.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)); err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}
	return nil
}

// WithTx begins a transaction and returns a context carrying it. Repositories
// pick the transaction up through TxFromContext. The caller owns commit and
// rollback.
func WithTx(ctx context.Context, pool *pgxpool.Pool) (context.Context, pgx.Tx, error) {
	if pool == nil {
		return ctx, nil, ErrNoPool
	}
	tx, err := pool.Begin(ctx)
	if err != nil {
		return ctx, nil, fmt.Errorf("begin transaction: %w", err)
	}
	return context.WithValue(ctx, txKey, tx), tx, nil
}

// TxFromContext retrieves the transaction stored by WithTx, or nil.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey).(pgx.Tx)
	return tx
}
