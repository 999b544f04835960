//go:build integration

// Package integration runs the seeder against a real PostgreSQL. Set
// TEST_DATABASE_URL to reuse a running server; otherwise a container is
// started with Docker.
package integration

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/chartseed/internal/platform/db"
	"github.com/ehr/chartseed/migrations"
)

var connStr string

func TestMain(m *testing.M) {
	ctx := context.Background()

	cleanup := func() {}
	connStr = os.Getenv("TEST_DATABASE_URL")
	if connStr == "" {
		var err error
		connStr, cleanup, err = startPostgresContainer(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start postgres: %v\n", err)
			os.Exit(1)
		}
	}

	code := m.Run()
	cleanup()
	os.Exit(code)
}

// freshSchema creates a uniquely named schema, migrates it and returns a pool
// whose search_path points at it. The schema is dropped when the test ends.
func freshSchema(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()
	schema := "it_" + strings.ReplaceAll(uuid.NewString()[:8], "-", "")

	pool, err := db.NewPool(ctx, connStr, schema, 4, 1)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := db.EnsureSchema(ctx, pool, schema); err != nil {
		pool.Close()
		t.Fatalf("create schema %s: %v", schema, err)
	}
	if _, err := db.NewMigrator(pool, migrations.FS).Up(ctx, schema); err != nil {
		pool.Close()
		t.Fatalf("migrate %s: %v", schema, err)
	}

	t.Cleanup(func() {
		if _, err := pool.Exec(context.Background(), fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schema)); err != nil {
			t.Logf("warning: failed to drop schema %s: %v", schema, err)
		}
		pool.Close()
	})
	return pool
}

func countRows(t *testing.T, pool *pgxpool.Pool, table string) int {
	t.Helper()
	var n int
	if err := pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
