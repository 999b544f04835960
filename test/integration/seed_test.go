//go:build integration

package integration

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehr/chartseed/internal/platform/db"
	"github.com/ehr/chartseed/internal/platform/sandbox"
	"github.com/ehr/chartseed/migrations"
)

func TestSeed_NoPairingsWritesNothing(t *testing.T) {
	pool := freshSchema(t)
	ctx := context.Background()
	repos := sandbox.NewPGRepositories(pool)

	var out bytes.Buffer
	result, err := sandbox.NewSeeder(repos, sandbox.SeedConfig{Seed: 1}, &out, zerolog.Nop()).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, sandbox.NoPairingsMessage, result.Warning)
	assert.Contains(t, out.String(), sandbox.NoPairingsMessage)

	for _, table := range []string{"consultations", "exams", "prescriptions", "consents"} {
		assert.Zero(t, countRows(t, pool, table), table)
	}
}

func TestSeed_BootstrapThenSeed(t *testing.T) {
	pool := freshSchema(t)
	ctx := context.Background()
	repos := sandbox.NewPGRepositories(pool)

	txCtx, tx, err := db.WithTx(ctx, pool)
	require.NoError(t, err)
	boot, err := sandbox.Bootstrap(txCtx, repos, sandbox.BootstrapConfig{Patients: 3, Physicians: 2, SpecialtiesPerPhysician: 2, Seed: 5})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	assert.Equal(t, 4, boot.Pairings)

	result, err := sandbox.NewSeeder(repos, sandbox.SeedConfig{Seed: 5}, nil, zerolog.Nop()).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Patients)

	assert.Equal(t, result.Consultations, countRows(t, pool, "consultations"))
	assert.Equal(t, result.Exams, countRows(t, pool, "exams"))
	assert.Equal(t, result.Prescriptions, countRows(t, pool, "prescriptions"))
	assert.Equal(t, result.Consents, countRows(t, pool, "consents"))

	patients, err := repos.Patients.ListAll(ctx)
	require.NoError(t, err)
	for _, p := range patients {
		n, err := repos.Consultations.CountByPatient(ctx, p.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 3)
		assert.LessOrEqual(t, n, 6)

		n, err = repos.Consents.CountByPatient(ctx, p.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 2)
		assert.LessOrEqual(t, n, 4)
	}

	var mismatched int
	err = pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM consultations WHERE created_at <> date OR updated_at <> date`).Scan(&mismatched)
	require.NoError(t, err)
	assert.Zero(t, mismatched)
}

func TestSeed_SkipSeeded(t *testing.T) {
	pool := freshSchema(t)
	ctx := context.Background()
	repos := sandbox.NewPGRepositories(pool)

	_, err := sandbox.Bootstrap(ctx, repos, sandbox.BootstrapConfig{Patients: 2, Physicians: 1, SpecialtiesPerPhysician: 1, Seed: 2})
	require.NoError(t, err)

	first, err := sandbox.NewSeeder(repos, sandbox.SeedConfig{Seed: 2}, nil, zerolog.Nop()).Run(ctx)
	require.NoError(t, err)

	second, err := sandbox.NewSeeder(repos, sandbox.SeedConfig{Seed: 3, SkipSeeded: true}, nil, zerolog.Nop()).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, second.SkippedPatients)
	assert.Zero(t, second.TotalRecords)
	assert.Equal(t, first.Consultations, countRows(t, pool, "consultations"))
}

func TestMigrate_StatusAfterUp(t *testing.T) {
	pool := freshSchema(t)
	ctx := context.Background()

	var schema string
	require.NoError(t, pool.QueryRow(ctx, "SELECT current_schema()").Scan(&schema))

	statuses, err := db.NewMigrator(pool, migrations.FS).Status(ctx, schema)
	require.NoError(t, err)
	require.NotEmpty(t, statuses)
	for _, s := range statuses {
		assert.True(t, s.Applied, s.Name)
	}
}
