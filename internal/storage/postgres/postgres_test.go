package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/pf2e-sheet/internal/storage/postgres"
	"github.com/cory-johannsen/pf2e-sheet/internal/testutil"
)

func TestPool_Health(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	pc := testutil.NewPostgresContainer(t)
	ctx := context.Background()

	err := pc.Pool.Health(ctx, 5*time.Second)
	assert.ErrorIs(t, err, postgres.ErrSchemaMissing)

	pc.ApplyMigrations(t)
	assert.NoError(t, pc.Pool.Health(ctx, 5*time.Second))
}

func TestMigrations_UpAndDown(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	pc := testutil.NewPostgresContainer(t)
	m, err := migrate.New("file://"+testutil.MigrationsDir(), pc.DSN())
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.Up())
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	var exists bool
	require.NoError(t, pc.RawPool.QueryRow(context.Background(),
		`SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = 'resources')`).Scan(&exists))
	assert.True(t, exists)

	require.NoError(t, m.Down())
	_, _, err = m.Version()
	assert.True(t, errors.Is(err, migrate.ErrNilVersion))
}
