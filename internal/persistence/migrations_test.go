package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/vaccine-scheduler/internal/config"
)

func TestMigrationFilesSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_more.sql", "001_init.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- noop"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o755))

	files, err := migrationFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_more.sql"}, files)
}

func TestMigrationFilesMissingDir(t *testing.T) {
	_, err := migrationFiles(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestRunMigrationsWithoutPoolIsNoop(t *testing.T) {
	err := RunMigrations(context.Background(), nil, "does-not-matter", zap.NewNop())
	assert.NoError(t, err)
}

func TestRepoMigrationsPresent(t *testing.T) {
	files, err := migrationFiles(filepath.Join("..", "..", "migrations"))
	require.NoError(t, err)
	assert.Contains(t, files, "001_init.sql")
}

func TestNilRedisIsSafe(t *testing.T) {
	var r *Redis
	assert.False(t, r.Configured())
	assert.Error(t, r.Ping(context.Background()))
	assert.Nil(t, r.Client())
	assert.NotPanics(t, r.Close)

	assert.Nil(t, NewRedis(config.RedisConfig{}, zap.NewNop()))
}

func TestNewPostgresRequiresDSN(t *testing.T) {
	_, err := NewPostgres(context.Background(), config.PostgresConfig{MaxConns: 2}, zap.NewNop())
	assert.ErrorIs(t, err, ErrMissingDSN)
}
