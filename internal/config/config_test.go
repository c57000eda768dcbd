package config

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "TODO_STORE", "TODO_SEED", "LOG_CONFIG",
		"BLUEPRINT_DB_HOST", "BLUEPRINT_DB_PORT", "BLUEPRINT_DB_USERNAME",
		"BLUEPRINT_DB_PASSWORD", "BLUEPRINT_DB_DATABASE", "BLUEPRINT_DB_SCHEMA",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.True(t, cfg.Seed)
	assert.Equal(t, DefaultLogConfig, cfg.LogConfig)
	assert.Equal(t, "5432", cfg.Database.Port)
}

func TestLoadInvalidPortFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "not-a-port")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Port)

	t.Setenv("PORT", "9090")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
}

func TestLoadSeed(t *testing.T) {
	clearEnv(t)
	t.Setenv("TODO_SEED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Seed)

	t.Setenv("TODO_SEED", "maybe")
	_, err = Load()
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestLoadStore(t *testing.T) {
	clearEnv(t)
	t.Setenv("TODO_STORE", "redis")
	_, err := Load()
	assert.True(t, errors.Is(err, errors.NotValid))

	t.Setenv("TODO_STORE", "Postgres")
	_, err = Load()
	assert.True(t, errors.Is(err, errors.NotValid), "postgres without settings must fail")

	t.Setenv("BLUEPRINT_DB_HOST", "db")
	t.Setenv("BLUEPRINT_DB_DATABASE", "todos")
	t.Setenv("BLUEPRINT_DB_USERNAME", "app")
	t.Setenv("BLUEPRINT_DB_PASSWORD", "secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, "host=db user=app password=secret dbname=todos port=5432 sslmode=disable", cfg.Database.DSN())
}
