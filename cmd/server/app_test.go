package main

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"fmac-task/internal/config"
	"fmac-task/internal/models"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.DB.DSN = ":memory:"
	cfg.DB.LogLevel = "silent"
	return cfg
}

func TestNewApp_Gorm(t *testing.T) {
	ctx := context.Background()
	a, err := newApp(ctx, testConfig(t))
	require.NoError(t, err)

	_, err = a.backend.Users.Upsert(ctx, models.Profile{ID: "u1", Name: "Ann", Role: "boss"})
	require.NoError(t, err)
	report, err := runBootstrap(ctx, a.backend)
	require.NoError(t, err)
	require.Zero(t, report.RolesNormalized)

	require.NoError(t, a.Close())
}

func TestNewApp_RedisStoreAndNotifier(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Store.Backend = config.BackendRedis
	cfg.Redis.URL = "redis://" + mr.Addr()
	cfg.Notify.Redis = true

	ctx := context.Background()
	a, err := newApp(ctx, cfg)
	require.NoError(t, err)
	_, err = a.backend.Projects.Add(ctx, models.Project{Name: "Apollo"})
	require.NoError(t, err)
	require.NoError(t, a.Close())
}

func TestNewApp_RejectsIncompleteMinio(t *testing.T) {
	cfg := testConfig(t)
	cfg.Minio.Endpoint = "localhost:9000"
	cfg.Minio.Bucket = ""
	_, err := newApp(context.Background(), cfg)
	require.Error(t, err)
}
