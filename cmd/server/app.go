package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"fmac-task/internal/blob"
	"fmac-task/internal/config"
	"fmac-task/internal/database"
	"fmac-task/internal/docstore"
	"fmac-task/internal/notify"
	"fmac-task/internal/realtime"
	"fmac-task/internal/workspace"
)

// app is everything a command needs, built from one Config.
type app struct {
	cfg     config.Config
	store   docstore.Store
	backend *workspace.Backend
	hub     *realtime.Hub
	closers []func() error
}

func openStore(ctx context.Context, cfg config.Config) (docstore.Store, func() error, error) {
	opts := docstore.Options{Timeout: cfg.Store.Timeout, BatchSize: cfg.Store.BatchSize}
	switch cfg.Store.Backend {
	case config.BackendRedis:
		s, err := docstore.NewRedisStoreFromURL(ctx, cfg.Redis.URL, opts)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		db, err := database.Open(cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		return docstore.NewGormStore(db, opts), sqlDB.Close, nil
	}
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{cfg: cfg, hub: realtime.NewHub()}
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, closeStore)

	var blobs blob.Remover = blob.Noop{}
	if cfg.Minio.Endpoint != "" {
		ms, err := blob.NewMinioStore(blob.Config{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			Region:    cfg.Minio.Region,
			UseSSL:    cfg.Minio.UseSSL,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		blobs = ms
	}

	// the hub notifier resolves recipients through the backend built below
	notifiers := notify.Multi{notify.NewHubNotifier(a.hub, func(ctx context.Context, taskID string) ([]string, error) {
		return a.backend.Tasks.Participants(ctx, taskID)
	})}
	if cfg.Notify.Redis {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("notify: parse redis url: %w", err)
		}
		client := redis.NewClient(opt)
		a.closers = append(a.closers, client.Close)
		notifiers = append(notifiers, notify.NewRedisNotifier(client, cfg.Notify.Channel))
	}

	a.backend = workspace.NewBackend(store, workspace.BackendOptions{
		Notifier:      notifiers,
		Blobs:         blobs,
		ProfileTTL:    cfg.Sessions.ProfileTTL,
		EffectTimeout: cfg.Notify.EffectTimeout,
	})
	return a, nil
}

// Close drains queued effects, then closes connections in reverse order.
func (a *app) Close() error {
	if a.backend != nil {
		a.backend.Close()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	err := errors.Join(errs...)
	if err != nil {
		log.Printf("close: %v", err)
	}
	return err
}
