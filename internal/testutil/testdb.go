package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fmac-task/internal/docstore"
)

// NewInMemoryDB creates an in-memory SQLite DB restricted to one connection,
// since every new connection to ":memory:" would open an empty database.
func NewInMemoryDB() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// NewInMemoryStore returns a migrated GormStore backed by NewInMemoryDB.
func NewInMemoryStore(t testing.TB, opts docstore.Options) *docstore.GormStore {
	t.Helper()
	db, err := NewInMemoryDB()
	require.NoError(t, err)
	store := docstore.NewGormStore(db, opts)
	require.NoError(t, store.Migrate())
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return store
}
