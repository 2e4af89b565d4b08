// Package testutil builds throwaway stores for package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"inkwell/internal/model"
	"inkwell/internal/util"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with every model migrated.
// A single connection keeps concurrent test goroutines on the same database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.Models(model.DefaultRegistry())...))
	return db
}

// NewRedis starts a miniredis server and a client connected to it.
func NewRedis(t testing.TB) (*miniredis.Miniredis, *util.RedisClient) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := util.NewRedisClientWithAddr(mr.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// SeedNews inserts a news item with the given publish state.
func SeedNews(t testing.TB, db *gorm.DB, title string, published bool) *model.News {
	t.Helper()

	news := &model.News{}
	news.Title = title
	news.Content = "body of " + title
	news.IsPublished = published
	require.NoError(t, db.WithContext(context.Background()).Create(news).Error)
	return news
}
