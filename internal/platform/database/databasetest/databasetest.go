// Package databasetest opens throwaway sqlite databases for tests.
package databasetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"chatrelay/internal/platform/database"
)

func New(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.New(context.Background(), "sqlite", filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
