// Package dbtest opens throwaway sqlite databases with the storefront schema.
package dbtest

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/angelmondragon/staffstore-backend/pkg/db"
	"github.com/angelmondragon/staffstore-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewClient returns a migrated in-memory database private to t. The pool is
// capped at one connection so concurrent callers queue instead of hitting
// sqlite lock errors.
func NewClient(t testing.TB) *db.Client {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	return open(t, dsn, 1)
}

// NewFileClient returns a migrated database file under t.TempDir() served by
// several connections, so statements from concurrent callers interleave.
// Writers wait on the busy timeout instead of failing.
func NewFileClient(t testing.TB, maxConns int) *db.Client {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.db")
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_journal_mode=WAL&_txlock=immediate", path)
	return open(t, dsn, maxConns)
}

func open(t testing.TB, dsn string, maxConns int) *db.Client {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(maxConns)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, conn.AutoMigrate(models.All()...))
	return db.NewFromGorm(conn)
}
