package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/truongnet3103/albion-GE/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	require.NoError(t, model.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// fixedClock returns a now func that always reports t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type staticTarget int

func (s staticTarget) MonthlyTarget(_ context.Context) (int, error) { return int(s), nil }

// failRoleHistoryFor makes every role history insert for member fail.
func failRoleHistoryFor(t *testing.T, db *gorm.DB, member string) {
	t.Helper()
	err := db.Callback().Create().Before("gorm:create").Register("test:fail_role_history", func(tx *gorm.DB) {
		if h, ok := tx.Statement.Dest.(*model.RoleHistory); ok && h.MemberName == member {
			tx.AddError(errors.New("boom"))
		}
	})
	require.NoError(t, err)
}
