package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avatar-chat/internal/database"
	"avatar-chat/internal/model"
	"avatar-chat/internal/platform/sqlite"
)

func TestMigrateCleanDatabase(t *testing.T) {
	db, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)

	require.NoError(t, database.Migrate(db))
	// running again is a no-op
	require.NoError(t, database.Migrate(db))

	assert.True(t, db.Migrator().HasTable(&model.User{}))
	assert.True(t, db.Migrator().HasTable(&model.SearchHistory{}))
	assert.True(t, db.Migrator().HasIndex(&model.SearchHistory{}, "idx_search_history_user_created"))
}

func TestHistoryRequiresExistingUser(t *testing.T) {
	db, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	err = db.Create(&model.SearchHistory{UserID: 42, Query: "q", Response: "r"}).Error
	assert.Error(t, err)
}
