package repository

import (
	"path/filepath"
	"testing"

	"sitehub/internal/config"
	"sitehub/internal/database"
	"sitehub/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupTestDB opens a fresh SQLite database with the full schema and
// foreign keys enforced.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{
		Env:          "test",
		DBDriver:     database.DriverSQLite,
		DBSQLitePath: filepath.Join(t.TempDir(), "repo.db"),
	}
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", Password: "x", IsActive: true}
	require.NoError(t, db.Create(u).Error)
	return u
}
