// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"yamdb/database"
	"yamdb/internal/microservices/http-api/models"
)

// OpenDB returns a migrated in-memory SQLite database that lives for the
// duration of the test.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateUser inserts a user with the given role.
func CreateUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateTitle inserts a title with no category or genres.
func CreateTitle(t *testing.T, db *gorm.DB, name string, year int) *models.Title {
	t.Helper()
	title := &models.Title{Name: name, Year: year}
	require.NoError(t, db.Create(title).Error)
	return title
}

// CreateReview inserts a review directly, bypassing service checks.
func CreateReview(t *testing.T, db *gorm.DB, author *models.User, title *models.Title, score int) *models.Review {
	t.Helper()
	r := &models.Review{AuthorID: author.ID, TitleID: title.ID, Text: "review by " + author.Username, Score: score}
	require.NoError(t, db.Omit("Author", "Title").Create(r).Error)
	return r
}
