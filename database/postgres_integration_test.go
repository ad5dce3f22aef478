//go:build integration

package database

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"yamdb/internal/config"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
)

func dockerAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, "docker", "info").Run() == nil
}

// startPostgres runs a disposable PostgreSQL and returns a migrated handle.
func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	if !dockerAvailable() {
		t.Skip("Skipping test: Docker not available")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "yamdb",
				"POSTGRES_PASSWORD": "yamdb",
				"POSTGRES_DB":       "yamdb",
			},
			// postgres logs readiness twice: once for the init run, once for real
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	db, err := OpenGorm(&config.Config{
		DatabaseURL:    fmt.Sprintf("postgres://yamdb:yamdb@%s:%s/yamdb?sslmode=disable", host, port.Port()),
		DBMaxOpenConns: 5,
		DBMaxIdleConns: 1,
		LogLevel:       "info",
	})
	require.NoError(t, err)
	t.Cleanup(func() { Close(db) })

	require.NoError(t, Migrate(db))
	return db
}

func TestPostgresConstraints(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	users := repository.NewUserRepository(db)
	titles := repository.NewTitleRepository(db)
	reviews := repository.NewReviewRepository(db)

	alice := &models.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, users.Create(ctx, alice))
	title := &models.Title{Name: "Dune", Year: 1965}
	require.NoError(t, titles.Create(ctx, title))

	t.Run("DuplicateUsername", func(t *testing.T) {
		err := users.Create(ctx, &models.User{Username: "alice", Email: "other@example.com"})
		assert.True(t, IsUniqueViolation(err))
	})

	t.Run("OneReviewPerAuthorAndTitle", func(t *testing.T) {
		require.NoError(t, reviews.Create(ctx, &models.Review{AuthorID: alice.ID, TitleID: title.ID, Text: "great", Score: 9}))
		err := reviews.Create(ctx, &models.Review{AuthorID: alice.ID, TitleID: title.ID, Text: "again", Score: 3})
		assert.True(t, IsUniqueViolation(err))
	})

	t.Run("ScoreOutOfRange", func(t *testing.T) {
		bob := &models.User{Username: "bob", Email: "bob@example.com"}
		require.NoError(t, users.Create(ctx, bob))
		err := reviews.Create(ctx, &models.Review{AuthorID: bob.ID, TitleID: title.ID, Text: "off the scale", Score: 11})
		require.Error(t, err)
		assert.False(t, IsUniqueViolation(err))
	})

	t.Run("AverageScore", func(t *testing.T) {
		avg, err := reviews.AverageScore(ctx, title.ID)
		require.NoError(t, err)
		require.NotNil(t, avg)
		assert.InDelta(t, 9.0, *avg, 1e-9)
	})
}
