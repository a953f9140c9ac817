package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/platinummonkey/codehub/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgres starts a PostgreSQL container and returns a store on a
// freshly migrated database
func setupPostgres(t *testing.T) *UserStore {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}

	ctx := context.Background()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		t.Skip("Docker/Podman not available, skipping integration tests")
	}
	provider.Close()

	container, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("codehub_test"),
		tcpostgres.WithUsername("codehub"),
		tcpostgres.WithPassword("codehub"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("Failed to start PostgreSQL container: %v", err)
	}

	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Logf("Warning: failed to terminate PostgreSQL container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := NewUserStore(ctx, ConnectionConfig{URL: connStr, MaxConns: 5, Timeout: 10 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestUserStore_Integration(t *testing.T) {
	store := setupPostgres(t)
	ctx := context.Background()

	t.Run("find or create links one user per provider id", func(t *testing.T) {
		first, created, err := store.FindOrCreate(ctx, auth.ProviderGitHub, "583231", "octocat")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "583231", first.GitHubID)

		second, created, err := store.FindOrCreate(ctx, auth.ProviderGitHub, "583231", "renamed")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "octocat", second.Username)

		other, created, err := store.FindOrCreate(ctx, auth.ProviderFacebook, "583231", "ada")
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotEqual(t, first.ID, other.ID)
	})

	t.Run("get by username returns the oldest match", func(t *testing.T) {
		older := &auth.User{Username: "dup", PasswordHash: "h1"}
		require.NoError(t, store.Create(ctx, older))
		time.Sleep(10 * time.Millisecond)
		newer := &auth.User{Username: "dup", PasswordHash: "h2"}
		require.NoError(t, store.Create(ctx, newer))

		found, err := store.GetByUsername(ctx, "dup")
		require.NoError(t, err)
		assert.Equal(t, older.ID, found.ID)
	})

	t.Run("update keeps created_at", func(t *testing.T) {
		user := &auth.User{Username: "alice", Email: "a@example.com", PasswordHash: "h1"}
		require.NoError(t, store.Create(ctx, user))

		before, err := store.GetByID(ctx, user.ID)
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)
		user.Username = "alicia"
		require.NoError(t, store.Update(ctx, user))

		after, err := store.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "alicia", after.Username)
		assert.True(t, before.CreatedAt.Equal(after.CreatedAt))
		assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
	})
}
