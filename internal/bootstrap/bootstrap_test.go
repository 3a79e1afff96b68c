package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/jobfeed-api/internal/access"
	"github.com/maauso/jobfeed-api/internal/config"
	"github.com/maauso/jobfeed-api/internal/source"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		JWTSecret:        "secret",
		TokenTTLHours:    1,
		FetchConcurrency: 2,
		SourceTimeoutSec: 1,
		CycleTimeoutSec:  2,
		MaxFeedBytes:     1 << 20,
		DataDir:          t.TempDir(),
		CacheTTLSec:      60,
		WarmupSchedule:   "@every 1m",
	}
}

func TestNewDependencies_LocalSnapshots(t *testing.T) {
	cfg := testConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	admin := access.WithClaims(context.Background(), &access.Claims{Role: access.RoleAdmin})

	deps, err := NewDependencies(context.Background(), cfg, logger)
	require.NoError(t, err)
	require.NotNil(t, deps.Sources)
	require.NotNil(t, deps.Search)
	require.NotNil(t, deps.Tokens)
	// No cache configured, so no warm-up.
	assert.Nil(t, deps.Scheduler)

	id, err := deps.Sources.Add(admin, source.Draft{Name: "Portal", URL: "https://portal.example.com/rss", FetchType: source.FetchTypeRSS})
	require.NoError(t, err)
	deps.Close()

	// A second start restores the registry from the snapshot.
	deps, err = NewDependencies(context.Background(), cfg, logger)
	require.NoError(t, err)
	defer deps.Close()

	sources, err := deps.Sources.List(admin)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, id, sources[0].ID)
	assert.Equal(t, "Portal", sources[0].Name)
}

func TestNewDependencies_TokensUseSecret(t *testing.T) {
	cfg := testConfig(t)

	deps, err := NewDependencies(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer deps.Close()

	tok, _, err := access.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL()).Issue("op", access.RoleUser)
	require.NoError(t, err)

	claims, err := deps.Tokens.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, access.RoleUser, claims.Role)
}

func TestNewDependencies_BadRedisURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.RedisURL = "not-a-redis-url"

	_, err := NewDependencies(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
