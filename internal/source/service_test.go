package source

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maauso/jobfeed-api/internal/access"
)

// mockRepository implements Repository for testing.
type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Add(ctx context.Context, d Draft) (int64, error) {
	args := m.Called(ctx, d)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepository) Update(ctx context.Context, id int64, d Draft) error {
	return m.Called(ctx, id, d).Error(0)
}

func (m *mockRepository) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	return m.Called(ctx, id, enabled).Error(0)
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepository) List(ctx context.Context) ([]JobSource, error) {
	args := m.Called(ctx)
	return args.Get(0).([]JobSource), args.Error(1)
}

func (m *mockRepository) ListEnabled(ctx context.Context) ([]JobSource, error) {
	args := m.Called(ctx)
	return args.Get(0).([]JobSource), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func adminCtx() context.Context {
	return access.WithClaims(context.Background(), &access.Claims{Role: access.RoleAdmin})
}

func userCtx() context.Context {
	return access.WithClaims(context.Background(), &access.Claims{Role: access.RoleUser})
}

func TestNewService_Defaults(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil, nil)
	require.NotNil(t, svc)
	assert.NotNil(t, svc.logger)
	assert.NotNil(t, svc.gate)
}

func TestService_AddAndList(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil, testLogger())
	ctx := adminCtx()

	id, err := svc.Add(ctx, Draft{Name: " Remote OK ", URL: "https://remoteok.com/rss", FetchType: FetchTypeRSS})
	require.NoError(t, err)

	sources, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, JobSource{
		ID:        id,
		URL:       "https://remoteok.com/rss",
		FetchType: FetchTypeRSS,
		Name:      "Remote OK",
		Enabled:   true,
	}, sources[0])
}

func TestService_NonAdminCannotMutate(t *testing.T) {
	repo := &mockRepository{}
	svc := NewService(repo, nil, testLogger())
	ctx := userCtx()
	d := Draft{Name: "Board", URL: "https://example.com", FetchType: FetchTypeRSS}

	_, err := svc.Add(ctx, d)
	assert.ErrorIs(t, err, access.ErrUnauthorized)
	assert.ErrorIs(t, svc.Update(ctx, 1, d), access.ErrUnauthorized)
	assert.ErrorIs(t, svc.Toggle(ctx, 1, false), access.ErrUnauthorized)
	assert.ErrorIs(t, svc.Delete(ctx, 1), access.ErrUnauthorized)

	// No repository call may happen for an unauthorized caller.
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "SetEnabled", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestService_GuestCannotMutate(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil, testLogger())

	_, err := svc.Add(context.Background(), Draft{Name: "Board", URL: "https://example.com", FetchType: FetchTypeRSS})
	assert.ErrorIs(t, err, access.ErrUnauthorized)
}

func TestService_UnauthorizedBeforeValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil, testLogger())

	_, err := svc.Add(userCtx(), Draft{})
	assert.ErrorIs(t, err, access.ErrUnauthorized)
}

func TestService_AddValidation(t *testing.T) {
	repo := &mockRepository{}
	svc := NewService(repo, nil, testLogger())

	_, err := svc.Add(adminCtx(), Draft{Name: "", URL: "https://example.com", FetchType: FetchTypeRSS})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Add(adminCtx(), Draft{Name: "Board", URL: "not a url", FetchType: FetchTypeRSS})
	assert.ErrorIs(t, err, ErrValidation)

	repo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestService_UpdateValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil, testLogger())
	ctx := adminCtx()
	id, _ := svc.Add(ctx, Draft{Name: "Board", URL: "https://example.com", FetchType: FetchTypeRSS})

	err := svc.Update(ctx, id, Draft{Name: "Board", URL: "", FetchType: FetchTypeRSS})
	assert.ErrorIs(t, err, ErrValidation)

	sources, _ := svc.List(ctx)
	assert.Equal(t, "https://example.com", sources[0].URL)
}

func TestService_DeletedSourceNotFound(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil, testLogger())
	ctx := adminCtx()
	d := Draft{Name: "Board", URL: "https://example.com", FetchType: FetchTypeRSS}
	id, _ := svc.Add(ctx, d)

	require.NoError(t, svc.Delete(ctx, id))
	assert.ErrorIs(t, svc.Update(ctx, id, d), ErrNotFound)
	assert.ErrorIs(t, svc.Toggle(ctx, id, true), ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, id), ErrNotFound)
}

func TestService_ToggleTwiceEqualsOnce(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil, testLogger())
	ctx := adminCtx()
	id, _ := svc.Add(ctx, Draft{Name: "Board", URL: "https://example.com", FetchType: FetchTypeRSS})
	require.NoError(t, svc.Toggle(ctx, id, false))

	require.NoError(t, svc.Toggle(ctx, id, true))
	once, _ := svc.List(ctx)
	require.NoError(t, svc.Toggle(ctx, id, true))
	twice, _ := svc.List(ctx)

	assert.Equal(t, once, twice)
}

func TestService_ListEnabledIsPublic(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil, testLogger())
	_, _ = svc.Add(adminCtx(), Draft{Name: "Board", URL: "https://example.com", FetchType: FetchTypeRSS})

	sources, err := svc.ListEnabled(context.Background())
	require.NoError(t, err)
	assert.Len(t, sources, 1)
}

func TestService_CustomGate(t *testing.T) {
	repo := &mockRepository{}
	repo.On("Delete", mock.Anything, int64(7)).Return(nil)

	allowAll := access.Gate(func(context.Context) bool { return true })
	svc := NewService(repo, allowAll, testLogger())

	require.NoError(t, svc.Delete(context.Background(), 7))
	repo.AssertExpectations(t)
}

func TestService_Authorize(t *testing.T) {
	svc := NewService(&mockRepository{}, nil, testLogger())

	assert.NoError(t, svc.Authorize(adminCtx()))
	assert.ErrorIs(t, svc.Authorize(userCtx()), access.ErrUnauthorized)
	assert.ErrorIs(t, svc.Authorize(context.Background()), access.ErrUnauthorized)
}

func TestService_ReadsAreOpen(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil, testLogger())
	_, err := svc.Add(adminCtx(), Draft{Name: "Board", URL: "https://example.com", FetchType: FetchTypeRSS})
	require.NoError(t, err)

	all, err := svc.List(userCtx())
	require.NoError(t, err)
	assert.Len(t, all, 1)

	enabled, err := svc.ListEnabled(context.Background())
	require.NoError(t, err)
	assert.Len(t, enabled, 1)
}
