package session

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/authkeeper/internal/client/connectivity"
	"github.com/dmitrijs2005/authkeeper/internal/client/models"
	"github.com/dmitrijs2005/authkeeper/internal/client/repositories/preferences"
	"github.com/dmitrijs2005/authkeeper/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/authkeeper/internal/client/storage"
	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- helpers ----

var (
	offline = connectivity.Func(func() bool { return false })
	online  = connectivity.Func(func() bool { return true })
)

type fakeSource struct {
	user *models.User
	err  error
}

func (f *fakeSource) CurrentUser(context.Context) (*models.User, error) { return f.user, f.err }

type failingSessions struct {
	sessions.Repository
	getErr, replaceErr, clearErr error
	clearCalled                  bool
}

func (f *failingSessions) Get(ctx context.Context) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Repository.Get(ctx)
}

func (f *failingSessions) Replace(ctx context.Context, u *models.User) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	return f.Repository.Replace(ctx, u)
}

func (f *failingSessions) Clear(ctx context.Context) error {
	f.clearCalled = true
	if f.clearErr != nil {
		return f.clearErr
	}
	return f.Repository.Clear(ctx)
}

type failingPrefs struct {
	preferences.Repository
	getErr, setErr, deleteErr error
	deleteCalled              bool
}

func (f *failingPrefs) Get(ctx context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	return f.Repository.Get(ctx, key)
}

func (f *failingPrefs) Set(ctx context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.Repository.Set(ctx, key, value)
}

func (f *failingPrefs) Delete(ctx context.Context, key string) error {
	f.deleteCalled = true
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Repository.Delete(ctx, key)
}

type fixture struct {
	db       *sql.DB
	sessions *failingSessions
	prefs    *failingPrefs
	source   *fakeSource
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &fixture{
		db:       db,
		sessions: &failingSessions{Repository: sessions.NewSQLiteRepository(db)},
		prefs:    &failingPrefs{Repository: preferences.NewSQLiteRepository(db)},
		source:   &fakeSource{},
	}
}

func (f *fixture) manager(oracle connectivity.Oracle) *Manager {
	return NewManager(f.sessions, f.prefs, f.source, oracle, logging.Discard())
}

func verified(uid string) *models.User {
	return models.NewUser(uid, uid+"@example.com", "", true)
}

func pointer(t *testing.T, f *fixture) (string, bool) {
	t.Helper()
	v, ok, err := f.prefs.Repository.Get(context.Background(), preferences.SessionPointerKey)
	require.NoError(t, err)
	return v, ok
}

// ---- SaveSession ----

func TestSaveSession_WritesDurableStoreAndPointer(t *testing.T) {
	f := newFixture(t)
	m := f.manager(offline)
	ctx := context.Background()

	require.NoError(t, m.SaveSession(ctx, verified("u1"), true))

	got, err := m.GetCurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, verified("u1"), got)

	uid, ok := pointer(t, f)
	assert.True(t, ok)
	assert.Equal(t, "u1", uid)
}

func TestSaveSession_WithoutRememberSkipsPointer(t *testing.T) {
	f := newFixture(t)
	m := f.manager(offline)
	ctx := context.Background()

	require.NoError(t, m.SaveSession(ctx, verified("u1"), false))

	_, ok := pointer(t, f)
	assert.False(t, ok)

	got, err := m.GetCurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UID)
}

func TestSaveSession_RejectsUnverified(t *testing.T) {
	f := newFixture(t)
	m := f.manager(online)
	ctx := context.Background()

	u := verified("u1")
	u.EmailVerified = false
	err := m.SaveSession(ctx, u, true)
	assert.ErrorIs(t, err, common.ErrVerification)

	got, err := m.GetCurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
	_, ok := pointer(t, f)
	assert.False(t, ok)
}

func TestSaveSession_RejectsMissingUser(t *testing.T) {
	m := newFixture(t).manager(online)

	assert.ErrorIs(t, m.SaveSession(context.Background(), nil, true), common.ErrValidation)
	assert.ErrorIs(t, m.SaveSession(context.Background(), &models.User{EmailVerified: true}, true), common.ErrValidation)
}

func TestSaveSession_StorageFailures(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t)
	f.sessions.replaceErr = errors.New("disk full")
	assert.ErrorIs(t, f.manager(online).SaveSession(ctx, verified("u1"), true), common.ErrStorage)
	_, ok := pointer(t, f)
	assert.False(t, ok, "pointer must not be written when the durable write failed")

	f = newFixture(t)
	f.prefs.setErr = errors.New("disk full")
	err := f.manager(online).SaveSession(ctx, verified("u1"), true)
	assert.ErrorIs(t, err, common.ErrStorage)

	got, err := f.manager(online).GetCurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UID, "durable value survives a failed pointer write")
}

// ---- ClearSession ----

func TestClearSession_ThenNoSession(t *testing.T) {
	f := newFixture(t)
	m := f.manager(offline)
	ctx := context.Background()

	require.NoError(t, m.SaveSession(ctx, verified("u1"), true))
	require.NoError(t, m.ClearSession(ctx))

	got, err := m.GetCurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, m.ClearSession(ctx), "clearing an empty session is fine")
}

func TestClearSession_AttemptsBothAndAggregates(t *testing.T) {
	f := newFixture(t)
	f.prefs.deleteErr = errors.New("prefs broken")
	f.sessions.clearErr = errors.New("store broken")

	err := f.manager(offline).ClearSession(context.Background())
	require.ErrorIs(t, err, common.ErrStorage)
	assert.True(t, f.prefs.deleteCalled)
	assert.True(t, f.sessions.clearCalled)
	assert.Contains(t, err.Error(), "prefs broken")
	assert.Contains(t, err.Error(), "store broken")
}

func TestClearSession_FirstFailureDoesNotSkipSecond(t *testing.T) {
	f := newFixture(t)
	m := f.manager(offline)
	ctx := context.Background()
	require.NoError(t, m.SaveSession(ctx, verified("u1"), true))

	f.prefs.deleteErr = errors.New("prefs broken")
	require.ErrorIs(t, m.ClearSession(ctx), common.ErrStorage)

	u, err := f.sessions.Repository.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)
}

// ---- GetCurrentUser precedence ----

func TestGetCurrentUser_DurableStoreWinsOverPointer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sessions.Repository.Replace(ctx, verified("durable")))
	require.NoError(t, f.prefs.Repository.Set(ctx, preferences.SessionPointerKey, "other"))
	f.source.user = verified("other")

	got, err := f.manager(online).GetCurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "durable", got.UID)
}

func TestGetCurrentUser_PointerJoinedAgainstSource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.prefs.Repository.Set(ctx, preferences.SessionPointerKey, "u1"))

	tests := []struct {
		name    string
		source  *fakeSource
		wantUID string
	}{
		{"match", &fakeSource{user: verified("u1")}, "u1"},
		{"mismatch", &fakeSource{user: verified("u2")}, ""},
		{"no current user", &fakeSource{}, ""},
		{"source failure", &fakeSource{err: errors.New("offline")}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(f.sessions, f.prefs, tt.source, online, logging.Discard())
			got, err := m.GetCurrentUser(ctx)
			require.NoError(t, err)
			if tt.wantUID == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantUID, got.UID)
		})
	}
}

func TestGetCurrentUser_PointerWithoutSource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.prefs.Repository.Set(ctx, preferences.SessionPointerKey, "u1"))

	m := NewManager(f.sessions, f.prefs, nil, online, logging.Discard())
	got, err := m.GetCurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetCurrentUser_StorageErrors(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t)
	f.sessions.getErr = errors.New("io")
	_, err := f.manager(online).GetCurrentUser(ctx)
	assert.ErrorIs(t, err, common.ErrStorage)

	f = newFixture(t)
	f.prefs.getErr = errors.New("io")
	_, err = f.manager(online).GetCurrentUser(ctx)
	assert.ErrorIs(t, err, common.ErrStorage)
}

// ---- TryLocalSignIn ----

func TestTryLocalSignIn_NoSessionIsTypedError(t *testing.T) {
	_, err := newFixture(t).manager(offline).TryLocalSignIn(context.Background())
	assert.ErrorIs(t, err, common.ErrNetwork)
}

func TestTryLocalSignIn_OfflineTrustsPersistedFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := verified("u1")
	u.EmailVerified = false
	require.NoError(t, f.sessions.Repository.Replace(ctx, u))

	got, err := f.manager(offline).TryLocalSignIn(ctx)
	require.NoError(t, err)
	assert.False(t, got.EmailVerified)
}

func TestTryLocalSignIn_OnlineRejectsUnverified(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := verified("u1")
	u.EmailVerified = false
	require.NoError(t, f.sessions.Repository.Replace(ctx, u))

	_, err := f.manager(online).TryLocalSignIn(ctx)
	assert.ErrorIs(t, err, common.ErrVerification)
}

func TestTryLocalSignIn_ReturnsVerifiedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sessions.Repository.Replace(ctx, verified("u1")))

	got, err := f.manager(offline).TryLocalSignIn(ctx)
	require.NoError(t, err)
	assert.Equal(t, verified("u1"), got)
}

func TestTryLocalSignIn_StorageError(t *testing.T) {
	f := newFixture(t)
	f.sessions.getErr = errors.New("io")

	_, err := f.manager(offline).TryLocalSignIn(context.Background())
	assert.ErrorIs(t, err, common.ErrStorage)
}
