// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-studio/internal/platform/apperr"
	"github.com/taibuivan/yomira-studio/internal/platform/audit"
	"github.com/taibuivan/yomira-studio/internal/platform/dberr"
	"github.com/taibuivan/yomira-studio/internal/platform/sec"
	"github.com/taibuivan/yomira-studio/internal/users/account"
	"github.com/taibuivan/yomira-studio/internal/users/auth"
	"github.com/taibuivan/yomira-studio/internal/workflow/permission"
)

// # Fakes

type memoryUsers struct {
	mu      sync.Mutex
	users   map[string]*account.User
	hashes  map[string]string
	readErr error
	touched []string
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[string]*account.User{}, hashes: map[string]string{}}
}

func (store *memoryUsers) add(t *testing.T, user *account.User, password string) {
	t.Helper()
	hash, err := sec.HashPassword(password)
	require.NoError(t, err)
	store.users[user.ID] = user
	store.hashes[user.ID] = hash
}

func (store *memoryUsers) FindByID(_ context.Context, id string) (*account.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.readErr != nil {
		return nil, store.readErr
	}
	user, ok := store.users[id]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (store *memoryUsers) FindCredentials(_ context.Context, login string) (*account.User, string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, user := range store.users {
		if strings.EqualFold(user.Username, login) || strings.EqualFold(user.Email, login) {
			copied := *user
			return &copied, store.hashes[user.ID], nil
		}
	}
	return nil, "", dberr.ErrNotFound
}

func (store *memoryUsers) TouchLogin(_ context.Context, id string, _ time.Time) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.touched = append(store.touched, id)
	return nil
}

type memorySessions struct {
	mu       sync.Mutex
	sessions map[string]*auth.Session
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: map[string]*auth.Session{}}
}

func (store *memorySessions) Create(_ context.Context, session *auth.Session) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	copied := *session
	store.sessions[session.TokenHash] = &copied
	return nil
}

func (store *memorySessions) FindByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	session, ok := store.sessions[tokenHash]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (store *memorySessions) Revoke(_ context.Context, sessionID string, at time.Time) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, session := range store.sessions {
		if session.ID == sessionID && !session.IsRevoked {
			session.IsRevoked = true
			session.RevokedAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (store *memorySessions) RevokeAll(_ context.Context, userID string, at time.Time) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, session := range store.sessions {
		if session.UserID == userID && !session.IsRevoked {
			session.IsRevoked = true
			session.RevokedAt = &at
		}
	}
	return nil
}

func (store *memorySessions) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var removed int64
	for hash, session := range store.sessions {
		if session.ExpiresAt.Before(before) {
			delete(store.sessions, hash)
			removed++
		}
	}
	return removed, nil
}

func (store *memorySessions) active(userID string) int {
	store.mu.Lock()
	defer store.mu.Unlock()
	count := 0
	for _, session := range store.sessions {
		if session.UserID == userID && !session.IsRevoked {
			count++
		}
	}
	return count
}

type memoryCache struct {
	mu    sync.Mutex
	users map[string]*account.User
	err   error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{users: map[string]*account.User{}}
}

func (cache *memoryCache) Get(_ context.Context, userID string) (*account.User, error) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	if cache.err != nil {
		return nil, cache.err
	}
	return cache.users[userID], nil
}

func (cache *memoryCache) Put(_ context.Context, user *account.User, _ time.Duration) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.users[user.ID] = user
	return nil
}

func (cache *memoryCache) Invalidate(_ context.Context, userID string) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	delete(cache.users, userID)
	return nil
}

type stubTokens struct{}

func (stubTokens) GenerateAccessToken(userID, _, role string, _ time.Duration) (string, error) {
	return "access." + userID + "." + role, nil
}

type stubPermissions struct{}

func (stubPermissions) EffectivePermissions(_ context.Context, _ string, role sec.UserRole) permission.Set {
	return permission.Set{UploadChapters: role == sec.RoleUploader, ViewReports: true}
}

type attempt struct{ tier, outcome string }

type attempts struct {
	mu   sync.Mutex
	list []attempt
}

func (recorded *attempts) observe(_, tier, outcome string) {
	recorded.mu.Lock()
	defer recorded.mu.Unlock()
	recorded.list = append(recorded.list, attempt{tier, outcome})
}

// # Fixtures

const emergencyID = "0190f5a2-7c3e-7b1a-9d2e-5a1c00000002"

type fixture struct {
	service  *auth.Service
	users    *memoryUsers
	sessions *memorySessions
	cache    *memoryCache
	audit    *audit.Memory
	attempts *attempts
}

func newFixture(t *testing.T, emergency bool) fixture {
	t.Helper()

	f := fixture{
		users:    newMemoryUsers(),
		sessions: newMemorySessions(),
		cache:    newMemoryCache(),
		audit:    &audit.Memory{},
		attempts: &attempts{},
	}
	f.users.add(t, &account.User{ID: "u-alice", Username: "alice", Email: "alice@studio.test", Role: sec.RoleTranslator, IsActive: true}, "correct-horse")
	f.users.add(t, &account.User{ID: "u-gone", Username: "gone", Email: "gone@studio.test", Role: sec.RoleEditor, IsActive: false}, "correct-horse")

	deps := auth.Deps{
		Users:       f.users,
		Sessions:    f.sessions,
		Cache:       f.cache,
		Tokens:      stubTokens{},
		Permissions: stubPermissions{},
		Audit:       f.audit,
		Observer:    f.attempts.observe,
		Budget:      time.Second,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if emergency {
		directory, err := auth.LoadEmergencyDirectory()
		require.NoError(t, err)
		deps.Emergency = directory
	}
	f.service = auth.NewService(deps)
	return f
}

func code(err error) string {
	if appErr := apperr.As(err); appErr != nil {
		return appErr.Code
	}
	return ""
}

// # Login

func TestService_Login(t *testing.T) {
	tests := []struct {
		name     string
		input    auth.LoginInput
		wantCode string
	}{
		{name: "By username", input: auth.LoginInput{Login: "alice", Password: "correct-horse"}},
		{name: "By email, any case", input: auth.LoginInput{Login: "ALICE@studio.test", Password: "correct-horse"}},
		{name: "Wrong password", input: auth.LoginInput{Login: "alice", Password: "battery"}, wantCode: "UNAUTHORIZED"},
		{name: "Unknown account", input: auth.LoginInput{Login: "mallory", Password: "correct-horse"}, wantCode: "UNAUTHORIZED"},
		{name: "Deactivated", input: auth.LoginInput{Login: "gone", Password: "correct-horse"}, wantCode: "FORBIDDEN"},
		{name: "Missing fields", input: auth.LoginInput{}, wantCode: "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)

			tokens, err := f.service.Login(context.Background(), tt.input, auth.ClientMeta{IPAddress: "10.0.0.1"})
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, code(err))
				assert.Empty(t, f.sessions.sessions)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "access.u-alice.translator", tokens.AccessToken)
			assert.Equal(t, "Bearer", tokens.TokenType)
			assert.NotEmpty(t, tokens.RefreshToken)
			assert.Equal(t, 1, f.sessions.active("u-alice"))
			assert.Equal(t, []string{"u-alice"}, f.users.touched)

			// Only the digest is stored.
			_, stored := f.sessions.sessions[tokens.RefreshToken]
			assert.False(t, stored)
			_, stored = f.sessions.sessions[sec.HashToken(tokens.RefreshToken)]
			assert.True(t, stored)
		})
	}
}

// # Refresh

/*
TestService_Refresh checks rotation and that replaying a rotated token
revokes every session of its owner.
*/
func TestService_Refresh(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	first, err := f.service.Login(ctx, auth.LoginInput{Login: "alice", Password: "correct-horse"}, auth.ClientMeta{})
	require.NoError(t, err)

	second, err := f.service.Refresh(ctx, first.RefreshToken, auth.ClientMeta{})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, 1, f.sessions.active("u-alice"))

	// Replaying the rotated token burns the live one too.
	_, err = f.service.Refresh(ctx, first.RefreshToken, auth.ClientMeta{})
	assert.Equal(t, "UNAUTHORIZED", code(err))
	assert.Equal(t, 0, f.sessions.active("u-alice"))

	_, err = f.service.Refresh(ctx, second.RefreshToken, auth.ClientMeta{})
	assert.Equal(t, "UNAUTHORIZED", code(err))

	_, err = f.service.Refresh(ctx, "", auth.ClientMeta{})
	assert.Equal(t, "UNAUTHORIZED", code(err))

	_, err = f.service.Refresh(ctx, "never-issued", auth.ClientMeta{})
	assert.Equal(t, "UNAUTHORIZED", code(err))
}

func TestService_RefreshDeactivatedAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	tokens, err := f.service.Login(ctx, auth.LoginInput{Login: "alice", Password: "correct-horse"}, auth.ClientMeta{})
	require.NoError(t, err)

	f.users.users["u-alice"].IsActive = false

	_, err = f.service.Refresh(ctx, tokens.RefreshToken, auth.ClientMeta{})
	assert.Equal(t, "UNAUTHORIZED", code(err))
	assert.Equal(t, 0, f.sessions.active("u-alice"))
}

func TestService_LogoutAndCleanup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	tokens, err := f.service.Login(ctx, auth.LoginInput{Login: "alice", Password: "correct-horse"}, auth.ClientMeta{})
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, tokens.RefreshToken))
	assert.Equal(t, 0, f.sessions.active("u-alice"))

	// Idempotent.
	require.NoError(t, f.service.Logout(ctx, tokens.RefreshToken))
	require.NoError(t, f.service.Logout(ctx, "unknown"))

	expired := &auth.Session{ID: "s-old", UserID: "u-alice", TokenHash: "old", ExpiresAt: time.Now().Add(-time.Hour)}
	require.NoError(t, f.sessions.Create(ctx, expired))
	require.NoError(t, f.service.CleanupSessions(ctx))
	_, err = f.sessions.FindByTokenHash(ctx, "old")
	assert.True(t, dberr.IsNotFound(err))
}

// # Profile Bootstrap

/*
TestService_Me walks the cache, database and emergency tiers.
*/
func TestService_Me(t *testing.T) {
	tests := []struct {
		name         string
		userID       string
		emergency    bool
		cached       bool
		cacheErr     error
		databaseErr  error
		wantCode     string
		wantSource   string
		wantAttempts []attempt
		wantAudit    bool
	}{
		{
			name:         "Cache hit",
			userID:       "u-alice",
			cached:       true,
			wantSource:   auth.TierCache,
			wantAttempts: []attempt{{auth.TierCache, "ok"}},
		},
		{
			name:         "Cache miss falls to database",
			userID:       "u-alice",
			wantSource:   auth.TierDatabase,
			wantAttempts: []attempt{{auth.TierCache, "skip"}, {auth.TierDatabase, "ok"}},
		},
		{
			name:         "Cache error falls to database",
			userID:       "u-alice",
			cacheErr:     errors.New("redis down"),
			wantSource:   auth.TierDatabase,
			wantAttempts: []attempt{{auth.TierCache, "error"}, {auth.TierDatabase, "ok"}},
		},
		{
			name:         "Database down, emergency enabled",
			userID:       emergencyID,
			emergency:    true,
			databaseErr:  errors.New("connection refused"),
			wantSource:   auth.TierEmergency,
			wantAttempts: []attempt{{auth.TierCache, "skip"}, {auth.TierDatabase, "error"}, {auth.TierEmergency, "ok"}},
			wantAudit:    true,
		},
		{
			name:         "Database down, emergency disabled",
			userID:       emergencyID,
			databaseErr:  errors.New("connection refused"),
			wantCode:     "SERVICE_UNAVAILABLE",
			wantAttempts: []attempt{{auth.TierCache, "skip"}, {auth.TierDatabase, "error"}},
		},
		{
			name:         "Database down, not an emergency account",
			userID:       "u-alice",
			emergency:    true,
			databaseErr:  errors.New("connection refused"),
			wantCode:     "SERVICE_UNAVAILABLE",
			wantAttempts: []attempt{{auth.TierCache, "skip"}, {auth.TierDatabase, "error"}, {auth.TierEmergency, "error"}},
		},
		{
			name:         "Account vanished",
			userID:       "u-ghost",
			wantCode:     "UNAUTHORIZED",
			wantAttempts: []attempt{{auth.TierCache, "skip"}, {auth.TierDatabase, "error"}},
		},
		{
			name:         "Deactivated",
			userID:       "u-gone",
			wantCode:     "FORBIDDEN",
			wantAttempts: []attempt{{auth.TierCache, "skip"}, {auth.TierDatabase, "ok"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.emergency)
			f.cache.err = tt.cacheErr
			f.users.readErr = tt.databaseErr
			if tt.cached {
				f.cache.users[tt.userID] = &account.User{ID: tt.userID, Username: "alice", Role: sec.RoleTranslator, IsActive: true}
			}

			profile, err := f.service.Me(context.Background(), &sec.AuthClaims{UserID: tt.userID})
			assert.Equal(t, tt.wantAttempts, f.attempts.list)

			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, code(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantSource, profile.Source)
			assert.Equal(t, tt.wantSource == auth.TierEmergency, profile.Degraded)
			assert.Contains(t, profile.Permissions, sec.PermViewReports)

			if tt.wantSource == auth.TierDatabase && tt.cacheErr == nil {
				assert.Contains(t, f.cache.users, tt.userID, "database hits are cached")
			}

			if tt.wantAudit {
				require.Len(t, f.audit.Entries, 1)
				assert.Equal(t, audit.ActionEmergencyLogin, f.audit.Entries[0].Action)
				assert.Equal(t, sec.RoleUploader, profile.User.Role)
				assert.Contains(t, profile.Permissions, sec.PermUploadChapters)
			} else {
				assert.Empty(t, f.audit.Entries)
			}
		})
	}
}

func TestService_MeUnknownRoleIsLeastPrivileged(t *testing.T) {
	f := newFixture(t, false)
	f.users.users["u-legacy"] = &account.User{ID: "u-legacy", Username: "legacy", Role: "moderator", IsActive: true}

	profile, err := f.service.Me(context.Background(), &sec.AuthClaims{UserID: "u-legacy"})
	require.NoError(t, err)
	assert.NotContains(t, profile.Permissions, sec.PermUploadChapters)
}

// # Emergency Directory

func TestParseEmergencyDirectory(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		wantLen int
	}{
		{name: "Valid", raw: `[{"id":"e-1","username":"ops","role":"admin"}]`, wantLen: 1},
		{name: "Unknown role", raw: `[{"id":"e-1","username":"ops","role":"root"}]`, wantErr: true},
		{name: "Missing id", raw: `[{"username":"ops","role":"admin"}]`, wantErr: true},
		{name: "Malformed", raw: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			directory, err := auth.ParseEmergencyDirectory([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, directory, tt.wantLen)

			user, ok := directory.Lookup("e-1")
			require.True(t, ok)
			assert.True(t, user.IsActive)
		})
	}

	embedded, err := auth.LoadEmergencyDirectory()
	require.NoError(t, err)
	assert.NotEmpty(t, embedded)
}
