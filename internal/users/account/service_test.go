// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
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
	"github.com/taibuivan/yomira-studio/pkg/pagination"
)

// # Fakes

type memoryRepository struct {
	mu     sync.Mutex
	users  map[string]*account.User
	hashes map[string]string
}

func newMemoryRepository(users ...*account.User) *memoryRepository {
	repo := &memoryRepository{users: map[string]*account.User{}, hashes: map[string]string{}}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (repo *memoryRepository) Create(_ context.Context, user *account.User, hash string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, existing := range repo.users {
		if strings.EqualFold(existing.Username, user.Username) || strings.EqualFold(existing.Email, user.Email) {
			return apperr.Conflict("Resource already exists")
		}
	}
	copied := *user
	repo.users[user.ID] = &copied
	repo.hashes[user.ID] = hash
	return nil
}

func (repo *memoryRepository) FindByID(_ context.Context, id string) (*account.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	user, ok := repo.users[id]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (repo *memoryRepository) FindCredentials(_ context.Context, login string) (*account.User, string, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, user := range repo.users {
		if strings.EqualFold(user.Username, login) || strings.EqualFold(user.Email, login) {
			copied := *user
			return &copied, repo.hashes[user.ID], nil
		}
	}
	return nil, "", dberr.ErrNotFound
}

func (repo *memoryRepository) List(_ context.Context, filter account.Filter, limit, offset int) ([]*account.User, int, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	var matched []*account.User
	for _, user := range repo.users {
		if filter.Role != "" && user.Role != filter.Role {
			continue
		}
		if filter.Active != nil && user.IsActive != *filter.Active {
			continue
		}
		matched = append(matched, user)
	}
	return matched, len(matched), nil
}

func (repo *memoryRepository) UpdateRole(_ context.Context, id string, role sec.UserRole, at time.Time) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	user, ok := repo.users[id]
	if !ok {
		return dberr.ErrNotFound
	}
	user.Role = role
	user.UpdatedAt = at
	return nil
}

func (repo *memoryRepository) UpdateStatus(_ context.Context, id string, active bool, at time.Time) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	user, ok := repo.users[id]
	if !ok {
		return dberr.ErrNotFound
	}
	user.IsActive = active
	user.UpdatedAt = at
	return nil
}

func (repo *memoryRepository) TouchLogin(_ context.Context, id string, at time.Time) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	user, ok := repo.users[id]
	if !ok {
		return dberr.ErrNotFound
	}
	user.LastLoginAt = &at
	return nil
}

type memoryProfiles struct {
	invalidated []string
}

func (cache *memoryProfiles) Invalidate(_ context.Context, userID string) error {
	cache.invalidated = append(cache.invalidated, userID)
	return nil
}

type memoryPublisher struct {
	events []string
}

func (publisher *memoryPublisher) Publish(_ context.Context, _ string, eventType string, _ any) error {
	publisher.events = append(publisher.events, eventType)
	return nil
}

// # Fixtures

func member(id, username string, role sec.UserRole, active bool) *account.User {
	return &account.User{ID: id, Username: username, Email: username + "@studio.test", Role: role, IsActive: active}
}

type fixture struct {
	service   *account.Service
	repo      *memoryRepository
	audit     *audit.Memory
	profiles  *memoryProfiles
	publisher *memoryPublisher
}

func newFixture(users ...*account.User) fixture {
	repo := newMemoryRepository(users...)
	recorder := &audit.Memory{}
	profiles := &memoryProfiles{}
	publisher := &memoryPublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return fixture{
		service:   account.NewService(repo, recorder, publisher, profiles, logger),
		repo:      repo,
		audit:     recorder,
		profiles:  profiles,
		publisher: publisher,
	}
}

/*
TestService_Create covers enrolment and its validation rules.
*/
func TestService_Create(t *testing.T) {
	tests := []struct {
		name     string
		input    account.CreateInput
		wantCode string
		wantRole sec.UserRole
	}{
		{
			name:     "Defaults to the lowest role",
			input:    account.CreateInput{Username: "kaori", Email: "Kaori@Studio.test", Password: "s3cretpass"},
			wantRole: sec.LowestRole,
		},
		{
			name:     "Explicit role",
			input:    account.CreateInput{Username: "ren", Email: "ren@studio.test", Password: "s3cretpass", Role: sec.RoleUploader},
			wantRole: sec.RoleUploader,
		},
		{
			name:     "Unknown role",
			input:    account.CreateInput{Username: "ren", Email: "ren@studio.test", Password: "s3cretpass", Role: "janitor"},
			wantCode: "VALIDATION_ERROR",
		},
		{
			name:     "Short password",
			input:    account.CreateInput{Username: "ren", Email: "ren@studio.test", Password: "short"},
			wantCode: "VALIDATION_ERROR",
		},
		{
			name:     "Invalid email",
			input:    account.CreateInput{Username: "ren", Email: "not-an-email", Password: "s3cretpass"},
			wantCode: "VALIDATION_ERROR",
		},
		{
			name:     "Duplicate username",
			input:    account.CreateInput{Username: "ADMIN", Email: "other@studio.test", Password: "s3cretpass"},
			wantCode: "CONFLICT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(member("u-admin", "admin", sec.RoleAdmin, true))

			user, err := f.service.Create(context.Background(), "u-admin", tt.input)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, apperr.As(err).Code)
				assert.Empty(t, f.audit.Entries)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, user.Role)
			assert.True(t, user.IsActive)
			assert.Equal(t, strings.ToLower(tt.input.Email), user.Email)

			_, hash, err := f.repo.FindCredentials(context.Background(), tt.input.Username)
			require.NoError(t, err)
			assert.NotEqual(t, tt.input.Password, hash)
			assert.True(t, sec.CheckPasswordHash(tt.input.Password, hash))

			require.Len(t, f.audit.Entries, 1)
			assert.Equal(t, audit.ActionCreateUser, f.audit.Entries[0].Action)
			assert.Equal(t, []string{account.EventCreated}, f.publisher.events)
		})
	}
}

/*
TestService_ChangeRole checks the audit trail, cache invalidation and the
self-change guard.
*/
func TestService_ChangeRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(
		member("u-admin", "admin", sec.RoleAdmin, true),
		member("u-alice", "alice", sec.RoleTranslator, true),
	)

	user, err := f.service.ChangeRole(ctx, "u-admin", "u-alice", sec.RoleChiefTranslator)
	require.NoError(t, err)
	assert.Equal(t, sec.RoleChiefTranslator, user.Role)
	assert.Equal(t, []string{"u-alice"}, f.profiles.invalidated)

	require.Len(t, f.audit.Entries, 1)
	entry := f.audit.Entries[0]
	assert.Equal(t, audit.ActionChangeRole, entry.Action)
	assert.Contains(t, string(entry.Before), `"translator"`)
	assert.Contains(t, string(entry.After), `"chief_translator"`)

	// Same role again is a no-op.
	_, err = f.service.ChangeRole(ctx, "u-admin", "u-alice", sec.RoleChiefTranslator)
	require.NoError(t, err)
	assert.Len(t, f.audit.Entries, 1)

	_, err = f.service.ChangeRole(ctx, "u-admin", "u-admin", sec.RoleTranslator)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)

	_, err = f.service.ChangeRole(ctx, "u-admin", "u-ghost", sec.RoleEditor)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)

	_, err = f.service.ChangeRole(ctx, "u-admin", "u-alice", "overlord")
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
}

// TestService_SetStatus checks that inactive members drop out of the assignee pool.
func TestService_SetStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(
		member("u-admin", "admin", sec.RoleAdmin, true),
		member("u-bob", "bob", sec.RoleEditor, true),
	)

	active, err := f.service.IsActive(ctx, "u-bob")
	require.NoError(t, err)
	assert.True(t, active)

	user, err := f.service.SetStatus(ctx, "u-admin", "u-bob", false)
	require.NoError(t, err)
	assert.False(t, user.IsActive)

	active, err = f.service.IsActive(ctx, "u-bob")
	require.NoError(t, err)
	assert.False(t, active)

	active, err = f.service.IsActive(ctx, "u-ghost")
	require.NoError(t, err)
	assert.False(t, active)

	_, err = f.service.SetStatus(ctx, "u-admin", "u-admin", false)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)

	require.Len(t, f.audit.Entries, 1)
	assert.Equal(t, audit.ActionChangeStatus, f.audit.Entries[0].Action)
	assert.Equal(t, []string{account.EventStatusChanged}, f.publisher.events)
}

func TestService_UserRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(
		member("u-up", "uploader", sec.RoleUploader, true),
		member("u-legacy", "legacy", "moderator", true),
	)

	role, err := f.service.UserRole(ctx, "u-up")
	require.NoError(t, err)
	assert.Equal(t, sec.RoleUploader, role)

	role, err = f.service.UserRole(ctx, "u-legacy")
	require.NoError(t, err)
	assert.Equal(t, sec.LowestRole, role)

	_, err = f.service.UserRole(ctx, "u-ghost")
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}

func TestService_List(t *testing.T) {
	f := newFixture(
		member("u-1", "alice", sec.RoleTranslator, true),
		member("u-2", "bob", sec.RoleEditor, false),
		member("u-3", "carol", sec.RoleTranslator, false),
	)

	inactive := false
	users, total, err := f.service.List(context.Background(),
		account.Filter{Role: sec.RoleTranslator, Active: &inactive},
		pagination.Params{Page: 1, Limit: 20},
	)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, "carol", users[0].Username)
}
