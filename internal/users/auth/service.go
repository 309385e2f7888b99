// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/yomira-studio/internal/platform/apperr"
	"github.com/taibuivan/yomira-studio/internal/platform/audit"
	"github.com/taibuivan/yomira-studio/internal/platform/constants"
	"github.com/taibuivan/yomira-studio/internal/platform/dberr"
	"github.com/taibuivan/yomira-studio/internal/platform/fallback"
	"github.com/taibuivan/yomira-studio/internal/platform/sec"
	"github.com/taibuivan/yomira-studio/internal/platform/validate"
	"github.com/taibuivan/yomira-studio/internal/users/account"
	"github.com/taibuivan/yomira-studio/internal/workflow/permission"
	"github.com/taibuivan/yomira-studio/pkg/uuid"
)

// refreshTokenBytes is the entropy of an opaque refresh token.
const refreshTokenBytes = 32

// # Contracts

// TokenProvider signs access tokens.
type TokenProvider interface {
	GenerateAccessToken(userID, username, role string, timeToLive time.Duration) (string, error)
}

// PermissionResolver produces the effective permission set of a member.
type PermissionResolver interface {
	EffectivePermissions(context context.Context, userID string, role sec.UserRole) permission.Set
}

// Deps groups the collaborators of [Service].
//
// Cache, Permissions, Audit and Observer are optional. A nil Emergency
// directory disables the emergency tier.
type Deps struct {
	Users       UserStore
	Sessions    SessionRepository
	Cache       ProfileCache
	Tokens      TokenProvider
	Permissions PermissionResolver
	Emergency   EmergencyDirectory
	Audit       audit.Recorder
	Observer    fallback.Observer
	Budget      time.Duration
	Logger      *slog.Logger
}

// Service implements sign-in, session rotation and the profile bootstrap.
type Service struct {
	users       UserStore
	sessions    SessionRepository
	cache       ProfileCache
	tokens      TokenProvider
	permissions PermissionResolver
	emergency   EmergencyDirectory
	audit       audit.Recorder
	observer    fallback.Observer
	budget      time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewService constructs the authentication service.
func NewService(deps Deps) *Service {
	budget := deps.Budget
	if budget <= 0 {
		budget = constants.DefaultBootstrapTimeout
	}
	return &Service{
		users:       deps.Users,
		sessions:    deps.Sessions,
		cache:       deps.Cache,
		tokens:      deps.Tokens,
		permissions: deps.Permissions,
		emergency:   deps.Emergency,
		audit:       deps.Audit,
		observer:    deps.Observer,
		budget:      budget,
		logger:      deps.Logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// # Authentication Flow

// LoginInput carries the credentials of a sign-in attempt.
type LoginInput struct {
	Login    string `json:"login"` // username or email
	Password string `json:"password"`
}

/*
Login validates credentials and opens a session.

Description: Unknown accounts and wrong passwords share one error so that
account names cannot be probed. Deactivated accounts are refused.

Parameters:
  - ctx: context.Context
  - input: LoginInput
  - meta: ClientMeta

Returns:
  - *Tokens: Access token and rotated refresh token
  - error: Unauthorized, Forbidden or storage failures
*/
func (service *Service) Login(ctx context.Context, input LoginInput, meta ClientMeta) (*Tokens, error) {
	input.Login = strings.TrimSpace(input.Login)

	validator := &validate.Validator{}
	validator.Required(FieldLogin, input.Login).
		Required(FieldPassword, input.Password)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	user, hash, err := service.users.FindCredentials(ctx, input.Login)
	if dberr.IsNotFound(err) {
		sec.DiscardPasswordCheck(input.Password)
		service.logger.InfoContext(ctx, "auth_login_rejected", slog.String("reason", "unknown_account"))
		return nil, apperr.Unauthorized("Invalid login credentials")
	}
	if err != nil {
		return nil, err
	}

	if !sec.CheckPasswordHash(input.Password, hash) {
		service.logger.InfoContext(ctx, "auth_login_rejected",
			slog.String("reason", "bad_password"),
			slog.String("user_id", user.ID),
		)
		return nil, apperr.Unauthorized("Invalid login credentials")
	}
	if !user.IsActive {
		return nil, apperr.Forbidden("This account has been deactivated")
	}

	tokens, err := service.issue(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	if err := service.users.TouchLogin(ctx, user.ID, service.now()); err != nil {
		service.logger.WarnContext(ctx, "auth_touch_login_failed", slog.String("user_id", user.ID), slog.Any("error", err))
	}
	service.logger.InfoContext(ctx, "auth_login_succeeded",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return tokens, nil
}

/*
Refresh exchanges a refresh token for a new token pair.

Description: The presented session is revoked and a new one is opened.
Presenting a token that was already rotated revokes every session of its
owner, since only a copied token can be replayed.
*/
func (service *Service) Refresh(ctx context.Context, refreshToken string, meta ClientMeta) (*Tokens, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperr.Unauthorized("Missing refresh token")
	}

	session, err := service.sessions.FindByTokenHash(ctx, sec.HashToken(refreshToken))
	if dberr.IsNotFound(err) {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}
	if err != nil {
		return nil, err
	}

	now := service.now()
	if session.IsRevoked {
		service.logger.WarnContext(ctx, "auth_refresh_reuse_detected",
			slog.String("user_id", session.UserID),
			slog.String("session_id", session.ID),
		)
		if err := service.sessions.RevokeAll(ctx, session.UserID, now); err != nil {
			service.logger.ErrorContext(ctx, "auth_revoke_all_failed", slog.String("user_id", session.UserID), slog.Any("error", err))
		}
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}
	if !session.Active(now) {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	revoked, err := service.sessions.Revoke(ctx, session.ID, now)
	if err != nil {
		return nil, err
	}
	if !revoked {
		// Lost a race with a concurrent refresh of the same token.
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	user, err := service.users.FindByID(ctx, session.UserID)
	if dberr.IsNotFound(err) {
		return nil, apperr.Unauthorized("Account no longer exists")
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.Unauthorized("This account has been deactivated")
	}

	return service.issue(ctx, user, meta)
}

// Logout revokes the session behind a refresh token. Unknown tokens are ignored.
func (service *Service) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return nil
	}

	session, err := service.sessions.FindByTokenHash(ctx, sec.HashToken(refreshToken))
	if dberr.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := service.sessions.Revoke(ctx, session.ID, service.now()); err != nil {
		return err
	}
	if service.cache != nil {
		if err := service.cache.Invalidate(ctx, session.UserID); err != nil {
			service.logger.WarnContext(ctx, "auth_profile_invalidate_failed", slog.Any("error", err))
		}
	}
	return nil
}

// CleanupSessions deletes sessions that have expired. It runs on a schedule.
func (service *Service) CleanupSessions(ctx context.Context) error {
	removed, err := service.sessions.DeleteExpired(ctx, service.now())
	if err != nil {
		return err
	}
	service.logger.InfoContext(ctx, "auth_sessions_cleaned", slog.Int64("removed", removed))
	return nil
}

// # Profile Bootstrap

/*
Me resolves the caller's profile through the cache, database and emergency
tiers within one timeout budget.

Parameters:
  - ctx: context.Context
  - claims: *sec.AuthClaims (already verified)

Returns:
  - *Profile: The member, their effective permissions and the serving tier
  - error: Unauthorized for vanished accounts, Forbidden for deactivated
    ones, ServiceUnavailable when every tier failed
*/
func (service *Service) Me(ctx context.Context, claims *sec.AuthClaims) (*Profile, error) {
	userID := claims.UserID

	strategies := []fallback.Strategy[*account.User]{
		{Name: TierCache, Fetch: service.fromCache(userID)},
		{Name: TierDatabase, Fetch: service.fromDatabase(userID)},
	}
	if service.emergency != nil {
		strategies = append(strategies, fallback.Strategy[*account.User]{
			Name:     TierEmergency,
			Fetch:    service.fromEmergency(userID),
			Degraded: true,
		})
	}

	chain := fallback.New(chainName, service.logger, service.budget, strategies...)
	if service.observer != nil {
		chain = chain.WithObserver(service.observer)
	}

	user, tier, err := chain.Resolve(ctx)
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, apperr.Unauthorized("Account no longer exists")
		}
		return nil, apperr.ServiceUnavailable("Your profile is temporarily unavailable").WithCause(err).WithRetryAfter(constants.UnavailableRetryAfter)
	}
	if !user.IsActive {
		return nil, apperr.Forbidden("This account has been deactivated")
	}

	switch tier {
	case TierDatabase:
		if service.cache != nil {
			if err := service.cache.Put(ctx, user, constants.AuthUserCacheTTL); err != nil {
				service.logger.DebugContext(ctx, "auth_profile_cache_put_failed", slog.Any("error", err))
			}
		}
	case TierEmergency:
		service.recordEmergency(ctx, user)
	}

	role := user.Role
	if !role.Valid() {
		service.logger.WarnContext(ctx, "auth_unknown_role",
			slog.String("user_id", user.ID),
			slog.String("role", string(role)),
		)
		role = sec.LowestRole
	}

	profile := &Profile{
		User:        user,
		Permissions: []sec.Permission{},
		Source:      tier,
		Degraded:    tier == TierEmergency,
	}
	if service.permissions != nil {
		profile.Permissions = service.permissions.EffectivePermissions(ctx, user.ID, role).Granted()
	}
	return profile, nil
}

func (service *Service) fromCache(userID string) func(ctx context.Context) (*account.User, error) {
	if service.cache == nil {
		return nil
	}
	return func(ctx context.Context) (*account.User, error) {
		user, err := service.cache.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, fallback.ErrSkip
		}
		return user, nil
	}
}

func (service *Service) fromDatabase(userID string) func(ctx context.Context) (*account.User, error) {
	return func(ctx context.Context) (*account.User, error) {
		return service.users.FindByID(ctx, userID)
	}
}

func (service *Service) fromEmergency(userID string) func(ctx context.Context) (*account.User, error) {
	return func(ctx context.Context) (*account.User, error) {
		user, ok := service.emergency.Lookup(userID)
		if !ok {
			return nil, errors.New("not an emergency account")
		}
		return user, nil
	}
}

func (service *Service) recordEmergency(ctx context.Context, user *account.User) {
	service.logger.WarnContext(ctx, "auth_emergency_profile_served",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
		slog.Bool("security_event", true),
	)

	if service.audit == nil {
		return
	}
	entry := audit.Entry{
		ID:         uuid.New(),
		ActorID:    user.ID,
		Action:     audit.ActionEmergencyLogin,
		EntityType: audit.EntityUser,
		EntityID:   user.ID,
		After:      audit.Snapshot(map[string]string{"tier": TierEmergency, "role": string(user.Role)}),
		CreatedAt:  service.now(),
	}
	// The database is likely the reason this tier was reached.
	if err := service.audit.Record(ctx, entry); err != nil {
		service.logger.ErrorContext(ctx, "auth_emergency_audit_failed", slog.String("user_id", user.ID), slog.Any("error", err))
	}
}

// # Helpers

func (service *Service) issue(ctx context.Context, user *account.User, meta ClientMeta) (*Tokens, error) {
	accessToken, err := service.tokens.GenerateAccessToken(user.ID, user.Username, string(user.Role), constants.AccessTokenTTL)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	refreshToken, err := sec.GenerateSecureToken(refreshTokenBytes)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := service.now()
	session := &Session{
		ID:         uuid.New(),
		UserID:     user.ID,
		TokenHash:  sec.HashToken(refreshToken),
		DeviceName: meta.DeviceName,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		ExpiresAt:  now.Add(constants.RefreshTokenTTL),
		CreatedAt:  now,
	}
	if err := service.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("auth: open session: %w", err)
	}

	return &Tokens{
		AccessToken:           accessToken,
		TokenType:             "Bearer",
		ExpiresIn:             int(constants.AccessTokenTTL / time.Second),
		User:                  user,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: session.ExpiresAt,
	}, nil
}
