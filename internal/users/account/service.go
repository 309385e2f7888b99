// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/yomira-studio/internal/platform/apperr"
	"github.com/taibuivan/yomira-studio/internal/platform/audit"
	"github.com/taibuivan/yomira-studio/internal/platform/dberr"
	"github.com/taibuivan/yomira-studio/internal/platform/events"
	"github.com/taibuivan/yomira-studio/internal/platform/sec"
	"github.com/taibuivan/yomira-studio/internal/platform/validate"
	"github.com/taibuivan/yomira-studio/pkg/pagination"
	"github.com/taibuivan/yomira-studio/pkg/uuid"
)

// Events published on [events.TopicUsers].
const (
	EventCreated       = "user_created"
	EventRoleChanged   = "user_role_changed"
	EventStatusChanged = "user_status_changed"
)

// Service implements the directory use cases.
type Service struct {
	repo      Repository
	audit     audit.Recorder
	publisher events.Publisher
	profiles  ProfileCache
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs the directory service. recorder, publisher and
// profiles may be nil.
func NewService(repo Repository, recorder audit.Recorder, publisher events.Publisher, profiles ProfileCache, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		audit:     recorder,
		publisher: publisher,
		profiles:  profiles,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// # Queries

// List returns a page of the directory.
func (service *Service) List(context context.Context, filter Filter, params pagination.Params) ([]*User, int, error) {
	return service.repo.List(context, filter, params.Limit, params.Offset())
}

// Get returns one member.
func (service *Service) Get(context context.Context, id string) (*User, error) {
	user, err := service.repo.FindByID(context, id)
	if dberr.IsNotFound(err) {
		return nil, apperr.NotFound("User")
	}
	return user, err
}

// UserRole returns the stored role of a member. Unknown roles resolve to the
// lowest role.
func (service *Service) UserRole(context context.Context, id string) (sec.UserRole, error) {
	user, err := service.Get(context, id)
	if err != nil {
		return "", err
	}
	if role, ok := sec.ParseRole(string(user.Role)); ok {
		return role, nil
	}
	return sec.LowestRole, nil
}

// IsActive reports whether a member exists and may receive work.
func (service *Service) IsActive(context context.Context, id string) (bool, error) {
	user, err := service.repo.FindByID(context, id)
	if dberr.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.IsActive, nil
}

// # Commands

// CreateInput carries a new member.
type CreateInput struct {
	Username    string       `json:"username"`
	Email       string       `json:"email"`
	Password    string       `json:"password"`
	DisplayName string       `json:"displayName"`
	Role        sec.UserRole `json:"role"`
}

/*
Create enrols a new staff member.

Description: The role defaults to the lowest role. The password is stored as
a bcrypt hash. The new account is active.

Parameters:
  - ctx: context.Context
  - actorID: string (administrator performing the change)
  - input: CreateInput

Returns:
  - *User: Created member
  - error: Validation errors or Conflict when the username or email is taken
*/
func (service *Service) Create(ctx context.Context, actorID string, input CreateInput) (*User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	if input.Role == "" {
		input.Role = sec.LowestRole
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username).
		MinLen(FieldUsername, input.Username, 3).
		MaxLen(FieldUsername, input.Username, 50).
		Handle(FieldUsername, input.Username).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8).
		Custom(FieldPassword, len(input.Password) > sec.MaxPasswordBytes, "Password must be at most 72 bytes").
		MaxLen(FieldDisplayName, input.DisplayName, 100).
		OneOf(FieldRole, string(input.Role), sec.RoleStrings()...)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	hash, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := service.now()
	user := &User{
		ID:          uuid.New(),
		Username:    input.Username,
		Email:       input.Email,
		Role:        input.Role,
		DisplayName: input.DisplayName,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := service.repo.Create(ctx, user, hash); err != nil {
		if errors.Is(err, apperr.Conflict("")) {
			return nil, apperr.Conflict("Username or email is already registered").WithCause(err)
		}
		return nil, err
	}

	service.logger.InfoContext(ctx, "user_created",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
		slog.String("actor_id", actorID),
	)
	service.record(ctx, audit.ActionCreateUser, actorID, user.ID, nil, user)
	service.publish(ctx, EventCreated, user)
	return user, nil
}

/*
ChangeRole moves a member to another role.

Description: Members cannot change their own role. Effective permissions
follow the new role immediately; the role claim in access tokens follows on
the next refresh.
*/
func (service *Service) ChangeRole(ctx context.Context, actorID, id string, role sec.UserRole) (*User, error) {
	validator := &validate.Validator{}
	validator.Required(FieldRole, string(role)).
		OneOf(FieldRole, string(role), sec.RoleStrings()...)
	if err := validator.Err(); err != nil {
		return nil, err
	}
	if actorID == id {
		return nil, apperr.Forbidden("You cannot change your own role")
	}

	before, err := service.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if before.Role == role {
		return before, nil
	}

	now := service.now()
	if err := service.repo.UpdateRole(ctx, id, role, now); err != nil {
		return nil, service.notFound(err)
	}

	after := *before
	after.Role = role
	after.UpdatedAt = now

	service.logger.InfoContext(ctx, "user_role_changed",
		slog.String("user_id", id),
		slog.String("from", string(before.Role)),
		slog.String("to", string(role)),
		slog.String("actor_id", actorID),
	)
	service.invalidate(ctx, id)
	service.record(ctx, audit.ActionChangeRole, actorID, id, before, &after)
	service.publish(ctx, EventRoleChanged, &after)
	return &after, nil
}

// SetStatus activates or deactivates a member. Members cannot deactivate
// themselves.
func (service *Service) SetStatus(ctx context.Context, actorID, id string, active bool) (*User, error) {
	if actorID == id && !active {
		return nil, apperr.Forbidden("You cannot deactivate your own account")
	}

	before, err := service.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if before.IsActive == active {
		return before, nil
	}

	now := service.now()
	if err := service.repo.UpdateStatus(ctx, id, active, now); err != nil {
		return nil, service.notFound(err)
	}

	after := *before
	after.IsActive = active
	after.UpdatedAt = now

	service.logger.InfoContext(ctx, "user_status_changed",
		slog.String("user_id", id),
		slog.Bool("active", active),
		slog.String("actor_id", actorID),
	)
	service.invalidate(ctx, id)
	service.record(ctx, audit.ActionChangeStatus, actorID, id, before, &after)
	service.publish(ctx, EventStatusChanged, &after)
	return &after, nil
}

// # Helpers

func (service *Service) notFound(err error) error {
	if dberr.IsNotFound(err) {
		return apperr.NotFound("User")
	}
	return err
}

func (service *Service) invalidate(ctx context.Context, id string) {
	if service.profiles == nil {
		return
	}
	if err := service.profiles.Invalidate(ctx, id); err != nil {
		service.logger.WarnContext(ctx, "user_profile_invalidate_failed", slog.String("user_id", id), slog.Any("error", err))
	}
}

func (service *Service) record(ctx context.Context, action, actorID, id string, before, after *User) {
	if service.audit == nil {
		return
	}

	entry := audit.Entry{
		ID:         uuid.New(),
		ActorID:    actorID,
		Action:     action,
		EntityType: audit.EntityUser,
		EntityID:   id,
		CreatedAt:  service.now(),
	}
	if before != nil {
		entry.Before = audit.Snapshot(before)
	}
	if after != nil {
		entry.After = audit.Snapshot(after)
	}

	if err := service.audit.Record(ctx, entry); err != nil {
		service.logger.ErrorContext(ctx, "user_audit_failed",
			slog.String("action", action),
			slog.String("user_id", id),
			slog.Any("error", err),
		)
	}
}

func (service *Service) publish(ctx context.Context, eventType string, user *User) {
	if service.publisher == nil {
		return
	}
	if err := service.publisher.Publish(ctx, events.TopicUsers, eventType, user); err != nil {
		service.logger.WarnContext(ctx, "user_event_publish_failed", slog.String("event", eventType), slog.Any("error", err))
	}
}
