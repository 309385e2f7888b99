// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package permission

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/taibuivan/yomira-studio/internal/platform/apperr"
	"github.com/taibuivan/yomira-studio/internal/platform/audit"
	"github.com/taibuivan/yomira-studio/internal/platform/constants"
	"github.com/taibuivan/yomira-studio/internal/platform/events"
	"github.com/taibuivan/yomira-studio/internal/platform/sec"
)

// Event types published on the per-user permission topic.
const (
	EventOverrideSet     = "permissions_override_set"
	EventOverrideCleared = "permissions_override_cleared"
)

// Resolution sources reported to [ResolutionRecorder].
const (
	SourceCache    = "cache"
	SourceStore    = "store"
	SourceDefaults = "defaults"
)

// ResolutionRecorder counts where effective sets come from.
type ResolutionRecorder interface {
	PermissionResolved(source string)
}

// Subscriber is the read side of the live change feed.
type Subscriber interface {
	Subscribe(topics ...string) (<-chan events.Event, func())
}

// Service is the permission resolution engine.
type Service struct {
	repo       Repository
	cache      Cache
	publisher  events.Publisher
	subscriber Subscriber
	audit      audit.Recorder
	recorder   ResolutionRecorder
	logger     *slog.Logger
	now        func() time.Time
}

// Deps groups the collaborators of [Service]. Cache, Publisher, Subscriber and
// Recorder are optional.
type Deps struct {
	Repository Repository
	Cache      Cache
	Publisher  events.Publisher
	Subscriber Subscriber
	Audit      audit.Recorder
	Recorder   ResolutionRecorder
	Logger     *slog.Logger
}

// NewService creates the permission service.
func NewService(deps Deps) *Service {
	return &Service{
		repo:       deps.Repository,
		cache:      deps.Cache,
		publisher:  deps.Publisher,
		subscriber: deps.Subscriber,
		audit:      deps.Audit,
		recorder:   deps.Recorder,
		logger:     deps.Logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// # Resolution

// RoleDefaults returns the default set of role, logging the least-privilege
// fallback when the role is not recognised.
func (service *Service) RoleDefaults(context context.Context, role sec.UserRole) Set {
	defaults, known := Defaults(role)
	if !known {
		service.logger.WarnContext(context, "permission_unknown_role_fallback",
			slog.String("role", string(role)),
			slog.String("fallback_role", string(sec.LowestRole)),
		)
	}
	return defaults
}

/*
EffectivePermissions resolves the effective set of a user.

It never fails. Override lookup errors degrade to pure role defaults; cache
errors are treated as misses. A set read while an override write was in
flight is returned but not cached.

Parameters:
  - context: context.Context
  - userID: string
  - role: sec.UserRole

Returns:
  - Set: Role defaults overlaid with the user's override
*/
func (service *Service) EffectivePermissions(context context.Context, userID string, role sec.UserRole) Set {
	defaults := service.RoleDefaults(context, role)

	// 1. Cache
	cacheable := false
	var generation int64
	if service.cache != nil {
		cached, err := service.cache.Get(context, userID, role)
		if err != nil {
			service.logger.DebugContext(context, "permission_cache_unavailable", slog.Any("error", err))
		} else if cached != nil {
			service.record(SourceCache)
			return *cached
		}

		// Read before the store so a write landing in between is detected.
		generation, err = service.cache.Generation(context, userID)
		cacheable = err == nil
	}

	// 2. Store
	override, err := service.repo.GetOverride(context, userID)
	if err != nil {
		service.logger.WarnContext(context, "permission_override_lookup_failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		service.record(SourceDefaults)
		return defaults
	}

	effective := Merge(defaults, override)
	service.record(SourceStore)

	// 3. Remember
	if cacheable {
		stored, err := service.cache.Put(context, userID, role, generation, effective)
		switch {
		case err != nil:
			service.logger.DebugContext(context, "permission_cache_put_failed", slog.Any("error", err))
		case !stored:
			service.logger.DebugContext(context, "permission_cache_put_superseded", slog.String("user_id", userID))
		}
	}

	return effective
}

// Check reports whether the user holds key. Keys outside the catalog are false.
func (service *Service) Check(context context.Context, userID string, role sec.UserRole, key sec.Permission) bool {
	if !key.Known() {
		return false
	}
	return service.EffectivePermissions(context, userID, role).Get(key)
}

// CheckAll reports whether the user holds every key. An empty list is true.
func (service *Service) CheckAll(context context.Context, userID string, role sec.UserRole, keys ...sec.Permission) bool {
	effective := service.EffectivePermissions(context, userID, role)
	for _, key := range keys {
		if !effective.Get(key) {
			return false
		}
	}
	return true
}

// CheckAny reports whether the user holds at least one key. An empty list is false.
func (service *Service) CheckAny(context context.Context, userID string, role sec.UserRole, keys ...sec.Permission) bool {
	effective := service.EffectivePermissions(context, userID, role)
	for _, key := range keys {
		if effective.Get(key) {
			return true
		}
	}
	return false
}

// # Override Management

// Override returns the stored override of userID, or nil.
func (service *Service) Override(context context.Context, userID string) (*Override, error) {
	override, err := service.repo.GetOverride(context, userID)
	if err != nil {
		return nil, apperr.ServiceUnavailable("Permission overrides are temporarily unavailable").WithCause(err).WithRetryAfter(constants.UnavailableRetryAfter)
	}
	return override, nil
}

// ListOverrides returns every stored override.
func (service *Service) ListOverrides(context context.Context) ([]UserOverride, error) {
	overrides, err := service.repo.ListOverrides(context)
	if err != nil {
		return nil, apperr.ServiceUnavailable("Permission overrides are temporarily unavailable").WithCause(err).WithRetryAfter(constants.UnavailableRetryAfter)
	}
	return overrides, nil
}

/*
SetOverride replaces the override of a user.

Keys outside the catalog are dropped without error. The write either fully
applies or returns an error; cache invalidation, auditing and the change
notice follow a successful write.

Parameters:
  - context: context.Context
  - userID: string
  - values: map[string]bool (loosely typed input)
  - updatedBy: string (actor user ID)

Returns:
  - *Override: The stored record
  - error: Validation or storage failures
*/
func (service *Service) SetOverride(context context.Context, userID string, values map[string]bool, updatedBy string) (*Override, error) {
	if userID == "" || updatedBy == "" {
		return nil, apperr.ValidationError("User and actor are required")
	}

	override, dropped := OverrideFromMap(values)
	if len(dropped) > 0 {
		sort.Strings(dropped)
		service.logger.InfoContext(context, "permission_unknown_keys_dropped",
			slog.String("user_id", userID),
			slog.Any("keys", dropped),
		)
	}
	override.LastUpdated = service.now()
	override.UpdatedBy = updatedBy

	// Previous state is only used for the audit entry.
	before, err := service.repo.GetOverride(context, userID)
	if err != nil {
		service.logger.WarnContext(context, "permission_override_before_unavailable", slog.Any("error", err))
	}

	if err := service.repo.SaveOverride(context, userID, override); err != nil {
		service.logger.ErrorContext(context, "permission_override_save_failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return nil, apperr.ServiceUnavailable("Could not save the permission changes; nothing was applied").WithCause(err)
	}

	service.afterWrite(context, userID, EventOverrideSet, override)
	service.writeAudit(context, audit.ActionSetPermissionOverride, userID, updatedBy, before.ValuesOrNil(), override.Values())

	service.logger.InfoContext(context, "permission_override_set",
		slog.String("user_id", userID),
		slog.String("updated_by", updatedBy),
		slog.Int("keys", override.Len()),
	)

	return override, nil
}

/*
ClearOverride removes the override of a user, reverting them to role defaults.

It is idempotent: clearing a user without an override succeeds.
*/
func (service *Service) ClearOverride(context context.Context, userID, deletedBy string) error {
	if userID == "" || deletedBy == "" {
		return apperr.ValidationError("User and actor are required")
	}

	before, err := service.repo.GetOverride(context, userID)
	if err != nil {
		service.logger.WarnContext(context, "permission_override_before_unavailable", slog.Any("error", err))
	}

	existed, err := service.repo.DeleteOverride(context, userID)
	if err != nil {
		service.logger.ErrorContext(context, "permission_override_delete_failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return apperr.ServiceUnavailable("Could not remove the permission override; nothing was changed").WithCause(err)
	}

	service.afterWrite(context, userID, EventOverrideCleared, nil)

	if existed {
		service.writeAudit(context, audit.ActionClearPermissionOverride, userID, deletedBy, before.ValuesOrNil(), nil)
	}

	service.logger.InfoContext(context, "permission_override_cleared",
		slog.String("user_id", userID),
		slog.String("deleted_by", deletedBy),
		slog.Bool("existed", existed),
	)
	return nil
}

// # Live Subscription

/*
Subscribe pushes the effective set of a user now and after every override
change, until cancel is called or ctx ends. The caller must call cancel.

Only the latest set is kept for a slow reader.
*/
func (service *Service) Subscribe(ctx context.Context, userID string, role sec.UserRole) (<-chan Set, func()) {
	out := make(chan Set, 1)
	ctx, stop := context.WithCancel(ctx)

	var changes <-chan events.Event
	unsubscribe := func() {}
	if service.subscriber != nil {
		changes, unsubscribe = service.subscriber.Subscribe(events.PermissionsTopic(userID))
	}

	go func() {
		defer close(out)
		defer unsubscribe()

		push := func(set Set) {
			select {
			case <-out:
			default:
			}
			out <- set
		}

		push(service.EffectivePermissions(ctx, userID, role))

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				push(service.EffectivePermissions(ctx, userID, role))
			}
		}
	}()

	return out, stop
}

// # Helpers

func (service *Service) afterWrite(context context.Context, userID, eventType string, override *Override) {
	if service.cache != nil {
		if err := service.cache.Invalidate(context, userID); err != nil {
			service.logger.WarnContext(context, "permission_cache_invalidate_failed",
				slog.String("user_id", userID),
				slog.Any("error", err),
			)
		}
	}

	if service.publisher != nil {
		payload := map[string]any{"userId": userID, "override": override}
		if err := service.publisher.Publish(context, events.PermissionsTopic(userID), eventType, payload); err != nil {
			service.logger.WarnContext(context, "permission_change_publish_failed", slog.Any("error", err))
		}
	}
}

func (service *Service) writeAudit(context context.Context, action, userID, actorID string, before, after map[string]bool) {
	if service.audit == nil {
		return
	}

	at := service.now()
	entry := audit.Entry{
		ActorID:    actorID,
		Action:     action,
		EntityType: audit.EntityUserPermission,
		EntityID:   audit.PermissionEntityID(at, userID),
		Before:     audit.Snapshot(before),
		CreatedAt:  at,
	}
	if after != nil {
		entry.After = audit.Snapshot(after)
	}

	if err := service.audit.Record(context, entry); err != nil {
		service.logger.ErrorContext(context, "permission_audit_failed",
			slog.String("user_id", userID),
			slog.String("action", action),
			slog.Any("error", err),
		)
	}
}

func (service *Service) record(source string) {
	if service.recorder != nil {
		service.recorder.PermissionResolved(source)
	}
}
