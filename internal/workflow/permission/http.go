// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package permission

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-studio/internal/platform/apperr"
	"github.com/taibuivan/yomira-studio/internal/platform/audit"
	"github.com/taibuivan/yomira-studio/internal/platform/middleware"
	requestutil "github.com/taibuivan/yomira-studio/internal/platform/request"
	"github.com/taibuivan/yomira-studio/internal/platform/respond"
	"github.com/taibuivan/yomira-studio/internal/platform/sec"
	"github.com/taibuivan/yomira-studio/pkg/query"
)

// RoleLookup resolves the current role of a user.
type RoleLookup interface {
	UserRole(context context.Context, userID string) (sec.UserRole, error)
}

// HistoryReader lists audit entries.
type HistoryReader interface {
	List(context context.Context, entityType string, limit int) ([]audit.Entry, error)
}

// # Handler Implementation

// Handler exposes the permission engine over HTTP.
type Handler struct {
	service *Service
	roles   RoleLookup
	history HistoryReader
}

// NewHandler constructs a permission [Handler]. history may be nil.
func NewHandler(service *Service, roles RoleLookup, history HistoryReader) *Handler {
	return &Handler{service: service, roles: roles, history: history}
}

// Routes returns the permission router. Every route requires authentication.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	// ## Self-service
	router.Get("/catalog", handler.catalog)
	router.Get("/me", handler.me)

	// ## Administration
	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequirePermission(handler.service, sec.PermManagePermissions))
		admin.Get("/users", handler.listOverrides)
		admin.Get("/users/{id}", handler.getUser)
		admin.Put("/users/{id}", handler.setOverride)
		admin.Delete("/users/{id}", handler.clearOverride)
		admin.Get("/audit", handler.auditTrail)
	})

	return router
}

// # Response Shapes

type catalogResponse struct {
	Keys     []sec.Permission     `json:"keys"`
	Defaults map[sec.UserRole]Set `json:"defaults"`
}

type userPermissions struct {
	UserID    string       `json:"userId"`
	Role      sec.UserRole `json:"role"`
	Defaults  Set          `json:"defaults"`
	Override  *Override    `json:"override"`
	Effective Set          `json:"effective"`
}

type setOverrideRequest struct {
	Permissions map[string]bool `json:"permissions"`
}

// # Endpoints

/*
GET /api/v1/permissions/catalog.

Description: Lists every permission key and the default set of each role.
*/
func (handler *Handler) catalog(writer http.ResponseWriter, request *http.Request) {
	defaults := make(map[sec.UserRole]Set, len(sec.Roles))
	for _, role := range sec.Roles {
		defaults[role], _ = Defaults(role)
	}
	respond.OK(writer, catalogResponse{Keys: sec.Catalog, Defaults: defaults})
}

/*
GET /api/v1/permissions/me.

Description: Returns the caller's effective permission set.
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, handler.service.EffectivePermissions(request.Context(), claims.UserID, claims.StaffRole()))
}

/*
GET /api/v1/permissions/users.

Description: Lists every stored override.
*/
func (handler *Handler) listOverrides(writer http.ResponseWriter, request *http.Request) {
	overrides, err := handler.service.ListOverrides(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, overrides)
}

/*
GET /api/v1/permissions/users/{id}.

Description: Shows how the effective set of one user is composed.
*/
func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
	view, err := handler.describe(request, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view)
}

/*
PUT /api/v1/permissions/users/{id}.

Description: Replaces the override of a user. Unknown keys are ignored.

Request:
  - permissions: map[string]bool
*/
func (handler *Handler) setOverride(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	userID := requestutil.ID(request, "id")
	if err := handler.guardTarget(request, claims, userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input setOverrideRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if _, err := handler.service.SetOverride(request.Context(), userID, input.Permissions, claims.UserID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.describe(request, userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view)
}

/*
DELETE /api/v1/permissions/users/{id}.

Description: Reverts a user to role defaults. Repeating the call is harmless.
*/
func (handler *Handler) clearOverride(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	userID := requestutil.ID(request, "id")
	if err := handler.guardTarget(request, claims, userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.ClearOverride(request.Context(), userID, claims.UserID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
GET /api/v1/permissions/audit.

Description: Returns the newest permission audit entries.

Request:
  - limit: int (default 50, max 200)
*/
func (handler *Handler) auditTrail(writer http.ResponseWriter, request *http.Request) {
	if handler.history == nil {
		respond.OK(writer, []audit.Entry{})
		return
	}

	limit := query.IntBetween(request.URL.Query(), "limit", 50, 1, 200)

	entries, err := handler.history.List(request.Context(), audit.EntityUserPermission, limit)
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}
	respond.OK(writer, entries)
}

// # Helpers

func (handler *Handler) describe(request *http.Request, userID string) (*userPermissions, error) {
	role, err := handler.roles.UserRole(request.Context(), userID)
	if err != nil {
		return nil, err
	}

	override, err := handler.service.Override(request.Context(), userID)
	if err != nil {
		return nil, err
	}

	return &userPermissions{
		UserID:    userID,
		Role:      role,
		Defaults:  handler.service.RoleDefaults(request.Context(), role),
		Override:  override,
		Effective: handler.service.EffectivePermissions(request.Context(), userID, role),
	}, nil
}

// guardTarget stops self-escalation and edits of higher-ranked users. Admins are exempt.
func (handler *Handler) guardTarget(request *http.Request, claims *sec.AuthClaims, userID string) error {
	actorRole := claims.StaffRole()
	if actorRole == sec.RoleAdmin {
		return nil
	}
	if claims.UserID == userID {
		return apperr.Forbidden("You cannot change your own permissions")
	}

	targetRole, err := handler.roles.UserRole(request.Context(), userID)
	if err != nil {
		return err
	}
	if !actorRole.Outranks(targetRole) {
		return apperr.Forbidden("You can only change permissions of lower-ranked users")
	}
	return nil
}
