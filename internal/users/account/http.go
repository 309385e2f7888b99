// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-studio/internal/platform/middleware"
	requestutil "github.com/taibuivan/yomira-studio/internal/platform/request"
	"github.com/taibuivan/yomira-studio/internal/platform/respond"
	"github.com/taibuivan/yomira-studio/internal/platform/sec"
	"github.com/taibuivan/yomira-studio/internal/platform/validate"
	"github.com/taibuivan/yomira-studio/pkg/pagination"
	querystring "github.com/taibuivan/yomira-studio/pkg/query"
)

// Handler exposes the directory over HTTP.
type Handler struct {
	service *Service
	checker middleware.PermissionChecker
}

// NewHandler constructs a directory [Handler].
func NewHandler(service *Service, checker middleware.PermissionChecker) *Handler {
	return &Handler{service: service, checker: checker}
}

// Routes returns the /users router.
//
// # Endpoints
//   - GET    /             : Directory listing (any member, for assignee pickers)
//   - GET    /{id}         : One member
//   - POST   /             : Create a member (canManageUsers)
//   - PATCH  /{id}/role    : Change role (canManageUsers)
//   - PATCH  /{id}/status  : Activate or deactivate (canManageUsers)
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.list)
	router.Get("/{id}", handler.get)

	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequirePermission(handler.checker, sec.PermManageUsers))
		admin.Post("/", handler.create)
		admin.Patch("/{id}/role", handler.changeRole)
		admin.Patch("/{id}/status", handler.setStatus)
	})

	return router
}

/*
GET /api/v1/users.

Request:
  - role: string (optional)
  - active: bool (optional)
  - q: string (optional search)
  - page, limit: pagination
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	query := request.URL.Query()

	filter := Filter{
		Role:   sec.UserRole(strings.TrimSpace(query.Get("role"))),
		Search: query.Get("q"),
	}
	filter.Active = querystring.OptionalBool(query, "active")

	if filter.Role != "" {
		validator := &validate.Validator{}
		validator.OneOf(FieldRole, string(filter.Role), sec.RoleStrings()...)
		if err := validator.Err(); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	users, total, err := handler.service.List(request.Context(), filter, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if users == nil {
		users = []*User{}
	}
	respond.Paginated(writer, users, pagination.NewMeta(params.Page, params.Limit, total))
}

// GET /api/v1/users/{id}.
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	user, err := handler.service.Get(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, user)
}

/*
POST /api/v1/users.

Response:
  - 201: User
  - 400: Validation failure
  - 409: Username or email taken
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input CreateInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.Create(request.Context(), actorID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, user)
}

type roleRequest struct {
	Role sec.UserRole `json:"role"`
}

// PATCH /api/v1/users/{id}/role.
func (handler *Handler) changeRole(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input roleRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.ChangeRole(request.Context(), actorID, requestutil.ID(request, "id"), input.Role)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, user)
}

type statusRequest struct {
	IsActive *bool `json:"isActive"`
}

// PATCH /api/v1/users/{id}/status.
func (handler *Handler) setStatus(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input statusRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if input.IsActive == nil {
		respond.Error(writer, request, validate.Invalid(FieldIsActive, "isActive is required"))
		return
	}

	user, err := handler.service.SetStatus(request.Context(), actorID, requestutil.ID(request, "id"), *input.IsActive)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, user)
}
