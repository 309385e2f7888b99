// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package assignment

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-studio/internal/core/manga"
	"github.com/taibuivan/yomira-studio/internal/platform/apperr"
	"github.com/taibuivan/yomira-studio/internal/platform/middleware"
	requestutil "github.com/taibuivan/yomira-studio/internal/platform/request"
	"github.com/taibuivan/yomira-studio/internal/platform/respond"
	"github.com/taibuivan/yomira-studio/internal/platform/sec"
	"github.com/taibuivan/yomira-studio/internal/platform/validate"
	"github.com/taibuivan/yomira-studio/pkg/pagination"
	"github.com/taibuivan/yomira-studio/pkg/query"
	"github.com/taibuivan/yomira-studio/pkg/uuid"
)

// # Handler Implementation

// Handler exposes the assignment workflow over HTTP.
type Handler struct {
	service *Service
	checker middleware.PermissionChecker
}

// NewHandler constructs an assignment [Handler].
func NewHandler(service *Service, checker middleware.PermissionChecker) *Handler {
	return &Handler{service: service, checker: checker}
}

// Routes returns the authenticated assignment router.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	// ## Reading
	router.Get("/", handler.list)
	router.With(middleware.RequirePermission(handler.checker, sec.PermViewStatistics)).Get("/stats", handler.stats)
	router.Get("/groups", handler.groups)
	router.Get("/{id}", handler.get)

	// ## Creation and removal
	router.With(middleware.RequirePermission(handler.checker, sec.PermAssignChapters)).Post("/", handler.create)
	router.With(middleware.RequirePermission(handler.checker, sec.PermAssignChapters)).Post("/group", handler.createGroup)
	router.With(middleware.RequirePermission(handler.checker, sec.PermDeleteAssignments)).Delete("/{id}", handler.delete)

	// ## Workflow
	router.Post("/complete-group", handler.completeGroup)
	router.Patch("/{id}/progress", handler.progress)
	router.Post("/{id}/submit", handler.submit)
	router.Post("/{id}/approve", handler.approve)
	router.Post("/{id}/reject", handler.reject)
	router.Post("/{id}/reassign", handler.reassign)

	// ## Sharing
	router.With(middleware.RequirePermission(handler.checker, sec.PermCreateShareLinks)).Post("/{id}/share", handler.share)

	return router
}

// SharedRoutes returns the public router behind share tokens. The token is
// the credential, so no authentication is required.
func (handler *Handler) SharedRoutes() chi.Router {
	router := chi.NewRouter()
	router.Get("/{token}", handler.shared)
	router.Patch("/{token}", handler.sharedProgress)
	return router
}

// # Request Shapes

type progressRequest struct {
	Progress int `json:"progress"`
}

type submitRequest struct {
	DriveLink string `json:"driveLink"`
}

type rejectRequest struct {
	Comment string `json:"comment"`
}

type reassignRequest struct {
	AssigneeID string `json:"assigneeId"`
}

type completeGroupRequest struct {
	IDs []string `json:"ids"`
}

// # Endpoints

/*
GET /api/v1/assignments.

Request:
  - assignee, manga, taskType: filters
  - status: comma separated statuses
  - page, limit: pagination
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	actor, err := actorOf(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	filter, err := filterFrom(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	views, total, err := handler.service.List(request.Context(), filter, params, actor)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, views, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
GET /api/v1/assignments/stats.
*/
func (handler *Handler) stats(writer http.ResponseWriter, request *http.Request) {
	filter, err := filterFrom(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	stats, err := handler.service.Stats(request.Context(), filter)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, stats)
}

/*
GET /api/v1/assignments/groups.

Description: Sibling tasks grouped by manga, chapter and assignee.
*/
func (handler *Handler) groups(writer http.ResponseWriter, request *http.Request) {
	actor, err := actorOf(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	filter, err := filterFrom(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	groups, err := handler.service.Groups(request.Context(), filter, actor)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, groups)
}

/*
GET /api/v1/assignments/{id}.
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	actor, err := actorOf(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.service.Get(request.Context(), requestutil.ID(request, "id"), actor)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view)
}

/*
POST /api/v1/assignments.

Description: Fails with 409 CHAPTER_ALREADY_DONE when the chapter is
published.

Request:
  - CreateInput
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	actor, err := actorOf(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input CreateInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	assignment, err := handler.service.Create(request.Context(), input, actor)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, assignment.View(time.Now().UTC()))
}

/*
POST /api/v1/assignments/group.

Answers 201 when at least one sibling was created and 422 when none was.
*/
func (handler *Handler) createGroup(writer http.ResponseWriter, request *http.Request) {
	actor, err := actorOf(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input CreateGroupInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.CreateGroup(request.Context(), input, actor)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if result.Succeeded == 0 {
		respond.JSON(writer, http.StatusUnprocessableEntity, respond.SuccessEnvelope{Data: result})
		return
	}
	respond.Created(writer, result)
}

/*
DELETE /api/v1/assignments/{id}.
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	actor, err := actorOf(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), requestutil.ID(request, "id"), actor); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
POST /api/v1/assignments/complete-group.

Request:
  - ids: []string
*/
func (handler *Handler) completeGroup(writer http.ResponseWriter, request *http.Request) {
	actor, err := actorOf(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input completeGroupRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.CompleteGroup(request.Context(), input.IDs, actor)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, result)
}

/*
PATCH /api/v1/assignments/{id}/progress.

Request:
  - progress: int (1..100, 100 completes the task)
*/
func (handler *Handler) progress(writer http.ResponseWriter, request *http.Request) {
	handler.step(writer, request, func(actor Actor, id string) (*Assignment, error) {
		var input progressRequest
		if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
			return nil, err
		}
		return handler.service.UpdateProgress(request.Context(), id, input.Progress, actor)
	})
}

/*
POST /api/v1/assignments/{id}/submit.

Request:
  - driveLink: string (optional when already set)
*/
func (handler *Handler) submit(writer http.ResponseWriter, request *http.Request) {
	handler.step(writer, request, func(actor Actor, id string) (*Assignment, error) {
		var input submitRequest
		if request.ContentLength != 0 {
			if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
				return nil, err
			}
		}
		return handler.service.Submit(request.Context(), id, input.DriveLink, actor)
	})
}

/*
POST /api/v1/assignments/{id}/approve.
*/
func (handler *Handler) approve(writer http.ResponseWriter, request *http.Request) {
	handler.step(writer, request, func(actor Actor, id string) (*Assignment, error) {
		return handler.service.Approve(request.Context(), id, actor)
	})
}

/*
POST /api/v1/assignments/{id}/reject.

Request:
  - comment: string (required)
*/
func (handler *Handler) reject(writer http.ResponseWriter, request *http.Request) {
	handler.step(writer, request, func(actor Actor, id string) (*Assignment, error) {
		var input rejectRequest
		if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
			return nil, err
		}
		return handler.service.Reject(request.Context(), id, input.Comment, actor)
	})
}

/*
POST /api/v1/assignments/{id}/reassign.

Request:
  - assigneeId: string
*/
func (handler *Handler) reassign(writer http.ResponseWriter, request *http.Request) {
	handler.step(writer, request, func(actor Actor, id string) (*Assignment, error) {
		var input reassignRequest
		if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
			return nil, err
		}
		return handler.service.Reassign(request.Context(), id, input.AssigneeID, actor)
	})
}

/*
POST /api/v1/assignments/{id}/share.

Description: Returns a token for /api/v1/shared/{token}. The token is shown
once.
*/
func (handler *Handler) share(writer http.ResponseWriter, request *http.Request) {
	actor, err := actorOf(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	link, err := handler.service.CreateShareLink(request.Context(), requestutil.ID(request, "id"), actor)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, link)
}

/*
GET /api/v1/shared/{token}.
*/
func (handler *Handler) shared(writer http.ResponseWriter, request *http.Request) {
	view, err := handler.service.Shared(request.Context(), requestutil.Param(request, "token"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view)
}

/*
PATCH /api/v1/shared/{token}.

Request:
  - progress: int
*/
func (handler *Handler) sharedProgress(writer http.ResponseWriter, request *http.Request) {
	var input progressRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.service.SharedProgress(request.Context(), requestutil.Param(request, "token"), input.Progress)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view)
}

// # Helpers

// step runs one workflow endpoint on /{id} and renders the updated view.
func (handler *Handler) step(writer http.ResponseWriter, request *http.Request, run func(actor Actor, id string) (*Assignment, error)) {
	actor, err := actorOf(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	assignment, err := run(actor, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, assignment.View(time.Now().UTC()))
}

func actorOf(request *http.Request) (Actor, error) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		return Actor{}, err
	}
	return ActorFromClaims(claims), nil
}

func filterFrom(request *http.Request) (Filter, error) {
	values := request.URL.Query()
	filter := Filter{
		AssigneeID: strings.TrimSpace(values.Get("assignee")),
		MangaID:    strings.TrimSpace(values.Get("manga")),
		TaskType:   manga.TaskType(strings.TrimSpace(values.Get("taskType"))),
	}

	if filter.AssigneeID != "" && !uuid.Valid(filter.AssigneeID) {
		return Filter{}, validate.Invalid("assignee", "Must be a UUID")
	}
	if filter.MangaID != "" && !uuid.Valid(filter.MangaID) {
		return Filter{}, validate.Invalid("manga", "Must be a UUID")
	}

	if filter.TaskType != "" && !filter.TaskType.Valid() {
		return Filter{}, apperr.ValidationError("Unknown task type", apperr.FieldError{Field: "taskType", Message: "Must be one of " + strings.Join(manga.TaskTypeStrings(), ", ")})
	}

	for _, raw := range query.StringSlice(values.Get("status")) {
		status := Status(raw)
		if !status.Valid() {
			return Filter{}, apperr.ValidationError("Unknown status", apperr.FieldError{Field: "status", Message: "Must be one of " + strings.Join(StatusStrings(), ", ")})
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	return filter, nil
}
