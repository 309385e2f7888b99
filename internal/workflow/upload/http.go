// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package upload

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-studio/internal/platform/middleware"
	requestutil "github.com/taibuivan/yomira-studio/internal/platform/request"
	"github.com/taibuivan/yomira-studio/internal/platform/respond"
	"github.com/taibuivan/yomira-studio/internal/platform/sec"
	"github.com/taibuivan/yomira-studio/pkg/pagination"
)

// Handler exposes the upload workflow over HTTP.
type Handler struct {
	service *Service
	checker middleware.PermissionChecker
}

// NewHandler constructs an upload [Handler].
func NewHandler(service *Service, checker middleware.PermissionChecker) *Handler {
	return &Handler{service: service, checker: checker}
}

// Routes returns the upload router.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Group(func(uploads chi.Router) {
		uploads.Use(middleware.RequirePermission(handler.checker, sec.PermUploadChapters))
		uploads.Get("/pending", handler.pending)
		uploads.Get("/draft", handler.draft)
		uploads.Put("/draft", handler.saveDraft)
		uploads.Delete("/draft", handler.clearDraft)
		uploads.Post("/finalize", handler.finalize)
	})

	router.Group(func(reports chi.Router) {
		reports.Use(middleware.RequirePermission(handler.checker, sec.PermViewReports))
		reports.Get("/reports", handler.reports)
		reports.Get("/reports/{id}", handler.report)
	})

	return router
}

/*
GET /api/v1/uploads/pending.

Request:
  - manga: string (optional manga filter)
  - page, limit: pagination
*/
func (handler *Handler) pending(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	mangaID := strings.TrimSpace(request.URL.Query().Get("manga"))

	views, total, err := handler.service.Pending(request.Context(), mangaID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, views, pagination.NewMeta(params.Page, params.Limit, total))
}

// GET /api/v1/uploads/draft.
func (handler *Handler) draft(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	draft, err := handler.service.Draft(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, draft)
}

/*
PUT /api/v1/uploads/draft.

Request:
  - assignmentIds: []string
  - uploadLinks: map of assignment ID to public link
  - notes: string
*/
func (handler *Handler) saveDraft(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input Draft
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	draft, err := handler.service.SaveDraft(request.Context(), userID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, draft)
}

// DELETE /api/v1/uploads/draft.
func (handler *Handler) clearDraft(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.ClearDraft(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
POST /api/v1/uploads/finalize.

Description: Uploads the listed assignments and writes the batch report.
Responds 201 when a report was written, 200 with only counts otherwise.
*/
func (handler *Handler) finalize(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input FinalizeInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	uploader := Uploader{ID: claims.UserID, Name: claims.Username}
	result, err := handler.service.FinalizeBatch(request.Context(), uploader, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if result.Report == nil {
		respond.OK(writer, result)
		return
	}
	respond.Created(writer, result)
}

/*
GET /api/v1/uploads/reports.

Request:
  - uploader: string (optional)
  - page, limit: pagination
*/
func (handler *Handler) reports(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	uploaderID := strings.TrimSpace(request.URL.Query().Get("uploader"))

	reports, total, err := handler.service.Reports(request.Context(), uploaderID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if reports == nil {
		reports = []*Report{}
	}
	respond.Paginated(writer, reports, pagination.NewMeta(params.Page, params.Limit, total))
}

// GET /api/v1/uploads/reports/{id}.
func (handler *Handler) report(writer http.ResponseWriter, request *http.Request) {
	report, err := handler.service.Report(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, report)
}
