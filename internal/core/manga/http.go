// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package manga

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-studio/internal/platform/apperr"
	"github.com/taibuivan/yomira-studio/internal/platform/middleware"
	requestutil "github.com/taibuivan/yomira-studio/internal/platform/request"
	"github.com/taibuivan/yomira-studio/internal/platform/respond"
	"github.com/taibuivan/yomira-studio/internal/platform/sec"
	"github.com/taibuivan/yomira-studio/pkg/pagination"
)

// # Handler Implementation

// Handler exposes the manga catalogue over HTTP.
type Handler struct {
	service *Service
	checker middleware.PermissionChecker
}

// NewHandler constructs a manga [Handler].
func NewHandler(service *Service, checker middleware.PermissionChecker) *Handler {
	return &Handler{service: service, checker: checker}
}

// Routes returns the manga router. Every route requires authentication.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	// ## Reading
	router.Get("/", handler.list)
	router.Get("/{id}", handler.get)
	router.Get("/{id}/chapters", handler.chapters)

	// ## Catalogue management
	router.Group(func(manage chi.Router) {
		manage.Use(middleware.RequirePermission(handler.checker, sec.PermManageMangas))
		manage.Post("/", handler.create)
		manage.Patch("/{id}", handler.update)
		manage.Post("/{id}/chapters/import", handler.importChapters)
	})

	// ## Publication
	router.With(middleware.RequirePermission(handler.checker, sec.PermUploadChapters)).
		Post("/{id}/chapters/{chapter}/publish", handler.publish)

	// ## Maintenance
	router.With(middleware.RequirePermission(handler.checker, sec.PermManageMangas)).Post("/sync", handler.sync)

	return router
}

// # Request Shapes

type publishRequest struct {
	UploadLink *string `json:"uploadLink"`
}

type importRequest struct {
	Chapters []LegacyChapter `json:"chapters"`
}

type publishResponse struct {
	MangaID string `json:"mangaId"`
	Chapter string `json:"chapter"`
	Changed bool   `json:"changed"`
}

// # Endpoints

/*
GET /api/v1/mangas.

Request:
  - q: string (title search)
  - joint: "true" | "false"
  - page, limit: pagination
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	query := request.URL.Query()

	filter := Filter{Search: query.Get("q")}
	switch strings.ToLower(query.Get("joint")) {
	case "true":
		joint := true
		filter.Joint = &joint
	case "false":
		joint := false
		filter.Joint = &joint
	}

	mangas, total, err := handler.service.List(request.Context(), filter, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if mangas == nil {
		mangas = []*Manga{}
	}
	respond.Paginated(writer, mangas, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
GET /api/v1/mangas/{id}.
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	manga, err := handler.service.Get(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, manga)
}

/*
GET /api/v1/mangas/{id}/chapters.

Description: Lists chapters in numeric order with their publication status.
*/
func (handler *Handler) chapters(writer http.ResponseWriter, request *http.Request) {
	chapters, err := handler.service.Chapters(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if chapters == nil {
		chapters = []*Chapter{}
	}
	respond.OK(writer, chapters)
}

/*
POST /api/v1/mangas.

Request:
  - CreateInput
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input CreateInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	manga, err := handler.service.Create(request.Context(), input, userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, manga)
}

/*
PATCH /api/v1/mangas/{id}.

Request:
  - UpdateInput (partial)
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	var input UpdateInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	manga, err := handler.service.Update(request.Context(), requestutil.ID(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, manga)
}

/*
POST /api/v1/mangas/{id}/chapters/{chapter}/publish.

Description: Marks one chapter published. {chapter} is the encoded chapter
number ("12_5").

Request:
  - uploadLink: string (optional)
*/
func (handler *Handler) publish(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input publishRequest
	if request.ContentLength != 0 {
		if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	mangaID := requestutil.ID(request, "id")
	if _, err := handler.service.Get(request.Context(), mangaID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	chapter := DecodeChapterNumber(requestutil.Param(request, "chapter"))
	changed, err := handler.service.PublishChapter(request.Context(), mangaID, chapter, input.UploadLink, userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, publishResponse{MangaID: mangaID, Chapter: chapter, Changed: changed})
}

/*
POST /api/v1/mangas/{id}/chapters/import.

Description: Loads legacy chapter records and normalizes their publication
state. Returns per-record counts.
*/
func (handler *Handler) importChapters(writer http.ResponseWriter, request *http.Request) {
	var input importRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if len(input.Chapters) == 0 {
		respond.Error(writer, request, apperr.ValidationError("At least one chapter is required"))
		return
	}

	result, err := handler.service.ImportChapters(request.Context(), requestutil.ID(request, "id"), input.Chapters)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, result)
}

/*
POST /api/v1/mangas/sync.

Description: Runs the publication repair pass immediately.
*/
func (handler *Handler) sync(writer http.ResponseWriter, request *http.Request) {
	report, err := handler.service.SyncAssignmentsWithPublishedChapters(request.Context())
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}
	respond.OK(writer, report)
}
