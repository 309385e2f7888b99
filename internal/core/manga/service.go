// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package manga

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/yomira-studio/internal/platform/apperr"
	"github.com/taibuivan/yomira-studio/internal/platform/batch"
	"github.com/taibuivan/yomira-studio/internal/platform/dberr"
	"github.com/taibuivan/yomira-studio/internal/platform/events"
	"github.com/taibuivan/yomira-studio/internal/platform/validate"
	"github.com/taibuivan/yomira-studio/pkg/pagination"
	"github.com/taibuivan/yomira-studio/pkg/pointer"
	"github.com/taibuivan/yomira-studio/pkg/slug"
	"github.com/taibuivan/yomira-studio/pkg/uuid"
)

// Event types published on [events.TopicMangas].
const (
	EventMangaCreated     = "manga_created"
	EventMangaUpdated     = "manga_updated"
	EventChapterPublished = "chapter_published"
	EventChaptersRepaired = "chapters_repaired"
)

// maxTotalChapters bounds the declared chapter count of a series.
const maxTotalChapters = 100000

// # Inputs

// CreateInput is the payload for [Service.Create].
type CreateInput struct {
	Title            string     `json:"title"`
	CoverURL         *string    `json:"coverUrl"`
	IsJoint          bool       `json:"isJoint"`
	JointGroup       *string    `json:"jointGroup"`
	AllowedTaskTypes []TaskType `json:"allowedTaskTypes"`
	TotalChapters    int        `json:"totalChapters"`
}

// UpdateInput is the payload for [Service.Update]. Nil fields are left unchanged.
type UpdateInput struct {
	Title            *string     `json:"title"`
	CoverURL         *string     `json:"coverUrl"`
	IsJoint          *bool       `json:"isJoint"`
	JointGroup       *string     `json:"jointGroup"`
	AllowedTaskTypes *[]TaskType `json:"allowedTaskTypes"`
	TotalChapters    *int        `json:"totalChapters"`
}

// # Service

// Service implements the manga catalogue.
type Service struct {
	repo      Repository
	publisher events.Publisher
	recorder  batch.Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a new manga [Service]. publisher and recorder may be nil.
func NewService(repo Repository, publisher events.Publisher, recorder batch.Recorder, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		recorder:  recorder,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ## Catalogue

// List returns a page of mangas and the total count.
func (service *Service) List(context context.Context, filter Filter, params pagination.Params) ([]*Manga, int, error) {
	return service.repo.List(context, filter, params.Limit, params.Offset())
}

// Get returns one manga.
func (service *Service) Get(context context.Context, id string) (*Manga, error) {
	manga, err := service.repo.FindByID(context, id)
	if dberr.IsNotFound(err) {
		return nil, apperr.NotFound("Manga")
	}
	return manga, err
}

/*
Create registers a new manga in the catalogue.

The slug is derived from the title. Joint mangas must list at least one task
type the studio takes on; non-joint mangas drop the list.

Parameters:
  - context: context.Context
  - input: CreateInput
  - actorID: string

Returns:
  - *Manga: The stored manga
  - error: Validation or conflict errors
*/
func (service *Service) Create(context context.Context, input CreateInput, actorID string) (*Manga, error) {
	input.Title = strings.TrimSpace(input.Title)
	mangaSlug := slug.From(input.Title)

	validator := &validate.Validator{}
	validator.Required("title", input.Title).MaxLen("title", input.Title, 255).
		Custom("title", input.Title != "" && mangaSlug == "", "Title must contain letters or digits").
		OptionalURL("coverUrl", pointer.Val(input.CoverURL)).
		Range("totalChapters", input.TotalChapters, 0, maxTotalChapters)
	validateJoint(validator, input.IsJoint, input.AllowedTaskTypes)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	now := service.now()
	manga := &Manga{
		ID:               uuid.New(),
		Title:            input.Title,
		Slug:             mangaSlug,
		CoverURL:         input.CoverURL,
		IsJoint:          input.IsJoint,
		JointGroup:       input.JointGroup,
		AllowedTaskTypes: jointTaskTypes(input.IsJoint, input.AllowedTaskTypes),
		TotalChapters:    input.TotalChapters,
		CreatedBy:        actorID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := service.repo.Create(context, manga); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "manga_created",
		slog.String("manga_id", manga.ID),
		slog.String("slug", manga.Slug),
		slog.Bool("joint", manga.IsJoint),
	)
	service.publish(context, EventMangaCreated, manga)

	return manga, nil
}

// Update applies a partial update to a manga. The slug never changes.
func (service *Service) Update(context context.Context, id string, input UpdateInput) (*Manga, error) {
	manga, err := service.Get(context, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		manga.Title = strings.TrimSpace(*input.Title)
	}
	if input.CoverURL != nil {
		manga.CoverURL = input.CoverURL
	}
	if input.IsJoint != nil {
		manga.IsJoint = *input.IsJoint
	}
	if input.JointGroup != nil {
		manga.JointGroup = input.JointGroup
	}
	if input.AllowedTaskTypes != nil {
		manga.AllowedTaskTypes = *input.AllowedTaskTypes
	}
	if input.TotalChapters != nil {
		manga.TotalChapters = *input.TotalChapters
	}

	validator := &validate.Validator{}
	validator.Required("title", manga.Title).MaxLen("title", manga.Title, 255).
		OptionalURL("coverUrl", pointer.Val(manga.CoverURL)).
		Range("totalChapters", manga.TotalChapters, 0, maxTotalChapters)
	validateJoint(validator, manga.IsJoint, manga.AllowedTaskTypes)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	manga.AllowedTaskTypes = jointTaskTypes(manga.IsJoint, manga.AllowedTaskTypes)
	manga.UpdatedAt = service.now()

	if err := service.repo.Update(context, manga); err != nil {
		if dberr.IsNotFound(err) {
			return nil, apperr.NotFound("Manga")
		}
		return nil, err
	}

	service.publish(context, EventMangaUpdated, manga)
	return manga, nil
}

// ## Chapters

// Chapters lists the chapters of a manga in numeric order.
func (service *Service) Chapters(context context.Context, mangaID string) ([]*Chapter, error) {
	if _, err := service.Get(context, mangaID); err != nil {
		return nil, err
	}
	return service.repo.ListChapters(context, mangaID)
}

// ChapterStatus returns the publication status of a chapter. Chapters that
// have never been recorded are [PublicationNone].
func (service *Service) ChapterStatus(context context.Context, mangaID, number string) (PublicationStatus, error) {
	chapter, err := service.repo.FindChapter(context, mangaID, EncodeChapterNumber(number))
	if dberr.IsNotFound(err) {
		return PublicationNone, nil
	}
	if err != nil {
		return "", err
	}
	return chapter.Status, nil
}

// MarkInWork records that work has started on a chapter.
func (service *Service) MarkInWork(context context.Context, mangaID, number string) error {
	return service.repo.MarkInWork(context, mangaID, EncodeChapterNumber(number), service.now())
}

/*
PublishChapter marks a chapter published.

This is the only place a chapter's publication status becomes published.
Publishing an already published chapter is a no-op reported as false.

Parameters:
  - context: context.Context
  - mangaID: string
  - number: string (plain or encoded chapter number)
  - uploadLink: *string (optional public link)
  - actorID: string

Returns:
  - bool: Whether the status changed
  - error: Validation or storage errors
*/
func (service *Service) PublishChapter(context context.Context, mangaID, number string, uploadLink *string, actorID string) (bool, error) {
	number, err := ParseChapterNumber(number)
	if err != nil {
		return false, err
	}
	if err := (&validate.Validator{}).OptionalURL("uploadLink", pointer.Val(uploadLink)).Err(); err != nil {
		return false, err
	}

	changed, err := service.repo.Publish(context, mangaID, EncodeChapterNumber(number), uploadLink, actorID, service.now())
	if err != nil {
		return false, err
	}

	if changed {
		service.logger.InfoContext(context, "chapter_published",
			slog.String("manga_id", mangaID),
			slog.String("chapter", number),
			slog.String("published_by", actorID),
		)
		service.publish(context, EventChapterPublished, map[string]string{"mangaId": mangaID, "chapter": number})
	}
	return changed, nil
}

/*
ImportChapters loads chapter records exported from the previous document
store, folding their publication signals with [NormalizeLegacy].

Records are processed one at a time; invalid ones are reported in the result.
*/
func (service *Service) ImportChapters(ctx context.Context, mangaID string, records []LegacyChapter) (batch.Result, error) {
	if _, err := service.Get(ctx, mangaID); err != nil {
		return batch.Result{}, err
	}

	byNumber := make(map[string]LegacyChapter, len(records))
	numbers := make([]string, 0, len(records))
	for _, record := range records {
		byNumber[record.Number] = record
		numbers = append(numbers, record.Number)
	}

	now := service.now()
	result := batch.Run(ctx, numbers, func(ctx context.Context, raw string) error {
		record := byNumber[raw]
		number, err := ParseChapterNumber(raw)
		if err != nil {
			return err
		}

		chapter := &Chapter{
			MangaID:    mangaID,
			Number:     number,
			Key:        EncodeChapterNumber(number),
			Title:      pointer.NonZero(strings.TrimSpace(record.Title)),
			RawLink:    pointer.NonZero(strings.TrimSpace(record.RawLink)),
			Status:     NormalizeLegacy(record),
			UploadLink: pointer.NonZero(strings.TrimSpace(record.UploadLink)),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if chapter.Status.Published() {
			chapter.PublishedAt = record.UploadedAt
			if chapter.PublishedAt == nil {
				chapter.PublishedAt = pointer.To(now)
			}
		}
		return service.repo.SaveChapter(ctx, chapter)
	})
	result.Report(service.recorder, "import_chapters")

	if result.Succeeded > 0 {
		if err := service.repo.Recount(ctx, mangaID, now); err != nil {
			service.logger.WarnContext(ctx, "manga_recount_failed", slog.String("manga_id", mangaID), slog.Any("error", err))
		}
	}

	service.logger.InfoContext(ctx, "chapters_imported",
		slog.String("manga_id", mangaID),
		slog.Int("succeeded", result.Succeeded),
		slog.Int("failed", result.Failed),
	)
	return result, nil
}

// ## Repair

/*
SyncAssignmentsWithPublishedChapters realigns chapter publication state with
the assignment history and refreshes the per-manga counters.

It is safe to run repeatedly; a second run without new uploads changes nothing.
*/
func (service *Service) SyncAssignmentsWithPublishedChapters(context context.Context) (RepairReport, error) {
	report, err := service.repo.Repair(context, service.now())
	if err != nil {
		return report, fmt.Errorf("manga repair: %w", err)
	}

	service.logger.InfoContext(context, "chapters_repaired",
		slog.Int("published", report.ChaptersPublished),
		slog.Int("in_work", report.ChaptersInWork),
		slog.Int("recounted", report.MangasRecounted),
	)
	if report.Changed() {
		service.publish(context, EventChaptersRepaired, report)
	}
	return report, nil
}

// # Helpers

func (service *Service) publish(context context.Context, eventType string, payload any) {
	if service.publisher == nil {
		return
	}
	if err := service.publisher.Publish(context, events.TopicMangas, eventType, payload); err != nil {
		service.logger.WarnContext(context, "manga_event_publish_failed",
			slog.String("type", eventType),
			slog.Any("error", err),
		)
	}
}

func validateJoint(validator *validate.Validator, joint bool, taskTypes []TaskType) {
	if !joint {
		return
	}
	validator.Custom("allowedTaskTypes", len(taskTypes) == 0, "Joint mangas need at least one allowed task type")
	for _, taskType := range taskTypes {
		validator.Custom("allowedTaskTypes", !taskType.Valid(), fmt.Sprintf("Unknown task type %q", taskType))
	}
}

func jointTaskTypes(joint bool, taskTypes []TaskType) []TaskType {
	if !joint {
		return []TaskType{}
	}
	return taskTypes
}
