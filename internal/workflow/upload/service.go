// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package upload

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/yomira-studio/internal/platform/apperr"
	"github.com/taibuivan/yomira-studio/internal/platform/audit"
	"github.com/taibuivan/yomira-studio/internal/platform/batch"
	"github.com/taibuivan/yomira-studio/internal/platform/constants"
	"github.com/taibuivan/yomira-studio/internal/platform/dberr"
	"github.com/taibuivan/yomira-studio/internal/platform/events"
	"github.com/taibuivan/yomira-studio/internal/platform/validate"
	"github.com/taibuivan/yomira-studio/internal/workflow/assignment"
	"github.com/taibuivan/yomira-studio/pkg/pagination"
	"github.com/taibuivan/yomira-studio/pkg/slice"
	"github.com/taibuivan/yomira-studio/pkg/uuid"
)

// EventFinalized is published on [events.TopicUploads].
const EventFinalized = "upload_finalized"

// maxBatchSize bounds one finalize call and one draft.
const maxBatchSize = 200

// # Collaborators

// Workflow is the part of the assignment service an upload drives.
type Workflow interface {
	PendingUpload(context context.Context, mangaID string, params pagination.Params) ([]assignment.View, int, error)
	MarkUploaded(context context.Context, id, uploaderID string) (*assignment.Assignment, error)
}

// Publisher marks chapters published in the catalogue.
type Publisher interface {
	PublishChapter(context context.Context, mangaID, number string, uploadLink *string, actorID string) (bool, error)
}

// Deps groups the collaborators of [Service]. Events, Audit and Recorder are
// optional.
type Deps struct {
	Repository Repository
	Drafts     DraftStore
	Workflow   Workflow
	Chapters   Publisher
	Events     events.Publisher
	Audit      audit.Recorder
	Recorder   batch.Recorder
	DraftTTL   time.Duration
	Logger     *slog.Logger
}

// Service runs the upload workflow.
type Service struct {
	repo     Repository
	drafts   DraftStore
	workflow Workflow
	chapters Publisher
	events   events.Publisher
	audit    audit.Recorder
	recorder batch.Recorder
	draftTTL time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates the upload service.
func NewService(deps Deps) *Service {
	ttl := deps.DraftTTL
	if ttl <= 0 {
		ttl = constants.UploadDraftTTL
	}
	return &Service{
		repo:     deps.Repository,
		drafts:   deps.Drafts,
		workflow: deps.Workflow,
		chapters: deps.Chapters,
		events:   deps.Events,
		audit:    deps.Audit,
		recorder: deps.Recorder,
		draftTTL: ttl,
		logger:   deps.Logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// # Queue

// Pending lists approved and completed work waiting for upload.
func (service *Service) Pending(context context.Context, mangaID string, params pagination.Params) ([]assignment.View, int, error) {
	return service.workflow.PendingUpload(context, mangaID, params)
}

// # Drafts

// Draft returns the caller's draft, or an empty one.
func (service *Service) Draft(context context.Context, userID string) (*Draft, error) {
	draft, err := service.drafts.Get(context, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if draft == nil {
		return &Draft{UserID: userID, AssignmentIDs: []string{}}, nil
	}
	return draft, nil
}

// SaveDraft replaces the caller's draft and restarts its expiry.
func (service *Service) SaveDraft(context context.Context, userID string, draft Draft) (*Draft, error) {
	draft.UserID = userID
	draft.AssignmentIDs = slice.CleanIDs(draft.AssignmentIDs)
	draft.UpdatedAt = service.now()

	validator := &validate.Validator{}
	validator.Custom("assignmentIds", len(draft.AssignmentIDs) > maxBatchSize, fmt.Sprintf("At most %d assignments per batch", maxBatchSize)).
		MaxLen("notes", draft.Notes, 2000)
	validateLinks(validator, draft.UploadLinks)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if err := service.drafts.Save(context, &draft, service.draftTTL); err != nil {
		return nil, apperr.Internal(err)
	}
	return &draft, nil
}

// ClearDraft discards the caller's draft.
func (service *Service) ClearDraft(context context.Context, userID string) error {
	if err := service.drafts.Clear(context, userID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// # Finalize

/*
FinalizeBatch uploads a batch of finished assignments.

Description: Each assignment is handled on its own. It must be approved or
completed; it becomes uploaded and its chapter is published. Failures are
counted and do not stop the batch. One report lists every assignment that
went through, with TotalChapters equal to the number of entries. The draft is
cleared once a report exists.

Parameters:
  - ctx: context.Context
  - uploader: Uploader
  - input: FinalizeInput

Returns:
  - FinalizeResult: Counts, per-item errors and the report
  - error: Validation or report storage errors
*/
func (service *Service) FinalizeBatch(ctx context.Context, uploader Uploader, input FinalizeInput) (FinalizeResult, error) {
	ids := slice.CleanIDs(input.AssignmentIDs)

	validator := &validate.Validator{}
	validator.Custom("assignmentIds", len(ids) == 0, "At least one assignment is required").
		Custom("assignmentIds", len(ids) > maxBatchSize, fmt.Sprintf("At most %d assignments per batch", maxBatchSize))
	validateLinks(validator, input.UploadLinks)
	if err := validator.Err(); err != nil {
		return FinalizeResult{}, err
	}

	entries := make([]ChapterEntry, 0, len(ids))
	result := batch.Run(ctx, ids, func(ctx context.Context, id string) error {
		uploaded, err := service.workflow.MarkUploaded(ctx, id, uploader.ID)
		if err != nil {
			return err
		}

		link := optionalLink(input.UploadLinks[id])
		if _, err := service.chapters.PublishChapter(ctx, uploaded.MangaID, uploaded.Chapter, link, uploader.ID); err != nil {
			// The repair pass publishes chapters of uploaded assignments later.
			service.logger.WarnContext(ctx, "upload_chapter_publish_failed",
				slog.String("assignment_id", id),
				slog.String("manga_id", uploaded.MangaID),
				slog.String("chapter", uploaded.Chapter),
				slog.Any("error", err),
			)
		}

		entries = append(entries, ChapterEntry{
			AssignmentID: uploaded.ID,
			MangaID:      uploaded.MangaID,
			MangaTitle:   uploaded.MangaTitle,
			Chapter:      uploaded.Chapter,
			TaskType:     uploaded.TaskType,
			UploadLink:   link,
		})
		return nil
	})
	result.Report(service.recorder, "finalize_upload")

	finalized := FinalizeResult{Result: result}
	if len(entries) == 0 {
		service.logger.WarnContext(ctx, "upload_batch_empty",
			slog.String("uploader_id", uploader.ID),
			slog.Int("failed", result.Failed),
		)
		return finalized, nil
	}

	report := &Report{
		ID:            uuid.New(),
		UploaderID:    uploader.ID,
		UploaderName:  uploader.Name,
		Chapters:      entries,
		TotalChapters: len(entries),
		Notes:         input.Notes,
		CreatedAt:     service.now(),
	}
	if err := service.repo.Create(ctx, report); err != nil {
		service.logger.ErrorContext(ctx, "upload_report_failed",
			slog.String("uploader_id", uploader.ID),
			slog.Int("chapters", len(entries)),
			slog.Any("error", err),
		)
		return finalized, err
	}
	finalized.Report = report

	service.recordAudit(ctx, report)
	if err := service.drafts.Clear(ctx, uploader.ID); err != nil {
		service.logger.WarnContext(ctx, "upload_draft_clear_failed", slog.String("uploader_id", uploader.ID), slog.Any("error", err))
	}

	service.logger.InfoContext(ctx, "upload_finalized",
		slog.String("report_id", report.ID),
		slog.String("uploader_id", uploader.ID),
		slog.Int("succeeded", result.Succeeded),
		slog.Int("failed", result.Failed),
	)
	if service.events != nil {
		if err := service.events.Publish(ctx, events.TopicUploads, EventFinalized, report); err != nil {
			service.logger.WarnContext(ctx, "upload_event_publish_failed", slog.Any("error", err))
		}
	}
	return finalized, nil
}

// # Reports

// Reports lists finalized batches newest first.
func (service *Service) Reports(context context.Context, uploaderID string, params pagination.Params) ([]*Report, int, error) {
	return service.repo.List(context, uploaderID, params.Limit, params.Offset())
}

// Report returns one finalized batch.
func (service *Service) Report(context context.Context, id string) (*Report, error) {
	report, err := service.repo.FindByID(context, id)
	if dberr.IsNotFound(err) {
		return nil, apperr.NotFound("Upload report")
	}
	return report, err
}

// # Helpers

func (service *Service) recordAudit(ctx context.Context, report *Report) {
	if service.audit == nil {
		return
	}

	entry := audit.Entry{
		ID:         uuid.New(),
		ActorID:    report.UploaderID,
		Action:     audit.ActionFinalizeUpload,
		EntityType: audit.EntityUploadReport,
		EntityID:   report.ID,
		After:      audit.Snapshot(report),
		CreatedAt:  report.CreatedAt,
	}
	if err := service.audit.Record(ctx, entry); err != nil {
		service.logger.ErrorContext(ctx, "upload_audit_failed",
			slog.String("report_id", report.ID),
			slog.Any("error", err),
		)
	}
}

func validateLinks(validator *validate.Validator, links map[string]string) {
	for id, link := range links {
		validator.OptionalURL("uploadLinks."+id, strings.TrimSpace(link))
	}
}

func optionalLink(link string) *string {
	link = strings.TrimSpace(link)
	if link == "" {
		return nil
	}
	return &link
}
