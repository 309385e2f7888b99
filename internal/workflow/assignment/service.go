// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package assignment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/taibuivan/yomira-studio/internal/core/manga"
	"github.com/taibuivan/yomira-studio/internal/platform/apperr"
	"github.com/taibuivan/yomira-studio/internal/platform/audit"
	"github.com/taibuivan/yomira-studio/internal/platform/batch"
	"github.com/taibuivan/yomira-studio/internal/platform/constants"
	"github.com/taibuivan/yomira-studio/internal/platform/dberr"
	"github.com/taibuivan/yomira-studio/internal/platform/events"
	"github.com/taibuivan/yomira-studio/internal/platform/sec"
	"github.com/taibuivan/yomira-studio/internal/platform/validate"
	"github.com/taibuivan/yomira-studio/pkg/pagination"
	"github.com/taibuivan/yomira-studio/pkg/pointer"
	"github.com/taibuivan/yomira-studio/pkg/slice"
	"github.com/taibuivan/yomira-studio/pkg/uuid"
)

// EventCreated and EventDeleted are published on [events.TopicAssignments]
// next to "assignment_<event>" for each workflow step.
const (
	EventCreated = "assignment_created"
	EventDeleted = "assignment_deleted"
)

// groupListLimit caps how many assignments feed the grouped view.
const groupListLimit = 500

// DefaultShareTTL is used when [Deps.ShareTTL] is zero.
const DefaultShareTTL = 7 * 24 * time.Hour

// # Collaborators

// ChapterGate is the slice of the manga catalogue the workflow depends on.
type ChapterGate interface {
	Get(context context.Context, id string) (*manga.Manga, error)
	ChapterStatus(context context.Context, mangaID, number string) (manga.PublicationStatus, error)
	MarkInWork(context context.Context, mangaID, number string) error
}

// Directory tells whether a member can receive work.
type Directory interface {
	IsActive(context context.Context, userID string) (bool, error)
}

// Recorder counts workflow events and batch outcomes.
type Recorder interface {
	batch.Recorder
	Transition(event string, err error)
}

// Deps groups the collaborators of [Service]. Publisher, Audit, Recorder and
// Shares are optional.
type Deps struct {
	Repository Repository
	Mangas     ChapterGate
	Assignees  Directory
	Checker    PermissionChecker
	Publisher  events.Publisher
	Audit      audit.Recorder
	Recorder   Recorder
	Shares     ShareStore
	ShareTTL   time.Duration
	Logger     *slog.Logger
}

// Service runs the assignment workflow.
type Service struct {
	repo      Repository
	mangas    ChapterGate
	assignees Directory
	checker   PermissionChecker
	publisher events.Publisher
	audit     audit.Recorder
	recorder  Recorder
	shares    ShareStore
	shareTTL  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates the assignment workflow service.
func NewService(deps Deps) *Service {
	ttl := deps.ShareTTL
	if ttl <= 0 {
		ttl = DefaultShareTTL
	}
	return &Service{
		repo:      deps.Repository,
		mangas:    deps.Mangas,
		assignees: deps.Assignees,
		checker:   deps.Checker,
		publisher: deps.Publisher,
		audit:     deps.Audit,
		recorder:  deps.Recorder,
		shares:    deps.Shares,
		shareTTL:  ttl,
		logger:    deps.Logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// # Inputs

// CreateInput is the payload for [Service.Create].
type CreateInput struct {
	MangaID    string         `json:"mangaId"`
	Chapter    string         `json:"chapter"`
	TaskType   manga.TaskType `json:"taskType"`
	AssigneeID *string        `json:"assigneeId"`
	DueDate    *time.Time     `json:"dueDate"`
	RawLink    *string        `json:"rawLink"`
	Notes      *string        `json:"notes"`
}

// CreateGroupInput opens one sibling task per entry of TaskTypes on the same
// manga, chapter and assignee. The embedded TaskType is ignored.
type CreateGroupInput struct {
	CreateInput
	TaskTypes []manga.TaskType `json:"taskTypes"`
}

// CreateGroupResult reports a grouped creation item by item. Batch item IDs
// are the task types.
type CreateGroupResult struct {
	batch.Result
	Created []View `json:"created"`
}

// ShareLink is a capability URL token for one assignment.
type ShareLink struct {
	Token        string    `json:"token"`
	AssignmentID string    `json:"assignmentId"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// # Creation

/*
Create opens a new task on a chapter.

Description: Nothing is written when the chapter is already published; the
caller gets a CHAPTER_ALREADY_DONE error explaining that the chapter is done.
Translation tasks need the raw source link. With an assignee the task starts
pending, otherwise unassigned.

Parameters:
  - context: context.Context
  - input: CreateInput
  - actor: Actor (the creator)

Returns:
  - *Assignment: The stored assignment
  - error: Validation, not-found, already-done or storage errors
*/
func (service *Service) Create(context context.Context, input CreateInput, actor Actor) (*Assignment, error) {
	input.MangaID = strings.TrimSpace(input.MangaID)
	assigneeID := strings.TrimSpace(pointer.Val(input.AssigneeID))

	rawLink := strings.TrimSpace(pointer.Val(input.RawLink))

	validator := &validate.Validator{}
	validator.Required("mangaId", input.MangaID).
		Required("chapter", strings.TrimSpace(input.Chapter)).
		OneOf("taskType", string(input.TaskType), manga.TaskTypeStrings()...).
		Custom("rawLink", input.TaskType == manga.TaskTranslation && rawLink == "", "Translation work needs the raw source link").
		OptionalURL("rawLink", rawLink).
		MaxLen("notes", pointer.Val(input.Notes), 2000)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	number, err := manga.ParseChapterNumber(input.Chapter)
	if err != nil {
		return nil, err
	}

	series, err := service.mangas.Get(context, input.MangaID)
	if err != nil {
		return nil, err
	}
	if !series.AllowsTaskType(input.TaskType) {
		return nil, apperr.Unprocessable(fmt.Sprintf("%s only takes %s work in this joint project", series.Title, joinTaskTypes(series.AllowedTaskTypes)))
	}

	status, err := service.mangas.ChapterStatus(context, series.ID, number)
	if err != nil {
		return nil, err
	}
	if status.Published() {
		service.logger.InfoContext(context, "assignment_blocked_chapter_done",
			slog.String("manga_id", series.ID),
			slog.String("chapter", number),
			slog.String("task_type", string(input.TaskType)),
		)
		return nil, apperr.AlreadyDone(fmt.Sprintf("El capítulo %s de %s ya está publicado", number, series.Title))
	}

	if assigneeID != "" {
		if err := service.requireActive(context, assigneeID); err != nil {
			return nil, err
		}
	}

	now := service.now()
	assignment := &Assignment{
		ID:         uuid.New(),
		MangaID:    series.ID,
		MangaTitle: series.Title,
		Chapter:    number,
		TaskType:   input.TaskType,
		Status:     StatusUnassigned,
		DueDate:    input.DueDate,
		RawLink:    pointer.NonZero(rawLink),
		Notes:      pointer.NonZero(strings.TrimSpace(pointer.Val(input.Notes))),
		CreatedBy:  actor.UserID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if assigneeID != "" {
		if err := assignment.Assign(assigneeID, now); err != nil {
			return nil, err
		}
	}

	if err := service.repo.Create(context, assignment); err != nil {
		return nil, err
	}

	if err := service.mangas.MarkInWork(context, series.ID, number); err != nil {
		service.logger.WarnContext(context, "chapter_mark_in_work_failed",
			slog.String("manga_id", series.ID),
			slog.String("chapter", number),
			slog.Any("error", err),
		)
	}

	service.logger.InfoContext(context, "assignment_created",
		slog.String("assignment_id", assignment.ID),
		slog.String("manga_id", assignment.MangaID),
		slog.String("chapter", assignment.Chapter),
		slog.String("task_type", string(assignment.TaskType)),
		slog.String("status", string(assignment.Status)),
	)
	service.publish(context, EventCreated, assignment)

	return assignment, nil
}

/*
CreateGroup opens sibling tasks, one per task type, on one chapter.

Description: Every task type goes through the same checks as [Service.Create]
on its own, so a type refused by a joint project fails alone while the others
are created. Repeated types count once.

Returns:
  - CreateGroupResult: Counts, per-type errors and the created tasks
  - error: Validation errors on the request as a whole
*/
func (service *Service) CreateGroup(ctx context.Context, input CreateGroupInput, actor Actor) (CreateGroupResult, error) {
	taskTypes := make([]string, 0, len(input.TaskTypes))
	for _, taskType := range input.TaskTypes {
		taskTypes = append(taskTypes, string(taskType))
	}
	taskTypes = slice.CleanIDs(taskTypes)

	if len(taskTypes) == 0 {
		return CreateGroupResult{}, validate.Invalid("taskTypes", "At least one task type is required")
	}

	created := make([]View, 0, len(taskTypes))
	result := batch.Run(ctx, taskTypes, func(ctx context.Context, taskType string) error {
		single := input.CreateInput
		single.TaskType = manga.TaskType(taskType)

		assignment, err := service.Create(ctx, single, actor)
		if err != nil {
			return err
		}
		created = append(created, assignment.View(service.now()))
		return nil
	})
	result.Report(service.recorder, "create_group")

	return CreateGroupResult{Result: result, Created: created}, nil
}

// # Reading

// Get returns one assignment. Members without canViewAllAssignments only see
// their own.
func (service *Service) Get(context context.Context, id string, actor Actor) (View, error) {
	assignment, err := service.find(context, id)
	if err != nil {
		return View{}, err
	}
	if !assignment.AssignedTo(actor.UserID) && !service.can(context, actor, sec.PermViewAllAssignments) {
		return View{}, apperr.Forbidden("You can only view your own assignments")
	}
	return assignment.View(service.now()), nil
}

// List returns a page of assignments. Members without canViewAllAssignments
// are limited to their own.
func (service *Service) List(context context.Context, filter Filter, params pagination.Params, actor Actor) ([]View, int, error) {
	filter = service.scope(context, filter, actor)
	assignments, total, err := service.repo.List(context, filter, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	return Views(assignments, service.now()), total, nil
}

/*
Groups returns the tasks of each member per chapter.

Description: Siblings are the tasks one assignee holds on the same chapter of
the same manga. Order follows [Repository.List].
*/
func (service *Service) Groups(context context.Context, filter Filter, actor Actor) ([]Group, error) {
	filter = service.scope(context, filter, actor)
	assignments, _, err := service.repo.List(context, filter, groupListLimit, 0)
	if err != nil {
		return nil, err
	}

	now := service.now()
	groups := []Group{}
	index := make(map[string]int)
	for _, assignment := range assignments {
		assignee := pointer.Val(assignment.AssigneeID)
		key := assignment.MangaID + "|" + assignment.ChapterKey() + "|" + assignee

		position, ok := index[key]
		if !ok {
			position = len(groups)
			index[key] = position
			groups = append(groups, Group{
				MangaID:    assignment.MangaID,
				MangaTitle: assignment.MangaTitle,
				Chapter:    assignment.Chapter,
				AssigneeID: assignee,
			})
		}
		groups[position].Assignments = append(groups[position].Assignments, assignment.View(now))
	}
	return groups, nil
}

// Stats counts assignments per status along with the derived flags.
func (service *Service) Stats(context context.Context, filter Filter) (Stats, error) {
	return service.repo.Stats(context, filter, service.now())
}

// PendingUpload lists the work ready to join an upload batch.
func (service *Service) PendingUpload(context context.Context, mangaID string, params pagination.Params) ([]View, int, error) {
	filter := Filter{MangaID: mangaID, Statuses: []Status{StatusApproved, StatusCompleted}}
	assignments, total, err := service.repo.List(context, filter, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	return Views(assignments, service.now()), total, nil
}

// # Workflow Steps

// Reassign hands the task to another active member.
func (service *Service) Reassign(context context.Context, id, assigneeID string, actor Actor) (*Assignment, error) {
	if !service.can(context, actor, sec.PermAssignChapters) && !service.can(context, actor, sec.PermEditAssignments) {
		return nil, apperr.Forbidden("You are not allowed to assign chapters")
	}

	assigneeID = strings.TrimSpace(assigneeID)
	if assigneeID == "" {
		return nil, validate.Invalid("assigneeId", "This field is required")
	}
	if err := service.requireActive(context, assigneeID); err != nil {
		return nil, err
	}

	assignment, err := service.find(context, id)
	if err != nil {
		return nil, err
	}

	now := service.now()
	return service.apply(context, assignment, EventAssign, actor.UserID, func(a *Assignment) error {
		return a.Assign(assigneeID, now)
	})
}

// UpdateProgress records progress from the assignee. 100 completes the task.
func (service *Service) UpdateProgress(context context.Context, id string, progress int, actor Actor) (*Assignment, error) {
	assignment, err := service.find(context, id)
	if err != nil {
		return nil, err
	}
	if err := service.authorizeWork(context, assignment, actor); err != nil {
		return nil, err
	}
	return service.progress(context, assignment, progress, actor.UserID)
}

/*
Submit sends the work for review with its deliverable link.

Without a link on the request or on the assignment, the deliverable of the
closest earlier pipeline stage on the same chapter is carried over.
*/
func (service *Service) Submit(context context.Context, id, driveLink string, actor Actor) (*Assignment, error) {
	assignment, err := service.find(context, id)
	if err != nil {
		return nil, err
	}
	if err := service.authorizeWork(context, assignment, actor); err != nil {
		return nil, err
	}

	if strings.TrimSpace(driveLink) == "" && assignment.DriveLink == nil {
		driveLink = service.precedingDeliverable(context, assignment)
	}

	now := service.now()
	return service.apply(context, assignment, EventSubmit, actor.UserID, func(a *Assignment) error {
		return a.Submit(driveLink, now)
	})
}

// Approve accepts submitted work. See [CanReview] for who may.
func (service *Service) Approve(context context.Context, id string, actor Actor) (*Assignment, error) {
	assignment, err := service.find(context, id)
	if err != nil {
		return nil, err
	}
	if !CanReview(context, service.checker, actor, assignment.TaskType) {
		return nil, apperr.Forbidden("You cannot review this type of work")
	}

	now := service.now()
	return service.apply(context, assignment, EventApprove, actor.UserID, func(a *Assignment) error {
		return a.Approve(actor.UserID, now)
	})
}

// Reject sends submitted work back with a mandatory comment.
func (service *Service) Reject(context context.Context, id, comment string, actor Actor) (*Assignment, error) {
	if strings.TrimSpace(comment) == "" {
		return nil, validate.Invalid("comment", "A rejection needs a comment for the assignee")
	}

	assignment, err := service.find(context, id)
	if err != nil {
		return nil, err
	}
	if !CanReview(context, service.checker, actor, assignment.TaskType) {
		return nil, apperr.Forbidden("You cannot review this type of work")
	}

	now := service.now()
	return service.apply(context, assignment, EventReject, actor.UserID, func(a *Assignment) error {
		return a.Reject(actor.UserID, comment, now)
	})
}

/*
CompleteGroup marks every listed sibling task completed.

Description: Tasks are processed one at a time and a repeated ID counts once.
A task that cannot be completed (wrong status, not the actor's) is counted as
failed without stopping the rest.
*/
func (service *Service) CompleteGroup(ctx context.Context, ids []string, actor Actor) (batch.Result, error) {
	ids = slice.CleanIDs(ids)
	if len(ids) == 0 {
		return batch.Result{}, apperr.ValidationError("At least one assignment is required")
	}

	result := batch.Run(ctx, ids, func(ctx context.Context, id string) error {
		assignment, err := service.find(ctx, id)
		if err != nil {
			return err
		}
		if err := service.authorizeWork(ctx, assignment, actor); err != nil {
			return err
		}
		_, err = service.progress(ctx, assignment, 100, actor.UserID)
		return err
	})
	result.Report(service.recorder, "complete_group")

	service.logger.InfoContext(ctx, "assignment_group_completed",
		slog.String("actor_id", actor.UserID),
		slog.Int("succeeded", result.Succeeded),
		slog.Int("failed", result.Failed),
	)
	return result, nil
}

// MarkUploaded moves approved or completed work to uploaded. It is driven by
// upload batches.
func (service *Service) MarkUploaded(context context.Context, id, uploaderID string) (*Assignment, error) {
	assignment, err := service.find(context, id)
	if err != nil {
		return nil, err
	}

	now := service.now()
	return service.apply(context, assignment, EventUpload, uploaderID, func(a *Assignment) error {
		return a.MarkUploaded(uploaderID, now)
	})
}

// Delete removes an assignment and records who did it.
func (service *Service) Delete(context context.Context, id string, actor Actor) error {
	assignment, err := service.find(context, id)
	if err != nil {
		return err
	}

	deleted, err := service.repo.Delete(context, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.NotFound("Assignment")
	}

	if service.audit != nil {
		entry := audit.Entry{
			ID:         uuid.New(),
			ActorID:    actor.UserID,
			Action:     audit.ActionDeleteAssignment,
			EntityType: audit.EntityAssignment,
			EntityID:   id,
			Before:     audit.Snapshot(assignment),
			CreatedAt:  service.now(),
		}
		if err := service.audit.Record(context, entry); err != nil {
			service.logger.ErrorContext(context, "assignment_audit_failed",
				slog.String("assignment_id", id),
				slog.Any("error", err),
			)
		}
	}

	service.logger.InfoContext(context, "assignment_deleted",
		slog.String("assignment_id", id),
		slog.String("actor_id", actor.UserID),
	)
	service.publish(context, EventDeleted, map[string]string{"id": id})
	return nil
}

// # Share Links

/*
CreateShareLink issues a capability token for one assignment.

Description: Anyone holding the token can read the assignment and report
progress on it until it expires. Only the token hash is stored.
*/
func (service *Service) CreateShareLink(context context.Context, id string, actor Actor) (ShareLink, error) {
	if service.shares == nil {
		return ShareLink{}, apperr.ServiceUnavailable("Share links are not available")
	}

	assignment, err := service.find(context, id)
	if err != nil {
		return ShareLink{}, err
	}

	token, err := sec.GenerateSecureToken(constants.ShareTokenBytes)
	if err != nil {
		return ShareLink{}, apperr.Internal(err)
	}
	if err := service.shares.Save(context, sec.HashToken(token), assignment.ID, service.shareTTL); err != nil {
		return ShareLink{}, apperr.Internal(err)
	}

	service.logger.InfoContext(context, "assignment_share_link_created",
		slog.String("assignment_id", assignment.ID),
		slog.String("actor_id", actor.UserID),
	)
	return ShareLink{Token: token, AssignmentID: assignment.ID, ExpiresAt: service.now().Add(service.shareTTL)}, nil
}

// Shared returns the assignment behind a share token.
func (service *Service) Shared(context context.Context, token string) (View, error) {
	assignment, err := service.resolveShare(context, token)
	if err != nil {
		return View{}, err
	}
	return assignment.View(service.now()), nil
}

// SharedProgress reports progress through a share token.
func (service *Service) SharedProgress(context context.Context, token string, progress int) (View, error) {
	assignment, err := service.resolveShare(context, token)
	if err != nil {
		return View{}, err
	}

	updated, err := service.progress(context, assignment, progress, "share:"+assignment.ID)
	if err != nil {
		return View{}, err
	}
	return updated.View(service.now()), nil
}

// # Helpers

func (service *Service) resolveShare(context context.Context, token string) (*Assignment, error) {
	if service.shares == nil || strings.TrimSpace(token) == "" {
		return nil, apperr.NotFound("Share link")
	}

	id, err := service.shares.Resolve(context, sec.HashToken(token))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if id == "" {
		return nil, apperr.NotFound("Share link")
	}
	return service.find(context, id)
}

func (service *Service) progress(context context.Context, assignment *Assignment, progress int, actorID string) (*Assignment, error) {
	event := EventProgress
	if progress == 100 {
		event = EventComplete
	}

	now := service.now()
	return service.apply(context, assignment, event, actorID, func(a *Assignment) error {
		return a.ReportProgress(progress, now)
	})
}

/*
apply runs one workflow step and persists it.

Description: mutate works on a copy, so a refused step leaves assignment as it
was loaded. The update is conditional on the status read before the step.
*/
func (service *Service) apply(context context.Context, assignment *Assignment, event Event, actorID string, mutate func(*Assignment) error) (*Assignment, error) {
	expected := assignment.Status
	next := *assignment

	if err := mutate(&next); err != nil {
		service.record(event, err)
		return nil, transitionError(err)
	}

	if err := service.repo.Update(context, &next, expected); err != nil {
		if dberr.IsNotFound(err) {
			return nil, apperr.NotFound("Assignment")
		}
		return nil, err
	}
	assignment = &next
	service.record(event, nil)

	eventType := "assignment_" + string(event)
	service.logger.InfoContext(context, eventType,
		slog.String("assignment_id", assignment.ID),
		slog.String("from", string(expected)),
		slog.String("to", string(assignment.Status)),
		slog.String("actor_id", actorID),
	)
	service.publish(context, eventType, assignment)
	return assignment, nil
}

// precedingDeliverable returns the deliverable of the latest pipeline stage
// before the task type of assignment on the same chapter, or "".
func (service *Service) precedingDeliverable(context context.Context, assignment *Assignment) string {
	stage := slices.Index(manga.TaskTypes, assignment.TaskType)
	if stage <= 0 {
		return ""
	}

	siblings, _, err := service.repo.List(context, Filter{MangaID: assignment.MangaID, Chapter: assignment.Chapter}, groupListLimit, 0)
	if err != nil {
		service.logger.WarnContext(context, "assignment_preceding_lookup_failed",
			slog.String("assignment_id", assignment.ID),
			slog.Any("error", err),
		)
		return ""
	}

	link, best := "", -1
	for _, sibling := range siblings {
		position := slices.Index(manga.TaskTypes, sibling.TaskType)
		if sibling.ID == assignment.ID || position >= stage || position <= best {
			continue
		}
		if candidate := strings.TrimSpace(pointer.Val(sibling.DriveLink)); candidate != "" {
			link, best = candidate, position
		}
	}
	return link
}

func (service *Service) find(context context.Context, id string) (*Assignment, error) {
	assignment, err := service.repo.FindByID(context, id)
	if dberr.IsNotFound(err) {
		return nil, apperr.NotFound("Assignment")
	}
	return assignment, err
}

func (service *Service) authorizeWork(context context.Context, assignment *Assignment, actor Actor) error {
	if assignment.AssignedTo(actor.UserID) || service.can(context, actor, sec.PermEditAssignments) {
		return nil
	}
	return apperr.Forbidden("This assignment belongs to someone else")
}

func (service *Service) requireActive(context context.Context, userID string) error {
	if service.assignees == nil {
		return nil
	}
	active, err := service.assignees.IsActive(context, userID)
	if err != nil {
		return err
	}
	if !active {
		return apperr.Unprocessable("The assignee is not an active member")
	}
	return nil
}

func (service *Service) scope(context context.Context, filter Filter, actor Actor) Filter {
	if !service.can(context, actor, sec.PermViewAllAssignments) {
		filter.AssigneeID = actor.UserID
	}
	return filter
}

func (service *Service) can(context context.Context, actor Actor, permission sec.Permission) bool {
	return service.checker != nil && service.checker.Check(context, actor.UserID, actor.Role, permission)
}

func (service *Service) record(event Event, err error) {
	if service.recorder != nil {
		service.recorder.Transition(string(event), err)
	}
}

func (service *Service) publish(context context.Context, eventType string, payload any) {
	if service.publisher == nil {
		return
	}
	if err := service.publisher.Publish(context, events.TopicAssignments, eventType, payload); err != nil {
		service.logger.WarnContext(context, "assignment_event_publish_failed",
			slog.String("type", eventType),
			slog.Any("error", err),
		)
	}
}

// transitionError surfaces a refused step as INVALID_TRANSITION while keeping
// [ErrInvalidTransition] reachable through errors.Is.
func transitionError(err error) error {
	var refused *TransitionError
	if errors.As(err, &refused) {
		return apperr.InvalidTransition(refused.Error()).WithCause(err)
	}
	return err
}

func joinTaskTypes(taskTypes []manga.TaskType) string {
	names := make([]string, len(taskTypes))
	for i, taskType := range taskTypes {
		names[i] = string(taskType)
	}
	return strings.Join(names, ", ")
}
