// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package assignment_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-studio/internal/core/manga"
	"github.com/taibuivan/yomira-studio/internal/platform/sec"
	"github.com/taibuivan/yomira-studio/internal/workflow/assignment"
	"github.com/taibuivan/yomira-studio/internal/workflow/permission"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

/*
TestNext_TransitionTable checks every (status, event) pair against the
allowed moves. Pairs not listed must be refused with ErrInvalidTransition.
*/
func TestNext_TransitionTable(t *testing.T) {
	allowed := map[assignment.Status]map[assignment.Event]assignment.Status{
		assignment.StatusUnassigned: {
			assignment.EventAssign: assignment.StatusPending,
		},
		assignment.StatusPending: {
			assignment.EventAssign:   assignment.StatusPending,
			assignment.EventProgress: assignment.StatusInProgress,
			assignment.EventComplete: assignment.StatusCompleted,
		},
		assignment.StatusInProgress: {
			assignment.EventProgress: assignment.StatusInProgress,
			assignment.EventComplete: assignment.StatusCompleted,
			assignment.EventSubmit:   assignment.StatusPendingApproval,
		},
		assignment.StatusPendingApproval: {
			assignment.EventApprove: assignment.StatusApproved,
			assignment.EventReject:  assignment.StatusPending,
		},
		assignment.StatusApproved: {
			assignment.EventUpload: assignment.StatusUploaded,
		},
		assignment.StatusCompleted: {
			assignment.EventSubmit: assignment.StatusPendingApproval,
			assignment.EventUpload: assignment.StatusUploaded,
		},
		assignment.StatusUploaded: {},
	}

	for _, from := range assignment.Statuses {
		for _, event := range assignment.Events {
			want, ok := allowed[from][event]

			to, err := assignment.Next(from, event)
			if ok {
				require.NoError(t, err, "%s --%s-->", from, event)
				assert.Equal(t, want, to, "%s --%s-->", from, event)
				assert.True(t, assignment.CanTransition(from, event))
				continue
			}

			require.Error(t, err, "%s --%s--> must be refused", from, event)
			assert.True(t, errors.Is(err, assignment.ErrInvalidTransition))
			assert.Equal(t, from, to)
			assert.False(t, assignment.CanTransition(from, event))

			var refused *assignment.TransitionError
			require.True(t, errors.As(err, &refused))
			assert.Equal(t, from, refused.From)
			assert.Equal(t, event, refused.Event)
		}
	}
}

func pending() *assignment.Assignment {
	assignee := "user-1"
	return &assignment.Assignment{
		ID:         "a-1",
		MangaID:    "m-1",
		Chapter:    "12.5",
		TaskType:   manga.TaskTranslation,
		AssigneeID: &assignee,
		Status:     assignment.StatusPending,
		CreatedAt:  epoch,
		UpdatedAt:  epoch,
	}
}

/*
TestAssignment_ProgressConsistency walks the main path and checks that
progress is 100 exactly when the status is finished.
*/
func TestAssignment_ProgressConsistency(t *testing.T) {
	a := pending()
	check := func() {
		t.Helper()
		assert.Equal(t, a.Status.Finished(), a.Progress == 100, "status %s progress %d", a.Status, a.Progress)
	}

	require.NoError(t, a.ReportProgress(40, epoch))
	assert.Equal(t, assignment.StatusInProgress, a.Status)
	check()

	require.NoError(t, a.Submit("https://drive.example.com/f/1", epoch.Add(time.Hour)))
	assert.Equal(t, assignment.StatusPendingApproval, a.Status)
	require.NotNil(t, a.CompletedAt)
	check()

	require.NoError(t, a.Approve("chief-1", epoch.Add(2*time.Hour)))
	assert.Equal(t, assignment.StatusApproved, a.Status)
	assert.Equal(t, "chief-1", *a.ApprovedBy)
	check()

	require.NoError(t, a.MarkUploaded("uploader-1", epoch.Add(3*time.Hour)))
	assert.Equal(t, assignment.StatusUploaded, a.Status)
	require.NotNil(t, a.UploadedAt)
	check()
}

func TestAssignment_ReportProgress(t *testing.T) {
	tests := []struct {
		name     string
		progress int
		status   assignment.Status
		wantErr  bool
	}{
		{"partial", 30, assignment.StatusInProgress, false},
		{"complete", 100, assignment.StatusCompleted, false},
		{"zero", 0, assignment.StatusPending, true},
		{"over", 101, assignment.StatusPending, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := pending()
			err := a.ReportProgress(tt.progress, epoch)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, 0, a.Progress)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.progress, a.Progress)
			}
			assert.Equal(t, tt.status, a.Status)
			if tt.status == assignment.StatusCompleted {
				assert.NotNil(t, a.CompletedAt)
			}
		})
	}
}

func TestAssignment_SubmitNeedsLink(t *testing.T) {
	a := pending()
	require.NoError(t, a.ReportProgress(50, epoch))

	require.Error(t, a.Submit("", epoch))
	assert.Equal(t, assignment.StatusInProgress, a.Status)

	require.Error(t, a.Submit("not a link", epoch))
	assert.Equal(t, assignment.StatusInProgress, a.Status)

	link := "https://drive.example.com/f/2"
	a.DriveLink = &link
	require.NoError(t, a.Submit("", epoch))
	assert.Equal(t, link, *a.DriveLink)
}

/*
TestAssignment_Reject requires a comment, clears progress and the completion
and approval stamps, and keeps the review record.
*/
func TestAssignment_Reject(t *testing.T) {
	a := pending()
	require.NoError(t, a.ReportProgress(60, epoch))
	require.NoError(t, a.Submit("https://drive.example.com/f/3", epoch))

	err := a.Reject("chief-1", "   ", epoch.Add(time.Hour))
	require.Error(t, err)
	assert.Equal(t, assignment.StatusPendingApproval, a.Status)

	require.NoError(t, a.Reject("chief-1", "Fix page 4", epoch.Add(time.Hour)))
	assert.Equal(t, assignment.StatusPending, a.Status)
	assert.Equal(t, 0, a.Progress)
	assert.Nil(t, a.CompletedAt)
	assert.Nil(t, a.ApprovedBy)
	assert.Nil(t, a.ApprovedAt)
	require.NotNil(t, a.ReviewComment)
	assert.Equal(t, "Fix page 4", *a.ReviewComment)
	assert.Equal(t, "chief-1", *a.ReviewerID)
	require.NotNil(t, a.ReviewedAt)
	assert.True(t, a.ReviewedAt.Equal(epoch.Add(time.Hour)))
}

func TestAssignment_RefusedStepLeavesStateUntouched(t *testing.T) {
	a := pending()
	before := *a

	err := a.Approve("chief-1", epoch)
	require.Error(t, err)
	assert.True(t, errors.Is(err, assignment.ErrInvalidTransition))
	assert.Equal(t, before, *a)
}

func TestAssignment_DerivedFlags(t *testing.T) {
	due := epoch
	late := epoch.Add(48 * time.Hour)
	early := epoch.Add(-time.Hour)

	tests := []struct {
		name          string
		status        assignment.Status
		dueDate       *time.Time
		completedAt   *time.Time
		now           time.Time
		delayed       bool
		completedLate bool
	}{
		{"open past due", assignment.StatusInProgress, &due, nil, late, true, false},
		{"open before due", assignment.StatusPending, &due, nil, early, false, false},
		{"no due date", assignment.StatusPending, nil, nil, late, false, false},
		{"awaiting review past due", assignment.StatusPendingApproval, &due, &late, late, false, false},
		{"completed late", assignment.StatusCompleted, &due, &late, late, false, true},
		{"approved on time", assignment.StatusApproved, &due, &early, late, false, false},
		{"uploaded late", assignment.StatusUploaded, &due, &late, late, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &assignment.Assignment{Status: tt.status, DueDate: tt.dueDate, CompletedAt: tt.completedAt}
			assert.Equal(t, tt.delayed, a.IsDelayed(tt.now))
			assert.Equal(t, tt.completedLate, a.CompletedLate())

			view := a.View(tt.now)
			assert.Equal(t, tt.delayed, view.Delayed)
			assert.Equal(t, tt.completedLate, view.CompletedLate)
		})
	}
}

type stubChecker map[sec.Permission]bool

func (checker stubChecker) Check(_ context.Context, _ string, _ sec.UserRole, permission sec.Permission) bool {
	return checker[permission]
}

func TestCanReview(t *testing.T) {
	tests := []struct {
		name     string
		role     sec.UserRole
		checker  stubChecker
		taskType manga.TaskType
		want     bool
	}{
		{"moderation permission", sec.RoleTranslator, stubChecker{sec.PermModerateReviews: true}, manga.TaskTypesetting, true},
		{"admin", sec.RoleAdmin, stubChecker{}, manga.TaskCleanRedraw, true},
		{"chief translator on translation", sec.RoleChiefTranslator, stubChecker{}, manga.TaskTranslation, true},
		{"chief translator on proofreading", sec.RoleChiefTranslator, stubChecker{}, manga.TaskProofreading, true},
		{"chief translator on typesetting", sec.RoleChiefTranslator, stubChecker{}, manga.TaskTypesetting, false},
		{"chief editor on cleaning", sec.RoleChiefEditor, stubChecker{}, manga.TaskCleanRedraw, true},
		{"chief editor on translation", sec.RoleChiefEditor, stubChecker{}, manga.TaskTranslation, false},
		{"uploader", sec.RoleUploader, stubChecker{}, manga.TaskTypesetting, false},
		{"editor", sec.RoleEditor, stubChecker{}, manga.TaskTypesetting, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor := assignment.Actor{UserID: "u-1", Role: tt.role}
			assert.Equal(t, tt.want, assignment.CanReview(context.Background(), tt.checker, actor, tt.taskType))
		})
	}
}

// overrideStore is a permission repository holding overrides in memory.
type overrideStore map[string]*permission.Override

func (store overrideStore) GetOverride(_ context.Context, userID string) (*permission.Override, error) {
	return store[userID], nil
}

func (store overrideStore) SaveOverride(_ context.Context, userID string, override *permission.Override) error {
	store[userID] = override
	return nil
}

func (store overrideStore) DeleteOverride(_ context.Context, userID string) (bool, error) {
	_, found := store[userID]
	delete(store, userID)
	return found, nil
}

func (store overrideStore) ListOverrides(context.Context) ([]permission.UserOverride, error) {
	return nil, nil
}

/*
TestCanReview_RoleDefaults resolves authority through the permission engine
with stock role defaults, so each chief stays inside its task area.
*/
func TestCanReview_RoleDefaults(t *testing.T) {
	granted := true
	engine := permission.NewService(permission.Deps{
		Repository: overrideStore{
			"u-moderator": {ModerateReviews: &granted},
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	tests := []struct {
		name     string
		actor    assignment.Actor
		taskType manga.TaskType
		want     bool
	}{
		{"chief editor on translation", assignment.Actor{UserID: "u-1", Role: sec.RoleChiefEditor}, manga.TaskTranslation, false},
		{"chief editor on proofreading", assignment.Actor{UserID: "u-1", Role: sec.RoleChiefEditor}, manga.TaskProofreading, false},
		{"chief editor on typesetting", assignment.Actor{UserID: "u-1", Role: sec.RoleChiefEditor}, manga.TaskTypesetting, true},
		{"chief translator on cleaning", assignment.Actor{UserID: "u-2", Role: sec.RoleChiefTranslator}, manga.TaskCleanRedraw, false},
		{"chief translator on translation", assignment.Actor{UserID: "u-2", Role: sec.RoleChiefTranslator}, manga.TaskTranslation, true},
		{"admin anywhere", assignment.Actor{UserID: "u-3", Role: sec.RoleAdmin}, manga.TaskTranslation, true},
		{"override widens a chief", assignment.Actor{UserID: "u-moderator", Role: sec.RoleChiefEditor}, manga.TaskTranslation, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, assignment.CanReview(context.Background(), engine, tt.actor, tt.taskType))
		})
	}
}
