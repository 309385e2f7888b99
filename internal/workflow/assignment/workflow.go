// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package assignment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taibuivan/yomira-studio/internal/platform/validate"
)

// # Events

// Event is a workflow step requested on an assignment.
type Event string

const (
	EventAssign   Event = "assign"
	EventProgress Event = "progress"
	EventSubmit   Event = "submit"
	EventApprove  Event = "approve"
	EventReject   Event = "reject"
	EventComplete Event = "complete"
	EventUpload   Event = "upload"
)

// Events lists every workflow event.
var Events = []Event{EventAssign, EventProgress, EventSubmit, EventApprove, EventReject, EventComplete, EventUpload}

// # Transition Table

type edge struct {
	from  Status
	event Event
}

// transitions is the complete set of allowed moves. Anything absent is refused.
var transitions = map[edge]Status{
	{StatusUnassigned, EventAssign}: StatusPending,
	{StatusPending, EventAssign}:    StatusPending,

	{StatusPending, EventProgress}:    StatusInProgress,
	{StatusInProgress, EventProgress}: StatusInProgress,

	{StatusPending, EventComplete}:    StatusCompleted,
	{StatusInProgress, EventComplete}: StatusCompleted,

	{StatusInProgress, EventSubmit}: StatusPendingApproval,
	{StatusCompleted, EventSubmit}:  StatusPendingApproval,

	{StatusPendingApproval, EventApprove}: StatusApproved,
	{StatusPendingApproval, EventReject}:  StatusPending,

	{StatusApproved, EventUpload}:  StatusUploaded,
	{StatusCompleted, EventUpload}: StatusUploaded,
}

// ErrInvalidTransition matches every [*TransitionError] via [errors.Is].
var ErrInvalidTransition = errors.New("invalid assignment transition")

// TransitionError reports a workflow step that is not allowed from the
// current status.
type TransitionError struct {
	From  Status
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s an assignment that is %s", e.Event, e.From)
}

// Is makes [errors.Is] match [ErrInvalidTransition].
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// Next returns the status reached by applying event to from.
func Next(from Status, event Event) (Status, error) {
	to, ok := transitions[edge{from, event}]
	if !ok {
		return from, &TransitionError{From: from, Event: event}
	}
	return to, nil
}

// CanTransition reports whether event is allowed from status.
func CanTransition(from Status, event Event) bool {
	_, ok := transitions[edge{from, event}]
	return ok
}

// # Mutations
//
// Each mutation checks the table first and leaves the assignment untouched
// when the move is refused. All of them keep progress at 100 exactly when the
// status is finished.

// Assign hands the assignment to assigneeID. Reassigning a pending task is allowed.
func (a *Assignment) Assign(assigneeID string, now time.Time) error {
	if strings.TrimSpace(assigneeID) == "" {
		return validate.Invalid("assigneeId", "This field is required")
	}
	to, err := Next(a.Status, EventAssign)
	if err != nil {
		return err
	}

	a.AssigneeID = &assigneeID
	a.Status = to
	a.Progress = 0
	a.UpdatedAt = now
	return nil
}

// ReportProgress records partial progress, or completes the work at 100.
func (a *Assignment) ReportProgress(progress int, now time.Time) error {
	if progress < 1 || progress > 100 {
		return validate.Invalid("progress", "Must be between 1 and 100")
	}

	event := EventProgress
	if progress == 100 {
		event = EventComplete
	}
	to, err := Next(a.Status, event)
	if err != nil {
		return err
	}

	a.Status = to
	a.Progress = progress
	if event == EventComplete {
		a.CompletedAt = &now
	}
	a.UpdatedAt = now
	return nil
}

// Submit sends finished work for review. A deliverable link is required,
// either given now or already on the assignment.
func (a *Assignment) Submit(driveLink string, now time.Time) error {
	driveLink = strings.TrimSpace(driveLink)
	if driveLink == "" && a.DriveLink != nil {
		driveLink = *a.DriveLink
	}

	validator := &validate.Validator{}
	validator.Required("driveLink", driveLink).OptionalURL("driveLink", driveLink)
	if err := validator.Err(); err != nil {
		return err
	}

	to, err := Next(a.Status, EventSubmit)
	if err != nil {
		return err
	}

	a.Status = to
	a.Progress = 100
	a.DriveLink = &driveLink
	if a.CompletedAt == nil {
		a.CompletedAt = &now
	}
	a.UpdatedAt = now
	return nil
}

// Approve accepts submitted work.
func (a *Assignment) Approve(reviewerID string, now time.Time) error {
	to, err := Next(a.Status, EventApprove)
	if err != nil {
		return err
	}

	a.Status = to
	a.ReviewerID = &reviewerID
	a.ReviewedAt = &now
	a.ApprovedBy = &reviewerID
	a.ApprovedAt = &now
	a.UpdatedAt = now
	return nil
}

// Reject sends submitted work back to the assignee. The comment is required.
// Progress and the completion and approval stamps are cleared; the review
// itself is kept.
func (a *Assignment) Reject(reviewerID, comment string, now time.Time) error {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return validate.Invalid("comment", "A rejection needs a comment for the assignee")
	}

	to, err := Next(a.Status, EventReject)
	if err != nil {
		return err
	}

	a.Status = to
	a.Progress = 0
	a.CompletedAt = nil
	a.ApprovedBy = nil
	a.ApprovedAt = nil
	a.ReviewerID = &reviewerID
	a.ReviewedAt = &now
	a.ReviewComment = &comment
	a.UpdatedAt = now
	return nil
}

// MarkUploaded records that the chapter went out in an upload batch.
func (a *Assignment) MarkUploaded(uploaderID string, now time.Time) error {
	to, err := Next(a.Status, EventUpload)
	if err != nil {
		return err
	}

	a.Status = to
	a.Progress = 100
	a.UploadedAt = &now
	a.UploadedBy = &uploaderID
	a.UpdatedAt = now
	return nil
}
