// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package assignment implements the chapter task workflow of the studio.

An assignment is one task (translation, proofreading, cleaning, typesetting)
on one chapter of a manga, handed to one member. It moves through an explicit
state machine:

	unassigned       --assign-->   pending
	pending          --assign-->   pending           (reassignment)
	pending          --progress--> in_progress
	in_progress      --progress--> in_progress
	pending          --complete--> completed
	in_progress      --complete--> completed
	in_progress      --submit-->   pending_approval
	completed        --submit-->   pending_approval
	pending_approval --approve-->  approved
	pending_approval --reject-->   pending
	approved         --upload-->   uploaded
	completed        --upload-->   uploaded

Being delayed and having been completed late are derived from the due date on
every read and are never stored.
*/
package assignment

import (
	"slices"
	"time"

	"github.com/taibuivan/yomira-studio/internal/core/manga"
)

// # Status

// Status is the stored workflow state of an assignment.
type Status string

const (
	StatusUnassigned      Status = "unassigned"
	StatusPending         Status = "pending"
	StatusInProgress      Status = "in_progress"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusCompleted       Status = "completed"
	StatusUploaded        Status = "uploaded"
)

// Statuses lists every stored status in workflow order.
var Statuses = []Status{
	StatusUnassigned,
	StatusPending,
	StatusInProgress,
	StatusPendingApproval,
	StatusApproved,
	StatusCompleted,
	StatusUploaded,
}

// Valid reports whether s is a stored status.
func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// Finished reports whether the work of the assignment is done (progress 100).
func (s Status) Finished() bool {
	switch s {
	case StatusCompleted, StatusPendingApproval, StatusApproved, StatusUploaded:
		return true
	}
	return false
}

// Open reports whether work is still expected from the assignee.
func (s Status) Open() bool {
	switch s {
	case StatusUnassigned, StatusPending, StatusInProgress:
		return true
	}
	return false
}

// Uploadable reports whether the assignment can join an upload batch.
func (s Status) Uploadable() bool {
	return s == StatusApproved || s == StatusCompleted
}

// StatusStrings returns the statuses as plain strings, for validators.
func StatusStrings() []string {
	out := make([]string, len(Statuses))
	for i, status := range Statuses {
		out[i] = string(status)
	}
	return out
}

// # Entity

// Assignment is one task on one chapter.
type Assignment struct {
	ID            string         `json:"id"`
	MangaID       string         `json:"mangaId"`
	MangaTitle    string         `json:"mangaTitle"`
	Chapter       string         `json:"chapter"`
	TaskType      manga.TaskType `json:"taskType"`
	AssigneeID    *string        `json:"assigneeId,omitempty"`
	Status        Status         `json:"status"`
	Progress      int            `json:"progress"`
	DueDate       *time.Time     `json:"dueDate,omitempty"`
	DriveLink     *string        `json:"driveLink,omitempty"`
	RawLink       *string        `json:"rawLink,omitempty"`
	Notes         *string        `json:"notes,omitempty"`
	ReviewerID    *string        `json:"reviewerId,omitempty"`
	ReviewedAt    *time.Time     `json:"reviewedAt,omitempty"`
	ReviewComment *string        `json:"reviewComment,omitempty"`
	ApprovedBy    *string        `json:"approvedBy,omitempty"`
	ApprovedAt    *time.Time     `json:"approvedAt,omitempty"`
	CompletedAt   *time.Time     `json:"completedAt,omitempty"`
	UploadedAt    *time.Time     `json:"uploadedAt,omitempty"`
	UploadedBy    *string        `json:"uploadedBy,omitempty"`
	CreatedBy     string         `json:"createdBy"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// ChapterKey returns the encoded chapter number used in storage.
func (a *Assignment) ChapterKey() string {
	return manga.EncodeChapterNumber(a.Chapter)
}

// AssignedTo reports whether userID is the assignee.
func (a *Assignment) AssignedTo(userID string) bool {
	return a.AssigneeID != nil && *a.AssigneeID == userID
}

// IsDelayed reports whether the due date has passed while work is still open.
func (a *Assignment) IsDelayed(now time.Time) bool {
	return a.DueDate != nil && a.Status.Open() && now.After(*a.DueDate)
}

// CompletedLate reports whether finished work was completed after the due date.
func (a *Assignment) CompletedLate() bool {
	switch a.Status {
	case StatusCompleted, StatusApproved, StatusUploaded:
	default:
		return false
	}
	return a.DueDate != nil && a.CompletedAt != nil && a.CompletedAt.After(*a.DueDate)
}

// View is an assignment with its derived flags, as served to clients.
type View struct {
	*Assignment
	Delayed       bool `json:"delayed"`
	CompletedLate bool `json:"completedLate"`
}

// View computes the derived flags at now.
func (a *Assignment) View(now time.Time) View {
	return View{Assignment: a, Delayed: a.IsDelayed(now), CompletedLate: a.CompletedLate()}
}

// Views maps a slice of assignments to views.
func Views(assignments []*Assignment, now time.Time) []View {
	out := make([]View, len(assignments))
	for i, assignment := range assignments {
		out[i] = assignment.View(now)
	}
	return out
}

// # Queries

// Filter narrows an assignment listing. Zero values match everything.
type Filter struct {
	AssigneeID string
	MangaID    string
	Chapter    string
	TaskType   manga.TaskType
	Statuses   []Status
}

// Group is the set of tasks one member holds on one chapter.
type Group struct {
	MangaID     string `json:"mangaId"`
	MangaTitle  string `json:"mangaTitle"`
	Chapter     string `json:"chapter"`
	AssigneeID  string `json:"assigneeId"`
	Assignments []View `json:"assignments"`
}

// Stats counts assignments per status. Delayed and CompletedLate are derived.
type Stats struct {
	Total         int            `json:"total"`
	ByStatus      map[Status]int `json:"byStatus"`
	Delayed       int            `json:"delayed"`
	CompletedLate int            `json:"completedLate"`
}
