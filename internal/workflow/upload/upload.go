// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package upload turns finished assignments into published chapters.

Uploaders pick approved or completed work from the pending queue, keep their
selection in a resumable draft, and finalize the batch. Finalizing marks each
assignment uploaded, publishes its chapter and writes one immutable report.
*/
package upload

import (
	"time"

	"github.com/taibuivan/yomira-studio/internal/core/manga"
	"github.com/taibuivan/yomira-studio/internal/platform/batch"
)

// # Reports

// ChapterEntry is one uploaded assignment as recorded in a [Report].
type ChapterEntry struct {
	AssignmentID string         `json:"assignmentId"`
	MangaID      string         `json:"mangaId"`
	MangaTitle   string         `json:"mangaTitle"`
	Chapter      string         `json:"chapter"`
	TaskType     manga.TaskType `json:"taskType"`
	UploadLink   *string        `json:"uploadLink,omitempty"`
}

// Report is the record of one finalized upload batch. Reports are never
// changed after creation.
type Report struct {
	ID            string         `json:"id"`
	UploaderID    string         `json:"uploaderId"`
	UploaderName  string         `json:"uploaderName"`
	Chapters      []ChapterEntry `json:"chapters"`
	TotalChapters int            `json:"totalChapters"`
	Notes         *string        `json:"notes,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// # Drafts

// Draft is an uploader's unfinished batch selection.
type Draft struct {
	UserID        string            `json:"userId"`
	AssignmentIDs []string          `json:"assignmentIds"`
	UploadLinks   map[string]string `json:"uploadLinks,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// # Finalize

// Uploader identifies who finalizes a batch.
type Uploader struct {
	ID   string
	Name string
}

// FinalizeInput is the payload for [Service.FinalizeBatch].
type FinalizeInput struct {
	AssignmentIDs []string          `json:"assignmentIds"`
	UploadLinks   map[string]string `json:"uploadLinks"`
	Notes         *string           `json:"notes"`
}

// FinalizeResult carries the per-assignment counts and the report written for
// the successful ones. Report is nil when nothing could be uploaded.
type FinalizeResult struct {
	batch.Result
	Report *Report `json:"report"`
}
