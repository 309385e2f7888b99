// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// StudioAssignmentTable represents the 'studio.assignment' table
type StudioAssignmentTable struct {
	Table         string
	ID            string
	MangaID       string
	MangaTitle    string
	ChapterKey    string
	TaskType      string
	AssigneeID    string
	Status        string
	Progress      string
	DueDate       string
	DriveLink     string
	RawLink       string
	Notes         string
	ReviewerID    string
	ReviewedAt    string
	ReviewComment string
	ApprovedBy    string
	ApprovedAt    string
	CompletedAt   string
	UploadedAt    string
	UploadedBy    string
	CreatedBy     string
	CreatedAt     string
	UpdatedAt     string
}

// StudioAssignment is the schema definition for studio.assignment
var StudioAssignment = StudioAssignmentTable{
	Table:         "studio.assignment",
	ID:            "id",
	MangaID:       "mangaid",
	MangaTitle:    "mangatitle",
	ChapterKey:    "chapterkey",
	TaskType:      "tasktype",
	AssigneeID:    "assigneeid",
	Status:        "status",
	Progress:      "progress",
	DueDate:       "duedate",
	DriveLink:     "drivelink",
	RawLink:       "rawlink",
	Notes:         "notes",
	ReviewerID:    "reviewerid",
	ReviewedAt:    "reviewedat",
	ReviewComment: "reviewcomment",
	ApprovedBy:    "approvedby",
	ApprovedAt:    "approvedat",
	CompletedAt:   "completedat",
	UploadedAt:    "uploadedat",
	UploadedBy:    "uploadedby",
	CreatedBy:     "createdby",
	CreatedAt:     "createdat",
	UpdatedAt:     "updatedat",
}

// Columns returns all standard column names
func (t StudioAssignmentTable) Columns() []string {
	return []string{
		t.ID, t.MangaID, t.MangaTitle, t.ChapterKey, t.TaskType, t.AssigneeID,
		t.Status, t.Progress, t.DueDate, t.DriveLink, t.RawLink, t.Notes,
		t.ReviewerID, t.ReviewedAt, t.ReviewComment, t.ApprovedBy, t.ApprovedAt,
		t.CompletedAt, t.UploadedAt, t.UploadedBy, t.CreatedBy, t.CreatedAt, t.UpdatedAt,
	}
}
