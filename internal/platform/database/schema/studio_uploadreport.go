// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// StudioUploadReportTable represents the 'studio.uploadreport' table.
// Rows are append-only.
type StudioUploadReportTable struct {
	Table         string
	ID            string
	UploaderID    string
	UploaderName  string
	Chapters      string
	TotalChapters string
	Notes         string
	CreatedAt     string
}

var StudioUploadReport = StudioUploadReportTable{
	Table:         "studio.uploadreport",
	ID:            "id",
	UploaderID:    "uploaderid",
	UploaderName:  "uploadername",
	Chapters:      "chapters",
	TotalChapters: "totalchapters",
	Notes:         "notes",
	CreatedAt:     "createdat",
}

// Columns returns all standard column names
func (t StudioUploadReportTable) Columns() []string {
	return []string{t.ID, t.UploaderID, t.UploaderName, t.Chapters, t.TotalChapters, t.Notes, t.CreatedAt}
}
