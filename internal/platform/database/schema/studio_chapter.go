// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// StudioChapterTable represents the 'studio.chapter' table.
// ChapterKey holds the encoded chapter number ("12_5").
type StudioChapterTable struct {
	Table             string
	MangaID           string
	ChapterKey        string
	Title             string
	RawLink           string
	PublicationStatus string
	UploadLink        string
	PublishedAt       string
	PublishedBy       string
	CreatedAt         string
	UpdatedAt         string
}

var StudioChapter = StudioChapterTable{
	Table:             "studio.chapter",
	MangaID:           "mangaid",
	ChapterKey:        "chapterkey",
	Title:             "title",
	RawLink:           "rawlink",
	PublicationStatus: "publicationstatus",
	UploadLink:        "uploadlink",
	PublishedAt:       "publishedat",
	PublishedBy:       "publishedby",
	CreatedAt:         "createdat",
	UpdatedAt:         "updatedat",
}

// Columns returns all standard column names
func (t StudioChapterTable) Columns() []string {
	return []string{
		t.MangaID, t.ChapterKey, t.Title, t.RawLink, t.PublicationStatus,
		t.UploadLink, t.PublishedAt, t.PublishedBy, t.CreatedAt, t.UpdatedAt,
	}
}
