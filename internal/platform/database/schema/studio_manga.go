// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// StudioMangaTable represents the 'studio.manga' table
type StudioMangaTable struct {
	Table                 string
	ID                    string
	Title                 string
	Slug                  string
	CoverURL              string
	IsJoint               string
	JointGroup            string
	AllowedTaskTypes      string
	TotalChapters         string
	PublishedChapterCount string
	CreatedBy             string
	CreatedAt             string
	UpdatedAt             string
}

// StudioManga is the schema definition for studio.manga
var StudioManga = StudioMangaTable{
	Table:                 "studio.manga",
	ID:                    "id",
	Title:                 "title",
	Slug:                  "slug",
	CoverURL:              "coverurl",
	IsJoint:               "isjoint",
	JointGroup:            "jointgroup",
	AllowedTaskTypes:      "allowedtasktypes",
	TotalChapters:         "totalchapters",
	PublishedChapterCount: "publishedchaptercount",
	CreatedBy:             "createdby",
	CreatedAt:             "createdat",
	UpdatedAt:             "updatedat",
}

// Columns returns all standard column names
func (t StudioMangaTable) Columns() []string {
	return []string{
		t.ID, t.Title, t.Slug, t.CoverURL, t.IsJoint, t.JointGroup, t.AllowedTaskTypes,
		t.TotalChapters, t.PublishedChapterCount, t.CreatedBy, t.CreatedAt, t.UpdatedAt,
	}
}
