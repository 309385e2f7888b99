// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package manga

import (
	"context"
	"time"
)

// RepairReport counts what a repair pass changed.
type RepairReport struct {
	ChaptersPublished int `json:"chaptersPublished"`
	ChaptersInWork    int `json:"chaptersInWork"`
	MangasRecounted   int `json:"mangasRecounted"`
}

// Changed reports whether the pass touched anything.
func (report RepairReport) Changed() bool {
	return report.ChaptersPublished+report.ChaptersInWork+report.MangasRecounted > 0
}

// Repository defines persistence operations for mangas and their chapters.
//
// Lookups of a missing row return an error satisfying [dberr.IsNotFound].
type Repository interface {
	List(context context.Context, filter Filter, limit, offset int) ([]*Manga, int, error)
	FindByID(context context.Context, id string) (*Manga, error)
	Create(context context.Context, manga *Manga) error
	Update(context context.Context, manga *Manga) error

	// Recount refreshes the denormalized chapter counters of one manga.
	Recount(context context.Context, mangaID string, at time.Time) error

	ListChapters(context context.Context, mangaID string) ([]*Chapter, error)
	FindChapter(context context.Context, mangaID, key string) (*Chapter, error)

	// SaveChapter inserts or replaces a chapter row as given.
	SaveChapter(context context.Context, chapter *Chapter) error

	// MarkInWork creates the chapter if needed and moves it from none to in_work.
	// Published chapters are left alone.
	MarkInWork(context context.Context, mangaID, key string, at time.Time) error

	// Publish marks the chapter published and refreshes the manga counters.
	// It reports false when the chapter was already published.
	Publish(context context.Context, mangaID, key string, uploadLink *string, publishedBy string, at time.Time) (bool, error)

	// Repair recomputes chapter publication state from assignment history.
	Repair(context context.Context, at time.Time) (RepairReport, error)
}
