// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package manga_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-studio/internal/core/manga"
	"github.com/taibuivan/yomira-studio/internal/platform/apperr"
	"github.com/taibuivan/yomira-studio/internal/platform/dberr"
	"github.com/taibuivan/yomira-studio/pkg/pagination"
)

// # Fakes

type memoryRepository struct {
	mu       sync.Mutex
	mangas   map[string]*manga.Manga
	chapters map[string]map[string]*manga.Chapter
	repair   manga.RepairReport
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		mangas:   make(map[string]*manga.Manga),
		chapters: make(map[string]map[string]*manga.Chapter),
	}
}

func (repository *memoryRepository) List(_ context.Context, filter manga.Filter, limit, offset int) ([]*manga.Manga, int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	var all []*manga.Manga
	for _, item := range repository.mangas {
		if filter.Joint != nil && item.IsJoint != *filter.Joint {
			continue
		}
		copied := *item
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Title < all[j].Title })

	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (repository *memoryRepository) FindByID(_ context.Context, id string) (*manga.Manga, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	item, ok := repository.mangas[id]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	copied := *item
	return &copied, nil
}

func (repository *memoryRepository) Create(_ context.Context, item *manga.Manga) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, existing := range repository.mangas {
		if existing.Slug == item.Slug {
			return apperr.Conflict("Resource already exists")
		}
	}
	copied := *item
	repository.mangas[item.ID] = &copied
	return nil
}

func (repository *memoryRepository) Update(_ context.Context, item *manga.Manga) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if _, ok := repository.mangas[item.ID]; !ok {
		return dberr.ErrNotFound
	}
	copied := *item
	repository.mangas[item.ID] = &copied
	return nil
}

func (repository *memoryRepository) Recount(_ context.Context, mangaID string, _ time.Time) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.recountLocked(mangaID)
	return nil
}

func (repository *memoryRepository) ListChapters(_ context.Context, mangaID string) ([]*manga.Chapter, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	var out []*manga.Chapter
	for _, chapter := range repository.chapters[mangaID] {
		copied := *chapter
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (repository *memoryRepository) FindChapter(_ context.Context, mangaID, key string) (*manga.Chapter, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	chapter, ok := repository.chapters[mangaID][key]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	copied := *chapter
	return &copied, nil
}

func (repository *memoryRepository) SaveChapter(_ context.Context, chapter *manga.Chapter) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	copied := *chapter
	repository.chapterMap(chapter.MangaID)[chapter.Key] = &copied
	return nil
}

func (repository *memoryRepository) MarkInWork(_ context.Context, mangaID, key string, at time.Time) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	chapters := repository.chapterMap(mangaID)
	chapter, ok := chapters[key]
	if !ok {
		chapters[key] = &manga.Chapter{
			MangaID: mangaID, Key: key, Number: manga.DecodeChapterNumber(key),
			Status: manga.PublicationInWork, CreatedAt: at, UpdatedAt: at,
		}
		return nil
	}
	if chapter.Status == manga.PublicationNone {
		chapter.Status = manga.PublicationInWork
		chapter.UpdatedAt = at
	}
	return nil
}

func (repository *memoryRepository) Publish(_ context.Context, mangaID, key string, uploadLink *string, by string, at time.Time) (bool, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	chapters := repository.chapterMap(mangaID)
	chapter, ok := chapters[key]
	if !ok {
		chapter = &manga.Chapter{MangaID: mangaID, Key: key, Number: manga.DecodeChapterNumber(key), CreatedAt: at}
		chapters[key] = chapter
	}
	if chapter.Status == manga.PublicationPublished {
		return false, nil
	}

	chapter.Status = manga.PublicationPublished
	chapter.PublishedAt = &at
	chapter.PublishedBy = &by
	if uploadLink != nil {
		chapter.UploadLink = uploadLink
	}
	chapter.UpdatedAt = at
	repository.recountLocked(mangaID)
	return true, nil
}

func (repository *memoryRepository) Repair(context.Context, time.Time) (manga.RepairReport, error) {
	return repository.repair, nil
}

func (repository *memoryRepository) chapterMap(mangaID string) map[string]*manga.Chapter {
	chapters, ok := repository.chapters[mangaID]
	if !ok {
		chapters = make(map[string]*manga.Chapter)
		repository.chapters[mangaID] = chapters
	}
	return chapters
}

func (repository *memoryRepository) recountLocked(mangaID string) {
	item, ok := repository.mangas[mangaID]
	if !ok {
		return
	}
	published := 0
	for _, chapter := range repository.chapters[mangaID] {
		if chapter.Status == manga.PublicationPublished {
			published++
		}
	}
	item.PublishedChapterCount = published
	if total := len(repository.chapters[mangaID]); total > item.TotalChapters {
		item.TotalChapters = total
	}
}

type recordedEvent struct {
	topic, eventType string
}

type memoryPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (publisher *memoryPublisher) Publish(_ context.Context, topic, eventType string, _ any) error {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	publisher.events = append(publisher.events, recordedEvent{topic: topic, eventType: eventType})
	return nil
}

func (publisher *memoryPublisher) types() []string {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	out := make([]string, len(publisher.events))
	for i, event := range publisher.events {
		out[i] = event.eventType
	}
	return out
}

func newService(t *testing.T) (*manga.Service, *memoryRepository, *memoryPublisher) {
	t.Helper()
	repo := newMemoryRepository()
	publisher := &memoryPublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return manga.NewService(repo, publisher, nil, logger), repo, publisher
}

func appCode(err error) string {
	if appErr := apperr.As(err); appErr != nil {
		return appErr.Code
	}
	return ""
}

// # Tests

/*
TestService_Create validates input and derives the slug.
*/
func TestService_Create(t *testing.T) {
	service, _, publisher := newService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, manga.CreateInput{Title: "  Kimi no Koto ga Daidaidaidaidaisuki  ", TotalChapters: 120}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "Kimi no Koto ga Daidaidaidaidaisuki", created.Title)
	assert.Equal(t, "kimi-no-koto-ga-daidaidaidaidaisuki", created.Slug)
	assert.Empty(t, created.AllowedTaskTypes)
	assert.Equal(t, []string{manga.EventMangaCreated}, publisher.types())

	tests := []struct {
		name  string
		input manga.CreateInput
		code  string
	}{
		{"missing_title", manga.CreateInput{}, "VALIDATION_ERROR"},
		{"punctuation_only", manga.CreateInput{Title: "!!!"}, "VALIDATION_ERROR"},
		{"bad_cover", manga.CreateInput{Title: "A", CoverURL: strPtr("ftp://cover")}, "VALIDATION_ERROR"},
		{"joint_without_types", manga.CreateInput{Title: "B", IsJoint: true}, "VALIDATION_ERROR"},
		{"joint_unknown_type", manga.CreateInput{Title: "C", IsJoint: true, AllowedTaskTypes: []manga.TaskType{"coloring"}}, "VALIDATION_ERROR"},
		{"duplicate_slug", manga.CreateInput{Title: "Kimi no koto ga daidaidaidaidaisuki"}, "CONFLICT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Create(ctx, tt.input, "admin-1")
			assert.Equal(t, tt.code, appCode(err))
		})
	}
}

/*
TestService_Update applies partial changes and keeps joint rules.
*/
func TestService_Update(t *testing.T) {
	service, _, _ := newService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, manga.CreateInput{Title: "Dandadan"}, "admin-1")
	require.NoError(t, err)

	joint := true
	_, err = service.Update(ctx, created.ID, manga.UpdateInput{IsJoint: &joint})
	assert.Equal(t, "VALIDATION_ERROR", appCode(err))

	types := []manga.TaskType{manga.TaskCleanRedraw, manga.TaskTypesetting}
	updated, err := service.Update(ctx, created.ID, manga.UpdateInput{IsJoint: &joint, AllowedTaskTypes: &types})
	require.NoError(t, err)
	assert.True(t, updated.IsJoint)
	assert.Equal(t, "dandadan", updated.Slug)
	assert.False(t, updated.AllowsTaskType(manga.TaskTranslation))

	notJoint := false
	updated, err = service.Update(ctx, created.ID, manga.UpdateInput{IsJoint: &notJoint})
	require.NoError(t, err)
	assert.Empty(t, updated.AllowedTaskTypes)

	_, err = service.Update(ctx, "missing", manga.UpdateInput{})
	assert.Equal(t, "NOT_FOUND", appCode(err))
}

/*
TestService_PublishChapter is the single publication write and is idempotent.
*/
func TestService_PublishChapter(t *testing.T) {
	service, repo, publisher := newService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, manga.CreateInput{Title: "Frieren"}, "admin-1")
	require.NoError(t, err)

	status, err := service.ChapterStatus(ctx, created.ID, "12.5")
	require.NoError(t, err)
	assert.Equal(t, manga.PublicationNone, status)

	require.NoError(t, service.MarkInWork(ctx, created.ID, "12.5"))
	status, _ = service.ChapterStatus(ctx, created.ID, "12.5")
	assert.Equal(t, manga.PublicationInWork, status)

	changed, err := service.PublishChapter(ctx, created.ID, "12_5", strPtr("https://reader.example.org/frieren/12-5"), "uploader-1")
	require.NoError(t, err)
	assert.True(t, changed)

	status, _ = service.ChapterStatus(ctx, created.ID, "12.5")
	assert.Equal(t, manga.PublicationPublished, status)

	changed, err = service.PublishChapter(ctx, created.ID, "12.5", nil, "uploader-1")
	require.NoError(t, err)
	assert.False(t, changed)

	// Work started after publication does not downgrade the chapter.
	require.NoError(t, service.MarkInWork(ctx, created.ID, "12.5"))
	status, _ = service.ChapterStatus(ctx, created.ID, "12.5")
	assert.Equal(t, manga.PublicationPublished, status)

	stored, _ := repo.FindByID(ctx, created.ID)
	assert.Equal(t, 1, stored.PublishedChapterCount)
	assert.Contains(t, publisher.types(), manga.EventChapterPublished)

	_, err = service.PublishChapter(ctx, created.ID, "twelve", nil, "uploader-1")
	assert.Equal(t, "VALIDATION_ERROR", appCode(err))
}

/*
TestService_ImportChapters normalizes legacy records one at a time.
*/
func TestService_ImportChapters(t *testing.T) {
	service, repo, _ := newService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, manga.CreateInput{Title: "Blue Period"}, "admin-1")
	require.NoError(t, err)

	result, err := service.ImportChapters(ctx, created.ID, []manga.LegacyChapter{
		{Number: "1", Status: "uploaded"},
		{Number: "2", UploadLink: "https://reader.example.org/bp/2"},
		{Number: "3", Status: "in_progress"},
		{Number: "3.5"},
		{Number: "three"},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Succeeded)
	assert.Equal(t, 1, result.Failed)

	chapters, err := service.Chapters(ctx, created.ID)
	require.NoError(t, err)
	statuses := make(map[string]manga.PublicationStatus, len(chapters))
	for _, chapter := range chapters {
		statuses[chapter.Number] = chapter.Status
	}
	assert.Equal(t, map[string]manga.PublicationStatus{
		"1":   manga.PublicationPublished,
		"2":   manga.PublicationPublished,
		"3":   manga.PublicationInWork,
		"3.5": manga.PublicationNone,
	}, statuses)

	stored, _ := repo.FindByID(ctx, created.ID)
	assert.Equal(t, 2, stored.PublishedChapterCount)
	assert.Equal(t, 4, stored.TotalChapters)

	_, err = service.ImportChapters(ctx, "missing", nil)
	assert.Equal(t, "NOT_FOUND", appCode(err))
}

/*
TestService_Sync reports the repair counts and only announces real changes.
*/
func TestService_Sync(t *testing.T) {
	service, repo, publisher := newService(t)
	ctx := context.Background()

	report, err := service.SyncAssignmentsWithPublishedChapters(ctx)
	require.NoError(t, err)
	assert.False(t, report.Changed())
	assert.Empty(t, publisher.types())

	repo.repair = manga.RepairReport{ChaptersPublished: 2, MangasRecounted: 1}
	report, err = service.SyncAssignmentsWithPublishedChapters(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.ChaptersPublished)
	assert.Equal(t, []string{manga.EventChaptersRepaired}, publisher.types())
}

/*
TestService_List pages through the catalogue.
*/
func TestService_List(t *testing.T) {
	service, _, _ := newService(t)
	ctx := context.Background()

	for _, title := range []string{"Chainsaw Man", "Akane-banashi", "Blue Lock"} {
		_, err := service.Create(ctx, manga.CreateInput{Title: title}, "admin-1")
		require.NoError(t, err)
	}

	page, total, err := service.List(ctx, manga.Filter{}, pagination.Params{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "Akane-banashi", page[0].Title)
}

func strPtr(value string) *string {
	return &value
}
