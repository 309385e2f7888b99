// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package manga_test

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-studio/internal/core/manga"
)

/*
TestChapterNumber_RoundTrip checks that encoding and decoding are exact
inverses for valid chapter numbers.
*/
func TestChapterNumber_RoundTrip(t *testing.T) {
	assert.Equal(t, "12_5", manga.EncodeChapterNumber("12.5"))
	assert.Equal(t, "12.5", manga.DecodeChapterNumber("12_5"))

	fixed := []string{"0", "1", "7", "10", "12.5", "100.25", "0.1", "007", "3.50"}
	for _, number := range fixed {
		require.True(t, manga.ValidChapterNumber(number), number)
		assert.Equal(t, number, manga.DecodeChapterNumber(manga.EncodeChapterNumber(number)), number)
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		number := fmt.Sprintf("%d", rng.Intn(2000))
		if rng.Intn(2) == 0 {
			number += fmt.Sprintf(".%d", rng.Intn(1000))
		}
		require.True(t, manga.ValidChapterNumber(number), number)

		key := manga.EncodeChapterNumber(number)
		assert.NotContains(t, key, ".")
		assert.Equal(t, number, manga.DecodeChapterNumber(key))
	}
}

/*
TestParseChapterNumber accepts plain and encoded numbers and rejects the rest.
*/
func TestParseChapterNumber(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"12.5", "12.5", false},
		{"12_5", "12.5", false},
		{" 3 ", "3", false},
		{"-1", "", true},
		{"1.2.3", "", true},
		{"abc", "", true},
		{"", "", true},
		{"4.", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := manga.ParseChapterNumber(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

/*
TestNormalizeLegacy folds every legacy publication signal into the enum.
*/
func TestNormalizeLegacy(t *testing.T) {
	uploadedAt := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		legacy manga.LegacyChapter
		want   manga.PublicationStatus
	}{
		{"empty", manga.LegacyChapter{}, manga.PublicationNone},
		{"status_published", manga.LegacyChapter{Status: "published"}, manga.PublicationPublished},
		{"status_completed", manga.LegacyChapter{Status: "Completed"}, manga.PublicationPublished},
		{"status_uploaded", manga.LegacyChapter{Status: "uploaded"}, manga.PublicationPublished},
		{"status_done", manga.LegacyChapter{Status: " done "}, manga.PublicationPublished},
		{"flag", manga.LegacyChapter{IsPublished: true}, manga.PublicationPublished},
		{"upload_link", manga.LegacyChapter{UploadLink: "https://example.org/c/1"}, manga.PublicationPublished},
		{"uploaded_at", manga.LegacyChapter{UploadedAt: &uploadedAt}, manga.PublicationPublished},
		{"blank_link", manga.LegacyChapter{UploadLink: "  "}, manga.PublicationNone},
		{"in_progress", manga.LegacyChapter{Status: "in_progress"}, manga.PublicationInWork},
		{"active_but_flagged", manga.LegacyChapter{Status: "pending", IsPublished: true}, manga.PublicationPublished},
		{"unknown_status", manga.LegacyChapter{Status: "archived"}, manga.PublicationNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, manga.NormalizeLegacy(tt.legacy))
		})
	}
}

/*
TestManga_AllowsTaskType restricts joint mangas to their allowed list.
*/
func TestManga_AllowsTaskType(t *testing.T) {
	solo := &manga.Manga{}
	joint := &manga.Manga{IsJoint: true, AllowedTaskTypes: []manga.TaskType{manga.TaskTranslation}}

	for _, taskType := range manga.TaskTypes {
		assert.True(t, solo.AllowsTaskType(taskType))
	}
	assert.True(t, joint.AllowsTaskType(manga.TaskTranslation))
	assert.False(t, joint.AllowsTaskType(manga.TaskTypesetting))
	assert.False(t, manga.TaskType("coloring").Valid())
}
