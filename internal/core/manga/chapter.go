// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package manga

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/taibuivan/yomira-studio/internal/platform/validate"
)

// # Chapter Numbers

// chapterNumberPattern accepts non-negative decimals such as "7", "12.5" or "0.1".
var chapterNumberPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// EncodeChapterNumber turns a chapter number into its storage key ("12.5" -> "12_5").
// Keys are also used as URL path segments.
func EncodeChapterNumber(number string) string {
	return strings.ReplaceAll(number, ".", "_")
}

// DecodeChapterNumber is the inverse of [EncodeChapterNumber] ("12_5" -> "12.5").
func DecodeChapterNumber(key string) string {
	return strings.ReplaceAll(key, "_", ".")
}

// ValidChapterNumber reports whether number is a non-negative decimal.
func ValidChapterNumber(number string) bool {
	return chapterNumberPattern.MatchString(number)
}

// ParseChapterNumber accepts a chapter number in either plain or encoded form
// and returns the plain form.
func ParseChapterNumber(raw string) (string, error) {
	number := DecodeChapterNumber(strings.TrimSpace(raw))
	if !ValidChapterNumber(number) {
		return "", validate.Invalid("chapter", "Must be a non-negative decimal chapter number")
	}
	return number, nil
}

// # Publication Status

// PublicationStatus is the normalized publication state of a chapter.
type PublicationStatus string

const (
	// PublicationNone means nobody is working on the chapter yet.
	PublicationNone PublicationStatus = "none"

	// PublicationInWork means at least one assignment exists for the chapter.
	PublicationInWork PublicationStatus = "in_work"

	// PublicationPublished means the chapter has been uploaded.
	PublicationPublished PublicationStatus = "published"
)

// Valid reports whether s is a recognised [PublicationStatus].
func (s PublicationStatus) Valid() bool {
	switch s {
	case PublicationNone, PublicationInWork, PublicationPublished:
		return true
	}
	return false
}

// Published reports whether the chapter is out.
func (s PublicationStatus) Published() bool {
	return s == PublicationPublished
}

// # Entities

// Chapter is one chapter of a manga.
type Chapter struct {
	MangaID     string            `json:"mangaId"`
	Number      string            `json:"number"`
	Key         string            `json:"key"`
	Title       *string           `json:"title,omitempty"`
	RawLink     *string           `json:"rawLink,omitempty"`
	Status      PublicationStatus `json:"publicationStatus"`
	UploadLink  *string           `json:"uploadLink,omitempty"`
	PublishedAt *time.Time        `json:"publishedAt,omitempty"`
	PublishedBy *string           `json:"publishedBy,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// # Legacy Records

// LegacyChapter is a chapter record exported from the previous document
// store. Publication was spread over several independent signals there.
type LegacyChapter struct {
	Number      string     `json:"number"`
	Title       string     `json:"title,omitempty"`
	RawLink     string     `json:"rawLink,omitempty"`
	Status      string     `json:"status,omitempty"`
	IsPublished bool       `json:"isPublished,omitempty"`
	UploadLink  string     `json:"uploadLink,omitempty"`
	UploadedAt  *time.Time `json:"uploadedAt,omitempty"`
}

var (
	legacyDoneStatuses   = []string{"published", "completed", "uploaded", "done"}
	legacyActiveStatuses = []string{"in_work", "in_progress", "assigned", "pending", "working"}
)

/*
NormalizeLegacy folds the legacy publication signals of a chapter into a
single [PublicationStatus].

Any one of a done-like status string, the isPublished flag, an upload link or
an upload timestamp means the chapter is published.

Parameters:
  - legacy: LegacyChapter

Returns:
  - PublicationStatus: The normalized value
*/
func NormalizeLegacy(legacy LegacyChapter) PublicationStatus {
	status := strings.ToLower(strings.TrimSpace(legacy.Status))

	switch {
	case slices.Contains(legacyDoneStatuses, status),
		legacy.IsPublished,
		strings.TrimSpace(legacy.UploadLink) != "",
		legacy.UploadedAt != nil:
		return PublicationPublished
	case slices.Contains(legacyActiveStatuses, status):
		return PublicationInWork
	}
	return PublicationNone
}
