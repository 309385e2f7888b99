// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package manga manages the catalogue of series the studio works on.

Each manga owns a list of chapters identified by their encoded chapter number.
A chapter carries a single normalized [PublicationStatus]; it is written at
the one place a chapter gets published and read by the assignment workflow to
refuse work on chapters that are already out.

Joint mangas are shared with another scanlation group. The studio only takes
the task types listed in AllowedTaskTypes for them.
*/
package manga

import (
	"slices"
	"time"
)

// # Task Types

// TaskType is one stage of the scanlation pipeline.
type TaskType string

const (
	TaskTranslation  TaskType = "translation"
	TaskProofreading TaskType = "proofreading"
	TaskCleanRedraw  TaskType = "cleanRedrawer"
	TaskTypesetting  TaskType = "typesetting"
)

// TaskTypes lists every task type in pipeline order.
var TaskTypes = []TaskType{TaskTranslation, TaskProofreading, TaskCleanRedraw, TaskTypesetting}

// Valid reports whether t is a known task type.
func (t TaskType) Valid() bool {
	return slices.Contains(TaskTypes, t)
}

// TaskTypeStrings returns the task types as plain strings, for validators.
func TaskTypeStrings() []string {
	out := make([]string, len(TaskTypes))
	for i, taskType := range TaskTypes {
		out[i] = string(taskType)
	}
	return out
}

// # Entities

// Manga is one series in the studio catalogue.
type Manga struct {
	ID                    string     `json:"id"`
	Title                 string     `json:"title"`
	Slug                  string     `json:"slug"`
	CoverURL              *string    `json:"coverUrl,omitempty"`
	IsJoint               bool       `json:"isJoint"`
	JointGroup            *string    `json:"jointGroup,omitempty"`
	AllowedTaskTypes      []TaskType `json:"allowedTaskTypes"`
	TotalChapters         int        `json:"totalChapters"`
	PublishedChapterCount int        `json:"publishedChapterCount"`
	CreatedBy             string     `json:"createdBy,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// AllowsTaskType reports whether the studio may take taskType on this manga.
// Non-joint mangas allow every task type.
func (m *Manga) AllowsTaskType(taskType TaskType) bool {
	if !m.IsJoint {
		return true
	}
	return slices.Contains(m.AllowedTaskTypes, taskType)
}

// Filter narrows a manga listing.
type Filter struct {
	Search string
	Joint  *bool
}
