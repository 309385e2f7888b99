// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package batch runs per-item operations and reports the outcome as counts.

Items are processed one at a time. A failing item never rolls back the items
before it; the caller gets a [Result] describing what went through.
*/
package batch

import (
	"context"
	"errors"

	"github.com/taibuivan/yomira-studio/internal/platform/apperr"
)

// ItemError describes why a single item failed.
type ItemError struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

// Result summarises a batch operation.
type Result struct {
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Errors    []ItemError `json:"errors,omitempty"`
}

// Recorder counts batch items per operation.
type Recorder interface {
	BatchItems(operation string, succeeded, failed int)
}

// Run calls fn for every id in order and collects the outcome.
//
// Processing stops early only when ctx is cancelled; the remaining ids are
// reported as failed.
func Run(ctx context.Context, ids []string, fn func(ctx context.Context, id string) error) Result {
	result := Result{}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			result.fail(id, err)
			continue
		}
		if err := fn(ctx, id); err != nil {
			result.fail(id, err)
			continue
		}
		result.Succeeded++
	}
	return result
}

// Report forwards the counts of r to recorder. A nil recorder is ignored.
func (r Result) Report(recorder Recorder, operation string) {
	if recorder == nil {
		return
	}
	recorder.BatchItems(operation, r.Succeeded, r.Failed)
}

func (r *Result) fail(id string, err error) {
	r.Failed++

	item := ItemError{ID: id, Code: "INTERNAL_ERROR", Error: "An unexpected error occurred"}
	if appErr := apperr.As(err); appErr != nil {
		item.Code = appErr.Code
		item.Error = appErr.Message
	} else if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		item.Code = "CANCELLED"
		item.Error = err.Error()
	}
	r.Errors = append(r.Errors, item)
}
