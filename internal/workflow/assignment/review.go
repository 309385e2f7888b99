// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package assignment

import (
	"context"

	"github.com/taibuivan/yomira-studio/internal/core/manga"
	"github.com/taibuivan/yomira-studio/internal/platform/sec"
)

// PermissionChecker resolves a single capability for a user.
type PermissionChecker interface {
	Check(context context.Context, userID string, role sec.UserRole, permission sec.Permission) bool
}

// Actor is the member performing a workflow step.
type Actor struct {
	UserID string
	Role   sec.UserRole
}

// ActorFromClaims builds an [Actor] from verified token claims.
func ActorFromClaims(claims *sec.AuthClaims) Actor {
	return Actor{UserID: claims.UserID, Role: claims.StaffRole()}
}

// ChiefFor returns the chief role that reviews taskType.
func ChiefFor(taskType manga.TaskType) sec.UserRole {
	switch taskType {
	case manga.TaskTranslation, manga.TaskProofreading:
		return sec.RoleChiefTranslator
	default:
		return sec.RoleChiefEditor
	}
}

/*
CanReview reports whether actor may approve or reject work of taskType.

The canModerateReviews permission grants it. Without it, admins and the chief
of the task area still may.
*/
func CanReview(context context.Context, checker PermissionChecker, actor Actor, taskType manga.TaskType) bool {
	if checker != nil && checker.Check(context, actor.UserID, actor.Role, sec.PermModerateReviews) {
		return true
	}
	return actor.Role == sec.RoleAdmin || actor.Role == ChiefFor(taskType)
}
