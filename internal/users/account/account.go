// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account manages the studio's staff directory.

Every member has exactly one role. Administrators create accounts, change
roles and activate or deactivate members; inactive members cannot sign in
and cannot receive new assignments.

# Architecture

  - Service: Directory use cases and their audit trail.
  - Repository: users.account persistence.
  - Handler: The /users routes, restricted to holders of canManageUsers.
*/
package account

import (
	"context"
	"time"

	"github.com/taibuivan/yomira-studio/internal/platform/sec"
)

// # Domain Entities

// User is a staff member as seen by the rest of the studio.
type User struct {
	ID          string       `json:"id"`
	Username    string       `json:"username"`
	Email       string       `json:"email"`
	Role        sec.UserRole `json:"role"`
	DisplayName string       `json:"displayName"`
	AvatarURL   *string      `json:"avatarUrl,omitempty"`
	IsActive    bool         `json:"isActive"`
	LastLoginAt *time.Time   `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Name returns the display name, or the username when none is set.
func (user *User) Name() string {
	if user.DisplayName != "" {
		return user.DisplayName
	}
	return user.Username
}

// Filter narrows a directory listing. Zero values match everything.
type Filter struct {
	Role   sec.UserRole
	Active *bool
	Search string
}

// # Field Identifiers

const (
	FieldUsername    = "username"
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldDisplayName = "displayName"
	FieldRole        = "role"
	FieldIsActive    = "isActive"
)

// # Data Access

// Repository defines the persistence contract of the directory.
type Repository interface {

	/*
		Create inserts a new account together with its password hash.

		Returns:
		  - error: Conflict when the username or email is taken
	*/
	Create(context context.Context, user *User, passwordHash string) error

	// FindByID returns one non-deleted account.
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindCredentials looks an account up by username or email, case-insensitively.

		Returns:
		  - *User: The account
		  - string: Its bcrypt password hash
		  - error: NotFound when no account matches
	*/
	FindCredentials(context context.Context, login string) (*User, string, error)

	// List returns a page of accounts and the total match count.
	List(context context.Context, filter Filter, limit, offset int) ([]*User, int, error)

	// UpdateRole replaces the role of an account.
	UpdateRole(context context.Context, id string, role sec.UserRole, at time.Time) error

	// UpdateStatus activates or deactivates an account.
	UpdateStatus(context context.Context, id string, active bool, at time.Time) error

	// TouchLogin records a successful sign-in.
	TouchLogin(context context.Context, id string, at time.Time) error
}

// ProfileCache drops cached profiles after a directory change.
type ProfileCache interface {
	Invalidate(context context.Context, userID string) error
}
