// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # Staff Roles

// UserRole identifies the job function of a staff account.
type UserRole string

const (
	// Full studio administration
	RoleAdmin UserRole = "admin"

	// Reviews cleaning and typesetting work
	RoleChiefEditor UserRole = "chief_editor"

	// Reviews translation and proofreading work
	RoleChiefTranslator UserRole = "chief_translator"

	// Publishes finished chapters in upload batches
	RoleUploader UserRole = "uploader"

	// Cleans, redraws and typesets pages
	RoleEditor UserRole = "editor"

	// Translates and proofreads scripts
	RoleTranslator UserRole = "translator"
)

// LowestRole is the least-privileged role, used when a stored role is not recognised.
const LowestRole = RoleTranslator

// Roles lists every known role from highest to lowest rank.
var Roles = []UserRole{
	RoleAdmin,
	RoleChiefEditor,
	RoleChiefTranslator,
	RoleUploader,
	RoleEditor,
	RoleTranslator,
}

// # Role Hierarchy

// rank maps a role to its position in the studio hierarchy.
var rank = map[UserRole]int{
	RoleAdmin:           5,
	RoleChiefEditor:     4,
	RoleChiefTranslator: 4,
	RoleUploader:        3,
	RoleEditor:          2,
	RoleTranslator:      2,
}

// Rank returns the numeric hierarchy level of r, or 0 when r is unknown.
func (r UserRole) Rank() int {
	return rank[r]
}

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	_, ok := rank[r]
	return ok
}

// Outranks reports whether r sits strictly above other in the hierarchy.
func (r UserRole) Outranks(other UserRole) bool {
	return r.Rank() > other.Rank()
}

// ParseRole converts a stored role string into a [UserRole].
// The second result is false when the value is not a known role.
func ParseRole(value string) (UserRole, bool) {
	role := UserRole(value)
	return role, role.Valid()
}

// RoleStrings returns the known roles as plain strings, for validators.
func RoleStrings() []string {
	out := make([]string, len(Roles))
	for i, role := range Roles {
		out[i] = string(role)
	}
	return out
}
