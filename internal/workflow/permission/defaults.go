// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package permission

import "github.com/taibuivan/yomira-studio/internal/platform/sec"

// # Role Defaults

var adminDefaults = Set{
	ViewAllAssignments: true,
	AssignChapters:     true,
	EditAssignments:    true,
	DeleteAssignments:  true,
	ModerateReviews:    true,
	ManageMangas:       true,
	ManageUsers:        true,
	ManagePermissions:  true,
	UploadChapters:     true,
	ViewReports:        true,
	ViewStatistics:     true,
	ExportData:         true,
	CreateShareLinks:   true,
}

// Both chiefs share one table. It leaves canModerateReviews off: chiefs review
// only their own task area through the assignment workflow, and an override
// granting the key widens that to every area.
var chiefDefaults = Set{
	ViewAllAssignments: true,
	AssignChapters:     true,
	EditAssignments:    true,
	ManageMangas:       true,
	ViewReports:        true,
	ViewStatistics:     true,
	ExportData:         true,
	CreateShareLinks:   true,
}

var uploaderDefaults = Set{
	ViewAllAssignments: true,
	UploadChapters:     true,
	ViewReports:        true,
}

// Editors and translators only see and work their own assignments.
var workerDefaults = Set{}

var defaultsByRole = map[sec.UserRole]Set{
	sec.RoleAdmin:           adminDefaults,
	sec.RoleChiefEditor:     chiefDefaults,
	sec.RoleChiefTranslator: chiefDefaults,
	sec.RoleUploader:        uploaderDefaults,
	sec.RoleEditor:          workerDefaults,
	sec.RoleTranslator:      workerDefaults,
}

// Defaults returns the default set of role and whether the role is known.
// Unknown roles get the defaults of [sec.LowestRole].
func Defaults(role sec.UserRole) (Set, bool) {
	set, ok := defaultsByRole[role]
	if !ok {
		return defaultsByRole[sec.LowestRole], false
	}
	return set, true
}
