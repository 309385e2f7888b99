// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # Permission Catalog

// Permission is a key from the closed catalog of studio capabilities.
type Permission string

const (
	PermViewAllAssignments Permission = "canViewAllAssignments"
	PermAssignChapters     Permission = "canAssignChapters"
	PermEditAssignments    Permission = "canEditAssignments"
	PermDeleteAssignments  Permission = "canDeleteAssignments"
	PermModerateReviews    Permission = "canModerateReviews"
	PermManageMangas       Permission = "canManageMangas"
	PermManageUsers        Permission = "canManageUsers"
	PermManagePermissions  Permission = "canManagePermissions"
	PermUploadChapters     Permission = "canUploadChapters"
	PermViewReports        Permission = "canViewReports"
	PermViewStatistics     Permission = "canViewStatistics"
	PermExportData         Permission = "canExportData"
	PermCreateShareLinks   Permission = "canCreateShareLinks"
)

// Catalog lists every permission key in display order.
var Catalog = []Permission{
	PermViewAllAssignments,
	PermAssignChapters,
	PermEditAssignments,
	PermDeleteAssignments,
	PermModerateReviews,
	PermManageMangas,
	PermManageUsers,
	PermManagePermissions,
	PermUploadChapters,
	PermViewReports,
	PermViewStatistics,
	PermExportData,
	PermCreateShareLinks,
}

// Known reports whether p belongs to the catalog.
func (p Permission) Known() bool {
	for _, key := range Catalog {
		if key == p {
			return true
		}
	}
	return false
}
