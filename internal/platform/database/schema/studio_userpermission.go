// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// StudioUserPermissionTable represents the 'studio.userpermission' table.
// Overrides is a sparse JSONB object of permission key to boolean.
type StudioUserPermissionTable struct {
	Table       string
	UserID      string
	Overrides   string
	LastUpdated string
	UpdatedBy   string
}

var StudioUserPermission = StudioUserPermissionTable{
	Table:       "studio.userpermission",
	UserID:      "userid",
	Overrides:   "overrides",
	LastUpdated: "lastupdated",
	UpdatedBy:   "updatedby",
}
