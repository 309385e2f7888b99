// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package permission resolves what a staff member may do.

The effective permission set of a user is the default set of their role,
overlaid field by field with the user's optional override record. Both layers
are fixed structs with one field per catalog key, so every key is known at
compile time and a misspelt key cannot silently become a new permission.

Resolution never fails: a broken override lookup degrades to role defaults,
and an unrecognised role degrades to the least-privileged role.
*/
package permission

import (
	"time"

	"github.com/taibuivan/yomira-studio/internal/platform/sec"
)

// # Effective Set

// Set holds one boolean per catalog key.
type Set struct {
	ViewAllAssignments bool `json:"canViewAllAssignments"`
	AssignChapters     bool `json:"canAssignChapters"`
	EditAssignments    bool `json:"canEditAssignments"`
	DeleteAssignments  bool `json:"canDeleteAssignments"`
	ModerateReviews    bool `json:"canModerateReviews"`
	ManageMangas       bool `json:"canManageMangas"`
	ManageUsers        bool `json:"canManageUsers"`
	ManagePermissions  bool `json:"canManagePermissions"`
	UploadChapters     bool `json:"canUploadChapters"`
	ViewReports        bool `json:"canViewReports"`
	ViewStatistics     bool `json:"canViewStatistics"`
	ExportData         bool `json:"canExportData"`
	CreateShareLinks   bool `json:"canCreateShareLinks"`
}

// Get returns the value of key. Keys outside the catalog are false.
func (set Set) Get(key sec.Permission) bool {
	switch key {
	case sec.PermViewAllAssignments:
		return set.ViewAllAssignments
	case sec.PermAssignChapters:
		return set.AssignChapters
	case sec.PermEditAssignments:
		return set.EditAssignments
	case sec.PermDeleteAssignments:
		return set.DeleteAssignments
	case sec.PermModerateReviews:
		return set.ModerateReviews
	case sec.PermManageMangas:
		return set.ManageMangas
	case sec.PermManageUsers:
		return set.ManageUsers
	case sec.PermManagePermissions:
		return set.ManagePermissions
	case sec.PermUploadChapters:
		return set.UploadChapters
	case sec.PermViewReports:
		return set.ViewReports
	case sec.PermViewStatistics:
		return set.ViewStatistics
	case sec.PermExportData:
		return set.ExportData
	case sec.PermCreateShareLinks:
		return set.CreateShareLinks
	default:
		return false
	}
}

// Granted lists the keys that are true, in catalog order.
func (set Set) Granted() []sec.Permission {
	granted := make([]sec.Permission, 0, len(sec.Catalog))
	for _, key := range sec.Catalog {
		if set.Get(key) {
			granted = append(granted, key)
		}
	}
	return granted
}

// # Override Record

// Override is the sparse per-user layer. A nil field defers to the role default.
type Override struct {
	ViewAllAssignments *bool `json:"canViewAllAssignments,omitempty"`
	AssignChapters     *bool `json:"canAssignChapters,omitempty"`
	EditAssignments    *bool `json:"canEditAssignments,omitempty"`
	DeleteAssignments  *bool `json:"canDeleteAssignments,omitempty"`
	ModerateReviews    *bool `json:"canModerateReviews,omitempty"`
	ManageMangas       *bool `json:"canManageMangas,omitempty"`
	ManageUsers        *bool `json:"canManageUsers,omitempty"`
	ManagePermissions  *bool `json:"canManagePermissions,omitempty"`
	UploadChapters     *bool `json:"canUploadChapters,omitempty"`
	ViewReports        *bool `json:"canViewReports,omitempty"`
	ViewStatistics     *bool `json:"canViewStatistics,omitempty"`
	ExportData         *bool `json:"canExportData,omitempty"`
	CreateShareLinks   *bool `json:"canCreateShareLinks,omitempty"`

	LastUpdated time.Time `json:"_lastUpdated"`
	UpdatedBy   string    `json:"_updatedBy"`
}

// field returns the address of the override slot for key, or nil for unknown keys.
func (override *Override) field(key sec.Permission) **bool {
	switch key {
	case sec.PermViewAllAssignments:
		return &override.ViewAllAssignments
	case sec.PermAssignChapters:
		return &override.AssignChapters
	case sec.PermEditAssignments:
		return &override.EditAssignments
	case sec.PermDeleteAssignments:
		return &override.DeleteAssignments
	case sec.PermModerateReviews:
		return &override.ModerateReviews
	case sec.PermManageMangas:
		return &override.ManageMangas
	case sec.PermManageUsers:
		return &override.ManageUsers
	case sec.PermManagePermissions:
		return &override.ManagePermissions
	case sec.PermUploadChapters:
		return &override.UploadChapters
	case sec.PermViewReports:
		return &override.ViewReports
	case sec.PermViewStatistics:
		return &override.ViewStatistics
	case sec.PermExportData:
		return &override.ExportData
	case sec.PermCreateShareLinks:
		return &override.CreateShareLinks
	default:
		return nil
	}
}

// Lookup returns the override value of key and whether one is present.
func (override *Override) Lookup(key sec.Permission) (bool, bool) {
	if override == nil {
		return false, false
	}
	slot := override.field(key)
	if slot == nil || *slot == nil {
		return false, false
	}
	return **slot, true
}

// Values returns the present keys as a plain map, the shape stored in the database.
func (override *Override) Values() map[string]bool {
	values := make(map[string]bool)
	if override == nil {
		return values
	}
	for _, key := range sec.Catalog {
		if value, ok := override.Lookup(key); ok {
			values[string(key)] = value
		}
	}
	return values
}

// Len returns how many keys the override sets.
func (override *Override) Len() int {
	return len(override.Values())
}

// OverrideFromMap builds an override from loosely typed input. Keys outside the
// catalog are dropped and returned so the caller can log them.
func OverrideFromMap(values map[string]bool) (*Override, []string) {
	override := &Override{}
	var dropped []string

	for name, value := range values {
		slot := override.field(sec.Permission(name))
		if slot == nil {
			dropped = append(dropped, name)
			continue
		}
		v := value
		*slot = &v
	}

	return override, dropped
}

// # Reducer

// Merge overlays override on defaults. Present override fields win; absent
// fields keep the default.
func Merge(defaults Set, override *Override) Set {
	if override == nil {
		return defaults
	}

	return Set{
		ViewAllAssignments: pick(override.ViewAllAssignments, defaults.ViewAllAssignments),
		AssignChapters:     pick(override.AssignChapters, defaults.AssignChapters),
		EditAssignments:    pick(override.EditAssignments, defaults.EditAssignments),
		DeleteAssignments:  pick(override.DeleteAssignments, defaults.DeleteAssignments),
		ModerateReviews:    pick(override.ModerateReviews, defaults.ModerateReviews),
		ManageMangas:       pick(override.ManageMangas, defaults.ManageMangas),
		ManageUsers:        pick(override.ManageUsers, defaults.ManageUsers),
		ManagePermissions:  pick(override.ManagePermissions, defaults.ManagePermissions),
		UploadChapters:     pick(override.UploadChapters, defaults.UploadChapters),
		ViewReports:        pick(override.ViewReports, defaults.ViewReports),
		ViewStatistics:     pick(override.ViewStatistics, defaults.ViewStatistics),
		ExportData:         pick(override.ExportData, defaults.ExportData),
		CreateShareLinks:   pick(override.CreateShareLinks, defaults.CreateShareLinks),
	}
}

func pick(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

// ValuesOrNil is [Override.Values] that keeps "no override" distinguishable from
// an empty one.
func (override *Override) ValuesOrNil() map[string]bool {
	if override == nil {
		return nil
	}
	return override.Values()
}
