package auth

import "github.com/rosterbase/rosterbase/internal/db/models"

// Permission constants define the available permissions in the system.
// These are used for role-based access control (RBAC) to restrict access
// to specific resources and actions.
const (
	// PermRosterView allows viewing rosters and their slots.
	PermRosterView = "roster.view"
	// PermRosterCreate allows creating a new roster for a store/date/shift.
	PermRosterCreate = "roster.create"
	// PermRosterModify allows editing an existing roster's slots.
	PermRosterModify = "roster.modify"
	// PermRosterDelete allows deleting a roster and its slots.
	PermRosterDelete = "roster.delete"
	// PermRosterPublish allows the draft to published transition.
	PermRosterPublish = "roster.publish"
	// PermRosterCheckOut allows staff to record the end of their own slot.
	PermRosterCheckOut = "roster.checkout"

	// PermActualsRecord allows recording actuals on roster slots.
	PermActualsRecord = "actuals.record"
	// PermActualsClear allows clearing all actuals fields on a slot.
	PermActualsClear = "actuals.clear"
	// PermActualsOverride allows setting the attendance status directly
	// (absent/substituted) instead of relying on derivation.
	PermActualsOverride = "actuals.override"

	// PermUserView allows viewing user accounts.
	PermUserView = "user.view"
	// PermUserCreate allows creating user accounts.
	PermUserCreate = "user.create"
	// PermUserUpdate allows modifying user accounts (hierarchy checked).
	PermUserUpdate = "user.update"
	// PermUserDelete allows soft-deleting user accounts (hierarchy checked).
	PermUserDelete = "user.delete"

	// PermRoleView allows viewing roles and their permissions.
	PermRoleView = "role.view"
	// PermRoleCreate allows creating custom roles.
	PermRoleCreate = "role.create"
	// PermRoleModify allows changing a role's permission set.
	PermRoleModify = "role.modify"
	// PermRoleDelete allows deleting custom roles.
	PermRoleDelete = "role.delete"

	// PermTaskView allows viewing tasks.
	PermTaskView = "task.view"
	// PermTaskCreate allows creating tasks.
	PermTaskCreate = "task.create"
	// PermTaskUpdate allows modifying tasks.
	PermTaskUpdate = "task.update"
	// PermTaskDelete allows deleting tasks.
	PermTaskDelete = "task.delete"

	// PermShiftView allows viewing shift definitions.
	PermShiftView = "shift.view"
	// PermShiftCreate allows creating shift definitions.
	PermShiftCreate = "shift.create"
	// PermShiftUpdate allows modifying shift definitions.
	PermShiftUpdate = "shift.update"
	// PermShiftDelete allows deleting shift definitions.
	PermShiftDelete = "shift.delete"

	// PermSettingsView allows viewing store settings.
	PermSettingsView = "settings.view"
	// PermSettingsManage allows changing store settings.
	PermSettingsManage = "settings.manage"
)

// userModificationPerms are the permissions that route through the secondary
// user-hierarchy check when a specific target user is named.
var userModificationPerms = map[string]bool{
	PermUserUpdate: true,
	PermUserDelete: true,
}

// sensitiveManagerPerms are allowed for the full-access role but flagged
// with a confirmation warning when the target is itself a store manager.
var sensitiveManagerPerms = map[string]bool{
	PermUserDelete: true,
	PermRoleModify: true,
}

// SensitiveTargetWarning returns the confirmation warning for a sensitive
// permission exercised against a target carrying the store-manager role kind,
// whether the target is a user (deletion) or the full-access role itself
// (modification). Empty when the combination needs no confirmation.
func SensitiveTargetWarning(permission string, targetKind models.RoleKind) string {
	if sensitiveManagerPerms[permission] && targetKind == models.RoleKindStoreManager {
		return "the target holds the store manager role; confirm before proceeding"
	}

	return ""
}
