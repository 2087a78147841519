package daemon

import (
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/rosterbase/rosterbase/internal/auth"
	"github.com/rosterbase/rosterbase/internal/config"
	"github.com/rosterbase/rosterbase/internal/db/models"
	"github.com/rosterbase/rosterbase/internal/uniuri"
)

// allPermissions is the full permission catalog written at first start.
var allPermissions = map[string]string{
	auth.PermRosterView:      "View rosters and their slots",
	auth.PermRosterCreate:    "Create rosters",
	auth.PermRosterModify:    "Edit roster slots",
	auth.PermRosterDelete:    "Delete rosters",
	auth.PermRosterPublish:   "Publish draft rosters",
	auth.PermRosterCheckOut:  "Check out of an own slot",
	auth.PermActualsRecord:   "Record actuals on slots",
	auth.PermActualsClear:    "Clear actuals on slots",
	auth.PermActualsOverride: "Override derived attendance status",
	auth.PermUserView:        "View user accounts",
	auth.PermUserCreate:      "Create user accounts",
	auth.PermUserUpdate:      "Modify user accounts",
	auth.PermUserDelete:      "Delete user accounts",
	auth.PermRoleView:        "View roles",
	auth.PermRoleCreate:      "Create custom roles",
	auth.PermRoleModify:      "Change role permission sets",
	auth.PermRoleDelete:      "Delete custom roles",
	auth.PermTaskView:        "View tasks",
	auth.PermTaskCreate:      "Create tasks",
	auth.PermTaskUpdate:      "Modify tasks",
	auth.PermTaskDelete:      "Delete tasks",
	auth.PermShiftView:       "View shift definitions",
	auth.PermShiftCreate:     "Create shift definitions",
	auth.PermShiftUpdate:     "Modify shift definitions",
	auth.PermShiftDelete:     "Delete shift definitions",
	auth.PermSettingsView:    "View store settings",
	auth.PermSettingsManage:  "Change store settings",
}

// systemRole describes one seeded role and its permission set.
type systemRole struct {
	name        string
	kind        models.RoleKind
	description string
	permissions []string
}

// systemRoles is the fixed 3-tier hierarchy plus the baseline staff role.
// The store manager's permission rows are informational; the full-access
// bypass in the authorization service does not consult them.
var systemRoles = []systemRole{
	{
		name:        "Store Manager",
		kind:        models.RoleKindStoreManager,
		description: "Full access to the store",
		permissions: permissionNames(),
	},
	{
		name:        "Shift In Charge",
		kind:        models.RoleKindShiftInCharge,
		description: "Runs shifts: plans rosters and records attendance",
		permissions: []string{
			auth.PermRosterView, auth.PermRosterCreate, auth.PermRosterModify,
			auth.PermRosterPublish, auth.PermRosterCheckOut,
			auth.PermActualsRecord, auth.PermActualsClear,
			auth.PermUserView, auth.PermTaskView, auth.PermShiftView,
			auth.PermSettingsView,
		},
	},
	{
		name:        "Inventory Executive",
		kind:        models.RoleKindInventoryExecutive,
		description: "Manages inventory tasks and own attendance",
		permissions: []string{
			auth.PermRosterView, auth.PermRosterCheckOut,
			auth.PermActualsRecord,
			auth.PermUserView,
			auth.PermTaskView, auth.PermTaskCreate, auth.PermTaskUpdate,
			auth.PermShiftView,
		},
	},
	{
		name:        "Picker Packer",
		kind:        models.RoleKindPickerPacker,
		description: "Views rosters and checks out of own slots",
		permissions: []string{
			auth.PermRosterView, auth.PermRosterCheckOut,
		},
	},
}

func permissionNames() []string {
	names := make([]string, 0, len(allPermissions))
	for name := range allPermissions {
		names = append(names, name)
	}

	return names
}

// seed writes the permission catalog, the system roles and an initial store
// manager account. Only empty tables are touched, so restarts are no-ops.
func seed(_ *config.Config, db *gorm.DB) {
	seedPermissions(db)
	seedRoles(db)
	seedStoreAndAdmin(db)
}

func seedPermissions(db *gorm.DB) {
	var count int64

	db.Model(&models.Permission{}).Count(&count)
	if count > 0 {
		return
	}

	for name, description := range allPermissions {
		resource, action, _ := strings.Cut(name, ".")

		db.Create(&models.Permission{
			Name:        name,
			Resource:    resource,
			Action:      action,
			Description: description,
		})
	}
}

func seedRoles(db *gorm.DB) {
	var count int64

	db.Model(&models.Role{}).Count(&count)
	if count > 0 {
		return
	}

	for _, sr := range systemRoles {
		role := models.Role{
			Name:        sr.name,
			Kind:        sr.kind,
			Description: sr.description,
			Editable:    false,
			IsSystem:    true,
		}

		if err := db.Create(&role).Error; err != nil {
			log.Error().Err(err).Str("role", sr.name).Msg("failed to seed role")

			continue
		}

		for _, permName := range sr.permissions {
			var perm models.Permission
			if err := db.Where("name = ?", permName).First(&perm).Error; err != nil {
				continue
			}

			db.Create(&models.RolePermission{RoleID: role.ID, PermissionID: perm.ID})
		}
	}
}

func seedStoreAndAdmin(db *gorm.DB) {
	var count int64

	db.Model(&models.User{}).Count(&count)
	if count > 0 {
		return
	}

	store := models.Store{Name: "Main Store", Active: true}
	if err := db.Create(&store).Error; err != nil {
		log.Error().Err(err).Msg("failed to seed store")

		return
	}

	var managerRole models.Role
	if err := db.Where("kind = ?", models.RoleKindStoreManager).First(&managerRole).Error; err != nil {
		log.Error().Err(err).Msg("store manager role missing, skipping admin seed")

		return
	}

	// change this password after first login
	db.Create(&models.User{
		Username:     "admin",
		Email:        "admin@localhost",
		Password:     models.HashPassword("changeme"),
		EmployeeCode: uniuri.NewEmployeeCode("EMP"),
		Active:       true,
		StoreID:      store.ID,
		RoleID:       managerRole.ID,
		AuthSource:   models.AuthSourceLocal,
	})
}
