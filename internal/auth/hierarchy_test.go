package auth

import (
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rosterbase/rosterbase/internal/db/controller/storesetting"
	"github.com/rosterbase/rosterbase/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(
		&models.Store{},
		&models.Role{},
		&models.Permission{},
		&models.RolePermission{},
		&models.User{},
		&models.StoreSetting{},
	)
	require.NoError(t, err, "failed to migrate test database")

	return db
}

// seedRole creates a role with the given kind and permission names.
func seedRole(t *testing.T, db *gorm.DB, name string, kind models.RoleKind, perms ...string) models.Role {
	t.Helper()

	role := models.Role{Name: name, Kind: kind, IsSystem: true}
	require.NoError(t, db.Create(&role).Error)

	for _, name := range perms {
		resource, action, _ := strings.Cut(name, ".")

		var perm models.Permission
		err := db.Where("name = ?", name).
			FirstOrCreate(&perm, models.Permission{Name: name, Resource: resource, Action: action}).Error
		require.NoError(t, err)

		require.NoError(t, db.Create(&models.RolePermission{
			RoleID:       role.ID,
			PermissionID: perm.ID,
		}).Error)
	}

	return role
}

// seedUser creates a user in store 1 with the given role.
func seedUser(t *testing.T, db *gorm.DB, username string, role models.Role) models.User {
	t.Helper()

	user := models.User{
		Active:       true,
		Username:     username,
		Email:        username + "@example.com",
		EmployeeCode: "EMP-" + username,
		StoreID:      1,
		RoleID:       role.ID,
		Role:         role,
		AuthSource:   models.AuthSourceLocal,
	}
	require.NoError(t, db.Create(&user).Error)

	return user
}

func TestHasPermission(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	sic := seedRole(t, db, "Shift In Charge", models.RoleKindShiftInCharge,
		PermRosterView, PermRosterModify, PermActualsRecord)
	user := seedUser(t, db, "sic", sic)

	has, err := svc.HasPermission(user.ID, PermRosterModify)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = svc.HasPermission(user.ID, PermRosterDelete)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestGetUserPermissions(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	role := seedRole(t, db, "Picker", models.RoleKindPickerPacker,
		PermRosterView, PermRosterCheckOut)
	user := seedUser(t, db, "picker", role)

	perms, err := svc.GetUserPermissions(user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{PermRosterView, PermRosterCheckOut}, perms)
}

func TestCanPerformActionFullAccessBypass(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	// A store manager role with an EMPTY permission set must still pass:
	// the bypass is keyed on the role kind, not the lattice.
	manager := seedRole(t, db, "Store Manager", models.RoleKindStoreManager)
	actor := seedUser(t, db, "manager", manager)

	decision, err := svc.CanPerformAction(&actor, PermRosterDelete, nil)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Empty(t, decision.Warning)
}

func TestCanPerformActionSensitiveManagerTarget(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	manager := seedRole(t, db, "Store Manager", models.RoleKindStoreManager)
	actor := seedUser(t, db, "manager1", manager)
	target := seedUser(t, db, "manager2", manager)

	// Sensitive action against a fellow store manager: allowed with warning.
	decision, err := svc.CanPerformAction(&actor, PermUserDelete, &target)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.NotEmpty(t, decision.Warning)

	// Non-sensitive action against a manager: no warning.
	decision, err = svc.CanPerformAction(&actor, PermUserUpdate, &target)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Empty(t, decision.Warning)
}

func TestCanPerformActionLattice(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	sic := seedRole(t, db, "Shift In Charge", models.RoleKindShiftInCharge,
		PermRosterView, PermRosterModify)
	actor := seedUser(t, db, "sic", sic)

	decision, err := svc.CanPerformAction(&actor, PermRosterModify, nil)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	decision, err = svc.CanPerformAction(&actor, PermRosterDelete, nil)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Contains(t, decision.Reason, PermRosterDelete)
}

func TestCanPerformActionSICOverride(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	sic := seedRole(t, db, "Shift In Charge", models.RoleKindShiftInCharge, PermRosterView)
	actor := seedUser(t, db, "sic", sic)

	// Not in the role's permission set and no override: denied.
	decision, err := svc.CanPerformAction(&actor, PermRosterDelete, nil)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	// Store delegates the permission to the shift-in-charge role.
	_, err = storesetting.Set(db, actor.StoreID,
		storesetting.NameSICOverridePermissions, []byte(`["roster.delete"]`))
	require.NoError(t, err)

	decision, err = svc.CanPerformAction(&actor, PermRosterDelete, nil)
	require.NoError(t, err)
	assert.True(t, decision.Allowed, "store override must grant the permission")

	// The override is store-scoped and must not leak to other roles.
	picker := seedRole(t, db, "Picker", models.RoleKindPickerPacker, PermRosterView)
	other := seedUser(t, db, "picker", picker)

	decision, err = svc.CanPerformAction(&other, PermRosterDelete, nil)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestCanPerformActionHierarchy(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	manager := seedRole(t, db, "Store Manager", models.RoleKindStoreManager)
	sic := seedRole(t, db, "Shift In Charge", models.RoleKindShiftInCharge, PermUserUpdate)
	inv := seedRole(t, db, "Inventory Executive", models.RoleKindInventoryExecutive, PermUserUpdate)
	picker := seedRole(t, db, "Picker", models.RoleKindPickerPacker, PermUserUpdate)

	managerUser := seedUser(t, db, "manager", manager)
	sicUser := seedUser(t, db, "sic", sic)
	invUser := seedUser(t, db, "inv", inv)
	pickerUser := seedUser(t, db, "picker", picker)

	testCases := []struct {
		name    string
		actor   *models.User
		target  *models.User
		allowed bool
	}{
		{name: "sic manages picker", actor: &sicUser, target: &pickerUser, allowed: true},
		{name: "sic manages inventory executive", actor: &sicUser, target: &invUser, allowed: true},
		{name: "sic cannot manage store manager", actor: &sicUser, target: &managerUser, allowed: false},
		{name: "inventory executive manages picker", actor: &invUser, target: &pickerUser, allowed: true},
		{name: "inventory executive cannot manage sic", actor: &invUser, target: &sicUser, allowed: false},
		{name: "inventory executive cannot manage store manager", actor: &invUser, target: &managerUser, allowed: false},
		{name: "picker cannot manage picker", actor: &pickerUser, target: &pickerUser, allowed: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			decision, err := svc.CanPerformAction(tc.actor, PermUserUpdate, tc.target)
			require.NoError(t, err)
			assert.Equal(t, tc.allowed, decision.Allowed, decision.Reason)
		})
	}
}

func TestCanPerformActionSICManagesManagerWithStoreSetting(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	manager := seedRole(t, db, "Store Manager", models.RoleKindStoreManager)
	sic := seedRole(t, db, "Shift In Charge", models.RoleKindShiftInCharge, PermUserUpdate)

	managerUser := seedUser(t, db, "manager", manager)
	sicUser := seedUser(t, db, "sic", sic)

	decision, err := svc.CanPerformAction(&sicUser, PermUserUpdate, &managerUser)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	// Flipping the store setting flips the decision.
	_, err = storesetting.Set(db, sicUser.StoreID,
		storesetting.NameSICCanManageManager, []byte("true"))
	require.NoError(t, err)

	decision, err = svc.CanPerformAction(&sicUser, PermUserUpdate, &managerUser)
	require.NoError(t, err)
	assert.True(t, decision.Allowed, decision.Reason)
}

func TestCanPerformActionLoadsRoleWhenNotPreloaded(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	manager := seedRole(t, db, "Store Manager", models.RoleKindStoreManager)
	user := seedUser(t, db, "manager", manager)

	// Simulate a user loaded without Preload("Role").
	bare := models.User{ID: user.ID, StoreID: user.StoreID, RoleID: user.RoleID}

	decision, err := svc.CanPerformAction(&bare, PermRosterDelete, nil)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}
