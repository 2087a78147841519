package auth

import (
	"fmt"

	"github.com/rosterbase/rosterbase/internal/db/controller/storesetting"
	"github.com/rosterbase/rosterbase/internal/db/models"
)

// Decision is the outcome of an authorization check. Allowed carries the
// verdict, Reason explains a denial, and Warning flags allowed-but-sensitive
// actions the caller should confirm with the user before executing.
type Decision struct {
	Allowed bool
	Reason  string
	Warning string
}

// allow is the plain permit decision.
var allow = Decision{Allowed: true}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// CanPerformAction decides whether actor may execute the action guarded by
// permission, optionally against a specific target user. It layers three
// checks:
//
//  1. Full-access bypass: the store-manager role kind may do anything. When
//     the action is sensitive and the target is another store manager the
//     decision is still allowed but carries a confirmation warning.
//
//  2. The permission lattice, widened by the per-store delegation setting
//     that can grant extra permissions to the shift-in-charge role.
//
//  3. The user-management hierarchy for actions that name a target user:
//     a shift in charge cannot touch store managers (unless the store
//     setting says otherwise), an inventory executive can only manage
//     ordinary staff, and staff roles manage nobody.
func (s *Service) CanPerformAction(actor *models.User, permission string, target *models.User) (Decision, error) {
	actorKind, err := s.roleKind(actor)
	if err != nil {
		return deny("could not resolve actor role"), err
	}

	if actorKind == models.RoleKindStoreManager {
		if target == nil || !sensitiveManagerPerms[permission] {
			return allow, nil
		}

		targetKind, errTarget := s.roleKind(target)
		if errTarget != nil {
			return deny("could not resolve target role"), errTarget
		}

		if warning := SensitiveTargetWarning(permission, targetKind); warning != "" {
			return Decision{Allowed: true, Warning: warning}, nil
		}

		return allow, nil
	}

	granted, err := s.HasPermission(actor.ID, permission)
	if err != nil {
		return deny("permission check failed"), err
	}

	if !granted && actorKind == models.RoleKindShiftInCharge {
		granted = s.sicOverrideGrants(actor.StoreID, permission)
	}

	if !granted {
		return deny(fmt.Sprintf("missing permission %q", permission)), nil
	}

	if target == nil || !userModificationPerms[permission] {
		return allow, nil
	}

	targetKind, err := s.roleKind(target)
	if err != nil {
		return deny("could not resolve target role"), err
	}

	return s.checkHierarchy(actorKind, targetKind, actor.StoreID), nil
}

// checkHierarchy applies the role-kind ordering for user management.
func (s *Service) checkHierarchy(actorKind, targetKind models.RoleKind, storeID uint64) Decision {
	switch actorKind {
	case models.RoleKindStoreManager:
		return allow

	case models.RoleKindShiftInCharge:
		if targetKind != models.RoleKindStoreManager {
			return allow
		}

		if storesetting.SICCanManageManager(s.db, storeID) {
			return allow
		}

		return deny("a shift in charge cannot manage a store manager")

	case models.RoleKindInventoryExecutive:
		if targetKind == models.RoleKindPickerPacker || targetKind == models.RoleKindCustom {
			return allow
		}

		return deny("an inventory executive can only manage staff users")

	default:
		return deny("this role cannot manage other users")
	}
}

// sicOverrideGrants reports whether the store delegates permission to the
// shift-in-charge role.
func (s *Service) sicOverrideGrants(storeID uint64, permission string) bool {
	for _, p := range storesetting.SICOverridePermissions(s.db, storeID) {
		if p == permission {
			return true
		}
	}

	return false
}

// roleKind resolves the role kind for a user, loading the role from the
// database when the association has not been preloaded.
func (s *Service) roleKind(user *models.User) (models.RoleKind, error) {
	if user.Role.Kind != "" {
		return user.Role.Kind, nil
	}

	var role models.Role
	if err := s.db.First(&role, user.RoleID).Error; err != nil {
		return "", fmt.Errorf("failed to load role %d: %w", user.RoleID, err)
	}

	return role.Kind, nil
}
