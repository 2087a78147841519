// Package storesetting provides CRUD operations and typed accessors for
// store-scoped settings.
package storesetting

import (
	"encoding/json"
	"errors"
	"strconv"

	"gorm.io/gorm"

	"github.com/rosterbase/rosterbase/internal/db/models"
)

const (
	storeNameQueryPattern = "store_id = ? AND name = ?"
)

// Well-known setting names consulted by the core.
const (
	// NameMinRequiredStaff is the minimum staff count for coverage metrics.
	NameMinRequiredStaff = "min_required_staff"
	// NameSICOverridePermissions is a JSON list of permission names delegated
	// to the shift-in-charge role for this store.
	NameSICOverridePermissions = "sic_override_permissions"
	// NameSICCanManageManager authorizes the shift-in-charge role to modify
	// store-manager users ("true"/"false").
	NameSICCanManageManager = "sic_can_manage_manager"
)

var (
	// ErrSettingNotFound is returned when a setting is not found.
	ErrSettingNotFound = errors.New("store setting not found")
	// ErrSettingNameEmpty is returned when attempting to create/update a setting with an empty name.
	ErrSettingNameEmpty = errors.New("store setting name cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get retrieves a setting by store and name.
func Get(db *gorm.DB, storeID uint64, name string) (*models.StoreSetting, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrSettingNameEmpty
	}

	var setting models.StoreSetting
	result := db.Where(storeNameQueryPattern, storeID, name).First(&setting)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}
		return nil, result.Error
	}

	return &setting, nil
}

// GetAll retrieves all settings for one store.
func GetAll(db *gorm.DB, storeID uint64) ([]models.StoreSetting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var settings []models.StoreSetting
	result := db.Where("store_id = ?", storeID).Order("name ASC").Find(&settings)
	if result.Error != nil {
		return nil, result.Error
	}

	return settings, nil
}

// Set creates or updates a setting by store and name (upsert operation).
func Set(db *gorm.DB, storeID uint64, name string, value []byte) (*models.StoreSetting, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrSettingNameEmpty
	}

	var setting models.StoreSetting
	result := db.Where(storeNameQueryPattern, storeID, name).First(&setting)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		setting = models.StoreSetting{
			StoreID: storeID,
			Name:    name,
			Value:   value,
		}

		if err := db.Create(&setting).Error; err != nil {
			return nil, err
		}

		return &setting, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}

	setting.Value = value
	result = db.Save(&setting)
	if result.Error != nil {
		return nil, result.Error
	}

	return &setting, nil
}

// Delete deletes a setting by store and name.
func Delete(db *gorm.DB, storeID uint64, name string) error {
	if db == nil {
		return ErrDBNil
	}
	if name == "" {
		return ErrSettingNameEmpty
	}

	result := db.Where(storeNameQueryPattern, storeID, name).Delete(&models.StoreSetting{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSettingNotFound
	}

	return nil
}

// MinRequiredStaff returns the store-configured minimum staff count for
// coverage metrics. Missing or malformed settings yield 0 (metrics then skip
// the percentage).
func MinRequiredStaff(db *gorm.DB, storeID uint64) int {
	setting, err := Get(db, storeID, NameMinRequiredStaff)
	if err != nil {
		return 0
	}

	n, err := strconv.Atoi(string(setting.Value))
	if err != nil || n < 0 {
		return 0
	}

	return n
}

// SICOverridePermissions returns the permission names delegated to the
// shift-in-charge role for this store. Missing setting yields nil.
func SICOverridePermissions(db *gorm.DB, storeID uint64) []string {
	setting, err := Get(db, storeID, NameSICOverridePermissions)
	if err != nil {
		return nil
	}

	var perms []string
	if err := json.Unmarshal(setting.Value, &perms); err != nil {
		return nil
	}

	return perms
}

// SICCanManageManager reports whether this store authorizes the
// shift-in-charge role to modify store-manager users.
func SICCanManageManager(db *gorm.DB, storeID uint64) bool {
	setting, err := Get(db, storeID, NameSICCanManageManager)
	if err != nil {
		return false
	}

	return string(setting.Value) == "true"
}
