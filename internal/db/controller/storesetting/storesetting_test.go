package storesetting

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rosterbase/rosterbase/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.StoreSetting{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func TestGet(t *testing.T) {
	db := setupTestDB(t)

	_, err := Set(db, 1, NameMinRequiredStaff, []byte("4"))
	require.NoError(t, err)

	testCases := []struct {
		name          string
		dbParam       *gorm.DB
		storeID       uint64
		settingName   string
		expectedError error
		expectedValue []byte
	}{
		{
			name:          "nil database",
			dbParam:       nil,
			storeID:       1,
			settingName:   NameMinRequiredStaff,
			expectedError: ErrDBNil,
		},
		{
			name:          "empty name",
			dbParam:       db,
			storeID:       1,
			settingName:   "",
			expectedError: ErrSettingNameEmpty,
		},
		{
			name:          "setting not found",
			dbParam:       db,
			storeID:       1,
			settingName:   "nonexistent",
			expectedError: ErrSettingNotFound,
		},
		{
			name:          "other store does not see the setting",
			dbParam:       db,
			storeID:       2,
			settingName:   NameMinRequiredStaff,
			expectedError: ErrSettingNotFound,
		},
		{
			name:          "successful get",
			dbParam:       db,
			storeID:       1,
			settingName:   NameMinRequiredStaff,
			expectedValue: []byte("4"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setting, err := Get(tc.dbParam, tc.storeID, tc.settingName)
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedValue, setting.Value)
		})
	}
}

func TestSetUpsert(t *testing.T) {
	db := setupTestDB(t)

	created, err := Set(db, 1, NameSICCanManageManager, []byte("false"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	updated, err := Set(db, 1, NameSICCanManageManager, []byte("true"))
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID, "upsert must not create a second row")
	assert.Equal(t, []byte("true"), updated.Value)

	var count int64
	require.NoError(t, db.Model(&models.StoreSetting{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)

	_, err := Set(db, 1, "custom_flag", []byte("on"))
	require.NoError(t, err)

	require.NoError(t, Delete(db, 1, "custom_flag"))
	require.ErrorIs(t, Delete(db, 1, "custom_flag"), ErrSettingNotFound)
}

func TestTypedAccessors(t *testing.T) {
	db := setupTestDB(t)

	// defaults when unset
	assert.Equal(t, 0, MinRequiredStaff(db, 1))
	assert.Nil(t, SICOverridePermissions(db, 1))
	assert.False(t, SICCanManageManager(db, 1))

	_, err := Set(db, 1, NameMinRequiredStaff, []byte("5"))
	require.NoError(t, err)
	_, err = Set(db, 1, NameSICOverridePermissions, []byte(`["roster.delete","user.update"]`))
	require.NoError(t, err)
	_, err = Set(db, 1, NameSICCanManageManager, []byte("true"))
	require.NoError(t, err)

	assert.Equal(t, 5, MinRequiredStaff(db, 1))
	assert.Equal(t, []string{"roster.delete", "user.update"}, SICOverridePermissions(db, 1))
	assert.True(t, SICCanManageManager(db, 1))

	// malformed values fall back to safe defaults
	_, err = Set(db, 1, NameMinRequiredStaff, []byte("many"))
	require.NoError(t, err)
	assert.Equal(t, 0, MinRequiredStaff(db, 1))
}
