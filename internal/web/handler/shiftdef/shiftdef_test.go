package shiftdef

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rosterbase/rosterbase/internal/auth"
	"github.com/rosterbase/rosterbase/internal/config"
	"github.com/rosterbase/rosterbase/internal/db/models"
	websess "github.com/rosterbase/rosterbase/internal/web/session"
)

// testStorage is a minimal in-memory implementation of storage.Storage.
type testStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ storage.Storage = (*testStorage)(nil)

func (s *testStorage) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.data[key], nil
}

func (s *testStorage) Set(key string, val []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = append([]byte(nil), val...)

	return nil
}

func (s *testStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)

	return nil
}

func (s *testStorage) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string][]byte)

	return nil
}

func (s *testStorage) Close() error { return nil }

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Store{},
		&models.Role{},
		&models.Permission{},
		&models.RolePermission{},
		&models.User{},
		&models.ShiftDefinition{},
	))

	return db
}

// setupApp builds the handler behind the permission middleware with a logged
// in store manager, returning the app and the session token.
func setupApp(t *testing.T, db *gorm.DB) (*fiber.App, string) {
	t.Helper()

	websess.Init(&testStorage{data: make(map[string][]byte)})

	require.NoError(t, db.Create(&models.Store{ID: 1, Name: "Store One", Active: true}).Error)
	require.NoError(t, db.Create(&models.Role{
		Name: "Store Manager",
		Kind: models.RoleKindStoreManager,
	}).Error)

	manager := models.User{
		Username:     "manager",
		Email:        "manager@example.com",
		EmployeeCode: "EMP-MGR001",
		Active:       true,
		StoreID:      1,
		RoleID:       1,
	}
	require.NoError(t, db.Create(&manager).Error)

	token, err := websess.GenerateSessionID()
	require.NoError(t, err)

	manager.Role = models.Role{}
	sess := &websess.Data{User: manager}
	require.NoError(t, sess.Write(token, time.Minute))

	cfg := &config.Config{
		Webserver: config.Webserver{URL: "http://localhost", Port: 3000},
	}

	app := fiber.New()

	var s Service
	require.NoError(t, s.Init(app, cfg, db, auth.NewService(db)))

	return app, token
}

func request(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	var envelope map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))

	return envelope
}

func TestCreateShiftDefinition(t *testing.T) {
	db := setupTestDB(t)
	app, token := setupApp(t, db)

	resp := request(t, app, http.MethodPost, Path, token, map[string]interface{}{
		"storeId":   1,
		"name":      "Morning Shift",
		"startTime": "06:00",
		"endTime":   "14:00",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var shift models.ShiftDefinition
	require.NoError(t, db.Where("name = ?", "Morning Shift").First(&shift).Error)
	assert.InDelta(t, 8.0, shift.DurationHours, 0.01)
	assert.True(t, shift.Active)
}

func TestCreateShiftDefinitionTooLong(t *testing.T) {
	db := setupTestDB(t)
	app, token := setupApp(t, db)

	// 06:00-17:00 is eleven hours, over the working-hours limit
	resp := request(t, app, http.MethodPost, Path, token, map[string]interface{}{
		"storeId":   1,
		"name":      "Marathon Shift",
		"startTime": "06:00",
		"endTime":   "17:00",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	apiErr, ok := envelope["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", apiErr["code"])
	assert.True(t, strings.Contains(apiErr["message"].(string), "maximum"))
}

func TestCreateShiftDefinitionBadTime(t *testing.T) {
	db := setupTestDB(t)
	app, token := setupApp(t, db)

	resp := request(t, app, http.MethodPost, Path, token, map[string]interface{}{
		"storeId":   1,
		"name":      "Broken Shift",
		"startTime": "6am",
		"endTime":   "14:00",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateShiftDefinitionKeepsInvariant(t *testing.T) {
	db := setupTestDB(t)
	app, token := setupApp(t, db)

	require.NoError(t, db.Create(&models.ShiftDefinition{
		StoreID:       1,
		Name:          "Evening Shift",
		StartTime:     "14:00",
		EndTime:       "22:00",
		DurationHours: 8.0,
		Active:        true,
	}).Error)

	resp := request(t, app, http.MethodPut, Path+"/1", token, map[string]interface{}{
		"storeId":   1,
		"name":      "Evening Shift",
		"startTime": "10:00",
		"endTime":   "22:00",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// the stored window is untouched
	var shift models.ShiftDefinition
	require.NoError(t, db.First(&shift, 1).Error)
	assert.Equal(t, "14:00", shift.StartTime)
}

func TestListShiftDefinitionsOrdered(t *testing.T) {
	db := setupTestDB(t)
	app, token := setupApp(t, db)

	for _, sd := range []models.ShiftDefinition{
		{StoreID: 1, Name: "Evening", StartTime: "14:00", EndTime: "22:00", DurationHours: 8, Active: true, DisplayOrder: 2},
		{StoreID: 1, Name: "Morning", StartTime: "06:00", EndTime: "14:00", DurationHours: 8, Active: true, DisplayOrder: 1},
		{StoreID: 2, Name: "Other Store", StartTime: "06:00", EndTime: "14:00", DurationHours: 8, Active: true},
	} {
		require.NoError(t, db.Create(&sd).Error)
	}

	resp := request(t, app, http.MethodGet, Path+"?storeId=1", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	data, ok := envelope["data"].([]interface{})
	require.True(t, ok)
	require.Len(t, data, 2)

	first, ok := data[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Morning", first["Name"])
}

func TestDeleteShiftDefinition(t *testing.T) {
	db := setupTestDB(t)
	app, token := setupApp(t, db)

	require.NoError(t, db.Create(&models.ShiftDefinition{
		StoreID:   1,
		Name:      "Morning",
		StartTime: "06:00",
		EndTime:   "14:00",
		Active:    true,
	}).Error)

	resp := request(t, app, http.MethodDelete, Path+"/1", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = request(t, app, http.MethodDelete, Path+"/1", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestShiftDefinitionRequiresSession(t *testing.T) {
	db := setupTestDB(t)
	app, _ := setupApp(t, db)

	resp := request(t, app, http.MethodGet, Path+"?storeId=1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	apiErr, ok := envelope["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "UNAUTHORIZED", apiErr["code"])
}
