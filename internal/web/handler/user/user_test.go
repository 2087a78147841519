package user

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
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
	))

	return db
}

// setupApp builds the handler behind the permission middleware with a logged
// in store manager, returning the app and the manager's session token.
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

func apiError(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	envelope := decodeEnvelope(t, resp)
	apiErr, ok := envelope["error"].(map[string]interface{})
	require.True(t, ok)

	return apiErr
}

func userPayload(username string, weekOffDays []int) map[string]interface{} {
	return map[string]interface{}{
		"username":     username,
		"email":        username + "@example.com",
		"storeId":      1,
		"roleId":       1,
		"weekOffCount": 1,
		"weekOffDays":  weekOffDays,
	}
}

func TestCreateUserWeekOffTooManyDays(t *testing.T) {
	db := setupTestDB(t)
	app, token := setupApp(t, db)

	resp := request(t, app, http.MethodPost, Path, token, userPayload("alice", []int{0, 3}))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	apiErr := apiError(t, resp)
	assert.Equal(t, "VALIDATION_ERROR", apiErr["code"])
	assert.True(t, strings.Contains(apiErr["message"].(string), "week-off"))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("username = ?", "alice").Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateUserWeekOffDayOutOfRange(t *testing.T) {
	db := setupTestDB(t)
	app, token := setupApp(t, db)

	for _, day := range []int{-1, 7} {
		resp := request(t, app, http.MethodPost, Path, token, userPayload("bob", []int{day}))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		apiErr := apiError(t, resp)
		assert.Equal(t, "VALIDATION_ERROR", apiErr["code"])
		assert.True(t, strings.Contains(apiErr["message"].(string), "out of range"))
	}
}

func TestCreateUserSingleWeekOffDay(t *testing.T) {
	db := setupTestDB(t)
	app, token := setupApp(t, db)

	resp := request(t, app, http.MethodPost, Path, token, userPayload("carol", []int{6}))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.User
	require.NoError(t, db.Where("username = ?", "carol").First(&created).Error)
	assert.Equal(t, models.IntList{6}, created.WeekOffDays)
	assert.True(t, strings.HasPrefix(created.EmployeeCode, EmployeeCodePrefix))
}

func TestUpdateUserWeekOffValidated(t *testing.T) {
	db := setupTestDB(t)
	app, token := setupApp(t, db)

	staff := models.User{
		Username:     "dave",
		Email:        "dave@example.com",
		EmployeeCode: "EMP-DAVE01",
		Active:       true,
		StoreID:      1,
		RoleID:       1,
		WeekOffDays:  models.IntList{2},
	}
	require.NoError(t, db.Create(&staff).Error)

	resp := request(t, app, http.MethodPut, Path+"/"+strconv.FormatUint(staff.ID, 10)+"?confirm=true",
		token, userPayload("dave", []int{1, 4}))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var stored models.User
	require.NoError(t, db.First(&stored, staff.ID).Error)
	assert.Equal(t, models.IntList{2}, stored.WeekOffDays)
}

func TestDeleteStoreManagerRequiresConfirmation(t *testing.T) {
	db := setupTestDB(t)
	app, token := setupApp(t, db)

	target := models.User{
		Username:     "other-manager",
		Email:        "other-manager@example.com",
		EmployeeCode: "EMP-MGR002",
		Active:       true,
		StoreID:      1,
		RoleID:       1,
	}
	require.NoError(t, db.Create(&target).Error)

	path := Path + "/" + strconv.FormatUint(target.ID, 10)

	// deleting a fellow store manager is allowed but needs an explicit confirm
	resp := request(t, app, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	apiErr := apiError(t, resp)
	assert.Equal(t, "VALIDATION_ERROR", apiErr["code"])

	details, ok := apiErr["details"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, details["requiresConfirmation"])

	var stored models.User
	require.NoError(t, db.First(&stored, target.ID).Error)

	resp = request(t, app, http.MethodDelete, path+"?confirm=true", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	err := db.First(&stored, target.ID).Error
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestDeleteOwnAccountRejected(t *testing.T) {
	db := setupTestDB(t)
	app, token := setupApp(t, db)

	resp := request(t, app, http.MethodDelete, Path+"/1", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
