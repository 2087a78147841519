// Package storesettings exposes per-store configuration over HTTP. Settings
// are free-form name/value pairs; the well-known names live in the
// storesetting controller.
package storesettings

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/rosterbase/rosterbase/internal/auth"
	"github.com/rosterbase/rosterbase/internal/config"
	"github.com/rosterbase/rosterbase/internal/db/controller/storesetting"
	"github.com/rosterbase/rosterbase/internal/web/handler"
)

const (
	// Path is the base path for store settings.
	Path = handler.APIPath + "/stores/:storeId/settings"
)

// Service provides the store settings endpoints.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.db = db
	s.cfg = cfg

	app.Get(Path,
		auth.RequirePermission(authService, auth.PermSettingsView),
		s.Get,
	)
	app.Put(Path,
		auth.RequirePermission(authService, auth.PermSettingsManage),
		s.Put,
	)
	app.Delete(Path+"/:name",
		auth.RequirePermission(authService, auth.PermSettingsManage),
		s.Delete,
	)

	return nil
}

// Get returns all settings of a store as a name/value object. Values are
// returned verbatim as they were stored.
func (s *Service) Get(c *fiber.Ctx) error {
	storeID, err := c.ParamsInt("storeId")
	if err != nil || storeID <= 0 {
		return handler.ValidationError(c, "invalid store id")
	}

	settings, err := storesetting.GetAll(s.db, uint64(storeID))
	if err != nil {
		log.Error().Err(err).Msg("query store settings failed")

		return handler.InternalError(c)
	}

	values := make(map[string]json.RawMessage, len(settings))
	for i := range settings {
		values[settings[i].Name] = json.RawMessage(settings[i].Value)
	}

	return handler.OK(c, values)
}

// Put upserts the settings given in the request body, a name/value object.
// Names absent from the body are left untouched.
func (s *Service) Put(c *fiber.Ctx) error {
	storeID, err := c.ParamsInt("storeId")
	if err != nil || storeID <= 0 {
		return handler.ValidationError(c, "invalid store id")
	}

	var in map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &in); err != nil {
		return handler.ValidationError(c, "request body must be a JSON object of settings")
	}

	if len(in) == 0 {
		return handler.ValidationError(c, "no settings given")
	}

	for name, value := range in {
		if _, err := storesetting.Set(s.db, uint64(storeID), name, value); err != nil {
			if errors.Is(err, storesetting.ErrSettingNameEmpty) {
				return handler.ValidationError(c, err.Error())
			}

			log.Error().Err(err).Str("name", name).Msg("store setting upsert failed")

			return handler.InternalError(c)
		}
	}

	return s.Get(c)
}

// Delete removes one setting by name.
func (s *Service) Delete(c *fiber.Ctx) error {
	storeID, err := c.ParamsInt("storeId")
	if err != nil || storeID <= 0 {
		return handler.ValidationError(c, "invalid store id")
	}

	name := c.Params("name")

	if err := storesetting.Delete(s.db, uint64(storeID), name); err != nil {
		switch {
		case errors.Is(err, storesetting.ErrSettingNotFound):
			return handler.NotFound(c, "store setting not found")
		case errors.Is(err, storesetting.ErrSettingNameEmpty):
			return handler.ValidationError(c, err.Error())
		default:
			log.Error().Err(err).Msg("delete store setting failed")

			return handler.InternalError(c)
		}
	}

	return handler.OK(c, nil)
}
