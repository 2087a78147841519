// Package shiftdef provides the JSON CRUD endpoints for shift definitions.
// The shift window invariant (at most ten hours) is enforced here, at the
// edge, so the planning core can trust stored definitions.
package shiftdef

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/rosterbase/rosterbase/internal/auth"
	"github.com/rosterbase/rosterbase/internal/config"
	"github.com/rosterbase/rosterbase/internal/db/models"
	"github.com/rosterbase/rosterbase/internal/roster"
	"github.com/rosterbase/rosterbase/internal/web/handler"
)

const (
	// Path is the base path for shift definition management.
	Path = handler.APIPath + "/shift-definitions"

	// MaxDurationHours is the longest allowed shift window.
	MaxDurationHours = 10.0
)

// Service provides CRUD operations for shift definitions.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
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
	s.validator = validator.New()

	app.Get(Path,
		auth.RequirePermission(authService, auth.PermShiftView),
		s.List,
	)
	app.Post(Path,
		auth.RequirePermission(authService, auth.PermShiftCreate),
		s.Create,
	)
	app.Put(Path+"/:id",
		auth.RequirePermission(authService, auth.PermShiftUpdate),
		s.Update,
	)
	app.Delete(Path+"/:id",
		auth.RequirePermission(authService, auth.PermShiftDelete),
		s.Delete,
	)

	return nil
}

// shiftInput is the create/update payload.
type shiftInput struct {
	StoreID      uint64 `json:"storeId"      validate:"required"`
	Name         string `json:"name"         validate:"required,min=2,max=100"`
	StartTime    string `json:"startTime"    validate:"required"`
	EndTime      string `json:"endTime"      validate:"required"`
	DisplayOrder int    `json:"displayOrder"`
	Active       *bool  `json:"active"`
}

// duration validates the time window and returns its length in hours.
func duration(in *shiftInput) (float64, error) {
	hours, err := roster.ShiftDuration(in.StartTime, in.EndTime)
	if err != nil {
		return 0, err //nolint:wrapcheck
	}

	if hours > MaxDurationHours {
		return 0, fmt.Errorf("shift window is %.1f hours, the maximum is %.0f", hours, MaxDurationHours)
	}

	return hours, nil
}

// List returns the shift definitions of a store in display order.
func (s *Service) List(c *fiber.Ctx) error {
	tx := s.db.Model(&models.ShiftDefinition{})

	if storeID := c.QueryInt("storeId", 0); storeID > 0 {
		tx = tx.Where("store_id = ?", storeID)
	}

	if c.Query("active") == "true" {
		tx = tx.Where("active = ?", true)
	}

	var shifts []models.ShiftDefinition
	if err := tx.Order("display_order ASC, name ASC").Find(&shifts).Error; err != nil {
		log.Error().Err(err).Msg("query shift definitions failed")

		return handler.InternalError(c)
	}

	return handler.OK(c, shifts)
}

// Create creates a shift definition.
func (s *Service) Create(c *fiber.Ctx) error {
	var in shiftInput

	if err := c.BodyParser(&in); err != nil {
		return handler.ValidationError(c, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return handler.ValidationError(c, err.Error())
	}

	hours, err := duration(&in)
	if err != nil {
		return handler.ValidationError(c, err.Error())
	}

	shift := models.ShiftDefinition{
		StoreID:       in.StoreID,
		Name:          in.Name,
		StartTime:     in.StartTime,
		EndTime:       in.EndTime,
		DurationHours: hours,
		Active:        true,
		DisplayOrder:  in.DisplayOrder,
	}

	if in.Active != nil {
		shift.Active = *in.Active
	}

	if err := s.db.Create(&shift).Error; err != nil {
		return handler.ValidationError(c, "failed to create shift definition: "+err.Error())
	}

	return handler.Created(c, shift)
}

// Update modifies a shift definition.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return handler.ValidationError(c, "invalid shift definition id")
	}

	var in shiftInput

	if err := c.BodyParser(&in); err != nil {
		return handler.ValidationError(c, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return handler.ValidationError(c, err.Error())
	}

	hours, err := duration(&in)
	if err != nil {
		return handler.ValidationError(c, err.Error())
	}

	var shift models.ShiftDefinition
	if err := s.db.First(&shift, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.NotFound(c, "shift definition not found")
		}

		log.Error().Err(err).Msg("query shift definition failed")

		return handler.InternalError(c)
	}

	shift.Name = in.Name
	shift.StartTime = in.StartTime
	shift.EndTime = in.EndTime
	shift.DurationHours = hours
	shift.DisplayOrder = in.DisplayOrder

	if in.Active != nil {
		shift.Active = *in.Active
	}

	if err := s.db.Save(&shift).Error; err != nil {
		return handler.ValidationError(c, "failed to update shift definition: "+err.Error())
	}

	return handler.OK(c, shift)
}

// Delete removes a shift definition. Existing rosters are untouched; they
// reference shifts by name, not by row.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return handler.ValidationError(c, "invalid shift definition id")
	}

	result := s.db.Delete(&models.ShiftDefinition{}, id)
	if result.Error != nil {
		log.Error().Err(result.Error).Msg("delete shift definition failed")

		return handler.InternalError(c)
	}

	if result.RowsAffected == 0 {
		return handler.NotFound(c, "shift definition not found")
	}

	return handler.OK(c, nil)
}
