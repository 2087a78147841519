// Package task provides the JSON CRUD endpoints for store-scoped tasks.
package task

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/rosterbase/rosterbase/internal/auth"
	"github.com/rosterbase/rosterbase/internal/config"
	"github.com/rosterbase/rosterbase/internal/db/models"
	"github.com/rosterbase/rosterbase/internal/web/handler"
)

const (
	// Path is the base path for task management.
	Path = handler.APIPath + "/tasks"
)

// Service provides CRUD operations for tasks.
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
		auth.RequirePermission(authService, auth.PermTaskView),
		s.List,
	)
	app.Post(Path,
		auth.RequirePermission(authService, auth.PermTaskCreate),
		s.Create,
	)
	app.Put(Path+"/:id",
		auth.RequirePermission(authService, auth.PermTaskUpdate),
		s.Update,
	)
	app.Delete(Path+"/:id",
		auth.RequirePermission(authService, auth.PermTaskDelete),
		s.Delete,
	)

	return nil
}

// taskInput is the create/update payload.
type taskInput struct {
	StoreID     uint64 `json:"storeId"     validate:"required"`
	Name        string `json:"name"        validate:"required,min=2,max=100"`
	Description string `json:"description" validate:"max=255"`
	Active      *bool  `json:"active"`
}

// List returns the tasks of a store.
func (s *Service) List(c *fiber.Ctx) error {
	tx := s.db.Model(&models.Task{})

	if storeID := c.QueryInt("storeId", 0); storeID > 0 {
		tx = tx.Where("store_id = ?", storeID)
	}

	if c.Query("active") == "true" {
		tx = tx.Where("active = ?", true)
	}

	var tasks []models.Task
	if err := tx.Order("name ASC").Find(&tasks).Error; err != nil {
		log.Error().Err(err).Msg("query tasks failed")

		return handler.InternalError(c)
	}

	return handler.OK(c, tasks)
}

// Create creates a task.
func (s *Service) Create(c *fiber.Ctx) error {
	var in taskInput

	if err := c.BodyParser(&in); err != nil {
		return handler.ValidationError(c, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return handler.ValidationError(c, err.Error())
	}

	task := models.Task{
		StoreID:     in.StoreID,
		Name:        in.Name,
		Description: in.Description,
		Active:      true,
	}

	if in.Active != nil {
		task.Active = *in.Active
	}

	if err := s.db.Create(&task).Error; err != nil {
		return handler.ValidationError(c, "failed to create task: "+err.Error())
	}

	return handler.Created(c, task)
}

// Update modifies a task.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return handler.ValidationError(c, "invalid task id")
	}

	var in taskInput

	if err := c.BodyParser(&in); err != nil {
		return handler.ValidationError(c, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return handler.ValidationError(c, err.Error())
	}

	var task models.Task
	if err := s.db.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.NotFound(c, "task not found")
		}

		log.Error().Err(err).Msg("query task failed")

		return handler.InternalError(c)
	}

	task.Name = in.Name
	task.Description = in.Description

	if in.Active != nil {
		task.Active = *in.Active
	}

	if err := s.db.Save(&task).Error; err != nil {
		return handler.ValidationError(c, "failed to update task: "+err.Error())
	}

	return handler.OK(c, task)
}

// Delete removes a task.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return handler.ValidationError(c, "invalid task id")
	}

	result := s.db.Delete(&models.Task{}, id)
	if result.Error != nil {
		log.Error().Err(result.Error).Msg("delete task failed")

		return handler.InternalError(c)
	}

	if result.RowsAffected == 0 {
		return handler.NotFound(c, "task not found")
	}

	return handler.OK(c, nil)
}
