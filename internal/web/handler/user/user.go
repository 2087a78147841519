// Package user provides the JSON CRUD endpoints for staff accounts.
package user

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
	"github.com/rosterbase/rosterbase/internal/uniuri"
	"github.com/rosterbase/rosterbase/internal/web/handler"
)

const (
	// Path is the base path for user management.
	Path = handler.APIPath + "/users"

	// EmployeeCodePrefix prefixes generated badge codes.
	EmployeeCodePrefix = "EMP"

	maxWeekOffDays = 1
)

// Service provides CRUD operations for users.
type Service struct {
	handler.Service
	cfg         *config.Config
	db          *gorm.DB
	authService *auth.Service
	validator   *validator.Validate
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
	s.authService = authService
	s.validator = validator.New()

	app.Get(Path,
		auth.RequirePermission(authService, auth.PermUserView),
		s.List,
	)
	app.Get(Path+"/:id",
		auth.RequirePermission(authService, auth.PermUserView),
		s.Get,
	)
	app.Post(Path,
		auth.RequirePermission(authService, auth.PermUserCreate),
		s.Create,
	)
	app.Put(Path+"/:id",
		auth.RequirePermission(authService, auth.PermUserUpdate),
		s.Update,
	)
	app.Delete(Path+"/:id",
		auth.RequirePermission(authService, auth.PermUserDelete),
		s.Delete,
	)

	return nil
}

// userInput is the create/update payload.
type userInput struct {
	Username         string `json:"username"         validate:"required,min=3,max=100"`
	Email            string `json:"email"            validate:"required,email,max=255"`
	FirstName        string `json:"firstName"        validate:"max=100"`
	LastName         string `json:"lastName"         validate:"max=100"`
	Password         string `json:"password"`
	EmployeeCode     string `json:"employeeCode"     validate:"max=20"`
	StoreID          uint64 `json:"storeId"          validate:"required"`
	RoleID           uint   `json:"roleId"           validate:"required"`
	ExperienceLevel  string `json:"experienceLevel"  validate:"max=50"`
	PickerPackerType string `json:"pickerPackerType" validate:"max=50"`
	WeekOffCount     int    `json:"weekOffCount"     validate:"min=0,max=7"`
	WeekOffDays      []int  `json:"weekOffDays"`
	DefaultShiftName string `json:"defaultShiftName" validate:"max=100"`
	Active           *bool  `json:"active"`
}

// validateWeekOff enforces the week-off rules: at most one specific day, and
// day indices within Sunday..Saturday.
func validateWeekOff(in *userInput) error {
	if len(in.WeekOffDays) > maxWeekOffDays {
		return fmt.Errorf("at most %d specific week-off day is allowed", maxWeekOffDays)
	}

	for _, d := range in.WeekOffDays {
		if d < 0 || d > 6 {
			return fmt.Errorf("week-off day %d is out of range (0=Sunday .. 6=Saturday)", d)
		}
	}

	return nil
}

// List returns users with pagination and search.
func (s *Service) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	pageSize := c.QueryInt("pageSize", handler.DefaultPageSize)
	if pageSize < 1 || pageSize > handler.MaxPageSize {
		pageSize = handler.DefaultPageSize
	}

	search := c.Query("search", "")

	var (
		users      []models.User
		totalCount int64
		tx         = s.db.Model(&models.User{})
	)

	if storeID := c.QueryInt("storeId", 0); storeID > 0 {
		tx = tx.Where("store_id = ?", storeID)
	}

	if search != "" {
		like := "%" + search + "%"
		tx = tx.Where(
			"username LIKE ? OR email LIKE ? OR employee_code LIKE ? OR first_name LIKE ? OR last_name LIKE ?",
			like, like, like, like, like,
		)
	}

	if err := tx.Count(&totalCount).Error; err != nil {
		log.Error().Err(err).Msg("count users failed")

		return handler.InternalError(c)
	}

	offset := (page - 1) * pageSize
	if err := tx.Preload("Role").Order("id ASC").Limit(pageSize).Offset(offset).Find(&users).Error; err != nil {
		log.Error().Err(err).Msg("query users failed")

		return handler.InternalError(c)
	}

	return handler.OK(c, fiber.Map{
		"users":      handler.NewUserViews(users),
		"page":       page,
		"pageSize":   pageSize,
		"totalItems": totalCount,
	})
}

// Get returns one user.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return handler.ValidationError(c, "invalid user id")
	}

	var user models.User
	if err := s.db.Preload("Role").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.NotFound(c, "user not found")
		}

		log.Error().Err(err).Msg("query user failed")

		return handler.InternalError(c)
	}

	return handler.OK(c, handler.NewUserView(&user))
}

// Create creates a new user. An empty employee code is generated.
func (s *Service) Create(c *fiber.Ctx) error {
	var in userInput

	if err := c.BodyParser(&in); err != nil {
		return handler.ValidationError(c, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return handler.ValidationError(c, err.Error())
	}

	if err := validateWeekOff(&in); err != nil {
		return handler.ValidationError(c, err.Error())
	}

	if in.EmployeeCode == "" {
		in.EmployeeCode = uniuri.NewEmployeeCode(EmployeeCodePrefix)
	}

	user := models.User{
		Active:           true,
		Username:         in.Username,
		Email:            in.Email,
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		EmployeeCode:     in.EmployeeCode,
		StoreID:          in.StoreID,
		RoleID:           in.RoleID,
		ExperienceLevel:  in.ExperienceLevel,
		PickerPackerType: in.PickerPackerType,
		WeekOffCount:     in.WeekOffCount,
		WeekOffDays:      in.WeekOffDays,
		DefaultShiftName: in.DefaultShiftName,
		AuthSource:       models.AuthSourceLocal,
	}

	if in.Active != nil {
		user.Active = *in.Active
	}

	if in.Password != "" {
		user.Password = models.HashPassword(in.Password)
	}

	if err := s.db.Create(&user).Error; err != nil {
		return handler.ValidationError(c, "failed to create user: "+err.Error())
	}

	s.db.Preload("Role").First(&user, user.ID)

	return handler.Created(c, handler.NewUserView(&user))
}

// Update modifies an existing user. The role hierarchy applies: the target's
// role decides whether the caller may touch them at all.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return handler.ValidationError(c, "invalid user id")
	}

	var in userInput

	if err := c.BodyParser(&in); err != nil {
		return handler.ValidationError(c, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return handler.ValidationError(c, err.Error())
	}

	if err := validateWeekOff(&in); err != nil {
		return handler.ValidationError(c, err.Error())
	}

	var target models.User
	if err := s.db.Preload("Role").First(&target, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.NotFound(c, "user not found")
		}

		log.Error().Err(err).Msg("query user failed")

		return handler.InternalError(c)
	}

	if resp := s.checkTarget(c, auth.PermUserUpdate, &target); resp != nil {
		return resp()
	}

	target.Username = in.Username
	target.Email = in.Email
	target.FirstName = in.FirstName
	target.LastName = in.LastName
	target.StoreID = in.StoreID
	target.RoleID = in.RoleID
	target.ExperienceLevel = in.ExperienceLevel
	target.PickerPackerType = in.PickerPackerType
	target.WeekOffCount = in.WeekOffCount
	target.WeekOffDays = in.WeekOffDays
	target.DefaultShiftName = in.DefaultShiftName

	if in.EmployeeCode != "" {
		target.EmployeeCode = in.EmployeeCode
	}

	if in.Active != nil {
		target.Active = *in.Active
	}

	if in.Password != "" && target.AuthSource == models.AuthSourceLocal {
		target.Password = models.HashPassword(in.Password)
	}

	if err := s.db.Save(&target).Error; err != nil {
		return handler.ValidationError(c, "failed to update user: "+err.Error())
	}

	s.db.Preload("Role").First(&target, target.ID)

	return handler.OK(c, handler.NewUserView(&target))
}

// Delete soft deletes a user. Historical rosters keep resolving the account.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return handler.ValidationError(c, "invalid user id")
	}

	current, _ := handler.CurrentUser(c)
	if current.ID == uint64(id) {
		return handler.ValidationError(c, "you cannot delete your own account")
	}

	var target models.User
	if err := s.db.Preload("Role").First(&target, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.NotFound(c, "user not found")
		}

		log.Error().Err(err).Msg("query user failed")

		return handler.InternalError(c)
	}

	if resp := s.checkTarget(c, auth.PermUserDelete, &target); resp != nil {
		return resp()
	}

	if err := s.db.Delete(&models.User{}, id).Error; err != nil {
		log.Error().Err(err).Msg("delete user failed")

		return handler.InternalError(c)
	}

	return handler.OK(c, nil)
}

// checkTarget runs the hierarchy check against a specific target user. The
// returned responder is non-nil when the request must stop: either the caller
// may not manage the target, or the action is sensitive and needs an explicit
// confirm=true query parameter.
func (s *Service) checkTarget(c *fiber.Ctx, permission string, target *models.User) func() error {
	current, ok := handler.CurrentUser(c)
	if !ok {
		return func() error {
			return handler.Fail(c, fiber.StatusUnauthorized, handler.CodeUnauthorized,
				"authentication required")
		}
	}

	decision, err := s.authService.CanPerformAction(&current, permission, target)
	if err != nil {
		log.Error().Err(err).Msg("hierarchy check failed")

		return func() error { return handler.InternalError(c) }
	}

	if !decision.Allowed {
		return func() error {
			return handler.Fail(c, fiber.StatusForbidden, handler.CodePermissionDenied, decision.Reason)
		}
	}

	if decision.Warning != "" && c.Query("confirm") != "true" {
		return func() error {
			return handler.FailWithDetails(c, fiber.StatusBadRequest, handler.CodeValidationError,
				decision.Warning, fiber.Map{"requiresConfirmation": true})
		}
	}

	return nil
}
