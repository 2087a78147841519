// Package role provides the JSON CRUD endpoints for roles and their
// permission sets.
package role

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
	// Path is the base path for role management.
	Path = handler.APIPath + "/roles"
)

// Service provides CRUD operations for roles.
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
		auth.RequirePermission(authService, auth.PermRoleView),
		s.List,
	)
	app.Post(Path,
		auth.RequirePermission(authService, auth.PermRoleCreate),
		s.Create,
	)
	app.Put(Path+"/:id",
		auth.RequirePermission(authService, auth.PermRoleModify),
		s.Update,
	)
	app.Delete(Path+"/:id",
		auth.RequirePermission(authService, auth.PermRoleDelete),
		s.Delete,
	)

	return nil
}

// roleInput is the create/update payload. Permissions replace the role's
// whole permission set when present.
type roleInput struct {
	Name              string   `json:"name"              validate:"required,min=2,max=100"`
	Description       string   `json:"description"       validate:"max=255"`
	DefaultTaskIDs    []uint64 `json:"defaultTaskIds"`
	DefaultExperience string   `json:"defaultExperience" validate:"max=50"`
	Permissions       []string `json:"permissions"`
}

// roleView is the API projection of a role with its permission names.
type roleView struct {
	ID                uint     `json:"id"`
	Name              string   `json:"name"`
	Kind              string   `json:"kind"`
	Description       string   `json:"description,omitempty"`
	DefaultTaskIDs    []uint64 `json:"defaultTaskIds,omitempty"`
	DefaultExperience string   `json:"defaultExperience,omitempty"`
	Editable          bool     `json:"editable"`
	IsSystem          bool     `json:"isSystem"`
	Permissions       []string `json:"permissions"`
}

func (s *Service) view(role *models.Role) roleView {
	var permissions []string

	err := s.db.Table("permissions").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id = ?", role.ID).
		Order("permissions.name ASC").
		Pluck("permissions.name", &permissions).Error
	if err != nil {
		log.Error().Err(err).Uint("role_id", role.ID).Msg("failed to load role permissions")
	}

	return roleView{
		ID:                role.ID,
		Name:              role.Name,
		Kind:              string(role.Kind),
		Description:       role.Description,
		DefaultTaskIDs:    role.DefaultTaskIDs,
		DefaultExperience: role.DefaultExperience,
		Editable:          role.Editable,
		IsSystem:          role.IsSystem,
		Permissions:       permissions,
	}
}

// List returns all roles with their permission sets.
func (s *Service) List(c *fiber.Ctx) error {
	var roles []models.Role
	if err := s.db.Order("id ASC").Find(&roles).Error; err != nil {
		log.Error().Err(err).Msg("query roles failed")

		return handler.InternalError(c)
	}

	views := make([]roleView, 0, len(roles))
	for i := range roles {
		views = append(views, s.view(&roles[i]))
	}

	return handler.OK(c, views)
}

// Create creates a custom role.
func (s *Service) Create(c *fiber.Ctx) error {
	var in roleInput

	if err := c.BodyParser(&in); err != nil {
		return handler.ValidationError(c, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return handler.ValidationError(c, err.Error())
	}

	role := models.Role{
		Name:              in.Name,
		Kind:              models.RoleKindCustom,
		Description:       in.Description,
		DefaultTaskIDs:    in.DefaultTaskIDs,
		DefaultExperience: in.DefaultExperience,
		Editable:          true,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&role).Error; err != nil {
			return err //nolint:wrapcheck
		}

		return s.replacePermissions(tx, role.ID, in.Permissions)
	})
	if err != nil {
		return handler.ValidationError(c, "failed to create role: "+err.Error())
	}

	return handler.Created(c, s.view(&role))
}

// Update modifies a role and replaces its permission set. Non-editable
// system roles reject permission changes.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return handler.ValidationError(c, "invalid role id")
	}

	var in roleInput

	if err := c.BodyParser(&in); err != nil {
		return handler.ValidationError(c, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return handler.ValidationError(c, err.Error())
	}

	var role models.Role
	if err := s.db.First(&role, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.NotFound(c, "role not found")
		}

		log.Error().Err(err).Msg("query role failed")

		return handler.InternalError(c)
	}

	if !role.Editable && in.Permissions != nil {
		return handler.Fail(c, fiber.StatusForbidden, handler.CodePermissionDenied,
			"this role's permission set cannot be changed")
	}

	// Touching the full-access role itself is sensitive: allowed, but only
	// with an explicit confirmation, mirroring deletes of manager accounts.
	warning := auth.SensitiveTargetWarning(auth.PermRoleModify, role.Kind)
	if warning != "" && c.Query("confirm") != "true" {
		return handler.FailWithDetails(c, fiber.StatusBadRequest, handler.CodeValidationError,
			warning, fiber.Map{"requiresConfirmation": true})
	}

	role.Name = in.Name
	role.Description = in.Description
	role.DefaultTaskIDs = in.DefaultTaskIDs
	role.DefaultExperience = in.DefaultExperience

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&role).Error; err != nil {
			return err //nolint:wrapcheck
		}

		if in.Permissions == nil {
			return nil
		}

		return s.replacePermissions(tx, role.ID, in.Permissions)
	})
	if err != nil {
		return handler.ValidationError(c, "failed to update role: "+err.Error())
	}

	return handler.OK(c, s.view(&role))
}

// Delete removes a custom role. System roles cannot be deleted, and a role
// still assigned to users is protected by the foreign key.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return handler.ValidationError(c, "invalid role id")
	}

	var role models.Role
	if err := s.db.First(&role, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.NotFound(c, "role not found")
		}

		log.Error().Err(err).Msg("query role failed")

		return handler.InternalError(c)
	}

	if role.IsSystem {
		return handler.Fail(c, fiber.StatusForbidden, handler.CodePermissionDenied,
			"system roles cannot be deleted")
	}

	var userCount int64
	if err := s.db.Model(&models.User{}).Where("role_id = ?", role.ID).Count(&userCount).Error; err != nil {
		log.Error().Err(err).Msg("count role users failed")

		return handler.InternalError(c)
	}

	if userCount > 0 {
		return handler.ValidationError(c, "role is still assigned to users")
	}

	if err := s.db.Delete(&role).Error; err != nil {
		log.Error().Err(err).Msg("delete role failed")

		return handler.InternalError(c)
	}

	return handler.OK(c, nil)
}

// replacePermissions swaps the role's permission set for the named ones.
// Unknown permission names are rejected.
func (s *Service) replacePermissions(tx *gorm.DB, roleID uint, names []string) error {
	if err := tx.Where("role_id = ?", roleID).Delete(&models.RolePermission{}).Error; err != nil {
		return err //nolint:wrapcheck
	}

	for _, name := range names {
		var perm models.Permission
		if err := tx.Where("name = ?", name).First(&perm).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("unknown permission: " + name)
			}

			return err //nolint:wrapcheck
		}

		if err := tx.Create(&models.RolePermission{RoleID: roleID, PermissionID: perm.ID}).Error; err != nil {
			return err //nolint:wrapcheck
		}
	}

	return nil
}
