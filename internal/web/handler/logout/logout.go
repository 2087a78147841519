// Package logout provides the endpoint that destroys the caller's session.
package logout

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/rosterbase/rosterbase/internal/auth"
	"github.com/rosterbase/rosterbase/internal/config"
	"github.com/rosterbase/rosterbase/internal/web/handler"
	"github.com/rosterbase/rosterbase/internal/web/session"
)

const (
	// Path is the logout endpoint path.
	Path = handler.APIPath + "/auth/logout"
)

// Service is the logout handler service.
type Service struct {
	handler.Service
	cfg *config.Config
}

// Handler is the logout handler.
var Handler = Service{}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, _ *gorm.DB, _ *auth.Service) error {
	if app == nil || cfg == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg

	app.Post(Path, s.Post)

	return nil
}

// Post destroys the caller's session and clears the cookie. Succeeds even
// without a session, so logout is always safe to call.
func (s *Service) Post(c *fiber.Ctx) error {
	if token := auth.SessionToken(c); token != "" {
		if err := session.Destroy(token); err != nil {
			log.Error().Err(err).Msg("failed to delete session")
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     "session",
		Value:    "",
		MaxAge:   -1,
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return handler.OK(c, nil)
}
