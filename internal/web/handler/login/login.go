// Package login provides the JSON login endpoint for local and LDAP
// credentials.
package login

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/rosterbase/rosterbase/internal/auth"
	"github.com/rosterbase/rosterbase/internal/config"
	"github.com/rosterbase/rosterbase/internal/db/models"
	"github.com/rosterbase/rosterbase/internal/web/handler"
	"github.com/rosterbase/rosterbase/internal/web/session"
)

const (
	// Path is the login endpoint path.
	Path = handler.APIPath + "/auth/login"
)

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg           *config.Config
	db            *gorm.DB
	localProvider *auth.LocalProvider
	ldapProvider  *auth.LDAPProvider
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, _ *auth.Service) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.db = db
	s.cfg = cfg

	if cfg.Auth.Local.Enabled {
		s.localProvider = auth.NewLocalProvider(db)
	}

	if cfg.Auth.LDAP.Enabled {
		ldapProvider, err := auth.NewLDAPProvider(&auth.LDAPConfig{
			Enabled:        cfg.Auth.LDAP.Enabled,
			Host:           cfg.Auth.LDAP.Host,
			Port:           cfg.Auth.LDAP.Port,
			UseSSL:         cfg.Auth.LDAP.UseSSL,
			UseTLS:         cfg.Auth.LDAP.UseTLS,
			SkipVerify:     cfg.Auth.LDAP.SkipVerify,
			BindDN:         cfg.Auth.LDAP.BindDN,
			BindPassword:   cfg.Auth.LDAP.BindPassword,
			BaseDN:         cfg.Auth.LDAP.BaseDN,
			UserFilter:     cfg.Auth.LDAP.UserFilter,
			UsernameAttr:   cfg.Auth.LDAP.UsernameAttr,
			EmailAttr:      cfg.Auth.LDAP.EmailAttr,
			FirstNameAttr:  cfg.Auth.LDAP.FirstNameAttr,
			LastNameAttr:   cfg.Auth.LDAP.LastNameAttr,
			EmployeeNoAttr: cfg.Auth.LDAP.EmployeeNoAttr,
			Timeout:        cfg.Auth.LDAP.Timeout,
		}, db)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize LDAP provider, ldap login disabled")
		} else {
			s.ldapProvider = ldapProvider
		}
	}

	app.Post(Path, s.Post)

	return nil
}

// loginRequest is the login payload. Login accepts a username or an employee
// code.
type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Method   string `json:"method"` // "local" (default) or "ldap"
}

// loginResponse carries the bearer token and the authenticated user.
type loginResponse struct {
	Token string           `json:"token"`
	User  handler.UserView `json:"user"`
}

// Post handles the login request.
func (s *Service) Post(c *fiber.Ctx) error {
	var in loginRequest

	if err := c.BodyParser(&in); err != nil {
		return handler.ValidationError(c, "invalid request body")
	}

	if in.Login == "" || in.Password == "" {
		return handler.ValidationError(c, "login and password are required")
	}

	var (
		user *models.User
		err  error
	)

	switch in.Method {
	case "", "local":
		if s.localProvider == nil {
			return handler.Fail(c, fiber.StatusUnauthorized, handler.CodeUnauthorized,
				"local authentication is disabled")
		}

		user, err = s.localProvider.Authenticate(in.Login, in.Password)
	case "ldap":
		if s.ldapProvider == nil {
			return handler.Fail(c, fiber.StatusUnauthorized, handler.CodeUnauthorized,
				"ldap authentication is disabled")
		}

		user, err = s.ldapProvider.Authenticate(in.Login, in.Password)
	default:
		return handler.ValidationError(c, "unknown authentication method")
	}

	if err != nil {
		// One message for every credential failure; the cause goes to the log.
		log.Warn().Err(err).Str("login", in.Login).Str("method", in.Method).Msg("login failed")

		return handler.Fail(c, fiber.StatusUnauthorized, handler.CodeUnauthorized,
			"invalid credentials")
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")

		return handler.InternalError(c)
	}

	userSession := &session.Data{User: *user}
	if err = userSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to write session")

		return handler.InternalError(c)
	}

	cookieSettings := &fiber.Cookie{
		Name:     "session",
		Value:    sessionID,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	}

	if s.cfg.DevMode {
		cookieSettings.Secure = false
	}

	c.Cookie(cookieSettings)

	log.Info().Str("username", user.Username).Msg("user logged in")

	return handler.OK(c, loginResponse{
		Token: sessionID,
		User:  handler.NewUserView(user),
	})
}
