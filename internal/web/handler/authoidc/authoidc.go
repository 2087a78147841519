package authoidc

import (
	"context"
	"errors"
	"sync"
	"time"

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
	// LoginPath is the path to initiate OIDC login.
	LoginPath = handler.RootPath + "auth/oidc/login"

	// CallbackPath is the path for OIDC callback.
	CallbackPath = handler.RootPath + "auth/oidc/callback"

	// stateTTL bounds how long an authorization round-trip may take.
	stateTTL = 5 * time.Minute
)

// Service is the OIDC handler service.
type Service struct {
	handler.Service
	cfg          *config.Config
	db           *gorm.DB
	oidcProvider *auth.OIDCProvider

	mu         sync.Mutex
	stateStore map[string]time.Time
}

// Handler is the OIDC handler.
var Handler = Service{
	stateStore: make(map[string]time.Time),
}

// Init initializes the OIDC handler. When the provider is unreachable the
// routes stay unregistered and the rest of the service runs without OIDC.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, _ *auth.Service) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.db = db
	s.cfg = cfg

	if !cfg.Auth.OIDC.Enabled {
		return nil
	}

	oidcConfig := auth.OIDCConfig{
		Enabled:      cfg.Auth.OIDC.Enabled,
		ProviderURL:  cfg.Auth.OIDC.ProviderURL,
		ClientID:     cfg.Auth.OIDC.ClientID,
		ClientSecret: cfg.Auth.OIDC.ClientSecret,
		RedirectURL:  cfg.Auth.OIDC.RedirectURL,
		Scopes:       cfg.Auth.OIDC.Scopes,
	}

	s.fillProviderDefaults(&oidcConfig)

	oidcProvider, err := auth.NewOIDCProvider(context.Background(), &oidcConfig, db)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize OIDC provider, oidc login disabled")

		return nil
	}

	s.oidcProvider = oidcProvider

	log.Info().Msg("OIDC authentication provider initialized")

	app.Get(LoginPath, s.Login)
	app.Get(CallbackPath, s.Callback)

	go s.cleanupStates()

	return nil
}

// fillProviderDefaults resolves the store and role assigned to first-time
// federated users: the first active store and the lowest-privilege staff
// role.
func (s *Service) fillProviderDefaults(oidcConfig *auth.OIDCConfig) {
	var store models.Store
	if err := s.db.Where("active = ?", true).Order("id ASC").First(&store).Error; err == nil {
		oidcConfig.DefaultStoreID = store.ID
	}

	var role models.Role
	if err := s.db.Where("kind = ?", models.RoleKindPickerPacker).
		Order("id ASC").First(&role).Error; err == nil {
		oidcConfig.DefaultRoleID = role.ID
	}
}

// Login initiates the OIDC login flow.
func (s *Service) Login(c *fiber.Ctx) error {
	state, err := auth.GenerateStateToken()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate state token")

		return handler.InternalError(c)
	}

	s.mu.Lock()
	s.stateStore[state] = time.Now().Add(stateTTL)
	s.mu.Unlock()

	return c.Redirect(s.oidcProvider.GetAuthURL(state))
}

// Callback handles the OIDC callback and establishes the session.
func (s *Service) Callback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")

	if code == "" || state == "" {
		return handler.ValidationError(c, "missing code or state parameter")
	}

	if !s.consumeState(state) {
		return handler.ValidationError(c, "invalid or expired state token")
	}

	authenticatedUser, err := s.oidcProvider.HandleCallback(c.Context(), code)
	if err != nil {
		log.Error().Err(err).Msg("OIDC authentication failed")

		return handler.Fail(c, fiber.StatusUnauthorized, handler.CodeUnauthorized,
			"authentication failed")
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")

		return handler.InternalError(c)
	}

	userSession := &session.Data{User: *authenticatedUser}
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

	log.Info().Str("username", authenticatedUser.Username).Msg("user logged in via OIDC")

	return c.Redirect(s.cfg.Webserver.URL)
}

// consumeState validates a state token and removes it, expired or not.
func (s *Service) consumeState(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiration, exists := s.stateStore[state]
	if !exists {
		return false
	}

	delete(s.stateStore, state)

	return time.Now().Before(expiration)
}

// cleanupStates periodically removes expired state tokens.
func (s *Service) cleanupStates() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()

		s.mu.Lock()
		for state, expiration := range s.stateStore {
			if now.After(expiration) {
				delete(s.stateStore, state)
			}
		}
		s.mu.Unlock()
	}
}
