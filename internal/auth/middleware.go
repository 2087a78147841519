package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/rosterbase/rosterbase/internal/web/session"
)

// CurrentUserKey is the fiber.Locals key the authenticated user is stored
// under for downstream handlers.
const CurrentUserKey = "CurrentUser"

// SessionToken extracts the session token from the request: a bearer token in
// the Authorization header, falling back to the session cookie.
func SessionToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}

	return c.Cookies("session")
}

// RequirePermission creates Fiber middleware that requires a specific permission.
// The full-access role kind passes regardless of its assigned permission set.
func RequirePermission(authService *Service, permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionData, errResp := readSession(c)
		if errResp != nil {
			return errResp(c)
		}

		decision, err := authService.CanPerformAction(&sessionData.User, permission, nil)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", sessionData.User.ID).Str("permission", permission).
				Msg("failed to check permission")

			return respondInternalError(c)
		}

		if !decision.Allowed {
			log.Warn().Uint64("user_id", sessionData.User.ID).Str("permission", permission).
				Msg("user lacks required permission")

			return respondPermissionDenied(c, decision.Reason)
		}

		c.Locals(CurrentUserKey, sessionData.User)

		return c.Next()
	}
}

// RequireAnyPermission creates Fiber middleware that requires at least one of the given permissions.
func RequireAnyPermission(authService *Service, permissions ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionData, errResp := readSession(c)
		if errResp != nil {
			return errResp(c)
		}

		for _, permission := range permissions {
			decision, err := authService.CanPerformAction(&sessionData.User, permission, nil)
			if err != nil {
				log.Error().Err(err).Uint64("user_id", sessionData.User.ID).Strs("permissions", permissions).
					Msg("failed to check permissions")

				return respondInternalError(c)
			}

			if decision.Allowed {
				c.Locals(CurrentUserKey, sessionData.User)

				return c.Next()
			}
		}

		log.Warn().Uint64("user_id", sessionData.User.ID).Strs("permissions", permissions).
			Msg("user lacks required permissions")

		return respondPermissionDenied(c, "you don't have permission to access this resource")
	}
}

// readSession resolves the request's session into session data. The second
// return value is a non-nil responder when the request must be rejected.
func readSession(c *fiber.Ctx) (*session.Data, func(*fiber.Ctx) error) {
	token := SessionToken(c)
	if token == "" {
		return nil, respondUnauthorized
	}

	sessionData := new(session.Data)
	if err := sessionData.Read(token); err != nil {
		return nil, respondUnauthorized
	}

	if sessionData.User.ID == 0 {
		return nil, respondUnauthorized
	}

	return sessionData, nil
}

// The middleware writes the API error envelope directly rather than going
// through the handler helpers, which sit above this package in the import
// graph.

func respondUnauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"error": fiber.Map{
			"code":    "UNAUTHORIZED",
			"message": "authentication required",
		},
	})
}

func respondPermissionDenied(c *fiber.Ctx, reason string) error {
	if reason == "" {
		reason = "you don't have permission to access this resource"
	}

	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"success": false,
		"error": fiber.Map{
			"code":    "PERMISSION_DENIED",
			"message": reason,
		},
	})
}

func respondInternalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error": fiber.Map{
			"code":    "INTERNAL_ERROR",
			"message": "internal server error",
		},
	})
}
