package middleware

import (
	"strings"

	"github.com/villalobos-05/pagame-backend/internal/config"
	"github.com/villalobos-05/pagame-backend/internal/pkg/identifier"
	"github.com/villalobos-05/pagame-backend/internal/pkg/jwt"
	"github.com/villalobos-05/pagame-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserIDKey is the locals key carrying the authenticated caller id
const UserIDKey = "userID"

// AuthMiddleware resolves the caller identity from the bearer access token.
// It performs no store lookup: a decoded token proves recent authentication,
// while the user's continued existence is checked by whichever service later
// queries with the id.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var accessToken string

		authHeader := c.Get("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			accessToken = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret, cfg.JWT.Algorithm)
		if err != nil {
			if err == jwt.ErrTokenExpired {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		userID, err := identifier.Parse(claims.Subject)
		if err != nil {
			return response.BadRequest(c, "Token subject is not a valid identifier")
		}

		c.Locals(UserIDKey, userID)

		return c.Next()
	}
}

// CallerID extracts the authenticated caller id set by AuthMiddleware
func CallerID(c *fiber.Ctx) (uint, bool) {
	userID, ok := c.Locals(UserIDKey).(uint)
	return userID, ok
}
