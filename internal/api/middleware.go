package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anloi/smarthome/server/internal/auth"
)

// contextUserID is the echo context key holding the authenticated user id.
const contextUserID = "userID"

// requireUser guards routes behind a valid login JWT and stashes the
// user id on the context.
func requireUser(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			if token == "" {
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "missing_token",
					Message: "JWT token is required in Authorization header",
				})
			}

			claims, err := auth.ValidateToken(token)
			if err != nil {
				logger.Warn("Rejected request with invalid token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "invalid_token",
					Message: "Invalid or expired JWT token",
				})
			}
			if claims.Purpose != auth.RolePurposeUser {
				return c.JSON(http.StatusForbidden, ErrorResponse{
					Error:   "invalid_token",
					Message: "A login token is required",
				})
			}

			c.Set(contextUserID, claims.UserID)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	// Browsers cannot set headers on websocket dials; allow ?token=.
	return c.QueryParam("token")
}
