package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"atlas/internal/auth"
	"atlas/internal/database"
	"atlas/internal/services"

	"github.com/gin-gonic/gin"
)

// SessionCookie carries the token for browser sessions.
const SessionCookie = "atlas_session"

const (
	ctxUserID   = "user_id"
	ctxUsername = "username"
)

// JWTAuthMiddleware validates the session token and puts the acting user on
// the context. The token is read from the Authorization header, then the
// session cookie, then the "token" query parameter (websocket clients).
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := TokenFromRequest(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token is required",
			})
			return
		}

		claims, err := auth.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}

		// The account may have been removed since the token was issued.
		user, err := services.LookupUser(c.Request.Context(), database.GetDB(), claims.UserID)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Invalid or expired token",
				})
				return
			}
			slog.Error("lookup session user", "user_id", claims.UserID, "error", err, "request_id", RequestID(c))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to load user",
			})
			return
		}

		c.Set(ctxUserID, user.ID)
		c.Set(ctxUsername, user.Username)
		c.Next()
	}
}

// TokenFromRequest returns the session token carried by the request, or "".
func TokenFromRequest(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	return c.Query("token")
}

// CurrentUser returns the authenticated actor, or ok=false when the request
// did not pass through JWTAuthMiddleware.
func CurrentUser(c *gin.Context) (userID uint, username string, ok bool) {
	userID = c.GetUint(ctxUserID)
	if userID == 0 {
		return 0, "", false
	}
	return userID, c.GetString(ctxUsername), true
}
