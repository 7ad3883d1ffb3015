package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lunamoss/readmaster/internal/dto"
	"github.com/lunamoss/readmaster/internal/model"
	"github.com/lunamoss/readmaster/internal/repository"
	"github.com/lunamoss/readmaster/internal/service"
)

// ContextUserKey is where the authenticated *model.User lives in the gin
// context.
const ContextUserKey = "currentUser"

// Auth validates the bearer token and loads the current user. The user row
// is fetched per request so role changes take effect immediately.
func Auth(authService service.AuthService, userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := ""
		switch {
		case strings.HasPrefix(header, "Bearer "):
			token = strings.TrimPrefix(header, "Bearer ")
		case c.Query("token") != "":
			// Browsers cannot set headers on websocket upgrades.
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "missing bearer token"})
			return
		}

		claims, err := authService.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid or expired token"})
			return
		}
		user, err := userRepo.FindByID(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unknown user"})
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// RequireRoles rejects requests whose authenticated user has none of the
// given roles. Must run after Auth.
func RequireRoles(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "not authenticated"})
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{Error: "insufficient role"})
	}
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c *gin.Context) *model.User {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*model.User)
	if !ok {
		return nil
	}
	return user
}
