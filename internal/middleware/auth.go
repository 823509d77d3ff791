package middleware

import (
	"context"
	"fst_cloud_backend/internal/config"
	"fst_cloud_backend/internal/util"
	"fst_cloud_backend/pkg/logger"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminChecker reports whether a user id has administrator rights.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		if token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")); token != "" {
			return token
		}
	}
	// browsers cannot set headers on websocket upgrades
	return c.Query("token")
}

// AuthMiddleware verifies the bearer token and stores the claims under
// "user" and the admin flag under "isAdmin".
func AuthMiddleware(cfg *config.Config, admins AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret, cfg.JWT.Issuer)
		if err != nil {
			logger.Log.Debug("JWT rejected", zap.Error(err), zap.String("path", c.FullPath()))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		isAdmin := false
		if admins != nil {
			isAdmin, err = admins.IsAdmin(c.Request.Context(), claims.UserID())
			if err != nil {
				util.LogInternalError(c, err)
				c.Abort()
				return
			}
		}

		c.Set("user", claims)
		c.Set("isAdmin", isAdmin)
		c.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if util.GetUserFromContext(c) == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}
		if !util.IsAdminFromContext(c) {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
