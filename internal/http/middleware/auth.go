package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/unexbilletera/unex-api/internal/http/response"
	"github.com/unexbilletera/unex-api/internal/platform/logger"
	"github.com/unexbilletera/unex-api/internal/services"
)

type AuthMiddleware struct {
	log    *logger.Logger
	tokens services.TokenService
}

func NewAuthMiddleware(log *logger.Logger, tokens services.TokenService) *AuthMiddleware {
	middlewareLogger := log.With("middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, tokens: tokens}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearer(c)
		if tokenString == "" {
			response.AbortError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid token"))
			return
		}
		ctx, err := am.tokens.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			am.log.Debug("bearer token rejected", "path", c.FullPath(), "error", err)
			response.AbortError(c, http.StatusUnauthorized, "unauthorized", errors.New("invalid or expired token"))
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
