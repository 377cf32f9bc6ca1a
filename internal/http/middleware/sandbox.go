package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unexbilletera/unex-api/internal/http/response"
	"github.com/unexbilletera/unex-api/internal/services"
)

// RequireSandbox hides the sandbox routes unless the sandbox is enabled.
func RequireSandbox(svc services.SandboxService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if svc == nil || !svc.Enabled() {
			response.AbortError(c, http.StatusNotFound, "not_found", errors.New("not found"))
			return
		}
		c.Next()
	}
}
