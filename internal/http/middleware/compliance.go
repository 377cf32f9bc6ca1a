package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/unexbilletera/unex-api/internal/http/response"
	"github.com/unexbilletera/unex-api/internal/services"
)

const (
	HeaderPassphrase = "x-passphrase"
	HeaderSecret     = "x-secret"
)

// RequireComplianceCredentials checks the passphrase/secret header pair for endpoint.
func RequireComplianceCredentials(svc services.ComplianceService, endpoint services.ComplianceEndpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Authorize(endpoint, c.GetHeader(HeaderPassphrase), c.GetHeader(HeaderSecret)); err != nil {
			response.RespondAPIError(c, err, "unauthorized")
			c.Abort()
			return
		}
		c.Next()
	}
}
