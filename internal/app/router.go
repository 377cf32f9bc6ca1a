package app

import (
	"github.com/unexbilletera/unex-api/internal/http"
	"github.com/unexbilletera/unex-api/internal/observability"
	"github.com/unexbilletera/unex-api/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, services Services, metrics *observability.Metrics) http.RouterConfig {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return http.RouterConfig{
		Log:               log,
		ServiceName:       serviceName,
		CORSOrigins:       cfg.CORSOrigins,
		Metrics:           metrics,
		AuthMiddleware:    middleware.Auth,
		Compliance:        services.Compliance,
		Sandbox:           services.Sandbox,
		HealthHandler:     handlers.Health,
		CoelsaHandler:     handlers.Coelsa,
		ComplianceHandler: handlers.Compliance,
		SandboxHandler:    handlers.Sandbox,
	}
}
