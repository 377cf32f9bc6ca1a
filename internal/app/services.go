package app

import (
	"github.com/unexbilletera/unex-api/internal/observability"
	"github.com/unexbilletera/unex-api/internal/platform/logger"
	"github.com/unexbilletera/unex-api/internal/services"
)

type Services struct {
	Token      services.TokenService
	Coelsa     services.CoelsaService
	Compliance services.ComplianceService
	Sandbox    services.SandboxService
}

func wireServices(log *logger.Logger, cfg Config, repos Repos, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	token := services.NewTokenService(log, cfg.JWTSecretKey)
	coelsa := services.NewCoelsaService(log, repos.Operation, repos.WebhookEvent, clients.Coelsa, clients.EventBus, metrics)
	compliance := services.NewComplianceService(log, cfg.Compliance, repos.Account, repos.Operation, metrics)
	sandbox := services.NewSandboxService(log, cfg.SandboxEnabled, repos.Operation, coelsa)
	if cfg.SandboxEnabled {
		log.Warn("Sandbox endpoints enabled")
	}

	return Services{
		Token:      token,
		Coelsa:     coelsa,
		Compliance: compliance,
		Sandbox:    sandbox,
	}
}
