package app

import (
	"context"

	"gorm.io/gorm"

	httpH "github.com/unexbilletera/unex-api/internal/http/handlers"
	"github.com/unexbilletera/unex-api/internal/platform/logger"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Coelsa     *httpH.CoelsaHandler
	Compliance *httpH.ComplianceHandler
	Sandbox    *httpH.SandboxHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, clients Clients, services Services) Handlers {
	log.Info("Wiring handlers...")
	checks := map[string]httpH.Pinger{
		"postgres": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if clients.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return clients.Redis.Ping(ctx).Err()
		}
	}
	return Handlers{
		Health:     httpH.NewHealthHandler(checks),
		Coelsa:     httpH.NewCoelsaHandler(log, services.Coelsa),
		Compliance: httpH.NewComplianceHandler(services.Compliance),
		Sandbox:    httpH.NewSandboxHandler(services.Sandbox),
	}
}
