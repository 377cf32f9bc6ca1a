package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unexbilletera/unex-api/internal/clients/coelsa"
	"github.com/unexbilletera/unex-api/internal/clients/redis"
	"github.com/unexbilletera/unex-api/internal/platform/logger"
)

type Clients struct {
	Redis    *goredis.Client
	EventBus redis.OperationEventBus
	Coelsa   coelsa.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis (optional)
	bus := redis.NewNoopEventBus()
	var rdb *goredis.Client
	if cfg.RedisAddr != "" {
		c, err := redis.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		b, err := redis.NewOperationEventBus(log, c, cfg.RedisChannel)
		if err != nil {
			_ = c.Close()
			return Clients{}, fmt.Errorf("init operation event bus: %w", err)
		}
		rdb, bus = c, b
	}

	// COELSA
	coelsaClient := coelsa.NewClient(log, cfg.Coelsa)

	return Clients{
		Redis:    rdb,
		EventBus: bus,
		Coelsa:   coelsaClient,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.EventBus != nil {
		_ = c.EventBus.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
