package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/unexbilletera/unex-api/internal/domain"
	"github.com/unexbilletera/unex-api/internal/platform/logger"
)

const DefaultChannel = "unex.operations"

// OperationEventBus fans operation status changes out to other services.
type OperationEventBus interface {
	Publish(ctx context.Context, ev types.OperationEvent) error
	StartForwarder(ctx context.Context, onEvent func(ev types.OperationEvent)) error
	Close() error
}

type operationEventBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewOperationEventBus publishes on channel through rdb. The bus does not own rdb.
func NewOperationEventBus(log *logger.Logger, rdb *goredis.Client, channel string) (OperationEventBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = DefaultChannel
	}
	return &operationEventBus{
		log:     log.With("service", "OperationEventBus"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (b *operationEventBus) Publish(ctx context.Context, ev types.OperationEvent) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *operationEventBus) StartForwarder(ctx context.Context, onEvent func(ev types.OperationEvent)) error {
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var ev types.OperationEvent
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					b.log.Warn("bad operation event payload", "error", err)
					continue
				}
				onEvent(ev)
			}
		}
	}()
	return nil
}

func (b *operationEventBus) Close() error { return nil }

type noopEventBus struct{}

// NewNoopEventBus is used when no redis address is configured.
func NewNoopEventBus() OperationEventBus { return noopEventBus{} }

func (noopEventBus) Publish(context.Context, types.OperationEvent) error { return nil }
func (noopEventBus) StartForwarder(context.Context, func(types.OperationEvent)) error {
	return nil
}
func (noopEventBus) Close() error { return nil }
