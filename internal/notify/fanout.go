package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/sliceline/sliceline-backend/pkg/logger"
	"github.com/sliceline/sliceline-backend/pkg/redis"
)

const publishTimeout = 2 * time.Second

// Emitter is the capability checkout and order flows consume. Emission is
// best-effort and must never fail or block the caller.
type Emitter interface {
	Emit(ctx context.Context, event Event)
}

// RedisPublisher mirrors events to redis pub/sub so websocket frontends on
// other instances see them too.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher wraps the shared redis client.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish sends the envelope to the staff channel and, when the event is
// customer-scoped, to that customer's channel. Channel failures are
// aggregated so one bad channel never hides another.
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	if p == nil || p.client == nil {
		return nil
	}
	payload, err := json.Marshal(event.Envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	var errs error
	if err := p.client.Publish(ctx, p.client.EventChannel("staff"), payload); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("publish staff channel: %w", err))
	}
	if event.CustomerKey != "" {
		channel := p.client.EventChannel("customer", event.CustomerKey)
		if err := p.client.Publish(ctx, channel, payload); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("publish customer channel: %w", err))
		}
	}
	return errs
}

// Fanout combines the in-process hub and the redis mirror behind Emitter.
type Fanout struct {
	hub    *Hub
	redis  *RedisPublisher
	logger *logger.Logger
}

// NewFanout builds the fan-out. The redis publisher may be nil (single
// instance deployments); the hub is required.
func NewFanout(hub *Hub, redisPub *RedisPublisher, logg *logger.Logger) (*Fanout, error) {
	if hub == nil {
		return nil, fmt.Errorf("notification hub required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Fanout{hub: hub, redis: redisPub, logger: logg}, nil
}

// Emit broadcasts after the triggering transaction has committed. Failures
// are logged and swallowed; a dropped listener never rolls back an order.
func (f *Fanout) Emit(ctx context.Context, event Event) {
	f.hub.Publish(event)

	if f.redis == nil {
		return
	}
	go func() {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := f.redis.Publish(pubCtx, event); err != nil {
			pubCtx = f.logger.WithField(pubCtx, "event", string(event.Envelope.Event))
			f.logger.Warn(pubCtx, "event publish failed")
		}
	}()
}
