package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/teelab/storefront/pkg/config"
	"github.com/teelab/storefront/pkg/logger"
)

// envelope is the wire shape relayed between processes. The instance id
// filters out this process's own publishes.
type envelope struct {
	Instance string `json:"instance"`
	Topic    Topic  `json:"topic"`
}

// Bridge mirrors bus publishes across processes through a redis channel.
// Delivery is best-effort and eventually consistent, like native storage
// events between browser tabs.
type Bridge struct {
	bus      *Bus
	client   *redis.Client
	channel  string
	instance string
	logg     *logger.Logger
}

// NewBridge connects to redis and attaches the bridge as the bus forwarder.
func NewBridge(ctx context.Context, cfg config.RedisConfig, bus *Bus, logg *logger.Logger) (*Bridge, error) {
	if bus == nil {
		return nil, fmt.Errorf("event bus required")
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	b := &Bridge{
		bus:      bus,
		client:   client,
		channel:  cfg.Channel,
		instance: uuid.NewString(),
		logg:     logg,
	}
	bus.AttachForwarder(b.forward)
	return b, nil
}

// Start consumes remote publishes until ctx is cancelled.
func (b *Bridge) Start(ctx context.Context) {
	sub := b.client.Subscribe(ctx, b.channel)
	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				b.relay(ctx, msg.Payload)
			}
		}
	}()
}

// Close shuts down the redis connection.
func (b *Bridge) Close() error {
	return b.client.Close()
}

func (b *Bridge) forward(topic Topic) {
	payload, err := json.Marshal(envelope{Instance: b.instance, Topic: topic})
	if err != nil {
		return
	}
	// Remote delivery must not block or fail a local store operation.
	go func() {
		if err := b.client.Publish(context.Background(), b.channel, payload).Err(); err != nil && b.logg != nil {
			lctx := b.logg.WithField(context.Background(), "topic", string(topic))
			b.logg.Warn(lctx, "event forward dropped")
		}
	}()
}

func (b *Bridge) relay(ctx context.Context, payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		if b.logg != nil {
			b.logg.Warn(ctx, "unparsable event envelope dropped")
		}
		return
	}
	if env.Instance == b.instance || env.Topic == "" {
		return
	}
	b.bus.deliver(ctx, env.Topic)
}
