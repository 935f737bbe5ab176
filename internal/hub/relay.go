package hub

import (
	"context"
	"encoding/json"

	"dms-be/internal/logger"
	"dms-be/internal/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const relayBuffer = 512

// redisConn is the part of *redis.Client the relay needs.
type redisConn interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

type envelope struct {
	Origin string `json:"origin"`
	Topic  string `json:"topic"`
	Event  Event  `json:"event"`
}

// Relay publishes locally and mirrors every event to the other instances
// through a Redis channel, so a subscriber connected to any instance sees it.
// Redis writes happen on a background goroutine; Publish never blocks.
type Relay struct {
	local   *Hub
	client  redisConn
	channel string
	origin  string
	outbox  chan envelope
}

func NewRelay(local *Hub, client redisConn, channel string) *Relay {
	return &Relay{
		local:   local,
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		outbox:  make(chan envelope, relayBuffer),
	}
}

func (r *Relay) Publish(topic string, ev Event) bool {
	ok := r.local.Publish(topic, ev)
	select {
	case r.outbox <- envelope{Origin: r.origin, Topic: topic, Event: ev}:
	default:
		metrics.HubDropped.WithLabelValues("relay_full").Inc()
	}
	return ok
}

// Run forwards the outbox to Redis and feeds remote events into the local
// hub until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	log := logger.FromCtx(ctx).With(zap.String("layer", "hub"), zap.String("channel", r.channel))

	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()
	incoming := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case env := <-r.outbox:
			payload, err := json.Marshal(env)
			if err != nil {
				log.Error("encode relay envelope", zap.Error(err))
				continue
			}
			if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
				metrics.HubDropped.WithLabelValues("relay_error").Inc()
				log.Warn("relay publish failed", zap.Error(err))
			}
		case msg, ok := <-incoming:
			if !ok {
				log.Warn("relay subscription closed")
				return
			}
			r.handle(msg.Payload)
		}
	}
}

// handle republishes a remote envelope locally, skipping our own echoes.
func (r *Relay) handle(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		logger.L().Warn("discarding malformed relay payload", zap.Error(err))
		return
	}
	if env.Origin == r.origin || env.Topic == "" {
		return
	}
	r.local.Publish(env.Topic, env.Event)
}
