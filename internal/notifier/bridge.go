package notifier

import (
	"context"
	"encoding/json"

	"github.com/lunamoss/readmaster/config"
	"github.com/lunamoss/readmaster/internal/dto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// eventsChannel is the redis pub/sub channel carrying live events from the
// worker process to the API process. The two share no memory; redis is the
// only bridge.
const eventsChannel = "readmaster:events"

type envelope struct {
	UserID string                `json:"user_id"`
	Event  dto.NotificationEvent `json:"event"`
}

// RedisPublisher implements Pusher for the worker process by publishing onto
// the events channel.
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(cfg *config.Config) *RedisPublisher {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) PushToUser(userID string, event dto.NotificationEvent) {
	payload, err := json.Marshal(envelope{UserID: userID, Event: event})
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal notification envelope")
		return
	}
	if err := p.rdb.Publish(context.Background(), eventsChannel, payload).Err(); err != nil {
		// Best-effort: the stored notification row and assessment status are
		// the source of truth, so a failed publish is only logged.
		log.Warn().Err(err).Str("userID", userID).Msg("Failed to publish notification event")
	}
}

// Bridge subscribes to the events channel and fans incoming events out to the
// local websocket hub. Runs inside the API process.
type Bridge struct {
	rdb *redis.Client
	hub *Hub
}

func NewBridge(cfg *config.Config, hub *Hub) *Bridge {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return &Bridge{rdb: rdb, hub: hub}
}

// Run blocks consuming the subscription until the context is cancelled.
func (b *Bridge) Run(ctx context.Context) {
	sub := b.rdb.Subscribe(ctx, eventsChannel)
	defer sub.Close()

	log.Info().Str("channel", eventsChannel).Msg("Notification bridge subscribed")
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Warn().Err(err).Msg("Dropping malformed notification envelope")
				continue
			}
			b.hub.PushToUser(env.UserID, env.Event)
		}
	}
}
