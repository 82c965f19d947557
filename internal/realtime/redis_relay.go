package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NotificationChannel is the Redis pub/sub channel shared by all instances.
const NotificationChannel = "notifications"

type relayMessage struct {
	UserID  uuid.UUID       `json:"userId"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// RedisRelay publishes notifications through Redis so that the instance
// holding the recipient's socket delivers them.
type RedisRelay struct {
	client     *redis.Client
	hub        *Hub
	newBackOff func() backoff.BackOff
	logger     *zap.Logger
}

var errSubscriptionClosed = errors.New("subscription channel closed")

// NewRedisRelay creates a relay delivering into hub.
func NewRedisRelay(client *redis.Client, hub *Hub, logger *zap.Logger) *RedisRelay {
	return &RedisRelay{
		client: client,
		hub:    hub,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxInterval = 30 * time.Second
			b.MaxElapsedTime = 0
			return b
		},
		logger: logger,
	}
}

// Publish sends the notification to every instance.
func (r *RedisRelay) Publish(ctx context.Context, userID uuid.UUID, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}
	msg, err := json.Marshal(relayMessage{UserID: userID, Event: event, Payload: data})
	if err != nil {
		return fmt.Errorf("marshal relay message: %w", err)
	}
	if err := r.client.Publish(ctx, NotificationChannel, msg).Err(); err != nil {
		return fmt.Errorf("publish to redis: %w", err)
	}
	return nil
}

// Run subscribes to the shared channel and delivers to the local hub until
// ctx is cancelled. A failed or dropped subscription is retried with backoff.
func (r *RedisRelay) Run(ctx context.Context) error {
	b := r.newBackOff()
	for {
		err := r.subscribe(ctx, b)
		if ctx.Err() != nil {
			return nil
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return fmt.Errorf("subscribe to %s: %w", NotificationChannel, err)
		}
		r.logger.Warn("redis notification relay disconnected, resubscribing",
			zap.Duration("retry_in", wait),
			zap.Error(err),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// subscribe runs one subscription. It resets b once the subscription is live.
func (r *RedisRelay) subscribe(ctx context.Context, b backoff.BackOff) error {
	sub := r.client.Subscribe(ctx, NotificationChannel)
	defer func() { _ = sub.Close() }()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	b.Reset()
	r.logger.Info("redis notification relay started", zap.String("channel", NotificationChannel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errSubscriptionClosed
			}
			r.dispatch(msg.Payload)
		}
	}
}

func (r *RedisRelay) dispatch(raw string) int {
	var msg relayMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		r.logger.Warn("discarding malformed relay message", zap.Error(err))
		return 0
	}
	frame, err := encodeFrame(msg.Event, msg.Payload)
	if err != nil {
		r.logger.Warn("discarding unencodable relay message", zap.Error(err))
		return 0
	}
	return r.hub.Deliver(msg.UserID, frame)
}
