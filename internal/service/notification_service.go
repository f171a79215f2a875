package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/vaccine-scheduler/internal/config"
	"github.com/spec-kit/vaccine-scheduler/internal/events"
)

// NotificationService fans committed events out to the log and, when a
// Redis client is configured, to a Redis stream.
type NotificationService struct {
	logger *zap.Logger
	redis  *redis.Client
	stream string
}

// NewNotificationService creates the service. client may be nil.
func NewNotificationService(logger *zap.Logger, client *redis.Client, cfg config.RedisConfig) *NotificationService {
	return &NotificationService{
		logger: loggerOrNop(logger),
		redis:  client,
		stream: cfg.EventsStream,
	}
}

// Handle logs the event and appends it to the events stream.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("actor_kind", event.Actor.Kind.String()),
		zap.String("actor", event.Actor.Username),
		zap.Int64("appointment_id", event.AppointmentID),
		zap.Any("payload", event.Payload))

	if n.redis == nil || n.stream == "" {
		return nil
	}
	return n.appendToStream(ctx, event)
}

func (n *NotificationService) appendToStream(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	err = n.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		Values: map[string]interface{}{
			"id":             event.ID,
			"type":           string(event.Type),
			"actor_kind":     event.Actor.Kind.String(),
			"actor":          event.Actor.Username,
			"appointment_id": strconv.FormatInt(event.AppointmentID, 10),
			"timestamp":      event.Timestamp.Format(time.RFC3339Nano),
			"payload":        string(payload),
		},
	}).Err()
	if err != nil {
		n.logger.Warn("append event to stream failed",
			zap.String("stream", n.stream),
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
	return err
}
