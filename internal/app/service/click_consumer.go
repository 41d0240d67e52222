package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Mustak4/CleanLinkAI/internal/app/model"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// warmCounterTTL keeps the per-day counters around a little longer
	// than the widest stats window anyone is expected to request.
	warmCounterTTL = 45 * 24 * time.Hour

	fetchBatchSize = 10
	fetchMaxWait   = 5 * time.Second
)

// ClickConsumer consumes click events from JetStream and warms per-day
// click counters in Redis. The counters are a dashboard cache only; stats
// reads stay authoritative against Postgres.
type ClickConsumer struct {
	js     nats.JetStreamContext
	rdb    *redis.Client
	logger *zap.Logger
}

// NewClickConsumer creates a click event consumer.
func NewClickConsumer(js nats.JetStreamContext, rdb *redis.Client, logger *zap.Logger) *ClickConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClickConsumer{js: js, rdb: rdb, logger: logger}
}

// Start provisions the durable consumer and begins pulling events.
func (c *ClickConsumer) Start() error {
	if _, err := c.js.ConsumerInfo(model.ClickStreamName, model.ClickConsumerName); err != nil {
		_, err = c.js.AddConsumer(model.ClickStreamName, &nats.ConsumerConfig{
			Durable:   model.ClickConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		})
		if err != nil {
			return fmt.Errorf("create click consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(model.ClickStreamSubject, model.ClickConsumerName)
	if err != nil {
		return fmt.Errorf("subscribe to click stream: %w", err)
	}

	go c.consume(sub)
	return nil
}

func (c *ClickConsumer) consume(sub *nats.Subscription) {
	ctx := context.Background()
	for {
		msgs, err := sub.Fetch(fetchBatchSize, nats.MaxWait(fetchMaxWait))
		if err != nil && err != nats.ErrTimeout {
			c.logger.Error("failed to fetch click events", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			var event model.ClickEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				c.logger.Error("failed to unmarshal click event", zap.Error(err))
				msg.Nak()
				continue
			}

			if err := c.warm(ctx, &event); err != nil {
				c.logger.Error("failed to warm click counters",
					zap.String("id", event.ID),
					zap.String("link_slug", event.LinkSlug),
					zap.Error(err))
				msg.Nak()
				continue
			}

			c.logger.Debug("click event processed",
				zap.String("id", event.ID),
				zap.String("link_slug", event.LinkSlug),
				zap.Time("timestamp", event.Timestamp),
			)

			msg.Ack()
		}
	}
}

// warm bumps the Redis per-day counter for the event's slug. Keys look
// like clicks:daily:<slug> with one hash field per UTC date.
func (c *ClickConsumer) warm(ctx context.Context, event *model.ClickEvent) error {
	key := "clicks:daily:" + event.LinkSlug
	field := event.Timestamp.UTC().Format(time.DateOnly)

	pipe := c.rdb.Pipeline()
	pipe.HIncrBy(ctx, key, field, 1)
	pipe.Expire(ctx, key, warmCounterTTL)
	_, err := pipe.Exec(ctx)
	return err
}
