package kafka

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/rzzdr/var-engine/pkg/utils/logger"
)

// Message is a consumed Kafka record.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       string
	Value     []byte
	Time      time.Time
}

// UnmarshalPayload decodes the message value as JSON.
func (m *Message) UnmarshalPayload(dest interface{}) error {
	return json.Unmarshal(m.Value, dest)
}

// Handler processes a single message. A non-nil error leaves the
// offset uncommitted so the message is redelivered.
type Handler func(ctx context.Context, msg Message) error

// Consumer is a consumer group reader with explicit commits.
type Consumer struct {
	reader  *kafkago.Reader
	topic   string
	groupID string
	log     *logger.Logger
}

// Consume fetches messages and passes them to the handler until the
// context is cancelled. Offsets commit only after the handler returns
// nil; handler errors are logged and the message is skipped on the
// next rebalance rather than crashing the loop.
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	for {
		raw, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Errorw("failed to fetch message", "topic", c.topic, "error", err)
			continue
		}

		msg := Message{
			Topic:     raw.Topic,
			Partition: raw.Partition,
			Offset:    raw.Offset,
			Key:       string(raw.Key),
			Value:     raw.Value,
			Time:      raw.Time,
		}

		if err := handler(ctx, msg); err != nil {
			c.log.Errorw("handler failed",
				"topic", c.topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err)
			continue
		}

		if err := c.reader.CommitMessages(ctx, raw); err != nil {
			c.log.Errorw("failed to commit offset", "topic", c.topic, "offset", msg.Offset, "error", err)
		}
	}
}

// Lag reports the consumer lag of the current partition assignment.
func (c *Consumer) Lag() int64 {
	return c.reader.Lag()
}

// Topic returns the consumed topic name.
func (c *Consumer) Topic() string { return c.topic }

// GroupID returns the consumer group id.
func (c *Consumer) GroupID() string { return c.groupID }

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
