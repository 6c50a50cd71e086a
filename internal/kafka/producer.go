package kafka

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/rzzdr/var-engine/pkg/utils/errors"
	"github.com/rzzdr/var-engine/pkg/utils/logger"
)

// Producer is a JSON-encoding wrapper around a topic-bound writer.
type Producer struct {
	writer *kafkago.Writer
	topic  string
	log    *logger.Logger
}

// Publish marshals the value to JSON and writes it to the topic.
func (p *Producer) Publish(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal message for topic %s", p.topic)
	}

	msg := kafkago.Message{Key: []byte(key), Value: data}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Errorw("failed to publish message", "topic", p.topic, "key", key, "error", err)
		return errors.Wrapf(err, "failed to publish to topic %s", p.topic)
	}

	p.log.Debugw("message published", "topic", p.topic, "key", key)
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
