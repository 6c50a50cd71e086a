package kafka

import (
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/rzzdr/var-engine/config"
	"github.com/rzzdr/var-engine/pkg/utils/logger"
)

// Client builds producers and consumers from a single broker
// configuration.
type Client struct {
	cfg config.KafkaConfig
	log *logger.Logger
}

// NewClient creates a new Kafka client.
func NewClient(cfg config.KafkaConfig) *Client {
	return &Client{cfg: cfg, log: logger.GetLogger("kafka.client")}
}

// NewProducer creates a producer bound to a topic. Writes wait for all
// replicas to acknowledge.
func (c *Client) NewProducer(topic string) *Producer {
	writer := &kafkago.Writer{
		Addr:                   kafkago.TCP(c.cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}

	c.log.Infow("kafka producer created", "topic", topic, "brokers", c.cfg.Brokers)
	return &Producer{writer: writer, topic: topic, log: logger.GetLogger("kafka.producer")}
}

// NewConsumer creates a consumer group reader for a topic. Offsets are
// committed explicitly after the handler succeeds.
func (c *Client) NewConsumer(topic string) *Consumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        c.cfg.Brokers,
		Topic:          topic,
		GroupID:        c.cfg.GroupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        500 * time.Millisecond,
		StartOffset:    kafkago.LastOffset,
		CommitInterval: 0,
	})

	c.log.Infow("kafka consumer created", "topic", topic, "group_id", c.cfg.GroupID)
	return &Consumer{reader: reader, topic: topic, groupID: c.cfg.GroupID, log: logger.GetLogger("kafka.consumer")}
}
