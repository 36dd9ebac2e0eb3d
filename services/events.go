package services

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/blousecraft/blousecraft-api/config"
	"github.com/blousecraft/blousecraft-api/logger"
	"go.uber.org/zap"
)

// EventPublisher pushes domain events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
	Close() error
}

// NoopPublisher drops every event. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, string, []byte) error { return nil }
func (NoopPublisher) Close() error                                          { return nil }

// KafkaPublisher publishes events with a synchronous sarama producer.
type KafkaPublisher struct {
	producer sarama.SyncProducer
}

// publishBudget bounds how long a single Publish may hold up a request when
// brokers are slow or unreachable.
const publishBudget = 2 * time.Second

// ProducerConfig returns the sarama configuration used for event publishing.
func ProducerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Retry.Max = 1
	cfg.Producer.Retry.Backoff = 100 * time.Millisecond
	cfg.Producer.Return.Successes = true
	cfg.Producer.Timeout = publishBudget
	cfg.Net.DialTimeout = publishBudget
	cfg.Net.ReadTimeout = publishBudget
	cfg.Net.WriteTimeout = publishBudget
	cfg.Metadata.Retry.Max = 1
	cfg.Metadata.Retry.Backoff = 100 * time.Millisecond
	return cfg
}

// NewKafkaPublisher connects a producer to brokers.
func NewKafkaPublisher(brokers []string) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, ProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to start Sarama producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer (primarily for testing).
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

// Publish sends payload to topic keyed by key.
func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, payload []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send message to topic %q: %w", topic, err)
	}
	logger.FromCtx(ctx).Debug("event published",
		zap.String("topic", topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// Close shuts the producer down.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

var (
	publisherInstance EventPublisher = NoopPublisher{}
	notificationTopic                = "blousecraft.notifications"
)

// InitEventPublisher selects a Kafka publisher when brokers are configured.
func InitEventPublisher(cfg *config.Config) (EventPublisher, error) {
	if cfg.NotificationTopic != "" {
		notificationTopic = cfg.NotificationTopic
	}
	if len(cfg.KafkaBrokers) == 0 {
		logger.L().Info("no Kafka brokers configured, notification events disabled")
		publisherInstance = NoopPublisher{}
		return publisherInstance, nil
	}

	publisher, err := NewKafkaPublisher(cfg.KafkaBrokers)
	if err != nil {
		return nil, err
	}
	logger.L().Info("Kafka producer connected", zap.Strings("brokers", cfg.KafkaBrokers))
	publisherInstance = publisher
	return publisherInstance, nil
}

// GetEventPublisher returns the configured publisher
func GetEventPublisher() EventPublisher {
	return publisherInstance
}

// SetEventPublisher sets the publisher instance (primarily for testing)
func SetEventPublisher(p EventPublisher) {
	if p == nil {
		p = NoopPublisher{}
	}
	publisherInstance = p
}
