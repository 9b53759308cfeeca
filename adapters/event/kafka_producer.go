package event

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/lareyna/reyna-api/internal/application/service"
	"github.com/lareyna/reyna-api/internal/config"
	"github.com/lareyna/reyna-api/pkg/logger"
)

const (
	TopicUserEvents    = "user.events"
	TopicProductEvents = "product.events"
	TopicExportEvents  = "export.events"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducerClient publishes application events, one writer per topic.
// Messages are keyed by the aggregate id so events for the same entity stay
// ordered within a partition.
type KafkaProducerClient struct {
	userWriter    messageWriter
	productWriter messageWriter
	exportWriter  messageWriter
	logger        logger.Logger
}

var _ service.EventPublisher = (*KafkaProducerClient)(nil)

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaProducerClient(cfg config.Config, log logger.Logger) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}

	log.Info("Initialize Kafka Producers successfully.", zap.Strings("brokers", brokers))

	return &KafkaProducerClient{
		userWriter:    newWriter(brokers, TopicUserEvents),
		productWriter: newWriter(brokers, TopicProductEvents),
		exportWriter:  newWriter(brokers, TopicExportEvents),
		logger:        log,
	}, nil
}

func (c *KafkaProducerClient) publish(ctx context.Context, w messageWriter, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: value}); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

func (c *KafkaProducerClient) PublishUserEvent(ctx context.Context, e service.UserEvent) error {
	return c.publish(ctx, c.userWriter, e.UserID.String(), e)
}

func (c *KafkaProducerClient) PublishProductEvent(ctx context.Context, e service.ProductEvent) error {
	return c.publish(ctx, c.productWriter, strconv.FormatInt(e.ProductID, 10), e)
}

func (c *KafkaProducerClient) PublishExportEvent(ctx context.Context, e service.ExportEvent) error {
	return c.publish(ctx, c.exportWriter, e.JobID.String(), e)
}

func (c *KafkaProducerClient) Close() {
	for _, w := range []messageWriter{c.userWriter, c.productWriter, c.exportWriter} {
		if w == nil {
			continue
		}
		if err := w.Close(); err != nil {
			c.logger.Warn("Failed to close Kafka writer", zap.Error(err))
		}
	}
	c.logger.Info("Closed Kafka Producers")
}
