package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/lareyna/reyna-api/internal/config"
	"github.com/lareyna/reyna-api/pkg/logger"
)

// Outcomes reported to the EventObserver for every message.
const (
	OutcomeProcessed   = "processed"
	OutcomeUndecodable = "undecodable"
	OutcomeFailed      = "failed"
)

// ErrUndecodable marks a message that can never be handled. It is committed
// without retrying.
var ErrUndecodable = errors.New("undecodable message")

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type EventObserver interface {
	EventProcessed(topic, outcome string)
}

type Handler func(ctx context.Context, msg kafka.Message) error

// JSONHandler decodes the message value into T before calling fn.
func JSONHandler[T any](fn func(ctx context.Context, payload T) error) Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var payload T
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			return fmt.Errorf("%w: %v", ErrUndecodable, err)
		}
		return fn(ctx, payload)
	}
}

type ConsumerOptions struct {
	MaxAttempts int
	RetryDelay  time.Duration
}

func DefaultConsumerOptions() ConsumerOptions {
	return ConsumerOptions{MaxAttempts: 3, RetryDelay: 500 * time.Millisecond}
}

type Consumer struct {
	reader   MessageReader
	topic    string
	handler  Handler
	observer EventObserver
	opts     ConsumerOptions
	logger   logger.Logger
}

func NewKafkaReader(cfg config.Config, topic string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    topic,
		GroupID:  cfg.Kafka.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})
}

// NewConsumer builds a consumer for one topic. observer may be nil.
func NewConsumer(reader MessageReader, topic string, handler Handler, observer EventObserver, opts ConsumerOptions, log logger.Logger) *Consumer {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Consumer{
		reader:   reader,
		topic:    topic,
		handler:  handler,
		observer: observer,
		opts:     opts,
		logger:   log.With(zap.String("topic", topic)),
	}
}

// Run fetches and handles messages until ctx is cancelled or the reader is
// closed. Every fetched message is committed exactly once, whatever the
// outcome, so a poison message cannot stall its partition.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("Worker listening on topic")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				c.logger.Info("Consumer stopped")
				return nil
			}
			return fmt.Errorf("fetch message from %s: %w", c.topic, err)
		}

		outcome := c.handle(ctx, msg)
		if c.observer != nil {
			c.observer.EventProcessed(c.topic, outcome)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("Failed to commit message", err, zap.Int64("offset", msg.Offset))
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) string {
	log := c.logger.With(zap.Int("partition", msg.Partition), zap.Int64("offset", msg.Offset), zap.ByteString("key", msg.Key))

	delay := c.opts.RetryDelay
	var lastErr error
	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		lastErr = c.handler(ctx, msg)
		if lastErr == nil {
			return OutcomeProcessed
		}
		if errors.Is(lastErr, ErrUndecodable) {
			log.Error("Skipping undecodable message", lastErr)
			return OutcomeUndecodable
		}
		if attempt == c.opts.MaxAttempts {
			break
		}

		log.Warn("Handler failed, retrying", zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(lastErr))
		select {
		case <-time.After(delay):
			delay *= 2
		case <-ctx.Done():
			return OutcomeFailed
		}
	}

	log.Error("Giving up on message", lastErr, zap.Int("attempts", c.opts.MaxAttempts))
	return OutcomeFailed
}
