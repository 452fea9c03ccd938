package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/internal/domain/identity"
	"github.com/khoahotran/folio/pkg/logger"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// IdentityHandler applies one identity provider event.
type IdentityHandler func(ctx context.Context, e identity.Event) error

const (
	defaultRetryInitialWait = 500 * time.Millisecond
	defaultRetryMaxWait     = 30 * time.Second
)

type IdentityConsumer struct {
	reader      messageReader
	logger      logger.Logger
	initialWait time.Duration
	maxWait     time.Duration
}

func NewIdentityConsumer(cfg config.Config, log logger.Logger) (*IdentityConsumer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    cfg.Kafka.IdentityTopic,
		GroupID:  cfg.Kafka.IdentityGroupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	return &IdentityConsumer{
		reader:      reader,
		logger:      log,
		initialWait: defaultRetryInitialWait,
		maxWait:     defaultRetryMaxWait,
	}, nil
}

// Run blocks until ctx is cancelled. Malformed payloads are committed and
// skipped. A handler failure is retried with exponential backoff and the
// partition does not advance until it succeeds.
func (c *IdentityConsumer) Run(ctx context.Context, handle IdentityHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return nil
			}
			c.logger.Error("Failed to read identity event", err)
			continue
		}
		c.process(ctx, msg, handle)
	}
}

func (c *IdentityConsumer) process(ctx context.Context, msg kafka.Message, handle IdentityHandler) {
	log := c.logger.With(zap.String("topic", msg.Topic), zap.Int64("offset", msg.Offset))

	e, err := identity.ParseEvent(msg.Value)
	if err != nil {
		log.Warn("Skipping malformed identity event", zap.Error(err))
		c.commit(ctx, msg)
		return
	}

	if err := c.applyWithRetry(ctx, e, handle); err != nil {
		log.Warn("Identity event left uncommitted", zap.Error(err))
		return
	}
	c.commit(ctx, msg)
}

func (c *IdentityConsumer) applyWithRetry(ctx context.Context, e identity.Event, handle IdentityHandler) error {
	wait := c.initialWait
	if wait <= 0 {
		wait = defaultRetryInitialWait
	}
	maxWait := c.maxWait
	if maxWait < wait {
		maxWait = wait
	}
	for attempt := 1; ; attempt++ {
		err := handle(ctx, e)
		if err == nil {
			return nil
		}
		c.logger.Error("Failed to apply identity event", err,
			zap.String("type", string(e.Type)), zap.String("user_id", e.Data.ID), zap.Int("attempt", attempt), zap.Duration("retry_in", wait))

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
		if wait *= 2; wait > maxWait {
			wait = maxWait
		}
	}
}

func (c *IdentityConsumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("Failed to commit identity event", err, zap.Int64("offset", msg.Offset))
	}
}

func (c *IdentityConsumer) Close() error {
	return c.reader.Close()
}
