package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fitness360/notification-svc/internal/domain/common/errorz"
	"github.com/fitness360/notification-svc/internal/domain/dto"
	"github.com/fitness360/notification-svc/pkg/logger/types"
	"github.com/segmentio/kafka-go"
)

const defaultRetryDelay = 5 * time.Second

type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type notificationSender interface {
	SendNotification(ctx context.Context, req dto.SendNotification) (*dto.SendResult, error)
}

type Options struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Consumer turns messages of the intake topic into send requests.
type Consumer struct {
	reader     reader
	sender     notificationSender
	logger     *types.Logger
	retryDelay time.Duration
}

func NewConsumer(opts Options, sender notificationSender, logger *types.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  opts.Brokers,
		Topic:    opts.Topic,
		GroupID:  opts.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return newConsumer(r, sender, logger)
}

func newConsumer(r reader, sender notificationSender, logger *types.Logger) *Consumer {
	return &Consumer{
		reader:     r,
		sender:     sender,
		logger:     logger,
		retryDelay: defaultRetryDelay,
	}
}

// Run consumes until ctx is canceled. A message is committed once it is handled or
// found to be unprocessable; infrastructure failures are retried in place so offsets
// never move past an unhandled message.
func (c *Consumer) Run(ctx context.Context) error {
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.logger.Warnf("failed to close kafka reader: %v", err)
		}
	}()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Errorf("kafka fetch error: %v", err)
			if !c.wait(ctx) {
				return nil
			}
			continue
		}

		for !c.handle(ctx, msg) {
			if !c.wait(ctx) {
				return nil
			}
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Errorf("failed to commit offset %d of partition %d: %v", msg.Offset, msg.Partition, err)
		}
	}
}

// handle reports whether the message is done with and may be committed.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message) bool {
	var req dto.SendNotification
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		c.logger.Warnf("dropping undecodable message (partition=%d, offset=%d): %v", msg.Partition, msg.Offset, err)
		return true
	}

	result, err := c.sender.SendNotification(ctx, req)
	switch {
	case err == nil:
		c.logger.Debugf("message handled (offset=%d, user_id=%s, status=%s)", msg.Offset, req.UserID, result.Status)
		return true
	case errors.Is(err, errorz.ErrValidation) || errors.Is(err, errorz.ErrNotFound):
		c.logger.Warnf("dropping invalid message (offset=%d, user_id=%s): %v", msg.Offset, req.UserID, err)
		return true
	default:
		c.logger.Errorf("failed to handle message (offset=%d, user_id=%s): %v", msg.Offset, req.UserID, err)
		return false
	}
}

func (c *Consumer) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.retryDelay):
		return true
	}
}
