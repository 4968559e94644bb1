// Package events publishes committed trade versions to a Kafka audit topic.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/yourorg/trade-approval/internal/model"
)

// AuditEvent is the message body written to the audit topic for every
// committed version
type AuditEvent struct {
	TradeID   string            `json:"trade_id"`
	Seq       int               `json:"seq"`
	State     model.TradeState  `json:"state"`
	Action    model.Action      `json:"action"`
	UserID    string            `json:"user_id"`
	Role      model.Role        `json:"role"`
	Timestamp time.Time         `json:"timestamp"`
	Changes   []model.FieldDiff `json:"changes,omitempty"`
}

// Publisher produces audit messages to a Kafka topic, keyed by trade id so
// one trade's history stays ordered within a partition
type Publisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewPublisher creates a Kafka publisher for the audit topic
func NewPublisher(brokers []string, topic, clientID string, logger *zap.Logger) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		Transport: &kafka.Transport{
			ClientID: clientID,
		},
	}

	return &Publisher{
		writer: writer,
		logger: logger,
	}
}

// PublishVersion writes one audit message for a committed version, retrying
// transient failures with exponential backoff until the context expires
func (p *Publisher) PublishVersion(ctx context.Context, tradeID string, entry model.VersionEntry) error {
	event := AuditEvent{
		TradeID:   tradeID,
		Seq:       entry.Seq,
		State:     entry.State,
		Action:    entry.Action,
		UserID:    entry.UserID,
		Role:      entry.Role,
		Timestamp: entry.Timestamp,
		Changes:   entry.Changes,
	}

	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal audit event",
			zap.String("trade_id", tradeID),
			zap.Error(err))
		return err
	}

	msg := kafka.Message{
		Key:   []byte(tradeID),
		Value: value,
		Time:  entry.Timestamp,
	}

	operation := func() error {
		return p.writer.WriteMessages(ctx, msg)
	}

	if err := backoff.Retry(operation, backoff.WithContext(backoff.NewExponentialBackOff(), ctx)); err != nil {
		p.logger.Error("failed to publish audit event",
			zap.String("trade_id", tradeID),
			zap.Int("seq", entry.Seq),
			zap.Error(err))
		return err
	}

	p.logger.Debug("audit event published",
		zap.String("trade_id", tradeID),
		zap.Int("seq", entry.Seq),
		zap.String("action", string(entry.Action)),
	)
	return nil
}

// Close flushes and closes the underlying writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}
