package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dms-be/internal/logger"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	CategoryOrderUpdates = "order_updates"
	CategoryDelivery     = "delivery"
)

// Notification is a push request for one user. Token lookup and provider
// delivery belong to the push worker consuming these.
type Notification struct {
	UserID    uuid.UUID         `json:"userId"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	Category  string            `json:"category"`
	CreatedAt time.Time         `json:"createdAt"`
}

type Dispatcher interface {
	Notify(ctx context.Context, n Notification) error
}

// LogDispatcher only logs; used when no broker is configured.
type LogDispatcher struct{}

func (LogDispatcher) Notify(ctx context.Context, n Notification) error {
	logger.FromCtx(ctx).Info("push notification",
		zap.String("user_id", n.UserID.String()),
		zap.String("category", n.Category),
		zap.String("title", n.Title))
	return nil
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaDispatcher hands notifications to the push worker over Kafka, keyed by
// user so one user's pushes stay ordered within a partition.
type KafkaDispatcher struct {
	writer  messageWriter
	timeout time.Duration
	now     func() time.Time
}

func NewKafkaDispatcher(brokers []string, topic string) *KafkaDispatcher {
	return &KafkaDispatcher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           100 * time.Millisecond,
			RequiredAcks:           kafka.RequireOne,
		},
		timeout: 3 * time.Second,
		now:     time.Now,
	}
}

func (d *KafkaDispatcher) Notify(ctx context.Context, n Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = d.now().UTC()
	}
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.writer.WriteMessages(ctx, kafka.Message{Key: []byte(n.UserID.String()), Value: data}); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

func (d *KafkaDispatcher) Close() error {
	return d.writer.Close()
}
