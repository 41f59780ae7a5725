package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SergeyBogomolovv/storefront-orders/internal/checkout"
	"github.com/segmentio/kafka-go"
)

const queuedMessage = "Order queued"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSubmitter publishes submissions to the orders topic. Messages are
// keyed by the idempotency key, so retries land on the same partition and
// are deduplicated by the consumer. The ack carries no order id.
type KafkaSubmitter struct {
	writer messageWriter
}

func NewKafkaSubmitter(brokers []string, topic string, batchTimeout time.Duration) *KafkaSubmitter {
	return &KafkaSubmitter{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           batchTimeout,
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
	}
}

func (s *KafkaSubmitter) Submit(ctx context.Context, sub checkout.Submission, idempotencyKey string) (Ack, error) {
	value, err := json.Marshal(sub)
	if err != nil {
		return Ack{}, fmt.Errorf("failed to encode submission: %w", err)
	}

	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(idempotencyKey),
		Value: value,
	})
	if err != nil {
		return Ack{}, &TransportError{Err: err}
	}
	return Ack{Message: queuedMessage}, nil
}

func (s *KafkaSubmitter) Close() error {
	return s.writer.Close()
}
