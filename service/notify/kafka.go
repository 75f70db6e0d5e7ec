package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/brojonat/burnwatch/service/burn"
	natspkg "github.com/brojonat/burnwatch/service/nats"
	"github.com/bytedance/sonic"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the sink uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink writes burn events keyed by signature.
type KafkaSink struct {
	writer MessageWriter
}

// NewKafkaSink creates a synchronous writer for topic. Hashing on the
// signature keeps redeliveries of one burn on one partition.
func NewKafkaSink(brokers []string, topic string, writeTimeout time.Duration) *KafkaSink {
	return NewKafkaSinkWithWriter(newKafkaWriter(brokers, topic, writeTimeout))
}

// newKafkaWriter makes a single attempt per message; a failed write is
// reported to the dispatcher and not retried.
func newKafkaWriter(brokers []string, topic string, writeTimeout time.Duration) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		MaxAttempts:            1,
		BatchSize:              1,
		WriteTimeout:           writeTimeout,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaSinkWithWriter(w MessageWriter) *KafkaSink {
	return &KafkaSink{writer: w}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Send(ctx context.Context, ev *burn.Event) error {
	value, err := sonic.Marshal(natspkg.FromEvent(ev))
	if err != nil {
		return fmt.Errorf("kafka: marshal burn event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.Signature),
		Value: value,
		Headers: []kafka.Header{
			{Key: "program_id", Value: []byte(ev.ProgramID)},
		},
		Time: ev.Timestamp,
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
