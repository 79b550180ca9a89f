package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink mirrors updates to a Kafka topic, keyed by category/building so
// each pair stays ordered within its partition.
type KafkaSink struct {
	w messageWriter
}

// NewKafkaSink creates an asynchronous writer; delivery errors are logged
// from the writer's completion callback.
func NewKafkaSink(brokers []string, topic string, logger *slog.Logger) *KafkaSink {
	if logger == nil {
		logger = slog.Default()
	}
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
		Async:    true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				logger.Error("kafka write failed", "topic", topic, "messages", len(msgs), "err", err)
			}
		},
	}
	return &KafkaSink{w: w}
}

func (k *KafkaSink) Name() string { return "kafka" }

func (k *KafkaSink) Publish(ctx context.Context, u Update) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return k.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(string(u.Category) + "/" + string(u.Data.Building)),
		Value: b,
		Time:  time.UnixMilli(u.Data.TS),
	})
}

// Close flushes pending messages.
func (k *KafkaSink) Close() error {
	return k.w.Close()
}
