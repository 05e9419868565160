package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Topic carries all paperwork lifecycle events. Keyed by record ID so a
// single record's events stay ordered within a partition.
const Topic = "paperflow.events"

// Kafka publishes events to a Kafka cluster with asynchronous produces.
type Kafka struct {
	client *kgo.Client
	logger *slog.Logger
}

// NewKafka connects a producer to the given brokers.
func NewKafka(brokers []string, logger *slog.Logger) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(Topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Kafka{client: client, logger: logger}, nil
}

// Emit produces the event asynchronously. Delivery failures are logged by
// the produce callback; callers never block on broker acknowledgement.
func (k *Kafka) Emit(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	record := &kgo.Record{
		Key:   []byte(strconv.FormatInt(event.PaperworkID, 10)),
		Value: payload,
	}
	k.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil {
			k.logger.Warn("event publish failed",
				"error", err,
				"event_type", event.Type,
				"paperwork_id", event.PaperworkID,
			)
		}
	})
	return nil
}

// Close flushes pending produces and releases the client.
func (k *Kafka) Close(ctx context.Context) error {
	if err := k.client.Flush(ctx); err != nil {
		return fmt.Errorf("flush kafka producer: %w", err)
	}
	k.client.Close()
	return nil
}
