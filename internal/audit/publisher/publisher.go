// Package publisher mirrors committed audit entries onto a Kafka topic for
// downstream consumers (SIEM, compliance archives). Delivery is asynchronous
// and best-effort; the store write remains the copy of record.
package publisher

import (
	"encoding/json"
	"fmt"

	"estatecore/internal/audit"
	"estatecore/internal/platform/kafka/producer"
)

// KafkaPublisher emits audit entries to a topic, keyed by tenant so per-tenant
// ordering is preserved within a partition.
type KafkaPublisher struct {
	producer *producer.Producer
	topic    string
}

func NewKafka(prod *producer.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: prod, topic: topic}
}

// Publish enqueues one entry for background delivery.
func (p *KafkaPublisher) Publish(entry *audit.Entry) error {
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	return p.producer.ProduceAsync(&producer.Message{
		Topic: p.topic,
		Key:   []byte(entry.TenantID.String()),
		Value: value,
	})
}
