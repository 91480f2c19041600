package kafka

import (
	"socratic/internal/config"

	"github.com/segmentio/kafka-go"
)

// NewWriter creates a Kafka writer for the artifact hand-off topic. The
// writer is constructed once in cmd and injected.
func NewWriter(cfg *config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.ArtifactTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
}
