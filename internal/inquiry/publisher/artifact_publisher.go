package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"socratic/internal/models"
	"socratic/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// ArtifactPublisher hands completed-session artifacts off to the downstream
// artifact-generation collaborator.
type ArtifactPublisher interface {
	Publish(ctx context.Context, artifact *models.SessionArtifact) error
}

// KafkaPublisher publishes artifacts to a Kafka topic, keyed by session id so
// artifacts of one session land on one partition in order.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    *logger.Logger
}

// NewKafkaPublisher creates a KafkaPublisher over an injected writer.
func NewKafkaPublisher(writer *kafka.Writer, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, log: log}
}

// Publish sends one artifact.
func (p *KafkaPublisher) Publish(ctx context.Context, artifact *models.SessionArtifact) error {
	payload, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("encode artifact %s: %w", artifact.SessionID, err)
	}
	msg := kafka.Message{
		Key:   []byte(artifact.SessionID),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish artifact %s: %w", artifact.SessionID, err)
	}
	p.log.WithSession(artifact.SessionID).Info("session artifact published")
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoPublisher drops artifacts, for deployments without a downstream consumer.
type NoPublisher struct{}

// Publish does nothing.
func (NoPublisher) Publish(context.Context, *models.SessionArtifact) error { return nil }
