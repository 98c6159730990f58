// Package messaging publishes pipeline stage events to a RabbitMQ fanout
// exchange. The surrounding application consumes them for dashboards and
// notifications; the pipeline itself never depends on a consumer existing.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// Event types published on the pipeline exchange.
const (
	EventPromptsPlanned  = "prompts.planned"
	EventAssetGenerated  = "asset.generated"
	EventAssetFailed     = "asset.failed"
	EventAssetReviewed   = "asset.reviewed"
	EventRenderSubmitted = "render.submitted"
	EventRenderCompleted = "render.completed"
	EventRenderFailed    = "render.failed"
	EventVideoEnqueued   = "moderation.enqueued"
	EventVideoModerated  = "moderation.resolved"
)

// PipelineEvent is the envelope published for every stage transition.
type PipelineEvent struct {
	Type      string    `json:"type"`
	ProjectID string    `json:"projectId,omitempty"`
	SlotKey   string    `json:"slotKey,omitempty"`
	JobID     string    `json:"jobId,omitempty"`
	EntityID  string    `json:"entityId,omitempty"`
	Decision  string    `json:"decision,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventPublisher publishes pipeline events.
type EventPublisher interface {
	Publish(ctx context.Context, event PipelineEvent) error
	Close() error
}

// RabbitMQEventPublisher implements EventPublisher over a fanout exchange.
type RabbitMQEventPublisher struct {
	conn     *amqp091.Connection
	ch       *amqp091.Channel
	exchange string
}

// NewRabbitMQEventPublisher declares the exchange and returns a publisher.
// The connection is assumed stable; reconnect handling belongs to the caller.
func NewRabbitMQEventPublisher(conn *amqp091.Connection, exchange string) (*RabbitMQEventPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open a channel")
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		_ = ch.Close()
		log.Error().Err(err).Str("exchange", exchange).Msg("Failed to declare exchange")
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", exchange, err)
	}

	log.Info().Str("exchange", exchange).Msg("Pipeline event exchange declared")
	return &RabbitMQEventPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish sends one event. Failures are logged and returned but callers treat
// publishing as best-effort: a lost event never rolls back a stage transition.
func (p *RabbitMQEventPublisher) Publish(ctx context.Context, event PipelineEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("type", event.Type).Msg("Failed to marshal pipeline event")
		return fmt.Errorf("failed to marshal pipeline event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		p.exchange, // exchange
		"",         // routing key (unused for fanout)
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
	if err != nil {
		log.Error().Err(err).Str("type", event.Type).Msg("Failed to publish pipeline event")
		return fmt.Errorf("failed to publish pipeline event: %w", err)
	}
	log.Debug().Str("type", event.Type).Str("project_id", event.ProjectID).Msg("Pipeline event published")
	return nil
}

// Close closes the publisher channel (not the shared connection).
func (p *RabbitMQEventPublisher) Close() error {
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}

var _ EventPublisher = (*RabbitMQEventPublisher)(nil)
