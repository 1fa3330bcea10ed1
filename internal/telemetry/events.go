package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatbook/internal/models"
	"chatbook/internal/observability"
)

const schemaVersion = 1

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// EventEmitter wraps chat events in an envelope and hands them to a Publisher.
type EventEmitter struct {
	publisher   Publisher
	service     string
	environment string
	log         *zap.Logger
	now         func() time.Time
}

type EventEnvelope struct {
	SchemaVersion int              `json:"schema_version"`
	EventID       string           `json:"event_id"`
	EventType     string           `json:"event_type"`
	OccurredAt    string           `json:"occurred_at"`
	Service       string           `json:"service"`
	Environment   string           `json:"environment"`
	RequestID     string           `json:"request_id,omitempty"`
	Payload       models.ChatEvent `json:"payload"`
}

func NewEventEmitter(publisher Publisher, service, environment string, log *zap.Logger) *EventEmitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &EventEmitter{
		publisher:   publisher,
		service:     service,
		environment: environment,
		log:         log,
		now:         time.Now,
	}
}

// RoutingKey maps an event type to its topic routing key.
func RoutingKey(eventType string) string {
	return "chat_events." + eventType
}

// Emit publishes event. Publish failures are logged and counted only.
func (e *EventEmitter) Emit(ctx context.Context, event models.ChatEvent) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := EventEnvelope{
		SchemaVersion: schemaVersion,
		EventID:       uuid.NewString(),
		EventType:     event.Type,
		OccurredAt:    e.now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     observability.RequestIDFromContext(ctx),
		Payload:       event,
	}

	if err := e.publisher.Publish(ctx, RoutingKey(event.Type), envelope); err != nil {
		observability.IncEventPublishError()
		e.log.Warn("chat event publish failed",
			zap.String("event_type", event.Type),
			zap.String("event_id", envelope.EventID),
			zap.Error(err),
		)
	}
}
