package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"pricing-service/internal/models"
	"pricing-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	localityProducer *Producer
	auditProducer    *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(localityProducer, auditProducer *Producer) *EventPublisher {
	return &EventPublisher{
		localityProducer: localityProducer,
		auditProducer:    auditProducer,
	}
}

// PublishLocalityChanged publishes LocalityChanged event
func (ep *EventPublisher) PublishLocalityChanged(ctx context.Context, event *models.LocalityChangedEvent) error {
	key := fmt.Sprintf("session-%s", event.SessionID)
	return ep.localityProducer.PublishEvent(ctx, key, event)
}

// PublishLocalityUnresolved publishes LocalityUnresolved event
func (ep *EventPublisher) PublishLocalityUnresolved(ctx context.Context, event *models.LocalityUnresolvedEvent) error {
	key := fmt.Sprintf("session-%s", event.SessionID)
	return ep.localityProducer.PublishEvent(ctx, key, event)
}

// PublishZoneMisconfigured publishes ZoneMisconfigured event
func (ep *EventPublisher) PublishZoneMisconfigured(ctx context.Context, event *models.ZoneMisconfiguredEvent) error {
	key := fmt.Sprintf("zone-%d", event.ZoneID)
	return ep.auditProducer.PublishEvent(ctx, key, event)
}

// PublishDistributionApplied publishes DistributionApplied event
func (ep *EventPublisher) PublishDistributionApplied(ctx context.Context, event *models.DistributionAppliedEvent) error {
	key := fmt.Sprintf("slot-%d", event.Slot)
	return ep.auditProducer.PublishEvent(ctx, key, event)
}

// PublishDistributionReverted publishes DistributionReverted event
func (ep *EventPublisher) PublishDistributionReverted(ctx context.Context, event *models.DistributionRevertedEvent) error {
	key := fmt.Sprintf("slot-%d", event.Slot)
	return ep.auditProducer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming events to registered handlers
type EventHandler struct {
	onLocalityChanged   func(context.Context, *models.LocalityChangedEvent) error
	onZoneMisconfigured func(context.Context, *models.ZoneMisconfiguredEvent) error
	logger              *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnLocalityChanged registers a handler for LocalityChanged events
func (eh *EventHandler) OnLocalityChanged(handler func(context.Context, *models.LocalityChangedEvent) error) {
	eh.onLocalityChanged = handler
}

// OnZoneMisconfigured registers a handler for ZoneMisconfigured events
func (eh *EventHandler) OnZoneMisconfigured(handler func(context.Context, *models.ZoneMisconfiguredEvent) error) {
	eh.onZoneMisconfigured = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeLocalityChanged:
		if eh.onLocalityChanged != nil {
			var event models.LocalityChangedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal LocalityChanged event: %w", err)
			}
			return eh.onLocalityChanged(ctx, &event)
		}

	case models.EventTypeZoneMisconfigured:
		if eh.onZoneMisconfigured != nil {
			var event models.ZoneMisconfiguredEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ZoneMisconfigured event: %w", err)
			}
			return eh.onZoneMisconfigured(ctx, &event)
		}

	default:
		eh.logger.Debug("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
