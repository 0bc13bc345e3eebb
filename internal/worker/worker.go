package worker

import (
	"context"
	"encoding/json"

	"pricing-service/internal/broker"
	"pricing-service/internal/models"
	"pricing-service/internal/redisclient"
	"pricing-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// LocalityWorker fans locality changes out to price-dependent state: every
// cached quote for the previous view of the session's locality is dropped so
// stale prices are never served after a locality switch.
type LocalityWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewLocalityWorker creates a new locality worker
func NewLocalityWorker(consumer *broker.Consumer, redis *redisclient.Client) *LocalityWorker {
	logger := util.GetLogger()
	eventHandler := broker.NewEventHandler()

	eventHandler.OnLocalityChanged(func(ctx context.Context, event *models.LocalityChangedEvent) error {
		logger.Info("Locality changed, invalidating cached quotes",
			zap.String("session_id", event.SessionID),
			zap.Int64("locality_id", event.LocalityID),
			zap.String("method", event.Method))

		if err := redis.InvalidateLocalityQuotes(ctx, event.LocalityID); err != nil {
			logger.Error("Failed to invalidate locality quotes",
				zap.Int64("locality_id", event.LocalityID),
				zap.Error(err))
			return err
		}
		return nil
	})

	return &LocalityWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       logger,
	}
}

// Start starts the worker
func (w *LocalityWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting locality worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *LocalityWorker) Stop() error {
	w.logger.Info("Stopping locality worker")
	return w.consumer.Close()
}

// ZoneAuditWorker surfaces zone data-quality warnings to the admin audit log
type ZoneAuditWorker struct {
	consumer *broker.Consumer
	logger   *zap.Logger
}

// NewZoneAuditWorker creates a new zone audit worker
func NewZoneAuditWorker(consumer *broker.Consumer) *ZoneAuditWorker {
	return &ZoneAuditWorker{
		consumer: consumer,
		logger:   util.GetLogger(),
	}
}

// Start starts the zone audit worker
func (zw *ZoneAuditWorker) Start(ctx context.Context) error {
	zw.logger.Info("Starting zone audit worker")

	return zw.consumer.StartConsuming(ctx, func(ctx context.Context, msg kafka.Message) error {
		var baseEvent models.BaseEvent
		if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
			zw.logger.Error("Failed to unmarshal event", zap.Error(err))
			return err
		}

		if baseEvent.EventType == models.EventTypeZoneMisconfigured {
			var event models.ZoneMisconfiguredEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				zw.logger.Error("Failed to unmarshal ZoneMisconfigured event", zap.Error(err))
				return err
			}

			zw.logger.Warn("AUDIT: misconfigured zone locality",
				zap.Int64("zone_id", event.ZoneID),
				zap.Int64("locality_id", event.LocalityID),
				zap.Time("detected_at", event.Timestamp))
		}

		return nil
	})
}

// Stop stops the zone audit worker
func (zw *ZoneAuditWorker) Stop() error {
	zw.logger.Info("Stopping zone audit worker")
	return zw.consumer.Close()
}
