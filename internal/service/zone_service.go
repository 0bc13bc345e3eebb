package service

import (
	"context"
	"fmt"
	"time"

	"pricing-service/internal/broker"
	"pricing-service/internal/models"
	"pricing-service/internal/pricing"
	"pricing-service/internal/store"
	"pricing-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ZoneService manages delivery zones and the shipping overlay
type ZoneService struct {
	store          *store.Store
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewZoneService creates a new zone service
func NewZoneService(store *store.Store, eventPublisher *broker.EventPublisher) *ZoneService {
	return &ZoneService{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// ListZones retrieves all delivery zones
func (zs *ZoneService) ListZones(ctx context.Context) ([]models.DeliveryZone, error) {
	return zs.store.GetZones(ctx)
}

// ListZoneLocalities retrieves a zone's locality assignments
func (zs *ZoneService) ListZoneLocalities(ctx context.Context, zoneID int64) ([]models.ZoneLocality, error) {
	return zs.store.GetZoneLocalities(ctx, zoneID)
}

// UpdateZoneLocality reconciles a zone locality's shipping override.
// A shipping price without the third-party flag violates the zone invariant
// and is rejected. Setting the flag without a price is stored but flagged as
// a misconfiguration so admins see the data-quality warning.
func (zs *ZoneService) UpdateZoneLocality(ctx context.Context, id int64, isThirdParty bool, shippingPrice *int64) error {
	ctx, span := util.StartSpan(ctx, "ZoneService.UpdateZoneLocality")
	defer span.End()

	if !isThirdParty && shippingPrice != nil {
		return fmt.Errorf("shipping price is only meaningful with third-party transport")
	}
	if shippingPrice != nil && *shippingPrice <= 0 {
		return fmt.Errorf("shipping price must be positive")
	}

	if err := zs.store.UpdateZoneLocality(ctx, id, isThirdParty, shippingPrice); err != nil {
		return fmt.Errorf("failed to update zone locality: %w", err)
	}

	if isThirdParty && shippingPrice == nil {
		if zl, err := zs.store.GetZoneLocalityByID(ctx, id); err == nil {
			zs.auditMisconfigured(ctx, zl.ZoneID, zl.LocalityID)
		}
	}

	return nil
}

// GetShippingQuote computes the shipping overlay for a locality. A
// misconfigured zone is surfaced on the quote, audited and never rendered
// as free shipping.
func (zs *ZoneService) GetShippingQuote(ctx context.Context, localityID int64) (pricing.ShippingQuote, error) {
	ctx, span := util.StartSpan(ctx, "ZoneService.GetShippingQuote")
	defer span.End()

	zl, err := zs.store.GetZoneLocalityByLocality(ctx, localityID)
	if err != nil {
		return pricing.ShippingQuote{}, fmt.Errorf("failed to load zone assignment: %w", err)
	}

	quote := pricing.ResolveShipping(zl)
	if quote.Misconfigured {
		zs.auditMisconfigured(ctx, zl.ZoneID, zl.LocalityID)
	}
	return quote, nil
}

func (zs *ZoneService) auditMisconfigured(ctx context.Context, zoneID, localityID int64) {
	zs.logger.Warn("Zone locality misconfigured: third-party transport without shipping price",
		zap.Int64("zone_id", zoneID),
		zap.Int64("locality_id", localityID))

	event := &models.ZoneMisconfiguredEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeZoneMisconfigured,
			Timestamp: time.Now(),
		},
		ZoneID:     zoneID,
		LocalityID: localityID,
	}
	if err := zs.eventPublisher.PublishZoneMisconfigured(ctx, event); err != nil {
		zs.logger.Error("Failed to publish ZoneMisconfigured event", zap.Error(err))
	}
}
