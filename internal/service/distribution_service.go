package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pricing-service/internal/broker"
	"pricing-service/internal/models"
	"pricing-service/internal/redisclient"
	"pricing-service/internal/store"
	"pricing-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DistributionService manages homepage slot assignments with the optimistic
// two-phase discipline: apply the local projection, issue the remote
// command, and on failure discard the projection and refetch authoritative
// state. Concurrent admin edits resolve as last write wins.
type DistributionService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger

	mu         sync.RWMutex
	projection map[int]int64
}

// NewDistributionService creates a new distribution service
func NewDistributionService(store *store.Store, redis *redisclient.Client, eventPublisher *broker.EventPublisher) *DistributionService {
	return &DistributionService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// SlotView is a homepage slot with its product hydrated for display
type SlotView struct {
	Slot        int    `json:"slot"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
}

// Slots returns the current slot view, loading authoritative state on first use
func (ds *DistributionService) Slots(ctx context.Context) ([]SlotView, error) {
	ds.mu.RLock()
	loaded := ds.projection != nil
	ds.mu.RUnlock()

	if !loaded {
		if err := ds.refetch(ctx); err != nil {
			return nil, err
		}
	}

	ds.mu.RLock()
	views := make([]SlotView, 0, len(ds.projection))
	ids := make([]int64, 0, len(ds.projection))
	for slot, productID := range ds.projection {
		views = append(views, SlotView{Slot: slot, ProductID: productID})
		ids = append(ids, productID)
	}
	ds.mu.RUnlock()

	products, err := ds.store.GetProductsByIDs(ctx, ids)
	if err != nil {
		ds.logger.Warn("Failed to hydrate slot products", zap.Error(err))
		return views, nil
	}
	names := make(map[int64]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	for i := range views {
		views[i].ProductName = names[views[i].ProductID]
	}
	return views, nil
}

// AssignSlot assigns a product to a homepage slot. The local view is updated
// first; a failed persist discards it and reconciles from the store.
func (ds *DistributionService) AssignSlot(ctx context.Context, slot int, productID int64) error {
	ctx, span := util.StartSpan(ctx, "DistributionService.AssignSlot")
	defer span.End()

	ds.mu.RLock()
	loaded := ds.projection != nil
	ds.mu.RUnlock()
	if !loaded {
		if err := ds.refetch(ctx); err != nil {
			return err
		}
	}

	// Phase 1: stash prior state and apply the local projection.
	prior, err := ds.snapshot()
	if err == nil {
		if err := ds.redis.StashDistributionSnapshot(ctx, prior, time.Hour); err != nil {
			ds.logger.Warn("Failed to stash distribution snapshot", zap.Error(err))
		}
	}

	ds.mu.Lock()
	ds.projection[slot] = productID
	ds.mu.Unlock()

	// Phase 2: issue the remote command.
	if err := ds.store.UpsertDistributionSlot(ctx, slot, productID); err != nil {
		// Phase 3: discard the projection and refetch authoritative state.
		ds.logger.Error("Slot persist failed, reverting local projection",
			zap.Int("slot", slot),
			zap.Error(err))
		util.DistributionRevertsTotal.Inc()

		if refetchErr := ds.refetch(ctx); refetchErr != nil {
			ds.logger.Error("Failed to refetch authoritative slots, restoring stashed snapshot",
				zap.Error(refetchErr))
			ds.restoreSnapshot(ctx)
		}

		event := &models.DistributionRevertedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeDistributionReverted,
				Timestamp: time.Now(),
			},
			Slot:   slot,
			Reason: err.Error(),
		}
		if pubErr := ds.eventPublisher.PublishDistributionReverted(ctx, event); pubErr != nil {
			ds.logger.Error("Failed to publish DistributionReverted event", zap.Error(pubErr))
		}

		return fmt.Errorf("failed to persist slot assignment: %w", err)
	}

	event := &models.DistributionAppliedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeDistributionApplied,
			Timestamp: time.Now(),
		},
		Slot:      slot,
		ProductID: productID,
	}
	if err := ds.eventPublisher.PublishDistributionApplied(ctx, event); err != nil {
		ds.logger.Error("Failed to publish DistributionApplied event", zap.Error(err))
	}

	return nil
}

func (ds *DistributionService) snapshot() ([]models.DistributionSlot, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	if ds.projection == nil {
		return nil, fmt.Errorf("projection not loaded")
	}
	slots := make([]models.DistributionSlot, 0, len(ds.projection))
	for slot, productID := range ds.projection {
		slots = append(slots, models.DistributionSlot{Slot: slot, ProductID: productID})
	}
	return slots, nil
}

// restoreSnapshot falls back to the stashed pre-edit state when the
// authoritative store cannot be reached after a failed persist.
func (ds *DistributionService) restoreSnapshot(ctx context.Context) {
	slots, err := ds.redis.PopDistributionSnapshot(ctx)
	if err != nil || slots == nil {
		ds.logger.Warn("No stashed snapshot to restore", zap.Error(err))
		return
	}

	projection := make(map[int]int64, len(slots))
	for _, s := range slots {
		projection[s.Slot] = s.ProductID
	}

	ds.mu.Lock()
	ds.projection = projection
	ds.mu.Unlock()
}

func (ds *DistributionService) refetch(ctx context.Context) error {
	slots, err := ds.store.GetDistributionSlots(ctx)
	if err != nil {
		return fmt.Errorf("failed to load distribution slots: %w", err)
	}

	projection := make(map[int]int64, len(slots))
	for _, s := range slots {
		projection[s.Slot] = s.ProductID
	}

	ds.mu.Lock()
	ds.projection = projection
	ds.mu.Unlock()
	return nil
}
