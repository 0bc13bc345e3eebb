package store

import (
	"context"

	"pricing-service/internal/models"
)

// GetDistributionSlots retrieves the authoritative homepage slot assignments
func (s *Store) GetDistributionSlots(ctx context.Context) ([]models.DistributionSlot, error) {
	var slots []models.DistributionSlot
	err := s.db.SelectContext(ctx, &slots,
		"SELECT * FROM distribution_slots ORDER BY slot")
	return slots, err
}

// UpsertDistributionSlot assigns a product to a homepage slot.
// Concurrent admin edits resolve as last write wins.
func (s *Store) UpsertDistributionSlot(ctx context.Context, slot int, productID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO distribution_slots (slot, product_id, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (slot) DO UPDATE SET product_id = $2, updated_at = NOW()`,
		slot, productID)
	return err
}
