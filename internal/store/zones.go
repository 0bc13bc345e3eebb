package store

import (
	"context"
	"database/sql"
	"fmt"

	"pricing-service/internal/models"
)

// GetZones retrieves all delivery zones
func (s *Store) GetZones(ctx context.Context) ([]models.DeliveryZone, error) {
	var zones []models.DeliveryZone
	err := s.db.SelectContext(ctx, &zones, "SELECT * FROM delivery_zones ORDER BY id")
	return zones, err
}

// GetZoneLocalities retrieves the locality assignments of a zone
func (s *Store) GetZoneLocalities(ctx context.Context, zoneID int64) ([]models.ZoneLocality, error) {
	var zls []models.ZoneLocality
	err := s.db.SelectContext(ctx, &zls,
		"SELECT * FROM zone_localities WHERE zone_id = $1 ORDER BY id", zoneID)
	return zls, err
}

// GetZoneLocalityByID retrieves a zone locality record by ID
func (s *Store) GetZoneLocalityByID(ctx context.Context, id int64) (*models.ZoneLocality, error) {
	var zl models.ZoneLocality
	err := s.db.GetContext(ctx, &zl, "SELECT * FROM zone_localities WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("zone locality not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &zl, nil
}

// GetZoneLocalityByLocality retrieves the zone assignment of a locality.
// A locality without a zone assignment is not an error; the result is nil.
func (s *Store) GetZoneLocalityByLocality(ctx context.Context, localityID int64) (*models.ZoneLocality, error) {
	var zl models.ZoneLocality
	err := s.db.GetContext(ctx, &zl,
		"SELECT * FROM zone_localities WHERE locality_id = $1", localityID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &zl, nil
}

// UpdateZoneLocality reconciles a zone locality's shipping override.
// shippingPrice may be nil to clear a stored flat price.
func (s *Store) UpdateZoneLocality(ctx context.Context, id int64, isThirdParty bool, shippingPrice *int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE zone_localities SET is_third_party_transport = $1, shipping_price = $2 WHERE id = $3",
		isThirdParty, shippingPrice, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("zone locality not found: %d", id)
	}
	return nil
}
