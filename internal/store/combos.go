package store

import (
	"context"

	"pricing-service/internal/models"
)

// GetCombosForProduct retrieves active combo definitions that include the
// given product, with their item lists loaded.
func (s *Store) GetCombosForProduct(ctx context.Context, productID int64) ([]models.ComboDefinition, error) {
	var combos []models.ComboDefinition
	err := s.db.SelectContext(ctx, &combos, `
		SELECT DISTINCT cd.* FROM combo_definitions cd
		JOIN combo_items ci ON ci.combo_id = cd.id
		JOIN variants v ON v.sku = ci.external_product_ref
		WHERE v.product_id = $1 AND cd.is_active = TRUE
		ORDER BY cd.id`, productID)
	if err != nil {
		return nil, err
	}

	for i := range combos {
		items, err := s.GetComboItems(ctx, combos[i].ID)
		if err != nil {
			return nil, err
		}
		combos[i].Items = items
	}

	return combos, nil
}

// GetComboItems retrieves the ordered item list of a combo
func (s *Store) GetComboItems(ctx context.Context, comboID int64) ([]models.ComboItem, error) {
	var items []models.ComboItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM combo_items WHERE combo_id = $1 ORDER BY id", comboID)
	return items, err
}
