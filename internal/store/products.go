package store

import (
	"context"
	"database/sql"
	"fmt"

	"pricing-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// GetProductsForLocality retrieves active products visible to a locality
// through catalog membership, with variants and that locality's price
// entries joined. When includePromos is set, promotion links are loaded too.
func (s *Store) GetProductsForLocality(ctx context.Context, localityID int64, includePromos bool) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products, `
		SELECT DISTINCT p.* FROM products p
		JOIN catalog_products cp ON cp.product_id = p.id
		JOIN catalog_localities cl ON cl.catalog_id = cp.catalog_id
		WHERE cl.locality_id = $1 AND p.is_active = TRUE
		ORDER BY p.id`, localityID)
	if err != nil {
		return nil, err
	}

	for i := range products {
		if err := s.loadProductDetail(ctx, &products[i], localityID, includePromos); err != nil {
			return nil, err
		}
	}

	return products, nil
}

// GetActiveProducts retrieves every active product without price data.
// Used while the locality is unresolved: browsing stays usable, all prices
// render as "Sin Precio".
func (s *Store) GetActiveProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE is_active = TRUE ORDER BY id")
	if err != nil {
		return nil, err
	}

	for i := range products {
		variants, err := s.getVariants(ctx, products[i].ID, 0)
		if err != nil {
			return nil, err
		}
		products[i].Variants = variants
	}
	return products, nil
}

// GetProductByID retrieves a single product with variants, the locality's
// price entries and, optionally, promotion links.
func (s *Store) GetProductByID(ctx context.Context, id, localityID int64, includePromos bool) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product not found: %d", id)
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadProductDetail(ctx, &product, localityID, includePromos); err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Store) loadProductDetail(ctx context.Context, product *models.Product, localityID int64, includePromos bool) error {
	variants, err := s.getVariants(ctx, product.ID, localityID)
	if err != nil {
		return fmt.Errorf("failed to load variants for product %d: %w", product.ID, err)
	}
	product.Variants = variants

	if includePromos {
		promos, err := s.GetPromotionsForProduct(ctx, product.ID, product.CategoryID)
		if err != nil {
			return fmt.Errorf("failed to load promotions for product %d: %w", product.ID, err)
		}
		product.Promotions = promos
	}
	return nil
}

func (s *Store) getVariants(ctx context.Context, productID, localityID int64) ([]models.Variant, error) {
	var variants []models.Variant
	err := s.db.SelectContext(ctx, &variants,
		"SELECT * FROM variants WHERE product_id = $1 ORDER BY id", productID)
	if err != nil {
		return nil, err
	}

	for i := range variants {
		var entries []models.PriceEntry
		if localityID > 0 {
			err = s.db.SelectContext(ctx, &entries,
				"SELECT * FROM price_entries WHERE variant_id = $1 AND locality_id = $2",
				variants[i].ID, localityID)
		} else {
			err = s.db.SelectContext(ctx, &entries,
				"SELECT * FROM price_entries WHERE variant_id = $1", variants[i].ID)
		}
		if err != nil {
			return nil, err
		}
		variants[i].PriceEntries = entries
	}

	return variants, nil
}

// GetVariantBySKU resolves a variant and its parent product by SKU.
// Used by the combo assembler to resolve external item references.
// A missing SKU is not an error; both results are nil.
func (s *Store) GetVariantBySKU(ctx context.Context, sku string, localityID int64) (*models.Variant, *models.Product, error) {
	var variant models.Variant
	err := s.db.GetContext(ctx, &variant, "SELECT * FROM variants WHERE sku = $1", sku)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var entries []models.PriceEntry
	err = s.db.SelectContext(ctx, &entries,
		"SELECT * FROM price_entries WHERE variant_id = $1 AND locality_id = $2",
		variant.ID, localityID)
	if err != nil {
		return nil, nil, err
	}
	variant.PriceEntries = entries

	product, err := s.GetProductByID(ctx, variant.ProductID, localityID, true)
	if err != nil {
		return nil, nil, err
	}
	return &variant, product, nil
}

// GetPromotionsForProduct retrieves stored promotions whose scope covers the
// product directly or through its category. Time-window filtering happens in
// the evaluator, not here.
func (s *Store) GetPromotionsForProduct(ctx context.Context, productID, categoryID int64) ([]models.Promotion, error) {
	var promotions []models.Promotion
	err := s.db.SelectContext(ctx, &promotions, `
		SELECT DISTINCT pr.* FROM promotions pr
		JOIN promotion_scopes ps ON ps.promotion_id = pr.id
		WHERE ps.product_id = $1 OR ps.category_id = $2
		ORDER BY pr.id`, productID, categoryID)
	if err != nil {
		return nil, err
	}

	for i := range promotions {
		var scopes []models.PromotionScope
		err = s.db.SelectContext(ctx, &scopes,
			"SELECT * FROM promotion_scopes WHERE promotion_id = $1", promotions[i].ID)
		if err != nil {
			return nil, err
		}
		promotions[i].Scopes = scopes
	}

	return promotions, nil
}

// GetProductsByIDs retrieves multiple products by IDs
func (s *Store) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM products WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var products []models.Product
	err = s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}
