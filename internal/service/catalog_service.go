package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"pricing-service/internal/models"
	"pricing-service/internal/pricing"
	"pricing-service/internal/redisclient"
	"pricing-service/internal/store"
	"pricing-service/internal/util"

	"go.uber.org/zap"
)

// NoPriceDisplay is the storefront rendering of an absent price. Never "$0".
const NoPriceDisplay = "Sin Precio"

// nationalTaxRate is the IVA share included in stored prices; the storefront
// shows the ex-tax figure alongside the full price.
const nationalTaxRate = 0.21

// CatalogService assembles locality-gated product views with computed quotes
type CatalogService struct {
	store    *store.Store
	redis    *redisclient.Client
	quoteTTL time.Duration
	logger   *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store *store.Store, redis *redisclient.Client, quoteTTL time.Duration) *CatalogService {
	return &CatalogService{
		store:    store,
		redis:    redis,
		quoteTTL: quoteTTL,
		logger:   util.GetLogger(),
	}
}

// VariantQuote is the customer-facing price state of one variant.
// CurrentPrice is nil for the "Sin Precio" state.
type VariantQuote struct {
	VariantID     int64  `json:"variant_id"`
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	CurrentPrice  *int64 `json:"current_price,omitempty"`
	PriceNoTaxes  *int64 `json:"price_without_taxes,omitempty"`
	OriginalPrice *int64 `json:"original_price,omitempty"`
	DiscountLabel string `json:"discount_label,omitempty"`
	HasDiscount   bool   `json:"has_discount"`
	AllowsWallet  bool   `json:"allows_wallet"`
	Display       string `json:"display"`
}

// ProductView is a product with its per-variant quotes for one locality
type ProductView struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	CategoryID int64          `json:"category_id"`
	IsActive   bool           `json:"is_active"`
	Variants   []VariantQuote `json:"variants"`
}

// ComboView is an assembled combo for the product detail page
type ComboView struct {
	ComboID     int64               `json:"combo_id"`
	ExternalRef string              `json:"external_ref"`
	Description *string             `json:"description,omitempty"`
	Assembled   pricing.ComboResult `json:"assembled"`
}

// ListProducts returns the products visible to a locality with quotes
// computed at the given quantity. With no resolved locality (localityID 0)
// browsing stays usable and every variant renders as "Sin Precio".
func (cs *CatalogService) ListProducts(ctx context.Context, localityID int64, includePromos bool, quantity int, now time.Time) ([]ProductView, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListProducts")
	defer span.End()

	var products []models.Product
	var err error
	if localityID > 0 {
		products, err = cs.store.GetProductsForLocality(ctx, localityID, includePromos)
	} else {
		products, err = cs.store.GetActiveProducts(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	views := make([]ProductView, 0, len(products))
	for i := range products {
		views = append(views, cs.buildView(ctx, &products[i], localityID, quantity, now))
	}
	return views, nil
}

// GetProduct returns a single product view for a locality
func (cs *CatalogService) GetProduct(ctx context.Context, productID, localityID int64, includePromos bool, quantity int, now time.Time) (*ProductView, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetProduct")
	defer span.End()

	product, err := cs.store.GetProductByID(ctx, productID, localityID, includePromos)
	if err != nil {
		return nil, err
	}

	view := cs.buildView(ctx, product, localityID, quantity, now)
	return &view, nil
}

// GetCombos assembles the combos a product participates in
func (cs *CatalogService) GetCombos(ctx context.Context, productID, localityID int64, now time.Time) ([]ComboView, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetCombos")
	defer span.End()

	combos, err := cs.store.GetCombosForProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load combos: %w", err)
	}

	lookup := func(ref string) (*models.Variant, *models.Product, bool) {
		variant, product, err := cs.store.GetVariantBySKU(ctx, ref, localityID)
		if err != nil {
			cs.logger.Warn("Combo item lookup failed",
				zap.String("ref", ref), zap.Error(err))
			return nil, nil, false
		}
		if variant == nil {
			return nil, nil, false
		}
		return variant, product, true
	}

	views := make([]ComboView, 0, len(combos))
	for i := range combos {
		views = append(views, ComboView{
			ComboID:     combos[i].ID,
			ExternalRef: combos[i].ExternalRef,
			Description: combos[i].Description,
			Assembled:   pricing.AssembleCombo(&combos[i], localityID, lookup, now),
		})
	}
	return views, nil
}

func (cs *CatalogService) buildView(ctx context.Context, product *models.Product, localityID int64, quantity int, now time.Time) ProductView {
	view := ProductView{
		ID:         product.ID,
		Name:       product.Name,
		CategoryID: product.CategoryID,
		IsActive:   product.IsActive,
		Variants:   make([]VariantQuote, 0, len(product.Variants)),
	}

	for i := range product.Variants {
		view.Variants = append(view.Variants,
			cs.variantQuote(ctx, product, &product.Variants[i], localityID, quantity, now))
	}
	return view
}

// variantQuote computes one variant's quote, read-through cached in Redis
// per (locality, variant) at quantity 1. Cache failures fall back to direct
// computation.
func (cs *CatalogService) variantQuote(ctx context.Context, product *models.Product, variant *models.Variant, localityID int64, quantity int, now time.Time) VariantQuote {
	vq := VariantQuote{
		VariantID: variant.ID,
		SKU:       variant.SKU,
		Name:      variant.Name,
		Display:   NoPriceDisplay,
	}

	base := pricing.ResolvePrice(variant, localityID)
	if base == nil {
		return vq
	}

	cacheable := quantity <= 1
	if cacheable {
		var cached VariantQuote
		hit, err := cs.redis.GetQuote(ctx, localityID, variant.ID, &cached)
		if err != nil {
			cs.logger.Warn("Quote cache read failed, computing directly",
				zap.Int64("variant_id", variant.ID), zap.Error(err))
		} else if hit {
			return cached
		}
	}

	quote := pricing.ApplyPromotions(*base, product, quantity, now)
	vq.CurrentPrice = &quote.CurrentPrice
	noTaxes := priceWithoutTaxes(quote.CurrentPrice)
	vq.PriceNoTaxes = &noTaxes
	vq.OriginalPrice = quote.OriginalPrice
	vq.DiscountLabel = quote.DiscountLabel
	vq.HasDiscount = quote.HasDiscount
	vq.AllowsWallet = quote.AllowsWallet
	vq.Display = formatCentavos(quote.CurrentPrice)

	if cacheable {
		if err := cs.redis.SetQuote(ctx, localityID, variant.ID, vq, cs.quoteTTL); err != nil {
			cs.logger.Warn("Quote cache write failed",
				zap.Int64("variant_id", variant.ID), zap.Error(err))
		}
	}
	return vq
}

func formatCentavos(centavos int64) string {
	return fmt.Sprintf("$%d,%02d", centavos/100, centavos%100)
}

func priceWithoutTaxes(centavos int64) int64 {
	return int64(math.Round(float64(centavos) / (1 + nationalTaxRate)))
}
