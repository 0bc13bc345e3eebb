package models

import "time"

// Locality is a delivery/service area used to scope pricing and logistics.
// Reference data maintained by the back office, read-only here.
type Locality struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Region    *string   `db:"region" json:"region,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Catalog is a named grouping of localities sharing product visibility and pricing.
type Catalog struct {
	ID          int64      `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Description string     `db:"description" json:"description"`
	Localities  []Locality `db:"-" json:"localities,omitempty"`
}

// DeliveryZone groups localities for shipping-cost and carrier assignment.
type DeliveryZone struct {
	ID          int64  `db:"id" json:"id"`
	ExternalRef string `db:"external_ref" json:"external_ref"`
	Name        string `db:"name" json:"name"`
}

// ZoneLocality assigns a locality to a zone. ShippingPrice is only meaningful
// when IsThirdPartyTransport is set; otherwise delivery cost is computed by
// the retailer's own logistics.
type ZoneLocality struct {
	ID                    int64  `db:"id" json:"id"`
	ZoneID                int64  `db:"zone_id" json:"zone_id"`
	LocalityID            int64  `db:"locality_id" json:"locality_id"`
	IsThirdPartyTransport bool   `db:"is_third_party_transport" json:"is_third_party_transport"`
	ShippingPrice         *int64 `db:"shipping_price" json:"shipping_price,omitempty"`
}

// Product is a catalog product with its variants, locality-scoped prices and
// promotion links already joined by the store layer.
type Product struct {
	ID         int64       `db:"id" json:"id"`
	Name       string      `db:"name" json:"name"`
	CategoryID int64       `db:"category_id" json:"category_id"`
	IsActive   bool        `db:"is_active" json:"is_active"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
	Variants   []Variant   `db:"-" json:"variants,omitempty"`
	Promotions []Promotion `db:"-" json:"promotions,omitempty"`
}

// Variant is a purchasable variation of a product (size, fabric, firmness).
type Variant struct {
	ID           int64        `db:"id" json:"id"`
	ProductID    int64        `db:"product_id" json:"product_id"`
	SKU          string       `db:"sku" json:"sku"`
	Name         string       `db:"name" json:"name"`
	PriceEntries []PriceEntry `db:"-" json:"price_entries,omitempty"`
}

// PriceEntry is the price of a variant in one locality, in centavos.
// At most one entry exists per (variant, locality); absence means "no price".
type PriceEntry struct {
	ID         int64 `db:"id" json:"id"`
	VariantID  int64 `db:"variant_id" json:"variant_id"`
	LocalityID int64 `db:"locality_id" json:"locality_id"`
	Price      int64 `db:"price" json:"price"`
}

// Promotion types
const (
	PromotionTypePercentage       = "percentage"
	PromotionTypeFixed            = "fixed"
	PromotionTypeTwoForOne        = "2x1"
	PromotionTypeBundle           = "bundle"
	PromotionTypeWalletMultiplier = "wallet_multiplier"
)

// Promotion is a time-bounded discount rule. It is currently active iff
// IsActive and now falls within [StartAt, EndAt).
type Promotion struct {
	ID           int64            `db:"id" json:"id"`
	Type         string           `db:"type" json:"type"`
	Value        float64          `db:"value" json:"value"`
	ExtraConfig  *string          `db:"extra_config" json:"extra_config,omitempty"`
	StartAt      time.Time        `db:"start_at" json:"start_at"`
	EndAt        time.Time        `db:"end_at" json:"end_at"`
	IsActive     bool             `db:"is_active" json:"is_active"`
	AllowsWallet bool             `db:"allows_wallet" json:"allows_wallet"`
	Scopes       []PromotionScope `db:"-" json:"scopes,omitempty"`
}

// PromotionScope targets a promotion at a specific product or a whole
// category. Exactly one of ProductID / CategoryID is set.
type PromotionScope struct {
	ID          int64  `db:"id" json:"id"`
	PromotionID int64  `db:"promotion_id" json:"promotion_id"`
	ProductID   *int64 `db:"product_id" json:"product_id,omitempty"`
	CategoryID  *int64 `db:"category_id" json:"category_id,omitempty"`
}

// ActiveAt reports whether the promotion window covers t.
func (p *Promotion) ActiveAt(t time.Time) bool {
	return p.IsActive && !t.Before(p.StartAt) && t.Before(p.EndAt)
}

// AppliesTo reports whether any scope covers the given product, either
// directly or through its category.
func (p *Promotion) AppliesTo(productID, categoryID int64) bool {
	for _, s := range p.Scopes {
		if s.ProductID != nil && *s.ProductID == productID {
			return true
		}
		if s.CategoryID != nil && *s.CategoryID == categoryID {
			return true
		}
	}
	return false
}

// ComboDefinition is a bundle of referenced products sold as one unit.
// It is "completed" only when every item resolves to a catalog product.
type ComboDefinition struct {
	ID            int64       `db:"id" json:"id"`
	ExternalRef   string      `db:"external_ref" json:"external_ref"`
	Description   *string     `db:"description" json:"description,omitempty"`
	OverridePrice *int64      `db:"override_price" json:"override_price,omitempty"`
	IsActive      bool        `db:"is_active" json:"is_active"`
	Items         []ComboItem `db:"-" json:"items,omitempty"`
}

// ComboItem references one component of a combo by external product ref.
type ComboItem struct {
	ID                 int64   `db:"id" json:"id"`
	ComboID            int64   `db:"combo_id" json:"combo_id"`
	ExternalProductRef string  `db:"external_product_ref" json:"external_product_ref"`
	Quantity           int     `db:"quantity" json:"quantity"`
	DisplayName        *string `db:"display_name" json:"display_name,omitempty"`
}

// CustomerAddress is a saved delivery address. IP classification can map a
// shared range to several of these, which triggers disambiguation.
type CustomerAddress struct {
	ID         int64  `db:"id" json:"id"`
	CustomerID int64  `db:"customer_id" json:"customer_id"`
	Label      string `db:"label" json:"label"`
	Street     string `db:"street" json:"street"`
	LocalityID int64  `db:"locality_id" json:"locality_id"`
}

// DistributionSlot is a homepage placement edited by admins with the
// optimistic apply-then-reconcile discipline.
type DistributionSlot struct {
	Slot      int       `db:"slot" json:"slot"`
	ProductID int64     `db:"product_id" json:"product_id"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
