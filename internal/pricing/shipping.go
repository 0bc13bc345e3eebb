package pricing

import (
	"pricing-service/internal/models"
	"pricing-service/internal/util"
)

// ShippingQuote is the zone shipping overlay for a locality. It is computed
// independently of product price and added on top of it.
//
// A quote with IsThirdParty unset carries no price: delivery cost is computed
// by the retailer's own logistics. Misconfigured marks the data-integrity
// case of a third-party zone without a stored flat price; it must never be
// read as free shipping.
type ShippingQuote struct {
	IsThirdParty  bool   `json:"is_third_party"`
	ShippingPrice *int64 `json:"shipping_price,omitempty"`
	Misconfigured bool   `json:"misconfigured,omitempty"`
}

// ResolveShipping computes the shipping overlay for a zone locality.
// A nil zone locality (locality not assigned to any zone) yields the
// own-logistics quote.
func ResolveShipping(zl *models.ZoneLocality) ShippingQuote {
	if zl == nil || !zl.IsThirdPartyTransport {
		return ShippingQuote{}
	}

	if zl.ShippingPrice == nil {
		util.ZonesMisconfiguredTotal.Inc()
		return ShippingQuote{IsThirdParty: true, Misconfigured: true}
	}

	price := *zl.ShippingPrice
	return ShippingQuote{IsThirdParty: true, ShippingPrice: &price}
}
