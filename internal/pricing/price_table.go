package pricing

import (
	"pricing-service/internal/models"
	"pricing-service/internal/util"
)

// ResolvePrice selects the price entry scoped to the given locality from the
// variant's price table. The result is nil for "no price": unknown locality,
// no matching entry, or an entry with a non-positive stored price (upstream
// data error). Callers render the nil state as "Sin Precio", never as zero.
func ResolvePrice(variant *models.Variant, localityID int64) *int64 {
	if variant == nil || localityID <= 0 {
		util.PricesMissingTotal.Inc()
		return nil
	}

	for _, entry := range variant.PriceEntries {
		if entry.LocalityID != localityID {
			continue
		}
		if entry.Price <= 0 {
			util.PricesMissingTotal.Inc()
			return nil
		}
		price := entry.Price
		util.PricesResolvedTotal.Inc()
		return &price
	}

	util.PricesMissingTotal.Inc()
	return nil
}
