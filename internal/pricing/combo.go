package pricing

import (
	"time"

	"pricing-service/internal/models"
	"pricing-service/internal/util"
)

// CatalogLookup resolves an external product reference against the catalog.
// The boolean reports whether the reference is known.
type CatalogLookup func(ref string) (*models.Variant, *models.Product, bool)

// ComboItemView is one assembled combo component. UnitPrice is the item's
// resolved, promotion-adjusted price and is only set when the reference
// resolved and the locality has a valid price for it.
type ComboItemView struct {
	Ref       string `json:"ref"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Resolved  bool   `json:"resolved"`
	UnitPrice *int64 `json:"unit_price,omitempty"`
}

// ComboResult is the assembled combo. Price is nil for partial/manual
// bundles; the UI renders those from the raw item list instead.
type ComboResult struct {
	IsCompleted bool            `json:"is_completed"`
	Items       []ComboItemView `json:"items"`
	Price       *int64          `json:"price,omitempty"`
}

// AssembleCombo resolves every combo item against the catalog and computes
// the aggregate price. The combo is completed only when all references
// resolve. An explicit override price on the definition always wins over the
// computed sum; manual pricing intent overrides aggregation.
func AssembleCombo(def *models.ComboDefinition, localityID int64, lookup CatalogLookup, now time.Time) ComboResult {
	result := ComboResult{IsCompleted: true}
	if def == nil {
		return ComboResult{}
	}

	var sum int64
	priceable := true

	for _, item := range def.Items {
		view := ComboItemView{
			Ref:      item.ExternalProductRef,
			Quantity: item.Quantity,
		}
		if item.DisplayName != nil {
			view.Name = *item.DisplayName
		}

		variant, product, ok := lookup(item.ExternalProductRef)
		if !ok {
			result.IsCompleted = false
			result.Items = append(result.Items, view)
			continue
		}

		view.Resolved = true
		if view.Name == "" {
			view.Name = product.Name
		}

		if base := ResolvePrice(variant, localityID); base != nil {
			quote := ApplyPromotions(*base, product, item.Quantity, now)
			unit := quote.CurrentPrice
			view.UnitPrice = &unit
			sum += unit * int64(item.Quantity)
		} else {
			priceable = false
		}

		result.Items = append(result.Items, view)
	}

	if !result.IsCompleted {
		util.CombosIncompleteTotal.Inc()
		return result
	}

	util.CombosAssembledTotal.Inc()

	if def.OverridePrice != nil {
		price := *def.OverridePrice
		result.Price = &price
		return result
	}

	if priceable {
		result.Price = &sum
	}
	return result
}
