package pricing

import (
	"fmt"
	"math"
	"time"

	"pricing-service/internal/models"
	"pricing-service/internal/util"
)

// Quote is the result of evaluating promotions against a base price.
// OriginalPrice is set whenever CurrentPrice dropped below the base, so the
// UI can render a struck-through reference price.
type Quote struct {
	CurrentPrice  int64  `json:"current_price"`
	OriginalPrice *int64 `json:"original_price,omitempty"`
	DiscountLabel string `json:"discount_label,omitempty"`
	HasDiscount   bool   `json:"has_discount"`
	AllowsWallet  bool   `json:"allows_wallet"`
}

// ApplyPromotions evaluates the product's promotion links against the base
// price for the requested quantity. Candidates are promotions whose scope
// covers the product or its category and whose window covers now.
//
// When several price-affecting promotions qualify, the one yielding the
// lowest price wins; ties go to the earliest start, then the lowest id.
// Wallet-multiplier promotions never compete on price; they only raise the
// AllowsWallet flag. Bundle promotions delegate to the combo assembler and
// do not discount the standalone product price.
func ApplyPromotions(basePrice int64, product *models.Product, quantity int, now time.Time) Quote {
	quote := Quote{CurrentPrice: basePrice}
	if product == nil || basePrice <= 0 {
		return quote
	}
	if quantity < 1 {
		quantity = 1
	}

	var winner *models.Promotion
	best := basePrice

	for i := range product.Promotions {
		promo := &product.Promotions[i]
		if !promo.ActiveAt(now) || !promo.AppliesTo(product.ID, product.CategoryID) {
			continue
		}

		if promo.Type == models.PromotionTypeWalletMultiplier {
			quote.AllowsWallet = true
			continue
		}

		candidate, ok := promoUnitPrice(basePrice, quantity, promo)
		if !ok {
			continue
		}

		if winner == nil || candidate < best || (candidate == best && beats(promo, winner)) {
			winner = promo
			best = candidate
		}
	}

	if winner == nil {
		return quote
	}

	quote.CurrentPrice = best
	if winner.AllowsWallet {
		quote.AllowsWallet = true
	}
	if best < basePrice {
		original := basePrice
		quote.OriginalPrice = &original
		quote.HasDiscount = true
		quote.DiscountLabel = discountLabel(winner)
	}

	util.PromotionsAppliedTotal.WithLabelValues(winner.Type).Inc()
	return quote
}

// promoUnitPrice computes the effective unit price a promotion yields, or
// reports that the promotion does not affect the price at all.
func promoUnitPrice(basePrice int64, quantity int, promo *models.Promotion) (int64, bool) {
	switch promo.Type {
	case models.PromotionTypePercentage:
		discounted := int64(math.Round(float64(basePrice) * (1 - promo.Value/100)))
		if discounted < 0 {
			discounted = 0
		}
		return discounted, true

	case models.PromotionTypeFixed:
		discounted := basePrice - int64(promo.Value)
		if discounted < 0 {
			discounted = 0
		}
		return discounted, true

	case models.PromotionTypeTwoForOne:
		// One unit of every pair is free. A single unit has nothing to
		// pair with, so no discount applies.
		if quantity < 2 {
			return basePrice, true
		}
		paid := int64((quantity + 1) / 2)
		return divRound(basePrice*paid, int64(quantity)), true

	case models.PromotionTypeBundle:
		return 0, false

	default:
		return 0, false
	}
}

// beats resolves a price tie: earliest start wins, then lowest id.
func beats(a, b *models.Promotion) bool {
	if !a.StartAt.Equal(b.StartAt) {
		return a.StartAt.Before(b.StartAt)
	}
	return a.ID < b.ID
}

func discountLabel(promo *models.Promotion) string {
	switch promo.Type {
	case models.PromotionTypePercentage:
		return fmt.Sprintf("%g%% OFF", promo.Value)
	case models.PromotionTypeTwoForOne:
		return "2x1"
	case models.PromotionTypeFixed:
		return "OFERTA"
	default:
		return "PROMO"
	}
}

// divRound divides two positive integers rounding half up.
func divRound(a, b int64) int64 {
	return (a + b/2) / b
}
