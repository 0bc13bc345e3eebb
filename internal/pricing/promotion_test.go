package pricing

import (
	"testing"
	"time"

	"pricing-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func activePromo(id int64, promoType string, value float64, productID int64) models.Promotion {
	pid := productID
	return models.Promotion{
		ID:       id,
		Type:     promoType,
		Value:    value,
		StartAt:  testNow.Add(-24 * time.Hour),
		EndAt:    testNow.Add(24 * time.Hour),
		IsActive: true,
		Scopes:   []models.PromotionScope{{PromotionID: id, ProductID: &pid}},
	}
}

func testProduct(promos ...models.Promotion) *models.Product {
	return &models.Product{ID: 1, CategoryID: 5, IsActive: true, Promotions: promos}
}

func TestApplyPromotionsNoCandidates(t *testing.T) {
	quote := ApplyPromotions(10000, testProduct(), 1, testNow)

	assert.Equal(t, int64(10000), quote.CurrentPrice)
	assert.False(t, quote.HasDiscount)
	assert.Nil(t, quote.OriginalPrice)
	assert.Empty(t, quote.DiscountLabel)
}

func TestApplyPromotionsPercentage(t *testing.T) {
	product := testProduct(activePromo(1, models.PromotionTypePercentage, 20, 1))

	quote := ApplyPromotions(10000, product, 1, testNow)

	assert.Equal(t, int64(8000), quote.CurrentPrice)
	require.NotNil(t, quote.OriginalPrice)
	assert.Equal(t, int64(10000), *quote.OriginalPrice)
	assert.True(t, quote.HasDiscount)
	assert.Equal(t, "20% OFF", quote.DiscountLabel)
}

func TestApplyPromotionsFixedFloorsAtZero(t *testing.T) {
	product := testProduct(activePromo(1, models.PromotionTypeFixed, 15000, 1))

	quote := ApplyPromotions(10000, product, 1, testNow)

	assert.Equal(t, int64(0), quote.CurrentPrice)
	assert.True(t, quote.HasDiscount)
}

func TestApplyPromotionsFixed(t *testing.T) {
	product := testProduct(activePromo(1, models.PromotionTypeFixed, 2500, 1))

	quote := ApplyPromotions(10000, product, 1, testNow)

	assert.Equal(t, int64(7500), quote.CurrentPrice)
	require.NotNil(t, quote.OriginalPrice)
	assert.Equal(t, int64(10000), *quote.OriginalPrice)
}

func TestApplyPromotionsTwoForOne(t *testing.T) {
	product := testProduct(activePromo(1, models.PromotionTypeTwoForOne, 0, 1))

	// Quantity 1: nothing to pair, no discount.
	quote := ApplyPromotions(10000, product, 1, testNow)
	assert.Equal(t, int64(10000), quote.CurrentPrice)
	assert.False(t, quote.HasDiscount)

	// Quantity 2: effective unit price is half.
	quote = ApplyPromotions(10000, product, 2, testNow)
	assert.Equal(t, int64(5000), quote.CurrentPrice)
	assert.True(t, quote.HasDiscount)
	assert.Equal(t, "2x1", quote.DiscountLabel)

	// Quantity 3: two paid units spread over three.
	quote = ApplyPromotions(10000, product, 3, testNow)
	assert.Equal(t, int64(6667), quote.CurrentPrice)
}

func TestApplyPromotionsExpiredWindow(t *testing.T) {
	promo := activePromo(1, models.PromotionTypePercentage, 20, 1)
	promo.EndAt = testNow.Add(-time.Hour)
	product := testProduct(promo)

	quote := ApplyPromotions(10000, product, 1, testNow)

	assert.Equal(t, int64(10000), quote.CurrentPrice)
	assert.False(t, quote.HasDiscount)
}

func TestApplyPromotionsHalfOpenInterval(t *testing.T) {
	promo := activePromo(1, models.PromotionTypePercentage, 20, 1)

	// Active exactly at start_at.
	promo.StartAt = testNow
	product := testProduct(promo)
	assert.True(t, ApplyPromotions(10000, product, 1, testNow).HasDiscount)

	// Inactive exactly at end_at.
	promo.StartAt = testNow.Add(-time.Hour)
	promo.EndAt = testNow
	product = testProduct(promo)
	assert.False(t, ApplyPromotions(10000, product, 1, testNow).HasDiscount)
}

func TestApplyPromotionsInactiveFlag(t *testing.T) {
	promo := activePromo(1, models.PromotionTypePercentage, 20, 1)
	promo.IsActive = false
	product := testProduct(promo)

	assert.False(t, ApplyPromotions(10000, product, 1, testNow).HasDiscount)
}

func TestApplyPromotionsCategoryScope(t *testing.T) {
	categoryID := int64(5)
	promo := models.Promotion{
		ID:       1,
		Type:     models.PromotionTypePercentage,
		Value:    10,
		StartAt:  testNow.Add(-time.Hour),
		EndAt:    testNow.Add(time.Hour),
		IsActive: true,
		Scopes:   []models.PromotionScope{{PromotionID: 1, CategoryID: &categoryID}},
	}
	product := testProduct(promo)

	quote := ApplyPromotions(10000, product, 1, testNow)
	assert.Equal(t, int64(9000), quote.CurrentPrice)
}

func TestApplyPromotionsOtherProductScopeIgnored(t *testing.T) {
	product := testProduct(activePromo(1, models.PromotionTypePercentage, 20, 999))

	assert.False(t, ApplyPromotions(10000, product, 1, testNow).HasDiscount)
}

func TestApplyPromotionsLowestPriceWins(t *testing.T) {
	product := testProduct(
		activePromo(1, models.PromotionTypePercentage, 10, 1),
		activePromo(2, models.PromotionTypeFixed, 3000, 1),
		activePromo(3, models.PromotionTypePercentage, 25, 1),
	)

	quote := ApplyPromotions(10000, product, 1, testNow)

	// 9000, 7000 and 7500 candidates; the fixed promo wins.
	assert.Equal(t, int64(7000), quote.CurrentPrice)
	assert.Equal(t, "OFERTA", quote.DiscountLabel)

	// Chosen price is never above any candidate's price.
	for i := range product.Promotions {
		candidate, ok := promoUnitPrice(10000, 1, &product.Promotions[i])
		require.True(t, ok)
		assert.LessOrEqual(t, quote.CurrentPrice, candidate)
	}
}

func TestApplyPromotionsTieBrokenByEarliestStart(t *testing.T) {
	first := activePromo(1, models.PromotionTypePercentage, 20, 1)
	first.StartAt = testNow.Add(-48 * time.Hour)
	second := activePromo(2, models.PromotionTypeFixed, 2000, 1)
	second.StartAt = testNow.Add(-2 * time.Hour)

	// Both yield 8000; the earlier start wins and sets the label.
	product := testProduct(second, first)
	quote := ApplyPromotions(10000, product, 1, testNow)

	assert.Equal(t, int64(8000), quote.CurrentPrice)
	assert.Equal(t, "20% OFF", quote.DiscountLabel)
}

func TestApplyPromotionsWalletMultiplierIsNotADiscount(t *testing.T) {
	wallet := activePromo(1, models.PromotionTypeWalletMultiplier, 2, 1)
	product := testProduct(wallet)

	quote := ApplyPromotions(10000, product, 1, testNow)

	assert.Equal(t, int64(10000), quote.CurrentPrice)
	assert.False(t, quote.HasDiscount)
	assert.True(t, quote.AllowsWallet)
}

func TestApplyPromotionsWalletOrthogonalToPricePromo(t *testing.T) {
	product := testProduct(
		activePromo(1, models.PromotionTypeWalletMultiplier, 2, 1),
		activePromo(2, models.PromotionTypePercentage, 20, 1),
	)

	quote := ApplyPromotions(10000, product, 1, testNow)

	assert.Equal(t, int64(8000), quote.CurrentPrice)
	assert.True(t, quote.HasDiscount)
	assert.True(t, quote.AllowsWallet)
}

func TestApplyPromotionsBundleDoesNotDiscountStandalone(t *testing.T) {
	product := testProduct(activePromo(1, models.PromotionTypeBundle, 0, 1))

	quote := ApplyPromotions(10000, product, 1, testNow)

	assert.Equal(t, int64(10000), quote.CurrentPrice)
	assert.False(t, quote.HasDiscount)
}
