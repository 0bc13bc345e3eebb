package pricing

import (
	"testing"

	"pricing-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePriceExactMatch(t *testing.T) {
	variant := &models.Variant{
		ID: 1,
		PriceEntries: []models.PriceEntry{
			{VariantID: 1, LocalityID: 10, Price: 10000},
			{VariantID: 1, LocalityID: 20, Price: 12500},
		},
	}

	price := ResolvePrice(variant, 10)
	require.NotNil(t, price)
	assert.Equal(t, int64(10000), *price)

	price = ResolvePrice(variant, 20)
	require.NotNil(t, price)
	assert.Equal(t, int64(12500), *price)
}

func TestResolvePriceNoEntryForLocality(t *testing.T) {
	variant := &models.Variant{
		ID: 1,
		PriceEntries: []models.PriceEntry{
			{VariantID: 1, LocalityID: 10, Price: 10000},
		},
	}

	assert.Nil(t, ResolvePrice(variant, 99))
}

func TestResolvePriceNoLocality(t *testing.T) {
	variant := &models.Variant{
		ID: 1,
		PriceEntries: []models.PriceEntry{
			{VariantID: 1, LocalityID: 10, Price: 10000},
		},
	}

	// No resolved locality must never fall through to an arbitrary entry.
	assert.Nil(t, ResolvePrice(variant, 0))
	assert.Nil(t, ResolvePrice(variant, -1))
}

func TestResolvePriceInvalidStoredPrice(t *testing.T) {
	variant := &models.Variant{
		ID: 1,
		PriceEntries: []models.PriceEntry{
			{VariantID: 1, LocalityID: 10, Price: 0},
			{VariantID: 2, LocalityID: 20, Price: -500},
		},
	}

	assert.Nil(t, ResolvePrice(variant, 10))
	assert.Nil(t, ResolvePrice(variant, 20))
}

func TestResolvePriceNilVariant(t *testing.T) {
	assert.Nil(t, ResolvePrice(nil, 10))
}
