package pricing

import (
	"testing"

	"pricing-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func comboCatalog() CatalogLookup {
	colchon := &models.Product{ID: 1, Name: "Colchón Aurora", CategoryID: 5}
	sommier := &models.Product{ID: 2, Name: "Sommier Base", CategoryID: 5}

	variants := map[string]struct {
		variant *models.Variant
		product *models.Product
	}{
		"COL-AUR-140": {
			variant: &models.Variant{ID: 10, ProductID: 1, SKU: "COL-AUR-140",
				PriceEntries: []models.PriceEntry{{VariantID: 10, LocalityID: 1, Price: 50000}}},
			product: colchon,
		},
		"SOM-BAS-140": {
			variant: &models.Variant{ID: 20, ProductID: 2, SKU: "SOM-BAS-140",
				PriceEntries: []models.PriceEntry{{VariantID: 20, LocalityID: 1, Price: 30000}}},
			product: sommier,
		},
	}

	return func(ref string) (*models.Variant, *models.Product, bool) {
		entry, ok := variants[ref]
		if !ok {
			return nil, nil, false
		}
		return entry.variant, entry.product, true
	}
}

func TestAssembleComboCompletedSum(t *testing.T) {
	def := &models.ComboDefinition{
		ID: 1, IsActive: true,
		Items: []models.ComboItem{
			{ExternalProductRef: "COL-AUR-140", Quantity: 1},
			{ExternalProductRef: "SOM-BAS-140", Quantity: 2},
		},
	}

	result := AssembleCombo(def, 1, comboCatalog(), testNow)

	assert.True(t, result.IsCompleted)
	require.NotNil(t, result.Price)
	assert.Equal(t, int64(50000+2*30000), *result.Price)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "Colchón Aurora", result.Items[0].Name)

	// Idempotent under re-computation with identical inputs.
	again := AssembleCombo(def, 1, comboCatalog(), testNow)
	assert.Equal(t, result, again)
}

func TestAssembleComboOverridePriceWins(t *testing.T) {
	override := int64(99000)
	def := &models.ComboDefinition{
		ID: 1, IsActive: true, OverridePrice: &override,
		Items: []models.ComboItem{
			{ExternalProductRef: "COL-AUR-140", Quantity: 1},
			{ExternalProductRef: "SOM-BAS-140", Quantity: 1},
		},
	}

	result := AssembleCombo(def, 1, comboCatalog(), testNow)

	assert.True(t, result.IsCompleted)
	require.NotNil(t, result.Price)
	assert.Equal(t, override, *result.Price)
}

func TestAssembleComboUnresolvedItem(t *testing.T) {
	name := "Almohada Viscoelástica"
	def := &models.ComboDefinition{
		ID: 1, IsActive: true,
		Items: []models.ComboItem{
			{ExternalProductRef: "COL-AUR-140", Quantity: 1},
			{ExternalProductRef: "SOM-BAS-140", Quantity: 1},
			{ExternalProductRef: "ALM-VIS-001", Quantity: 2, DisplayName: &name},
		},
	}

	result := AssembleCombo(def, 1, comboCatalog(), testNow)

	assert.False(t, result.IsCompleted)
	assert.Nil(t, result.Price)

	// Raw item list survives for the manual card.
	require.Len(t, result.Items, 3)
	assert.False(t, result.Items[2].Resolved)
	assert.Equal(t, "Almohada Viscoelástica", result.Items[2].Name)
	assert.Equal(t, 2, result.Items[2].Quantity)
}

func TestAssembleComboItemPromotionsFlowIntoSum(t *testing.T) {
	colchon := &models.Product{
		ID: 1, Name: "Colchón Aurora", CategoryID: 5,
		Promotions: []models.Promotion{activePromo(1, models.PromotionTypePercentage, 50, 1)},
	}
	variant := &models.Variant{ID: 10, ProductID: 1, SKU: "COL-AUR-140",
		PriceEntries: []models.PriceEntry{{VariantID: 10, LocalityID: 1, Price: 50000}}}

	lookup := func(ref string) (*models.Variant, *models.Product, bool) {
		if ref == "COL-AUR-140" {
			return variant, colchon, true
		}
		return nil, nil, false
	}

	def := &models.ComboDefinition{
		ID: 1, IsActive: true,
		Items: []models.ComboItem{{ExternalProductRef: "COL-AUR-140", Quantity: 2}},
	}

	result := AssembleCombo(def, 1, lookup, testNow)

	assert.True(t, result.IsCompleted)
	require.NotNil(t, result.Price)
	assert.Equal(t, int64(2*25000), *result.Price)
}

func TestAssembleComboResolvedButUnpricedLocality(t *testing.T) {
	def := &models.ComboDefinition{
		ID: 1, IsActive: true,
		Items: []models.ComboItem{{ExternalProductRef: "COL-AUR-140", Quantity: 1}},
	}

	// Locality 99 has no price entries; the combo is completed but unpriced.
	result := AssembleCombo(def, 99, comboCatalog(), testNow)

	assert.True(t, result.IsCompleted)
	assert.Nil(t, result.Price)
}

func TestAssembleComboNilDefinition(t *testing.T) {
	result := AssembleCombo(nil, 1, comboCatalog(), testNow)
	assert.False(t, result.IsCompleted)
	assert.Nil(t, result.Price)
}
