package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCentavos(t *testing.T) {
	assert.Equal(t, "$100,00", formatCentavos(10000))
	assert.Equal(t, "$80,00", formatCentavos(8000))
	assert.Equal(t, "$66,67", formatCentavos(6667))
	assert.Equal(t, "$0,99", formatCentavos(99))
}

func TestPriceWithoutTaxes(t *testing.T) {
	assert.Equal(t, int64(10000), priceWithoutTaxes(12100))
	assert.Equal(t, int64(826), priceWithoutTaxes(1000))
	assert.Equal(t, int64(0), priceWithoutTaxes(0))
}

func TestListProducts(t *testing.T) {
	// This would require a database-backed store.
	// Covered by the pure engine tests in internal/pricing.
	t.Skip("Integration test - requires database")
}
