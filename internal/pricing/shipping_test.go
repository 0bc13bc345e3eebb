package pricing

import (
	"testing"

	"pricing-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveShippingThirdParty(t *testing.T) {
	price := int64(1500)
	zl := &models.ZoneLocality{
		ZoneID: 1, LocalityID: 10,
		IsThirdPartyTransport: true,
		ShippingPrice:         &price,
	}

	quote := ResolveShipping(zl)

	assert.True(t, quote.IsThirdParty)
	require.NotNil(t, quote.ShippingPrice)
	assert.Equal(t, int64(1500), *quote.ShippingPrice)
	assert.False(t, quote.Misconfigured)
}

func TestResolveShippingOwnLogistics(t *testing.T) {
	zl := &models.ZoneLocality{ZoneID: 1, LocalityID: 10}

	quote := ResolveShipping(zl)

	assert.False(t, quote.IsThirdParty)
	assert.Nil(t, quote.ShippingPrice)
	assert.False(t, quote.Misconfigured)
}

func TestResolveShippingMisconfiguredZone(t *testing.T) {
	zl := &models.ZoneLocality{
		ZoneID: 1, LocalityID: 10,
		IsThirdPartyTransport: true,
	}

	quote := ResolveShipping(zl)

	// Never silently free shipping.
	assert.True(t, quote.IsThirdParty)
	assert.True(t, quote.Misconfigured)
	assert.Nil(t, quote.ShippingPrice)
}

func TestResolveShippingNoZoneAssignment(t *testing.T) {
	quote := ResolveShipping(nil)

	assert.False(t, quote.IsThirdParty)
	assert.Nil(t, quote.ShippingPrice)
}
