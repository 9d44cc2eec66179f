package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.True(t, cfg.App.IsDev())
	assert.False(t, cfg.App.IsProd())
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, int64(5242880), cfg.Storage.QuotaBytes)
	assert.True(t, cfg.FeatureFlags.AutoMigrate)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadRejectsMalformedPricing(t *testing.T) {
	t.Setenv("TEELAB_PRICING_SHIPPING_FEE", "cheap")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shipping fee")
}

func TestPricingAccessors(t *testing.T) {
	pricing := PricingConfig{
		ShippingFee:        " 6.95 ",
		CreatorUnitEarning: "4.00",
		CreatorShare:       "0.30",
	}

	assert.True(t, pricing.ShippingFeeAmount().Equal(decimal.RequireFromString("6.95")))
	assert.True(t, pricing.CreatorUnitEarningAmount().Equal(decimal.RequireFromString("4.00")))
	assert.True(t, pricing.CreatorShareFraction().Equal(decimal.RequireFromString("0.30")))
}

func TestPricingAccessorsTolerateGarbage(t *testing.T) {
	pricing := PricingConfig{ShippingFee: "free"}
	assert.True(t, pricing.ShippingFeeAmount().IsZero())
}

func TestRedisEnabled(t *testing.T) {
	assert.False(t, RedisConfig{URL: "   "}.Enabled())
	assert.True(t, RedisConfig{URL: "redis://localhost:6379/0"}.Enabled())
}
