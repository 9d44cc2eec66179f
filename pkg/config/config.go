package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// EnvPrefix scopes every storefront environment variable.
const EnvPrefix = "TEELAB"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Storage      StorageConfig
	Pricing      PricingConfig
	JWT          JWTConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TEELAB_APP_ENV" default:"dev"`
	Port         string `envconfig:"TEELAB_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"TEELAB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TEELAB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	Path string `envconfig:"TEELAB_DB_PATH" default:"storefront.db"`
}

// StorageConfig bounds the persisted collections the way browser storage
// quotas bound the original single-device store.
type StorageConfig struct {
	QuotaBytes      int64 `envconfig:"TEELAB_STORAGE_QUOTA_BYTES" default:"5242880"`
	PreviewMaxBytes int   `envconfig:"TEELAB_STORAGE_PREVIEW_MAX_BYTES" default:"262144"`
}

type PricingConfig struct {
	ShippingFee        string `envconfig:"TEELAB_PRICING_SHIPPING_FEE" default:"6.95"`
	CreatorUnitEarning string `envconfig:"TEELAB_PRICING_CREATOR_UNIT_EARNING" default:"4.00"`
	CreatorShare       string `envconfig:"TEELAB_PRICING_CREATOR_SHARE" default:"0.30"`
}

func (p PricingConfig) validate() error {
	for name, raw := range map[string]string{
		"shipping fee":         p.ShippingFee,
		"creator unit earning": p.CreatorUnitEarning,
		"creator share":        p.CreatorShare,
	} {
		if _, err := decimal.NewFromString(strings.TrimSpace(raw)); err != nil {
			return fmt.Errorf("parsing %s %q: %w", name, raw, err)
		}
	}
	return nil
}

// ShippingFeeAmount returns the flat shipping fee as a decimal.
func (p PricingConfig) ShippingFeeAmount() decimal.Decimal {
	return mustDecimal(p.ShippingFee)
}

// CreatorUnitEarningAmount returns the fixed per-unit creator earning.
func (p PricingConfig) CreatorUnitEarningAmount() decimal.Decimal {
	return mustDecimal(p.CreatorUnitEarning)
}

// CreatorShareFraction returns the revenue fraction credited to creators.
func (p PricingConfig) CreatorShareFraction() decimal.Decimal {
	return mustDecimal(p.CreatorShare)
}

func mustDecimal(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return d
}

type JWTConfig struct {
	Secret            string `envconfig:"TEELAB_JWT_SECRET" default:"dev-only-secret"`
	Issuer            string `envconfig:"TEELAB_JWT_ISSUER" default:"teelab-storefront"`
	ExpirationMinutes int    `envconfig:"TEELAB_JWT_EXPIRATION_MINUTES" default:"720"`
}

// RedisConfig drives the optional cross-process event bridge.
type RedisConfig struct {
	URL     string `envconfig:"TEELAB_REDIS_URL"`
	Channel string `envconfig:"TEELAB_REDIS_EVENT_CHANNEL" default:"teelab:events"`
}

// Enabled reports whether the event bridge should be wired.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TEELAB_AUTO_MIGRATE" default:"true"`
}
