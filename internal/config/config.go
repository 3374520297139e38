package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/ksred/klear-recon/internal/reconciliation"
)

type Config struct {
	Port         string `env:"PORT" envDefault:"8080"`
	Env          string `env:"ENV" envDefault:"development"`
	Debug        bool   `env:"DEBUG" envDefault:"false"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"recon.db"`
	JWTSecret    string `env:"JWT_SECRET" envDefault:"klear-secret-key"`
	APIKey       string `env:"API_KEY" envDefault:"test-api-key"`
	APISecret    string `env:"API_SECRET" envDefault:"test-api-secret"`

	BankAPIURL       string        `env:"BANK_API_URL"`
	BankClientID     string        `env:"BANK_CLIENT_ID"`
	BankClientSecret string        `env:"BANK_CLIENT_SECRET"`
	BankRateLimit    float64       `env:"BANK_RATE_LIMIT" envDefault:"5"`
	BankMaxRetries   int           `env:"BANK_MAX_RETRIES" envDefault:"2"`
	BankTimeout      time.Duration `env:"BANK_TIMEOUT" envDefault:"30s"`

	ExtractionURL     string        `env:"EXTRACTION_URL"`
	ExtractionTimeout time.Duration `env:"EXTRACTION_TIMEOUT" envDefault:"2m"`

	KafkaBrokers string `env:"KAFKA_BROKERS"`
	KafkaTopic   string `env:"KAFKA_TOPIC" envDefault:"reconciliations"`

	CacheTTL         time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	ScheduleInterval time.Duration `env:"SCHEDULE_INTERVAL" envDefault:"0s"`

	Thresholds ThresholdConfig
}

// ThresholdConfig sets the service-wide tolerance defaults
type ThresholdConfig struct {
	CashDifferencePercent   float64 `env:"THRESHOLD_CASH_PERCENT"`
	CashDifferenceAbsolute  float64 `env:"THRESHOLD_CASH_ABSOLUTE"`
	PositionQuantityPercent float64 `env:"THRESHOLD_POSITION_QUANTITY_PERCENT"`
	PositionPricePercent    float64 `env:"THRESHOLD_POSITION_PRICE_PERCENT"`
	MinMissingPositionValue float64 `env:"THRESHOLD_MIN_MISSING_VALUE"`
}

// Load reads configuration from the environment, seeding threshold fields
// with the package defaults
func Load() (Config, error) {
	d := reconciliation.DefaultThresholds
	cfg := Config{
		Thresholds: ThresholdConfig{
			CashDifferencePercent:   d.CashDifferencePercent,
			CashDifferenceAbsolute:  d.CashDifferenceAbsolute,
			PositionQuantityPercent: d.PositionQuantityPercent,
			PositionPricePercent:    d.PositionPricePercent,
			MinMissingPositionValue: d.MinMissingPositionValue,
		},
	}
	return cfg, env.Parse(&cfg)
}

func (c Config) Production() bool {
	return c.Env == "production"
}

// Brokers splits KAFKA_BROKERS; an empty result disables publishing
func (c Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if v := strings.TrimSpace(b); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (c Config) ReconciliationThresholds() reconciliation.Thresholds {
	return reconciliation.Thresholds{
		CashDifferencePercent:   c.Thresholds.CashDifferencePercent,
		CashDifferenceAbsolute:  c.Thresholds.CashDifferenceAbsolute,
		PositionQuantityPercent: c.Thresholds.PositionQuantityPercent,
		PositionPricePercent:    c.Thresholds.PositionPricePercent,
		MinMissingPositionValue: c.Thresholds.MinMissingPositionValue,
	}
}
