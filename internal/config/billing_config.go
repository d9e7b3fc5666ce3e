package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// BillingConfig carries the Stripe billing settings loaded from
// billing_config.toml. Secrets set via environment variables take
// precedence over values in the file.
type BillingConfig struct {
	Stripe  StripeConfig  `toml:"stripe"`
	Plan    PlanConfig    `toml:"plan"`
	Queuing QueuingConfig `toml:"queuing"`
	Sweeps  SweepConfig   `toml:"sweeps"`
}

type StripeConfig struct {
	APIKey        string `toml:"api_key"`
	WebhookSecret string `toml:"webhook_secret"`
	APIBaseURL    string `toml:"api_base_url"`
}

type PlanConfig struct {
	Name     string  `toml:"name"`
	Amount   float64 `toml:"amount"`
	Currency string  `toml:"currency"`
}

type QueuingConfig struct {
	RedisAddr     string         `toml:"redis_addr"`
	Concurrency   int            `toml:"concurrency"`
	Queues        map[string]int `toml:"queues"`
	RetryMax      int            `toml:"retry_max"`
	EventDedupTTL duration       `toml:"event_dedup_ttl"`
}

type SweepConfig struct {
	SubscriptionInterval duration `toml:"subscription_interval"`
	StaleLoadInterval    duration `toml:"stale_load_interval"`
	StaleLoadThreshold   duration `toml:"stale_load_threshold"`
}

// duration lets TOML values like "6h" decode straight into time.Duration.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func LoadBillingConfig(path string) (*BillingConfig, error) {
	cfg := defaultBillingConfig()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode billing config %s: %w", path, err)
		}
	}
	if v := os.Getenv("STRIPE_API_KEY"); v != "" {
		cfg.Stripe.APIKey = v
	}
	if v := os.Getenv("STRIPE_WEBHOOK_SECRET"); v != "" {
		cfg.Stripe.WebhookSecret = v
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultBillingConfig() *BillingConfig {
	return &BillingConfig{
		Stripe: StripeConfig{
			APIBaseURL: "https://api.stripe.com/v1",
		},
		Plan: PlanConfig{
			Name:     "standard",
			Amount:   99.00,
			Currency: "USD",
		},
		Queuing: QueuingConfig{
			RedisAddr:   "localhost:6379",
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			RetryMax:      5,
			EventDedupTTL: duration{24 * time.Hour},
		},
		Sweeps: SweepConfig{
			SubscriptionInterval: duration{6 * time.Hour},
			StaleLoadInterval:    duration{30 * time.Minute},
			StaleLoadThreshold:   duration{12 * time.Hour},
		},
	}
}

func (c *BillingConfig) validate() error {
	if c.Queuing.Concurrency <= 0 {
		return fmt.Errorf("queuing concurrency must be positive, got %d", c.Queuing.Concurrency)
	}
	if c.Plan.Amount < 0 {
		return fmt.Errorf("plan amount cannot be negative")
	}
	if c.Sweeps.StaleLoadThreshold.Duration <= 0 {
		return fmt.Errorf("stale load threshold must be positive")
	}
	return nil
}
