package config

import (
	"fmt"
	"time"
)

const (
	PaymentProviderRazorpay = "razorpay"
	PaymentProviderLocal    = "local"
)

type PaymentConfig struct {
	// Provider selects who allocates order IDs. "local" synthesizes them and
	// must be chosen explicitly; there is no fallback from razorpay.
	Provider        string          `yaml:"provider"`
	ProviderTimeout time.Duration   `yaml:"provider_timeout"`
	Razorpay        *RazorpayConfig `yaml:"razorpay"`
	Currency        string          `yaml:"currency"`
	Checkout        *CheckoutConfig `yaml:"checkout"`
}

type RazorpayConfig struct {
	KeyID     string `yaml:"key_id"`
	KeySecret string `yaml:"key_secret"`
	Webhook   string `yaml:"webhook_secret"`
}

type CheckoutConfig struct {
	AppName        string   `yaml:"app_name"`
	ThemeColor     string   `yaml:"theme_color"`
	PaymentMethods []string `yaml:"payment_methods"`
}

func loadPaymentConfig() *PaymentConfig {
	return &PaymentConfig{
		Provider:        getEnv("PAYMENT_PROVIDER", PaymentProviderRazorpay),
		ProviderTimeout: getEnvAsDuration("PAYMENT_PROVIDER_TIMEOUT", 10*time.Second),
		Razorpay: &RazorpayConfig{
			KeyID:     getEnv("RAZORPAY_KEY_ID", ""),
			KeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
			Webhook:   getEnv("RAZORPAY_WEBHOOK_SECRET", ""),
		},
		Currency: getEnv("PAYMENT_CURRENCY", "INR"),
		Checkout: &CheckoutConfig{
			AppName:        getEnv("PAYMENT_CHECKOUT_APP_NAME", "AI Trip Planner"),
			ThemeColor:     getEnv("PAYMENT_CHECKOUT_THEME_COLOR", "#00C9A7"),
			PaymentMethods: getEnvAsSlice("PAYMENT_CHECKOUT_METHODS", []string{"netbanking", "card", "upi", "wallet"}),
		},
	}
}

func (p *PaymentConfig) Validate() error {
	switch p.Provider {
	case PaymentProviderRazorpay:
		if p.Razorpay == nil || p.Razorpay.KeyID == "" || p.Razorpay.KeySecret == "" {
			return fmt.Errorf("payment provider %q requires RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET", p.Provider)
		}
	case PaymentProviderLocal:
		if p.Razorpay == nil || p.Razorpay.KeySecret == "" {
			return fmt.Errorf("payment provider %q still requires RAZORPAY_KEY_SECRET to verify signatures", p.Provider)
		}
	default:
		return fmt.Errorf("unknown payment provider %q", p.Provider)
	}
	if p.ProviderTimeout <= 0 {
		return fmt.Errorf("PAYMENT_PROVIDER_TIMEOUT must be positive")
	}
	return nil
}
