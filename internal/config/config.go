// Package config содержит логику чтения конфигурации сервиса подарочных карт.
package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса подарочных карт.
type Config struct {
	RunAddress            string `env:"RUN_ADDRESS"`
	DatabaseURI           string `env:"DATABASE_URI"`
	PaymentGatewayAddress string `env:"PAYMENT_GATEWAY_ADDRESS"`
	OperatorSecret        string `env:"OPERATOR_SECRET"`
	NonCashTolerance      int64  `env:"NONCASH_OVERPAY_TOLERANCE"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envGatewayAddress := cfg.PaymentGatewayAddress
	envOperatorSecret := cfg.OperatorSecret
	envTolerance := cfg.NonCashTolerance
	_, envToleranceSet := os.LookupEnv("NONCASH_OVERPAY_TOLERANCE")

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.PaymentGatewayAddress, "r", "", "card charge gateway address")
	flag.StringVar(&cfg.OperatorSecret, "s", "giftcard-secret", "operator token signing secret")
	flag.Int64Var(&cfg.NonCashTolerance, "t", 0, "non-cash overpay tolerance in cents")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envGatewayAddress != "" {
		cfg.PaymentGatewayAddress = envGatewayAddress
	}
	if envOperatorSecret != "" {
		cfg.OperatorSecret = envOperatorSecret
	}
	if envToleranceSet {
		cfg.NonCashTolerance = envTolerance
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.NonCashTolerance < 0 {
		return nil, fmt.Errorf("non-cash overpay tolerance must not be negative, got %d", cfg.NonCashTolerance)
	}

	return cfg, nil
}
