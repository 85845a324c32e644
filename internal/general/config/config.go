package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the effective configuration for every service mode.
type Config struct {
	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"database"`
	RabbitMQ struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
	} `mapstructure:"rabbitmq"`
	Services struct {
		APIPort int `mapstructure:"api_port"`
	} `mapstructure:"services"`
	JWT struct {
		SecretKey string `mapstructure:"secret_key"`
	} `mapstructure:"jwt"`
	Payments struct {
		// Provider selects the gateway implementation: "mock" or "stripe".
		Provider     string `mapstructure:"provider"`
		StripeAPIKey string `mapstructure:"stripe_api_key"`
		Currency     string `mapstructure:"currency"`
	} `mapstructure:"payments"`
	Sweeper struct {
		Interval  time.Duration `mapstructure:"interval"`
		BatchSize int           `mapstructure:"batch_size"`
	} `mapstructure:"sweeper"`
}

// LoadFromFile loads config from a YAML file, applies defaults, and validates
// required fields. Environment variables (CAMPUSPOOL_*) override file values.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CAMPUSPOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets safe defaults for some fields.
func applyDefaults(cfg *Config) {
	// Database
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}

	// RabbitMQ
	if cfg.RabbitMQ.Host == "" {
		cfg.RabbitMQ.Host = "localhost"
	}
	if cfg.RabbitMQ.Port == 0 {
		cfg.RabbitMQ.Port = 5672
	}

	// Services
	if cfg.Services.APIPort == 0 {
		cfg.Services.APIPort = 3000
	}

	// Payments
	if cfg.Payments.Provider == "" {
		cfg.Payments.Provider = "mock"
	}
	if cfg.Payments.Currency == "" {
		cfg.Payments.Currency = "usd"
	}

	// Sweeper
	if cfg.Sweeper.Interval == 0 {
		cfg.Sweeper.Interval = time.Minute
	}
	if cfg.Sweeper.BatchSize == 0 {
		cfg.Sweeper.BatchSize = 100
	}

	if cfg.JWT.SecretKey == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			// fallback: time-based bytes
			key = []byte(fmt.Sprintf("%d", time.Now().UnixNano()))
		}
		cfg.JWT.SecretKey = base64.StdEncoding.EncodeToString(key)
	}
}

// validate checks required fields and basic ranges.
func (c *Config) validate() error {
	var problems []string

	// DB
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		problems = append(problems, "database.port must be in 1..65535")
	}
	if c.Database.User == "" {
		problems = append(problems, "database.user is required")
	}
	if c.Database.Password == "" {
		problems = append(problems, "database.password is required")
	}
	if c.Database.Name == "" {
		problems = append(problems, "database.name is required")
	}

	// RabbitMQ
	if c.RabbitMQ.Port <= 0 || c.RabbitMQ.Port > 65535 {
		problems = append(problems, "rabbitmq.port must be in 1..65535")
	}
	if c.RabbitMQ.User == "" {
		problems = append(problems, "rabbitmq.user is required")
	}
	if c.RabbitMQ.Password == "" {
		problems = append(problems, "rabbitmq.password is required")
	}

	// Services
	if c.Services.APIPort <= 0 || c.Services.APIPort > 65535 {
		problems = append(problems, "services.api_port must be in 1..65535")
	}

	// Payments
	switch c.Payments.Provider {
	case "mock":
	case "stripe":
		if c.Payments.StripeAPIKey == "" {
			problems = append(problems, "payments.stripe_api_key is required when provider is stripe")
		}
	default:
		problems = append(problems, "payments.provider must be mock or stripe")
	}

	// Sweeper
	if c.Sweeper.Interval < time.Second {
		problems = append(problems, "sweeper.interval must be at least 1s")
	}
	if c.Sweeper.BatchSize < 1 {
		problems = append(problems, "sweeper.batch_size must be >= 1")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
