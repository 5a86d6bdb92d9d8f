package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flexprice/taxledger/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Cache      CacheConfig
	Event      EventConfig
	Sentry     SentryConfig
	Tax        TaxConfig
	Catalog    CatalogConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type CacheConfig struct {
	Enabled         bool
	Expiration      time.Duration
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type EventConfig struct {
	Enabled bool
	// TaxationTopic receives an event for every recorded taxation
	TaxationTopic string `mapstructure:"taxation_topic"`
	// PublishMaxRetries bounds the retries of a failed publish
	PublishMaxRetries uint64 `mapstructure:"publish_max_retries"`
	// BufferSize of the in-memory channel backing the pubsub
	BufferSize int64 `mapstructure:"buffer_size"`
}

type SentryConfig struct {
	Enabled     bool
	DSN         string
	Environment string
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// CatalogConfig maps plan names to product names for the static catalog.
type CatalogConfig struct {
	Plans []CatalogPlan
}

type CatalogPlan struct {
	// TenantID scopes the mapping; empty applies to every tenant
	TenantID    string `mapstructure:"tenant_id"`
	PlanName    string `mapstructure:"plan_name" validate:"required"`
	ProductName string `mapstructure:"product_name" validate:"required"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/taxledger")

	v.SetEnvPrefix("TAXLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", types.LogLevelInfo)
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime", time.Hour)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.expiration", 5*time.Minute)
	v.SetDefault("cache.cleanup_interval", 10*time.Minute)
	v.SetDefault("event.taxation_topic", "taxation.recorded")
	v.SetDefault("event.publish_max_retries", 3)
	v.SetDefault("event.buffer_size", 100)
	v.SetDefault("tax.batch_concurrency", 4)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a configuration for tests and local tooling
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Cache: CacheConfig{
			Enabled:         true,
			Expiration:      5 * time.Minute,
			CleanupInterval: 10 * time.Minute,
		},
		Event: EventConfig{
			Enabled:           true,
			TaxationTopic:     "taxation.recorded",
			PublishMaxRetries: 3,
			BufferSize:        100,
		},
		Tax: TaxConfig{
			Defaults:         map[string]any{},
			BatchConcurrency: 4,
		},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
