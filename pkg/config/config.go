package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the payment API server configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Sweep    SweepConfig    `mapstructure:"sweep"`
	JWKS     JWKSConfig     `mapstructure:"jwks"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// ChainConfig contains EVM chain client settings
type ChainConfig struct {
	RPCURL           string        `mapstructure:"rpc_url"`
	ChainID          int64         `mapstructure:"chain_id"`
	SignerPrivateKey string        `mapstructure:"signer_private_key"`
	GasLimit         uint64        `mapstructure:"gas_limit"`
	MaxGasPrice      string        `mapstructure:"max_gas_price"`
	ReceiptInterval  time.Duration `mapstructure:"receipt_interval"`
	ReceiptTimeout   time.Duration `mapstructure:"receipt_timeout"`
}

// RetryConfig contains backoff settings for ledger store writes
type RetryConfig struct {
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
}

// SweepConfig contains settings for the stale-pending transfer sweep
type SweepConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	MinAge   time.Duration `mapstructure:"min_age"`
	Batch    int           `mapstructure:"batch"`
}

// JWKSConfig contains JWKS configuration for JWT validation
type JWKSConfig struct {
	URL    string `mapstructure:"url"`
	Issuer string `mapstructure:"issuer"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "60s")
	viper.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.database", "payflow")

	// Chain defaults
	viper.SetDefault("chain.gas_limit", 100000)
	viper.SetDefault("chain.receipt_interval", "3s")
	viper.SetDefault("chain.receipt_timeout", "2m")

	// Retry defaults: 1s, 2s, 4s
	viper.SetDefault("retry.initial_interval", "1s")
	viper.SetDefault("retry.max_attempts", 3)

	// Sweep defaults
	viper.SetDefault("sweep.enabled", true)
	viper.SetDefault("sweep.interval", "2m")
	viper.SetDefault("sweep.min_age", "5m")
	viper.SetDefault("sweep.batch", 50)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output_path", "stdout")
}

func validate(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if config.Chain.RPCURL == "" {
		return fmt.Errorf("chain.rpc_url is required")
	}
	if config.Chain.ChainID == 0 {
		return fmt.Errorf("chain.chain_id is required")
	}
	if config.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}
	return nil
}

// GetConnectionString returns a PostgreSQL connection string
func (c *DatabaseConfig) GetConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
