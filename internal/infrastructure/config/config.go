package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the head unit.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Hardware  HardwareConfig  `yaml:"hardware"`
	Board     BoardConfig     `yaml:"board"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
}

// SiteConfig identifies this installation.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// HardwareConfig describes how the board is wired to the host.
type HardwareConfig struct {
	// I2CBus is the bus identifier passed to the I2C registry
	// (e.g. "1" or "/dev/i2c-1"). There is no auto-detection.
	I2CBus string `yaml:"i2c_bus"`

	// GPIODriver is "periph" or "chardev".
	GPIODriver string `yaml:"gpio_driver"`

	// GPIOChip is the character device used by the chardev driver.
	GPIOChip string `yaml:"gpio_chip"`

	// PinNumbering is "board" (physical header) or "bcm".
	PinNumbering string `yaml:"pin_numbering"`

	EnablePin  int `yaml:"enable_pin"`
	StandbyPin int `yaml:"standby_pin"`

	// Settle delays in milliseconds.
	OpenSettleMS      int `yaml:"open_settle_ms"`
	PowerUpSettleMS   int `yaml:"power_up_settle_ms"`
	PowerDownSettleMS int `yaml:"power_down_settle_ms"`
	ResetDelayMS      int `yaml:"reset_delay_ms"`
}

// BoardConfig controls start-up behaviour.
type BoardConfig struct {
	// ID names the board in MQTT topics and the settings store.
	ID string `yaml:"id"`

	// RestoreOnStart re-applies the last persisted state at start.
	RestoreOnStart bool `yaml:"restore_on_start"`

	// PowerOnStart powers the board on after restoring.
	PowerOnStart bool `yaml:"power_on_start"`

	// HistoryRetentionDays prunes state history older than this. 0 keeps everything.
	HistoryRetentionDays int `yaml:"history_retention_days"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig contains file-based logging settings.
type FileLoggingConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT      JWTConfig      `yaml:"jwt"`
	Operator OperatorConfig `yaml:"operator"`
}

// JWTConfig contains JWT token settings.
type JWTConfig struct {
	Secret string `yaml:"secret"`

	// AccessTokenTTL is in minutes.
	AccessTokenTTL int `yaml:"access_token_ttl"`
}

// OperatorConfig holds the single operator account allowed to log in.
type OperatorConfig struct {
	Username string `yaml:"username"`

	// PasswordHash is an Argon2id PHC string.
	PasswordHash string `yaml:"password_hash"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: HEADUNIT_SECTION_KEY
// For example: HEADUNIT_DATABASE_PATH, HEADUNIT_HARDWARE_I2C_BUS
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "car-001",
			Name:     "Head Unit",
			Timezone: "UTC",
		},
		Hardware: HardwareConfig{
			GPIODriver:        "periph",
			GPIOChip:          "/dev/gpiochip0",
			PinNumbering:      "board",
			EnablePin:         11,
			StandbyPin:        13,
			OpenSettleMS:      500,
			PowerUpSettleMS:   500,
			PowerDownSettleMS: 200,
			ResetDelayMS:      2000,
		},
		Board: BoardConfig{
			ID:                   "main",
			RestoreOnStart:       true,
			HistoryRetentionDays: 30,
		},
		Database: DatabaseConfig{
			Path:        "./data/headunit.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "headunit-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				AccessTokenTTL: 15,
			},
			Operator: OperatorConfig{
				Username: "operator",
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: HEADUNIT_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Hardware
	if v := os.Getenv("HEADUNIT_HARDWARE_I2C_BUS"); v != "" {
		cfg.Hardware.I2CBus = v
	}
	if v := os.Getenv("HEADUNIT_HARDWARE_GPIO_DRIVER"); v != "" {
		cfg.Hardware.GPIODriver = v
	}
	if v := os.Getenv("HEADUNIT_HARDWARE_GPIO_CHIP"); v != "" {
		cfg.Hardware.GPIOChip = v
	}

	// Board
	if v := os.Getenv("HEADUNIT_BOARD_ID"); v != "" {
		cfg.Board.ID = v
	}

	// Database
	if v := os.Getenv("HEADUNIT_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("HEADUNIT_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("HEADUNIT_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("HEADUNIT_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("HEADUNIT_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("HEADUNIT_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Security - JWT secret (IMPORTANT: always override in production)
	if v := os.Getenv("HEADUNIT_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
	if v := os.Getenv("HEADUNIT_OPERATOR_PASSWORD_HASH"); v != "" {
		cfg.Security.Operator.PasswordHash = v
	}
}

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Site validation
	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	// Hardware validation
	if c.Hardware.I2CBus == "" {
		errs = append(errs, "hardware.i2c_bus is required (set HEADUNIT_HARDWARE_I2C_BUS)")
	}
	switch strings.ToLower(c.Hardware.GPIODriver) {
	case "periph", "chardev":
	default:
		errs = append(errs, "hardware.gpio_driver must be periph or chardev")
	}
	switch strings.ToLower(c.Hardware.PinNumbering) {
	case "board", "physical", "bcm":
	default:
		errs = append(errs, "hardware.pin_numbering must be board or bcm")
	}
	if c.Hardware.EnablePin == c.Hardware.StandbyPin {
		errs = append(errs, "hardware.enable_pin and hardware.standby_pin must differ")
	}
	if c.Hardware.OpenSettleMS < 0 || c.Hardware.PowerUpSettleMS < 0 ||
		c.Hardware.PowerDownSettleMS < 0 || c.Hardware.ResetDelayMS < 0 {
		errs = append(errs, "hardware settle delays must not be negative")
	}

	// Board validation
	if c.Board.ID == "" {
		errs = append(errs, "board.id is required")
	} else if strings.ContainsAny(c.Board.ID, "/#+") {
		errs = append(errs, "board.id must not contain MQTT wildcards or separators")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// Security validation - JWT secret is REQUIRED
	const minJWTSecretLength = 32
	if c.Security.JWT.Secret == "" {
		errs = append(errs, "security.jwt.secret is required (set HEADUNIT_JWT_SECRET environment variable)")
	} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters for adequate security")
	}

	if c.Security.Operator.Username == "" {
		errs = append(errs, "security.operator.username is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetOpenSettle returns the bus open settle delay as a Duration.
func (c *Config) GetOpenSettle() time.Duration {
	return time.Duration(c.Hardware.OpenSettleMS) * time.Millisecond
}

// GetPowerUpSettle returns the power-up settle delay as a Duration.
func (c *Config) GetPowerUpSettle() time.Duration {
	return time.Duration(c.Hardware.PowerUpSettleMS) * time.Millisecond
}

// GetPowerDownSettle returns the power-down settle delay as a Duration.
func (c *Config) GetPowerDownSettle() time.Duration {
	return time.Duration(c.Hardware.PowerDownSettleMS) * time.Millisecond
}

// GetResetDelay returns the reset off time as a Duration.
func (c *Config) GetResetDelay() time.Duration {
	return time.Duration(c.Hardware.ResetDelayMS) * time.Millisecond
}
