package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

// minJWTSecretLen is the HS256 key size in bytes
const minJWTSecretLen = 32

// Storage drivers
const (
	DriverMemory = "memory"
	DriverMySQL  = "mysql"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	MySQL   MySQLConfig   `mapstructure:"mysql"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Bidding BiddingConfig `mapstructure:"bidding"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	Seed   bool   `mapstructure:"seed"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig is optional; an empty address disables the price cache and
// bid event publishing.
type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	QuoteTTL time.Duration `mapstructure:"quote_ttl"`
	Channel  string        `mapstructure:"channel"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type BiddingConfig struct {
	// AllowInactiveBids keeps accepting bids after a listing is closed
	AllowInactiveBids bool `mapstructure:"allow_inactive_bids"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.seed", false)
	v.SetDefault("mysql.dsn", "auction_user:auction_pass@tcp(localhost:3306)/auction_db?parseTime=true")
	v.SetDefault("mysql.max_open_conns", 25)
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.quote_ttl", time.Minute)
	v.SetDefault("redis.channel", "listing_events")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("bidding.allow_inactive_bids", false)
	v.SetDefault("log.level", "info")
}

func bindEnv(v *viper.Viper) {
	v.BindEnv("server.port", "SERVER_PORT", "PORT")
	v.BindEnv("server.host", "SERVER_HOST")
	v.BindEnv("storage.driver", "STORAGE_DRIVER")
	v.BindEnv("storage.seed", "STORAGE_SEED")
	v.BindEnv("mysql.dsn", "MYSQL_DSN")
	v.BindEnv("mysql.max_open_conns", "MYSQL_MAX_OPEN_CONNS")
	v.BindEnv("mysql.max_idle_conns", "MYSQL_MAX_IDLE_CONNS")
	v.BindEnv("mysql.conn_max_lifetime", "MYSQL_CONN_MAX_LIFETIME")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")
	v.BindEnv("redis.quote_ttl", "REDIS_QUOTE_TTL")
	v.BindEnv("redis.channel", "REDIS_CHANNEL")
	v.BindEnv("auth.jwt_secret", "AUTH_JWT_SECRET")
	v.BindEnv("auth.token_ttl", "AUTH_TOKEN_TTL")
	v.BindEnv("bidding.allow_inactive_bids", "BIDDING_ALLOW_INACTIVE_BIDS")
	v.BindEnv("log.level", "LOG_LEVEL")
}

// Load reads configuration from defaults, an optional config.yaml and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/auction-house/")

	v.AutomaticEnv()
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return decode(v)
}

// LoadFromFile loads configuration from a specific file path. Environment
// variables still take precedence.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.AutomaticEnv()
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that would otherwise fail late at startup
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverMySQL:
		if _, err := mysql.ParseDSN(c.MySQL.DSN); err != nil {
			return fmt.Errorf("config: invalid mysql dsn: %w", err)
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("config: auth.jwt_secret must be set")
	}
	if len(c.Auth.JWTSecret) < minJWTSecretLen {
		return fmt.Errorf("config: auth.jwt_secret must be at least %d bytes", minJWTSecretLen)
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("config: auth.token_ttl must be positive")
	}
	return nil
}

// Addr returns the host:port the HTTP server listens on
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// RedisEnabled reports whether a Redis address was configured
func (c *Config) RedisEnabled() bool {
	return c.Redis.Address != ""
}

// GetConfigString returns a formatted string representation of the config
// without secrets
func (c *Config) GetConfigString() string {
	return fmt.Sprintf(
		"Server: %s, Storage: %s, Redis: %q, AllowInactiveBids: %t",
		c.Addr(),
		c.Storage.Driver,
		c.Redis.Address,
		c.Bidding.AllowInactiveBids,
	)
}
