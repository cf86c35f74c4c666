package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	JWTSecret   string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string `mapstructure:"jwt_audience" yaml:"jwt_audience"`

	RedisAddr string `mapstructure:"redis_addr" yaml:"redis_addr"`

	// NATSURL is the pub/sub backbone. Ignored when SingleNode is set.
	NATSURL    string `mapstructure:"nats_url" yaml:"nats_url"`
	SingleNode bool   `mapstructure:"single_node" yaml:"single_node"`

	PresenceTTL time.Duration `mapstructure:"presence_ttl" yaml:"presence_ttl"`
	TypingTTL   time.Duration `mapstructure:"typing_ttl" yaml:"typing_ttl"`

	PingInterval time.Duration `mapstructure:"ping_interval" yaml:"ping_interval"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	MaxMessageLen int `mapstructure:"max_message_len" yaml:"max_message_len"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		DatabasePath:      "sochat.db",
		JWTSecret:         "change-me",
		JWTIssuer:         "sochat",
		JWTAudience:       "sochat-clients",
		RedisAddr:         "localhost:6379",
		NATSURL:           "nats://localhost:4222",
		PresenceTTL:       30 * time.Second,
		TypingTTL:         5 * time.Second,
		PingInterval:      25 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxMessageLen:     4000,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.RedisAddr != "" {
		c.RedisAddr = other.RedisAddr
	}
	if other.NATSURL != "" {
		c.NATSURL = other.NATSURL
	}
	if other.PresenceTTL != 0 {
		c.PresenceTTL = other.PresenceTTL
	}
	if other.TypingTTL != 0 {
		c.TypingTTL = other.TypingTTL
	}
	if other.PingInterval != 0 {
		c.PingInterval = other.PingInterval
	}
	if other.IdleTimeout != 0 {
		c.IdleTimeout = other.IdleTimeout
	}
	if other.MaxMessageLen != 0 {
		c.MaxMessageLen = other.MaxMessageLen
	}
}
