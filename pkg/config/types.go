package config

import (
	"fmt"
	"time"
)

// Config is the main configuration struct.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Security  SecurityConfig  `yaml:"security"`
	Logging   LoggingConfig   `yaml:"logging"`
	Retention RetentionConfig `yaml:"retention"`
	Client    ClientConfig    `yaml:"client"`
}

// ServerConfig holds http, storage and tls settings.
type ServerConfig struct {
	Address    string    `yaml:"address"`
	Port       int       `yaml:"port"`
	DBPath     string    `yaml:"db_path"`
	UploadsDir string    `yaml:"uploads_dir"`
	TLS        TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate configuration.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// SecurityConfig holds security related settings.
type SecurityConfig struct {
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	IPWhitelist []string `yaml:"ip_whitelist"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// RetentionConfig holds configuration for the automatic purge runner.
type RetentionConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
	Period  string `yaml:"period"`
}

// ClientConfig holds settings consumed by the chat engine and the
// terminal client.
type ClientConfig struct {
	BaseURL                  string `yaml:"base_url"`
	MediaPrefix              string `yaml:"media_prefix"`
	MessagePollInterval      string `yaml:"message_poll_interval"`
	NotificationPollInterval string `yaml:"notification_poll_interval"`
}

// Addr returns the host:port string derived from server address and port.
func (c *Config) Addr() string {
	host := c.Server.Address
	port := c.Server.Port
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// MediaPrefix returns the configured media prefix or the default. A
// message whose content starts with this prefix renders as an image.
func (cc ClientConfig) MediaPrefixOrDefault() string {
	if cc.MediaPrefix != "" {
		return cc.MediaPrefix
	}
	return "uploads/"
}

// MessageInterval returns the chat poll interval (default 8s).
func (cc ClientConfig) MessageInterval() time.Duration {
	if d, err := time.ParseDuration(cc.MessagePollInterval); err == nil && d > 0 {
		return d
	}
	return 8 * time.Second
}

// NotificationInterval returns the notification poll interval (default 60s).
func (cc ClientConfig) NotificationInterval() time.Duration {
	if d, err := time.ParseDuration(cc.NotificationPollInterval); err == nil && d > 0 {
		return d
	}
	return 60 * time.Second
}
