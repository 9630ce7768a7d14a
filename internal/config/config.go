// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingAPIKey is returned by Validate when no upstream credential is configured.
var ErrMissingAPIKey = errors.New("config: AWS_API_KEY is not set")

const (
	DefaultPresignURL      = "https://abc123xyz.execute-api.us-east-1.amazonaws.com/presign"
	DefaultDirectUploadURL = "https://abc123xyz.execute-api.us-east-1.amazonaws.com/upload"
)

type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
	MaxUploadMB    int
}

// UpstreamConfig holds the endpoints uploads are relayed to and the static key
// sent with them.
type UpstreamConfig struct {
	PresignURL      string
	DirectUploadURL string
	APIKey          string
	Timeout         time.Duration
}

type LogConfig struct {
	Level string
}

// Load reads configuration from the environment and an optional .env file.
// Each call builds a fresh value; callers load once at startup and pass it down.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()

	// Set default values
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("SERVER_MAX_UPLOAD_MB", 10)
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("AWS_API_KEY", "")
	v.SetDefault("AWS_PRESIGN_URL", DefaultPresignURL)
	v.SetDefault("AWS_DIRECT_UPLOAD_URL", DefaultDirectUploadURL)
	v.SetDefault("UPSTREAM_TIMEOUT_SECONDS", 30)

	// Read from environment variables
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			MaxUploadMB:    v.GetInt("SERVER_MAX_UPLOAD_MB"),
		},
		Upstream: UpstreamConfig{
			PresignURL:      strings.TrimSpace(v.GetString("AWS_PRESIGN_URL")),
			DirectUploadURL: strings.TrimSpace(v.GetString("AWS_DIRECT_UPLOAD_URL")),
			APIKey:          strings.TrimSpace(v.GetString("AWS_API_KEY")),
			Timeout:         time.Duration(v.GetInt("UPSTREAM_TIMEOUT_SECONDS")) * time.Second,
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
	}

	for name, endpoint := range map[string]string{
		"AWS_PRESIGN_URL":       cfg.Upstream.PresignURL,
		"AWS_DIRECT_UPLOAD_URL": cfg.Upstream.DirectUploadURL,
	} {
		if _, err := url.ParseRequestURI(endpoint); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	return cfg, nil
}

// Validate reports configuration the service cannot start without.
func (c *Config) Validate() error {
	return c.Upstream.Validate()
}

// Validate reports a missing credential.
func (u UpstreamConfig) Validate() error {
	if u.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// LogLevel returns the configured level, or one derived from the server mode.
func (c *Config) LogLevel() string {
	if c.Log.Level != "" {
		return c.Log.Level
	}
	if c.Server.Mode == "debug" {
		return "debug"
	}
	return "info"
}

// MaxUploadBytes is the largest multipart form the server buffers.
func (s ServerConfig) MaxUploadBytes() int64 {
	if s.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return int64(s.MaxUploadMB) << 20
}
