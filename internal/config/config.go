// Package config loads smb1d's configuration: listen address, the shares
// to expose, NTLM credentials, and logging/metrics settings. Precedence,
// highest to lowest: environment variables (SMB1D_*), the YAML config
// file, then the defaults below.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config is smb1d's full static configuration.
type Config struct {
	Logging  LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Server   ServerConfig    `mapstructure:"server" yaml:"server"`
	Metrics  MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Auth     AuthConfig      `mapstructure:"auth" yaml:"auth"`
	Shares   []ShareConfig   `mapstructure:"shares" validate:"required,min=1,dive" yaml:"shares"`
}

// ServerConfig controls the NetBIOS/TCP listener.
type ServerConfig struct {
	// ListenAddress is the host:port the server accepts connections on,
	// conventionally ":445" (direct TCP) or ":139" (NetBIOS session service).
	ListenAddress string `mapstructure:"listen_address" validate:"required" yaml:"listen_address"`

	// HostName is advertised in NEGOTIATE/SESSION_SETUP_ANDX responses.
	HostName string `mapstructure:"hostname" yaml:"hostname"`

	// MaxMessageSize bounds a single SMB1 message, excluding the 4-byte
	// NetBIOS session header (the frame's payload length), rejecting larger
	// frames before allocating a buffer for them.
	MaxMessageSize uint32 `mapstructure:"max_message_size" validate:"gt=0" yaml:"max_message_size"`
}

// LoggingConfig controls internal/logger's behaviour.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=json text" yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics HTTP listener.
type MetricsConfig struct {
	Enabled       bool   `mapstructure:"enabled" yaml:"enabled"`
	ListenAddress string `mapstructure:"listen_address" yaml:"listen_address"`
}

// AuthConfig configures NTLM authentication.
type AuthConfig struct {
	AllowGuest bool         `mapstructure:"allow_guest" yaml:"allow_guest"`
	Users      []UserConfig `mapstructure:"users" validate:"dive" yaml:"users"`
}

// UserConfig is one configured NTLM account. Password is cleartext in the
// config file (hashed once into the in-memory credential store at load
// time; never persisted in hashed form) — acceptable for this server's
// threat model since it never stores or transmits the config file itself.
type UserConfig struct {
	Username string `mapstructure:"username" validate:"required" yaml:"username"`
	Domain   string `mapstructure:"domain" yaml:"domain"`
	Password string `mapstructure:"password" validate:"required" yaml:"password"`
}

// ShareConfig is one exposed share: a name plus the manifest URL the
// httpshare backend fetches its directory listing from.
type ShareConfig struct {
	Name        string `mapstructure:"name" validate:"required" yaml:"name"`
	ManifestURL string `mapstructure:"manifest_url" validate:"required,url" yaml:"manifest_url"`
	AuthHeader  string `mapstructure:"auth_header" yaml:"auth_header"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "INFO", Format: "text"},
		Server: ServerConfig{
			ListenAddress:  ":445",
			HostName:       "SMB1D",
			MaxMessageSize: 1 << 20,
		},
		Metrics: MetricsConfig{Enabled: true, ListenAddress: ":9445"},
		Auth:    AuthConfig{AllowGuest: false},
	}
}

// Load reads configPath (YAML) layered over environment variables
// (SMB1D_SERVER_LISTEN_ADDRESS, etc.) and the defaults above, then
// validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SMB1D")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only consults the environment for keys Viper already
	// knows of, so the scalar keys are bound explicitly.
	for _, key := range []string{
		"server.listen_address", "server.hostname", "server.max_message_size",
		"logging.level", "logging.format",
		"metrics.enabled", "metrics.listen_address",
		"auth.allow_guest",
	} {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", configPath, err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc())); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

var validate = validator.New()

// Validate runs struct-tag validation over cfg.
func Validate(cfg *Config) error {
	return validate.Struct(cfg)
}
