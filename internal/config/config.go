// ABOUTME: Configuration loading and parsing for taskboard
// ABOUTME: Supports YAML or TOML files with environment variable expansion, defaults and duration parsing

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvDataPath  = "TASKBOARD_DATA_PATH"
	EnvJWTSecret = "TASKBOARD_JWT_SECRET"
)

// Storage drivers
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Default document locations when storage.path is empty and storage is not ephemeral.
const (
	DefaultDataPath   = "./data.json"
	DefaultSQLitePath = "./data.db"
)

// Config represents the complete taskboard configuration
type Config struct {
	Server      ServerConfig      `yaml:"server" toml:"server"`
	Storage     StorageConfig     `yaml:"storage" toml:"storage"`
	Auth        AuthConfig        `yaml:"auth" toml:"auth"`
	Idempotency IdempotencyConfig `yaml:"idempotency" toml:"idempotency"`
	CORS        CORSConfig        `yaml:"cors" toml:"cors"`
	Logging     LoggingConfig     `yaml:"logging" toml:"logging"`
	Debug       DebugConfig       `yaml:"debug" toml:"debug"`
}

// ServerConfig holds the HTTP listener configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`

	ReadHeaderTimeout time.Duration `yaml:"-" toml:"-"`
	ShutdownTimeout   time.Duration `yaml:"-" toml:"-"`

	// Raw string values for unmarshaling
	ReadHeaderTimeoutRaw string `yaml:"read_header_timeout" toml:"read_header_timeout"`
	ShutdownTimeoutRaw   string `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// StorageConfig selects and locates the document backend
type StorageConfig struct {
	Driver         string `yaml:"driver" toml:"driver"`
	Path           string `yaml:"path" toml:"path"`
	MirrorPath     string `yaml:"mirror_path" toml:"mirror_path"`
	Ephemeral      bool   `yaml:"ephemeral" toml:"ephemeral"`
	ValidateOnLoad bool   `yaml:"validate_on_load" toml:"validate_on_load"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret  string  `yaml:"jwt_secret" toml:"jwt_secret"`
	BcryptCost int     `yaml:"bcrypt_cost" toml:"bcrypt_cost"`
	LoginRate  float64 `yaml:"login_rate" toml:"login_rate"`
	LoginBurst int     `yaml:"login_burst" toml:"login_burst"`

	TokenTTL    time.Duration `yaml:"-" toml:"-"`
	TokenTTLRaw string        `yaml:"token_ttl" toml:"token_ttl"`
}

// IdempotencyConfig bounds the Idempotency-Key cache
type IdempotencyConfig struct {
	MaxKeys int `yaml:"max_keys" toml:"max_keys"`

	TTL    time.Duration `yaml:"-" toml:"-"`
	TTLRaw string        `yaml:"ttl" toml:"ttl"`
}

// CORSConfig lists origins allowed to call the API. Empty reflects any origin.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" toml:"allowed_origins"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// DebugConfig gates the /api/debug endpoint
type DebugConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are parsed as TOML, anything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded, then
// TASKBOARD_DATA_PATH and TASKBOARD_JWT_SECRET override the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data, strings.EqualFold(filepath.Ext(path), ".toml"))
}

// Parse decodes raw configuration bytes. It is Load without the file read.
func Parse(data []byte, isTOML bool) (*Config, error) {
	// Expand environment variables in the raw content
	expanded := expandEnvVars(string(data))

	var cfg Config
	if isTOML {
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvDataPath); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv(EnvJWTSecret); v != "" {
		cfg.Auth.JWTSecret = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPAddr == "" {
		cfg.Server.HTTPAddr = "127.0.0.1:3000"
	}
	if cfg.Server.ReadHeaderTimeout == 0 {
		cfg.Server.ReadHeaderTimeout = 10 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverFile
	}
	cfg.Storage.Path, cfg.Storage.MirrorPath = resolveStoragePaths(cfg.Storage)

	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 7 * 24 * time.Hour
	}
	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = 10
	}
	if cfg.Auth.LoginRate == 0 {
		cfg.Auth.LoginRate = 1
	}
	if cfg.Auth.LoginBurst == 0 {
		cfg.Auth.LoginBurst = 10
	}

	if cfg.Idempotency.TTL == 0 {
		cfg.Idempotency.TTL = 24 * time.Hour
	}
	if cfg.Idempotency.MaxKeys == 0 {
		cfg.Idempotency.MaxKeys = 10000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// resolveStoragePaths decides where the primary document and its mirror live.
// Ephemeral storage without an explicit path goes under the OS temp directory,
// mirrored to DefaultDataPath unless a mirror is configured.
func resolveStoragePaths(s StorageConfig) (path, mirror string) {
	path, mirror = s.Path, s.MirrorPath
	if !s.Ephemeral {
		if path == "" {
			path = DefaultDataPath
			if s.Driver == DriverSQLite {
				path = DefaultSQLitePath
			}
		}
		return path, mirror
	}

	if path == "" {
		name := "data.json"
		if s.Driver == DriverSQLite {
			name = "data.db"
		}
		path = filepath.Join(os.TempDir(), "taskboard", name)
	}
	if mirror == "" && s.Driver != DriverSQLite {
		mirror = DefaultDataPath
	}
	return path, mirror
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	switch c.Storage.Driver {
	case DriverFile, DriverSQLite:
	default:
		return fmt.Errorf("storage.driver must be %q or %q, got %q", DriverFile, DriverSQLite, c.Storage.Driver)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	if c.Storage.MirrorPath != "" && c.Storage.Driver != DriverFile {
		return fmt.Errorf("storage.mirror_path is only supported by the file driver")
	}
	if c.Storage.MirrorPath != "" && filepath.Clean(c.Storage.MirrorPath) == filepath.Clean(c.Storage.Path) {
		return fmt.Errorf("storage.mirror_path must differ from storage.path")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required (or set %s)", EnvJWTSecret)
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 bytes")
	}
	if c.Auth.TokenTTL < 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31, got %d", c.Auth.BcryptCost)
	}
	if c.Auth.LoginRate < 0 || c.Auth.LoginBurst < 0 {
		return fmt.Errorf("auth.login_rate and auth.login_burst must not be negative")
	}

	if c.Idempotency.TTL < 0 || c.Idempotency.MaxKeys < 0 {
		return fmt.Errorf("idempotency.ttl and idempotency.max_keys must not be negative")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"server.read_header_timeout", cfg.Server.ReadHeaderTimeoutRaw, &cfg.Server.ReadHeaderTimeout},
		{"server.shutdown_timeout", cfg.Server.ShutdownTimeoutRaw, &cfg.Server.ShutdownTimeout},
		{"auth.token_ttl", cfg.Auth.TokenTTLRaw, &cfg.Auth.TokenTTL},
		{"idempotency.ttl", cfg.Idempotency.TTLRaw, &cfg.Idempotency.TTL},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}
	return nil
}
