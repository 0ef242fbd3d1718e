package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

const (
	CurrentVersion = 1
	DefaultPath    = "~/.botdb/botdb.yaml"
)

// Config is the top-level configuration. Values come from the YAML file
// when one exists; BOTDB_* environment variables override them.
type Config struct {
	Version  int           `yaml:"version"`
	Server   ServerConfig  `yaml:"server"`
	Connect  ConnectConfig `yaml:"connect"`
	Sessions SessionConfig `yaml:"sessions"`
	Catalog  CatalogConfig `yaml:"catalog"`
	Secrets  SecretsConfig `yaml:"secrets"`
	Logging  LogConfig     `yaml:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	BindAddr         string        `yaml:"bind_addr" env:"BOTDB_BIND_ADDR" env-default:"0.0.0.0"`
	Port             int           `yaml:"port" env:"BOTDB_PORT" env-default:"8820"`
	AllowedOrigins   []string      `yaml:"allowed_origins" env:"BOTDB_ALLOWED_ORIGINS" env-default:"*"`
	DisableCORS      bool          `yaml:"disable_cors" env:"BOTDB_DISABLE_CORS"`
	DisableWebSocket bool          `yaml:"disable_websocket" env:"BOTDB_DISABLE_WEBSOCKET"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout" env:"BOTDB_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.BindAddr, s.Port)
}

// ConnectConfig bounds each introspection.
type ConnectConfig struct {
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"BOTDB_CONNECT_TIMEOUT" env-default:"10s"`
	QueryTimeout   time.Duration `yaml:"query_timeout" env:"BOTDB_QUERY_TIMEOUT" env-default:"30s"`
	// ResolveSecretRefs lets callers send ${ENV|VAULT|AWS_SM:...} as a
	// password. Off unless the operator trusts every caller.
	ResolveSecretRefs bool `yaml:"resolve_secret_refs" env:"BOTDB_RESOLVE_SECRET_REFS"`
}

// SessionConfig controls what the session registry keeps.
type SessionConfig struct {
	RetainCredentials bool `yaml:"retain_credentials" env:"BOTDB_RETAIN_CREDENTIALS"`
}

// CatalogConfig controls the bot catalog.
type CatalogConfig struct {
	BaseURL string `yaml:"base_url" env:"BOTDB_CATALOG_BASE_URL" env-default:"http://103.168.18.197:3000/chat"`
	// File replaces the built-in catalog when set.
	File string `yaml:"file,omitempty" env:"BOTDB_CATALOG_FILE"`
}

// SecretsConfig reaches the secret stores used by ${VAULT:...} and
// ${AWS_SM:...} references.
type SecretsConfig struct {
	VaultAddr  string `yaml:"vault_addr,omitempty" env:"VAULT_ADDR"`
	VaultToken string `yaml:"-" env:"VAULT_TOKEN"`
	AWSRegion  string `yaml:"aws_region,omitempty" env:"AWS_REGION"`
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level     string `yaml:"level" env:"BOTDB_LOG_LEVEL" env-default:"info"` // debug, info, warn, error
	Directory string `yaml:"directory,omitempty" env:"BOTDB_LOG_DIR"`
	Format    string `yaml:"format" env:"BOTDB_LOG_FORMAT" env-default:"text"` // text or json
}

// Load reads the config file at path and applies environment overrides.
// An empty path means DefaultPath, which may be absent; an explicit path
// must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = ExpandHome(DefaultPath)
	}

	cfg := &Config{}
	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if cfg.Version != CurrentVersion {
			return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentVersion)
		}
	case errors.Is(statErr, fs.ErrNotExist) && !explicit:
		var err error
		if cfg, err = Default(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("reading config: %w", statErr)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in defaults with environment overrides applied.
func Default() (*Config, error) {
	cfg := &Config{Version: CurrentVersion}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return cfg, nil
}

// Validate checks that values are in range.
func (c *Config) Validate() error {
	var problems []string
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.ShutdownTimeout <= 0 {
		problems = append(problems, "server.shutdown_timeout must be positive")
	}
	if c.Connect.ConnectTimeout <= 0 {
		problems = append(problems, "connect.connect_timeout must be positive")
	}
	if c.Connect.QueryTimeout <= 0 {
		problems = append(problems, "connect.query_timeout must be positive")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q unknown", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q unknown", c.Logging.Format))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Save writes the config to the given path.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

// ExpandHome expands ~ to the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
