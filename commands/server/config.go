package server

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/iov-one/blendsafe"
	"github.com/iov-one/blendsafe/errors"
	"github.com/iov-one/blendsafe/x/wallet"
)

// ConfigFile is the name of the configuration file in the home directory.
const ConfigFile = "config.json"

// Environment variables that override the configuration file.
const (
	EnvHTTP     = "BLENDSAFE_HTTP"
	EnvEnv      = "BLENDSAFE_ENV"
	EnvLogLevel = "BLENDSAFE_LOG_LEVEL"
)

// Config is the content of the configuration file.
type Config struct {
	HTTP        string            `json:"http"`
	Env         string            `json:"env"`
	LogLevel    string            `json:"log_level"`
	Debug       bool              `json:"debug"`
	ChainID     uint64            `json:"chain_id"`
	MaxPayload  int               `json:"max_payload"`
	DB          DBConfig          `json:"db"`
	Gateway     GatewayConfig     `json:"gateway"`
	Auth        AuthConfig        `json:"auth"`
	CORSOrigins []string          `json:"cors_origins"`
	AppState    blendsafe.Options `json:"app_state"`
}

// DBConfig selects the persistence backend.
type DBConfig struct {
	// Backend is either "goleveldb" or "memdb".
	Backend string `json:"backend"`
	// Dir is relative to the home directory unless absolute.
	Dir string `json:"dir"`
}

// GatewayConfig selects the signing gateway.
type GatewayConfig struct {
	// Kind is "local" for an in process key service or "remote".
	Kind string `json:"kind"`
	// Seed of the local key service.
	Seed blendsafe.HexBytes `json:"seed,omitempty"`
	// URL of the remote key service.
	URL string `json:"url,omitempty"`
	// Timeout of a single remote call, for example "30s".
	Timeout string `json:"timeout,omitempty"`
}

// AuthConfig configures how callers are identified.
type AuthConfig struct {
	// Header, if set, is trusted to carry the caller identity.
	Header string `json:"header,omitempty"`
	// Tokens maps bearer tokens to identities.
	Tokens map[string]blendsafe.Identity `json:"tokens,omitempty"`
}

// DefaultConfig returns the configuration written by init.
func DefaultConfig() Config {
	return Config{
		HTTP:       ":8000",
		Env:        "local",
		LogLevel:   "info",
		MaxPayload: wallet.DefaultMaxPayload,
		DB: DBConfig{
			Backend: "goleveldb",
			Dir:     "data",
		},
		Gateway: GatewayConfig{
			Kind:    "local",
			Timeout: "30s",
		},
		AppState: blendsafe.Options{
			wallet.GenesisKey: json.RawMessage(`[]`),
		},
	}
}

// Validate returns an error if the configuration cannot be used.
func (c Config) Validate() error {
	var errs error
	if c.HTTP == "" {
		errs = errors.AppendField(errs, "http", errors.ErrEmpty)
	}
	if c.MaxPayload < 0 {
		errs = errors.AppendField(errs, "max_payload", errors.Wrap(errors.ErrInput, "negative"))
	}
	switch c.DB.Backend {
	case "", "goleveldb", "memdb":
	default:
		errs = errors.AppendField(errs, "db.backend", errors.Wrapf(errors.ErrInput, "unknown backend %q", c.DB.Backend))
	}
	switch c.Gateway.Kind {
	case "local":
		if len(c.Gateway.Seed) == 0 {
			errs = errors.AppendField(errs, "gateway.seed", errors.ErrEmpty)
		}
	case "remote":
		if c.Gateway.URL == "" {
			errs = errors.AppendField(errs, "gateway.url", errors.ErrEmpty)
		}
	default:
		errs = errors.AppendField(errs, "gateway.kind", errors.Wrapf(errors.ErrInput, "unknown kind %q", c.Gateway.Kind))
	}
	if c.Gateway.Timeout != "" {
		if _, err := time.ParseDuration(c.Gateway.Timeout); err != nil {
			errs = errors.AppendField(errs, "gateway.timeout", errors.Wrap(errors.ErrInput, err.Error()))
		}
	}
	for token, id := range c.Auth.Tokens {
		if token == "" {
			errs = errors.AppendField(errs, "auth.tokens", errors.Wrap(errors.ErrEmpty, "token"))
		}
		if err := id.Validate(); err != nil {
			errs = errors.AppendField(errs, "auth.tokens", err)
		}
	}
	return errs
}

// gatewayTimeout returns the configured timeout, defaulting to 30 seconds.
func (c Config) gatewayTimeout() time.Duration {
	d, err := time.ParseDuration(c.Gateway.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// dbDir returns the absolute database directory.
func (c Config) dbDir(home string) string {
	if filepath.IsAbs(c.DB.Dir) {
		return c.DB.Dir
	}
	return filepath.Join(home, c.DB.Dir)
}

// applyEnv overrides configuration values with the environment.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvHTTP); ok {
		c.HTTP = v
	}
	if v, ok := lookup(EnvEnv); ok {
		c.Env = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.LogLevel = v
	}
}

// LoadConfig reads the configuration from the home directory and applies
// environment overrides.
func LoadConfig(home string) (Config, error) {
	var c Config
	b, err := ioutil.ReadFile(filepath.Join(home, ConfigFile))
	if err != nil {
		return c, errors.Wrap(err, "cannot read configuration")
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return c, errors.Wrapf(errors.ErrInput, "cannot JSON deserialize configuration: %s", err)
	}
	c.applyEnv(os.LookupEnv)
	if err := c.Validate(); err != nil {
		return c, errors.Wrap(err, "invalid configuration")
	}
	return c, nil
}

// SaveConfig writes the configuration into the home directory. The file
// may hold the key seed, so only the owner can read it.
func SaveConfig(home string, c Config) error {
	if err := os.MkdirAll(home, 0700); err != nil {
		return errors.Wrap(err, "cannot create home directory")
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "cannot JSON serialize configuration")
	}
	return ioutil.WriteFile(filepath.Join(home, ConfigFile), b, 0600)
}
