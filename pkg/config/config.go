// Package config binds the configuration surface documented in spec.md §6
// to the typed tunables each component expects, following the precedence
// CLI flag > environment > config file > hardcoded default.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tokenize-x/ibc-escrow-audit/pkg/audit"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/cache"
	"github.com/tokenize-x/ibc-escrow-audit/pkg/queryclient"
)

// EnvPrefix is the environment variable prefix recognized by viper's
// AutomaticEnv binding (IBCAUDIT_API_RETRIES, IBCAUDIT_CACHE_DIR, ...).
const EnvPrefix = "IBCAUDIT"

// Config is the fully resolved configuration for one process invocation.
type Config struct {
	DataDir string

	API   APIConfig
	Audit AuditConfig
	Cache CacheConfig
}

// APIConfig holds the C2 query client tunables (api.* keys).
type APIConfig struct {
	Retries   int
	DelayMS   int
	TimeoutMS int
}

// AuditConfig holds the C7 orchestrator tunables (audit.* keys).
type AuditConfig struct {
	DefaultMode        audit.Mode
	EscrowPort         string
	UseBinaryTransport bool
}

// CacheConfig holds the C3 descriptor/version cache tunables (cache.* keys).
type CacheConfig struct {
	VersionCheckIntervalMS int
	SchemaTTLMS            int
	Dir                    string
}

// Defaults returns the hardcoded defaults from spec.md §6's configuration
// table, independent of any viper instance.
func Defaults() Config {
	return Config{
		DataDir: "./data",
		API: APIConfig{
			Retries:   3,
			DelayMS:   250,
			TimeoutMS: 30_000,
		},
		Audit: AuditConfig{
			DefaultMode:        audit.ModeQuick,
			EscrowPort:         "transfer",
			UseBinaryTransport: true,
		},
		Cache: CacheConfig{
			VersionCheckIntervalMS: 86_400_000,
			SchemaTTLMS:            86_400_000,
			Dir:                    "./data/cache",
		},
	}
}

// New builds a viper instance seeded with Defaults, bound to the
// IBCAUDIT_ environment prefix, and pointed at an optional ibcaudit.yaml
// config file in the working directory or $HOME/.ibcaudit. A missing
// config file is not an error; it simply leaves the seeded defaults (and
// any environment overrides) in place.
func New() *viper.Viper {
	v := viper.New()
	d := Defaults()

	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("api.retries", d.API.Retries)
	v.SetDefault("api.delay_ms", d.API.DelayMS)
	v.SetDefault("api.timeout_ms", d.API.TimeoutMS)
	v.SetDefault("audit.default_mode", string(d.Audit.DefaultMode))
	v.SetDefault("audit.escrow_port", d.Audit.EscrowPort)
	v.SetDefault("audit.use_binary_transport", d.Audit.UseBinaryTransport)
	v.SetDefault("cache.version_check_interval_ms", d.Cache.VersionCheckIntervalMS)
	v.SetDefault("cache.schema_ttl_ms", d.Cache.SchemaTTLMS)
	v.SetDefault("cache.dir", d.Cache.Dir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("ibcaudit")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.ibcaudit")
	_ = v.ReadInConfig()

	return v
}

// Load resolves v (after any CLI flags have been bound over it) into a
// typed Config.
func Load(v *viper.Viper) Config {
	return Config{
		DataDir: v.GetString("data_dir"),
		API: APIConfig{
			Retries:   v.GetInt("api.retries"),
			DelayMS:   v.GetInt("api.delay_ms"),
			TimeoutMS: v.GetInt("api.timeout_ms"),
		},
		Audit: AuditConfig{
			DefaultMode:        audit.Mode(v.GetString("audit.default_mode")),
			EscrowPort:         v.GetString("audit.escrow_port"),
			UseBinaryTransport: v.GetBool("audit.use_binary_transport"),
		},
		Cache: CacheConfig{
			VersionCheckIntervalMS: v.GetInt("cache.version_check_interval_ms"),
			SchemaTTLMS:            v.GetInt("cache.schema_ttl_ms"),
			Dir:                    v.GetString("cache.dir"),
		},
	}
}

// QueryClientConfig adapts the resolved API/Audit settings to
// queryclient.Config.
func (c Config) QueryClientConfig() queryclient.Config {
	cfg := queryclient.DefaultConfig()
	cfg.Retries = c.API.Retries
	cfg.BaseDelay = time.Duration(c.API.DelayMS) * time.Millisecond
	cfg.Timeout = time.Duration(c.API.TimeoutMS) * time.Millisecond
	cfg.UseBinaryTransport = c.Audit.UseBinaryTransport
	cfg.EscrowPort = c.Audit.EscrowPort
	return cfg
}

// CacheConfig adapts the resolved cache settings to cache.Config.
func (c Config) CacheConfig() cache.Config {
	return cache.Config{
		VersionCheckInterval: time.Duration(c.Cache.VersionCheckIntervalMS) * time.Millisecond,
		SchemaTTL:            time.Duration(c.Cache.SchemaTTLMS) * time.Millisecond,
		Dir:                  c.Cache.Dir,
	}
}
