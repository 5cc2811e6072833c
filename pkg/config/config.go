// Package config loads lineagewalk settings.
//
// Sources are layered, later ones winning:
//
//  1. built-in defaults
//  2. a config file (lineagewalk.yaml, lineagewalk.yml or lineagewalk.toml)
//  3. LINEAGEWALK_* environment variables, with "__" separating nested keys
//     (LINEAGEWALK_SNOWFLAKE__ACCOUNT sets snowflake.account)
//  4. command-line flags that were explicitly set
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/matzehuels/lineagewalk/pkg/errors"
	"github.com/matzehuels/lineagewalk/pkg/lineage"
	"github.com/matzehuels/lineagewalk/pkg/snowflake"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "LINEAGEWALK_"

// DefaultFiles are searched in the working directory when no file is given.
var DefaultFiles = []string{"lineagewalk.yaml", "lineagewalk.yml", "lineagewalk.toml"}

// Formats lists the accepted output formats.
var Formats = []string{"table", "json", "csv", "markdown", "dot", "svg"}

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the resolved configuration.
type Config struct {
	Direction       string   `koanf:"direction"`
	MaxDistance     int      `koanf:"max_distance"`
	Concurrency     int      `koanf:"concurrency"`
	RootConcurrency int      `koanf:"root_concurrency"`
	Objects         []string `koanf:"objects"`
	Format          string   `koanf:"format"`

	Snowflake snowflake.Config `koanf:"snowflake"`
	Cache     CacheConfig      `koanf:"cache"`
	Server    ServerConfig     `koanf:"server"`

	// File is the config file that was loaded, if any.
	File string `koanf:"-"`
}

// CacheConfig selects and tunes the lookup cache.
type CacheConfig struct {
	Backend       string        `koanf:"backend"` // file, redis or none
	TTL           time.Duration `koanf:"ttl"`
	Dir           string        `koanf:"dir"` // file backend; empty means the user cache dir
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

var defaults = map[string]any{
	"direction":               string(lineage.Upstream),
	"max_distance":            lineage.DefaultMaxDistance,
	"concurrency":             lineage.DefaultConcurrency,
	"root_concurrency":        1,
	"format":                  "table",
	"snowflake.authenticator": snowflake.AuthPassword,
	"snowflake.login_timeout": "60s",
	"cache.backend":           CacheFile,
	"cache.ttl":               "24h",
	"cache.redis_addr":        "localhost:6379",
	"server.addr":             ":8080",
	"server.shutdown_timeout": "10s",
}

// flagKeys maps flag names to config keys. Flags not listed here are not
// configuration.
var flagKeys = map[string]string{
	"direction":        "direction",
	"max-distance":     "max_distance",
	"concurrency":      "concurrency",
	"root-concurrency": "root_concurrency",
	"format":           "format",
	"account":          "snowflake.account",
	"user":             "snowflake.user",
	"role":             "snowflake.role",
	"warehouse":        "snowflake.warehouse",
	"authenticator":    "snowflake.authenticator",
	"cache-backend":    "cache.backend",
	"cache-ttl":        "cache.ttl",
	"cache-dir":        "cache.dir",
	"redis-addr":       "cache.redis_addr",
	"addr":             "server.addr",
}

// Load resolves the configuration. path may be empty, in which case the
// [DefaultFiles] are tried. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	path = findFile(path)
	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfig, err, "read config file %s", path)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "decode config")
	}
	cfg.File = path
	return &cfg, nil
}

// envKey maps LINEAGEWALK_SNOWFLAKE__ACCOUNT to snowflake.account. The
// objects list is split on commas.
func envKey(name, value string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	if key == "objects" {
		var objs []string
		for _, o := range strings.Split(value, ",") {
			if o = strings.TrimSpace(o); o != "" {
				objs = append(objs, o)
			}
		}
		return key, objs
	}
	return key, value
}

func findFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range DefaultFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".toml":
		return TOML(), nil
	default:
		return nil, errors.New(errors.ErrCodeConfig, "unsupported config file type %q (want .yaml, .yml or .toml)", filepath.Ext(path))
	}
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if _, err := lineage.ParseDirection(c.Direction); err != nil {
		return err
	}
	if c.MaxDistance < 1 || c.MaxDistance > lineage.MaxDistanceCeiling {
		return errors.New(errors.ErrCodeInvalidInput, "max_distance %d out of range 1..%d", c.MaxDistance, lineage.MaxDistanceCeiling)
	}
	if c.Concurrency < 1 || c.RootConcurrency < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "concurrency must be at least 1")
	}
	if c.Concurrency > lineage.MaxConcurrency || c.RootConcurrency > lineage.MaxConcurrency {
		return errors.New(errors.ErrCodeInvalidInput, "concurrency must be at most %d", lineage.MaxConcurrency)
	}
	if !slices.Contains(Formats, c.Format) {
		return errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (want one of %s)", c.Format, strings.Join(Formats, ", "))
	}
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return errors.New(errors.ErrCodeConfig, "unknown cache.backend %q (want file, redis or none)", c.Cache.Backend)
	}
	return nil
}

// LineageOptions converts the traversal settings.
func (c *Config) LineageOptions() (lineage.Options, error) {
	dir, err := lineage.ParseDirection(c.Direction)
	if err != nil {
		return lineage.Options{}, err
	}
	return lineage.Options{
		Direction:       dir,
		MaxDistance:     c.MaxDistance,
		Concurrency:     c.Concurrency,
		RootConcurrency: c.RootConcurrency,
	}, nil
}

// Roots parses the configured objects. Extra names given on the command line
// are appended.
func (c *Config) Roots(extra ...string) ([]lineage.ObjectKey, error) {
	names := append(slices.Clone(c.Objects), extra...)
	keys := make([]lineage.ObjectKey, 0, len(names))
	for _, n := range names {
		k, err := lineage.ParseObjectKey(n)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}
