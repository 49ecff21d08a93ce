// Package config loads the optional njtree.toml file.
//
// Every section is optional; missing keys keep their defaults and command
// line flags override whatever the file sets:
//
//	[bootstrap]
//	replicates = 100
//	seed = 42
//	workers = 0          # 0 means one per CPU
//
//	[output]
//	dir = "."
//	edges = "edges.txt"
//	tree = "tree.txt"
//	bootstrap = "bootstrap.txt"
//	distances = "genetic-distances.txt"
//
//	[cache]
//	backend = "file"     # file, redis or none
//	redis_url = "redis://localhost:6379/0"
//	ttl = "168h"
//
//	[server]
//	addr = ":8080"
package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	nterrors "github.com/matzehuels/njtree/pkg/errors"
	"github.com/matzehuels/njtree/pkg/pipeline"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "njtree.toml"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// DefaultAddr is the API listen address.
const DefaultAddr = ":8080"

// Config is the decoded configuration file.
type Config struct {
	Bootstrap Bootstrap `toml:"bootstrap"`
	Output    Output    `toml:"output"`
	Cache     Cache     `toml:"cache"`
	Server    Server    `toml:"server"`

	// Path is the file the configuration was read from, or "" for defaults.
	Path string `toml:"-"`
}

// Bootstrap holds the resampling defaults.
type Bootstrap struct {
	Replicates int    `toml:"replicates"`
	Seed       uint64 `toml:"seed"`
	Workers    int    `toml:"workers"`
}

// Output holds the output directory and artifact file names.
type Output struct {
	Dir string `toml:"dir"`
	pipeline.FileNames
}

// Cache selects and tunes the cache backend.
type Cache struct {
	Backend  string        `toml:"backend"`
	RedisURL string        `toml:"redis_url"`
	TTL      time.Duration `toml:"ttl"`
}

// Server holds API settings.
type Server struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Bootstrap: Bootstrap{
			Replicates: pipeline.DefaultReplicates,
			Seed:       pipeline.DefaultSeed,
		},
		Output: Output{
			Dir:       ".",
			FileNames: pipeline.DefaultFileNames,
		},
		Cache:  Cache{Backend: BackendFile},
		Server: Server{Addr: DefaultAddr},
	}
}

// Load reads the configuration at path. An empty path tries [DefaultFile]
// and falls back to [Default] when it does not exist; an explicit path that
// does not exist is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nterrors.Wrap(nterrors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return nil, nterrors.Wrap(nterrors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return nil, nterrors.Wrap(nterrors.ErrCodeInvalidConfig, err, "config %s", path)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes TOML text on top of [Default] and validates the result.
// Unknown keys are rejected so that typos do not pass silently.
func Parse(text string) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(text, cfg)
	if err != nil {
		return nil, nterrors.Wrap(nterrors.ErrCodeInvalidConfig, err, "decode")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, nterrors.New(nterrors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and names.
func (c *Config) Validate() error {
	if err := nterrors.ValidateReplicates(c.Bootstrap.Replicates); err != nil {
		return nterrors.Wrap(nterrors.ErrCodeInvalidConfig, err, "[bootstrap] replicates")
	}
	if err := nterrors.ValidateSeed(c.Bootstrap.Seed); err != nil {
		return nterrors.Wrap(nterrors.ErrCodeInvalidConfig, err, "[bootstrap] seed")
	}
	if c.Bootstrap.Workers < 0 {
		return nterrors.New(nterrors.ErrCodeInvalidConfig, "[bootstrap] workers cannot be negative")
	}
	if c.Output.Dir == "" {
		return nterrors.New(nterrors.ErrCodeInvalidConfig, "[output] dir cannot be empty")
	}
	if err := c.Output.FileNames.Validate(); err != nil {
		return nterrors.Wrap(nterrors.ErrCodeInvalidConfig, err, "[output]")
	}
	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisURL == "" {
			return nterrors.New(nterrors.ErrCodeInvalidConfig, "[cache] redis backend needs redis_url")
		}
	default:
		return nterrors.New(nterrors.ErrCodeInvalidConfig, "[cache] unknown backend %q (want file, redis or none)", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return nterrors.New(nterrors.ErrCodeInvalidConfig, "[cache] ttl cannot be negative")
	}
	if c.Server.Addr == "" {
		return nterrors.New(nterrors.ErrCodeInvalidConfig, "[server] addr cannot be empty")
	}
	return nil
}
