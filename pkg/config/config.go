// Package config loads the aarunpack.toml configuration file.
//
// Every key is optional. A missing file yields [Default], and command-line
// flags override whatever the file sets:
//
//	coordinates      = ["androidx.graphics:graphics-core:1.0.2"]
//	extraction_dir   = "target/aar-extracted"
//	copy_sources     = true
//	workers          = 4
//	request_timeout  = "30s"
//
//	[cache]
//	backend    = "redis"
//	redis_addr = "localhost:6379"
//	ttl        = "24h"
//
//	[session]
//	backend   = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/aarunpack/pkg/errors"
	"github.com/matzehuels/aarunpack/pkg/pipeline"
	"github.com/matzehuels/aarunpack/pkg/repository"
)

// FileName is the configuration file looked up next to the POM.
const FileName = "aarunpack.toml"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Session backends.
const (
	SessionFile  = "file"
	SessionMongo = "mongo"
)

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the decoded configuration file.
type Config struct {
	Coordinates     []string `toml:"coordinates"`
	ExtractionDir   string   `toml:"extraction_dir"`
	CopySources     bool     `toml:"copy_sources"`
	ForceRefresh    bool     `toml:"force_refresh"`
	Workers         int      `toml:"workers"`
	Offline         bool     `toml:"offline"`
	LocalRepository string   `toml:"local_repository"`
	RequestTimeout  Duration `toml:"request_timeout"`

	// Central overrides the Maven Central URL (e.g. a corporate mirror).
	Central string `toml:"central"`

	Cache   CacheConfig   `toml:"cache"`
	Session SessionConfig `toml:"session"`
}

// CacheConfig selects where remembered sources misses live.
type CacheConfig struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"`
	TTL           Duration `toml:"ttl"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
}

// SessionConfig selects where published sessions are stored.
type SessionConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Workers:        pipeline.DefaultWorkers,
		RequestTimeout: Duration{30 * time.Second},
		Cache: CacheConfig{
			Backend:   CacheFile,
			TTL:       Duration{24 * time.Hour},
			RedisAddr: "localhost:6379",
		},
		Session: SessionConfig{
			Backend:       SessionFile,
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "aarunpack",
		},
	}
}

// Load reads path on top of [Default]. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "reading %s", path)
	}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "parsing %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Discover returns the configuration file path for the POM at pomPath.
func Discover(pomPath string) string {
	return filepath.Join(filepath.Dir(pomPath), FileName)
}

// Validate checks value ranges and backend names.
func (c *Config) Validate() error {
	if c.Workers < 0 || c.Workers > pipeline.MaxWorkers {
		return errs.New(errs.ErrCodeInvalidConfig, "workers must be between 1 and %d, got %d", pipeline.MaxWorkers, c.Workers)
	}
	if c.RequestTimeout.Duration < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "request_timeout cannot be negative")
	}
	if c.Central != "" {
		if err := errs.ValidateRepositoryURL(c.Central); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidConfig, err, "central")
		}
	}

	switch c.Cache.Backend {
	case CacheFile, CacheNone, "":
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errs.New(errs.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
		}
	default:
		return errs.New(errs.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "cache.ttl cannot be negative")
	}

	switch c.Session.Backend {
	case SessionFile, "":
	case SessionMongo:
		if c.Session.MongoURI == "" || c.Session.MongoDatabase == "" {
			return errs.New(errs.ErrCodeInvalidConfig, "session.mongo_uri and session.mongo_database are required for the mongo backend")
		}
	default:
		return errs.New(errs.ErrCodeInvalidConfig, "unknown session backend %q", c.Session.Backend)
	}
	return nil
}

// CentralRepository returns Maven Central, or the configured mirror
// standing in for it.
func (c *Config) CentralRepository() repository.Descriptor {
	d := repository.Central
	if c.Central != "" {
		d.URL = c.Central
	}
	return d
}

// PipelineOptions maps the run settings onto pipeline options.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Coordinates:   append([]string(nil), c.Coordinates...),
		ExtractionDir: c.ExtractionDir,
		CopySources:   c.CopySources,
		ForceRefresh:  c.ForceRefresh,
		Workers:       c.Workers,
		CompanionTTL:  c.Cache.TTL.Duration,
	}
}
