package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	errs "github.com/matzehuels/aarunpack/pkg/errors"
	"github.com/matzehuels/aarunpack/pkg/pipeline"
	"github.com/matzehuels/aarunpack/pkg/repository"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Workers != pipeline.DefaultWorkers {
		t.Errorf("Workers = %d", cfg.Workers)
	}
	if cfg.Cache.Backend != CacheFile || cfg.Session.Backend != SessionFile {
		t.Errorf("backends = %q, %q", cfg.Cache.Backend, cfg.Session.Backend)
	}
	if cfg.RequestTimeout.Duration != 30*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil || cfg == nil {
		t.Fatalf("Load(\"\") = %v, %v", cfg, err)
	}
}

func TestLoad_Full(t *testing.T) {
	path := writeConfig(t, `
coordinates = ["com.example:widget:1.0", "com.example:widget:debug:1.0"]
extraction_dir = "out/aars"
copy_sources = true
force_refresh = true
workers = 2
offline = true
local_repository = "/opt/m2"
request_timeout = "5s"
central = "https://mirror.example.com/maven2"

[cache]
backend = "redis"
redis_addr = "cache:6379"
redis_db = 3
ttl = "1h"

[session]
backend = "mongo"
mongo_uri = "mongodb://db:27017"
mongo_database = "builds"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(cfg.Coordinates) != 2 || cfg.Coordinates[1] != "com.example:widget:debug:1.0" {
		t.Errorf("Coordinates = %v", cfg.Coordinates)
	}
	if !cfg.CopySources || !cfg.ForceRefresh || !cfg.Offline {
		t.Error("boolean keys not decoded")
	}
	if cfg.RequestTimeout.Duration != 5*time.Second || cfg.Cache.TTL.Duration != time.Hour {
		t.Errorf("durations = %v, %v", cfg.RequestTimeout, cfg.Cache.TTL)
	}
	if cfg.Cache.RedisAddr != "cache:6379" || cfg.Cache.RedisDB != 3 {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Session.MongoDatabase != "builds" {
		t.Errorf("session = %+v", cfg.Session)
	}

	opts := cfg.PipelineOptions()
	if opts.Workers != 2 || opts.ExtractionDir != "out/aars" || opts.CompanionTTL != time.Hour {
		t.Errorf("PipelineOptions() = %+v", opts)
	}

	central := cfg.CentralRepository()
	if central.ID != repository.Central.ID || central.URL != "https://mirror.example.com/maven2" {
		t.Errorf("CentralRepository() = %+v", central)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", `workers = `},
		{"unknown key", `wrokers = 2`},
		{"bad duration", `request_timeout = "soon"`},
		{"too many workers", `workers = 1000`},
		{"unknown cache backend", "[cache]\nbackend = \"memcached\""},
		{"unknown session backend", "[session]\nbackend = \"sqlite\""},
		{"bad central", `central = "ftp://mirror"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if !errs.Is(err, errs.ErrCodeInvalidConfig) {
				t.Errorf("Load() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestValidate_RequiresBackendSettings(t *testing.T) {
	cfg := Default()
	cfg.Cache.Backend = CacheRedis
	cfg.Cache.RedisAddr = ""
	if err := cfg.Validate(); err == nil {
		t.Error("redis backend without address should fail")
	}

	cfg = Default()
	cfg.Session.Backend = SessionMongo
	cfg.Session.MongoURI = ""
	if err := cfg.Validate(); err == nil {
		t.Error("mongo backend without uri should fail")
	}
}

func TestDiscover(t *testing.T) {
	got := Discover(filepath.Join("project", "pom.xml"))
	if want := filepath.Join("project", FileName); got != want {
		t.Errorf("Discover() = %q, want %q", got, want)
	}
}
