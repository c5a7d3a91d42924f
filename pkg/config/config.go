// Package config loads the pivotframe configuration file.
//
// The file is TOML and lives at $XDG_CONFIG_HOME/pivotframe/config.toml,
// falling back to ~/.config/pivotframe/config.toml. Every key is optional;
// missing keys keep their [Default] values. Command-line flags override the
// file.
//
//	[solver]
//	ticks = 100
//
//	[cache]
//	backend = "file"      # file, redis or none
//	dir = "~/.cache/pivotframe"
//	redis_addr = "localhost:6379"
//	ttl = "168h"
//
//	[storage]
//	backend = "file"      # file or mongo
//	dir = "~/.local/share/pivotframe/library"
//	mongo_uri = "mongodb://localhost:27017"
//	database = "pivotframe"
//
//	[server]
//	addr = ":8080"
//	share_base = "https://example.com/editor"
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	pferrors "github.com/matzehuels/pivotframe/pkg/errors"
)

// AppName names the config, cache and data directories.
const AppName = "pivotframe"

// Backend names.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
	BackendNone   = "none"
)

// Config is the whole configuration file.
type Config struct {
	Solver  Solver  `toml:"solver"`
	Cache   Cache   `toml:"cache"`
	Storage Storage `toml:"storage"`
	Server  Server  `toml:"server"`
	Editor  Editor  `toml:"editor"`
}

// Solver configures simulation.
type Solver struct {
	Ticks int `toml:"ticks"`
}

// Cache configures the pipeline cache.
type Cache struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	TTL       Duration `toml:"ttl"`
}

// Storage configures the frame library.
type Storage struct {
	Backend  string `toml:"backend"`
	Dir      string `toml:"dir"`
	MongoURI string `toml:"mongo_uri"`
	Database string `toml:"database"`
}

// Server configures the HTTP API.
type Server struct {
	Addr      string `toml:"addr"`
	ShareBase string `toml:"share_base"`
}

// Editor configures the interactive editor.
type Editor struct {
	SessionDir   string `toml:"session_dir"`
	TicksPerDrag int    `toml:"ticks_per_drag"`
}

// Duration is a time.Duration written as a Go duration string in TOML.
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

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Solver: Solver{Ticks: 100},
		Cache: Cache{
			Backend:   BackendFile,
			Dir:       filepath.Join(xdgDir("XDG_CACHE_HOME", ".cache"), AppName),
			RedisAddr: "localhost:6379",
			TTL:       Duration{7 * 24 * time.Hour},
		},
		Storage: Storage{
			Backend:  BackendFile,
			Dir:      filepath.Join(xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share")), AppName, "library"),
			MongoURI: "mongodb://localhost:27017",
			Database: AppName,
		},
		Server: Server{Addr: ":8080"},
		Editor: Editor{
			SessionDir:   filepath.Join(xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state")), AppName, "sessions"),
			TicksPerDrag: 1,
		},
	}
}

// DefaultPath returns the location of the config file.
func DefaultPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), AppName, "config.toml")
}

// Load reads the config file at path on top of [Default]. A missing file is
// not an error. An empty path means [DefaultPath].
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}

	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, pferrors.Wrap(pferrors.ErrCodeInvalidFormat, err, "config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, pferrors.New(pferrors.ErrCodeInvalidFormat, "config %s: unknown key %q", path, undecoded[0].String())
	}

	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	cfg.Storage.Dir = expandHome(cfg.Storage.Dir)
	cfg.Editor.SessionDir = expandHome(cfg.Editor.SessionDir)
	return cfg, cfg.Validate()
}

// Validate checks backend names and numeric ranges.
func (c Config) Validate() error {
	if err := pferrors.ValidateTicks(c.Solver.Ticks); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendMemory, BackendNone:
	default:
		return pferrors.New(pferrors.ErrCodeInvalidInput, "cache backend %q: want file, redis, memory or none", c.Cache.Backend)
	}
	switch c.Storage.Backend {
	case BackendFile, BackendMongo:
	default:
		return pferrors.New(pferrors.ErrCodeInvalidInput, "storage backend %q: want file or mongo", c.Storage.Backend)
	}
	if c.Editor.TicksPerDrag < 1 {
		return pferrors.New(pferrors.ErrCodeInvalidInput, "editor ticks_per_drag must be at least 1")
	}
	if c.Cache.TTL.Duration < 0 {
		return pferrors.New(pferrors.ErrCodeInvalidInput, "cache ttl cannot be negative")
	}
	if c.Server.ShareBase != "" {
		if err := pferrors.ValidateURL(c.Server.ShareBase); err != nil {
			return err
		}
	}
	return nil
}

// Write encodes c as TOML to path, creating parent directories.
func Write(path string, c Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return fmt.Errorf("encode config: %w", err)
	}
	return f.Close()
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName)
	}
	return filepath.Join(home, fallback)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
