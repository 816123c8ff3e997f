// Package config loads flowmap settings.
//
// Settings are layered: built-in defaults, then a config file
// (flowmap.toml, or flowmap.yaml / flowmap.yml), then FLOWMAP_* environment
// variables. Command-line flags are applied last by the CLI.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/flowmap/pkg/cache"
	ferrors "github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/flow"
	"github.com/matzehuels/flowmap/pkg/pipeline"
	"github.com/matzehuels/flowmap/pkg/scene"
)

// FileNames are the config files looked up in the working directory.
var FileNames = []string{"flowmap.toml", "flowmap.yaml", "flowmap.yml"}

// Config holds all settings.
type Config struct {
	Data     string `toml:"data" yaml:"data"`
	Topology string `toml:"topology" yaml:"topology"` // file path or http(s) URL
	Object   string `toml:"object" yaml:"object"`

	// Simplify is the fraction of boundary vertices kept, in (0, 1].
	Simplify float64 `toml:"simplify" yaml:"simplify"`

	Location  string  `toml:"location" yaml:"location"`
	Direction string  `toml:"direction" yaml:"direction"`
	Display   string  `toml:"display" yaml:"display"`
	Width     float64 `toml:"width" yaml:"width"`
	Taper     bool    `toml:"taper" yaml:"taper"`

	Colors scene.Palette `toml:"colors" yaml:"colors"`

	LogLevel string `toml:"log_level" yaml:"log_level"`

	Server ServerConfig `toml:"server" yaml:"server"`
	Cache  CacheConfig  `toml:"cache" yaml:"cache"`

	// Path is the config file that was read, if any.
	Path string `toml:"-" yaml:"-"`
}

// ServerConfig configures flowmap serve.
type ServerConfig struct {
	Addr            string        `toml:"addr" yaml:"addr"`
	Watch           bool          `toml:"watch" yaml:"watch"`
	SessionTTL      time.Duration `toml:"session_ttl" yaml:"session_ttl"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" yaml:"shutdown_timeout"`
	Sessions        string        `toml:"sessions" yaml:"sessions"` // memory, file or redis
}

// CacheConfig selects the render cache backend.
type CacheConfig struct {
	Backend    string `toml:"backend" yaml:"backend"`
	Dir        string `toml:"dir" yaml:"dir"`
	RedisAddr  string `toml:"redis_addr" yaml:"redis_addr"`
	SQLitePath string `toml:"sqlite_path" yaml:"sqlite_path"`
	// KeyPrefix namespaces every cache key, e.g. "flowmap:prod:" when
	// several deployments share one Redis database.
	KeyPrefix string `toml:"key_prefix" yaml:"key_prefix"`
}

// Session store names.
const (
	SessionsMemory = "memory"
	SessionsRedis  = "redis"
	SessionsFile   = "file"
)

// Default returns the built-in settings.
func Default() *Config {
	sel := flow.DefaultSelection()
	return &Config{
		Data:      "data/migration.csv",
		Topology:  "data/states-10m.json",
		Object:    pipeline.DefaultObject,
		Simplify:  pipeline.DefaultSimplify,
		Location:  sel.Location,
		Direction: string(sel.Direction),
		Display:   string(sel.Display),
		Width:     pipeline.DefaultWidth,
		Colors:    scene.DefaultPalette(),
		LogLevel:  "info",
		Server: ServerConfig{
			Addr:            ":8080",
			SessionTTL:      24 * time.Hour,
			ShutdownTimeout: 10 * time.Second,
			Sessions:        SessionsMemory,
		},
		Cache: CacheConfig{
			Backend: cache.BackendFile,
		},
	}
}

// Load reads the config file at path (or the first of [FileNames] found in
// the working directory when path is empty), applies the environment and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findFile(".")
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findFile(dir string) string {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ferrors.Wrap(ferrors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	default:
		return ferrors.New(ferrors.ErrCodeInvalidConfig, "config %s: unsupported extension %q (want .toml, .yaml or .yml)", path, ext)
	}
	c.Path = path
	return nil
}

// ApplyEnv overrides settings from FLOWMAP_* environment variables.
func (c *Config) ApplyEnv() error {
	str := map[string]*string{
		"FLOWMAP_DATA":           &c.Data,
		"FLOWMAP_TOPOLOGY":       &c.Topology,
		"FLOWMAP_OBJECT":         &c.Object,
		"FLOWMAP_LOCATION":       &c.Location,
		"FLOWMAP_DIRECTION":      &c.Direction,
		"FLOWMAP_DISPLAY":        &c.Display,
		"FLOWMAP_OUTBOUND_COLOR": &c.Colors.Outbound,
		"FLOWMAP_INBOUND_COLOR":  &c.Colors.Inbound,
		"FLOWMAP_LOG_LEVEL":      &c.LogLevel,
		"FLOWMAP_ADDR":           &c.Server.Addr,
		"FLOWMAP_SESSIONS":       &c.Server.Sessions,
		"FLOWMAP_CACHE":          &c.Cache.Backend,
		"FLOWMAP_CACHE_DIR":      &c.Cache.Dir,
		"FLOWMAP_REDIS_ADDR":     &c.Cache.RedisAddr,
		"FLOWMAP_SQLITE_PATH":    &c.Cache.SQLitePath,
		"FLOWMAP_CACHE_PREFIX":   &c.Cache.KeyPrefix,
	}
	for name, dst := range str {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}

	floats := map[string]*float64{
		"FLOWMAP_WIDTH":    &c.Width,
		"FLOWMAP_SIMPLIFY": &c.Simplify,
	}
	for name, dst := range floats {
		if v, ok := os.LookupEnv(name); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return envError(name, err)
			}
			*dst = f
		}
	}
	bools := map[string]*bool{
		"FLOWMAP_TAPER": &c.Taper,
		"FLOWMAP_WATCH": &c.Server.Watch,
	}
	for name, dst := range bools {
		if v, ok := os.LookupEnv(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return envError(name, err)
			}
			*dst = b
		}
	}
	durations := map[string]*time.Duration{
		"FLOWMAP_SESSION_TTL":      &c.Server.SessionTTL,
		"FLOWMAP_SHUTDOWN_TIMEOUT": &c.Server.ShutdownTimeout,
	}
	for name, dst := range durations {
		if v, ok := os.LookupEnv(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return envError(name, err)
			}
			*dst = d
		}
	}
	return nil
}

func envError(name string, err error) error {
	return ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "invalid %s", name)
}

// Validate checks every setting.
func (c *Config) Validate() error {
	if _, err := c.Selection(); err != nil {
		return err
	}
	if c.Width <= 0 {
		return ferrors.New(ferrors.ErrCodeInvalidConfig, "width must be positive, got %v", c.Width)
	}
	if c.Simplify <= 0 || c.Simplify > 1 {
		return ferrors.New(ferrors.ErrCodeInvalidConfig, "simplify must be in (0, 1], got %v", c.Simplify)
	}
	for name, hex := range map[string]string{"outbound": c.Colors.Outbound, "inbound": c.Colors.Inbound} {
		if _, err := colorful.Hex(hex); err != nil {
			return ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "%s color %q", name, hex)
		}
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "log level")
	}
	if !slices.Contains(cache.Backends, c.Cache.Backend) {
		return ferrors.New(ferrors.ErrCodeInvalidConfig, "unknown cache backend %q (want one of %s)", c.Cache.Backend, strings.Join(cache.Backends, ", "))
	}
	switch c.Server.Sessions {
	case SessionsMemory, SessionsFile, SessionsRedis:
	default:
		return ferrors.New(ferrors.ErrCodeInvalidConfig, "unknown session store %q (want memory, file or redis)", c.Server.Sessions)
	}
	needsRedis := c.Cache.Backend == cache.BackendRedis || c.Server.Sessions == SessionsRedis
	if needsRedis && c.Cache.RedisAddr == "" {
		return ferrors.New(ferrors.ErrCodeInvalidConfig, "redis needs cache.redis_addr")
	}
	if c.Server.SessionTTL <= 0 {
		return ferrors.New(ferrors.ErrCodeInvalidConfig, "session_ttl must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return ferrors.New(ferrors.ErrCodeInvalidConfig, "shutdown_timeout must be positive")
	}
	return nil
}

// Selection returns the configured initial Selection State.
func (c *Config) Selection() (flow.Selection, error) {
	dir, err := flow.ParseDirection(c.Direction)
	if err != nil {
		return flow.Selection{}, err
	}
	disp, err := flow.ParseDisplay(c.Display)
	if err != nil {
		return flow.Selection{}, err
	}
	sel := flow.Selection{Location: strings.TrimSpace(c.Location), Direction: dir, Display: disp}
	return sel, sel.Validate()
}

// Level returns the configured log level, info when unparsable.
func (c *Config) Level() log.Level {
	l, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return l
}

// PipelineOptions returns the pipeline options for the configured inputs
// and the initial selection.
func (c *Config) PipelineOptions() pipeline.Options {
	sel, _ := c.Selection()
	return pipeline.Options{
		DataPath:     c.Data,
		TopologyPath: c.Topology,
		Object:       c.Object,
		Simplify:     c.Simplify,
		Selection:    sel,
		Width:        c.Width,
		Taper:        c.Taper,
		Palette:      c.Colors,
	}
}

// CacheOptions returns the cache backend configuration. An empty dir is
// filled in from defaultDir.
func (c *Config) CacheOptions(defaultDir string) cache.Config {
	dir := c.Cache.Dir
	if dir == "" {
		dir = defaultDir
	}
	return cache.Config{
		Backend:    c.Cache.Backend,
		Dir:        dir,
		RedisAddr:  c.Cache.RedisAddr,
		SQLitePath: c.Cache.SQLitePath,
	}
}

// Keyer returns the cache keyer, scoped by KeyPrefix when one is set.
func (c *Config) Keyer() cache.Keyer {
	if c.Cache.KeyPrefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(nil, c.Cache.KeyPrefix)
}
