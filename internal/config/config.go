package config

import (
	"encoding/json"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/vango-dev/slicestore/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "slicestore.json"

	// AddressEnv overrides Server.Address when set.
	AddressEnv = "SLICESTORE_ADDRESS"

	// DefaultAddress is the default HTTP listen address.
	DefaultAddress = "localhost:7070"

	// DefaultMaxMessageSize is the default limit for dispatch bodies and
	// WebSocket frames, in bytes.
	DefaultMaxMessageSize = 64 << 10

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "slicestore"

	// DefaultMetricsPath is the default metrics endpoint.
	DefaultMetricsPath = "/metrics"

	// DefaultIDPrefix is the default prefix for todo item ids.
	DefaultIDPrefix = "item"
)

// Config represents the complete slicestore.json configuration.
type Config struct {
	// Server contains HTTP and WebSocket settings.
	Server ServerConfig `json:"server"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `json:"metrics"`

	// Tracing contains OpenTelemetry settings.
	Tracing TracingConfig `json:"tracing"`

	// Log contains logger settings.
	Log LogConfig `json:"log"`

	// Todo contains settings for the todo slice.
	Todo TodoConfig `json:"todo"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Address is the host:port to listen on.
	Address string `json:"address,omitempty"`

	// AllowedOrigins lists the origins allowed to open the state feed.
	// Empty means same-origin only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`

	// MaxMessageSize limits request bodies and WebSocket reads.
	MaxMessageSize int64 `json:"maxMessageSize,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled"`
	Namespace string `json:"namespace,omitempty"`
	Path      string `json:"path,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	Enabled    bool   `json:"enabled"`
	TracerName string `json:"tracerName,omitempty"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// TodoConfig contains todo slice settings.
type TodoConfig struct {
	// IDPrefix prefixes generated item ids.
	IDPrefix string `json:"idPrefix,omitempty"`

	// RandomIDs switches from sequential to uuid item ids.
	RandomIDs bool `json:"randomIds,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:        DefaultAddress,
			MaxMessageSize: DefaultMaxMessageSize,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
			Path:      DefaultMetricsPath,
		},
		Tracing: TracingConfig{
			TracerName: DefaultNamespace,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Todo: TodoConfig{
			IDPrefix: DefaultIDPrefix,
		},
	}
}

// Load reads slicestore.json from the specified directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path. A missing file
// is reported as S004 wrapping fs.ErrNotExist.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("S004").
				WithPath(path).
				Wrap(fs.ErrNotExist)
		}
		return nil, errors.New("S001").WithPath(path).Wrap(err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("S001").WithPath(path).Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromWorkingDir loads the nearest slicestore.json above the working
// directory. When there is none it returns Default with the environment
// applied.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, ok := FindProjectRoot(wd)
	if !ok {
		cfg := Default()
		cfg.ApplyEnv()
		return cfg, nil
	}
	return Load(root)
}

// FindProjectRoot walks up from startDir to the first directory holding
// slicestore.json.
func FindProjectRoot(startDir string) (string, bool) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false
	}
	for {
		if Exists(dir) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// ApplyEnv applies environment overrides.
func (c *Config) ApplyEnv() {
	if addr, ok := os.LookupEnv(AddressEnv); ok && addr != "" {
		c.Server.Address = addr
	}
}

// applyDefaults fills in default values for fields cleared by the file.
func (c *Config) applyDefaults() {
	d := Default()
	if c.Server.Address == "" {
		c.Server.Address = d.Server.Address
	}
	if c.Server.MaxMessageSize == 0 {
		c.Server.MaxMessageSize = d.Server.MaxMessageSize
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = d.Metrics.Namespace
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = d.Metrics.Path
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = d.Tracing.TracerName
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Todo.IDPrefix == "" {
		c.Todo.IDPrefix = d.Todo.IDPrefix
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	invalid := func(field, suggestion string) error {
		return errors.New("S002").
			WithPath(c.configPath).
			WithDetail("Invalid value for " + field + ".").
			WithSuggestion(suggestion)
	}

	if _, _, err := net.SplitHostPort(c.Server.Address); err != nil {
		return invalid("server.address", `Use host:port, e.g. "localhost:7070" or ":7070"`)
	}
	if c.Server.MaxMessageSize < 0 {
		return invalid("server.maxMessageSize", "Use a positive number of bytes")
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid("metrics.path", `Start the path with "/"`)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return invalid("log.level", "Use debug, info, warn or error")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format", `Use "text" or "json"`)
	}
	return nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("S003").WithPath(path).Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("S003").WithPath(path).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(l.Level))
	return level, err
}

// NewLogger builds a slog.Logger writing to w.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := l.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
