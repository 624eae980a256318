package config

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/idom/internal/errors"
	"github.com/vango-dev/idom/pkg/layout"
	"github.com/vango-dev/idom/pkg/server"
	"github.com/vango-dev/idom/pkg/upload"
)

// FileName is the name of the configuration file.
const FileName = "idom.yaml"

// Config is the contents of idom.yaml.
type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Layout   LayoutConfig  `yaml:"layout"`
	Sessions SessionConfig `yaml:"sessions"`
	Uploads  UploadConfig  `yaml:"uploads"`
	Log      LogConfig     `yaml:"log"`

	path string
}

// ServerConfig configures the web server.
type ServerConfig struct {
	Address         string   `yaml:"address"`
	Title           string   `yaml:"title"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	MaxMessageSize  int64    `yaml:"max_message_size"`
	EventQueueSize  int      `yaml:"event_queue_size"`
	Metrics         bool     `yaml:"metrics"`
}

// LayoutConfig configures every layout.
type LayoutConfig struct {
	MaxDepth int `yaml:"max_depth"`
}

// SessionConfig selects the session store.
type SessionConfig struct {
	// Store is "memory", "sqlite" or empty for no sessions.
	Store string   `yaml:"store"`
	Path  string   `yaml:"path"`
	TTL   Duration `yaml:"ttl"`
}

// UploadConfig configures file uploads.
type UploadConfig struct {
	// Sink is "none", "disk" or "s3". It receives HTTP uploads.
	Sink              string   `yaml:"sink"`
	Dir               string   `yaml:"dir"`
	MaxSize           int64    `yaml:"max_size"`
	MaxStreams        int64    `yaml:"max_streams"`
	MaxChunkSize      int      `yaml:"max_chunk_size"`
	CompletionTimeout Duration `yaml:"completion_timeout"`
	S3                S3Config `yaml:"s3"`
}

// S3Config locates an S3 bucket. Empty keys mean anonymous access.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration is a time.Duration written as "30s" in YAML.
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return errors.New("E102").WithLocation("", value.Line, value.Column).Wrap(err)
	}
	v, err := time.ParseDuration(s)
	if err != nil || v < 0 {
		return errors.New("E102").
			WithLocation("", value.Line, value.Column).
			WithSuggestion(fmt.Sprintf("%q is not a duration; use a value such as 30s or 5m", s))
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML writes the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration used when idom.yaml is absent.
func Default() *Config {
	sc := server.DefaultConfig()
	fc := upload.DefaultFilesConfig()
	return &Config{
		Server: ServerConfig{
			Address:         sc.Address,
			Title:           "idom",
			ReadTimeout:     Duration(sc.ReadTimeout),
			WriteTimeout:    Duration(sc.WriteTimeout),
			ShutdownTimeout: Duration(sc.ShutdownTimeout),
			MaxMessageSize:  sc.MaxMessageSize,
			EventQueueSize:  sc.EventQueueSize,
			Metrics:         true,
		},
		Layout: LayoutConfig{MaxDepth: layout.DefaultMaxDepth},
		Sessions: SessionConfig{
			Path: "data/sessions.db",
			TTL:  Duration(7 * 24 * time.Hour),
		},
		Uploads: UploadConfig{
			Sink:              "none",
			Dir:               "uploads",
			MaxSize:           upload.DefaultMaxRequestSize,
			MaxStreams:        fc.MaxStreamCount,
			MaxChunkSize:      fc.MaxChunkSize,
			CompletionTimeout: Duration(fc.CompletionTimeout),
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads idom.yaml from dir. A missing file yields Default.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	cfg, err := LoadFile(path)
	if stderrors.Is(err, errors.New("E100")) {
		return Default(), nil
	}
	return cfg, err
}

// LoadFile reads and validates the configuration at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E100").
				WithLocation(path, 0, 0).
				WithSuggestion("Create " + FileName + " or run without one to use the defaults")
		}
		return nil, errors.New("E101").WithLocation(path, 0, 0).Wrap(err)
	}
	cfg, err := Parse(data)
	if err != nil {
		var e *errors.Error
		if stderrors.As(err, &e) && e.Location != nil && e.Location.File == "" {
			e.Location.File = path
		}
		return nil, err
	}
	cfg.path = path
	return cfg, nil
}

// Parse decodes and validates YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		var e *errors.Error
		if stderrors.As(err, &e) {
			return nil, e
		}
		return nil, errors.New("E101").Wrap(err).WithSuggestion("Check the YAML syntax and field types")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Find looks for idom.yaml in dir and its parents and returns the directory
// containing it.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E100")
		}
		dir = parent
	}
}

// Path returns the file the configuration was loaded from, if any.
func (c *Config) Path() string { return c.path }

// Validate checks field values.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Server.Address); err != nil {
		return errors.New("E103").
			WithSuggestion(fmt.Sprintf("server.address %q should look like :8000 or localhost:8000", c.Server.Address))
	}
	if c.Server.MaxMessageSize < 0 || c.Server.EventQueueSize < 0 || c.Layout.MaxDepth < 0 ||
		c.Uploads.MaxSize < 0 || c.Uploads.MaxStreams < 0 || c.Uploads.MaxChunkSize < 0 {
		return errors.New("E104")
	}
	switch c.Sessions.Store {
	case "", "memory":
	case "sqlite":
		if c.Sessions.Path == "" {
			return errors.New("E107").WithSuggestion("Set sessions.path for the sqlite store")
		}
	default:
		return errors.New("E105").WithSuggestion(fmt.Sprintf("Got %q", c.Sessions.Store))
	}
	switch c.Uploads.Sink {
	case "", "none":
	case "disk":
		if c.Uploads.Dir == "" {
			return errors.New("E107").WithSuggestion("Set uploads.dir for the disk sink")
		}
	case "s3":
		if c.Uploads.S3.Bucket == "" {
			return errors.New("E107").WithSuggestion("Set uploads.s3.bucket for the s3 sink")
		}
	default:
		return errors.New("E106").WithSuggestion(fmt.Sprintf("Got %q", c.Uploads.Sink))
	}
	return nil
}

// ServerConfig returns the server configuration.
func (c *Config) ServerConfig() *server.Config {
	files := upload.DefaultFilesConfig()
	files.MaxStreamCount = c.Uploads.MaxStreams
	files.MaxChunkSize = c.Uploads.MaxChunkSize
	files.CompletionTimeout = c.Uploads.CompletionTimeout.Std()

	sc := server.DefaultConfig()
	sc.Address = c.Server.Address
	sc.ReadTimeout = c.Server.ReadTimeout.Std()
	sc.WriteTimeout = c.Server.WriteTimeout.Std()
	sc.ShutdownTimeout = c.Server.ShutdownTimeout.Std()
	sc.MaxMessageSize = c.Server.MaxMessageSize
	sc.EventQueueSize = c.Server.EventQueueSize
	sc.Uploads = &files
	return sc
}

// Logger builds the logger described by the log section.
func (c *Config) Logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
