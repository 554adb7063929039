package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the main configuration for arris.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	General    GeneralConfig    `toml:"general"`
	Completion CompletionConfig `toml:"completion"`
	Codec      CodecConfig      `toml:"codec"`
	Transform  TransformConfig  `toml:"transform"`
	Journal    JournalConfig    `toml:"journal"`
	Filesystem FilesystemConfig `toml:"filesystem"`
}

// GeneralConfig holds editor-wide settings.
type GeneralConfig struct {
	DefaultTimeZone string `toml:"default_time_zone"` // IANA name; dates without an offset are read in this zone
	DefaultLanguage string `toml:"default_language"`  // language tag of written XMP strings
	Debug           bool   `toml:"debug"`
}

// CompletionConfig lists the words offered when completing free-text fields.
type CompletionConfig struct {
	Author  []string `toml:"author"`
	City    []string `toml:"city"`
	Country []string `toml:"country"`
}

// CodecConfig selects the metadata tool.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type CodecConfig struct {
	Type         string `toml:"type"`                    // "exiv2" (default) or "exiftool"
	Exiv2Path    string `toml:"exiv2_path,omitempty"`    // only used for type=exiv2
	ExiftoolPath string `toml:"exiftool_path,omitempty"` // only used for type=exiftool
}

// TransformConfig holds the external tools used for lossless JPEG changes.
type TransformConfig struct {
	JpegtranPath string `toml:"jpegtran_path,omitempty"`
}

// JournalConfig represents configuration for the commit journal.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type JournalConfig struct {
	Type    string `toml:"type"`               // "sqlite", "memory" or "none"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// FilesystemConfig holds filesystem-related settings.
type FilesystemConfig struct {
	Ignore []string `toml:"ignore"`
}

// NewConfig creates a Config with every default filled in.
func NewConfig(baseDir string) *Config {
	cfg := &Config{BaseDir: baseDir}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every unset value.
func (c *Config) ApplyDefaults() {
	if c.LogDir == "" && c.BaseDir != "" {
		c.LogDir = filepath.Join(c.BaseDir, "log")
	}
	if c.General.DefaultTimeZone == "" {
		c.General.DefaultTimeZone = "UTC"
	}
	if c.General.DefaultLanguage == "" {
		c.General.DefaultLanguage = "en-US"
	}
	if c.Codec.Type == "" {
		c.Codec.Type = "exiv2"
	}
	if c.Codec.Exiv2Path == "" {
		c.Codec.Exiv2Path = "exiv2"
	}
	if c.Codec.ExiftoolPath == "" {
		c.Codec.ExiftoolPath = "exiftool"
	}
	if c.Transform.JpegtranPath == "" {
		c.Transform.JpegtranPath = "jpegtran"
	}
	if c.Journal.Type == "" {
		c.Journal.Type = "sqlite"
	}
	if c.Journal.DataDir == "" && c.BaseDir != "" {
		c.Journal.DataDir = filepath.Join(c.BaseDir, "db")
	}
}

// Validate checks the values that would otherwise fail late.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	switch c.Codec.Type {
	case "exiv2", "exiftool":
	default:
		return fmt.Errorf("%w: unknown codec type %q", ErrInvalidConfig, c.Codec.Type)
	}
	switch c.Journal.Type {
	case "sqlite", "memory", "none":
	default:
		return fmt.Errorf("%w: unknown journal type %q", ErrInvalidConfig, c.Journal.Type)
	}
	if c.General.DefaultLanguage == "" {
		return fmt.Errorf("%w: default_language is empty", ErrInvalidConfig)
	}
	return nil
}

// Location resolves the default time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.General.DefaultTimeZone)
	if err != nil {
		return nil, fmt.Errorf("%w: default_time_zone %q: %v", ErrInvalidConfig, c.General.DefaultTimeZone, err)
	}
	return loc, nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Load reads the config at path, falling back to the defaults for baseDir
// when the file does not exist. The result has defaults applied and is
// validated.
func Load(path, baseDir string) (*Config, error) {
	cfg, err := ReadFromFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		cfg = &Config{}
	case err != nil:
		return nil, err
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = baseDir
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
