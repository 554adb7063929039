package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir: "/home/user/.local/share/arris",
		LogDir:  "/home/user/.local/share/arris/log",
		General: GeneralConfig{DefaultTimeZone: "Europe/Oslo", DefaultLanguage: "nb-NO", Debug: true},
		Completion: CompletionConfig{
			Author:  []string{"Alice", "Bob"},
			City:    []string{"Oslo"},
			Country: []string{"Norway", "Sweden"},
		},
		Codec:      CodecConfig{Type: "exiftool", ExiftoolPath: "/usr/bin/exiftool"},
		Transform:  TransformConfig{JpegtranPath: "/usr/bin/jpegtran"},
		Journal:    JournalConfig{Type: "sqlite", DataDir: "/home/user/.local/share/arris/db"},
		Filesystem: FilesystemConfig{Ignore: []string{"*.tmp", "scans"}},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if got.General != original.General {
		t.Errorf("General = %+v, want %+v", got.General, original.General)
	}
	if len(got.Completion.Author) != 2 || got.Completion.Author[1] != "Bob" {
		t.Errorf("Completion.Author = %v, want [Alice Bob]", got.Completion.Author)
	}
	if len(got.Completion.Country) != 2 {
		t.Errorf("Completion.Country = %v, want 2 entries", got.Completion.Country)
	}
	if got.Codec != original.Codec {
		t.Errorf("Codec = %+v, want %+v", got.Codec, original.Codec)
	}
	if got.Transform != original.Transform {
		t.Errorf("Transform = %+v, want %+v", got.Transform, original.Transform)
	}
	if got.Journal != original.Journal {
		t.Errorf("Journal = %+v, want %+v", got.Journal, original.Journal)
	}
	if len(got.Filesystem.Ignore) != 2 {
		t.Fatalf("len(Filesystem.Ignore) = %d, want 2", len(got.Filesystem.Ignore))
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/arris")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"BaseDir", cfg.BaseDir, "/data/arris"},
		{"LogDir", cfg.LogDir, "/data/arris/log"},
		{"DefaultTimeZone", cfg.General.DefaultTimeZone, "UTC"},
		{"DefaultLanguage", cfg.General.DefaultLanguage, "en-US"},
		{"Codec.Type", cfg.Codec.Type, "exiv2"},
		{"Codec.Exiv2Path", cfg.Codec.Exiv2Path, "exiv2"},
		{"Transform.JpegtranPath", cfg.Transform.JpegtranPath, "jpegtran"},
		{"Journal.Type", cfg.Journal.Type, "sqlite"},
		{"Journal.DataDir", cfg.Journal.DataDir, "/data/arris/db"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown time zone", func(c *Config) { c.General.DefaultTimeZone = "Mars/Olympus" }},
		{"unknown codec", func(c *Config) { c.Codec.Type = "memory" }},
		{"unknown journal", func(c *Config) { c.Journal.Type = "postgres" }},
		{"empty language", func(c *Config) { c.General.DefaultLanguage = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("/data/arris")
			tt.modify(cfg)

			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	cfg := NewConfig("/data/arris")
	cfg.General.DefaultTimeZone = "Europe/Oslo"

	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location() error = %v", err)
	}
	if loc.String() != "Europe/Oslo" {
		t.Errorf("Location() = %s, want Europe/Oslo", loc)
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "arris.toml")

		if err := Init(path, NewConfig(dir)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "arris.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		err := Init(path, cfg)
		if err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "arris.toml")
		cfg := NewConfig(dir)
		cfg.Journal = JournalConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Journal.Type != "memory" {
			t.Errorf("Journal.Type = %q, want %q", got.Journal.Type, "memory")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/arris.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("missing file gives defaults", func(t *testing.T) {
		dir := t.TempDir()

		cfg, err := Load(filepath.Join(dir, "arris.toml"), dir)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.BaseDir != dir {
			t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, dir)
		}
		if cfg.Codec.Type != "exiv2" {
			t.Errorf("Codec.Type = %q, want exiv2", cfg.Codec.Type)
		}
	})

	t.Run("partial file is completed", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "arris.toml")
		content := strings.Join([]string{
			"[general]",
			`default_time_zone = "Asia/Tokyo"`,
			"[completion]",
			`city = ["Kyoto", "Osaka"]`,
		}, "\n")
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(path, dir)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.General.DefaultTimeZone != "Asia/Tokyo" {
			t.Errorf("DefaultTimeZone = %q, want Asia/Tokyo", cfg.General.DefaultTimeZone)
		}
		if cfg.General.DefaultLanguage != "en-US" {
			t.Errorf("DefaultLanguage = %q, want en-US", cfg.General.DefaultLanguage)
		}
		if len(cfg.Completion.City) != 2 {
			t.Errorf("Completion.City = %v, want 2 entries", cfg.Completion.City)
		}
		if cfg.LogDir != filepath.Join(dir, "log") {
			t.Errorf("LogDir = %q, want %q", cfg.LogDir, filepath.Join(dir, "log"))
		}
	})

	t.Run("invalid time zone", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "arris.toml")
		if err := os.WriteFile(path, []byte("[general]\ndefault_time_zone = \"Nowhere/Land\"\n"), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := Load(path, dir)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Load() error = %v, want ErrInvalidConfig", err)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "arris.toml")
		if err := os.WriteFile(path, []byte("[general\n"), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := Load(path, dir); err == nil {
			t.Error("Load() expected error for malformed file")
		}
	})
}
