package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultDataFile          = "events.csv"
	defaultLogLevel          = "warn"
	defaultRepeatHorizonDays = 365
	defaultImportHorizonDays = 365
	defaultMaxOccurrences    = 1000
	defaultICSProductID      = "-//daylog//daylog//EN"
)

// Config is the daylog configuration file.
type Config struct {
	// DataFile is the CSV backing file. Relative paths resolve against the
	// working directory.
	DataFile string `yaml:"data_file"`

	// Timezone is the IANA zone used to decide what "today" is
	// (e.g. "Europe/Helsinki"). Empty means the process local zone.
	Timezone string `yaml:"timezone"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`

	// RepeatHorizonDays bounds `add --repeat` when no --until is given.
	RepeatHorizonDays int `yaml:"repeat_horizon_days"`

	// ImportHorizonDays bounds recurrence expansion of imported VEVENTs.
	ImportHorizonDays int `yaml:"import_horizon_days"`

	// MaxOccurrences caps the number of events one recurrence may produce.
	MaxOccurrences int `yaml:"max_occurrences"`

	// CacheDir holds ETag/Last-Modified caches of subscribed ICS URLs.
	CacheDir string `yaml:"cache_dir"`

	// ICSProductID is written as PRODID on exported calendars.
	ICSProductID string `yaml:"ics_product_id"`
}

// DefaultPath returns $XDG_CONFIG_HOME/daylog/config.yaml (or the platform
// equivalent), falling back to a relative path.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".daylog", "config.yaml")
	}
	return filepath.Join(dir, "daylog", "config.yaml")
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".daylog", "ics-cache")
	}
	return filepath.Join(dir, "daylog", "ics")
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() *Config {
	return &Config{
		DataFile:          defaultDataFile,
		Timezone:          "",
		LogLevel:          defaultLogLevel,
		RepeatHorizonDays: defaultRepeatHorizonDays,
		ImportHorizonDays: defaultImportHorizonDays,
		MaxOccurrences:    defaultMaxOccurrences,
		CacheDir:          defaultCacheDir(),
		ICSProductID:      defaultICSProductID,
	}
}

// Normalize replaces zero or unknown values with their defaults.
func (c *Config) Normalize() {
	if c.DataFile == "" {
		c.DataFile = defaultDataFile
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		c.LogLevel = defaultLogLevel
	}
	if c.RepeatHorizonDays <= 0 {
		c.RepeatHorizonDays = defaultRepeatHorizonDays
	}
	if c.ImportHorizonDays <= 0 {
		c.ImportHorizonDays = defaultImportHorizonDays
	}
	if c.MaxOccurrences <= 0 {
		c.MaxOccurrences = defaultMaxOccurrences
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir()
	}
	if c.ICSProductID == "" {
		c.ICSProductID = defaultICSProductID
	}
}

// Location resolves Timezone. Empty means time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Load reads the YAML config at path. On first run (no file) it writes the
// defaults there with mode 0600 and returns them; if that write fails the
// defaults are still returned alongside the error. Missing keys are filled
// by Normalize.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := DefaultConfig()
		return cfg, Save(path, cfg)
	}
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Save normalizes cfg and replaces the file at path with its YAML form.
// The parent directory is created 0700 and the file ends up 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data, 0o600)
}

// writeFileAtomic writes data to a temp file next to path and renames it
// into place, so readers see either the old or the new content.
func writeFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".daylog-config-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
