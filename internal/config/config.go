// Package config layers settings: defaults, then ~/.optodo/config.json
// if present, then OPTODO_* environment overrides.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const configFileName = "config.json"

type Config struct {
	Store     string `json:"store"`      // "json" | "sqlite" | "mem"
	DataFile  string `json:"data_file"`  // json store path ("" = ./todos.json)
	DBFile    string `json:"db_file"`    // sqlite path
	LatencyMS int    `json:"latency_ms"` // artificial mutation latency
	LogFile   string `json:"log_file"`   // "" = stderr only
}

func defaults() Config {
	return Config{
		Store:     "json",
		LatencyMS: 2000,
	}
}

func dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "home")
	}
	return filepath.Join(home, ".optodo"), nil
}

func filePath() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, configFileName), nil
}

// Load builds the effective config.
func Load() (Config, error) {
	c := defaults()

	// 1) file, when present
	p, err := filePath()
	if err != nil {
		return c, err
	}
	b, err := os.ReadFile(p)
	if err == nil {
		if err := json.Unmarshal(b, &c); err != nil {
			return c, errors.Wrap(err, "parse config")
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return c, errors.Wrap(err, "read config")
	}

	// 2) env overrides
	applyEnv(&c)

	switch c.Store {
	case "json", "sqlite", "mem":
	default:
		return c, errors.Errorf("unknown store backend %q", c.Store)
	}
	return c, nil
}

func applyEnv(c *Config) {
	if v := strings.TrimSpace(os.Getenv("OPTODO_STORE")); v != "" {
		c.Store = v
	}
	if v := strings.TrimSpace(os.Getenv("OPTODO_DATA")); v != "" {
		c.DataFile = v
	}
	if v := strings.TrimSpace(os.Getenv("OPTODO_DB")); v != "" {
		c.DBFile = v
	}
	if v := strings.TrimSpace(os.Getenv("OPTODO_LOG_FILE")); v != "" {
		c.LogFile = v
	}
	if v := strings.TrimSpace(os.Getenv("OPTODO_LATENCY_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.LatencyMS = n
		}
	}
}

// Save writes c to ~/.optodo/config.json, creating the directory with
// 0700.
func Save(c Config) error {
	d, err := dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(d, 0o700); err != nil {
		return errors.Wrap(err, "mkdir")
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal")
	}
	p, _ := filePath()
	if err := os.WriteFile(p, b, 0o644); err != nil {
		return errors.Wrap(err, "write")
	}
	return nil
}

// Latency converts the configured latency to a duration.
func (c Config) Latency() time.Duration {
	return time.Duration(c.LatencyMS) * time.Millisecond
}

// DBPath returns the sqlite file, defaulting next to the config file.
func (c Config) DBPath() (string, error) {
	if c.DBFile != "" {
		return c.DBFile, nil
	}
	d, err := dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(d, 0o700); err != nil {
		return "", errors.Wrap(err, "mkdir")
	}
	return filepath.Join(d, "todos.sqlite3"), nil
}
