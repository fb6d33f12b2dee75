/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/suparena/tablestore/errors"
	"github.com/suparena/tablestore/storagemodels"
)

// DefaultEnvPrefix prefixes the environment variables read by LoadEnv.
const DefaultEnvPrefix = "TABLESTORE_"

// Config holds store-wide settings.
type Config struct {
	DataDir            string                    `yaml:"data_dir" json:"dataDir,omitempty"` // Base directory for relative table paths
	DefaultEntryType   storagemodels.EntryType   `yaml:"default_entry_type" json:"defaultEntryType"`
	DefaultCompression storagemodels.Compression `yaml:"default_compression" json:"defaultCompression,omitempty"`
	SyncOnWrite        bool                      `yaml:"sync_on_write" json:"syncOnWrite,omitempty"`
	LogLevel           string                    `yaml:"log_level" json:"logLevel,omitempty"`   // debug, info, warn, error
	LogFormat          string                    `yaml:"log_format" json:"logFormat,omitempty"` // text or json
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		DefaultEntryType:   storagemodels.Set,
		DefaultCompression: storagemodels.CompressionNone,
		LogLevel:           "info",
		LogFormat:          "text",
	}
}

// Load reads a YAML config file over the defaults. An empty path yields the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Merge(&file)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadEnv loads the given .env files (missing files are skipped) into the
// process environment and applies prefixed variables on top of c.
// Variables already set in the environment win over .env files.
func (c *Config) LoadEnv(prefix string, files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}

	if v, ok := os.LookupEnv(prefix + "DATA_DIR"); ok {
		c.DataDir = v
	}
	if v, ok := os.LookupEnv(prefix + "DEFAULT_ENTRY_TYPE"); ok {
		et, err := storagemodels.ParseEntryType(v)
		if err != nil {
			return errors.NewValidationError(prefix+"DEFAULT_ENTRY_TYPE", err.Error())
		}
		c.DefaultEntryType = et
	}
	if v, ok := os.LookupEnv(prefix + "DEFAULT_COMPRESSION"); ok {
		comp, err := storagemodels.ParseCompression(v)
		if err != nil {
			return errors.NewValidationError(prefix+"DEFAULT_COMPRESSION", err.Error())
		}
		c.DefaultCompression = comp
	}
	if v, ok := os.LookupEnv(prefix + "SYNC_ON_WRITE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.NewValidationError(prefix+"SYNC_ON_WRITE", err.Error())
		}
		c.SyncOnWrite = b
	}
	if v, ok := os.LookupEnv(prefix + "LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv(prefix + "LOG_FORMAT"); ok {
		c.LogFormat = v
	}
	return c.Validate()
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.DataDir != "" {
		c.DataDir = source.DataDir
	}
	if source.DefaultEntryType != storagemodels.Set {
		c.DefaultEntryType = source.DefaultEntryType
	}
	if source.DefaultCompression != "" {
		c.DefaultCompression = source.DefaultCompression
	}
	if source.SyncOnWrite {
		c.SyncOnWrite = true
	}
	if source.LogLevel != "" {
		c.LogLevel = source.LogLevel
	}
	if source.LogFormat != "" {
		c.LogFormat = source.LogFormat
	}
}

// Validate checks that every field holds a known value.
func (c *Config) Validate() error {
	if !c.DefaultEntryType.Valid() {
		return errors.NewValidationError("default_entry_type", fmt.Sprintf("unknown entry type %d", int(c.DefaultEntryType)))
	}
	if _, err := storagemodels.ParseCompression(string(c.DefaultCompression)); err != nil {
		return errors.NewValidationError("default_compression", err.Error())
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return errors.NewValidationError("log_level", err.Error())
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return errors.NewValidationError("log_format", fmt.Sprintf("unknown format %q", c.LogFormat))
	}
	return nil
}

// StoreOptions returns the table options every new table starts from.
func (c *Config) StoreOptions() storagemodels.Options {
	opts := storagemodels.DefaultOptions()
	opts.EntryType = c.DefaultEntryType
	if c.DefaultCompression != "" {
		opts.Compression = c.DefaultCompression
	}
	opts.SyncOnWrite = c.SyncOnWrite
	return opts
}

// NewLogger builds a slog.Logger writing to w at the configured level and
// format.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
