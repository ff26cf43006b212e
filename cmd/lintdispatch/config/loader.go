// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when the configuration cannot be read or
// fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Environment variables that override file settings.
const (
	EnvTool     = "LINTDISPATCH_TOOL"
	EnvToolPath = "LINTDISPATCH_TOOL_PATH"
	EnvCacheDir = "LINTDISPATCH_CACHE_DIR"
	EnvLogLevel = "LINTDISPATCH_LOG_LEVEL"
)

var validate = validator.New()

func init() {
	_ = validate.RegisterValidation("toolversion", func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		if !strings.HasPrefix(v, "v") {
			v = "v" + v
		}
		return semver.IsValid(v)
	})
}

// LoadOptions selects where configuration is read from.
type LoadOptions struct {
	// PackageDir is the package root. Relative paths in the config resolve
	// against it, and .env and FileName are looked up in it.
	PackageDir string

	// Path is an explicit config file. It must exist when set.
	Path string
}

// Load builds the effective configuration.
//
// # Description
//
// Precedence, lowest to highest: DefaultConfig, the config file, the
// environment (including variables from PackageDir/.env, which never
// override variables already set). Paths are made absolute and the result
// is validated.
//
// # Outputs
//
//   - *Config: The effective configuration.
//   - error: Wraps ErrInvalidConfig for unreadable, malformed or invalid
//     configuration.
func Load(opts LoadOptions) (*Config, error) {
	pkgDir, err := filepath.Abs(opts.PackageDir)
	if err != nil {
		return nil, fmt.Errorf("%w: package directory: %w", ErrInvalidConfig, err)
	}

	if err := godotenv.Load(filepath.Join(pkgDir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: .env: %w", ErrInvalidConfig, err)
	}

	cfg := DefaultConfig()

	path := opts.Path
	if path == "" {
		candidate := filepath.Join(pkgDir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	if path != "" {
		if err := readFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(&cfg)
	resolvePaths(&cfg, pkgDir)

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return &cfg, nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrInvalidConfig, path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: parse %s: %w", ErrInvalidConfig, path, err)
	}
	return nil
}

// applyEnv overlays non-empty environment variables.
func applyEnv(cfg *Config) {
	setFromEnv(&cfg.Tool.Name, EnvTool)
	setFromEnv(&cfg.Tool.Path, EnvToolPath)
	setFromEnv(&cfg.CacheDir, EnvCacheDir)
	setFromEnv(&cfg.Logging.Level, EnvLogLevel)
	setFromEnv(&cfg.Telemetry.TraceExporter, "OTEL_TRACES_EXPORTER")
	setFromEnv(&cfg.Telemetry.MetricExporter, "OTEL_METRICS_EXPORTER")
	setFromEnv(&cfg.Telemetry.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// resolvePaths fills path defaults and anchors relative paths at pkgDir.
func resolvePaths(cfg *Config, pkgDir string) {
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(".build", "lintdispatch")
	}
	cfg.CacheDir = anchor(cfg.CacheDir, pkgDir)

	if cfg.History.Dir == "" {
		cfg.History.Dir = filepath.Join(cfg.CacheDir, "history")
	}
	cfg.History.Dir = anchor(cfg.History.Dir, pkgDir)

	if cfg.Tool.Path != "" {
		cfg.Tool.Path = anchor(cfg.Tool.Path, pkgDir)
	}
	if cfg.Telemetry.PrometheusTextfile != "" {
		cfg.Telemetry.PrometheusTextfile = anchor(cfg.Telemetry.PrometheusTextfile, pkgDir)
	}
}

func anchor(path, dir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
