// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where the config file is searched, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/boonscroll/config.yaml",
	"/etc/boonscroll/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "BOONSCROLL_CONFIG"

// Load reads configuration with layered sources, lowest priority first:
//
//  1. Built-in defaults (DefaultConfig)
//  2. YAML config file, if one exists
//  3. Environment variables
//
// The result is validated before being returned; a validation failure is a
// startup failure, surfaced through the health endpoint by the caller.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices
// when they arrive as env-var strings.
var sliceConfigPaths = []string{
	"api.cors_origins",
	"bridge.relays",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf paths.
// Unmapped variables are dropped so stray environment noise cannot leak
// into configuration.
func envTransformFunc(key string) string {
	mappings := map[string]string{
		"HTTP_HOST":    "server.host",
		"HTTP_PORT":    "server.port",
		"HTTP_TIMEOUT": "server.timeout",

		"LOG_LEVEL":  "logging.level",
		"LOG_FORMAT": "logging.format",
		"LOG_CALLER": "logging.caller",

		"FETCH_TIMEOUT":            "fetch.timeout",
		"FETCH_PAGE_SIZE":          "fetch.page_size",
		"FETCH_FILTERED_PAGE_SIZE": "fetch.filtered_page_size",
		"FETCH_REFILL_MULTIPLE":    "fetch.refill_multiple",
		"FETCH_MAX_BATCH":          "fetch.max_batch",

		"SESSION_IDLE_TTL":       "sessions.idle_ttl",
		"SESSION_SWEEP_INTERVAL": "sessions.sweep_interval",

		"USERS_DIR": "users.dir",

		"BRIDGE_ENABLED":       "bridge.enabled",
		"BRIDGE_RELAYS":        "bridge.relays",
		"BRIDGE_SECRET_KEY":    "bridge.secret_key",
		"BRIDGE_EAGER":         "bridge.eager",
		"BRIDGE_STATS_TTL":     "bridge.stats_ttl",
		"BRIDGE_QUERY_TIMEOUT": "bridge.query_timeout",

		"RATE_LIMIT_REQUESTS": "api.rate_limit_requests",
		"RATE_LIMIT_WINDOW":   "api.rate_limit_window",
		"CORS_ORIGINS":        "api.cors_origins",

		"SCROLL_BATCH_SIZE":         "scroll.algorithm.batch_size",
		"SCROLL_WIRE_DECAY_BATCHES": "scroll.algorithm.wire_decay_batches",
	}
	if mapped, ok := mappings[strings.ToUpper(key)]; ok {
		return mapped
	}
	return ""
}
