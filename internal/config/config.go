// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package config

import (
	"time"

	"github.com/boonware/boonscroll/internal/models"
)

// Config is the full engine configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
	Fetch    FetchConfig    `koanf:"fetch"`
	Sessions SessionsConfig `koanf:"sessions"`
	Users    UsersConfig    `koanf:"users"`
	Bridge   BridgeConfig   `koanf:"bridge"`
	API      APIConfig      `koanf:"api"`

	// Scroll is the default scroll policy, overlaid per user by the
	// ScrollLoader. The YAML shape follows the documented schema:
	// tiers.{name}.{allocation,enabled_sources,color}, sources.{id},
	// grounding.{id}, algorithm.{batch_size,wire_decay_batches}, aliases,
	// queries.
	Scroll ScrollFileConfig `koanf:"scroll"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"gt=0,lte=65535"`
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig mirrors logging.Config for koanf loading.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// FetchConfig bounds adapter I/O.
type FetchConfig struct {
	// Timeout is the per-adapter-call deadline.
	Timeout time.Duration `koanf:"timeout"`

	// PageSize is the default per-source page size hint.
	PageSize int `koanf:"page_size" validate:"gt=0"`

	// FilteredPageSize is the larger hint used on filtered views, where a
	// single source must fill the whole batch.
	FilteredPageSize int `koanf:"filtered_page_size" validate:"gt=0"`

	// RefillMultiple sets the pool refill threshold as a multiple of the
	// batch size.
	RefillMultiple int `koanf:"refill_multiple" validate:"gt=0"`

	// MaxBatch caps the effective batch limit regardless of request.
	MaxBatch int `koanf:"max_batch" validate:"gt=0"`
}

// SessionsConfig controls scroll session lifecycle.
type SessionsConfig struct {
	// IdleTTL is how long a session may sit unused before the evictor
	// drops it (and its seen set).
	IdleTTL time.Duration `koanf:"idle_ttl"`

	// SweepInterval is how often the evictor runs.
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// UsersConfig locates per-user overlay files.
type UsersConfig struct {
	// Dir holds one "<user>.yaml" scroll overlay per user.
	Dir string `koanf:"dir"`
}

// BridgeConfig configures the social-protocol bridge.
type BridgeConfig struct {
	Enabled bool `koanf:"enabled"`

	// Relays lists the relay URLs anchors and comments publish to.
	Relays []string `koanf:"relays"`

	// SecretKey is the engine user's signing key (hex). External secret
	// management is expected to inject it via environment.
	SecretKey string `koanf:"secret_key"`

	// Eager creates anchors at detail time instead of on first comment.
	Eager bool `koanf:"eager"`

	// StatsTTL bounds how long bridge stats are served from cache.
	StatsTTL time.Duration `koanf:"stats_ttl"`

	// QueryTimeout is the deadline for relay queries.
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

// APIConfig holds transport-level knobs.
type APIConfig struct {
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gt=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// ScrollFileConfig is the on-disk shape of a scroll policy: the default
// policy in the main config file and the per-user overlay files both use
// it. Merge() flattens it into the runtime models.ScrollConfig.
type ScrollFileConfig struct {
	Algorithm AlgorithmConfig                  `koanf:"algorithm"`
	Tiers     map[string]models.TierConfig     `koanf:"tiers"`
	Sources   map[string]models.SourceSettings `koanf:"sources"`

	// Grounding maps a source id to its tier, overriding the adapter
	// default. Kept as its own section to match the config schema.
	Grounding map[string]string `koanf:"grounding"`

	Aliases map[string]string               `koanf:"aliases"`
	Queries map[string]models.QuerySettings `koanf:"queries"`
	Extra   map[string]interface{}          `koanf:",remain"`
}

// AlgorithmConfig is the algorithm.{...} section.
type AlgorithmConfig struct {
	BatchSize        int `koanf:"batch_size" validate:"gte=0"`
	WireDecayBatches int `koanf:"wire_decay_batches" validate:"gte=1"`
}

// DefaultConfig returns the built-in defaults, applied before file and
// environment layers.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8610,
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Fetch: FetchConfig{
			Timeout:          5 * time.Second,
			PageSize:         25,
			FilteredPageSize: 50,
			RefillMultiple:   4,
			MaxBatch:         50,
		},
		Sessions: SessionsConfig{
			IdleTTL:       time.Hour,
			SweepInterval: 5 * time.Minute,
		},
		Users: UsersConfig{
			Dir: "/data/users",
		},
		Bridge: BridgeConfig{
			Enabled:      false,
			Relays:       nil,
			SecretKey:    "",
			Eager:        false,
			StatsTTL:     5 * time.Minute,
			QueryTimeout: 10 * time.Second,
		},
		API: APIConfig{
			RateLimitRequests: 300,
			RateLimitWindow:   time.Minute,
			CORSOrigins:       []string{"*"},
		},
		Scroll: ScrollFileConfig{
			Algorithm: AlgorithmConfig{
				BatchSize:        10,
				WireDecayBatches: 10,
			},
			Tiers: map[string]models.TierConfig{
				string(models.TierWire):      {Allocation: 4, Color: "#d94f4f"},
				string(models.TierLibrary):   {Allocation: 3, Color: "#4f7bd9"},
				string(models.TierScrapbook): {Allocation: 2, Color: "#d9a84f"},
				string(models.TierCompass):   {Allocation: 1, Color: "#4fd98e"},
			},
			Sources:   map[string]models.SourceSettings{},
			Grounding: map[string]string{},
			Aliases:   map[string]string{},
			Queries:   map[string]models.QuerySettings{},
		},
	}
}
