// Package config provides Viper-based configuration loading for the simulator
// and its tools.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// StorageConfig selects where save records live.
type StorageConfig struct {
	// Backend is one of "memory", "sqlite" or "postgres".
	Backend string `mapstructure:"backend"`
	// SQLitePath is the database file used by the sqlite backend.
	SQLitePath string `mapstructure:"sqlite_path"`
	// KeyPrefix is prepended to every slot id to form a storage key.
	KeyPrefix string `mapstructure:"key_prefix"`
	// MaxSlots is the number of save slots offered.
	MaxSlots int `mapstructure:"max_slots"`
}

// SimulationConfig holds the fixed-step driver settings.
type SimulationConfig struct {
	// TickLength is the fixed simulation step.
	TickLength time.Duration `mapstructure:"tick_length"`
	// FrameInterval is the wall-clock period between driver frames.
	FrameInterval time.Duration `mapstructure:"frame_interval"`
	// ReviveDelay is how long a downed party member stays down.
	ReviveDelay time.Duration `mapstructure:"revive_delay"`
	// RespawnDelay is the pause between an enemy's defeat and the next draw.
	RespawnDelay time.Duration `mapstructure:"respawn_delay"`
	// AutosaveInterval is the wall-clock period between autosaves; 0 disables.
	AutosaveInterval time.Duration `mapstructure:"autosave_interval"`
	// ContentDir overrides the embedded content when non-empty.
	ContentDir string `mapstructure:"content_dir"`
	// ScriptPath is an optional Lua script defining select_target.
	ScriptPath string `mapstructure:"script_path"`
	// InstructionLimit bounds each Lua call; 0 means unlimited.
	InstructionLimit int `mapstructure:"instruction_limit"`
	// Seed selects a deterministic random source; 0 uses crypto/rand.
	Seed int64 `mapstructure:"seed"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Simulation SimulationConfig `mapstructure:"simulation"`
}

// Validate checks all configuration invariants. The database section is only
// checked when the postgres backend is selected.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateStorage(c.Storage); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Storage.Backend == BackendPostgres {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateSimulation(c.Simulation); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateStorage(s StorageConfig) error {
	var errs []string
	switch s.Backend {
	case BackendMemory, BackendPostgres:
	case BackendSQLite:
		if s.SQLitePath == "" {
			errs = append(errs, "storage.sqlite_path must not be empty for the sqlite backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.backend must be one of [memory, sqlite, postgres], got %q", s.Backend))
	}
	if s.MaxSlots < 1 {
		errs = append(errs, fmt.Sprintf("storage.max_slots must be >= 1, got %d", s.MaxSlots))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.TickLength <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.tick_length must be > 0, got %s", s.TickLength))
	}
	if s.FrameInterval <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.frame_interval must be > 0, got %s", s.FrameInterval))
	}
	if s.ReviveDelay < 0 {
		errs = append(errs, "simulation.revive_delay must not be negative")
	}
	if s.RespawnDelay < 0 {
		errs = append(errs, "simulation.respawn_delay must not be negative")
	}
	if s.AutosaveInterval < 0 {
		errs = append(errs, "simulation.autosave_interval must not be negative")
	}
	if s.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("simulation.instruction_limit must be >= 0, got %d", s.InstructionLimit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and the
// environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := NewViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// NewViper returns a Viper instance carrying the defaults and the
// INCREMENTAL_ environment overrides.
func NewViper() *viper.Viper {
	v := viper.New()

	// Environment variable overrides with INCREMENTAL_ prefix
	v.SetEnvPrefix("INCREMENTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "incremental")
	v.SetDefault("database.password", "incremental")
	v.SetDefault("database.name", "incremental")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("storage.backend", BackendSQLite)
	v.SetDefault("storage.sqlite_path", "incremental.db")
	v.SetDefault("storage.key_prefix", "incremental_save:")
	v.SetDefault("storage.max_slots", 3)

	v.SetDefault("simulation.tick_length", "200ms")
	v.SetDefault("simulation.frame_interval", "50ms")
	v.SetDefault("simulation.revive_delay", "10s")
	v.SetDefault("simulation.respawn_delay", "0s")
	v.SetDefault("simulation.autosave_interval", "30s")
	v.SetDefault("simulation.content_dir", "")
	v.SetDefault("simulation.script_path", "")
	v.SetDefault("simulation.instruction_limit", 100000)
	v.SetDefault("simulation.seed", 0)
}
