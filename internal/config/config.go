// Package config provides Viper-based configuration loading for the tower services.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/questmon/internal/game/dice"
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
	// Service tags every entry with the emitting binary, e.g. "towerserver".
	Service string `mapstructure:"service"`
}

// TowerServerConfig holds the tower gRPC listener settings.
type TowerServerConfig struct {
	GRPCHost string `mapstructure:"grpc_host"`
	GRPCPort int    `mapstructure:"grpc_port"`
	// ShutdownTimeout bounds graceful draining of in-flight RPCs.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the "host:port" gRPC address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (g TowerServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.GRPCHost, g.GRPCPort)
}

// Store backends for tower state.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// TowerConfig holds the game rules of the tower.
type TowerConfig struct {
	// Store selects where progress, stars and boards live: "postgres" or "memory".
	Store          string `mapstructure:"store"`
	StartingDice   int    `mapstructure:"starting_dice"`
	ResetBonusDice int    `mapstructure:"reset_bonus_dice"`
	// RollExpression is rolled on every climb, e.g. "1d6".
	RollExpression  string `mapstructure:"roll_expression"`
	StrictPlacement bool   `mapstructure:"strict_placement"`
	// MonstersFile overrides the embedded monster catalog when set.
	MonstersFile   string `mapstructure:"monsters_file"`
	BoardCacheSize int    `mapstructure:"board_cache_size"`
}

// Config is the top-level application configuration.
type Config struct {
	Database    DatabaseConfig    `mapstructure:"database"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	TowerServer TowerServerConfig `mapstructure:"towerserver"`
	Tower       TowerConfig       `mapstructure:"tower"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	// The database section only matters when tower state lives in postgres.
	if c.Tower.Store != StoreMemory {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateTowerServer(c.TowerServer); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateTower(c.Tower); err != nil {
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

func validateTowerServer(g TowerServerConfig) error {
	var errs []string
	if g.GRPCHost == "" {
		errs = append(errs, "towerserver.grpc_host must not be empty")
	}
	if g.GRPCPort < 1 || g.GRPCPort > 65535 {
		errs = append(errs, fmt.Sprintf("towerserver.grpc_port must be 1-65535, got %d", g.GRPCPort))
	}
	if g.ShutdownTimeout < 0 {
		errs = append(errs, "towerserver.shutdown_timeout must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateTower(t TowerConfig) error {
	var errs []string
	if t.Store != StorePostgres && t.Store != StoreMemory {
		errs = append(errs, fmt.Sprintf("tower.store must be one of [postgres, memory], got %q", t.Store))
	}
	if t.StartingDice < 0 {
		errs = append(errs, fmt.Sprintf("tower.starting_dice must be >= 0, got %d", t.StartingDice))
	}
	if t.ResetBonusDice < 0 {
		errs = append(errs, fmt.Sprintf("tower.reset_bonus_dice must be >= 0, got %d", t.ResetBonusDice))
	}
	if expr, err := dice.Parse(t.RollExpression); err != nil {
		errs = append(errs, fmt.Sprintf("tower.roll_expression: %v", err))
	} else if expr.Min() < 1 {
		errs = append(errs, fmt.Sprintf("tower.roll_expression %q can roll below 1", t.RollExpression))
	}
	if t.BoardCacheSize < 0 {
		errs = append(errs, fmt.Sprintf("tower.board_cache_size must be >= 0, got %d", t.BoardCacheSize))
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
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := NewViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// NewViper returns a Viper instance carrying the defaults and the
// QUESTMON_ environment overrides, with no config file attached.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("QUESTMON")
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
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "questmon")
	v.SetDefault("database.password", "questmon")
	v.SetDefault("database.name", "questmon")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.service", "towerserver")

	v.SetDefault("towerserver.grpc_host", "127.0.0.1")
	v.SetDefault("towerserver.grpc_port", 50061)
	v.SetDefault("towerserver.shutdown_timeout", "10s")

	v.SetDefault("tower.store", StorePostgres)
	v.SetDefault("tower.starting_dice", 3)
	v.SetDefault("tower.reset_bonus_dice", 5)
	v.SetDefault("tower.roll_expression", "1d6")
	v.SetDefault("tower.strict_placement", false)
	v.SetDefault("tower.monsters_file", "")
	v.SetDefault("tower.board_cache_size", 256)
}
