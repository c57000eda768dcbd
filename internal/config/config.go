// Package config reads the service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
)

var logger = loggo.GetLogger("todo.config")

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	DefaultPort      = 8080
	DefaultLogConfig = "<root>=INFO"
)

// Config holds everything main needs to wire the service.
type Config struct {
	Port      int
	Store     string
	Seed      bool
	LogConfig string
	Database  Database
}

// Database holds the Postgres connection settings.
type Database struct {
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	Schema   string
}

// DSN renders the settings as a libpq keyword/value connection string.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		d.Host, d.Username, d.Password, d.Name, d.Port)
}

// Load builds a Config from environment variables.
func Load() (Config, error) {
	cfg := Config{
		Port:      DefaultPort,
		Store:     strings.ToLower(envOr("TODO_STORE", StoreMemory)),
		Seed:      true,
		LogConfig: envOr("LOG_CONFIG", DefaultLogConfig),
		Database: Database{
			Host:     os.Getenv("BLUEPRINT_DB_HOST"),
			Port:     envOr("BLUEPRINT_DB_PORT", "5432"),
			Username: os.Getenv("BLUEPRINT_DB_USERNAME"),
			Password: os.Getenv("BLUEPRINT_DB_PASSWORD"),
			Name:     os.Getenv("BLUEPRINT_DB_DATABASE"),
			Schema:   os.Getenv("BLUEPRINT_DB_SCHEMA"),
		},
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 || port > 65535 {
			logger.Warningf("invalid PORT %q, using default %d", portStr, DefaultPort)
		} else {
			cfg.Port = port
		}
	}

	if seed := os.Getenv("TODO_SEED"); seed != "" {
		v, err := strconv.ParseBool(seed)
		if err != nil {
			return Config{}, errors.NewNotValid(err, fmt.Sprintf("TODO_SEED %q", seed))
		}
		cfg.Seed = v
	}

	switch cfg.Store {
	case StoreMemory:
	case StorePostgres:
		if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.Username == "" {
			return Config{}, errors.NewNotValid(nil,
				"postgres store needs BLUEPRINT_DB_HOST, BLUEPRINT_DB_DATABASE and BLUEPRINT_DB_USERNAME")
		}
	default:
		return Config{}, errors.NewNotValid(nil, fmt.Sprintf("unknown TODO_STORE %q", cfg.Store))
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
