// Package config loads server and generator settings.
//
// Precedence, lowest to highest:
//  1. built-in defaults
//  2. a TOML file (--config flag or WORDSEARCH_CONFIG)
//  3. a .env file in the working directory
//  4. process environment variables
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config is the full set of settings.
type Config struct {
	Port         string `toml:"port"`
	LogLevel     string `toml:"log_level"`
	ClientOrigin string `toml:"client_origin"`
	Production   bool   `toml:"production"`

	StoreBackend  string `toml:"store_backend"`
	DatabasePath  string `toml:"database_path"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisTTLHours int    `toml:"redis_ttl_hours"`

	JWTSecret      string `toml:"jwt_secret"`
	JWTExpiresDays int    `toml:"jwt_expires_days"`
	CookieName     string `toml:"cookie_name"`

	GridSize    int    `toml:"grid_size"`
	MaxAttempts int    `toml:"max_attempts"`
	WordsFile   string `toml:"words_file"`
	DailySalt   string `toml:"daily_salt"`
	DailyWords  int    `toml:"daily_words"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:           "5175",
		LogLevel:       "info",
		ClientOrigin:   "http://localhost:5173",
		StoreBackend:   BackendSQLite,
		DatabasePath:   "./data/wordsearch.db",
		RedisAddr:      "localhost:6379",
		RedisTTLHours:  7 * 24,
		JWTSecret:      "dev_secret_change_me",
		JWTExpiresDays: 14,
		CookieName:     "wordsearch_token",
		GridSize:       15,
		MaxAttempts:    10000,
		DailySalt:      "local_dev_salt",
		DailyWords:     10,
	}
}

// Load builds a Config. path may be empty; WORDSEARCH_CONFIG is used then.
// A missing file at an explicitly given path is an error; a missing .env is not.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("WORDSEARCH_CONFIG")
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("PORT", &c.Port)
	str("LOG_LEVEL", &c.LogLevel)
	str("CLIENT_ORIGIN", &c.ClientOrigin)
	str("STORE_BACKEND", &c.StoreBackend)
	str("DATABASE_PATH", &c.DatabasePath)
	str("REDIS_ADDR", &c.RedisAddr)
	str("REDIS_PASSWORD", &c.RedisPassword)
	str("JWT_SECRET", &c.JWTSecret)
	str("COOKIE_NAME", &c.CookieName)
	str("WORDS_FILE", &c.WordsFile)
	str("DAILY_SALT", &c.DailySalt)
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Production = strings.EqualFold(v, "production")
	}

	for key, dst := range map[string]*int{
		"REDIS_TTL_HOURS":  &c.RedisTTLHours,
		"JWT_EXPIRES_DAYS": &c.JWTExpiresDays,
		"GRID_SIZE":        &c.GridSize,
		"MAX_ATTEMPTS":     &c.MaxAttempts,
		"DAILY_WORDS":      &c.DailyWords,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("config: unknown store backend %q", c.StoreBackend)
	}
	if c.GridSize < 2 {
		return fmt.Errorf("config: grid size %d is too small", c.GridSize)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("config: max attempts must be positive")
	}
	if c.DailyWords < 1 {
		return fmt.Errorf("config: daily words must be positive")
	}
	if c.Production && c.JWTSecret == Default().JWTSecret {
		return errors.New("config: JWT_SECRET must be set in production")
	}
	return nil
}

// JWTTTL is the token lifetime.
func (c Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTExpiresDays) * 24 * time.Hour
}

// RedisTTL is the lifetime of a game in redis.
func (c Config) RedisTTL() time.Duration {
	return time.Duration(c.RedisTTLHours) * time.Hour
}
