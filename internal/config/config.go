package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v4"
)

const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

type Config struct {
	BotToken    string        `yaml:"bot_token"`
	Timezone    string        `yaml:"timezone"`
	Storage     StorageConfig `yaml:"storage"`
	ListenAddr  string        `yaml:"listen_addr"`
	APIBaseURL  string        `yaml:"api_base_url"`
	PollTimeout int           `yaml:"poll_timeout"`
	Log         LogConfig     `yaml:"log"`
	Debug       bool          `yaml:"debug"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// envFile is read before the environment overrides are applied. Variables
// already present in the environment win over the file.
var envFile = ".env"

const defaultConfigFile = "config.yaml"

func Default() Config {
	return Config{
		Timezone:    "Local",
		Storage:     StorageConfig{Driver: DriverSQLite, Path: "data/habits.db"},
		ListenAddr:  "127.0.0.1:9090",
		APIBaseURL:  "http://127.0.0.1:9090",
		PollTimeout: 60,
		Log:         LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order of increasing precedence. HABITS_CONFIG names
// the file explicitly, in which case it must exist.
func Load() (Config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read %s: %w", envFile, err)
	}

	cfg := Default()

	path, explicit := os.LookupEnv("HABITS_CONFIG")
	if !explicit || path == "" {
		path, explicit = defaultConfigFile, false
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	override := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = v
			}
		}
	}
	// HABITS_BOT_TOKEN wins over the plain BOT_TOKEN used by older .env files
	override(&c.BotToken, "BOT_TOKEN", "HABITS_BOT_TOKEN")
	override(&c.Timezone, "HABITS_TIMEZONE")
	override(&c.Storage.Driver, "HABITS_DB_DRIVER")
	override(&c.Storage.Path, "HABITS_DB_PATH")
	override(&c.APIBaseURL, "HABITS_API_BASE")
	override(&c.Log.Level, "HABITS_LOG_LEVEL")
	override(&c.Log.Format, "HABITS_LOG_FORMAT")
	override(&c.Log.File, "HABITS_LOG_FILE")

	// an empty value disables the HTTP surface, so presence matters here
	if v, ok := os.LookupEnv("HABITS_LISTEN_ADDR"); ok {
		c.ListenAddr = v
	}
	if v := os.Getenv("HABITS_POLL_TIMEOUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HABITS_POLL_TIMEOUT: %w", err)
		}
		c.PollTimeout = n
	}
	return nil
}

func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite, DriverBolt:
	default:
		return fmt.Errorf("unknown storage driver %q (want %s or %s)", c.Storage.Driver, DriverSQLite, DriverBolt)
	}
	if c.Storage.Path == "" {
		return errors.New("storage path is empty")
	}
	if c.PollTimeout <= 0 {
		return fmt.Errorf("poll_timeout must be positive, got %d", c.PollTimeout)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone. Empty and "Local" mean the host zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
