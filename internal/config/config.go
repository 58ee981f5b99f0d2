package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Path is the config file path passed on the command line. Empty means
// defaults plus environment only.
type Path string

// Backend names a persisted-record storage implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendRedis  Backend = "redis"
	BackendSQLite Backend = "sqlite"
)

type Config struct {
	Server  Server  `yaml:"server"`
	API     API     `yaml:"api"`
	Storage Storage `yaml:"storage"`
	Logging Logging `yaml:"logging"`
}

type Server struct {
	Port int `yaml:"port"`
}

// API locates the external RoomieZ backend.
type API struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the request timeout for backend calls.
func (a API) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

type Storage struct {
	Backend       Backend `yaml:"backend"`
	Path          string  `yaml:"path"`
	RedisAddr     string  `yaml:"redis_addr"`
	RedisPassword string  `yaml:"redis_password"`
	RedisDB       int     `yaml:"redis_db"`
	SQLitePath    string  `yaml:"sqlite_path"`
}

type Logging struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// New loads configuration: defaults first, then the optional YAML file,
// then environment overrides. A .env file in the working directory is
// honored before the environment is read.
func New(path Path) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	file := string(path)
	if file == "" {
		file = os.Getenv("ROOMIEZ_CONFIG")
	}
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", file, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: Server{
			Port: 8123,
		},
		API: API{
			BaseURL:        "http://localhost:3010/api/V1",
			TimeoutSeconds: 10,
		},
		Storage: Storage{
			Backend:    BackendMemory,
			Path:       "data/sessions.json",
			RedisAddr:  "localhost:6379",
			SQLitePath: "data/sessions.db",
		},
		Logging: Logging{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ROOMIEZ_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("ROOMIEZ_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("ROOMIEZ_STORAGE"); v != "" {
		cfg.Storage.Backend = Backend(v)
	}
	if v := os.Getenv("ROOMIEZ_REDIS_ADDR"); v != "" {
		cfg.Storage.RedisAddr = v
	}
	if v := os.Getenv("ROOMIEZ_LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
}
