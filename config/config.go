package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Session  SessionConfig
	App      AppConfig
}

type ServerConfig struct {
	Port          string
	CORSOrigins   []string
	SaveRateLimit float64 // explicit saves per second
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// StorageConfig selects and locates the persistence backends.
type StorageConfig struct {
	Backend         string
	DataDir         string
	SQLitePath      string
	HandleDBPath    string
	PreferencesPath string
	KVMaxBytes      int
}

// SessionConfig tunes the session service timers.
type SessionConfig struct {
	AutosaveInterval       time.Duration
	SceneSampleInterval    time.Duration
	DirtyClearDelay        time.Duration
	DirtyClearMode         string
	PreferencePollInterval time.Duration
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	dataDir := getEnv("DATA_DIR", "./data")

	cfg := &Config{
		Server: ServerConfig{
			Port:          getEnv("PORT", "8080"),
			CORSOrigins:   getEnvAsList("CORS_ORIGINS", []string{"http://localhost:5173"}),
			SaveRateLimit: getEnvAsFloat("SAVE_RATE_LIMIT", 1),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "drawboard"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Backend:         getEnv("STORAGE_BACKEND", "keyvalue"),
			DataDir:         dataDir,
			SQLitePath:      getEnv("SQLITE_PATH", filepath.Join(dataDir, "drawboard.db")),
			HandleDBPath:    getEnv("HANDLE_DB_PATH", filepath.Join(dataDir, "handles.db")),
			PreferencesPath: getEnv("PREFERENCES_PATH", filepath.Join(dataDir, "preferences.yaml")),
			KVMaxBytes:      getEnvAsInt("KV_MAX_BYTES", 5<<20),
		},
		Session: SessionConfig{
			AutosaveInterval:       getEnvAsDuration("AUTOSAVE_INTERVAL", 5*time.Second),
			SceneSampleInterval:    getEnvAsDuration("SCENE_SAMPLE_INTERVAL", 5*time.Second),
			DirtyClearDelay:        getEnvAsDuration("DIRTY_CLEAR_DELAY", 5*time.Second),
			DirtyClearMode:         getEnv("DIRTY_CLEAR_MODE", "delay"),
			PreferencePollInterval: getEnvAsDuration("PREFERENCE_POLL_INTERVAL", 2*time.Second),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Storage.Backend == "" {
		return fmt.Errorf("STORAGE_BACKEND is required")
	}

	if c.Storage.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}

	if c.Session.AutosaveInterval < time.Second {
		return fmt.Errorf("AUTOSAVE_INTERVAL must be at least 1s")
	}

	if c.Session.SceneSampleInterval < time.Second {
		return fmt.Errorf("SCENE_SAMPLE_INTERVAL must be at least 1s")
	}

	switch c.Session.DirtyClearMode {
	case "delay", "on-save":
	default:
		return fmt.Errorf("DIRTY_CLEAR_MODE must be \"delay\" or \"on-save\", got %q", c.Session.DirtyClearMode)
	}

	if c.Storage.KVMaxBytes <= 0 {
		return fmt.Errorf("KV_MAX_BYTES must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %g", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
