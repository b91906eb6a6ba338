package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/alimgiray/prdash/internal/models"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	GitHub       GitHubConfig
	Dashboard    DashboardConfig
	Fetch        FetchConfig
	Notification NotificationConfig
	Log          LogConfig
}

type ServerConfig struct {
	Port         string
	Mode         string
	ReadTimeout  int
	WriteTimeout int
}

type DatabaseConfig struct {
	Path string
}

type GitHubConfig struct {
	Token   string
	BaseURL string
}

// DashboardConfig holds the optional seed for the persisted dashboard settings
type DashboardConfig struct {
	ConfigFile string
	Repos      []string
}

type FetchConfig struct {
	MaxConcurrency int
	TimeoutSeconds int
}

type NotificationConfig struct {
	IconURL   string
	QueueSize int
}

type LogConfig struct {
	Level string
	File  string
}

var AppConfig *Config

// Load loads configuration from .env file and environment variables
func Load() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	AppConfig = &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Mode:         getEnv("GIN_MODE", "release"),
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 15),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./prdash.db"),
		},
		GitHub: GitHubConfig{
			Token:   getEnv("GITHUB_TOKEN", ""),
			BaseURL: getEnv("GITHUB_API_URL", ""),
		},
		Dashboard: DashboardConfig{
			ConfigFile: getEnv("DASHBOARD_CONFIG", ""),
			Repos:      getEnvAsList("DASHBOARD_REPOS"),
		},
		Fetch: FetchConfig{
			MaxConcurrency: getEnvAsInt("FETCH_MAX_CONCURRENCY", 8),
			TimeoutSeconds: getEnvAsInt("FETCH_TIMEOUT_SECONDS", 30),
		},
		Notification: NotificationConfig{
			IconURL:   getEnv("NOTIFICATION_ICON_URL", "/logo192.png"),
			QueueSize: getEnvAsInt("NOTIFICATION_QUEUE_SIZE", 256),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	return nil
}

// SeedSettings builds the initial dashboard settings from DASHBOARD_CONFIG and
// DASHBOARD_REPOS. It returns nil when neither is set.
func (c *Config) SeedSettings() (*models.DashboardSettings, error) {
	var settings *models.DashboardSettings

	if c.Dashboard.ConfigFile != "" {
		fromFile, err := LoadDashboardFile(c.Dashboard.ConfigFile)
		if err != nil {
			return nil, err
		}
		settings = fromFile
	}

	if len(c.Dashboard.Repos) > 0 {
		if settings == nil {
			settings = models.DefaultDashboardSettings()
		}
		settings.Repos = append(settings.Repos, c.Dashboard.Repos...)
	}

	if settings != nil {
		settings.Normalize()
	}
	return settings, nil
}

// LoadDashboardFile reads dashboard settings from a YAML file. Fields missing
// from the file keep their defaults.
func LoadDashboardFile(path string) (*models.DashboardSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dashboard config: %w", err)
	}

	settings := models.DefaultDashboardSettings()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse dashboard config: %w", err)
	}

	settings.Normalize()
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dashboard config: %w", err)
	}
	return settings, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated environment variable
func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
