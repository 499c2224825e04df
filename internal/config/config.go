// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/andeshq/custodia/internal/modules/settings"
)

// Config holds application configuration
type Config struct {
	DataDir        string // Base directory for all databases, always absolute
	Port           int
	LogLevel       string
	DevMode        bool
	HolidayCountry string // Country code for the holiday calendar
	PortalBaseURL  string // Statistics portal base URL
	Backup         BackupConfig
}

// BackupConfig holds S3 backup settings. Backups are disabled unless a
// bucket is configured.
type BackupConfig struct {
	Enabled   bool
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string // Optional custom endpoint (S3-compatible stores)
	AccessKey string
	SecretKey string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("CUSTODIA_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:        absDataDir,
		Port:           getEnvAsInt("GO_PORT", 8001),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DevMode:        getEnvAsBool("DEV_MODE", false),
		HolidayCountry: getEnv("HOLIDAY_COUNTRY", "CL"),
		PortalBaseURL:  getEnv("PORTAL_BASE_URL", "https://estadisticas.example.cl"),
		Backup: BackupConfig{
			Bucket:    getEnv("BACKUP_S3_BUCKET", ""),
			Prefix:    getEnv("BACKUP_S3_PREFIX", "custodia"),
			Region:    getEnv("BACKUP_S3_REGION", "us-east-1"),
			Endpoint:  getEnv("BACKUP_S3_ENDPOINT", ""),
			AccessKey: getEnv("BACKUP_S3_ACCESS_KEY", ""),
			SecretKey: getEnv("BACKUP_S3_SECRET_KEY", ""),
		},
	}
	cfg.Backup.Enabled = cfg.Backup.Bucket != ""

	return cfg, nil
}

// UpdateFromSettings overrides configuration with values from the settings
// database. Called after config.db is initialized; stored settings take
// precedence over environment variables.
func (c *Config) UpdateFromSettings(settingsRepo *settings.Repository) error {
	country, err := settingsRepo.Get(settings.KeyHolidayCountry)
	if err != nil {
		return fmt.Errorf("failed to get holiday country from settings: %w", err)
	}
	if country != nil && *country != "" {
		c.HolidayCountry = *country
	}

	portalURL, err := settingsRepo.Get(settings.KeyPortalBaseURL)
	if err != nil {
		return fmt.Errorf("failed to get portal URL from settings: %w", err)
	}
	if portalURL != nil && *portalURL != "" {
		c.PortalBaseURL = *portalURL
	}

	backupEnabled, err := settingsRepo.Get(settings.KeyBackupEnabled)
	if err != nil {
		return fmt.Errorf("failed to get backup flag from settings: %w", err)
	}
	if backupEnabled != nil && *backupEnabled == "false" {
		c.Backup.Enabled = false
	}

	return nil
}

// DatabasePath returns the path of a named database under the data dir.
func (c *Config) DatabasePath(name string) string {
	return filepath.Join(c.DataDir, name+".db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
