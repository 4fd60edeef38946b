package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"cif-onboarding/internal/pkg/logger"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	Log      logger.Config
	Cron     CronConfig
	Auth     AuthConfig
	Notify   NotifyConfig
	Seed     SeedConfig
}

// SeedConfig holds the staff account created by the seeder; empty disables it
type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
}

// NotifyConfig holds officer notification settings; an empty token disables them
type NotifyConfig struct {
	LineToken string
}

// DatabaseConfig holds database and write-engine pool configuration
type DatabaseConfig struct {
	Driver   string // mysql, postgres, sqlite
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	Path     string // sqlite file

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AcquireTimeout  time.Duration
	TxTimeout       time.Duration
	RollbackTimeout time.Duration
	TxIsolation     string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
	Issuer           string
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// CronConfig holds scheduled maintenance configuration
type CronConfig struct {
	Enabled  bool
	Schedule string
}

// AuthConfig holds account lifecycle settings
type AuthConfig struct {
	RequireActivation bool
	ResetKeyTTL       time.Duration
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Get APP_MODE (default to "dev") - trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	database, err := loadDatabaseConfig(appMode)
	if err != nil {
		return nil, err
	}

	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		Database: database,
		JWT:      loadJWTConfig(appMode),
		Cookie:   loadCookieConfig(appMode),
		Log:      loadLogConfig(appMode),
		Cron:     loadCronConfig(),
		Auth:     loadAuthConfig(),
		Notify:   NotifyConfig{LineToken: getEnv("LINE_NOTIFY_TOKEN", "")},
		Seed: SeedConfig{
			AdminEmail:    getEnv("SEED_ADMIN_EMAIL", ""),
			AdminPassword: getEnv("SEED_ADMIN_PASSWORD", ""),
		},
	}

	// Set global config
	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s, DB: %s]", appMode, database.Driver)
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) (DatabaseConfig, error) {
	prefix := modePrefix(mode)

	driver := strings.ToLower(getEnv(prefix+"DB_DRIVER", "mysql"))
	defaultPort := "3306"
	switch driver {
	case "mysql":
	case "postgres":
		defaultPort = "5432"
	case "sqlite":
		defaultPort = ""
	default:
		return DatabaseConfig{}, fmt.Errorf("invalid DB_DRIVER: '%s' (must be mysql, postgres or sqlite)", driver)
	}

	return DatabaseConfig{
		Driver:   driver,
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", defaultPort),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "cif_onboarding"),
		Path:     getEnv(prefix+"DB_PATH", "data/cif_onboarding.db"),

		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		AcquireTimeout:  getEnvDuration("DB_ACQUIRE_TIMEOUT", 5*time.Second),
		TxTimeout:       getEnvDuration("DB_TX_TIMEOUT", 10*time.Second),
		RollbackTimeout: getEnvDuration("DB_ROLLBACK_TIMEOUT", 3*time.Second),
		TxIsolation:     getEnv("DB_TX_ISOLATION", "read_committed"),
	}, nil
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := modePrefix(mode)

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", "default_secret"),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", "default_refresh_secret"),
		AccessTokenMins:  getEnvInt("ACCESS_TOKEN_MINUTES", 15),
		RefreshTokenDays: getEnvInt("REFRESH_TOKEN_DAYS", 7),
		Issuer:           getEnv("JWT_ISSUER", "cif-onboarding"),
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	secure, _ := strconv.ParseBool(getEnv(modePrefix(mode)+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

// loadLogConfig loads logger config; dev logs text at debug level
func loadLogConfig(mode string) logger.Config {
	level, format := "info", "json"
	if mode == "dev" {
		level, format = "debug", "text"
	}
	compress, _ := strconv.ParseBool(getEnv("LOG_COMPRESS", "true"))

	return logger.Config{
		Level:      getEnv("LOG_LEVEL", level),
		Format:     getEnv("LOG_FORMAT", format),
		Output:     getEnv("LOG_OUTPUT", "stdout"),
		FilePath:   getEnv("LOG_FILE", "logs/cif-onboarding.log"),
		MaxSize:    getEnvInt("LOG_MAX_SIZE_MB", 100),
		MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 7),
		MaxAge:     getEnvInt("LOG_MAX_AGE_DAYS", 30),
		Compress:   compress,
		WithCaller: mode == "dev",
	}
}

// loadCronConfig loads maintenance job config
func loadCronConfig() CronConfig {
	enabled, _ := strconv.ParseBool(getEnv("CRON_ENABLED", "true"))
	return CronConfig{
		Enabled:  enabled,
		Schedule: getEnv("CRON_MAINTENANCE_SCHEDULE", "@every 1h"),
	}
}

// loadAuthConfig loads account lifecycle config
func loadAuthConfig() AuthConfig {
	requireActivation, _ := strconv.ParseBool(getEnv("AUTH_REQUIRE_ACTIVATION", "true"))
	return AuthConfig{
		RequireActivation: requireActivation,
		ResetKeyTTL:       getEnvDuration("AUTH_RESET_KEY_TTL", 30*time.Minute),
	}
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable, falling back on parse errors
func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvDuration gets a duration such as "5s" or "1h", falling back on parse errors
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://onboarding.example.com"
	}
	return origins
}
