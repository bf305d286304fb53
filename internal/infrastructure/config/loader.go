package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment constants
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// EnvPrefix is the prefix of every environment override
const EnvPrefix = "GSL"

// ConfigPaths defines the paths to look for config files
var ConfigPaths = []string{
	"./configs",
	"../configs",
	"../../configs",
}

// DotEnvPaths defines the paths to look for .env files
var DotEnvPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"./configs/.env",
	"../configs/.env",
}

// LoadConfig loads configuration from the environment's YAML file, then
// applies GSL_* environment overrides. A missing file falls back to defaults.
func LoadConfig() (*Config, error) {
	if err := loadDotEnvFile(); err != nil {
		fmt.Println("Warning: Could not load .env file:", err)
	}

	env := getEnvironment()

	v := viper.New()
	v.SetConfigName(env)
	v.SetConfigType("yaml")
	for _, path := range ConfigPaths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		fmt.Printf("Warning: no %s.yaml found, using defaults\n", env)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	processEnvOverrides(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.Environment = env
	processDurations(&config)

	return &config, nil
}

// loadDotEnvFile loads the first .env file found in the search paths
func loadDotEnvFile() error {
	var lastError error

	for _, path := range DotEnvPaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return nil
			} else {
				lastError = err
			}
		}
	}

	if lastError != nil {
		return fmt.Errorf("could not load any .env file: %w", lastError)
	}
	return fmt.Errorf("no .env file found in search paths")
}

// setDefaults sets default values for non-critical configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 15)       // seconds
	v.SetDefault("server.writeTimeout", 15)      // seconds
	v.SetDefault("server.idleTimeout", 60)       // seconds
	v.SetDefault("server.readHeaderTimeout", 10) // seconds
	v.SetDefault("server.shutdownTimeout", 10)   // seconds
	v.SetDefault("server.allowedOrigins", []string{"*"})
	v.SetDefault("server.metricsEnabled", true)
	v.SetDefault("server.rateLimitRps", 0)
	v.SetDefault("server.rateLimitBurst", 20)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 50)
	v.SetDefault("database.maxIdleConns", 25)
	v.SetDefault("database.connMaxLifetime", 30) // minutes
	v.SetDefault("database.connMaxIdleTime", 15) // minutes
	v.SetDefault("database.queryTimeout", 5)     // seconds
	v.SetDefault("database.lockTimeout", 3000)   // milliseconds
	v.SetDefault("database.retryAttempts", 3)
	v.SetDefault("database.retryDelay", 1) // seconds
	v.SetDefault("database.seed", false)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.poolSize", 20)
	v.SetDefault("redis.minIdleConns", 2)
	v.SetDefault("redis.dialTimeout", 5)  // seconds
	v.SetDefault("redis.readTimeout", 3)  // seconds
	v.SetDefault("redis.writeTimeout", 3) // seconds

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", 300) // seconds
	v.SetDefault("cache.prefix", "gsl:")

	v.SetDefault("email.enabled", false)
	v.SetDefault("email.from", "no-reply@localhost")
	v.SetDefault("email.fromName", "Game Store")
	v.SetDefault("email.smtpPort", 587)
	v.SetDefault("email.queue", "emails")
	v.SetDefault("email.maxAttempts", 3)
	v.SetDefault("email.retryDelay", 5) // seconds
	v.SetDefault("email.signature", "The Game Store Team")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")

	v.SetDefault("ledger.currency", "Rs")
	v.SetDefault("ledger.defaultPageSize", 20)
	v.SetDefault("ledger.maxPageSize", 100)
	v.SetDefault("ledger.retryAttempts", 5)
	v.SetDefault("ledger.retryBaseDelay", 50)  // milliseconds
	v.SetDefault("ledger.retryMaxDelay", 1000) // milliseconds
	v.SetDefault("ledger.requestTimeout", 10)  // seconds
}

// getEnvironment determines the environment from GSL_ENV
func getEnvironment() string {
	env := os.Getenv(EnvPrefix + "_ENV")
	if env == "" {
		env = Development
	}
	return strings.ToLower(env)
}

// processEnvOverrides lets environment variables win over file values for
// secrets and deployment-specific settings
func processEnvOverrides(v *viper.Viper) {
	stringOverrides := map[string]string{
		"GSL_DB_DRIVER":          "database.driver",
		"GSL_DB_HOST":            "database.host",
		"GSL_DB_PORT":            "database.port",
		"GSL_DB_USERNAME":        "database.username",
		"GSL_DB_PASSWORD":        "database.password",
		"GSL_DB_NAME":            "database.database",
		"GSL_DB_SSL_MODE":        "database.sslMode",
		"GSL_REDIS_HOST":         "redis.host",
		"GSL_REDIS_PASSWORD":     "redis.password",
		"GSL_SMTP_HOST":          "email.smtpHost",
		"GSL_SMTP_USER":          "email.smtpUser",
		"GSL_SMTP_PASSWORD":      "email.smtpPassword",
		"GSL_EMAIL_FROM":         "email.from",
		"GSL_SERVER_HOST":        "server.host",
		"GSL_INTERNAL_TOKEN":     "server.internalToken",
		"GSL_LOGGER_LEVEL":       "logger.level",
		"GSL_LOGGER_FORMAT":      "logger.format",
		"GSL_LEDGER_CURRENCY":    "ledger.currency",
		"GSL_CACHE_PREFIX":       "cache.prefix",
		"GSL_EMAIL_QUEUE":        "email.queue",
		"GSL_EMAIL_FROM_NAME":    "email.fromName",
		"GSL_EMAIL_SIGNATURE":    "email.signature",
		"GSL_SERVER_CORS_ORIGIN": "server.allowedOrigins",
	}
	for env, key := range stringOverrides {
		if value := os.Getenv(env); value != "" {
			if key == "server.allowedOrigins" {
				v.Set(key, strings.Split(value, ","))
				continue
			}
			v.Set(key, value)
		}
	}

	intOverrides := map[string]string{
		"GSL_SERVER_PORT":           "server.port",
		"GSL_DB_MAX_OPEN_CONNS":     "database.maxOpenConns",
		"GSL_DB_MAX_IDLE_CONNS":     "database.maxIdleConns",
		"GSL_DB_QUERY_TIMEOUT":      "database.queryTimeout",
		"GSL_DB_LOCK_TIMEOUT_MS":    "database.lockTimeout",
		"GSL_REDIS_PORT":            "redis.port",
		"GSL_REDIS_DB":              "redis.db",
		"GSL_SMTP_PORT":             "email.smtpPort",
		"GSL_CACHE_TTL_SECONDS":     "cache.ttl",
		"GSL_LEDGER_RETRY_ATTEMPTS": "ledger.retryAttempts",
		"GSL_RATE_LIMIT_RPS":        "server.rateLimitRps",
		"GSL_RATE_LIMIT_BURST":      "server.rateLimitBurst",
	}
	for env, key := range intOverrides {
		if value, ok := getEnvInt(env); ok {
			v.Set(key, value)
		}
	}

	boolOverrides := map[string]string{
		"GSL_CACHE_ENABLED":   "cache.enabled",
		"GSL_EMAIL_ENABLED":   "email.enabled",
		"GSL_DB_SEED":         "database.seed",
		"GSL_METRICS_ENABLED": "server.metricsEnabled",
	}
	for env, key := range boolOverrides {
		if value, err := strconv.ParseBool(os.Getenv(env)); err == nil {
			v.Set(key, value)
		}
	}
}

// getEnvInt reads an integer environment variable
func getEnvInt(name string) (int, bool) {
	valStr := os.Getenv(name)
	if valStr == "" {
		return 0, false
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, false
	}
	return val, true
}

// processDurations converts the raw integer duration fields to time.Duration
func processDurations(config *Config) {
	config.Server.ReadTimeout = time.Duration(config.Server.ReadTimeout) * time.Second
	config.Server.WriteTimeout = time.Duration(config.Server.WriteTimeout) * time.Second
	config.Server.IdleTimeout = time.Duration(config.Server.IdleTimeout) * time.Second
	config.Server.ReadHeaderTimeout = time.Duration(config.Server.ReadHeaderTimeout) * time.Second
	config.Server.ShutdownTimeout = time.Duration(config.Server.ShutdownTimeout) * time.Second

	config.Database.ConnMaxLifetime = time.Duration(config.Database.ConnMaxLifetime) * time.Minute
	config.Database.ConnMaxIdleTime = time.Duration(config.Database.ConnMaxIdleTime) * time.Minute
	config.Database.QueryTimeout = time.Duration(config.Database.QueryTimeout) * time.Second
	config.Database.LockTimeout = time.Duration(config.Database.LockTimeout) * time.Millisecond
	config.Database.RetryDelay = time.Duration(config.Database.RetryDelay) * time.Second

	config.Redis.DialTimeout = time.Duration(config.Redis.DialTimeout) * time.Second
	config.Redis.ReadTimeout = time.Duration(config.Redis.ReadTimeout) * time.Second
	config.Redis.WriteTimeout = time.Duration(config.Redis.WriteTimeout) * time.Second

	config.Cache.TTL = time.Duration(config.Cache.TTL) * time.Second
	config.Email.RetryDelay = time.Duration(config.Email.RetryDelay) * time.Second

	config.Ledger.RetryBaseDelay = time.Duration(config.Ledger.RetryBaseDelay) * time.Millisecond
	config.Ledger.RetryMaxDelay = time.Duration(config.Ledger.RetryMaxDelay) * time.Millisecond
	config.Ledger.RequestTimeout = time.Duration(config.Ledger.RequestTimeout) * time.Second
}
