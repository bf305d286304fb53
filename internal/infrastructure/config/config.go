package config

import "time"

// Config holds all configuration for the application
type Config struct {
	Environment string         `mapstructure:"environment"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Cache       CacheConfig    `mapstructure:"cache"`
	Email       EmailConfig    `mapstructure:"email"`
	Logger      LoggerConfig   `mapstructure:"logger"`
	Ledger      LedgerConfig   `mapstructure:"ledger"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"readTimeout"`       // seconds
	WriteTimeout      time.Duration `mapstructure:"writeTimeout"`      // seconds
	IdleTimeout       time.Duration `mapstructure:"idleTimeout"`       // seconds
	ReadHeaderTimeout time.Duration `mapstructure:"readHeaderTimeout"` // seconds
	ShutdownTimeout   time.Duration `mapstructure:"shutdownTimeout"`   // seconds
	InternalToken     string        `mapstructure:"internalToken"`
	AllowedOrigins    []string      `mapstructure:"allowedOrigins"`
	MetricsEnabled    bool          `mapstructure:"metricsEnabled"`
	RateLimitRPS      float64       `mapstructure:"rateLimitRps"` // 0 disables rate limiting
	RateLimitBurst    int           `mapstructure:"rateLimitBurst"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres or memory
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslMode"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"` // minutes
	ConnMaxIdleTime time.Duration `mapstructure:"connMaxIdleTime"` // minutes
	QueryTimeout    time.Duration `mapstructure:"queryTimeout"`    // seconds
	LockTimeout     time.Duration `mapstructure:"lockTimeout"`     // milliseconds
	RetryAttempts   int           `mapstructure:"retryAttempts"`
	RetryDelay      time.Duration `mapstructure:"retryDelay"` // seconds
	Seed            bool          `mapstructure:"seed"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"poolSize"`
	MinIdleConns int           `mapstructure:"minIdleConns"`
	DialTimeout  time.Duration `mapstructure:"dialTimeout"`  // seconds
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`  // seconds
	WriteTimeout time.Duration `mapstructure:"writeTimeout"` // seconds
}

// CacheConfig contains read-through cache settings
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"` // seconds
	Prefix  string        `mapstructure:"prefix"`
}

// EmailConfig contains notification delivery settings
type EmailConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	From         string        `mapstructure:"from"`
	FromName     string        `mapstructure:"fromName"`
	SMTPHost     string        `mapstructure:"smtpHost"`
	SMTPPort     int           `mapstructure:"smtpPort"`
	SMTPUser     string        `mapstructure:"smtpUser"`
	SMTPPassword string        `mapstructure:"smtpPassword"`
	Queue        string        `mapstructure:"queue"`
	MaxAttempts  int           `mapstructure:"maxAttempts"`
	RetryDelay   time.Duration `mapstructure:"retryDelay"` // seconds
	Signature    string        `mapstructure:"signature"`
}

// LoggerConfig contains logger settings
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// LedgerConfig contains wallet and vote processing settings
type LedgerConfig struct {
	Currency        string        `mapstructure:"currency"`
	DefaultPageSize int           `mapstructure:"defaultPageSize"`
	MaxPageSize     int           `mapstructure:"maxPageSize"`
	RetryAttempts   int           `mapstructure:"retryAttempts"`
	RetryBaseDelay  time.Duration `mapstructure:"retryBaseDelay"` // milliseconds
	RetryMaxDelay   time.Duration `mapstructure:"retryMaxDelay"`  // milliseconds
	RequestTimeout  time.Duration `mapstructure:"requestTimeout"` // seconds
}
