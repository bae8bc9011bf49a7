package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds application level configuration loaded from .env, an optional
// config file, environment variables and flags.
type Config struct {
	RunAddress           string
	BackendURL           string
	BackendTimeout       time.Duration
	BackendRateLimit     float64
	BackendBurst         int
	ConsoleSecret        string
	ConsoleTokenTTL      time.Duration
	SessionStore         string
	SQLitePath           string
	DatabaseURI          string
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	SessionTTL           time.Duration
	RefreshInterval      time.Duration
	RefreshWorkers       int
	ShutdownTimeout      time.Duration
	StrictFarmerApproval bool
	InvoiceArchive       string
	LogLevel             string
	LogFormat            string
}

// Session store backends.
const (
	SessionStoreMemory   = "memory"
	SessionStoreSQLite   = "sqlite"
	SessionStorePostgres = "postgres"
	SessionStoreRedis    = "redis"
)

const (
	defaultRunAddress      = ":8080"
	defaultBackendTimeout  = 10 * time.Second
	defaultBackendBurst    = 10
	defaultConsoleSecret   = "change-me-in-production"
	defaultConsoleTokenTTL = 12 * time.Hour
	defaultSessionStore    = SessionStoreMemory
	defaultSQLitePath      = "farmsupply.db"
	defaultRedisAddr       = "localhost:6379"
	defaultSessionTTL      = 24 * time.Hour
	defaultRefreshInterval = 30 * time.Second
	defaultRefreshWorkers  = 2
	defaultShutdownTimeout = 10 * time.Second
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"

	envPrefix = "FARMSUPPLY"
)

type option struct {
	key  string
	env  string
	flag string
	def  any
}

var options = []option{
	{"run_address", "RUN_ADDRESS", "address", defaultRunAddress},
	{"backend_url", "BACKEND_URL", "backend-url", ""},
	{"backend_timeout", "BACKEND_TIMEOUT", "backend-timeout", defaultBackendTimeout},
	{"backend_rate_limit", "BACKEND_RATE_LIMIT", "backend-rate-limit", 0.0},
	{"backend_burst", "BACKEND_BURST", "backend-burst", defaultBackendBurst},
	{"console_secret", "JWT_SECRET", "jwt-secret", defaultConsoleSecret},
	{"console_token_ttl", "CONSOLE_TOKEN_TTL", "console-token-ttl", defaultConsoleTokenTTL},
	{"session_store", "SESSION_STORE", "session-store", defaultSessionStore},
	{"sqlite_path", "SQLITE_PATH", "sqlite-path", defaultSQLitePath},
	{"database_uri", "DATABASE_URI", "database-uri", ""},
	{"redis_addr", "REDIS_ADDR", "redis-addr", defaultRedisAddr},
	{"redis_password", "REDIS_PASSWORD", "", ""},
	{"jwt_secret_file", "JWT_SECRET_FILE", "", ""},
	{"redis_db", "REDIS_DB", "redis-db", 0},
	{"session_ttl", "SESSION_TTL", "session-ttl", defaultSessionTTL},
	{"refresh_interval", "REFRESH_INTERVAL", "refresh-interval", defaultRefreshInterval},
	{"refresh_workers", "REFRESH_WORKERS", "refresh-workers", defaultRefreshWorkers},
	{"shutdown_timeout", "SHUTDOWN_TIMEOUT", "shutdown-timeout", defaultShutdownTimeout},
	{"strict_farmer_approval", "STRICT_FARMER_APPROVAL", "strict-farmer-approval", false},
	{"invoice_archive", "INVOICE_ARCHIVE", "invoice-archive", ""},
	{"log_level", "LOG_LEVEL", "log-level", defaultLogLevel},
	{"log_format", "LOG_FORMAT", "log-format", defaultLogFormat},
}

// RegisterFlags declares every command line flag understood by Load.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Path to a config file (yaml, toml or json)")
	flags.StringP("address", "a", defaultRunAddress, "HTTP gateway listen address")
	flags.StringP("backend-url", "r", "", "Backend service base URL")
	flags.Duration("backend-timeout", defaultBackendTimeout, "Timeout of a single backend request")
	flags.Float64("backend-rate-limit", 0, "Backend requests per second, 0 disables limiting")
	flags.Int("backend-burst", defaultBackendBurst, "Backend request burst size")
	flags.String("jwt-secret", defaultConsoleSecret, "Secret for signing console tokens")
	flags.Duration("console-token-ttl", defaultConsoleTokenTTL, "Lifetime of console tokens")
	flags.String("session-store", defaultSessionStore, "Session persistence: memory, sqlite, postgres or redis")
	flags.String("sqlite-path", defaultSQLitePath, "SQLite database file for session persistence")
	flags.StringP("database-uri", "d", "", "PostgreSQL DSN for session persistence")
	flags.String("redis-addr", defaultRedisAddr, "Redis address for session persistence")
	flags.Int("redis-db", 0, "Redis database number")
	flags.Duration("session-ttl", defaultSessionTTL, "Expiry of persisted sessions in redis")
	flags.Duration("refresh-interval", defaultRefreshInterval, "Interval between background refreshes")
	flags.Int("refresh-workers", defaultRefreshWorkers, "Number of concurrent refresh workers")
	flags.Duration("shutdown-timeout", defaultShutdownTimeout, "Graceful shutdown timeout")
	flags.Bool("strict-farmer-approval", false, "Reject products and orders tied to unapproved farmers")
	flags.String("invoice-archive", "", "Invoice archive target: dir:/path or s3://bucket/prefix")
	flags.String("log-level", defaultLogLevel, "Log level")
	flags.String("log-format", defaultLogFormat, "Log format: json or console")
}

// Load parses configuration. flags may be nil when no flags are available.
func Load(flags *pflag.FlagSet) (*Config, error) {
	if err := loadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		return nil, err
	}
	return load(viper.New(), flags)
}

func loadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func load(v *viper.Viper, flags *pflag.FlagSet) (*Config, error) {
	for _, opt := range options {
		v.SetDefault(opt.key, opt.def)
		envKey := envPrefix + "_" + strings.ToUpper(opt.key)
		if err := v.BindEnv(opt.key, envKey, opt.env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", opt.env, err)
		}
		if flags == nil || opt.flag == "" {
			continue
		}
		if f := flags.Lookup(opt.flag); f != nil {
			if err := v.BindPFlag(opt.key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", opt.flag, err)
			}
		}
	}

	if path := configPath(flags); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		RunAddress:           v.GetString("run_address"),
		BackendURL:           strings.TrimRight(v.GetString("backend_url"), "/"),
		BackendTimeout:       v.GetDuration("backend_timeout"),
		BackendRateLimit:     v.GetFloat64("backend_rate_limit"),
		BackendBurst:         v.GetInt("backend_burst"),
		ConsoleSecret:        v.GetString("console_secret"),
		ConsoleTokenTTL:      v.GetDuration("console_token_ttl"),
		SessionStore:         strings.ToLower(v.GetString("session_store")),
		SQLitePath:           v.GetString("sqlite_path"),
		DatabaseURI:          v.GetString("database_uri"),
		RedisAddr:            v.GetString("redis_addr"),
		RedisPassword:        v.GetString("redis_password"),
		RedisDB:              v.GetInt("redis_db"),
		SessionTTL:           v.GetDuration("session_ttl"),
		RefreshInterval:      v.GetDuration("refresh_interval"),
		RefreshWorkers:       v.GetInt("refresh_workers"),
		ShutdownTimeout:      v.GetDuration("shutdown_timeout"),
		StrictFarmerApproval: v.GetBool("strict_farmer_approval"),
		InvoiceArchive:       v.GetString("invoice_archive"),
		LogLevel:             v.GetString("log_level"),
		LogFormat:            v.GetString("log_format"),
	}

	if secretFile := v.GetString("jwt_secret_file"); secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt secret file: %w", err)
		}
		cfg.ConsoleSecret = strings.TrimSpace(string(content))
	}

	normalize(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func configPath(flags *pflag.FlagSet) string {
	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Value.String() != "" {
			return f.Value.String()
		}
	}
	return os.Getenv(envPrefix + "_CONFIG")
}

func normalize(cfg *Config) {
	if cfg.BackendTimeout <= 0 {
		cfg.BackendTimeout = defaultBackendTimeout
	}
	if cfg.BackendRateLimit < 0 {
		cfg.BackendRateLimit = 0
	}
	if cfg.BackendBurst <= 0 {
		cfg.BackendBurst = defaultBackendBurst
	}
	if cfg.ConsoleTokenTTL <= 0 {
		cfg.ConsoleTokenTTL = defaultConsoleTokenTTL
	}
	if cfg.SessionStore == "" {
		cfg.SessionStore = defaultSessionStore
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = defaultRefreshInterval
	}
	if cfg.RefreshWorkers <= 0 {
		cfg.RefreshWorkers = defaultRefreshWorkers
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = defaultLogFormat
	}
}

func (c *Config) validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("backend URL must be provided")
	}
	if c.ConsoleSecret == "" {
		return fmt.Errorf("console secret must not be empty")
	}

	switch c.SessionStore {
	case SessionStoreMemory:
	case SessionStoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite path must be provided for sqlite session store")
		}
	case SessionStorePostgres:
		if c.DatabaseURI == "" {
			return fmt.Errorf("database URI must be provided for postgres session store")
		}
	case SessionStoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis address must be provided for redis session store")
		}
	default:
		return fmt.Errorf("unknown session store %q", c.SessionStore)
	}

	return nil
}
