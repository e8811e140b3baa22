package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the portal and the auth API.
type Config struct {
	App      AppConfig
	Portal   PortalConfig
	AuthAPI  AuthAPIConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
}

// AppConfig controls server level behavior of the portal.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PortalConfig controls the form front-end.
type PortalConfig struct {
	RootForm          string
	DashboardURL      string
	APIBaseURL        string
	APITimeoutSeconds int
	SessionStore      string
	SessionCookieName string
	SessionTTLMinutes int
	CookieSecure      bool
	SubmitLockSeconds int
}

// AuthAPIConfig controls the companion auth API server.
type AuthAPIConfig struct {
	Host string
	Port string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string
	Format string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	rootForm := strings.ToLower(getEnv("PORTAL_ROOT_FORM", "register"))
	if rootForm != "register" && rootForm != "login" {
		return nil, fmt.Errorf("invalid PORTAL_ROOT_FORM %q: want register or login", rootForm)
	}

	sessionStore := strings.ToLower(getEnv("PORTAL_SESSION_STORE", "memory"))
	if sessionStore != "memory" && sessionStore != "redis" {
		return nil, fmt.Errorf("invalid PORTAL_SESSION_STORE %q: want memory or redis", sessionStore)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "auth-portal"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 0),
		},
		Portal: PortalConfig{
			RootForm:          rootForm,
			DashboardURL:      os.Getenv("PORTAL_DASHBOARD_URL"),
			APIBaseURL:        getEnv("PORTAL_API_BASE_URL", "http://127.0.0.1:8081"),
			APITimeoutSeconds: getEnvAsInt("PORTAL_API_TIMEOUT_SECONDS", 0),
			SessionStore:      sessionStore,
			SessionCookieName: getEnv("PORTAL_SESSION_COOKIE", "portal_session"),
			SessionTTLMinutes: getEnvAsInt("PORTAL_SESSION_TTL_MINUTES", 24*60),
			CookieSecure:      getEnvAsBool("PORTAL_COOKIE_SECURE", false),
			SubmitLockSeconds: getEnvAsInt("PORTAL_SUBMIT_LOCK_SECONDS", 60),
		},
		AuthAPI: AuthAPIConfig{
			Host: getEnv("AUTHAPI_HOST", "0.0.0.0"),
			Port: getEnv("AUTHAPI_PORT", "8081"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Addr returns the auth API bind address.
func (a AuthAPIConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// APITimeout returns the backend client timeout; zero leaves the transport default.
func (p PortalConfig) APITimeout() time.Duration {
	if p.APITimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(p.APITimeoutSeconds) * time.Second
}

// SessionTTL returns how long an idle portal session is retained.
func (p PortalConfig) SessionTTL() time.Duration {
	if p.SessionTTLMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(p.SessionTTLMinutes) * time.Minute
}

// SubmitLock bounds how long a pending submission blocks re-entry.
func (p PortalConfig) SubmitLock() time.Duration {
	if p.SubmitLockSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(p.SubmitLockSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
