package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration shared by the three binaries. Each
// binary reads only the sections it needs; the session secret in particular is
// injected from here and never read from an ambient global.
type Config struct {
	App          AppConfig
	Auth         ServiceConfig
	Community    ServiceConfig
	Gateway      GatewayConfig
	AuthDB       PostgresConfig
	CommunityDB  PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Session      SessionConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior common to all binaries.
type AppConfig struct {
	Env                   string
	Host                  string
	RequestTimeoutSeconds int
}

// ServiceConfig identifies one subgraph process.
type ServiceConfig struct {
	Name string
	Port string
}

// GatewayConfig holds the gateway's bind port and subgraph endpoints.
type GatewayConfig struct {
	Port                   string
	AuthURL                string
	CommunityURL           string
	SubgraphTimeoutSeconds int
}

// PostgresConfig holds DB connection values for one subgraph's database.
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
	Level string
}

// SessionConfig defines session token parameters shared by every verifier.
// Rotating the secret invalidates all outstanding sessions.
type SessionConfig struct {
	Secret     string
	TTLHours   int
	CookieName string
	BcryptCost int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Auth: ServiceConfig{
			Name: getEnv("AUTH_SERVICE_NAME", "auth-subgraph"),
			Port: getEnv("AUTH_PORT", "4001"),
		},
		Community: ServiceConfig{
			Name: getEnv("COMMUNITY_SERVICE_NAME", "community-subgraph"),
			Port: getEnv("COMMUNITY_PORT", "4002"),
		},
		Gateway: GatewayConfig{
			Port:                   getEnv("GATEWAY_PORT", "4000"),
			AuthURL:                getEnv("GATEWAY_AUTH_URL", "http://localhost:4001/graphql"),
			CommunityURL:           getEnv("GATEWAY_COMMUNITY_URL", "http://localhost:4002/graphql"),
			SubgraphTimeoutSeconds: getEnvAsInt("GATEWAY_SUBGRAPH_TIMEOUT_SECONDS", 15),
		},
		AuthDB:      loadPostgres("AUTH_POSTGRES_DSN", "migrations/auth"),
		CommunityDB: loadPostgres("COMMUNITY_POSTGRES_DSN", "migrations/community"),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Session: SessionConfig{
			Secret:     getEnv("SESSION_JWT_SECRET", "dev-secret"),
			TTLHours:   getEnvAsInt("SESSION_TTL_HOURS", 24),
			CookieName: getEnv("SESSION_COOKIE_NAME", "token"),
			BcryptCost: getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

func loadPostgres(dsnKey, migrationsDir string) PostgresConfig {
	return PostgresConfig{
		DSN:            os.Getenv(dsnKey),
		MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
		MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
		RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
		MigrationsDir:  migrationsDir,
		ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
		ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
	}
}

// Addr returns the HTTP bind address for a subgraph.
func (s ServiceConfig) Addr(host string) string {
	return fmt.Sprintf("%s:%s", host, s.Port)
}

// Addr returns the gateway bind address.
func (g GatewayConfig) Addr(host string) string {
	return fmt.Sprintf("%s:%s", host, g.Port)
}

// SubgraphTimeout returns the per-subgraph forwarding timeout.
func (g GatewayConfig) SubgraphTimeout() time.Duration {
	if g.SubgraphTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(g.SubgraphTimeoutSeconds) * time.Second
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TTL returns the session lifetime.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(s.TTLHours) * time.Hour
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
