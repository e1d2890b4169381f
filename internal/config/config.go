package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds nexcast configuration, read from the environment (.env if present).
type Config struct {
	AppEnv   string // APP_ENV
	AppHost  string // APP_HOST
	HTTPPort string // APP_PORT or PORT

	// DatabaseURL wins over the DB_* parts when set.
	DatabaseURLRaw string // DATABASE_URL
	DB             struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
		MaxConns int32
	}
	MigrateOnStart bool // MIGRATE_ON_START

	AWSRegion  string // AWS_REGION
	S3Bucket   string // S3_BUCKET_NAME
	S3Endpoint string // S3_ENDPOINT, for S3-compatible stores

	CognitoClientID     string // COGNITO_CLIENT_ID
	CognitoClientSecret string // COGNITO_CLIENT_SECRET

	// AuthContextHeader carries the gateway's JSON request context in HTTP mode.
	AuthContextHeader      string // AUTH_CONTEXT_HEADER
	// TrustContextHeader must be off when clients can reach the server without a gateway.
	TrustContextHeader     bool   // TRUST_CONTEXT_HEADER
	// SessionEndRequireOwner rejects anonymous /session/end calls.
	SessionEndRequireOwner bool   // SESSION_END_REQUIRE_OWNER
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	maxConns, err := strconv.ParseInt(getEnv("DB_MAX_CONNS", "0"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("config: DB_MAX_CONNS: %w", err)
	}
	requireOwner, err := strconv.ParseBool(getEnv("SESSION_END_REQUIRE_OWNER", "true"))
	if err != nil {
		return nil, fmt.Errorf("config: SESSION_END_REQUIRE_OWNER: %w", err)
	}
	trustHeader, err := strconv.ParseBool(getEnv("TRUST_CONTEXT_HEADER", "true"))
	if err != nil {
		return nil, fmt.Errorf("config: TRUST_CONTEXT_HEADER: %w", err)
	}
	migrateOnStart, err := strconv.ParseBool(getEnv("MIGRATE_ON_START", "false"))
	if err != nil {
		return nil, fmt.Errorf("config: MIGRATE_ON_START: %w", err)
	}

	cfg := &Config{
		AppEnv:                 getEnv("APP_ENV", "production"),
		AppHost:                getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:               firstEnv("APP_PORT", "PORT", "8080"),
		DatabaseURLRaw:         os.Getenv("DATABASE_URL"),
		MigrateOnStart:         migrateOnStart,
		AWSRegion:              os.Getenv("AWS_REGION"),
		S3Bucket:               os.Getenv("S3_BUCKET_NAME"),
		S3Endpoint:             os.Getenv("S3_ENDPOINT"),
		CognitoClientID:        os.Getenv("COGNITO_CLIENT_ID"),
		CognitoClientSecret:    os.Getenv("COGNITO_CLIENT_SECRET"),
		AuthContextHeader:      getEnv("AUTH_CONTEXT_HEADER", "X-Request-Context"),
		TrustContextHeader:     trustHeader,
		SessionEndRequireOwner: requireOwner,
	}
	cfg.DB.Host = os.Getenv("DB_HOST")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = os.Getenv("DB_USER")
	cfg.DB.Password = os.Getenv("DB_PASSWORD")
	cfg.DB.Name = os.Getenv("DB_NAME")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.DB.MaxConns = int32(maxConns)
	return cfg, nil
}

// Validate checks the settings the API entrypoints need.
func (c *Config) Validate() error {
	if err := c.ValidateDatabase(); err != nil {
		return err
	}
	if c.S3Bucket == "" {
		return errors.New("config: S3_BUCKET_NAME is required")
	}
	if c.CognitoClientID == "" {
		return errors.New("config: COGNITO_CLIENT_ID is required")
	}
	if c.TrustContextHeader && c.AuthContextHeader == "" {
		return errors.New("config: AUTH_CONTEXT_HEADER must not be empty")
	}
	return nil
}

// ValidateDatabase is enough for the migrate command.
func (c *Config) ValidateDatabase() error {
	if c.DatabaseURLRaw != "" {
		return nil
	}
	if c.DB.Host == "" {
		return errors.New("config: DATABASE_URL or DB_HOST is required")
	}
	if c.DB.User == "" {
		return errors.New("config: DB_USER is required")
	}
	if c.DB.Name == "" {
		return errors.New("config: DB_NAME is required")
	}
	return nil
}

// DatabaseURL returns a postgres:// URL usable by pgx and golang-migrate.
func (c *Config) DatabaseURL() string {
	if c.DatabaseURLRaw != "" {
		return c.DatabaseURLRaw
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DB.User, c.DB.Password),
		Host:     c.DB.Host + ":" + c.DB.Port,
		Path:     "/" + c.DB.Name,
		RawQuery: url.Values{"sslmode": {c.DB.SSLMode}}.Encode(),
	}
	return u.String()
}

// Addr returns listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

// IdentityHeader is the header the identity middleware reads, or "" when forwarded
// contexts are not trusted.
func (c *Config) IdentityHeader() string {
	if !c.TrustContextHeader {
		return ""
	}
	return c.AuthContextHeader
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	for _, k := range keysAndDef[:len(keysAndDef)-1] {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
