// Package config provides configuration management for the todo backend.
// It handles loading and validation of configuration values from environment
// variables, with support for required variables, default values, and
// collective error reporting: every problem found during loading is reported
// at once instead of failing on the first one.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default values applied when the corresponding variable is unset.
const (
	DefaultPort       = "3000"
	DefaultCORSOrigin = "http://localhost:5173"
	DefaultSessionTTL = 86400 // seconds, 24h
	DefaultPoolSize   = 10
)

// AuthConfig holds session and CSRF related configuration.
type AuthConfig struct {
	JWTSecret    string        // secret for signing session tokens
	CookieSecret string        // secret for the CSRF cookie HMAC
	SessionTTL   time.Duration // lifetime of a session and its cookies
	SecureCookie bool          // Secure flag on cookies; off in development
}

// DatabaseConfig holds the connection settings for the Postgres pool.
type DatabaseConfig struct {
	URL      string
	PoolSize int
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	Database *DatabaseConfig
	Auth     *AuthConfig
	Server   *ServerConfig
}

// getRequiredEnv returns the value of a required environment variable,
// appending to errs if it is missing.
func getRequiredEnv(key string, errs *[]string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		*errs = append(*errs, fmt.Sprintf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

// getOptionalEnv returns the value of an environment variable or a default.
func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// getOptionalEnvInt parses an optional integer variable, appending to errs
// and returning the default if the value does not parse.
func getOptionalEnvInt(key string, defaultValue int, errs *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("invalid value for %s: expected integer, got %q", key, valueStr))
		return defaultValue
	}
	return valueInt
}

// parseOrigins splits a comma-separated origin list, dropping empty entries.
func parseOrigins(value string) []string {
	var origins []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// LoadConfig creates an AppConfig by reading and validating environment
// variables. It collects all errors encountered and returns a single
// aggregated error if any exist.
func LoadConfig() (*AppConfig, error) {
	var errs []string

	databaseURL := getRequiredEnv("DATABASE_URL", &errs)
	poolSize := getOptionalEnvInt("DB_POOL_SIZE", DefaultPoolSize, &errs)
	if poolSize <= 0 {
		errs = append(errs, fmt.Sprintf("DB_POOL_SIZE must be a positive integer, got %d", poolSize))
		poolSize = DefaultPoolSize
	}

	jwtSecret := getRequiredEnv("JWT_SECRET", &errs)
	cookieSecret := getRequiredEnv("COOKIE_SECRET", &errs)

	ttlSeconds := getOptionalEnvInt("SESSION_TTL_SECONDS", DefaultSessionTTL, &errs)
	if ttlSeconds <= 0 {
		errs = append(errs, fmt.Sprintf("SESSION_TTL_SECONDS must be a positive integer, got %d", ttlSeconds))
		ttlSeconds = DefaultSessionTTL
	}

	// The Secure cookie flag stays on unless the app is explicitly running
	// in development, where cookies travel over plain http://localhost.
	secureCookie := getOptionalEnv("APP_ENV", "production") != "development"

	port := getOptionalEnv("PORT", DefaultPort)
	origins := parseOrigins(getOptionalEnv("CORS_ORIGINS", DefaultCORSOrigin))
	if len(origins) == 0 {
		origins = []string{DefaultCORSOrigin}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(errs, "\n- "))
	}

	return &AppConfig{
		Database: &DatabaseConfig{
			URL:      databaseURL,
			PoolSize: poolSize,
		},
		Auth: &AuthConfig{
			JWTSecret:    jwtSecret,
			CookieSecret: cookieSecret,
			SessionTTL:   time.Duration(ttlSeconds) * time.Second,
			SecureCookie: secureCookie,
		},
		Server: &ServerConfig{
			Port:        port,
			CORSOrigins: origins,
		},
	}, nil
}
