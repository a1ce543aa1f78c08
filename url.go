package pgtrigger

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// DefaultDatabaseURL returns the process-wide fallback connection string
// consulted whenever no explicit value is configured. Empty means no
// fallback is available.
func DefaultDatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// BuildDatabaseURL synthesizes a connection URL from the conventional PG*
// environment variables. Used for interactive tooling defaults.
func BuildDatabaseURL() string {
	var (
		host     = getEnvOrDefault("PGHOST", "localhost")
		port     = getEnvOrDefault("PGPORT", "5432")
		user     = getEnvOrDefault("PGUSER", "")
		password = getEnvOrDefault("PGPASSWORD", "")
		database = getEnvOrDefault("PGDATABASE", "")
		sslmode  = getEnvOrDefault("PGSSLMODE", "disable")
	)

	u := &url.URL{
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%s", host, port),
		User:     url.UserPassword(user, password),
		Path:     database,
		RawQuery: url.Values{"sslmode": []string{sslmode}}.Encode(),
	}
	return (u).String()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

const defaultStatementTimeout = "30s"

// setConnectionDefaults fills connection parameters the string does not
// choose itself. Managed database services commonly present self-signed
// certificates; sslmode=require encrypts without verifying them. The
// statement_timeout bounds every DDL round trip so a wedged statement
// cannot hang a provisioning step indefinitely.
func setConnectionDefaults(connectionString string) string {
	connectionString = setDefaultParameter(connectionString, "sslmode", "require")
	return setDefaultParameter(connectionString, "statement_timeout", defaultStatementTimeout)
}

func setDefaultParameter(connectionString, name, value string) string {
	if strings.HasPrefix(connectionString, "postgres://") || strings.HasPrefix(connectionString, "postgresql://") {
		parsedURL, err := url.Parse(connectionString)
		if err != nil {
			return connectionString
		}

		query := parsedURL.Query()
		if query.Get(name) != "" {
			return connectionString
		}

		query.Set(name, value)
		parsedURL.RawQuery = query.Encode()
		return parsedURL.String()
	}

	// key=value DSN form
	if strings.Contains(connectionString, name+"=") {
		return connectionString
	}
	return strings.TrimSpace(connectionString + " " + name + "=" + value)
}
