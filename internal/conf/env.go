// env.go - Environment variable configuration and validation
package conf

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVars   []string           // Environment variable names, first set wins
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation.
// DB_* are the variable names of existing deployments and bind to both
// network engines.
func getEnvBindings() []envBinding {
	return []envBinding{
		{"main.debug", []string{"PCRDB_DEBUG"}, validateEnvBool},
		{"logging.level", []string{"PCRDB_LOG_LEVEL"}, validateEnvLogLevel},

		{"database.engine", []string{"PCRDB_DB_ENGINE"}, validateEnvEngine},
		{"database.sqlite.path", []string{"PCRDB_SQLITE_PATH"}, nil},

		{"database.postgres.database", []string{"PCRDB_DB_NAME", "DB_NAME"}, nil},
		{"database.postgres.username", []string{"PCRDB_DB_USER", "DB_USER"}, nil},
		{"database.postgres.password", []string{"PCRDB_DB_PASSWORD", "DB_PASSWORD"}, nil},
		{"database.postgres.host", []string{"PCRDB_DB_HOST", "DB_HOST"}, nil},
		{"database.postgres.port", []string{"PCRDB_DB_PORT", "DB_PORT"}, validateEnvPort},

		{"database.mysql.database", []string{"PCRDB_DB_NAME", "DB_NAME"}, nil},
		{"database.mysql.username", []string{"PCRDB_DB_USER", "DB_USER"}, nil},
		{"database.mysql.password", []string{"PCRDB_DB_PASSWORD", "DB_PASSWORD"}, nil},
		{"database.mysql.host", []string{"PCRDB_DB_HOST", "DB_HOST"}, nil},
		{"database.mysql.port", []string{"PCRDB_DB_PORT", "DB_PORT"}, validateEnvPort},

		{"webserver.listen", []string{"PCRDB_LISTEN"}, nil},
		{"notification.urls", []string{"PCRDB_NOTIFICATION_URLS"}, validateEnvURLList},
		{"mqtt.broker", []string{"PCRDB_MQTT_BROKER"}, validateEnvURL},
		{"mqtt.password", []string{"PCRDB_MQTT_PASSWORD"}, nil},
		{"sentry.enabled", []string{"PCRDB_SENTRY_ENABLED"}, validateEnvBool},
		{"sentry.dsn", []string{"PCRDB_SENTRY_DSN"}, nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars(v *viper.Viper) error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		args := append([]string{binding.ConfigKey}, binding.EnvVars...)
		if err := v.BindEnv(args...); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.ConfigKey, err))
			continue
		}

		if binding.Validate == nil {
			continue
		}
		for _, envVar := range binding.EnvVars {
			if envValue := os.Getenv(envVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value: %v", envVar, err))
				}
				break
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0, t/f", value)
	}
	return nil
}

func validateEnvLogLevel(value string) error {
	switch strings.ToLower(value) {
	case "trace", "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("log level must be one of trace, debug, info, warn, error, got '%s'", value)
}

func validateEnvEngine(value string) error {
	switch value {
	case EngineSQLite, EngineMySQL, EnginePostgres:
		return nil
	}
	return fmt.Errorf("database engine must be sqlite, mysql or postgres, got '%s'", value)
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid port: %w", err)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

func validateEnvURL(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme == "" {
		return fmt.Errorf("URL must include a scheme")
	}
	return nil
}

// validateEnvURLList validates a whitespace or comma separated URL list
func validateEnvURLList(value string) error {
	for _, raw := range strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ' ' }) {
		if err := validateEnvURL(raw); err != nil {
			return err
		}
	}
	return nil
}
