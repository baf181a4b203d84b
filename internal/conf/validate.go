package conf

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

func (ve *ValidationError) add(format string, args ...any) {
	ve.Errors = append(ve.Errors, fmt.Sprintf(format, args...))
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := &ValidationError{}

	validateDatabaseSettings(&settings.Database, ve)
	validateInventorySettings(&settings.Inventory, ve)
	validateWebServerSettings(&settings.WebServer, ve)
	validateNotificationSettings(&settings.Notification, ve)
	validateMQTTSettings(&settings.MQTT, ve)

	if settings.Sentry.Enabled && settings.Sentry.DSN == "" {
		ve.add("sentry.dsn is required when sentry is enabled")
	}

	if len(ve.Errors) > 0 {
		return *ve
	}
	return nil
}

func validateDatabaseSettings(db *DatabaseSettings, ve *ValidationError) {
	switch db.Engine {
	case EngineSQLite:
		if db.SQLite.Path == "" {
			ve.add("database.sqlite.path is required for the sqlite engine")
		}
	case EngineMySQL:
		validateServerSettings("database.mysql", &db.MySQL, ve)
	case EnginePostgres:
		validateServerSettings("database.postgres", &db.Postgres, ve)
	default:
		ve.add("database.engine must be sqlite, mysql or postgres, got %q", db.Engine)
	}

	if db.SlowQueryThreshold < 0 {
		ve.add("database.slowquerythreshold must not be negative")
	}
}

func validateServerSettings(prefix string, s *ServerSettings, ve *ValidationError) {
	if s.Host == "" {
		ve.add("%s.host is required", prefix)
	}
	if s.Port < 1 || s.Port > 65535 {
		ve.add("%s.port must be between 1 and 65535, got %d", prefix, s.Port)
	}
	if s.Database == "" {
		ve.add("%s.database is required", prefix)
	}
	if s.Username == "" {
		ve.add("%s.username is required", prefix)
	}
}

func validateInventorySettings(inv *InventorySettings, ve *ValidationError) {
	if inv.OverdueDays < 1 {
		ve.add("inventory.overduedays must be at least 1, got %d", inv.OverdueDays)
	}
	if inv.RecentActivity < 1 {
		ve.add("inventory.recentactivity must be at least 1, got %d", inv.RecentActivity)
	}
	if inv.LowVolumePercent < 0 || inv.LowVolumePercent > 100 {
		ve.add("inventory.lowvolumepercent must be between 0 and 100, got %g", inv.LowVolumePercent)
	}
	if inv.ImportErrorLimit < 1 {
		ve.add("inventory.importerrorlimit must be at least 1, got %d", inv.ImportErrorLimit)
	}
	if inv.TopDistribution < 1 || inv.TopUsers < 1 {
		ve.add("inventory.topdistribution and inventory.topusers must be at least 1")
	}
	if inv.CTMin > inv.CTMax {
		ve.add("inventory.ctmin (%g) must not exceed inventory.ctmax (%g)", inv.CTMin, inv.CTMax)
	}
	if inv.VolumeMin > inv.VolumeMax {
		ve.add("inventory.volumemin (%g) must not exceed inventory.volumemax (%g)", inv.VolumeMin, inv.VolumeMax)
	}
}

func validateWebServerSettings(ws *WebServerSettings, ve *ValidationError) {
	if ws.Enabled && ws.Listen == "" {
		ve.add("webserver.listen is required when the webserver is enabled")
	}
}

func validateNotificationSettings(n *NotificationSettings, ve *ValidationError) {
	for _, raw := range n.URLs {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" {
			// Never echo the URL, shoutrrr URLs carry credentials.
			ve.add("notification.urls contains an invalid service URL")
			continue
		}
	}
	if n.Timeout < 0 {
		ve.add("notification.timeout must not be negative")
	}
	if strings.TrimSpace(n.Subject) == "" {
		ve.add("notification.subject must not be empty")
	}
}

func validateMQTTSettings(m *MQTTSettings, ve *ValidationError) {
	if !m.Enabled {
		return
	}
	if m.Broker == "" {
		ve.add("mqtt.broker is required when mqtt is enabled")
	} else if u, err := url.Parse(m.Broker); err != nil || u.Scheme == "" {
		ve.add("mqtt.broker must be a URL like tcp://host:1883")
	}
	if strings.TrimSpace(m.Topic) == "" {
		ve.add("mqtt.topic is required when mqtt is enabled")
	}
}
