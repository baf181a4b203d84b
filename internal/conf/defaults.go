package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Inventory rule defaults
const (
	DefaultOverdueDays      = 14
	DefaultRecentActivity   = 10
	DefaultLowVolumePercent = 25.0
	DefaultImportErrorLimit = 10
	DefaultTopDistribution  = 10
	DefaultTopUsers         = 5
	DefaultCTMax            = 50.0
	DefaultVolumeMax        = 1000.0
)

// DefaultOverdueSubject is the subject line of overdue reminders
const DefaultOverdueSubject = "PCR Database: Samples Reserved for Over 2 Weeks"

// setDefaultConfig sets default values for every configuration key
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("main.name", "pcrdb")
	v.SetDefault("main.debug", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.file", "")

	v.SetDefault("database.engine", EngineSQLite)
	v.SetDefault("database.sqlite.path", "pcrdb.db")
	v.SetDefault("database.mysql.host", "localhost")
	v.SetDefault("database.mysql.port", 3306)
	v.SetDefault("database.mysql.database", "pcrdb")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.database", "pcrdb")
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.slowquerythreshold", 200*time.Millisecond)

	v.SetDefault("webserver.enabled", true)
	v.SetDefault("webserver.listen", ":8080")
	v.SetDefault("webserver.corsorigins", []string{})
	v.SetDefault("webserver.metrics", true)

	v.SetDefault("inventory.overduedays", DefaultOverdueDays)
	v.SetDefault("inventory.recentactivity", DefaultRecentActivity)
	v.SetDefault("inventory.lowvolumepercent", DefaultLowVolumePercent)
	v.SetDefault("inventory.importerrorlimit", DefaultImportErrorLimit)
	v.SetDefault("inventory.topdistribution", DefaultTopDistribution)
	v.SetDefault("inventory.topusers", DefaultTopUsers)
	v.SetDefault("inventory.ctmin", 0.0)
	v.SetDefault("inventory.ctmax", DefaultCTMax)
	v.SetDefault("inventory.volumemin", 0.0)
	v.SetDefault("inventory.volumemax", DefaultVolumeMax)

	v.SetDefault("notification.urls", []string{})
	v.SetDefault("notification.timeout", 10*time.Second)
	v.SetDefault("notification.subject", DefaultOverdueSubject)
	v.SetDefault("notification.link", "")

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.clientid", "")
	v.SetDefault("mqtt.topic", "pcrdb")
	v.SetDefault("mqtt.retain", false)

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")

	v.SetDefault("cache.treettl", 5*time.Minute)
	v.SetDefault("cache.dashboardttl", 30*time.Second)
}
