// config.go: Settings for the PCR sample inventory
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/pcrdb/internal/errors"
	"github.com/tphakala/pcrdb/internal/logger"
)

// Database engines
const (
	EngineSQLite   = "sqlite"
	EngineMySQL    = "mysql"
	EnginePostgres = "postgres"
)

// MainSettings contains the instance identity
type MainSettings struct {
	Name  string `yaml:"name" mapstructure:"name"`   // instance name, used as MQTT client id and in notifications
	Debug bool   `yaml:"debug" mapstructure:"debug"` // forces debug logging for every module
}

// SQLiteSettings contains SQLite specific settings
type SQLiteSettings struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerSettings contains network database connection settings shared by MySQL and PostgreSQL
type ServerSettings struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	Database string `yaml:"database" mapstructure:"database"`
	SSLMode  string `yaml:"sslmode,omitempty" mapstructure:"sslmode"` // postgres only
}

// DatabaseSettings selects the engine and its connection parameters
type DatabaseSettings struct {
	Engine             string         `yaml:"engine" mapstructure:"engine"`
	SQLite             SQLiteSettings `yaml:"sqlite" mapstructure:"sqlite"`
	MySQL              ServerSettings `yaml:"mysql" mapstructure:"mysql"`
	Postgres           ServerSettings `yaml:"postgres" mapstructure:"postgres"`
	SlowQueryThreshold time.Duration  `yaml:"slowquerythreshold" mapstructure:"slowquerythreshold"`
}

// WebServerSettings contains HTTP API settings
type WebServerSettings struct {
	Enabled     bool     `yaml:"enabled" mapstructure:"enabled"`
	Listen      string   `yaml:"listen" mapstructure:"listen"`
	CORSOrigins []string `yaml:"corsorigins" mapstructure:"corsorigins"`
	Metrics     bool     `yaml:"metrics" mapstructure:"metrics"` // expose /metrics
}

// InventorySettings contains the tunables of the inventory rules
type InventorySettings struct {
	OverdueDays      int     `yaml:"overduedays" mapstructure:"overduedays"`           // holding period before a sample is overdue
	RecentActivity   int     `yaml:"recentactivity" mapstructure:"recentactivity"`     // size of the recent-activity feed
	LowVolumePercent float64 `yaml:"lowvolumepercent" mapstructure:"lowvolumepercent"` // remaining/initial below this is "low volume"
	ImportErrorLimit int     `yaml:"importerrorlimit" mapstructure:"importerrorlimit"` // import error messages returned to the caller
	TopDistribution  int     `yaml:"topdistribution" mapstructure:"topdistribution"`   // rows in the type and target distributions
	TopUsers         int     `yaml:"topusers" mapstructure:"topusers"`                 // rows in the most-active users list
	CTMin            float64 `yaml:"ctmin" mapstructure:"ctmin"`
	CTMax            float64 `yaml:"ctmax" mapstructure:"ctmax"`
	VolumeMin        float64 `yaml:"volumemin" mapstructure:"volumemin"`
	VolumeMax        float64 `yaml:"volumemax" mapstructure:"volumemax"`
}

// NotificationSettings configures overdue reminders
type NotificationSettings struct {
	URLs    []string      `yaml:"urls" mapstructure:"urls"` // shoutrrr service URLs
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Subject string        `yaml:"subject" mapstructure:"subject"`
	Link    string        `yaml:"link" mapstructure:"link"` // "my samples" page named in reminders
}

// MQTTSettings configures the lifecycle event publisher
type MQTTSettings struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Broker   string `yaml:"broker" mapstructure:"broker"`
	ClientID string `yaml:"clientid" mapstructure:"clientid"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	Topic    string `yaml:"topic" mapstructure:"topic"`
	Retain   bool   `yaml:"retain" mapstructure:"retain"`
}

// SentrySettings configures error telemetry
type SentrySettings struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	DSN     string `yaml:"dsn" mapstructure:"dsn"`
}

// CacheSettings configures read caches in front of the datastore
type CacheSettings struct {
	TreeTTL      time.Duration `yaml:"treettl" mapstructure:"treettl"`
	DashboardTTL time.Duration `yaml:"dashboardttl" mapstructure:"dashboardttl"`
}

// Settings contains all configuration options
type Settings struct {
	Main         MainSettings         `yaml:"main" mapstructure:"main"`
	Logging      logger.LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Database     DatabaseSettings     `yaml:"database" mapstructure:"database"`
	WebServer    WebServerSettings    `yaml:"webserver" mapstructure:"webserver"`
	Inventory    InventorySettings    `yaml:"inventory" mapstructure:"inventory"`
	Notification NotificationSettings `yaml:"notification" mapstructure:"notification"`
	MQTT         MQTTSettings         `yaml:"mqtt" mapstructure:"mqtt"`
	Sentry       SentrySettings       `yaml:"sentry" mapstructure:"sentry"`
	Cache        CacheSettings        `yaml:"cache" mapstructure:"cache"`
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a new Settings instance.
// A default config file is written if none exists.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(viper.GetViper()); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings, err := unmarshalSettings(viper.GetViper())
	if err != nil {
		return nil, err
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// LoadFile reads settings from an explicit config file without touching the
// search paths or creating defaults.
func LoadFile(path string) (*Settings, error) {
	v := viper.New()
	setDefaultConfig(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "read-config").
			Build()
	}
	if err := bindEnvVars(v); err != nil {
		return nil, err
	}
	return unmarshalSettings(v)
}

func unmarshalSettings(v *viper.Viper) (*Settings, error) {
	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	return settings, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper(v *viper.Viper) error {
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		v.AddConfigPath(path)
	}

	setDefaultConfig(v)

	if err := bindEnvVars(v); err != nil {
		return err
	}

	err = v.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return createDefaultConfig(v, filepath.Join(configPaths[0], "config.yaml"))
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the current defaults to configPath and reads it back.
func createDefaultConfig(v *viper.Viper, configPath string) error {
	defaults := &Settings{}
	if err := v.Unmarshal(defaults); err != nil {
		return fmt.Errorf("error building default config: %w", err)
	}

	if err := SaveYAMLConfig(configPath, defaults); err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "Created default config file at:", configPath)
	v.SetConfigFile(configPath)
	return v.ReadInConfig()
}

// GetSettings returns the settings loaded by Load, or nil before Load.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SaveYAMLConfig writes settings to configPath atomically.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempName := tempFile.Name()
	defer os.Remove(tempName) //nolint:errcheck // no-op after the rename succeeds

	if _, err := tempFile.Write(yamlData); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempName, configPath); err != nil {
		return fmt.Errorf("error moving config file into place: %w", err)
	}

	return nil
}
