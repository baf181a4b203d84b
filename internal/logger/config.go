package logger

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	DefaultLevel string            `yaml:"level" mapstructure:"level"`       // trace, debug, info, warn, error
	Format       string            `yaml:"format" mapstructure:"format"`     // text or json
	Timezone     string            `yaml:"timezone" mapstructure:"timezone"` // "Local", "UTC" or an IANA name
	File         string            `yaml:"file" mapstructure:"file"`         // optional JSON log file in addition to the console
	ModuleLevels map[string]string `yaml:"modules" mapstructure:"modules"`   // per-module level overrides
}

// Default values for logging configuration.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// applyConfigDefaults fills empty fields with defaults
func applyConfigDefaults(cfg *LoggingConfig) {
	if cfg.DefaultLevel == "" {
		cfg.DefaultLevel = DefaultLogLevel
	}
	if cfg.Format == "" {
		cfg.Format = DefaultLogFormat
	}
	if cfg.ModuleLevels == nil {
		cfg.ModuleLevels = make(map[string]string)
	}
}
