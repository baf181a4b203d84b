package conf

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/tphakala/pcrdb/internal/errors"
)

// GetDefaultConfigPaths returns the directories searched for config.yaml, in
// priority order. The first entry is where a default config is created.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "get-home-directory").
			Build()
	}

	if runtime.GOOS == "windows" {
		return []string{
			".",
			filepath.Join(homeDir, "AppData", "Roaming", "pcrdb"),
		}, nil
	}

	return []string{
		".",
		filepath.Join(homeDir, ".config", "pcrdb"),
		"/etc/pcrdb",
	}, nil
}

// FindConfigFile returns the path of the first config.yaml found in the default paths
func FindConfigFile() (string, error) {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return "", err
	}

	for _, path := range configPaths {
		configFilePath := filepath.Join(path, "config.yaml")
		if _, err := os.Stat(configFilePath); err == nil {
			return configFilePath, nil
		}
	}

	return "", errors.Newf("config file not found").
		Component("conf").
		Category(errors.CategoryConfiguration).
		Context("operation", "find-config-file").
		Build()
}
