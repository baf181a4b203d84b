package datastore

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tphakala/pcrdb/internal/conf"
)

func postgresDSN(settings *conf.ServerSettings) string {
	sslMode := settings.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		settings.Host, settings.Username, settings.Password,
		settings.Database, settings.Port, sslMode)
}

func postgresDialector(settings *conf.ServerSettings) (gorm.Dialector, string, error) {
	location := fmt.Sprintf("%s:%d/%s", settings.Host, settings.Port, settings.Database)
	return postgres.Open(postgresDSN(settings)), location, nil
}
