package datastore

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/tphakala/pcrdb/internal/conf"
)

func mysqlDSN(settings *conf.ServerSettings) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		settings.Username, settings.Password,
		settings.Host, settings.Port,
		settings.Database)
}

func mysqlDialector(settings *conf.ServerSettings) (gorm.Dialector, string, error) {
	location := fmt.Sprintf("%s:%d/%s", settings.Host, settings.Port, settings.Database)
	return mysql.Open(mysqlDSN(settings)), location, nil
}
