package datastore

import (
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tphakala/pcrdb/internal/conf"
	"github.com/tphakala/pcrdb/internal/errors"
)

// sqliteDialector builds a SQLite dialector with foreign keys enforced,
// which the cascade and SET NULL rules of the schema depend on.
func sqliteDialector(settings *conf.SQLiteSettings) (gorm.Dialector, string, error) {
	path := settings.Path
	if path == "" {
		path = "pcrdb.db"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, "", errors.New(err).
				Component("datastore").
				Category(errors.CategoryFileIO).
				Context("path", path).
				Build()
		}
	}

	dsn := path + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
	return sqlite.Open(dsn), path, nil
}
