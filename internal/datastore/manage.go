package datastore

import (
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/pcrdb/internal/conf"
	"github.com/tphakala/pcrdb/internal/datastore/entities"
	"github.com/tphakala/pcrdb/internal/errors"
	"github.com/tphakala/pcrdb/internal/logger"
)

// sqliteSetNullTriggers make SET NULL references reliable on SQLite, where
// AutoMigrate on an existing table does not rewrite ON DELETE clauses.
var sqliteSetNullTriggers = []string{
	`CREATE TRIGGER IF NOT EXISTS trg_storage_place_delete_set_null
	BEFORE DELETE ON storage_places
	FOR EACH ROW
	BEGIN
		UPDATE samples SET storage_id = NULL WHERE storage_id = OLD.id;
	END`,
	`CREATE TRIGGER IF NOT EXISTS trg_extractor_delete_set_null
	BEFORE DELETE ON extractors
	FOR EACH ROW
	BEGIN
		UPDATE samples SET extractor_id = NULL WHERE extractor_id = OLD.id;
	END`,
	`CREATE TRIGGER IF NOT EXISTS trg_cycler_delete_set_null
	BEFORE DELETE ON cyclers
	FOR EACH ROW
	BEGIN
		UPDATE samples SET cycler_id = NULL WHERE cycler_id = OLD.id;
	END`,
}

// performAutoMigration migrates every entity and installs engine specific fixups.
func performAutoMigration(db *gorm.DB, engine string, log logger.Logger) error {
	start := time.Now()

	if err := db.AutoMigrate(entities.All()...); err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("engine", engine).
			Context("operation", "auto_migrate").
			Build()
	}

	if engine == conf.EngineSQLite || engine == "" {
		for _, stmt := range sqliteSetNullTriggers {
			if err := db.Exec(stmt).Error; err != nil {
				return errors.New(err).
					Component("datastore").
					Category(errors.CategoryDatabase).
					Context("operation", "create_trigger").
					Build()
			}
		}
	}

	log.Debug("schema migrated",
		logger.String("engine", engine),
		logger.Duration("elapsed", time.Since(start)))
	return nil
}
