package datastore

import "github.com/tphakala/pcrdb/internal/logger"

// GetLogger returns the datastore module logger. SQL statements log at trace
// level, so they only show with logging.modules.datastore set to trace.
func GetLogger() logger.Logger {
	return logger.Global().Module("datastore")
}
