package datastore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/pcrdb/internal/conf"
)

func TestDSN(t *testing.T) {
	t.Parallel()

	server := &conf.ServerSettings{
		Host:     "db.lab",
		Port:     5432,
		Username: "pcr",
		Password: "secret",
		Database: "pcrdb",
	}

	assert.Equal(t, "host=db.lab user=pcr password=secret dbname=pcrdb port=5432 sslmode=disable", postgresDSN(server))

	server.Port = 3306
	assert.Equal(t, "pcr:secret@tcp(db.lab:3306)/pcrdb?charset=utf8mb4&parseTime=True&loc=Local", mysqlDSN(server))
}
