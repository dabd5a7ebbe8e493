package database_test

import (
	"testing"

	"github.com/bk001juma/api-matengenezo/internal/model"
	"github.com/bk001juma/api-matengenezo/internal/testdb"
	"github.com/stretchr/testify/assert"
)

func TestMigrateCreatesTables(t *testing.T) {
	db := testdb.Open(t)

	for _, table := range []interface{}{&model.User{}, &model.RefreshToken{}, &model.Location{}, &model.Report{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}
}
