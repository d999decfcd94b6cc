package models

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

// Every column GORM derives from a model must exist in the bootstrap
// migration; a missing column makes inserts against a migrated database fail
// at runtime.
func TestMigrationCoversModelColumns(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("..", "..", "migrations", "0001_init.up.sql"))
	require.NoError(t, err)
	ddl := string(raw)

	cacheStore := &sync.Map{}
	for _, model := range []any{
		&User{},
		&Exam{},
		&Question{},
		&Option{},
		&ExamAssignment{},
		&Attempt{},
		&Answer{},
		&AuditLog{},
	} {
		sch, err := schema.Parse(model, cacheStore, schema.NamingStrategy{})
		require.NoError(t, err)

		table := tableDDL(t, ddl, sch.Table)
		for _, field := range sch.Fields {
			if field.DBName == "" {
				continue
			}
			column := regexp.MustCompile(`(?m)^\s*` + regexp.QuoteMeta(field.DBName) + `\s`)
			assert.Truef(t, column.MatchString(table),
				"column %s.%s is missing from the migration", sch.Table, field.DBName)
		}
	}
}

func tableDDL(t *testing.T, ddl, table string) string {
	t.Helper()
	start := strings.Index(ddl, "CREATE TABLE "+table+" (")
	require.NotEqual(t, -1, start, "table %s is missing from the migration", table)
	length := strings.Index(ddl[start:], ");")
	require.NotEqual(t, -1, length)
	return ddl[start : start+length]
}
