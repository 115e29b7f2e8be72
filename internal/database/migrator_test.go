package database

import (
	"testing"
	"testing/fstest"

	"clinic-backend/migrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/002_b.sql":      {Data: []byte("SELECT 2")},
		"sql/001_a.sql":      {Data: []byte("SELECT 1")},
		"sql/003_reset.sql":  {Data: []byte("DROP TABLE x")},
		"sql/README.md":      {Data: []byte("docs")},
		"sql/nested/004.sql": {Data: []byte("SELECT 4")},
	}

	files, err := PendingFiles(fsys, "sql", map[string]bool{"001_a.sql": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"002_b.sql"}, files)
}

func TestEmbeddedMigrationsAreOrdered(t *testing.T) {
	files, err := PendingFiles(migrations.FS, ".", nil)
	require.NoError(t, err)

	require.NotEmpty(t, files)
	assert.Equal(t, "001_core_schema.sql", files[0])
	assert.Contains(t, files, "002_appointments.sql")
}
