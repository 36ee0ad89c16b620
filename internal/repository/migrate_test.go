package repository

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autodoc/autodoc/migrations"
)

func TestMigrationVersions_Embedded(t *testing.T) {
	t.Parallel()

	versions, err := MigrationVersions(migrations.FS)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, versions)
}

func TestMigrationVersions_OrderAndFiltering(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"000010_c.up.sql":   {Data: []byte("SELECT 3")},
		"000002_b.up.sql":   {Data: []byte("SELECT 2")},
		"000002_b.down.sql": {Data: []byte("SELECT -2")},
		"000001_a.up.sql":   {Data: []byte("SELECT 1")},
		"README.md":         {Data: []byte("docs")},
		"noversion.up.sql":  {Data: []byte("x")},
	}

	versions, err := MigrationVersions(fsys)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 10}, versions)
}

func TestMigrationVersions_Invalid(t *testing.T) {
	t.Parallel()

	_, err := MigrationVersions(fstest.MapFS{"README.md": {Data: []byte("docs")}})
	assert.Error(t, err, "no migrations")

	_, err = MigrationVersions(fstest.MapFS{
		"000001_a.up.sql": {Data: []byte("x")},
		"000001_b.up.sql": {Data: []byte("y")},
	})
	assert.ErrorContains(t, err, "duplicate")
}
