package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add shareholders table", "add_shareholders_table"},
		{"Add-Pool-Index", "add_pool_index"},
		{"ADD_POOL_INDEX", "add_pool_index"},
		{"add__pool__index", "add_pool_index"},
		{"Add Index 123", "add_index_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sqlite")

	mf, err := CreateMigration(dir, "add share class", "Share classes per pool")
	require.NoError(t, err)

	assert.Len(t, mf.Version, 14)
	assert.Equal(t, "add_share_class", mf.Name)
	assert.Equal(t,
		strings.TrimSuffix(filepath.Base(mf.UpPath), ".up.sql"),
		strings.TrimSuffix(filepath.Base(mf.DownPath), ".down.sql"))

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "add_share_class")
	assert.Contains(t, string(up), "Share classes per pool")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback")

	names, err := ListMigrations(os.DirFS(dir), ".")
	require.NoError(t, err)
	assert.Equal(t, []string{mf.Version + "_add_share_class"}, names)
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"pg/000002_add_index.up.sql":   {Data: []byte("--")},
		"pg/000002_add_index.down.sql": {Data: []byte("--")},
		"pg/000001_init.up.sql":        {Data: []byte("--")},
		"pg/000001_init.down.sql":      {Data: []byte("--")},
		"pg/README.md":                 {Data: []byte("docs")},
		"pg/nested.up.sql/keep":        {Data: []byte("")},
	}

	names, err := ListMigrations(fsys, "pg")
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_init", "000002_add_index"}, names)

	names, err = ListMigrations(fsys, "missing")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	for _, driver := range []string{"postgres", "sqlite"} {
		files, dir, err := Source(driver)
		require.NoError(t, err)

		names, err := ListMigrations(files, dir)
		require.NoError(t, err)
		assert.NotEmpty(t, names, driver)

		for _, name := range names {
			_, err := files.Open(dir + "/" + name + ".down.sql")
			assert.NoError(t, err, "%s/%s has no down migration", driver, name)
		}
	}

	pg, pgDir, _ := Source("postgres")
	lite, liteDir, _ := Source("sqlite")
	pgNames, _ := ListMigrations(pg, pgDir)
	liteNames, _ := ListMigrations(lite, liteDir)
	assert.Equal(t, pgNames, liteNames)

	_, _, err := Source("mysql")
	assert.Error(t, err)
}
