package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSQLStatements(t *testing.T) {
	sql := `-- indexes
CREATE INDEX a ON t (x);

-- second
CREATE INDEX b
  ON t (y);
`
	assert.Equal(t, []string{"CREATE INDEX a ON t (x)", "CREATE INDEX b ON t (y)"}, splitSQLStatements(sql))
	assert.Empty(t, splitSQLStatements("-- only a comment\n\n"))
}

func TestStatementsFor_DollarQuotedKeptWhole(t *testing.T) {
	sql := `-- trigger
CREATE FUNCTION f() RETURNS trigger AS $$
BEGIN
  NEW.updated_at = NOW();
  RETURN NEW;
END;
$$ LANGUAGE plpgsql;`

	stmts := statementsFor(sql)
	require.Len(t, stmts, 1)
	assert.NotContains(t, stmts[0], "-- trigger")
	assert.Contains(t, stmts[0], "RETURN NEW;")
}

func TestListSQLFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_b.sql", "001_a.sql", "notes.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o755))

	files, err := listSQLFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.sql", "002_b.sql"}, files)

	_, err = listSQLFiles(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestShippedMigrationsParse(t *testing.T) {
	files, err := listSQLFiles("../../migrations")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		content, err := os.ReadFile(filepath.Join("../../migrations", f))
		require.NoError(t, err)
		assert.NotEmpty(t, statementsFor(string(content)), f)
	}
}
