package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moostools/mlint/internal/analysis"
)

func TestRecordFile_InsertsAndUpdates(t *testing.T) {
	sqlDB, err := Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	defer sqlDB.Close()

	res := analysis.Analyze("#define HOST alpha\n#define HOST bravo\n", analysis.Options{})
	isNew, err := RecordFile(sqlDB, "alpha.moos", res)
	require.NoError(t, err)
	assert.True(t, isNew)

	var errs, warns int
	require.NoError(t, sqlDB.QueryRow(
		`SELECT errors, warnings FROM files WHERE file_path = 'alpha.moos'`).Scan(&errs, &warns))
	assert.Equal(t, 0, errs)
	assert.Equal(t, 1, warns)

	// Re-recording a clean analysis replaces the old rows.
	clean := analysis.Analyze("name = alpha\n", analysis.Options{})
	isNew, err = RecordFile(sqlDB, "alpha.moos", clean)
	require.NoError(t, err)
	assert.False(t, isNew)

	diags, err := FileDiagnostics(sqlDB, "alpha.moos")
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestFileDiagnostics_ReturnsStoredRows(t *testing.T) {
	sqlDB, err := Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	defer sqlDB.Close()

	res := analysis.Analyze("#endif\n", analysis.Options{})
	_, err = RecordFile(sqlDB, "bad.plug", res)
	require.NoError(t, err)

	diags, err := FileDiagnostics(sqlDB, "bad.plug")
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "error", diags[0].Severity)
	assert.Equal(t, "UnmatchedEndif", diags[0].Code)
	assert.Equal(t, 1, diags[0].Line)
}

func TestRecordFile_StoresIncludes(t *testing.T) {
	sqlDB, err := Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	defer sqlDB.Close()

	res := analysis.Analyze("#include missing.plug\n", analysis.Options{})
	_, err = RecordFile(sqlDB, "top.moos", res)
	require.NoError(t, err)

	var path string
	var resolved int
	require.NoError(t, sqlDB.QueryRow(
		`SELECT path, resolved FROM includes`).Scan(&path, &resolved))
	assert.Equal(t, "missing.plug", path)
	assert.Equal(t, 0, resolved)
}
