package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_RequiresInit(t *testing.T) {
	inTempDir(t)
	var buf bytes.Buffer
	err := RunStatus(&buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mlint init")
}

func TestStatus_EmptyIndex(t *testing.T) {
	inTempDir(t)
	runInit(t)

	var buf bytes.Buffer
	require.NoError(t, RunStatus(&buf))
	assert.Equal(t, "Files: 0\n", buf.String())
}

func TestStatus_SummarizesFindings(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeFile(t, "clean.moos", "AppTick = 4\n")
	writeFile(t, "broken.moos", "#endif\n#endif\n")
	writeFile(t, "warn.moos", "#define A 1\n#define A 2\n")
	runSync(t)

	var buf bytes.Buffer
	require.NoError(t, RunStatus(&buf))

	out := buf.String()
	assert.Contains(t, out, "Files: 3")
	assert.Contains(t, out, "with errors: 1")
	assert.Contains(t, out, "errors: 2")
	assert.Contains(t, out, "warnings: 1")
	assert.Contains(t, out, "By code:")
	assert.Contains(t, out, "UnmatchedEndif: 2")
	assert.Contains(t, out, "VariableRedefined: 1")
}
