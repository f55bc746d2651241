package release

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env")
	require.NoError(t, os.WriteFile(path, []byte(`
# REDCap credentials
REDCAP_API_URL=https://redcap.iths.org/api/
REDCAP_API_TOKEN="secret token"
export ENVIRONMENT=production
EMPTY=
`), 0o644))

	env, err := ParseEnvFile(path)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"REDCAP_API_URL":   "https://redcap.iths.org/api/",
		"REDCAP_API_TOKEN": "secret token",
		"ENVIRONMENT":      "production",
		"EMPTY":            "",
	}, env)
}

func TestParseEnvFile_Missing(t *testing.T) {
	_, err := ParseEnvFile(filepath.Join(t.TempDir(), "nope.env"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.env")
}

func TestParseEnvFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env")
	require.NoError(t, os.WriteFile(path, []byte("JUST A LINE\n"), 0o644))

	_, err := ParseEnvFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}
