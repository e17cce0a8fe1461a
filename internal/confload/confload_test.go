package confload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/behrlich/vdevcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.jsonc"))
	require.NoError(t, err)
	assert.Equal(t, vdevcache.DefaultConfig(), cfg)
}

func TestLoadOverridesOnlyFieldsPresent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.jsonc")
	// JSONC: comments and trailing commas are allowed.
	contents := `{
		// bump the line size for large sequential workloads
		"line_shift": 18,
	}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	want := vdevcache.DefaultConfig()
	want.LineShift = 18
	assert.Equal(t, want, cfg)
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.jsonc")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestFormatIncludesJSONKeys(t *testing.T) {
	cfg := vdevcache.DefaultConfig()
	out, err := Format(cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "cache_max")
}
