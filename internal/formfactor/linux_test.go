//go:build linux && !android

package formfactor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyRelease(t *testing.T) {
	assert.Equal(t, TV, classifyRelease(map[string]string{"ID": "LibreELEC"}))
	assert.Equal(t, TV, classifyRelease(map[string]string{"ID": "fedora", "VARIANT_ID": "tv"}))
	assert.Equal(t, Desktop, classifyRelease(map[string]string{"ID": "ubuntu", "VARIANT_ID": "server"}))
	assert.Equal(t, Desktop, classifyRelease(map[string]string{}))
}

func TestParseOSRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "os-release")
	content := "NAME=\"OSMC\"\nID=osmc\nVERSION_ID=\"2024.10\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	release, err := parseOSRelease(path)
	require.NoError(t, err)
	assert.Equal(t, "osmc", release["ID"])
	assert.Equal(t, "2024.10", release["VERSION_ID"])
	assert.Equal(t, TV, classifyRelease(release))
}
