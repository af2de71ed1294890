package boundary

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestExtractZIPFlattensPaths(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "cb.zip")
	writeZip(t, zipPath, map[string]string{
		"nested/cb_2023_24_tract_500k.shp": "shp-bytes",
		"cb_2023_24_tract_500k.dbf":        "dbf-bytes",
	})

	extractDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(extractDir, 0o755))
	require.NoError(t, extractZIP(zipPath, extractDir))

	data, err := os.ReadFile(filepath.Join(extractDir, "cb_2023_24_tract_500k.shp"))
	require.NoError(t, err)
	assert.Equal(t, "shp-bytes", string(data))
}

func TestFindFileByExt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "layer.SHP"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "layer.dbf"), []byte("x"), 0o644))

	path, err := findFileByExt(dir, ".shp")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "layer.SHP"), path)

	_, err = findFileByExt(dir, ".prj")
	assert.Error(t, err)
}

func TestNewDownloaderDefaultsRate(t *testing.T) {
	d := NewDownloader("https://example.com", "", -1)
	assert.NotNil(t, d.limiter)
}
