package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slopcheck/internal/core/types"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScanFindsRootLevelManifest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{"dependencies": {}}`)
	writeFile(t, filepath.Join(root, "index.ts"), "export const x = 1\n")
	writeFile(t, filepath.Join(root, "src", "app.ts"), "export const y = 2\n")

	cfg := types.DefaultConfig()
	records, err := Scan(root, cfg.Scanning.Include, cfg.Scanning.Exclude, cfg.Scanning.MaxFileSize, cfg.Scanning.FollowSymlinks)
	require.NoError(t, err)

	byPath := make(map[string]types.FileRecord)
	for _, r := range records {
		byPath[filepath.Base(r.Path)] = r
	}

	manifest, ok := byPath["package.json"]
	require.True(t, ok, "expected root-level package.json to be scanned")
	assert.True(t, manifest.IsDependencyManifest)
	assert.Equal(t, types.LangJavaScript, manifest.Language)

	rootSource, ok := byPath["index.ts"]
	require.True(t, ok, "expected root-level index.ts to be scanned")
	assert.True(t, rootSource.IsSource)

	nested, ok := byPath["app.ts"]
	require.True(t, ok, "expected nested source file to still be scanned")
	assert.True(t, nested.IsSource)
}

func TestScanRespectsExcludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "app.js"), "console.log(1)\n")
	writeFile(t, filepath.Join(root, "node_modules", "left-pad", "index.js"), "module.exports = {}\n")

	cfg := types.DefaultConfig()
	records, err := Scan(root, cfg.Scanning.Include, cfg.Scanning.Exclude, cfg.Scanning.MaxFileSize, cfg.Scanning.FollowSymlinks)
	require.NoError(t, err)

	for _, r := range records {
		assert.NotContains(t, r.Path, "node_modules")
	}
}
