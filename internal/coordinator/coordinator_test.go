package coordinator

import (
	"context"
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

func TestRunEndToEnd(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{"dependencies": {"left-pad-totally-fake-xyz": "1.0.0"}}`)
	writeFile(t, filepath.Join(root, "src", "app.js"), "// TODO: implement this properly\nfunction run() {\n  return 1\n}\n")

	cfg := types.DefaultConfig()
	// The hallucination module calls out to the real package registries;
	// this test exercises the rest of the pipeline without that network
	// dependency.
	cfg.ModuleEnabled["hallucination"] = false
	report, err := Run(context.Background(), root, cfg)
	require.NoError(t, err)

	assert.Equal(t, root, report.Meta.RootDirectory)
	assert.GreaterOrEqual(t, report.Meta.FileCount, 2)
	assert.GreaterOrEqual(t, len(report.Alerts), 1)
	assert.True(t, report.Score >= 0 && report.Score <= 100)

	for i := 1; i < len(report.Alerts); i++ {
		prev, cur := report.Alerts[i-1], report.Alerts[i]
		assert.True(t, prev.File < cur.File || (prev.File == cur.File && prev.Line <= cur.Line))
	}
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.Hallucination.TyposquatLevenshteinDistance = 9
	_, err := Run(context.Background(), t.TempDir(), cfg)
	assert.Error(t, err)
}

func TestRunCancellation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "app.js"), "function run() { return 1 }\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := Run(ctx, root, types.DefaultConfig())
	assert.Error(t, err)
	assert.Empty(t, report.Alerts)
}
