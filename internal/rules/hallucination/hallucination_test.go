package hallucination

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slopcheck/internal/core/types"
	"slopcheck/internal/engine/registry"
	"slopcheck/internal/rules"
)

func TestClosestTopPackage(t *testing.T) {
	match, dist := closestTopPackage("reacts", []string{"react", "vue"}, 1)
	require.Equal(t, "react", match)
	assert.Equal(t, 1, dist)

	match, _ = closestTopPackage("react", []string{"react"}, 1)
	assert.Equal(t, "", match, "identical name must never trigger")
}

func TestAnalyzePhantomPackage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	reg := registry.New(registry.WithEndpoint(types.RegistryNPM, func(name string) string { return srv.URL + "/" + name }))

	cfg := types.DefaultConfig()
	manifestPath := "/proj/package.json"
	in := rules.Input{
		Root: "/proj",
		Manifests: map[string][]types.PackageDependency{
			manifestPath: {{Name: "definitely-not-real-xyz", Registry: types.RegistryNPM, ManifestPath: manifestPath}},
		},
		Registry: reg,
		Config:   cfg,
	}

	mod := New()
	alerts := mod.Analyze(context.Background(), in)
	require.Len(t, alerts, 1)
	assert.Equal(t, "phantom-package", alerts[0].RuleID)
	assert.Equal(t, types.SeverityCritical, alerts[0].Severity)
	assert.Equal(t, manifestPath, alerts[0].File)
}
