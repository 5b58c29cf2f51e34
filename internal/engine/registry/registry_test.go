package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slopcheck/internal/core/types"
)

func TestNormalizeNPMRepositoryURL(t *testing.T) {
	assert.Equal(t, "https://github.com/foo/bar", normalizeNPMRepositoryURL("git+https://github.com/foo/bar.git"))
	assert.Equal(t, "https://github.com/foo/bar", normalizeNPMRepositoryURL("https://github.com/foo/bar"))
}

func TestParsePyPIRepositoryURLPrecedence(t *testing.T) {
	body := []byte(`{"info": {"name": "x", "project_urls": {"Repository": "https://gitlab.com/x/x", "Source": "https://github.com/x/x"}}}`)
	info, err := parsePyPI("x", body)
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/x/x", info.RepositoryURL)
}

func TestClientExistsHandles404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(WithEndpoint(types.RegistryNPM, func(name string) string { return srv.URL + "/" + name }))

	exists, err := c.Exists(context.Background(), "definitely-not-real-xyz", types.RegistryNPM)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestClientCachesNegativeResult(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(WithEndpoint(types.RegistryNPM, func(name string) string { return srv.URL + "/" + name }))

	_, _ = c.Exists(context.Background(), "ghost-pkg", types.RegistryNPM)
	_, _ = c.Exists(context.Background(), "ghost-pkg", types.RegistryNPM)
	assert.Equal(t, 1, calls)
}
