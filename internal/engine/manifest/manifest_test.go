package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slopcheck/internal/core/errors"
	"slopcheck/internal/core/types"
)

func TestParsePackageJSON(t *testing.T) {
	content := []byte(`{
		"dependencies": {"react": "^18.0.0"},
		"devDependencies": {"vitest": "1.0.0"}
	}`)
	deps, err := Parse("/proj/package.json", content)
	require.NoError(t, err)
	assert.Len(t, deps, 2)
	assert.Equal(t, types.RegistryNPM, deps[0].Registry)
}

func TestParsePackageJSONMalformedYieldsError(t *testing.T) {
	deps, err := Parse("/proj/package.json", []byte("not json"))
	assert.Empty(t, deps)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeMalformedInput))
}

func TestParseRequirementsTxt(t *testing.T) {
	content := []byte("# comment\n\nrequests>=2.0\nflask==2.1.0\n")
	deps, err := Parse("/proj/requirements.txt", content)
	require.NoError(t, err)
	assert.Len(t, deps, 2)
	assert.Equal(t, "requests", deps[0].Name)
	assert.Equal(t, types.RegistryPyPI, deps[0].Registry)
}

func TestParsePyprojectToml(t *testing.T) {
	content := []byte("[project]\ndependencies = [\n  \"requests>=2.0\",\n  \"click\",\n]\n")
	deps, err := Parse("/proj/pyproject.toml", content)
	require.NoError(t, err)
	names := []string{deps[0].Name, deps[1].Name}
	assert.ElementsMatch(t, []string{"requests", "click"}, names)
}

func TestParseCargoToml(t *testing.T) {
	content := []byte("[package]\nname = \"foo\"\n\n[dependencies]\nserde = \"1.0\"\ntokio = \"1\"\n")
	deps, err := Parse("/proj/Cargo.toml", content)
	require.NoError(t, err)
	var names []string
	for _, d := range deps {
		names = append(names, d.Name)
	}
	assert.Contains(t, names, "serde")
	assert.Contains(t, names, "tokio")
}

func TestParseGoMod(t *testing.T) {
	content := []byte("module example.com/foo\n\ngo 1.21\n\nrequire (\n\tgithub.com/gobwas/glob v0.2.3\n)\n")
	deps, err := Parse("/proj/go.mod", content)
	require.NoError(t, err)
	found := false
	for _, d := range deps {
		if d.Name == "github.com/gobwas/glob" {
			found = true
			assert.Equal(t, "v0.2.3", d.Version)
		}
	}
	assert.True(t, found)
}
