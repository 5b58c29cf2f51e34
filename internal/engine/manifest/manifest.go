// Package manifest implements the Dependency Manifest Parser (§4.C): it
// dispatches on a manifest file's basename and extracts a uniform list of
// Package Dependency records. A malformed file yields the empty list and
// never aborts the pipeline (§7 "malformed manifest").
package manifest

import (
	"encoding/json"
	"regexp"
	"strings"

	"slopcheck/internal/core/errors"
	"slopcheck/internal/core/types"
)

// nameVersionRE matches a requirements.txt / pyproject.toml dependency
// entry: a package name optionally followed by a version specifier.
var nameVersionRE = regexp.MustCompile(`^([A-Za-z0-9._\-]+)([><=!]+(.+))?`)

// Parse dispatches on path's basename (case-insensitive) and extracts that
// manifest's declared dependencies. The only format with a real failure
// mode is package.json (JSON that fails to decode); the line-oriented
// formats never error, they simply match nothing. Either way the caller
// must not abort the pipeline on a non-nil error (§7 "malformed manifest").
func Parse(path string, content []byte) ([]types.PackageDependency, error) {
	base := strings.ToLower(baseName(path))
	switch base {
	case "package.json":
		return parsePackageJSON(path, content)
	case "requirements.txt":
		return parseRequirementsTxt(path, content), nil
	case "pyproject.toml":
		return parsePyprojectToml(path, content), nil
	case "cargo.toml":
		return parseCargoToml(path, content), nil
	case "go.mod":
		return parseGoMod(path, content), nil
	default:
		return nil, nil
	}
}

func baseName(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

type packageJSONShape struct {
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
}

func parsePackageJSON(path string, content []byte) ([]types.PackageDependency, error) {
	var shape packageJSONShape
	if err := json.Unmarshal(content, &shape); err != nil {
		werr := errors.Wrap(err, errors.CodeMalformedInput, "malformed package.json")
		return nil, errors.AddContext(werr, errors.CtxPath, path)
	}

	var out []types.PackageDependency
	collect := func(deps map[string]string, kind types.DependencyKind) {
		for _, name := range sortedKeys(deps) {
			out = append(out, types.PackageDependency{
				Name:         name,
				Version:      deps[name],
				Kind:         kind,
				Registry:     types.RegistryNPM,
				ManifestPath: path,
			})
		}
	}
	collect(shape.Dependencies, types.DependencyProduction)
	collect(shape.DevDependencies, types.DependencyDevelopment)
	collect(shape.PeerDependencies, types.DependencyPeer)
	collect(shape.OptionalDependencies, types.DependencyOptional)
	return out, nil
}

func parseRequirementsTxt(path string, content []byte) []types.PackageDependency {
	var out []types.PackageDependency
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := nameVersionRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		out = append(out, types.PackageDependency{
			Name:         m[1],
			Version:      strings.TrimSpace(m[3]),
			Kind:         types.DependencyProduction,
			Registry:     types.RegistryPyPI,
			ManifestPath: path,
		})
	}
	return out
}

var pyprojectDepsBlockRE = regexp.MustCompile(`(?s)dependencies\s*=\s*\[(.*?)\]`)

func parsePyprojectToml(path string, content []byte) []types.PackageDependency {
	m := pyprojectDepsBlockRE.FindStringSubmatch(string(content))
	if m == nil {
		return nil
	}
	var out []types.PackageDependency
	for _, item := range strings.Split(m[1], ",") {
		item = strings.TrimSpace(item)
		item = strings.Trim(item, `"'`)
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		nm := nameVersionRE.FindStringSubmatch(item)
		if nm == nil {
			continue
		}
		out = append(out, types.PackageDependency{
			Name:         nm[1],
			Version:      strings.TrimSpace(nm[3]),
			Kind:         types.DependencyProduction,
			Registry:     types.RegistryPyPI,
			ManifestPath: path,
		})
	}
	return out
}

var cargoEntryRE = regexp.MustCompile(`^([A-Za-z0-9_\-]+)\s*=\s*"([^"]*)"`)

func parseCargoToml(path string, content []byte) []types.PackageDependency {
	var out []types.PackageDependency
	for _, raw := range strings.Split(string(content), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			continue
		}
		m := cargoEntryRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		out = append(out, types.PackageDependency{
			Name:         m[1],
			Version:      m[2],
			Kind:         types.DependencyProduction,
			Registry:     types.RegistryCrates,
			ManifestPath: path,
		})
	}
	return out
}

// parseGoMod follows §4.C literally: any non-comment, non-blank line with
// at least two whitespace-separated tokens yields a dependency from its
// first two tokens. This deliberately also matches lines like "module
// foo/bar" or a bare "require (" header — the spec treats go.mod parsing
// as line-oriented, not a real module-file grammar, and the hallucination
// module tolerates the resulting noise (a nonexistent "module"/"require"
// package simply 404s and is dropped as a phantom-package candidate, or
// is silently a false alert the caller can ignore-rule away).
func parseGoMod(path string, content []byte) []types.PackageDependency {
	var out []types.PackageDependency
	for _, raw := range strings.Split(string(content), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		out = append(out, types.PackageDependency{
			Name:         fields[0],
			Version:      fields[1],
			Kind:         types.DependencyProduction,
			Registry:     types.RegistryGo,
			ManifestPath: path,
		})
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
