// Package scanner walks a directory tree under include/exclude glob rules
// and classifies the files it finds (§4.D).
package scanner

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"slopcheck/internal/core/types"
	"slopcheck/internal/shared/util"
)

var builtinExcludes = []string{
	"**/node_modules/**", "**/.git/**", "**/.venv/**", "**/dist/**",
	"**/build/**", "**/.next/**", "**/.nuxt/**", "**/.output/**",
	"**/target/**", "**/vendor/**",
}

var extensionLanguage = map[string]types.Language{
	".js":     types.LangJavaScript,
	".jsx":    types.LangJavaScript,
	".mjs":    types.LangJavaScript,
	".cjs":    types.LangJavaScript,
	".ts":     types.LangTypeScript,
	".tsx":    types.LangTypeScript,
	".py":     types.LangPython,
	".rs":     types.LangRust,
	".go":     types.LangGo,
	".vue":    types.LangVue,
	".svelte": types.LangSvelte,
}

// sourceExtensions is the fixed is-source whitelist from §4.D. Extensions
// beyond the languages this analyzer understands are still "source" for
// scanning purposes (the manifest/rule layer only acts on recognized
// languages, but the scanner's whitelist is intentionally broader).
var sourceExtensions = map[string]bool{
	".js": true, ".jsx": true, ".mjs": true, ".cjs": true,
	".ts": true, ".tsx": true, ".py": true, ".rs": true, ".go": true,
	".java": true, ".kt": true, ".cs": true, ".cpp": true, ".c": true,
	".h": true, ".php": true, ".rb": true, ".swift": true, ".scala": true,
	".vue": true, ".svelte": true,
}

var manifestLanguage = map[string]types.Language{
	"package.json":      types.LangJavaScript,
	"requirements.txt":  types.LangPython,
	"pyproject.toml":    types.LangPython,
	"cargo.toml":        types.LangRust,
	"go.mod":            types.LangGo,
}

var manifestBasenames = map[string]bool{
	"package.json":     true,
	"requirements.txt": true,
	"pyproject.toml":   true,
	"cargo.toml":       true,
	"go.mod":           true,
}

// Scan returns the classified file list for root under cfg's include/
// exclude globs (§4.D). Results are deduplicated, size-filtered, and
// sorted by path so the scan is deterministic regardless of directory
// walk order on a given platform.
func Scan(root string, includes, excludes []string, maxFileSize int64, followSymlinks bool) ([]types.FileRecord, error) {
	includeGlobs, err := compileGlobs(includes)
	if err != nil {
		return nil, err
	}
	excludeGlobs, err := compileGlobs(append(append([]string{}, excludes...), builtinExcludes...))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var records []types.FileRecord

	walkFn := func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("scanner: walk error", "path", p, "error", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 && !followSymlinks {
			return nil
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			rel = p
		}
		rel = filepath.ToSlash(rel)

		if !matchesAny(includeGlobs, rel) {
			return nil
		}
		if matchesAny(excludeGlobs, rel) {
			return nil
		}

		abs, absErr := filepath.Abs(p)
		if absErr != nil {
			abs = p
		}
		if seen[abs] {
			return nil
		}

		info, statErr := d.Info()
		if statErr != nil {
			slog.Warn("scanner: stat failed, skipping file", "path", abs, "error", statErr)
			return nil
		}
		if info.Size() > maxFileSize {
			return nil
		}

		seen[abs] = true
		records = append(records, classify(abs, info.Size()))
		return nil
	}

	if err := filepath.WalkDir(root, walkFn); err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	return records, nil
}

func classify(abs string, size int64) types.FileRecord {
	base := strings.ToLower(filepath.Base(abs))
	ext := strings.ToLower(filepath.Ext(abs))

	lang := extensionLanguage[ext]
	isManifest := manifestBasenames[base]
	if isManifest {
		if manifestLang, ok := manifestLanguage[base]; ok && lang == "" {
			lang = manifestLang
		}
	}
	if lang == "" {
		lang = types.LangUnknown
	}

	return types.FileRecord{
		Path:                 abs,
		Language:             lang,
		Size:                 size,
		IsSource:             sourceExtensions[ext],
		IsDependencyManifest: isManifest,
	}
}

// compileGlobs compiles each pattern for matching against a root-relative,
// slash-separated path. gobwas/glob's "**/" requires at least one path
// separator to be present, so a pattern like "**/*.js" never matches a
// root-level file such as "index.js" (rel has no "/" in it at all). Every
// "**/"-prefixed pattern therefore also gets a second, separator-free
// compilation of its suffix so root-level files still match (§4.D).
func compileGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		norm := util.NormalizePatternPath(p)
		if norm == "" {
			continue
		}
		if g, err := glob.Compile(norm, '/'); err == nil {
			out = append(out, g)
		}
		if rest := strings.TrimPrefix(norm, "**/"); rest != norm {
			if g, err := glob.Compile(rest, '/'); err == nil {
				out = append(out, g)
			}
		}
	}
	return out, nil
}

func matchesAny(globs []glob.Glob, rel string) bool {
	for _, g := range globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// ReadFile reads a file's contents, returning an error the coordinator can
// treat as the "unreadable file" error kind from §7.
func ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
