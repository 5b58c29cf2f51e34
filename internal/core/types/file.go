package types

// Language is the classification tag assigned by the File Scanner (§4.D).
type Language string

const (
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangPython     Language = "python"
	LangRust       Language = "rust"
	LangGo         Language = "go"
	LangVue        Language = "vue"
	LangSvelte     Language = "svelte"
	LangUnknown    Language = "unknown"
)

// FileRecord is produced by the File Scanner and is immutable thereafter (§3).
type FileRecord struct {
	Path                 string
	Language             Language
	Size                 int64
	IsSource             bool
	IsDependencyManifest bool
}

// Registry identifies the package ecosystem a dependency was declared in.
type Registry string

const (
	RegistryNPM    Registry = "npm"
	RegistryPyPI   Registry = "pypi"
	RegistryCrates Registry = "crates"
	RegistryGo     Registry = "go"
)

type DependencyKind string

const (
	DependencyProduction  DependencyKind = "production"
	DependencyDevelopment DependencyKind = "development"
	DependencyPeer        DependencyKind = "peer"
	DependencyOptional    DependencyKind = "optional"
)

// PackageDependency is one declared dependency extracted by the Dependency
// Manifest Parser (§4.C).
type PackageDependency struct {
	Name         string
	Version      string
	Kind         DependencyKind
	Registry     Registry
	ManifestPath string
}

// PackageInfo is the (possibly absent) registry metadata for a dependency (§3).
type PackageInfo struct {
	Name          string
	LatestVersion string
	Description   string
	CreatedAt     int64 // unix millis; 0 means unknown
	Downloads     int64 // -1 means unknown
	Maintainers   []string
	RepositoryURL string
}
