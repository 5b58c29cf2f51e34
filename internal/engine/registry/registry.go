// Package registry implements the Registry Client (§4.A): existence and
// metadata lookups against npm, pypi, crates, and the Go module proxy,
// with an in-memory 5-minute TTL cache (negative results included).
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"slopcheck/internal/core/errors"
	"slopcheck/internal/core/types"
	"slopcheck/internal/shared/observability"
	"slopcheck/internal/shared/util"
)

const (
	cacheTTL    = 5 * time.Minute
	callTimeout = 10 * time.Second
)

func defaultEndpoints() map[types.Registry]func(name string) string {
	return map[types.Registry]func(name string) string{
		types.RegistryNPM:    func(name string) string { return "https://registry.npmjs.org/" + name },
		types.RegistryPyPI:   func(name string) string { return "https://pypi.org/pypi/" + name + "/json" },
		types.RegistryCrates: func(name string) string { return "https://crates.io/api/v1/crates/" + name },
		types.RegistryGo:     func(name string) string { return "https://proxy.golang.org/" + name + "/@v/list" },
	}
}

type cacheEntry struct {
	expiresAt time.Time
	found     bool
	info      types.PackageInfo
}

// Client answers exists(name, registry) and info(name, registry). Cache
// mutation is confined to the client; callers never hold a reference to a
// cache entry (§5 shared-resource policy).
type Client struct {
	httpClient *http.Client
	limiter    *util.Limiter
	endpoints  map[types.Registry]func(name string) string

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithEndpoint overrides the URL builder for one registry — used by tests
// to point the client at an httptest server instead of the real registry.
func WithEndpoint(reg types.Registry, fn func(name string) string) Option {
	return func(c *Client) { c.endpoints[reg] = fn }
}

// New builds a Registry Client. A token-bucket limiter throttles outbound
// calls ahead of the per-call timeout so a manifest with many dependencies
// never bursts a real registry (an additive politeness measure; it never
// changes exists()/info() semantics).
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: callTimeout},
		limiter:    util.NewLimiter(20, 10),
		endpoints:  defaultEndpoints(),
		cache:      make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func cacheKey(registry types.Registry, name string) string {
	return string(registry) + "\x00" + name
}

// Exists returns false iff the registry responds with a 404 for name; any
// other failure propagates as an error (§4.A).
func (c *Client) Exists(ctx context.Context, name string, reg types.Registry) (bool, error) {
	info, found, err := c.lookup(ctx, name, reg)
	if err != nil {
		return false, err
	}
	_ = info
	return found, nil
}

// Info returns the registry's metadata for name, or (zero, false) on a 404.
func (c *Client) Info(ctx context.Context, name string, reg types.Registry) (types.PackageInfo, bool, error) {
	return c.lookup(ctx, name, reg)
}

func (c *Client) lookup(ctx context.Context, name string, reg types.Registry) (types.PackageInfo, bool, error) {
	key := cacheKey(reg, name)

	c.mu.Lock()
	if entry, ok := c.cache[key]; ok && time.Now().Before(entry.expiresAt) {
		c.mu.Unlock()
		observability.RegistryCacheHitTotal.WithLabelValues(string(reg)).Inc()
		return entry.info, entry.found, nil
	}
	c.mu.Unlock()
	observability.RegistryCacheMissTotal.WithLabelValues(string(reg)).Inc()

	endpointFn, ok := c.endpoints[reg]
	if !ok {
		err := errors.New(errors.CodeNotSupported, fmt.Sprintf("registry: unsupported registry %q", reg))
		return types.PackageInfo{}, false, errors.AddContext(err, errors.CtxOperation, "registry.lookup")
	}

	if err := c.limiter.Wait(ctx, 1); err != nil {
		return types.PackageInfo{}, false, err
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, endpointFn(name), nil)
	if err != nil {
		return types.PackageInfo{}, false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		werr := errors.Wrap(err, errors.CodeUpstreamUnavailable, "registry request failed")
		return types.PackageInfo{}, false, errors.AddContext(werr, errors.CtxSymbol, name)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.store(key, types.PackageInfo{}, false)
		return types.PackageInfo{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		err := errors.New(errors.CodeUpstreamUnavailable, fmt.Sprintf("registry: %s returned status %d", reg, resp.StatusCode))
		return types.PackageInfo{}, false, errors.AddContext(err, errors.CtxSymbol, name)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.PackageInfo{}, false, err
	}

	info, parseErr := parseInfo(reg, name, body)
	if parseErr != nil {
		slog.Debug("registry: malformed response, treating as no info", "registry", reg, "name", name, "error", parseErr)
		c.store(key, types.PackageInfo{}, true)
		return types.PackageInfo{Name: name}, true, nil
	}
	if info.CreatedAt == 0 {
		// §4.A: fall back to the present instant when the registry omits a
		// first-published field, rather than leaving newborn-package
		// detection silently disabled for this response.
		info.CreatedAt = time.Now().UnixMilli()
	}

	c.store(key, info, true)
	return info, true, nil
}

func (c *Client) store(key string, info types.PackageInfo, found bool) {
	c.mu.Lock()
	c.cache[key] = cacheEntry{expiresAt: time.Now().Add(cacheTTL), found: found, info: info}
	c.mu.Unlock()
}

// tolerant response shapes: registry JSON is parsed defensively, never
// failing the pipeline on an unexpected shape (§9 Design Notes).

type npmRepository struct {
	URL string
}

func (r *npmRepository) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		r.URL = asString
		return nil
	}
	var asObject struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &asObject); err == nil {
		r.URL = asObject.URL
		return nil
	}
	return nil
}

type npmResponse struct {
	Name       string                     `json:"name"`
	Repository *npmRepository             `json:"repository"`
	Time       map[string]string          `json:"time"`
	DistTags   map[string]string          `json:"dist-tags"`
	Versions   map[string]json.RawMessage `json:"versions"`
	Maintainers []struct {
		Name string `json:"name"`
	} `json:"maintainers"`
	Description string `json:"description"`
}

type pypiResponse struct {
	Info struct {
		Name        string            `json:"name"`
		Summary     string            `json:"summary"`
		HomePage    string            `json:"home_page"`
		ProjectURLs map[string]string `json:"project_urls"`
		Version     string            `json:"version"`
	} `json:"info"`
	Releases map[string]json.RawMessage `json:"releases"`
}

type cratesResponse struct {
	Crate struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		CreatedAt   string `json:"created_at"`
		Downloads   int64  `json:"downloads"`
		Repository  string `json:"repository"`
		MaxVersion  string `json:"max_version"`
	} `json:"crate"`
}

func parseInfo(reg types.Registry, name string, body []byte) (types.PackageInfo, error) {
	switch reg {
	case types.RegistryNPM:
		return parseNPM(name, body)
	case types.RegistryPyPI:
		return parsePyPI(name, body)
	case types.RegistryCrates:
		return parseCrates(name, body)
	case types.RegistryGo:
		return types.PackageInfo{Name: name, Downloads: -1}, nil
	default:
		return types.PackageInfo{}, errors.New(errors.CodeNotSupported, fmt.Sprintf("unsupported registry %q", reg))
	}
}

func parseNPM(name string, body []byte) (types.PackageInfo, error) {
	var r npmResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return types.PackageInfo{}, err
	}
	info := types.PackageInfo{
		Name:        name,
		Description: r.Description,
		Downloads:   -1,
	}
	if r.DistTags != nil {
		info.LatestVersion = r.DistTags["latest"]
	}
	if created, ok := r.Time["created"]; ok {
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			info.CreatedAt = t.UnixMilli()
		}
	}
	for _, m := range r.Maintainers {
		info.Maintainers = append(info.Maintainers, m.Name)
	}
	if r.Repository != nil {
		info.RepositoryURL = normalizeNPMRepositoryURL(r.Repository.URL)
	}
	return info, nil
}

func normalizeNPMRepositoryURL(raw string) string {
	url := strings.TrimPrefix(raw, "git+")
	url = strings.TrimSuffix(url, ".git")
	return url
}

var pypiSourceURLKeys = []string{"Source", "Repository", "GitHub", "Source Code"}

func parsePyPI(name string, body []byte) (types.PackageInfo, error) {
	var r pypiResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return types.PackageInfo{}, err
	}
	info := types.PackageInfo{
		Name:          name,
		Description:   r.Info.Summary,
		LatestVersion: r.Info.Version,
		Downloads:     -1,
	}

	for _, key := range pypiSourceURLKeys {
		if url, ok := r.Info.ProjectURLs[key]; ok && url != "" {
			info.RepositoryURL = url
			break
		}
	}
	if info.RepositoryURL == "" && (strings.Contains(r.Info.HomePage, "github.com") || strings.Contains(r.Info.HomePage, "gitlab.com")) {
		info.RepositoryURL = r.Info.HomePage
	}

	// pypi's JSON API has no reliable first-published field in the summary
	// payload; CreatedAt is left at 0 and the caller falls back to the
	// present instant per §4.A.
	return info, nil
}

func parseCrates(name string, body []byte) (types.PackageInfo, error) {
	var r cratesResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return types.PackageInfo{}, err
	}
	info := types.PackageInfo{
		Name:          name,
		Description:   r.Crate.Description,
		LatestVersion: r.Crate.MaxVersion,
		Downloads:     r.Crate.Downloads,
		RepositoryURL: r.Crate.Repository,
	}
	if t, err := time.Parse(time.RFC3339, r.Crate.CreatedAt); err == nil {
		info.CreatedAt = t.UnixMilli()
	}
	return info, nil
}
