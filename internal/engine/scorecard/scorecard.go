// Package scorecard implements the Scorecard Client (§4.B): given a
// canonical repository URL, fetches an OpenSSF-style security scorecard
// with a 1-hour TTL cache, supporting only github.com and gitlab.com hosts.
package scorecard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"slopcheck/internal/shared/observability"
	"slopcheck/internal/shared/util"
)

const (
	cacheTTL    = 1 * time.Hour
	callTimeout = 5 * time.Second
)

var supportedHosts = map[string]bool{
	"github.com": true,
	"gitlab.com": true,
}

// Check is one per-check detail line within a Scorecard.
type Check struct {
	Name   string
	Score  int
	Reason string
}

// Scorecard is the result of one lookup (§3).
type Scorecard struct {
	Score  float64
	Checks []Check
	AsOf   time.Time
}

type cacheEntry struct {
	expiresAt time.Time
	found     bool
	card      Scorecard
}

// Client answers lookups against api.securityscorecards.dev.
type Client struct {
	httpClient *http.Client
	limiter    *util.Limiter

	mu    sync.Mutex
	cache map[string]cacheEntry
}

func New() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: callTimeout},
		limiter:    util.NewLimiter(10, 5),
		cache:      make(map[string]cacheEntry),
	}
}

// Lookup fetches the scorecard for repoURL, or (zero, false) if the host
// is unsupported, the project has no scorecard (404), or repoURL cannot be
// normalized into an {host}/{org}/{repo} triple.
func (c *Client) Lookup(ctx context.Context, repoURL string) (Scorecard, bool, error) {
	host, org, repo, ok := normalize(repoURL)
	if !ok {
		return Scorecard{}, false, nil
	}
	key := host + "/" + org + "/" + repo

	c.mu.Lock()
	if entry, ok := c.cache[key]; ok && time.Now().Before(entry.expiresAt) {
		c.mu.Unlock()
		observability.ScorecardCacheHitTotal.Inc()
		return entry.card, entry.found, nil
	}
	c.mu.Unlock()
	observability.ScorecardCacheMissTotal.Inc()

	if err := c.limiter.Wait(ctx, 1); err != nil {
		return Scorecard{}, false, err
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("https://api.securityscorecards.dev/projects/%s/%s/%s", host, org, repo)
	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Scorecard{}, false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Scorecard{}, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.store(key, Scorecard{}, false)
		return Scorecard{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Scorecard{}, false, fmt.Errorf("scorecard: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Scorecard{}, false, err
	}

	card, parseErr := parse(body)
	if parseErr != nil {
		c.store(key, Scorecard{}, false)
		return Scorecard{}, false, nil
	}

	c.store(key, card, true)
	return card, true, nil
}

func (c *Client) store(key string, card Scorecard, found bool) {
	c.mu.Lock()
	c.cache[key] = cacheEntry{expiresAt: time.Now().Add(cacheTTL), found: found, card: card}
	c.mu.Unlock()
}

type responseShape struct {
	Score float64 `json:"score"`
	Date  string  `json:"date"`
	Checks []struct {
		Name   string `json:"name"`
		Score  int    `json:"score"`
		Reason string `json:"reason"`
	} `json:"checks"`
}

func parse(body []byte) (Scorecard, error) {
	var r responseShape
	if err := json.Unmarshal(body, &r); err != nil {
		return Scorecard{}, err
	}
	card := Scorecard{Score: r.Score}
	if t, err := time.Parse("2006-01-02", r.Date); err == nil {
		card.AsOf = t
	} else {
		card.AsOf = time.Now()
	}
	for _, ck := range r.Checks {
		card.Checks = append(card.Checks, Check{Name: ck.Name, Score: ck.Score, Reason: ck.Reason})
	}
	return card, nil
}

// normalize extracts (host, org, repo) from a repository URL, accepting
// only github.com/gitlab.com hosts (§4.B).
func normalize(repoURL string) (host, org, repo string, ok bool) {
	u, err := url.Parse(repoURL)
	if err != nil || u.Host == "" {
		return "", "", "", false
	}
	h := strings.ToLower(u.Host)
	if !supportedHosts[h] {
		return "", "", "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 {
		return "", "", "", false
	}
	return h, parts[0], strings.TrimSuffix(parts[1], ".git"), true
}
