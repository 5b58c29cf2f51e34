package scorecard

import "testing"

func TestNormalizeSupportedHost(t *testing.T) {
	host, org, repo, ok := normalize("https://github.com/expressjs/express")
	if !ok || host != "github.com" || org != "expressjs" || repo != "express" {
		t.Fatalf("unexpected normalize result: %s %s %s %v", host, org, repo, ok)
	}
}

func TestNormalizeUnsupportedHost(t *testing.T) {
	_, _, _, ok := normalize("https://bitbucket.org/foo/bar")
	if ok {
		t.Fatal("expected bitbucket.org to be unsupported")
	}
}

func TestNormalizeInvalidURL(t *testing.T) {
	_, _, _, ok := normalize("not a url")
	if ok {
		t.Fatal("expected malformed url to fail normalize")
	}
}
