package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func release(tag string, assets ...string) githubRelease {
	r := githubRelease{TagName: tag}
	for _, a := range assets {
		r.Assets = append(r.Assets, struct {
			Name               string `json:"name"`
			BrowserDownloadURL string `json:"browser_download_url"`
		}{Name: a, BrowserDownloadURL: "https://example.invalid/" + a})
	}
	return r
}

func setPlatform(t *testing.T, os, arch string) {
	t.Helper()
	prevOS, prevArch := goos, goarch
	goos, goarch = os, arch
	t.Cleanup(func() { goos, goarch = prevOS, prevArch })
}

func TestPickLatest(t *testing.T) {
	setPlatform(t, "linux", "amd64")

	draft := release("v9.0.0", "rasterops_linux_amd64.tar.gz")
	draft.Draft = true
	pre := release("v8.0.0-rc1", "rasterops_linux_amd64.tar.gz")
	pre.Prerelease = true
	named := release("nightly", "rasterops_linux_amd64.tar.gz")
	named.Name = "Release 1.4.0"

	got := pickLatest([]githubRelease{
		release("v1.2.0", "rasterops_linux_amd64.tar.gz"),
		draft,
		pre,
		release("v1.10.0", "rasterops_darwin_arm64.tar.gz", "rasterops_linux_amd64.tar.gz", "checksums.txt"),
		named,
		release("latest"),
	})
	if got == nil {
		t.Fatalf("pickLatest returned nil")
	}
	if got.Version.String() != "1.10.0" {
		t.Errorf("version = %s, want 1.10.0", got.Version)
	}
	if got.AssetURL != "https://example.invalid/rasterops_linux_amd64.tar.gz" {
		t.Errorf("asset = %s, want the linux_amd64 archive", got.AssetURL)
	}
}

func TestPickLatestFallsBackToFirstAsset(t *testing.T) {
	setPlatform(t, "plan9", "mips")
	got := pickLatest([]githubRelease{release("2.0.0", "a.zip", "b.zip")})
	if got == nil || got.AssetURL != "https://example.invalid/a.zip" {
		t.Fatalf("pickLatest = %+v, want first asset", got)
	}
	if pickLatest([]githubRelease{release("nightly")}) != nil {
		t.Fatalf("release without a version was picked")
	}
	if pickLatest(nil) != nil {
		t.Fatalf("empty release list produced a release")
	}
}

func withGitHubServer(t *testing.T, h http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	prev := githubAPI
	githubAPI = srv.URL
	t.Cleanup(func() { githubAPI = prev })
}

func TestDetectLatest(t *testing.T) {
	setPlatform(t, "linux", "arm64")
	var gotPath string
	withGitHubServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode([]githubRelease{
			release("v0.3.1", "rasterops_linux_arm64.tar.gz"),
			release("v0.2.0", "rasterops_linux_arm64.tar.gz"),
		})
	})
	got, err := detectLatest("someone/rasterops")
	if err != nil {
		t.Fatalf("detectLatest: %v", err)
	}
	if gotPath != "/repos/someone/rasterops/releases" {
		t.Errorf("request path = %s", gotPath)
	}
	if got == nil || got.Version.String() != "0.3.1" {
		t.Fatalf("latest = %+v, want 0.3.1", got)
	}
}

func TestDetectLatestErrors(t *testing.T) {
	withGitHubServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/bad/json/releases" {
			w.Write([]byte("{not json"))
			return
		}
		http.Error(w, "rate limited", http.StatusForbidden)
	})
	if _, err := detectLatest("some/repo"); err == nil {
		t.Errorf("non-200 response accepted")
	}
	if _, err := detectLatest("bad/json"); err == nil {
		t.Errorf("malformed body accepted")
	}
}

func TestCheckForUpdatesWithoutReleases(t *testing.T) {
	withGitHubServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	})
	if err := CheckForUpdates("some/repo"); err != nil {
		t.Fatalf("CheckForUpdates: %v", err)
	}
}

func TestCheckForUpdatesAlreadyLatest(t *testing.T) {
	prev := Version
	Version = "v2.0.0"
	t.Cleanup(func() { Version = prev })
	withGitHubServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]githubRelease{release("v1.9.9", "x.tar.gz")})
	})
	if err := CheckForUpdates("some/repo"); err != nil {
		t.Fatalf("CheckForUpdates: %v", err)
	}
}
