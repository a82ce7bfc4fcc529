package update

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"bludgeon/internal/util"

	hversion "github.com/hashicorp/go-version"
)

const (
	defaultInterval = 24 * time.Hour
	CacheFileName   = ".update_cache.json"
)

var githubAPIBase = "https://api.github.com"

// Cache stores information about the last release lookup.
type Cache struct {
	Repo               string    `json:"repo"`
	LastCheckTime      time.Time `json:"last_check_time"`
	LatestVersionFound string    `json:"latest_version_found"`
	ReleaseURL         string    `json:"release_url"`
}

// CheckResult holds the outcome of an update check.
type CheckResult struct {
	CurrentVersion string
	LatestVersion  string
	ReleaseURL     string
	IsNewer        bool
}

var cliVersionPattern = regexp.MustCompile(`v?(\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z.-]+)?)`)

// ParseCLIVersion extracts the version from "wp cli version" output such as "WP-CLI 2.10.0".
func ParseCLIVersion(output string) (*hversion.Version, error) {
	match := cliVersionPattern.FindStringSubmatch(output)
	if match == nil {
		return nil, fmt.Errorf("no version found in '%s'", strings.TrimSpace(output))
	}
	return hversion.NewVersion(match[1])
}

func readCache(cacheFilePath string) (*Cache, error) {
	data, err := os.ReadFile(cacheFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read update cache file %s: %w", cacheFilePath, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var cache Cache
	if err := json.Unmarshal(data, &cache); err != nil {
		util.Log.Warnf("Failed to parse update cache file %s, ignoring: %v", cacheFilePath, err)
		return nil, nil
	}
	return &cache, nil
}

func writeCache(cacheFilePath string, cache *Cache) error {
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal update cache: %w", err)
	}
	cacheDir := filepath.Dir(cacheFilePath)
	if err := os.MkdirAll(cacheDir, 0750); err != nil {
		return fmt.Errorf("failed to create dir for update cache '%s': %w", cacheDir, err)
	}
	if err := os.WriteFile(cacheFilePath, data, 0640); err != nil {
		return fmt.Errorf("failed to write update cache file %s: %w", cacheFilePath, err)
	}
	return nil
}

// fetchLatestRelease returns the tag and page URL of repo's latest GitHub release.
func fetchLatestRelease(ctx context.Context, repo string) (string, string, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", githubAPIBase, repo)
	util.Log.Debugf("Fetching latest release from %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to create request to GitHub API: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch latest release from GitHub: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == http.StatusNotFound {
			return "", "", fmt.Errorf("repository %s or its releases not found (status: %d)", repo, resp.StatusCode)
		}
		if resp.StatusCode == http.StatusForbidden {
			util.Log.Warnf("GitHub API rate limit likely exceeded for %s", repo)
		}
		return "", "", fmt.Errorf("failed to fetch latest release from GitHub (status: %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var releaseInfo struct {
		TagName string `json:"tag_name"`
		HTMLURL string `json:"html_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&releaseInfo); err != nil {
		return "", "", fmt.Errorf("failed to parse GitHub release response: %w", err)
	}
	if releaseInfo.TagName == "" {
		return "", "", fmt.Errorf("latest GitHub release does not have a tag_name")
	}

	util.Log.Debugf("Latest GitHub release found: Tag=%s, URL=%s", releaseInfo.TagName, releaseInfo.HTMLURL)
	return releaseInfo.TagName, releaseInfo.HTMLURL, nil
}

// compareVersions reports whether latest is newer than current.
func compareVersions(current *hversion.Version, latestStr string) (bool, error) {
	latest, err := hversion.NewVersion(strings.TrimPrefix(latestStr, "v"))
	if err != nil {
		return false, fmt.Errorf("invalid latest version format '%s': %w", latestStr, err)
	}
	return current.LessThan(latest), nil
}

// CheckForUpdate compares the local WP-CLI version (raw "wp cli version"
// output) with repo's latest release. Lookups are cached at cacheFilePath for
// checkInterval.
func CheckForUpdate(ctx context.Context, cliVersionOutput, repo, cacheFilePath string, checkInterval time.Duration) (*CheckResult, error) {
	if checkInterval <= 0 {
		checkInterval = defaultInterval
	}
	if repo == "" {
		return nil, fmt.Errorf("repository slug cannot be empty for update check")
	}
	current, err := ParseCLIVersion(cliVersionOutput)
	if err != nil {
		return nil, fmt.Errorf("failed to determine local WP-CLI version: %w", err)
	}
	result := &CheckResult{CurrentVersion: current.String()}

	cache, err := readCache(cacheFilePath)
	if err != nil {
		util.Log.Warnf("Could not read update cache: %v", err)
	}
	if cache != nil && cache.Repo == repo && time.Since(cache.LastCheckTime) < checkInterval {
		util.Log.Debugf("Update check cache is fresh (checked at %s). Using cached version: %s", cache.LastCheckTime.Format(time.RFC3339), cache.LatestVersionFound)
		result.LatestVersion = cache.LatestVersionFound
		result.ReleaseURL = cache.ReleaseURL
		result.IsNewer, err = compareVersions(current, cache.LatestVersionFound)
		return result, err
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	tag, releaseURL, err := fetchLatestRelease(ctx, repo)
	if err != nil {
		return nil, err
	}
	result.LatestVersion = tag
	result.ReleaseURL = releaseURL

	newCache := &Cache{Repo: repo, LastCheckTime: time.Now(), LatestVersionFound: tag, ReleaseURL: releaseURL}
	if writeErr := writeCache(cacheFilePath, newCache); writeErr != nil {
		util.Log.Warnf("Failed to write update cache: %v", writeErr)
	}

	result.IsNewer, err = compareVersions(current, tag)
	return result, err
}
