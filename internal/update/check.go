package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultAPI is the GitHub REST endpoint queried for releases.
const DefaultAPI = "https://api.github.com"

// Result holds the outcome of an update check.
type Result struct {
	Latest    string // latest version tag (e.g. "0.4.0")
	Current   string // current running version
	UpdateURL string // URL to the release page
}

// NeedsUpdate returns true if the latest version is newer than current.
func (r *Result) NeedsUpdate() bool {
	return r != nil && compareVersions(r.Latest, r.Current) > 0
}

// ghRelease is the minimal GitHub release JSON we care about.
type ghRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Checker looks up the latest release of one repository.
type Checker struct {
	Owner string
	Repo  string
	// API defaults to DefaultAPI.
	API    string
	Client *http.Client
}

// Check queries the latest release and compares it with currentVersion.
func (c *Checker) Check(ctx context.Context, currentVersion string) (*Result, error) {
	api := c.API
	if api == "" {
		api = DefaultAPI
	}
	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Second}
	}

	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", strings.TrimSuffix(api, "/"), c.Owner, c.Repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query releases: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release lookup returned %s", resp.Status)
	}

	var rel ghRelease
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("failed to decode release: %w", err)
	}

	return &Result{
		Latest:    strings.TrimPrefix(rel.TagName, "v"),
		Current:   strings.TrimPrefix(currentVersion, "v"),
		UpdateURL: rel.HTMLURL,
	}, nil
}

// compareVersions compares two semver-ish strings (major.minor.patch).
// Returns >0 if a > b, <0 if a < b, 0 if equal.
func compareVersions(a, b string) int {
	ap := parseVersion(a)
	bp := parseVersion(b)
	for i := 0; i < 3; i++ {
		if ap[i] != bp[i] {
			return ap[i] - bp[i]
		}
	}
	return 0
}

// parseVersion splits "1.2.3" into [1, 2, 3]. Missing or non-numeric parts
// count as 0; a pre-release suffix on the patch is ignored.
func parseVersion(v string) [3]int {
	var parts [3]int
	for i, s := range strings.SplitN(v, ".", 3) {
		s, _, _ = strings.Cut(s, "-")
		n, _ := strconv.Atoi(s)
		parts[i] = n
	}
	return parts
}
