package gitops

import "strings"

// NormalizeURL rewrites a repository URL into the https form used for
// token-authenticated clones. SSH-style github URLs are converted to https
// and a missing .git suffix is appended. Anything that does not end up as
// an https URL is returned unchanged.
func NormalizeURL(raw string) string {
	url := strings.TrimSpace(raw)
	if strings.HasPrefix(url, "git@github.com:") {
		url = "https://github.com/" + strings.TrimPrefix(url, "git@github.com:")
	}
	if !strings.HasPrefix(url, "https://") {
		return raw
	}
	if !strings.HasSuffix(url, ".git") {
		url = strings.TrimRight(url, "/") + ".git"
	}
	return url
}
