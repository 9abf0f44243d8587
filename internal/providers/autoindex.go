package providers

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

var hrefRe = regexp.MustCompile(`(?i)<a\s+[^>]*href="([^"]+)"`)

// parseAutoindex extracts file names from an HTML directory index as served
// by opendata.dwd.de. Subdirectories, parent links and query links are skipped.
func parseAutoindex(body string) []string {
	var names []string
	seen := map[string]bool{}

	for _, m := range hrefRe.FindAllStringSubmatch(body, -1) {
		href := m[1]
		if strings.HasPrefix(href, "?") || strings.HasPrefix(href, "#") || strings.HasSuffix(href, "/") {
			continue
		}
		if strings.Contains(href, "://") {
			continue
		}
		name, err := url.PathUnescape(path.Base(href))
		if err != nil || name == "" || name == "." || name == ".." {
			continue
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}
