package crawler

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"strings"
)

// maxRobotsSize bounds the robots.txt body read.
const maxRobotsSize = 512 * 1024

// robotsRules holds the Disallow prefixes that apply to user-agent *.
// A nil receiver allows everything, which is also the behavior when the
// robots.txt fetch fails: absence of rules never blocks a crawl.
type robotsRules struct {
	disallow []string
}

// Allows reports whether a path may be crawled.
func (r *robotsRules) Allows(path string) bool {
	if r == nil {
		return true
	}
	if path == "" {
		path = "/"
	}
	for _, prefix := range r.disallow {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

// fetchRobots retrieves and parses <origin>/robots.txt once per crawl.
// Any fetch or parse problem yields nil rules (allow all).
func fetchRobots(ctx context.Context, client *http.Client, origin string) *robotsRules {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}
	return parseRobots(io.LimitReader(resp.Body, maxRobotsSize))
}

// parseRobots extracts Disallow prefixes from the User-agent: * groups.
// Group semantics: consecutive User-agent lines open a group; the group's
// rules follow until the next User-agent line after at least one rule.
func parseRobots(r io.Reader) *robotsRules {
	rules := &robotsRules{}

	scanner := bufio.NewScanner(r)
	inStarGroup := false
	groupHasRules := false
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			if groupHasRules {
				// A new group starts; reset membership.
				inStarGroup = false
				groupHasRules = false
			}
			if value == "*" {
				inStarGroup = true
			}
		case "disallow":
			groupHasRules = true
			// An empty Disallow means everything is allowed.
			if inStarGroup && value != "" {
				rules.disallow = append(rules.disallow, value)
			}
		case "allow", "crawl-delay", "sitemap":
			groupHasRules = true
		}
	}

	if len(rules.disallow) == 0 {
		return nil
	}
	return rules
}
