package urlnorm

import (
	"errors"
	"net/url"
	"strings"
)

// Normalization errors.
var (
	// ErrInvalidURL is returned when the input cannot be parsed as a URL.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrOutOfScope is returned when a URL's scheme, host or port differs
	// from the base origin. Out-of-scope URLs are skipped, not enqueued;
	// callers should not treat this as a crawl error.
	ErrOutOfScope = errors.New("URL out of crawl scope")
)

// trackingParams are query parameters stripped during normalization.
// They identify the visitor or campaign, never the resource, so two URLs
// differing only in these parameters point at the same page.
var trackingParams = map[string]bool{
	"gclid":   true,
	"fbclid":  true,
	"mc_cid":  true,
	"mc_eid":  true,
	"igshid":  true,
	"msclkid": true,
	"ref":     true,
}

// isTrackingParam reports whether a query key is on the deny list.
// Any utm_* parameter is tracking regardless of suffix.
func isTrackingParam(key string) bool {
	lower := strings.ToLower(key)
	return strings.HasPrefix(lower, "utm_") || trackingParams[lower]
}

// Normalizer canonicalizes URLs relative to one base origin.
// The zero value is not usable; construct with New.
type Normalizer struct {
	scheme string
	host   string
}

// New creates a Normalizer scoped to the origin of baseURL.
// The base must be an absolute http or https URL.
func New(baseURL string) (*Normalizer, error) {
	u, err := url.Parse(baseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, ErrInvalidURL
	}
	return &Normalizer{
		scheme: strings.ToLower(u.Scheme),
		host:   canonicalHost(strings.ToLower(u.Scheme), strings.ToLower(u.Host)),
	}, nil
}

// Origin returns the canonical base origin (scheme://host[:port]).
func (n *Normalizer) Origin() string {
	return n.scheme + "://" + n.host
}

// SameOrigin reports whether raw is an absolute URL on the base origin.
func (n *Normalizer) SameOrigin(raw string) bool {
	_, err := n.Normalize(raw)
	return err == nil
}

// Normalize canonicalizes an absolute URL.
// It returns ErrInvalidURL for unparsable or relative input and
// ErrOutOfScope when the URL does not share the base origin.
func (n *Normalizer) Normalize(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", ErrInvalidURL
	}
	return n.normalize(u)
}

// NormalizeRef resolves a possibly-relative reference against the page it
// appeared on, then canonicalizes it. Used for links extracted from a
// rendered DOM, which are frequently relative.
func (n *Normalizer) NormalizeRef(raw string, page *url.URL) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", ErrInvalidURL
	}
	return n.normalize(page.ResolveReference(ref))
}

// normalize applies the canonicalization rules to a parsed absolute URL.
func (n *Normalizer) normalize(u *url.URL) (string, error) {
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", ErrOutOfScope
	}
	host := canonicalHost(scheme, strings.ToLower(u.Host))
	if scheme != n.scheme || host != n.host {
		return "", ErrOutOfScope
	}

	out := &url.URL{Scheme: scheme, Host: host, Path: u.Path}

	// Empty path and "/" address the same resource; non-root paths drop
	// a trailing slash so /about and /about/ deduplicate.
	if out.Path == "" {
		out.Path = "/"
	} else if out.Path != "/" {
		out.Path = strings.TrimSuffix(out.Path, "/")
	}

	// Drop fragments: they never change the fetched document.
	out.Fragment = ""

	// Strip tracking parameters and re-encode the rest.
	// url.Values.Encode sorts keys, which makes normalization idempotent.
	if u.RawQuery != "" {
		query := u.Query()
		for key := range query {
			if isTrackingParam(key) {
				query.Del(key)
			}
		}
		out.RawQuery = query.Encode()
	}

	return out.String(), nil
}

// canonicalHost strips the scheme's default port from a host.
func canonicalHost(scheme, host string) string {
	switch scheme {
	case "http":
		return strings.TrimSuffix(host, ":80")
	case "https":
		return strings.TrimSuffix(host, ":443")
	default:
		return host
	}
}
