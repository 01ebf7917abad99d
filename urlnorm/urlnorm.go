// Package urlnorm implements the canonicalization, resolution and
// whitelist-filtering rules the frontier relies on to stay duplicate-free
// and origin-scoped. It mirrors the resolution logic of the teacher's
// fetcher.resolveRelativeURL, generalized to the full rule set of
// canonicalize/resolve/dedup/whitelistFilter/validURL.
package urlnorm

import (
	"net/url"
	"regexp"
	"strings"
)

// BaseSite returns scheme://host of u. Malformed input yields an empty
// string.
func BaseSite(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}

// Canonicalize drops the fragment and query components of u and
// right-strips a single trailing slash. Path parameters (";key=val") are
// not removed. Idempotent: canonicalizing an
// already-canonical URL is a no-op.
func Canonicalize(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return strings.TrimSuffix(u, "/")
	}
	parsed.Fragment = ""
	parsed.RawFragment = ""
	parsed.RawQuery = ""
	// "params" in the RFC sense (the ;key=val segment after a path
	// element) has no net/url accessor; url.Parse keeps it in Path, and
	// it is left there.
	cleaned := parsed.String()
	return strings.TrimSuffix(cleaned, "/")
}

// Resolve turns a possibly-relative href into an absolute URL.
//
//   - empty string passes through unchanged
//   - a href starting with "/" is joined to baseSite
//   - a href that already carries a scheme and host is returned unchanged
//   - otherwise the href is treated as path-relative to currentURL: the
//     directory portion of currentURL (everything before its last "/") is
//     joined with href using "/"
func Resolve(href, currentURL, baseSite string) string {
	if href == "" {
		return href
	}
	if strings.HasPrefix(href, "/") {
		return baseSite + href
	}
	if parsed, err := url.Parse(href); err == nil && parsed.Scheme != "" && parsed.Host != "" {
		return href
	}
	dir := currentURL
	if idx := strings.LastIndex(currentURL, "/"); idx >= 0 {
		dir = currentURL[:idx]
	}
	return dir + "/" + href
}

// ValidURL reports whether both a scheme and a host parse out of u.
func ValidURL(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	return parsed.Scheme != "" && parsed.Host != ""
}

// Dedup canonicalizes every url in urls, drops empty and "None" entries and
// collapses duplicates, returning the survivors in an unspecified order.
func Dedup(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" || u == "None" {
			continue
		}
		c := Canonicalize(u)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// WhitelistFilter keeps every u in urls for which at least one compiled
// regex in regexes has a match anywhere in the string (search semantics,
// not an anchored full match). Dropping a regex from regexes can only
// shrink the result.
func WhitelistFilter(urls []string, regexes []*regexp.Regexp) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		for _, re := range regexes {
			if re.MatchString(u) {
				out = append(out, u)
				break
			}
		}
	}
	return out
}

// CompileWhitelist compiles a list of regex source patterns, skipping any
// that fail to compile (a malformed operator-supplied pattern should not
// abort crawl startup).
func CompileWhitelist(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil {
			out = append(out, re)
		}
	}
	return out
}
