package urlnorm

import (
	"reflect"
	"sort"
	"testing"
)

func TestCanonicalizeIdempotent(t *testing.T) {
	for _, u := range []string{
		"https://h/p",
		"https://h/p/",
		"https://h/p#x",
		"https://h/p?q=1",
	} {
		once := Canonicalize(u)
		twice := Canonicalize(once)
		if once != twice {
			t.Errorf("Canonicalize not idempotent for %q: %q != %q", u, once, twice)
		}
	}
}

func TestCanonicalizeCollapse(t *testing.T) {
	inputs := []string{"https://h/p", "https://h/p/", "https://h/p#x", "https://h/p?q=1"}
	for _, u := range inputs {
		if got := Canonicalize(u); got != "https://h/p" {
			t.Errorf("Canonicalize(%q) = %q, want https://h/p", u, got)
		}
	}
}

func TestResolvePreservesAbsolute(t *testing.T) {
	u := "https://example.com/a/b"
	if got := Resolve(u, "https://other.com/x", "https://other.com"); got != u {
		t.Errorf("Resolve() = %q, want %q", got, u)
	}
}

func TestResolveEmptyPassesThrough(t *testing.T) {
	if got := Resolve("", "https://h/x", "https://h"); got != "" {
		t.Errorf("Resolve(\"\") = %q, want empty", got)
	}
}

func TestResolveRootRelative(t *testing.T) {
	got := Resolve("/foo/bar", "https://h/x/y", "https://h")
	if got != "https://h/foo/bar" {
		t.Errorf("Resolve() = %q, want https://h/foo/bar", got)
	}
}

func TestResolvePathRelative(t *testing.T) {
	got := Resolve("page2.html", "https://h/dir/page1.html", "https://h")
	if got != "https://h/dir/page2.html" {
		t.Errorf("Resolve() = %q, want https://h/dir/page2.html", got)
	}
}

func TestDedupFragmentNormalization(t *testing.T) {
	urls := []string{
		"a", "a/example", "a/example/", "a/#example", "a/#example/", "a/#example/example",
	}
	got := Dedup(urls)
	sort.Strings(got)
	want := []string{"a", "a/example"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Dedup() = %v, want %v", got, want)
	}
}

func TestWhitelistMonotonicity(t *testing.T) {
	urls := []string{"https://a.com/x", "http://b.com/y", "ftp://c.com/z"}
	full := CompileWhitelist([]string{"https://", "http://"})
	reduced := CompileWhitelist([]string{"https://"})
	fullResult := WhitelistFilter(urls, full)
	reducedResult := WhitelistFilter(urls, reduced)
	for _, u := range reducedResult {
		found := false
		for _, f := range fullResult {
			if f == u {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("dropping a regex added %q to the filtered output", u)
		}
	}
}

func TestValidURL(t *testing.T) {
	if !ValidURL("https://example.com/a") {
		t.Error("expected https://example.com/a to be valid")
	}
	if ValidURL("/relative/path") {
		t.Error("expected /relative/path to be invalid")
	}
}
