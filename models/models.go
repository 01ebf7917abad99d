// Package models contains the persistent and in-flight data types shared
// across the crawl/index pipeline and the admin surface.
package models

import "time"

// SeedSite is an operator-curated root website, optionally narrowed to a
// set of path suffixes to seed the frontier with.
type SeedSite struct {
	ID    int64
	URL   string
	Seeds []string
}

// CrawledResource is a page the Processor has successfully visited at
// least once.
type CrawledResource struct {
	ID            int64
	URL           string
	FirstVisited  time.Time
	LastVisited   time.Time
	AllVisits     int
	ExternalLinks []string
}

// PotentialURL is a URL that was observed (e.g. discovered, but filtered
// out by the whitelist) without being crawled.
type PotentialURL struct {
	ID        int64
	URL       string
	FirstSeen time.Time
	TimesSeen int
}

// AdminUser is an operator account for the admin HTTP surface.
type AdminUser struct {
	ID           int64
	Username     string
	PasswordHash string
}

// PageKind enumerates the kinds of in-flight parsed records. Only webpage
// exists today; the type exists so new kinds don't require a breaking
// change to ParsedPage.
type PageKind string

// WebpageKind is the only PageKind produced by the Fetcher today.
const WebpageKind PageKind = "webpage"

// EmbeddingRecord is one vector persisted in the embeddings collection,
// covering one text segment of one crawled page.
type EmbeddingRecord struct {
	ID      string
	Vector  []float32
	PageURL string
}
