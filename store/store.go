// Package store implements the relational half of spec.md §3/§6: SeedSite,
// CrawledResource, PotentialURL and AdminUser, persisted to Postgres via
// database/sql and github.com/lib/pq (grounded on the database/sql +
// Postgres-driver pattern the wikigraph scraper in the retrieved pack uses
// for its own page/link bookkeeping).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/openengine/crawler/models"
)

// Store is the relational store contract the core pipeline and the admin
// surface depend on. It is defined here as an interface so orchestrator/
// processor/admin packages can be tested against an in-memory fake without
// a live Postgres instance.
type Store interface {
	// SeedSites lists every configured seed site, read by the
	// Orchestrator at crawl startup (spec.md §4.1).
	SeedSites(ctx context.Context) ([]models.SeedSite, error)
	AddSeedSite(ctx context.Context, url string) error
	DeleteSeedSite(ctx context.Context, url string) error
	UpdateSeedSite(ctx context.Context, oldURL, newURL string) error
	AddSeed(ctx context.Context, url, seed string) error
	DeleteSeed(ctx context.Context, url, seed string) error
	UpdateSeed(ctx context.Context, url, oldSeed, newSeed string) error

	// CrawledResources lists every resource ever visited, read by the
	// Orchestrator to compute the revisit set (spec.md §4.1).
	CrawledResources(ctx context.Context) ([]models.CrawledResource, error)
	// UpsertCrawledResource implements the corrected upsert semantics
	// spec.md §9 calls for: insert on first visit, update
	// lastVisited/allVisits/externalLinks on every later visit. This
	// replaces the teacher-original's insert-only path, which errored on
	// a duplicate key and silently swallowed the error.
	UpsertCrawledResource(ctx context.Context, url string, externalLinks []string, now time.Time) error

	PotentialURLs(ctx context.Context) ([]models.PotentialURL, error)
	// RecordPotentialURL idempotently increments timesSeen for url,
	// inserting a first-seen row if none exists (spec.md §3).
	RecordPotentialURL(ctx context.Context, url string, now time.Time) error

	AdminCount(ctx context.Context) (int, error)
	AdminByUsername(ctx context.Context, username string) (*models.AdminUser, error)
	CreateAdmin(ctx context.Context, username, passwordHash string) error
}

// Postgres is the Store implementation backing onto a *sql.DB opened with
// the lib/pq driver.
type Postgres struct {
	db *sql.DB
}

var _ Store = (*Postgres)(nil)

// DSN builds a libpq connection string from discrete fields, the same
// shape spec.md §6's POSTGRES_{DB,USER,PASSWORD,HOST,PORT} env vars
// describe.
func DSN(host string, port int, user, password, dbname string) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname,
	)
}

// Open connects to Postgres and pings it once to fail fast on
// misconfiguration, matching the Orchestrator's "startup failure aborts
// before launching workers" contract (spec.md §4.1).
func Open(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Postgres{db: db}, nil
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Schema is the DDL for spec.md §6's relational schema, applied by
// `crawld migrate`.
const Schema = `
CREATE TABLE IF NOT EXISTS resources (
	id serial PRIMARY KEY,
	url varchar(2048) UNIQUE NOT NULL,
	firstvisited timestamp NOT NULL,
	lastvisited timestamp NOT NULL,
	allvisits int DEFAULT 1,
	externallinks text[]
);

CREATE TABLE IF NOT EXISTS admins (
	id serial PRIMARY KEY,
	username varchar UNIQUE NOT NULL,
	password varchar NOT NULL
);

CREATE TABLE IF NOT EXISTS seed_urls (
	id serial PRIMARY KEY,
	url varchar(2048) UNIQUE NOT NULL,
	seeds varchar(512)[]
);

CREATE TABLE IF NOT EXISTS potential_urls (
	id serial PRIMARY KEY,
	url varchar(2048) UNIQUE NOT NULL,
	firstseen timestamp NOT NULL,
	timesseen int DEFAULT 1
);
`

// Migrate applies Schema, idempotently (every statement is IF NOT EXISTS).
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, Schema)
	return err
}
