package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/openengine/crawler/models"
)

func (p *Postgres) SeedSites(ctx context.Context) ([]models.SeedSite, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, url, seeds FROM seed_urls ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing seed sites: %w", err)
	}
	defer rows.Close()

	var out []models.SeedSite
	for rows.Next() {
		var s models.SeedSite
		var seeds pq.StringArray
		if err := rows.Scan(&s.ID, &s.URL, &seeds); err != nil {
			return nil, fmt.Errorf("scanning seed site: %w", err)
		}
		s.Seeds = []string(seeds)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) AddSeedSite(ctx context.Context, url string) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO seed_urls (url, seeds) VALUES ($1, '{}') ON CONFLICT (url) DO NOTHING`, url)
	if err != nil {
		return fmt.Errorf("adding seed site: %w", err)
	}
	return nil
}

func (p *Postgres) DeleteSeedSite(ctx context.Context, url string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM seed_urls WHERE url = $1`, url)
	if err != nil {
		return fmt.Errorf("deleting seed site: %w", err)
	}
	return nil
}

func (p *Postgres) UpdateSeedSite(ctx context.Context, oldURL, newURL string) error {
	res, err := p.db.ExecContext(ctx, `UPDATE seed_urls SET url = $1 WHERE url = $2`, newURL, oldURL)
	if err != nil {
		return fmt.Errorf("updating seed site: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("updating seed site: no seed site with url %q", oldURL)
	}
	return nil
}

func (p *Postgres) AddSeed(ctx context.Context, url, seed string) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE seed_urls SET seeds = array_append(seeds, $1) WHERE url = $2`, seed, url)
	if err != nil {
		return fmt.Errorf("adding seed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("adding seed: no seed site with url %q", url)
	}
	return nil
}

func (p *Postgres) DeleteSeed(ctx context.Context, url, seed string) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE seed_urls SET seeds = array_remove(seeds, $1) WHERE url = $2`, seed, url)
	if err != nil {
		return fmt.Errorf("deleting seed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("deleting seed: no seed site with url %q", url)
	}
	return nil
}

func (p *Postgres) UpdateSeed(ctx context.Context, url, oldSeed, newSeed string) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE seed_urls SET seeds = array_replace(seeds, $1, $2) WHERE url = $3`, oldSeed, newSeed, url)
	if err != nil {
		return fmt.Errorf("updating seed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("updating seed: no seed site with url %q", url)
	}
	return nil
}

func (p *Postgres) CrawledResources(ctx context.Context) ([]models.CrawledResource, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, url, firstvisited, lastvisited, allvisits, externallinks FROM resources ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing crawled resources: %w", err)
	}
	defer rows.Close()

	var out []models.CrawledResource
	for rows.Next() {
		var r models.CrawledResource
		var links pq.StringArray
		if err := rows.Scan(&r.ID, &r.URL, &r.FirstVisited, &r.LastVisited, &r.AllVisits, &links); err != nil {
			return nil, fmt.Errorf("scanning crawled resource: %w", err)
		}
		r.ExternalLinks = []string(links)
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertCrawledResource implements the corrected semantics spec.md §9
// calls for: on first visit insert with allVisits=1, on every later visit
// bump lastVisited, increment allVisits and refresh externalLinks.
func (p *Postgres) UpsertCrawledResource(ctx context.Context, url string, externalLinks []string, now time.Time) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO resources (url, firstvisited, lastvisited, allvisits, externallinks)
		VALUES ($1, $2, $2, 1, $3)
		ON CONFLICT (url) DO UPDATE SET
			lastvisited = EXCLUDED.lastvisited,
			allvisits = resources.allvisits + 1,
			externallinks = EXCLUDED.externallinks
	`, url, now, pq.Array(externalLinks))
	if err != nil {
		return fmt.Errorf("upserting crawled resource %s: %w", url, err)
	}
	return nil
}

func (p *Postgres) PotentialURLs(ctx context.Context) ([]models.PotentialURL, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, url, firstseen, timesseen FROM potential_urls ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing potential urls: %w", err)
	}
	defer rows.Close()

	var out []models.PotentialURL
	for rows.Next() {
		var u models.PotentialURL
		if err := rows.Scan(&u.ID, &u.URL, &u.FirstSeen, &u.TimesSeen); err != nil {
			return nil, fmt.Errorf("scanning potential url: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (p *Postgres) RecordPotentialURL(ctx context.Context, url string, now time.Time) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO potential_urls (url, firstseen, timesseen)
		VALUES ($1, $2, 1)
		ON CONFLICT (url) DO UPDATE SET timesseen = potential_urls.timesseen + 1
	`, url, now)
	if err != nil {
		return fmt.Errorf("recording potential url %s: %w", url, err)
	}
	return nil
}

func (p *Postgres) AdminCount(ctx context.Context) (int, error) {
	var n int
	if err := p.db.QueryRowContext(ctx, `SELECT count(*) FROM admins`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting admins: %w", err)
	}
	return n, nil
}

// ErrNotFound is returned by lookups that find no matching row.
var ErrNotFound = errors.New("not found")

func (p *Postgres) AdminByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	var a models.AdminUser
	err := p.db.QueryRowContext(ctx,
		`SELECT id, username, password FROM admins WHERE username = $1`, username,
	).Scan(&a.ID, &a.Username, &a.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up admin %s: %w", username, err)
	}
	return &a, nil
}

func (p *Postgres) CreateAdmin(ctx context.Context, username, passwordHash string) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO admins (username, password) VALUES ($1, $2)`, username, passwordHash)
	if err != nil {
		return fmt.Errorf("creating admin %s: %w", username, err)
	}
	return nil
}
