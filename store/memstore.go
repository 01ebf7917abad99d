package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/openengine/crawler/models"
)

// MemStore is an in-memory Store implementation used by package tests
// without a live Postgres instance. It is not used in production serving;
// `crawld crawl` and `crawld serve` both open Postgres.
type MemStore struct {
	mu        sync.Mutex
	seedSites map[string]*models.SeedSite
	resources map[string]*models.CrawledResource
	potential map[string]*models.PotentialURL
	admins    map[string]*models.AdminUser
	nextID    int64
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		seedSites: make(map[string]*models.SeedSite),
		resources: make(map[string]*models.CrawledResource),
		potential: make(map[string]*models.PotentialURL),
		admins:    make(map[string]*models.AdminUser),
	}
}

func (m *MemStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MemStore) SeedSites(ctx context.Context) ([]models.SeedSite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.SeedSite, 0, len(m.seedSites))
	for _, s := range m.seedSites {
		cp := *s
		cp.Seeds = append([]string(nil), s.Seeds...)
		out = append(out, cp)
	}
	return out, nil
}

func (m *MemStore) AddSeedSite(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seedSites[url]; ok {
		return nil
	}
	m.seedSites[url] = &models.SeedSite{ID: m.id(), URL: url}
	return nil
}

func (m *MemStore) DeleteSeedSite(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seedSites, url)
	return nil
}

func (m *MemStore) UpdateSeedSite(ctx context.Context, oldURL, newURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.seedSites[oldURL]
	if !ok {
		return fmt.Errorf("no seed site with url %q", oldURL)
	}
	delete(m.seedSites, oldURL)
	s.URL = newURL
	m.seedSites[newURL] = s
	return nil
}

func (m *MemStore) AddSeed(ctx context.Context, url, seed string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.seedSites[url]
	if !ok {
		return fmt.Errorf("no seed site with url %q", url)
	}
	s.Seeds = append(s.Seeds, seed)
	return nil
}

func (m *MemStore) DeleteSeed(ctx context.Context, url, seed string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.seedSites[url]
	if !ok {
		return fmt.Errorf("no seed site with url %q", url)
	}
	filtered := s.Seeds[:0]
	for _, sd := range s.Seeds {
		if sd != seed {
			filtered = append(filtered, sd)
		}
	}
	s.Seeds = filtered
	return nil
}

func (m *MemStore) UpdateSeed(ctx context.Context, url, oldSeed, newSeed string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.seedSites[url]
	if !ok {
		return fmt.Errorf("no seed site with url %q", url)
	}
	for i, sd := range s.Seeds {
		if sd == oldSeed {
			s.Seeds[i] = newSeed
		}
	}
	return nil
}

func (m *MemStore) CrawledResources(ctx context.Context) ([]models.CrawledResource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.CrawledResource, 0, len(m.resources))
	for _, r := range m.resources {
		cp := *r
		cp.ExternalLinks = append([]string(nil), r.ExternalLinks...)
		out = append(out, cp)
	}
	return out, nil
}

func (m *MemStore) UpsertCrawledResource(ctx context.Context, url string, externalLinks []string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.resources[url]; ok {
		r.LastVisited = now
		r.AllVisits++
		r.ExternalLinks = externalLinks
		return nil
	}
	m.resources[url] = &models.CrawledResource{
		ID:            m.id(),
		URL:           url,
		FirstVisited:  now,
		LastVisited:   now,
		AllVisits:     1,
		ExternalLinks: externalLinks,
	}
	return nil
}

func (m *MemStore) PotentialURLs(ctx context.Context) ([]models.PotentialURL, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.PotentialURL, 0, len(m.potential))
	for _, u := range m.potential {
		out = append(out, *u)
	}
	return out, nil
}

func (m *MemStore) RecordPotentialURL(ctx context.Context, url string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.potential[url]; ok {
		u.TimesSeen++
		return nil
	}
	m.potential[url] = &models.PotentialURL{ID: m.id(), URL: url, FirstSeen: now, TimesSeen: 1}
	return nil
}

func (m *MemStore) AdminCount(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.admins), nil
}

func (m *MemStore) AdminByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.admins[username]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MemStore) CreateAdmin(ctx context.Context, username, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.admins[username]; ok {
		return fmt.Errorf("admin %q already exists", username)
	}
	m.admins[username] = &models.AdminUser{ID: m.id(), Username: username, PasswordHash: passwordHash}
	return nil
}
