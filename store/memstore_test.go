package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreUpsertCrawledResource(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	t0 := time.Now()

	require.NoError(t, s.UpsertCrawledResource(ctx, "https://h/p", []string{"https://other.com"}, t0))
	resources, err := s.CrawledResources(ctx)
	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, 1, resources[0].AllVisits)
	assert.True(t, resources[0].FirstVisited.Equal(resources[0].LastVisited))

	t1 := t0.Add(time.Hour)
	require.NoError(t, s.UpsertCrawledResource(ctx, "https://h/p", []string{"https://other.com", "https://another.com"}, t1))
	resources, err = s.CrawledResources(ctx)
	require.NoError(t, err)
	require.Len(t, resources, 1, "expected upsert to avoid a duplicate row")

	r := resources[0]
	assert.Equal(t, 2, r.AllVisits)
	assert.True(t, r.LastVisited.Equal(t1))
	assert.False(t, r.FirstVisited.After(r.LastVisited))
	assert.Len(t, r.ExternalLinks, 2)
}

func TestMemStorePotentialURLIdempotentIncrement(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	now := time.Now()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.RecordPotentialURL(ctx, "https://h/filtered", now))
	}
	urls, err := s.PotentialURLs(ctx)
	require.NoError(t, err)
	require.Len(t, urls, 1)
	assert.Equal(t, 3, urls[0].TimesSeen)
}

func TestMemStoreSeedSiteSeedsCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	require.NoError(t, s.AddSeedSite(ctx, "https://site"))
	require.NoError(t, s.AddSeed(ctx, "https://site", "/blog"))
	require.NoError(t, s.UpdateSeed(ctx, "https://site", "/blog", "/news"))

	sites, err := s.SeedSites(ctx)
	require.NoError(t, err)
	require.Len(t, sites, 1)
	require.Len(t, sites[0].Seeds, 1)
	assert.Equal(t, "/news", sites[0].Seeds[0])

	require.NoError(t, s.DeleteSeed(ctx, "https://site", "/news"))
	sites, err = s.SeedSites(ctx)
	require.NoError(t, err)
	assert.Empty(t, sites[0].Seeds)
}
