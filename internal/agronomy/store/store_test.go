package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrisight/farm-portal/farm-portal-backend/internal/agronomy"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	s := New(db)
	require.NoError(t, s.AutoMigrate())
	return s
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inserted, err := s.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 17, inserted)

	again, err := s.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Zero(t, again, "reseeding must not duplicate rows")

	profiles, err := s.ListProfiles(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, 17)
}

func TestLoadCatalogRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SeedDefaults(ctx)
	require.NoError(t, err)

	catalog, err := s.LoadCatalog(ctx)
	require.NoError(t, err)

	wheat, err := catalog.Profile("wheat")
	require.NoError(t, err)

	reference, err := agronomy.DefaultCatalog().Profile("wheat")
	require.NoError(t, err)
	assert.Equal(t, reference, wheat, "stored profile must survive the round trip unchanged")
}

func TestLoadCatalogEmptyTableFallsBack(t *testing.T) {
	s := newTestStore(t)

	catalog, err := s.LoadCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 17, catalog.Len())
}

func TestUpsertProfileAddsCrop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SeedDefaults(ctx)
	require.NoError(t, err)

	quinoa, err := agronomy.DefaultCatalog().Profile("wheat")
	require.NoError(t, err)
	quinoa.ID = "quinoa"
	quinoa.DisplayName = "Quinoa"
	quinoa.BasePricePerQuintal = 9000

	require.NoError(t, s.UpsertProfile(ctx, quinoa))

	catalog, err := s.LoadCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, 18, catalog.Len())

	stored, err := catalog.Profile("quinoa")
	require.NoError(t, err)
	assert.Equal(t, 9000.0, stored.BasePricePerQuintal)
}

func TestUpsertProfileRejectsBrokenConstants(t *testing.T) {
	s := newTestStore(t)

	broken, err := agronomy.DefaultCatalog().Profile("wheat")
	require.NoError(t, err)
	broken.BaseYieldTonnesPerHa = -1

	err = s.UpsertProfile(context.Background(), broken)
	assert.Error(t, err)
}

func TestDeleteProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SeedDefaults(ctx)
	require.NoError(t, err)

	require.NoError(t, s.DeleteProfile(ctx, "millet"))

	profiles, err := s.ListProfiles(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, 16)

	err = s.DeleteProfile(ctx, "millet")
	assert.ErrorIs(t, err, agronomy.ErrUnknownCrop)
}
