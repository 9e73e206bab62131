package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapdeck/groupgen/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleGroups() []model.GroupCandidate {
	return []model.GroupCandidate{
		{
			Name:            "Acme Inc. Team",
			Type:            model.GroupTypeCompany,
			ContactIDs:      []string{"c1", "c2"},
			Confidence:      model.ConfidenceLow,
			Reason:          "2 contacts share company Acme Inc.",
			DiscoveryMethod: "company_match",
			Company:         &model.CompanyData{CompanyName: "Acme Inc."},
		},
		{
			Name:            "New York Area",
			Type:            model.GroupTypeLocation,
			ContactIDs:      []string{"c3", "c4", "c5"},
			Confidence:      model.ConfidenceMedium,
			Reason:          "3 contacts within ~500 m of each other",
			DiscoveryMethod: "proximity_cluster",
			Location: &model.LocationData{
				Center:       model.LatLng{Latitude: 40.7128, Longitude: -74.006},
				RadiusMeters: 500,
			},
		},
	}
}

func TestSQLiteStore_SaveAndList(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	saved, err := s.SaveGroups(ctx, "user-1", sampleGroups())
	require.NoError(t, err)
	require.Len(t, saved, 2)
	for _, g := range saved {
		assert.NotEmpty(t, g.ID)
	}

	listed, err := s.ListGroups(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, listed, 2)

	byName := map[string]model.GroupCandidate{}
	for _, g := range listed {
		byName[g.Name] = g
	}

	acme := byName["Acme Inc. Team"]
	assert.Equal(t, model.GroupTypeCompany, acme.Type)
	assert.Equal(t, []string{"c1", "c2"}, acme.ContactIDs)
	require.NotNil(t, acme.Company)
	assert.Equal(t, "Acme Inc.", acme.Company.CompanyName)
	assert.Nil(t, acme.Location)

	ny := byName["New York Area"]
	require.NotNil(t, ny.Location)
	assert.InDelta(t, 40.7128, ny.Location.Center.Latitude, 1e-9)
	assert.Equal(t, model.ConfidenceMedium, ny.Confidence)
}

func TestSQLiteStore_ListScopedByUser(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.SaveGroups(ctx, "user-1", sampleGroups()[:1])
	require.NoError(t, err)
	_, err = s.SaveGroups(ctx, "user-2", sampleGroups()[1:])
	require.NoError(t, err)

	g1, err := s.ListGroups(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, g1, 1)
	assert.Equal(t, "Acme Inc. Team", g1[0].Name)

	g3, err := s.ListGroups(ctx, "user-3")
	require.NoError(t, err)
	assert.Empty(t, g3)
}

func TestSQLiteStore_SaveKeepsExistingID(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	groups := sampleGroups()[:1]
	groups[0].ID = "fixed-id"

	saved, err := s.SaveGroups(ctx, "user-1", groups)
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", saved[0].ID)
}

func TestSQLiteStore_DeleteGroup(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	saved, err := s.SaveGroups(ctx, "user-1", sampleGroups())
	require.NoError(t, err)

	require.NoError(t, s.DeleteGroup(ctx, "user-1", saved[0].ID))

	listed, err := s.ListGroups(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	// Wrong user must not delete.
	err = s.DeleteGroup(ctx, "user-2", saved[1].ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteStore_MigrateIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	assert.NoError(t, s.Migrate(context.Background()))
}
