package store

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/tapdeck/groupgen/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_SaveGroups_Insert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO contact_groups`).
		WithArgs(pgxmock.AnyArg(), "user-1", "Acme Inc. Team", "company", "low",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	saved, err := s.SaveGroups(context.Background(), "user-1", sampleGroups()[:1])
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.NotEmpty(t, saved[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListGroups(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{
		"id", "name", "group_type", "confidence", "reason", "discovery_method", "contact_ids", "payload",
	}).AddRow(
		"g1", "Acme Inc. Team", "company", "low",
		strPtr("2 contacts share company Acme Inc."), strPtr("company_match"),
		[]byte(`["c1","c2"]`), []byte(`{"company":{"company_name":"Acme Inc."}}`),
	)

	mock.ExpectQuery(`SELECT id, name, group_type, confidence, reason, discovery_method, contact_ids, payload`).
		WithArgs("user-1").
		WillReturnRows(rows)

	groups, err := s.ListGroups(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, model.GroupTypeCompany, groups[0].Type)
	assert.Equal(t, []string{"c1", "c2"}, groups[0].ContactIDs)
	require.NotNil(t, groups[0].Company)
	assert.Equal(t, "Acme Inc.", groups[0].Company.CompanyName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteGroup_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM contact_groups`).
		WithArgs("user-1", "missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := s.DeleteGroup(context.Background(), "user-1", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEncodeCenter(t *testing.T) {
	// No location payload stores NULL.
	data, err := encodeCenter(model.GroupCandidate{Type: model.GroupTypeCompany})
	require.NoError(t, err)
	assert.Nil(t, data)

	g := model.GroupCandidate{
		Type: model.GroupTypeLocation,
		Location: &model.LocationData{
			Center: model.LatLng{Latitude: 40.7128, Longitude: -74.006},
		},
	}
	data, err = encodeCenter(g)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	decoded, err := ewkb.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, 4326, decoded.SRID())
	coords := decoded.FlatCoords()
	require.Len(t, coords, 2)
	assert.InDelta(t, -74.006, coords[0], 1e-9)
	assert.InDelta(t, 40.7128, coords[1], 1e-9)
}

func strPtr(s string) *string { return &s }
