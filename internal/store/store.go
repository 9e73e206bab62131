// Package store persists generated contact groups. Two implementations
// exist: SQLite for single-user and local use, Postgres for the hosted
// service.
package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tapdeck/groupgen/internal/model"
)

// Store defines the persistence interface for generated groups. Groups are
// scoped per user; a user never sees another user's groups.
type Store interface {
	// SaveGroups persists the groups under the user, assigning IDs to any
	// group that lacks one. The returned slice carries the assigned IDs.
	SaveGroups(ctx context.Context, userID string, groups []model.GroupCandidate) ([]model.GroupCandidate, error)

	// ListGroups returns the user's saved groups, newest first.
	ListGroups(ctx context.Context, userID string) ([]model.GroupCandidate, error)

	// DeleteGroup removes one group. Deleting a group that does not exist
	// or belongs to another user is an error.
	DeleteGroup(ctx context.Context, userID, groupID string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Pool is the subset of pgxpool.Pool the Postgres store uses, extracted so
// tests can substitute pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// groupPayload is the JSON envelope for the type-specific group data. One
// field at most is non-nil, matching the group's type.
type groupPayload struct {
	Company  *model.CompanyData  `json:"company,omitempty"`
	Location *model.LocationData `json:"location,omitempty"`
	Event    *model.EventData    `json:"event,omitempty"`
	Time     *model.TimeData     `json:"time,omitempty"`
}

func payloadOf(g model.GroupCandidate) groupPayload {
	return groupPayload{
		Company:  g.Company,
		Location: g.Location,
		Event:    g.Event,
		Time:     g.Time,
	}
}

func (p groupPayload) applyTo(g *model.GroupCandidate) {
	g.Company = p.Company
	g.Location = p.Location
	g.Event = p.Event
	g.Time = p.Time
}
