package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/tapdeck/groupgen/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_group": `INSERT INTO contact_groups
		 (id, user_id, name, group_type, confidence, reason, discovery_method, contact_ids, payload, center, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
	"list_groups": `SELECT id, name, group_type, confidence, reason, discovery_method, contact_ids, payload
		 FROM contact_groups WHERE user_id = $1 ORDER BY created_at DESC, id`,
	"delete_group": `DELETE FROM contact_groups WHERE user_id = $1 AND id = $2`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS contact_groups (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id          TEXT NOT NULL,
	name             TEXT NOT NULL,
	group_type       TEXT NOT NULL,
	confidence       TEXT NOT NULL,
	reason           TEXT,
	discovery_method TEXT,
	contact_ids      JSONB NOT NULL,
	payload          JSONB NOT NULL,
	center           BYTEA,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_contact_groups_user_id ON contact_groups(user_id);
CREATE INDEX IF NOT EXISTS idx_contact_groups_user_created ON contact_groups(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_contact_groups_type ON contact_groups(group_type);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveGroups(ctx context.Context, userID string, groups []model.GroupCandidate) ([]model.GroupCandidate, error) {
	now := time.Now().UTC()
	saved := make([]model.GroupCandidate, 0, len(groups))

	for _, g := range groups {
		if g.ID == "" {
			g.ID = uuid.New().String()
		}

		idsJSON, err := json.Marshal(g.ContactIDs)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: marshal contact ids")
		}
		payloadJSON, err := json.Marshal(payloadOf(g))
		if err != nil {
			return nil, eris.Wrap(err, "postgres: marshal payload")
		}
		center, err := encodeCenter(g)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: encode center for group %s", g.Name)
		}

		_, err = s.pool.Exec(ctx,
			`INSERT INTO contact_groups
			 (id, user_id, name, group_type, confidence, reason, discovery_method, contact_ids, payload, center, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			g.ID, userID, g.Name, string(g.Type), string(g.Confidence),
			g.Reason, g.DiscoveryMethod, idsJSON, payloadJSON, center, now,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: insert group %s", g.Name)
		}
		saved = append(saved, g)
	}
	return saved, nil
}

func (s *PostgresStore) ListGroups(ctx context.Context, userID string) ([]model.GroupCandidate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, group_type, confidence, reason, discovery_method, contact_ids, payload
		 FROM contact_groups WHERE user_id = $1 ORDER BY created_at DESC, id`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list groups")
	}
	defer rows.Close()

	var groups []model.GroupCandidate
	for rows.Next() {
		var g model.GroupCandidate
		var reason, method *string
		var idsJSON, payloadJSON []byte

		if err := rows.Scan(&g.ID, &g.Name, (*string)(&g.Type), (*string)(&g.Confidence),
			&reason, &method, &idsJSON, &payloadJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan group")
		}
		if reason != nil {
			g.Reason = *reason
		}
		if method != nil {
			g.DiscoveryMethod = *method
		}

		if err := json.Unmarshal(idsJSON, &g.ContactIDs); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal contact ids")
		}
		var p groupPayload
		if err := json.Unmarshal(payloadJSON, &p); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal payload")
		}
		p.applyTo(&g)

		groups = append(groups, g)
	}
	return groups, eris.Wrap(rows.Err(), "postgres: list groups iterate")
}

func (s *PostgresStore) DeleteGroup(ctx context.Context, userID, groupID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM contact_groups WHERE user_id = $1 AND id = $2`,
		userID, groupID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete group %s", groupID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("group not found: %s", groupID)
	}
	return nil
}

// encodeCenter converts a location group's center to EWKB bytes with SRID
// 4326 so location groups can feed PostGIS queries. Groups without a
// location payload store NULL.
func encodeCenter(g model.GroupCandidate) ([]byte, error) {
	if g.Location == nil {
		return nil, nil
	}
	pt := geom.NewPointFlat(geom.XY, []float64{
		g.Location.Center.Longitude,
		g.Location.Center.Latitude,
	}).SetSRID(4326)
	return ewkb.Marshal(pt, ewkb.NDR)
}
