package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/tapdeck/groupgen/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS contact_groups (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	name             TEXT NOT NULL,
	group_type       TEXT NOT NULL,
	confidence       TEXT NOT NULL,
	reason           TEXT,
	discovery_method TEXT,
	contact_ids      TEXT NOT NULL,
	payload          TEXT NOT NULL,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_contact_groups_user_id ON contact_groups(user_id);
CREATE INDEX IF NOT EXISTS idx_contact_groups_user_created ON contact_groups(user_id, created_at DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveGroups(ctx context.Context, userID string, groups []model.GroupCandidate) ([]model.GroupCandidate, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin save groups")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	saved := make([]model.GroupCandidate, 0, len(groups))

	for _, g := range groups {
		if g.ID == "" {
			g.ID = uuid.New().String()
		}

		idsJSON, err := json.Marshal(g.ContactIDs)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: marshal contact ids")
		}
		payloadJSON, err := json.Marshal(payloadOf(g))
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: marshal payload")
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO contact_groups
			 (id, user_id, name, group_type, confidence, reason, discovery_method, contact_ids, payload, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			g.ID, userID, g.Name, string(g.Type), string(g.Confidence),
			g.Reason, g.DiscoveryMethod, string(idsJSON), string(payloadJSON), now,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert group %s", g.Name)
		}
		saved = append(saved, g)
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit save groups")
	}
	return saved, nil
}

func (s *SQLiteStore) ListGroups(ctx context.Context, userID string) ([]model.GroupCandidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, group_type, confidence, reason, discovery_method, contact_ids, payload
		 FROM contact_groups WHERE user_id = ? ORDER BY created_at DESC, id`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list groups")
	}
	defer rows.Close()

	var groups []model.GroupCandidate
	for rows.Next() {
		var g model.GroupCandidate
		var reason, method sql.NullString
		var idsJSON, payloadJSON string

		if err := rows.Scan(&g.ID, &g.Name, (*string)(&g.Type), (*string)(&g.Confidence),
			&reason, &method, &idsJSON, &payloadJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan group")
		}
		g.Reason = reason.String
		g.DiscoveryMethod = method.String

		if err := json.Unmarshal([]byte(idsJSON), &g.ContactIDs); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal contact ids")
		}
		var p groupPayload
		if err := json.Unmarshal([]byte(payloadJSON), &p); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal payload")
		}
		p.applyTo(&g)

		groups = append(groups, g)
	}
	return groups, eris.Wrap(rows.Err(), "sqlite: list groups iterate")
}

func (s *SQLiteStore) DeleteGroup(ctx context.Context, userID, groupID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM contact_groups WHERE user_id = ? AND id = ?`,
		userID, groupID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete group %s", groupID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("group not found: %s", groupID)
	}
	return nil
}
