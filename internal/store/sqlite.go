package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/krili-app/agency-cli/internal/model"
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
CREATE TABLE IF NOT EXISTS snapshots (
	id           TEXT PRIMARY KEY,
	city_slug    TEXT NOT NULL,
	agency_count INTEGER NOT NULL,
	agencies     TEXT NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS snapshot_agencies (
	snapshot_id TEXT NOT NULL REFERENCES snapshots(id),
	agency_id   TEXT NOT NULL,
	slug        TEXT NOT NULL,
	name        TEXT NOT NULL,
	score       REAL NOT NULL,
	lat         REAL NOT NULL,
	lng         REAL NOT NULL,
	geom        BLOB
);

CREATE INDEX IF NOT EXISTS idx_snapshots_city ON snapshots(city_slug);
CREATE INDEX IF NOT EXISTS idx_snapshot_agencies_snapshot ON snapshot_agencies(snapshot_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, citySlug string, agencies []model.Agency) (*Snapshot, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	payload, err := json.Marshal(agencies)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal agencies")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, city_slug, agency_count, agencies, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, citySlug, len(agencies), string(payload), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert snapshot")
	}

	for i := range agencies {
		a := &agencies[i]
		geomBytes, err := encodePoint(a.Coordinates)
		if err != nil {
			return nil, err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO snapshot_agencies (snapshot_id, agency_id, slug, name, score, lat, lng, geom) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, a.ID, a.Slug, a.Name, a.Score, a.Coordinates.Lat, a.Coordinates.Lng, geomBytes,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert snapshot agency %s", a.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit snapshot")
	}

	return &Snapshot{
		ID:          id,
		CitySlug:    citySlug,
		AgencyCount: len(agencies),
		Agencies:    agencies,
		CreatedAt:   now,
	}, nil
}

func (s *SQLiteStore) GetLatestSnapshot(ctx context.Context, citySlug string) (*Snapshot, error) {
	var snap Snapshot
	var payload string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, city_slug, agency_count, agencies, created_at FROM snapshots WHERE city_slug = ? ORDER BY created_at DESC LIMIT 1`,
		citySlug,
	).Scan(&snap.ID, &snap.CitySlug, &snap.AgencyCount, &payload, &snap.CreatedAt)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrSnapshotNotFound, "city %s", citySlug)
		}
		return nil, eris.Wrap(err, "sqlite: get latest snapshot")
	}

	if err := json.Unmarshal([]byte(payload), &snap.Agencies); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal agencies")
	}
	return &snap, nil
}

func (s *SQLiteStore) ListSnapshots(ctx context.Context, citySlug string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, city_slug, agency_count, created_at FROM snapshots ORDER BY created_at DESC LIMIT ?`
	args := []any{limit}
	if citySlug != "" {
		query = `SELECT id, city_slug, agency_count, created_at FROM snapshots WHERE city_slug = ? ORDER BY created_at DESC LIMIT ?`
		args = []any{citySlug, limit}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list snapshots")
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.CitySlug, &snap.AgencyCount, &snap.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan snapshot")
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate snapshots")
	}
	return snaps, nil
}

func (s *SQLiteStore) DeleteSnapshots(ctx context.Context, citySlug string) (int64, error) {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshot_agencies WHERE snapshot_id IN (SELECT id FROM snapshots WHERE city_slug = ?)`,
		citySlug,
	); err != nil {
		return 0, eris.Wrap(err, "sqlite: delete snapshot agencies")
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE city_slug = ?`, citySlug)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete snapshots")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return n, nil
}
