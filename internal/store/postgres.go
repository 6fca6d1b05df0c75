package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/krili-app/agency-cli/internal/db"
	"github.com/krili-app/agency-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	id           UUID PRIMARY KEY,
	city_slug    TEXT NOT NULL,
	agency_count INTEGER NOT NULL,
	agencies     JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS snapshot_agencies (
	snapshot_id UUID NOT NULL REFERENCES snapshots(id),
	agency_id   TEXT NOT NULL,
	slug        TEXT NOT NULL,
	name        TEXT NOT NULL,
	score       DOUBLE PRECISION NOT NULL,
	lat         DOUBLE PRECISION NOT NULL,
	lng         DOUBLE PRECISION NOT NULL,
	geom        BYTEA
);

CREATE INDEX IF NOT EXISTS idx_snapshots_city ON snapshots(city_slug);
CREATE INDEX IF NOT EXISTS idx_snapshot_agencies_snapshot ON snapshot_agencies(snapshot_id);
`

// snapshotAgencyColumns is the COPY column order for per-agency rows.
var snapshotAgencyColumns = []string{"snapshot_id", "agency_id", "slug", "name", "score", "lat", "lng", "geom"}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, citySlug string, agencies []model.Agency) (*Snapshot, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	payload, err := json.Marshal(agencies)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal agencies")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO snapshots (id, city_slug, agency_count, agencies, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, citySlug, len(agencies), payload, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert snapshot")
	}

	rows := make([][]any, 0, len(agencies))
	for i := range agencies {
		a := &agencies[i]
		geomBytes, err := encodePoint(a.Coordinates)
		if err != nil {
			return nil, err
		}
		rows = append(rows, []any{id, a.ID, a.Slug, a.Name, a.Score, a.Coordinates.Lat, a.Coordinates.Lng, geomBytes})
	}
	if _, err := db.CopyFrom(ctx, s.pool, "snapshot_agencies", snapshotAgencyColumns, rows); err != nil {
		return nil, err
	}

	return &Snapshot{
		ID:          id,
		CitySlug:    citySlug,
		AgencyCount: len(agencies),
		Agencies:    agencies,
		CreatedAt:   now,
	}, nil
}

func (s *PostgresStore) GetLatestSnapshot(ctx context.Context, citySlug string) (*Snapshot, error) {
	var snap Snapshot
	var payload []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, city_slug, agency_count, agencies, created_at FROM snapshots WHERE city_slug = $1 ORDER BY created_at DESC LIMIT 1`,
		citySlug,
	).Scan(&snap.ID, &snap.CitySlug, &snap.AgencyCount, &payload, &snap.CreatedAt)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrSnapshotNotFound, "city %s", citySlug)
		}
		return nil, eris.Wrap(err, "postgres: get latest snapshot")
	}

	if err := json.Unmarshal(payload, &snap.Agencies); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal agencies")
	}
	return &snap, nil
}

func (s *PostgresStore) ListSnapshots(ctx context.Context, citySlug string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, city_slug, agency_count, created_at FROM snapshots ORDER BY created_at DESC LIMIT $1`
	args := []any{limit}
	if citySlug != "" {
		query = `SELECT id, city_slug, agency_count, created_at FROM snapshots WHERE city_slug = $1 ORDER BY created_at DESC LIMIT $2`
		args = []any{citySlug, limit}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list snapshots")
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.CitySlug, &snap.AgencyCount, &snap.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan snapshot")
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate snapshots")
	}
	return snaps, nil
}

func (s *PostgresStore) DeleteSnapshots(ctx context.Context, citySlug string) (int64, error) {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM snapshot_agencies WHERE snapshot_id IN (SELECT id FROM snapshots WHERE city_slug = $1)`,
		citySlug,
	); err != nil {
		return 0, eris.Wrap(err, "postgres: delete snapshot agencies")
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM snapshots WHERE city_slug = $1`, citySlug)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete snapshots")
	}
	return tag.RowsAffected(), nil
}

// Open constructs a Store from driver configuration.
func Open(ctx context.Context, driver, databaseURL string) (Store, error) {
	switch driver {
	case "postgres":
		return NewPostgres(ctx, databaseURL)
	case "sqlite", "":
		return NewSQLite(databaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
