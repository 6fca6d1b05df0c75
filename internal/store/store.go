// Package store persists built city snapshots so the serve command can start
// warm and ingest runs stay auditable. Two backends: SQLite for single-node
// deployments, Postgres for shared ones.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/krili-app/agency-cli/internal/model"
)

// ErrSnapshotNotFound reports a city with no persisted snapshot.
var ErrSnapshotNotFound = eris.New("store: snapshot not found")

// Snapshot is one persisted pipeline result for a city.
type Snapshot struct {
	ID          string         `json:"id"`
	CitySlug    string         `json:"citySlug"`
	AgencyCount int            `json:"agencyCount"`
	Agencies    []model.Agency `json:"agencies,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Store defines the snapshot persistence interface.
type Store interface {
	// SaveSnapshot persists a built city result as a new snapshot.
	SaveSnapshot(ctx context.Context, citySlug string, agencies []model.Agency) (*Snapshot, error)
	// GetLatestSnapshot returns the newest snapshot for a city, agencies included.
	GetLatestSnapshot(ctx context.Context, citySlug string) (*Snapshot, error)
	// ListSnapshots returns snapshot metadata (no agency payload), newest
	// first. An empty citySlug lists across all cities.
	ListSnapshots(ctx context.Context, citySlug string, limit int) ([]Snapshot, error)
	// DeleteSnapshots removes every snapshot for a city, returning the count.
	DeleteSnapshots(ctx context.Context, citySlug string) (int64, error)

	Migrate(ctx context.Context) error
	Close() error
}
