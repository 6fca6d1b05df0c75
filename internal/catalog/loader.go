// Package catalog loads per-city raw datasets and caches the normalized,
// deduplicated, ranked result for the lifetime of the process.
package catalog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/krili-app/agency-cli/internal/model"
)

// ErrDatasetNotFound reports a city with no dataset file. Kept distinct from
// a legitimately empty dataset, which loads as an empty slice with no error.
var ErrDatasetNotFound = eris.New("catalog: dataset not found")

// Loader supplies the raw per-city dataset. This is the external collaborator
// boundary: the pipeline makes no assumption about freshness or schema
// strictness beyond what RawRecord decoding tolerates.
type Loader interface {
	LoadCity(ctx context.Context, citySlug string) ([]model.RawRecord, error)
}

// FileLoader reads city datasets from <dir>/<citySlug>.json, each file an
// ordered JSON array of raw listings.
type FileLoader struct {
	dir string
}

// NewFileLoader creates a FileLoader rooted at dir.
func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{dir: dir}
}

// LoadCity reads and decodes one city's dataset.
func (l *FileLoader) LoadCity(ctx context.Context, citySlug string) ([]model.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "catalog: load city")
	}

	path := filepath.Join(l.dir, citySlug+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eris.Wrapf(ErrDatasetNotFound, "city %s", citySlug)
		}
		return nil, eris.Wrapf(err, "catalog: read dataset %s", path)
	}

	var records []model.RawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, eris.Wrapf(err, "catalog: parse dataset %s", path)
	}
	return records, nil
}
