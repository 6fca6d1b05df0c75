package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/krili-app/agency-cli/internal/dedupe"
	"github.com/krili-app/agency-cli/internal/geo"
	"github.com/krili-app/agency-cli/internal/intent"
	"github.com/krili-app/agency-cli/internal/model"
	"github.com/krili-app/agency-cli/internal/normalize"
	"github.com/krili-app/agency-cli/internal/rank"
	"github.com/krili-app/agency-cli/internal/slug"
)

// ErrAgencyNotFound reports a slug that resolves to no agency. A normal
// negative result, not a failure path.
var ErrAgencyNotFound = eris.New("catalog: agency not found")

var titleCaser = cases.Title(language.Und)

// Catalog computes and memoizes the per-city pipeline result. Each city is
// built once behind a once-guard: concurrent first callers serialize instead
// of duplicating work (and diverging through the jitter term). Invalidate
// drops a city so the next request rebuilds it.
type Catalog struct {
	loader   Loader
	cities   *geo.Registry
	filterer *intent.Filterer
	mixed    *normalize.Classifier
	jitter   rank.JitterSource

	mu      sync.Mutex
	entries map[string]*cityEntry
}

type cityEntry struct {
	once     sync.Once
	agencies []model.Agency
	err      error
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithJitter overrides the dataset-score jitter source (tests use a fixed one).
func WithJitter(j rank.JitterSource) Option {
	return func(c *Catalog) { c.jitter = j }
}

// WithMixedKeywords replaces the mixed-service keyword table.
func WithMixedKeywords(keywords []string) Option {
	return func(c *Catalog) { c.mixed = normalize.NewClassifier(keywords) }
}

// New creates a Catalog over a dataset loader and city registry.
func New(loader Loader, cities *geo.Registry, opts ...Option) *Catalog {
	c := &Catalog{
		loader:   loader,
		cities:   cities,
		filterer: intent.NewFilterer(cities),
		mixed:    normalize.NewClassifier(nil),
		jitter:   rank.NewRandomJitter(time.Now().UnixNano()),
		entries:  make(map[string]*cityEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrBuild returns the cached result for a city, building it on first use.
func (c *Catalog) GetOrBuild(ctx context.Context, citySlug string) ([]model.Agency, error) {
	c.mu.Lock()
	entry, ok := c.entries[citySlug]
	if !ok {
		entry = &cityEntry{}
		c.entries[citySlug] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.agencies, entry.err = c.build(ctx, citySlug)
	})
	return entry.agencies, entry.err
}

// Invalidate drops a city's cached result; the next request rebuilds it.
func (c *Catalog) Invalidate(citySlug string) {
	c.mu.Lock()
	delete(c.entries, citySlug)
	c.mu.Unlock()
}

// GetAgenciesByCity returns the full deduplicated, scored, descending-sorted
// list for a city.
func (c *Catalog) GetAgenciesByCity(ctx context.Context, citySlug string) ([]model.Agency, error) {
	return c.GetOrBuild(ctx, citySlug)
}

// GetAgencyBySlug resolves one agency by exact slug, falling back to a
// 6-character id-suffix match for hyphenated query slugs. The fallback keeps
// historical links alive across slug renames.
func (c *Catalog) GetAgencyBySlug(ctx context.Context, citySlug, agencySlug string) (*model.Agency, error) {
	agencies, err := c.GetOrBuild(ctx, citySlug)
	if err != nil {
		return nil, err
	}

	for i := range agencies {
		if agencies[i].Slug == agencySlug {
			return &agencies[i], nil
		}
	}

	// Slugs are lowercased at build time while external ids keep their
	// original case, so the suffix comparison folds case.
	if strings.Contains(agencySlug, "-") && len(agencySlug) >= 6 {
		suffix := strings.ToLower(agencySlug[len(agencySlug)-6:])
		for i := range agencies {
			if strings.HasSuffix(strings.ToLower(agencies[i].ID), suffix) {
				return &agencies[i], nil
			}
		}
	}

	return nil, eris.Wrapf(ErrAgencyNotFound, "city %s slug %s", citySlug, agencySlug)
}

// FilterByIntent applies a named intent over an already-built agency list.
func (c *Catalog) FilterByIntent(agencies []model.Agency, intentSlug, citySlug string) []model.Agency {
	return c.filterer.Filter(agencies, intentSlug, citySlug)
}

// build runs the full pipeline for one city:
// normalize → first score pass → id merge → proximity collapse →
// second score pass → sort by dataset score descending.
func (c *Catalog) build(ctx context.Context, citySlug string) ([]model.Agency, error) {
	start := time.Now()
	log := zap.L().With(zap.String("city", citySlug))

	city, ok := c.cities.City(citySlug)
	if !ok {
		// Datasets may exist for cities outside the registry; those simply
		// have no airport entry and a title-cased display name.
		city = geo.City{Slug: citySlug, Name: titleCaser.String(strings.ReplaceAll(slug.Slugify(citySlug), "-", " "))}
	}

	raws, err := c.loader.LoadCity(ctx, citySlug)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: build %s", citySlug)
	}

	normalizer := normalize.New(city, c.mixed)
	agencies := make([]model.Agency, len(raws))
	for i, raw := range raws {
		agencies[i] = normalizer.Record(raw, i)
	}

	stats := rank.ComputeCityStats(agencies)
	for i := range agencies {
		rank.Rescore(&agencies[i], stats, c.jitter)
	}

	merged := dedupe.MergeByID(agencies, stats, c.jitter)
	collapsed := dedupe.CollapseByProximity(merged)

	// Second pass fixes the display order after both dedup passes mutated
	// the set; MergeByID already sorts by score, rescoring keeps it honest.
	for i := range collapsed {
		rank.Rescore(&collapsed[i], stats, c.jitter)
	}
	sort.SliceStable(collapsed, func(i, j int) bool {
		return collapsed[i].Score > collapsed[j].Score
	})

	log.Info("catalog: built city",
		zap.Int("raw_records", len(raws)),
		zap.Int("after_id_merge", len(merged)),
		zap.Int("agencies", len(collapsed)),
		zap.Duration("took", time.Since(start)),
	)
	return collapsed, nil
}
