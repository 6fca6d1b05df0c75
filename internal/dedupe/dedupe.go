// Package dedupe collapses duplicate agency records scraped multiple times
// for the same physical business.
//
// Two passes coexist and are deliberately not unified: MergeByID enriches a
// surviving record from its discarded variants, while CollapseByProximity
// discards lower-scored geo-coincident records outright with no field
// borrowing. Collapsing them would silently change which fields survive.
package dedupe

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/krili-app/agency-cli/internal/geo"
	"github.com/krili-app/agency-cli/internal/model"
	"github.com/krili-app/agency-cli/internal/rank"
)

// Proximity thresholds in meters.
const (
	// NameMatchRadius merges records sharing an exact lowercased name.
	NameMatchRadius = 200.0
	// TightRadius is decisive on its own: two records this close are the
	// same business regardless of name.
	TightRadius = 20.0
)

// MergeByID collapses records that share an id into one enriched survivor.
//
// Candidates are walked in display-score-descending order (stable, ties keep
// original order) so the highest-scoring variant of each duplicate group is
// seen first and becomes the survivor. Repeats donate photos when they carry
// strictly more, and fill a nil phone or website. Every enriched survivor is
// rescored; city-wide statistics are not recomputed. The result is sorted by
// dataset score descending.
func MergeByID(agencies []model.Agency, stats rank.CityStats, jitter rank.JitterSource) []model.Agency {
	ordered := make([]model.Agency, len(agencies))
	copy(ordered, agencies)
	sort.SliceStable(ordered, func(i, j int) bool {
		return rank.DisplayScore(&ordered[i]) > rank.DisplayScore(&ordered[j])
	})

	survivors := make([]model.Agency, 0, len(ordered))
	index := make(map[string]int, len(ordered))

	for _, candidate := range ordered {
		at, seen := index[candidate.ID]
		if !seen {
			index[candidate.ID] = len(survivors)
			survivors = append(survivors, candidate)
			continue
		}

		survivor := &survivors[at]
		if len(candidate.Photos) > len(survivor.Photos) {
			survivor.Photos = candidate.Photos
		}
		if survivor.Phone == nil && candidate.Phone != nil {
			survivor.Phone = candidate.Phone
			survivor.HasPhone = true
		}
		if survivor.Website == nil && candidate.Website != nil {
			survivor.Website = candidate.Website
			survivor.HasWebsite = true
		}
		rank.Rescore(survivor, stats, jitter)

		zap.L().Debug("dedupe: merged duplicate id",
			zap.String("id", candidate.ID),
			zap.String("survivor_slug", survivor.Slug),
		)
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].Score > survivors[j].Score
	})
	return survivors
}

// CollapseByProximity removes records that plausibly represent the same
// business under different ids: an exact lowercased name match within
// NameMatchRadius, or any pair within TightRadius. The lower-scored record
// is discarded entirely.
//
// Placeholder (0,0) coordinates participate as normal points, so two
// unlocated records compare as 0 meters apart and may be collapsed; that is
// a known data-quality risk accepted over special-casing.
func CollapseByProximity(agencies []model.Agency) []model.Agency {
	ordered := make([]model.Agency, len(agencies))
	copy(ordered, agencies)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})

	survivors := make([]model.Agency, 0, len(ordered))
	for _, candidate := range ordered {
		if dup := findGeoDuplicate(survivors, &candidate); dup != nil {
			zap.L().Debug("dedupe: discarded geo duplicate",
				zap.String("discarded", candidate.Slug),
				zap.String("survivor", dup.Slug),
			)
			continue
		}
		survivors = append(survivors, candidate)
	}
	return survivors
}

func findGeoDuplicate(survivors []model.Agency, candidate *model.Agency) *model.Agency {
	name := strings.ToLower(candidate.Name)
	for i := range survivors {
		d := geo.Distance(survivors[i].Coordinates, candidate.Coordinates)
		if d < TightRadius {
			return &survivors[i]
		}
		if d < NameMatchRadius && strings.ToLower(survivors[i].Name) == name {
			return &survivors[i]
		}
	}
	return nil
}
