// Package rank computes agency relevance scores.
//
// Two formulas coexist on purpose: the display-order score breaks merge ties
// during deduplication, and the dataset score orders the per-city result that
// lands in the cache. They are not interchangeable and are kept as distinct
// operations.
package rank

import (
	"math"
	"strings"

	"github.com/krili-app/agency-cli/internal/model"
)

// minReviewsThreshold is the fixed minimum-review floor carried in CityStats.
// The current formulas do not consume it, but downstream code depends on the
// stats being computed per batch.
const minReviewsThreshold = 30

// MaxJitter bounds the random perturbation added to every dataset score.
const MaxJitter = 0.2

// rentalKeywords earn the display-score name bonus (English, French, Arabic).
var rentalKeywords = []string{
	"rent", "rental", "car hire",
	"location", "voiture",
	"كراء", "تأجير", "سيارات",
}

// CityStats holds per-batch dataset statistics, computed once per city build.
type CityStats struct {
	MeanRating float64
	MaxReviews int
	MinReviews int
}

// ComputeCityStats derives the per-batch statistics from a normalized set.
func ComputeCityStats(agencies []model.Agency) CityStats {
	stats := CityStats{MinReviews: minReviewsThreshold}

	var ratingSum float64
	var rated int
	for i := range agencies {
		if r := agencies[i].Rating; r != nil && *r > 0 {
			ratingSum += *r
			rated++
		}
		if agencies[i].ReviewsCount > stats.MaxReviews {
			stats.MaxReviews = agencies[i].ReviewsCount
		}
	}
	if rated > 0 {
		stats.MeanRating = ratingSum / float64(rated)
	}
	return stats
}

// DisplayScore is the older completeness-weighted ranking used for city-wide
// listing order and for merge tie-breaks. Deterministic, no jitter.
func DisplayScore(a *model.Agency) float64 {
	score := a.RatingValue() * 10

	// log2 of zero is undefined; the reviews bonus only applies when reviews exist.
	if a.ReviewsCount > 0 {
		score += math.Log2(float64(a.ReviewsCount)) * 4
	}
	if a.HasPhone {
		score += 20
	}
	score += math.Min(float64(len(a.Photos))*5, 20)
	if hasRentalKeyword(a.Name) {
		score += 10
	}
	if a.IsMixedService {
		score -= 30
	}
	if len(a.Photos) == 0 {
		score -= 15
	}
	return score
}

// DatasetScore is the primary per-city ranking persisted into the cache:
// rating weighted by log review volume, completeness bonuses, plus a bounded
// random perturbation so repeated page loads do not show a suspiciously
// static order. Rounded to 2 decimal places. The stats argument is computed
// per batch and reserved for formula refinement.
func DatasetScore(a *model.Agency, stats CityStats, jitter JitterSource) float64 {
	_ = stats

	score := a.RatingValue() * math.Log(float64(a.ReviewsCount)+1)
	if a.HasPhone {
		score += 0.5
	}
	if a.HasWebsite {
		score += 0.5
	}
	score += jitter.Jitter()

	return math.Round(score*100) / 100
}

// Rescore recomputes and stores an agency's dataset score in place. Must be
// called whenever a merge changes the agency's fields; scores are never
// inherited across a merge.
func Rescore(a *model.Agency, stats CityStats, jitter JitterSource) {
	a.Score = DatasetScore(a, stats, jitter)
}

func hasRentalKeyword(name string) bool {
	name = strings.ToLower(name)
	for _, k := range rentalKeywords {
		if strings.Contains(name, k) {
			return true
		}
	}
	return false
}
