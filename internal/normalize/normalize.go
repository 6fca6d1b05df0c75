// Package normalize maps raw scraped listings onto canonical Agency records.
// The normalizer never fails: missing or wrong-typed raw fields degrade to
// safe defaults, and every returned Agency is structurally complete.
package normalize

import (
	"fmt"
	"strings"

	"github.com/krili-app/agency-cli/internal/geo"
	"github.com/krili-app/agency-cli/internal/model"
	"github.com/krili-app/agency-cli/internal/slug"
)

// placeholderName labels records that arrived without any name field.
const placeholderName = "Rental Agency"

// maxReviews caps the normalized review excerpts kept per agency.
const maxReviews = 20

// Photo URL plausibility bounds. Anything outside is scrape debris
// (blob handles, fragments, data URIs truncated by the scraper).
const (
	minPhotoURLLen = 12
	maxPhotoURLLen = 2048
)

// Normalizer converts raw records of one city's dataset into Agency values.
type Normalizer struct {
	city  geo.City
	mixed *Classifier
}

// New creates a Normalizer for a city. A nil classifier gets the built-in
// keyword table.
func New(city geo.City, mixed *Classifier) *Normalizer {
	if mixed == nil {
		mixed = NewClassifier(nil)
	}
	return &Normalizer{city: city, mixed: mixed}
}

// Record normalizes one raw listing given its ordinal position in the source
// dataset. It always returns exactly one structurally complete Agency.
func (n *Normalizer) Record(raw model.RawRecord, index int) model.Agency {
	name := raw.Name
	if name == "" {
		name = placeholderName
	}

	id := raw.ExternalID
	if id == "" {
		id = fmt.Sprintf("local-%d", index)
	}

	a := model.Agency{
		ID:           id,
		Slug:         slug.Build(name, raw.ExternalID, index),
		Name:         name,
		City:         n.city.Name,
		CitySlug:     n.city.Slug,
		Coordinates:  raw.Location,
		Photos:       resolvePhotos(raw.Photos),
		Categories:   resolveCategories(raw.Category, raw.Categories),
		OpeningHours: resolveHours(raw.Hours),
		Reviews:      resolveReviews(raw.Reviews),
		ReviewsCount: len(raw.Reviews),
	}

	a.Rating = resolveRating(raw.Rating, raw.Reviews)
	a.IsMixedService = n.mixed.IsMixedService(name, a.Categories)

	a.Address = raw.Address
	if a.Address == "" {
		a.Address = raw.City
	}
	if a.Address == "" {
		a.Address = n.city.Name
	}

	if raw.Phone != "" {
		phone := raw.Phone
		a.Phone = &phone
		a.HasPhone = true
	}
	if raw.Website != "" {
		website := raw.Website
		a.Website = &website
		a.HasWebsite = true
	}

	// Synthetic SEO attributes derived from the ordinal position only: a
	// deterministic stand-in until real deposit/pricing data exists.
	a.NoDeposit = index%5 == 0
	switch {
	case index%10 == 0:
		a.PriceLevel = model.PriceLuxury
	case index%3 == 0:
		a.PriceLevel = model.PriceCheap
	default:
		a.PriceLevel = model.PriceStandard
	}

	return a
}

// resolveRating prefers the scraped aggregate rating and falls back to the
// arithmetic mean of review stars. Nil when neither exists.
func resolveRating(rating float64, reviews []model.RawReview) *float64 {
	if rating > 0 {
		return &rating
	}

	var sum float64
	var n int
	for _, r := range reviews {
		if r.Stars > 0 {
			sum += r.Stars
			n++
		}
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}

// resolvePhotos deduplicates and keeps only absolute http(s) URLs of
// plausible length.
func resolvePhotos(urls []string) []string {
	out := make([]string, 0, len(urls))
	seen := make(map[string]bool, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if !isPlausiblePhotoURL(u) || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

func isPlausiblePhotoURL(u string) bool {
	if len(u) < minPhotoURLLen || len(u) > maxPhotoURLLen {
		return false
	}
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// resolveCategories merges the primary category with the category array,
// deduplicated in order of appearance.
func resolveCategories(primary string, categories []string) []string {
	out := make([]string, 0, len(categories)+1)
	seen := make(map[string]bool, len(categories)+1)
	for _, c := range append([]string{primary}, categories...) {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// resolveHours keeps only entries carrying both a day label and an hours string.
func resolveHours(hours []model.RawHours) []model.OpeningHours {
	out := make([]model.OpeningHours, 0, len(hours))
	for _, h := range hours {
		if h.Day == "" || h.Hours == "" {
			continue
		}
		out = append(out, model.OpeningHours{Day: h.Day, Hours: h.Hours})
	}
	return out
}

// resolveReviews keeps the first maxReviews entries that carry text or a star
// rating; entries with neither are dropped.
func resolveReviews(reviews []model.RawReview) []model.Review {
	out := make([]model.Review, 0, min(len(reviews), maxReviews))
	for _, r := range reviews {
		if len(out) == maxReviews {
			break
		}
		if r.Text == "" && r.TextTranslated == "" && r.Stars == 0 {
			continue
		}
		out = append(out, model.Review{
			Name:            r.Name,
			PhotoURL:        r.PhotoURL,
			Stars:           r.Stars,
			Text:            r.Text,
			TextTranslated:  r.TextTranslated,
			PublishedAt:     r.PublishedAt,
			PublishedAtText: r.PublishedAtText,
			OwnerResponse:   r.OwnerResponse,
		})
	}
	return out
}
