// Package intent implements named search intents: predefined filter/sort
// profiles over a city's deduplicated, ranked agency list.
package intent

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/krili-app/agency-cli/internal/geo"
	"github.com/krili-app/agency-cli/internal/model"
)

// Intent slugs.
const (
	SlugBest         = "best"
	SlugAirport      = "airport"
	SlugCheap        = "cheap"
	SlugLuxury       = "luxury"
	SlugNoDeposit    = "no-deposit"
	SlugOpen24h      = "24h"
	SlugMostReviewed = "most-reviewed"
)

// Intent thresholds.
const (
	bestMinRating    = 4.0
	airportRadius    = 5000.0 // meters
	mostReviewedMin  = 50
)

// open24Phrases detect a round-the-clock schedule with a substring check, not
// a structured hours parser; genuinely ambiguous hour strings are misread.
var open24Phrases = []string{
	"open 24 hours",
	"24 hours",
	"24/7",
	"مفتوح على مدار الساعة",
	"24 ساعة",
}

// Text holds the Arabic and French presentation strings for an intent.
// Templates carry a {city} placeholder substituted at render time.
type Text struct {
	Ar string `json:"ar"`
	Fr string `json:"fr"`
}

// Render substitutes the city display name into both templates.
func (t Text) Render(city string) Text {
	return Text{
		Ar: strings.ReplaceAll(t.Ar, "{city}", city),
		Fr: strings.ReplaceAll(t.Fr, "{city}", city),
	}
}

// Intent is one named filter/sort profile.
type Intent struct {
	Slug        string `json:"slug"`
	Title       Text   `json:"title"`
	Description Text   `json:"description"`

	matches func(a *model.Agency) bool
}

var intents = []Intent{
	{
		Slug:        SlugBest,
		Title:       Text{Ar: "أفضل وكالات كراء السيارات في {city}", Fr: "Meilleures agences de location de voiture à {city}"},
		Description: Text{Ar: "وكالات بتقييم 4 نجوم وأكثر في {city}", Fr: "Les agences notées 4 étoiles et plus à {city}"},
		matches:     func(a *model.Agency) bool { return a.RatingValue() >= bestMinRating },
	},
	{
		Slug:        SlugAirport,
		Title:       Text{Ar: "كراء السيارات قرب مطار {city}", Fr: "Location de voiture près de l'aéroport de {city}"},
		Description: Text{Ar: "وكالات على بعد أقل من 5 كلم من مطار {city}", Fr: "Agences à moins de 5 km de l'aéroport de {city}"},
	},
	{
		Slug:        SlugCheap,
		Title:       Text{Ar: "كراء سيارات رخيص في {city}", Fr: "Location de voiture pas chère à {city}"},
		Description: Text{Ar: "أرخص وكالات كراء السيارات في {city}", Fr: "Les agences les plus économiques de {city}"},
		matches:     func(a *model.Agency) bool { return a.PriceLevel == model.PriceCheap },
	},
	{
		Slug:        SlugLuxury,
		Title:       Text{Ar: "كراء سيارات فاخرة في {city}", Fr: "Location de voiture de luxe à {city}"},
		Description: Text{Ar: "وكالات السيارات الفاخرة في {city}", Fr: "Les agences haut de gamme de {city}"},
		matches:     func(a *model.Agency) bool { return a.PriceLevel == model.PriceLuxury },
	},
	{
		Slug:        SlugNoDeposit,
		Title:       Text{Ar: "كراء السيارات بدون ضمان في {city}", Fr: "Location de voiture sans caution à {city}"},
		Description: Text{Ar: "وكالات لا تطلب ضمانا في {city}", Fr: "Agences sans dépôt de garantie à {city}"},
		matches:     func(a *model.Agency) bool { return a.NoDeposit },
	},
	{
		Slug:        SlugOpen24h,
		Title:       Text{Ar: "كراء السيارات 24 ساعة في {city}", Fr: "Location de voiture 24h/24 à {city}"},
		Description: Text{Ar: "وكالات مفتوحة على مدار الساعة في {city}", Fr: "Agences ouvertes 24h/24 à {city}"},
		matches:     isOpen24h,
	},
	{
		Slug:        SlugMostReviewed,
		Title:       Text{Ar: "الوكالات الأكثر تقييما في {city}", Fr: "Agences les plus commentées à {city}"},
		Description: Text{Ar: "وكالات بخمسين تقييما أو أكثر في {city}", Fr: "Agences avec 50 avis ou plus à {city}"},
		matches:     func(a *model.Agency) bool { return a.ReviewsCount >= mostReviewedMin },
	},
}

// All returns every supported intent in registry order.
func All() []Intent {
	out := make([]Intent, len(intents))
	copy(out, intents)
	return out
}

// Get returns the intent for a slug.
func Get(slug string) (Intent, bool) {
	for _, it := range intents {
		if it.Slug == slug {
			return it, true
		}
	}
	return Intent{}, false
}

// Filterer applies intents against a city registry (needed for airport lookups).
type Filterer struct {
	cities *geo.Registry
}

// NewFilterer creates a Filterer over a city registry.
func NewFilterer(cities *geo.Registry) *Filterer {
	return &Filterer{cities: cities}
}

// Filter returns the subset of agencies matching the named intent, re-sorted
// where the intent defines its own order (airport: ascending distance).
// Unknown intents and the airport intent for cities without a known airport
// return the input unchanged.
func (f *Filterer) Filter(agencies []model.Agency, intentSlug, citySlug string) []model.Agency {
	it, ok := Get(intentSlug)
	if !ok {
		zap.L().Warn("intent: unknown slug, returning unfiltered set",
			zap.String("intent", intentSlug))
		return agencies
	}

	if it.Slug == SlugAirport {
		return f.filterAirport(agencies, citySlug)
	}

	out := make([]model.Agency, 0, len(agencies))
	for i := range agencies {
		if it.matches(&agencies[i]) {
			out = append(out, agencies[i])
		}
	}
	return out
}

// filterAirport keeps agencies within airportRadius of the city's airport,
// ordered by ascending distance. Cities without a registry airport entry
// silently skip the filter.
func (f *Filterer) filterAirport(agencies []model.Agency, citySlug string) []model.Agency {
	airport, ok := f.cities.Airport(citySlug)
	if !ok {
		zap.L().Debug("intent: no airport known for city, skipping filter",
			zap.String("city", citySlug))
		return agencies
	}

	type withDistance struct {
		agency   model.Agency
		distance float64
	}
	matched := make([]withDistance, 0, len(agencies))
	for i := range agencies {
		d := geo.Distance(agencies[i].Coordinates, airport)
		if d <= airportRadius {
			matched = append(matched, withDistance{agency: agencies[i], distance: d})
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].distance < matched[j].distance
	})

	out := make([]model.Agency, len(matched))
	for i, m := range matched {
		out[i] = m.agency
	}
	return out
}

func isOpen24h(a *model.Agency) bool {
	for _, h := range a.OpeningHours {
		hours := strings.ToLower(h.Hours)
		for _, phrase := range open24Phrases {
			if strings.Contains(hours, phrase) {
				return true
			}
		}
	}
	return false
}
