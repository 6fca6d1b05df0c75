// Package model defines the canonical agency record and the tolerant
// decoding types for raw scraped datasets.
package model

// PriceLevel buckets an agency into a coarse pricing tier.
type PriceLevel string

// Price tiers.
const (
	PriceCheap    PriceLevel = "cheap"
	PriceStandard PriceLevel = "standard"
	PriceLuxury   PriceLevel = "luxury"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IsZero reports whether the point is the (0,0) placeholder. Records scraped
// without a location carry this value; distances computed from it are
// meaningless but still computed (see dedupe).
func (c Coordinates) IsZero() bool {
	return c.Lat == 0 && c.Lng == 0
}

// OpeningHours is one day entry of an agency's schedule.
type OpeningHours struct {
	Day   string `json:"day"`
	Hours string `json:"hours"`
}

// Review is a normalized review excerpt.
type Review struct {
	Name            string  `json:"name"`
	PhotoURL        string  `json:"photoUrl,omitempty"`
	Stars           float64 `json:"stars"`
	Text            string  `json:"text,omitempty"`
	TextTranslated  string  `json:"textTranslated,omitempty"`
	PublishedAt     string  `json:"publishedAt,omitempty"`
	PublishedAtText string  `json:"publishedAtText,omitempty"`
	OwnerResponse   string  `json:"ownerResponse,omitempty"`
}

// Agency is the canonical rental-business record produced by the pipeline.
// Values are created fresh on every normalization pass; only the merge step
// and score recomputation mutate them in place.
type Agency struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`

	City        string      `json:"city"`
	CitySlug    string      `json:"citySlug"`
	Address     string      `json:"address"`
	Coordinates Coordinates `json:"coordinates"`

	Phone   *string `json:"phone"`
	Website *string `json:"website"`

	Rating       *float64 `json:"rating"`
	ReviewsCount int      `json:"reviewsCount"`

	Photos     []string `json:"photos"`
	Categories []string `json:"categories"`

	IsMixedService bool `json:"isMixedService"`

	OpeningHours []OpeningHours `json:"openingHours"`
	Reviews      []Review       `json:"reviews"`

	Score      float64 `json:"score"`
	HasPhone   bool    `json:"hasPhone"`
	HasWebsite bool    `json:"hasWebsite"`

	NoDeposit  bool       `json:"noDeposit"`
	PriceLevel PriceLevel `json:"priceLevel"`
}

// RatingValue returns the rating or 0 when absent.
func (a *Agency) RatingValue() float64 {
	if a.Rating == nil {
		return 0
	}
	return *a.Rating
}
