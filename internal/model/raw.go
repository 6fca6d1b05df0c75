package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// RawRecord is one loosely-typed scraped business listing. Every accepted
// legacy field alias is enumerated here and collapsed during UnmarshalJSON;
// downstream code only ever sees the canonical accessors. Nothing in a raw
// record is trusted: absent and wrong-typed fields decode to zero values.
type RawRecord struct {
	Name       string
	ExternalID string
	Phone      string
	Website    string
	Address    string
	City       string
	Category   string
	Categories []string
	Photos     []string
	Rating     float64
	Location   Coordinates
	Hours      []RawHours
	Reviews    []RawReview
}

// RawHours is one raw opening-hours entry.
type RawHours struct {
	Day   string `json:"day"`
	Hours string `json:"hours"`
}

// RawReview is one raw review entry.
type RawReview struct {
	Name            string
	PhotoURL        string
	Stars           float64
	Text            string
	TextTranslated  string
	PublishedAt     string
	PublishedAtText string
	OwnerResponse   string
}

// rawRecordAliases enumerates the legacy field-name variants seen across
// scrape sources. One canonical field per group, first non-empty wins.
type rawRecordAliases struct {
	Name  flexString `json:"name"`
	Title flexString `json:"title"`

	PlaceID    flexString `json:"placeId"`
	PlaceIDAlt flexString `json:"place_id"`
	ID         flexString `json:"id"`

	Phone        flexString         `json:"phone"`
	PhoneAlt     flexString         `json:"phoneNumber"`
	Website      flexString         `json:"website"`
	URL          flexString         `json:"url"`
	Address      flexString         `json:"address"`
	Street       flexString         `json:"street"`
	City         flexString         `json:"city"`
	CategoryName flexString         `json:"categoryName"`
	Category     flexString         `json:"category"`
	Categories   flexList           `json:"categories"`
	ImageURL     flexString         `json:"imageUrl"`
	ImageURLs    flexList           `json:"imageUrls"`
	Images       flexList           `json:"images"`
	TotalScore   flexFloat          `json:"totalScore"`
	Rating       flexFloat          `json:"rating"`
	Location     *rawPoint          `json:"location"`
	Latitude     flexFloat          `json:"latitude"`
	Longitude    flexFloat          `json:"longitude"`
	OpeningHours []RawHours         `json:"openingHours"`
	Reviews      []rawReviewAliases `json:"reviews"`
}

type rawPoint struct {
	Lat flexFloat `json:"lat"`
	Lng flexFloat `json:"lng"`
}

type rawReviewAliases struct {
	Name            flexString `json:"name"`
	ReviewerName    flexString `json:"reviewerName"`
	PhotoURL        flexString `json:"profilePhotoUrl"`
	ReviewerPhoto   flexString `json:"reviewerPhotoUrl"`
	Stars           flexFloat  `json:"stars"`
	Rating          flexFloat  `json:"rating"`
	Text            flexString `json:"text"`
	TextTranslated  flexString `json:"textTranslated"`
	PublishedAt     flexString `json:"publishedAtDate"`
	PublishedAtText flexString `json:"publishAt"`
	OwnerResponse   flexString `json:"responseFromOwnerText"`
}

// UnmarshalJSON decodes a raw listing, collapsing aliases. It never returns
// an error for wrong-typed fields; only malformed JSON fails.
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	var a rawRecordAliases
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	r.Name = coalesce(a.Name, a.Title)
	r.ExternalID = coalesce(a.PlaceID, a.PlaceIDAlt, a.ID)
	r.Phone = coalesce(a.Phone, a.PhoneAlt)
	r.Website = coalesce(a.Website, a.URL)
	r.Address = coalesce(a.Address, a.Street)
	r.City = string(a.City)
	r.Category = coalesce(a.CategoryName, a.Category)
	r.Categories = a.Categories
	r.Rating = coalesceFloat(a.Rating, a.TotalScore)

	// Single-image and array-of-image aliases feed one photo list; dedup and
	// URL validation happen in the normalizer.
	if s := string(a.ImageURL); s != "" {
		r.Photos = append(r.Photos, s)
	}
	r.Photos = append(r.Photos, a.ImageURLs...)
	r.Photos = append(r.Photos, a.Images...)

	if a.Location != nil {
		r.Location = Coordinates{Lat: float64(a.Location.Lat), Lng: float64(a.Location.Lng)}
	} else {
		r.Location = Coordinates{Lat: float64(a.Latitude), Lng: float64(a.Longitude)}
	}

	r.Hours = a.OpeningHours

	r.Reviews = r.Reviews[:0]
	for _, rv := range a.Reviews {
		r.Reviews = append(r.Reviews, RawReview{
			Name:            coalesce(rv.Name, rv.ReviewerName),
			PhotoURL:        coalesce(rv.PhotoURL, rv.ReviewerPhoto),
			Stars:           coalesceFloat(rv.Stars, rv.Rating),
			Text:            string(rv.Text),
			TextTranslated:  string(rv.TextTranslated),
			PublishedAt:     string(rv.PublishedAt),
			PublishedAtText: string(rv.PublishedAtText),
			OwnerResponse:   string(rv.OwnerResponse),
		})
	}

	return nil
}

func coalesce(vals ...flexString) string {
	for _, v := range vals {
		if s := strings.TrimSpace(string(v)); s != "" {
			return s
		}
	}
	return ""
}

func coalesceFloat(vals ...flexFloat) float64 {
	for _, v := range vals {
		if v != 0 {
			return float64(v)
		}
	}
	return 0
}

// flexString decodes a JSON string or number into a string. Any other type
// decodes to "".
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(strconv.FormatFloat(n, 'f', -1, 64))
		return nil
	}
	*f = ""
	return nil
}

// flexFloat decodes a JSON number or numeric string into a float64.
// Any other type decodes to 0.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*f = flexFloat(n)
			return nil
		}
	}
	*f = 0
	return nil
}

// flexList decodes a JSON array into its string elements, skipping entries
// of any other type. A bare string decodes as a one-element list.
type flexList []string

func (f *flexList) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err == nil {
		out := make([]string, 0, len(items))
		for _, item := range items {
			var s string
			if err := json.Unmarshal(item, &s); err == nil && s != "" {
				out = append(out, s)
			}
		}
		*f = out
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil && s != "" {
		*f = []string{s}
		return nil
	}
	*f = nil
	return nil
}
