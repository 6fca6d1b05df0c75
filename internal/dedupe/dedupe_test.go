package dedupe

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krili-app/agency-cli/internal/model"
	"github.com/krili-app/agency-cli/internal/rank"
)

func ratingPtr(v float64) *float64 { return &v }
func strPtr(s string) *string      { return &s }

func TestMergeByIDEnrichesSurvivor(t *testing.T) {
	phone := strPtr("+212 5 24 43 00 00")
	website := strPtr("https://atlas.ma")

	agencies := []model.Agency{
		{
			ID: "ABC123XYZ", Slug: "atlas-car-rental-123xyz", Name: "Atlas Car Rental",
			Rating: ratingPtr(4.6), ReviewsCount: 80,
			Photos: []string{"https://img.example.com/a.jpg"},
			Phone:  phone, HasPhone: true,
		},
		{
			ID: "ABC123XYZ", Slug: "atlas-car-rental-1", Name: "Atlas Car Rental",
			Rating: ratingPtr(4.2), ReviewsCount: 12,
			Photos: []string{
				"https://img.example.com/b.jpg",
				"https://img.example.com/c.jpg",
				"https://img.example.com/d.jpg",
			},
			Website: website,
		},
		{
			ID: "OTHER", Slug: "sahara-rent-other", Name: "Sahara Rent",
			Rating: ratingPtr(4.0), ReviewsCount: 5,
		},
	}

	stats := rank.ComputeCityStats(agencies)
	out := MergeByID(agencies, stats, rank.FixedJitter(0))
	require.Len(t, out, 2)

	var survivor *model.Agency
	for i := range out {
		if out[i].ID == "ABC123XYZ" {
			survivor = &out[i]
		}
	}
	require.NotNil(t, survivor)

	// The higher display-scored variant wins and keeps its slug.
	assert.Equal(t, "atlas-car-rental-123xyz", survivor.Slug)
	// The repeat donates its strictly larger photo set.
	assert.Len(t, survivor.Photos, 3)
	// The repeat fills the missing website; the survivor's phone stays.
	require.NotNil(t, survivor.Website)
	assert.True(t, survivor.HasWebsite)
	assert.Same(t, phone, survivor.Phone)
	// Enrichment rescored the survivor.
	assert.NotZero(t, survivor.Score)
}

func TestMergeByIDFewerPhotosIgnored(t *testing.T) {
	agencies := []model.Agency{
		{
			ID: "X", Name: "Atlas Car Rental", Rating: ratingPtr(4.5), ReviewsCount: 50,
			Photos: []string{"a", "b", "c"},
		},
		{
			ID: "X", Name: "Atlas Car Rental", Rating: ratingPtr(3.0), ReviewsCount: 2,
			Photos: []string{"d"},
		},
	}

	out := MergeByID(agencies, rank.CityStats{}, rank.FixedJitter(0))
	require.Len(t, out, 1)
	assert.Equal(t, []string{"a", "b", "c"}, out[0].Photos)
}

func TestMergeByIDDistinctIDsUntouched(t *testing.T) {
	agencies := []model.Agency{
		{ID: "A", Name: "Atlas", Rating: ratingPtr(4.0), ReviewsCount: 10},
		{ID: "B", Name: "Sahara", Rating: ratingPtr(4.5), ReviewsCount: 30},
		{ID: "C", Name: "Medina", Rating: ratingPtr(3.5), ReviewsCount: 2},
	}

	out := MergeByID(agencies, rank.CityStats{}, rank.FixedJitter(0))
	require.Len(t, out, 3)

	// Result sorted by dataset score descending.
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].Score, out[i].Score)
	}
}

func TestCollapseByProximitySameNameNearby(t *testing.T) {
	agencies := []model.Agency{
		{
			ID: "A1", Slug: "atlas-car-rental-a1", Name: "Atlas Car Rental",
			Coordinates: model.Coordinates{Lat: 31.62950, Lng: -7.98110},
			Score:       9.5,
		},
		{
			// Same name roughly 100 meters north, outside the tight radius.
			ID: "A2", Slug: "atlas-car-rental-a2", Name: "atlas car rental",
			Coordinates: model.Coordinates{Lat: 31.63040, Lng: -7.98110},
			Score:       7.1,
		},
	}

	out := CollapseByProximity(agencies)
	require.Len(t, out, 1)
	assert.Equal(t, "atlas-car-rental-a1", out[0].Slug)
}

func TestCollapseByProximityTightRadiusIgnoresName(t *testing.T) {
	agencies := []model.Agency{
		{
			ID: "A", Slug: "atlas-a", Name: "Atlas Car Rental",
			Coordinates: model.Coordinates{Lat: 31.62950, Lng: -7.98110},
			Score:       9.5,
		},
		{
			// Different name, ~10 meters away.
			ID: "B", Slug: "gueliz-b", Name: "Gueliz Cars",
			Coordinates: model.Coordinates{Lat: 31.62959, Lng: -7.98110},
			Score:       8.0,
		},
	}

	out := CollapseByProximity(agencies)
	require.Len(t, out, 1)
	assert.Equal(t, "atlas-a", out[0].Slug)
}

func TestCollapseByProximitySameNameFarApart(t *testing.T) {
	agencies := []model.Agency{
		{
			ID: "A", Slug: "atlas-a", Name: "Atlas Car Rental",
			Coordinates: model.Coordinates{Lat: 31.6295, Lng: -7.9811},
			Score:       9.5,
		},
		{
			// Same chain name, ~5 km away near the airport.
			ID: "B", Slug: "atlas-b", Name: "Atlas Car Rental",
			Coordinates: model.Coordinates{Lat: 31.6069, Lng: -8.0363},
			Score:       8.0,
		},
	}

	out := CollapseByProximity(agencies)
	assert.Len(t, out, 2)
}

func TestCollapseByProximitySameNameFifteenMeters(t *testing.T) {
	agencies := []model.Agency{
		{
			ID: "A", Slug: "atlas-a", Name: "Atlas Car Rental",
			Coordinates: model.Coordinates{Lat: 31.629500, Lng: -7.981100},
			Score:       6.0,
		},
		{
			// Same name, ~15 meters north, distinct id.
			ID: "B", Slug: "atlas-b", Name: "Atlas Car Rental",
			Coordinates: model.Coordinates{Lat: 31.629635, Lng: -7.981100},
			Score:       9.0,
		},
	}

	out := CollapseByProximity(agencies)
	require.Len(t, out, 1)
	// The higher-scored record survives.
	assert.Equal(t, "atlas-b", out[0].Slug)
}

func TestDedupeMonotonic(t *testing.T) {
	var agencies []model.Agency
	for i := 0; i < 40; i++ {
		agencies = append(agencies, model.Agency{
			ID:   fmt.Sprintf("id-%d", i%25), // forces repeats
			Name: fmt.Sprintf("Agency %d", i),
			Coordinates: model.Coordinates{
				Lat: 31.6 + float64(i)*0.01,
				Lng: -8.0,
			},
			Rating: ratingPtr(3.0 + float64(i%20)*0.1), ReviewsCount: i,
		})
	}

	merged := MergeByID(agencies, rank.ComputeCityStats(agencies), rank.FixedJitter(0))
	assert.LessOrEqual(t, len(merged), len(agencies))
	assert.Len(t, merged, 25)

	collapsed := CollapseByProximity(merged)
	assert.LessOrEqual(t, len(collapsed), len(merged))
}

func TestCollapseByProximityNoBorrowing(t *testing.T) {
	agencies := []model.Agency{
		{
			ID: "A", Slug: "atlas-a", Name: "Atlas Car Rental",
			Coordinates: model.Coordinates{Lat: 31.6295, Lng: -7.9811},
			Score:       9.5,
		},
		{
			ID: "B", Slug: "atlas-b", Name: "Atlas Car Rental",
			Coordinates: model.Coordinates{Lat: 31.6295, Lng: -7.9811},
			Score:       8.0,
			Phone:       strPtr("+212 6 00 00 00 00"), HasPhone: true,
			Photos: []string{"a", "b"},
		},
	}

	out := CollapseByProximity(agencies)
	require.Len(t, out, 1)
	// The discarded record's phone and photos are not borrowed.
	assert.Nil(t, out[0].Phone)
	assert.Empty(t, out[0].Photos)
}
