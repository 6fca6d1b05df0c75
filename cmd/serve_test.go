package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krili-app/agency-cli/internal/catalog"
	"github.com/krili-app/agency-cli/internal/geo"
	"github.com/krili-app/agency-cli/internal/model"
	"github.com/krili-app/agency-cli/internal/rank"
)

type fakeLoader struct {
	datasets map[string][]model.RawRecord
}

func (f *fakeLoader) LoadCity(ctx context.Context, citySlug string) ([]model.RawRecord, error) {
	records, ok := f.datasets[citySlug]
	if !ok {
		return nil, eris.Wrapf(catalog.ErrDatasetNotFound, "city %s", citySlug)
	}
	return records, nil
}

func newTestEnv() *appEnv {
	cities := geo.NewRegistry()
	loader := &fakeLoader{datasets: map[string][]model.RawRecord{
		"marrakech": {
			{
				Name:       "Atlas Car Rental",
				ExternalID: "ABC123XYZ",
				Rating:     4.6,
				Phone:      "+212 5 24 43 00 00",
				Location:   model.Coordinates{Lat: 31.6295, Lng: -7.9811},
				Reviews:    []model.RawReview{{Stars: 5, Text: "great"}},
			},
			{
				Name:       "Sahara Rent",
				ExternalID: "DEF456UVW",
				Rating:     3.2,
				Location:   model.Coordinates{Lat: 31.6400, Lng: -7.9900},
			},
		},
	}}
	cat := catalog.New(loader, cities, catalog.WithJitter(rank.FixedJitter(0)))
	return &appEnv{Cities: cities, Catalog: cat}
}

func doRequest(t *testing.T, handler http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestServeHealth(t *testing.T) {
	rec := doRequest(t, newRouter(newTestEnv()), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestServeIntents(t *testing.T) {
	rec := doRequest(t, newRouter(newTestEnv()), http.MethodGet, "/intents")
	require.Equal(t, http.StatusOK, rec.Code)

	var intents []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &intents))
	assert.Len(t, intents, 7)
}

func TestServeCityAgencies(t *testing.T) {
	rec := doRequest(t, newRouter(newTestEnv()), http.MethodGet, "/cities/marrakech/agencies")
	require.Equal(t, http.StatusOK, rec.Code)

	var agencies []model.Agency
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &agencies))
	require.Len(t, agencies, 2)
	assert.Equal(t, "atlas-car-rental-123xyz", agencies[0].Slug)
}

func TestServeCityAgenciesUnknownCity(t *testing.T) {
	rec := doRequest(t, newRouter(newTestEnv()), http.MethodGet, "/cities/agadir/agencies")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeAgencyBySlug(t *testing.T) {
	router := newRouter(newTestEnv())

	rec := doRequest(t, router, http.MethodGet, "/cities/marrakech/agencies/atlas-car-rental-123xyz")
	require.Equal(t, http.StatusOK, rec.Code)

	var agency model.Agency
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &agency))
	assert.Equal(t, "ABC123XYZ", agency.ID)

	rec = doRequest(t, router, http.MethodGet, "/cities/marrakech/agencies/no-such-slug-zzzzzz")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeIntentPage(t *testing.T) {
	rec := doRequest(t, newRouter(newTestEnv()), http.MethodGet, "/cities/marrakech/intents/best")
	require.Equal(t, http.StatusOK, rec.Code)

	var page intentPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, "best", page.Intent)
	assert.Contains(t, page.Title.Fr, "Marrakech")
	// Only the 4.6-rated agency passes the best filter.
	require.Len(t, page.Agencies, 1)
	assert.Equal(t, "ABC123XYZ", page.Agencies[0].ID)
}

func TestServeIntentPageUnknownIntent(t *testing.T) {
	rec := doRequest(t, newRouter(newTestEnv()), http.MethodGet, "/cities/marrakech/intents/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeInvalidate(t *testing.T) {
	env := newTestEnv()
	router := newRouter(env)

	rec := doRequest(t, router, http.MethodGet, "/cities/marrakech/agencies")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/cities/marrakech/invalidate")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/cities/marrakech/agencies")
	assert.Equal(t, http.StatusOK, rec.Code)
}
