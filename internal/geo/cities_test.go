package geo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryDefaults(t *testing.T) {
	r := NewRegistry()

	city, ok := r.City("marrakech")
	require.True(t, ok)
	assert.Equal(t, "Marrakech", city.Name)

	airport, ok := r.Airport("marrakech")
	require.True(t, ok)
	assert.InDelta(t, 31.6069, airport.Lat, 0.0001)
	assert.InDelta(t, -8.0363, airport.Lng, 0.0001)

	assert.Len(t, r.Slugs(), 6)
}

func TestAirportUnknownCity(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Airport("essaouira")
	assert.False(t, ok)
}

func TestLoadRegistry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cities.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cities:
  - slug: essaouira
    name: Essaouira
    airport:
      lat: 31.3975
      lng: -9.6817
  - slug: marrakech
    name: Marrakesh
`), 0o644))

	r, err := LoadRegistry(path)
	require.NoError(t, err)

	// New city added with its airport.
	airport, ok := r.Airport("essaouira")
	require.True(t, ok)
	assert.InDelta(t, 31.3975, airport.Lat, 0.0001)

	// Existing city overridden; the override carries no airport.
	city, ok := r.City("marrakech")
	require.True(t, ok)
	assert.Equal(t, "Marrakesh", city.Name)
	_, ok = r.Airport("marrakech")
	assert.False(t, ok)

	// Untouched defaults survive.
	_, ok = r.City("casablanca")
	assert.True(t, ok)
}

func TestLoadRegistryMissingFile(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
