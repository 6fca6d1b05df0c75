package geo

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/krili-app/agency-cli/internal/model"
)

// City is one supported market: a display name, its URL key, and the airport
// coordinate used by the airport intent. Airport may be nil for cities
// without a usable airport; the airport intent silently skips those.
type City struct {
	Slug    string             `yaml:"slug"`
	Name    string             `yaml:"name"`
	NameAr  string             `yaml:"name_ar"`
	Airport *model.Coordinates `yaml:"airport"`
}

// defaultCities is the built-in registry. A YAML cities file extends or
// overrides entries by slug.
var defaultCities = []City{
	{Slug: "marrakech", Name: "Marrakech", NameAr: "مراكش", Airport: &model.Coordinates{Lat: 31.6069, Lng: -8.0363}},
	{Slug: "casablanca", Name: "Casablanca", NameAr: "الدار البيضاء", Airport: &model.Coordinates{Lat: 33.3675, Lng: -7.5898}},
	{Slug: "agadir", Name: "Agadir", NameAr: "أكادير", Airport: &model.Coordinates{Lat: 30.3250, Lng: -9.4131}},
	{Slug: "tangier", Name: "Tangier", NameAr: "طنجة", Airport: &model.Coordinates{Lat: 35.7269, Lng: -5.9168}},
	{Slug: "fes", Name: "Fes", NameAr: "فاس", Airport: &model.Coordinates{Lat: 33.9273, Lng: -4.9780}},
	{Slug: "rabat", Name: "Rabat", NameAr: "الرباط", Airport: &model.Coordinates{Lat: 34.0515, Lng: -6.7516}},
}

// Registry resolves city slugs to City entries.
type Registry struct {
	cities map[string]City
}

// NewRegistry returns a registry seeded with the built-in cities.
func NewRegistry() *Registry {
	r := &Registry{cities: make(map[string]City, len(defaultCities))}
	for _, c := range defaultCities {
		r.cities[c.Slug] = c
	}
	return r
}

// LoadRegistry reads a YAML cities file and merges it over the defaults.
// The file holds a top-level "cities" list.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: read cities file %s", path)
	}

	var wrapper struct {
		Cities []City `yaml:"cities"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "geo: parse cities file")
	}

	r := NewRegistry()
	for _, c := range wrapper.Cities {
		if c.Slug == "" {
			continue
		}
		r.cities[c.Slug] = c
	}
	return r, nil
}

// City returns the entry for a slug.
func (r *Registry) City(slug string) (City, bool) {
	c, ok := r.cities[slug]
	return c, ok
}

// Airport returns the airport coordinate for a city slug, if one is known.
func (r *Registry) Airport(slug string) (model.Coordinates, bool) {
	c, ok := r.cities[slug]
	if !ok || c.Airport == nil {
		return model.Coordinates{}, false
	}
	return *c.Airport, true
}

// Slugs lists the registered city slugs.
func (r *Registry) Slugs() []string {
	out := make([]string, 0, len(r.cities))
	for s := range r.cities {
		out = append(out, s)
	}
	return out
}
