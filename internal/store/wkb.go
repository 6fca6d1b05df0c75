package store

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/krili-app/agency-cli/internal/model"
)

// encodePoint converts agency coordinates to EWKB bytes with SRID 4326 so the
// per-agency rows are directly consumable by spatial tooling. Returns nil,
// nil for the (0,0) placeholder.
func encodePoint(c model.Coordinates) ([]byte, error) {
	if c.IsZero() {
		return nil, nil
	}

	g := geom.NewPointFlat(geom.XY, []float64{c.Lng, c.Lat}).SetSRID(4326)
	data, err := ewkb.Marshal(g, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "store: encode point")
	}
	return data, nil
}
