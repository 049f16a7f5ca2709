package io

import (
	"github.com/paulmach/orb"
	"github.com/wroge/wgs84/v2"

	"github.com/matzehuels/pointlabel/pkg/errors"
	"github.com/matzehuels/pointlabel/pkg/placement"
)

// EPSGWGS84 is the geographic reference system input coordinates are
// assumed to use before projection.
const EPSGWGS84 = 4326

// Project returns a copy of specs with every point transformed from WGS84
// longitude/latitude into the planar system identified by epsg.
// Points the projection cannot represent are INVALID_INPUT errors.
func Project(specs []placement.LabelSpec, epsg int) ([]placement.LabelSpec, error) {
	if epsg <= 0 || epsg == EPSGWGS84 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "projection needs a planar EPSG code, got %d", epsg)
	}
	transform := wgs84.Transform(wgs84.EPSG(EPSGWGS84), wgs84.EPSG(epsg))

	out := make([]placement.LabelSpec, len(specs))
	for i, s := range specs {
		lon, lat := s.Point.X(), s.Point.Y()
		if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "point %d: (%g, %g) is not a longitude/latitude pair", i, lon, lat)
		}
		x, y, _ := transform(lon, lat, 0)
		if err := errors.ValidateCoordinate(x, y); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "point %d: EPSG:%d cannot represent (%g, %g)", i, epsg, lon, lat)
		}
		out[i] = placement.LabelSpec{Point: orb.Point{x, y}, Label: s.Label}
	}
	return out, nil
}
