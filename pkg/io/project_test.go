package io

import (
	"math"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/tdewolff/test"

	"github.com/matzehuels/pointlabel/pkg/errors"
	"github.com/matzehuels/pointlabel/pkg/placement"
)

// utm33N has its central meridian at 15°E with a 500 km false easting.
const utm33N = 32633

func near(a, b float64) bool { return math.Abs(a-b) < 1e-3 }

func TestProjectUTM(t *testing.T) {
	specs := []placement.LabelSpec{
		{Point: orb.Point{15, 0}, Label: "origin"},
		{Point: orb.Point{16, 1}, Label: "north-east"},
	}
	got, err := Project(specs, utm33N)
	test.Error(t, err)
	test.T(t, len(got), 2)

	test.That(t, near(got[0].Point.X(), 500000), "easting at the central meridian", got[0].Point)
	test.That(t, near(got[0].Point.Y(), 0), "northing at the equator", got[0].Point)
	test.That(t, got[1].Point.X() > 500000 && got[1].Point.Y() > 0, "north-east of the origin", got[1].Point)
	test.String(t, got[1].Label, "north-east")

	// Input is not modified.
	test.T(t, specs[0].Point, orb.Point{15, 0})
}

func TestProjectErrors(t *testing.T) {
	tests := []struct {
		name  string
		specs []placement.LabelSpec
		epsg  int
		code  errors.Code
	}{
		{"geographic target", nil, EPSGWGS84, errors.ErrCodeInvalidConfig},
		{"negative code", nil, -1, errors.ErrCodeInvalidConfig},
		{"latitude out of range", []placement.LabelSpec{{Point: orb.Point{0, 95}}}, utm33N, errors.ErrCodeInvalidInput},
		{"longitude out of range", []placement.LabelSpec{{Point: orb.Point{200, 0}}}, utm33N, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Project(tt.specs, tt.epsg)
			test.That(t, err != nil, "expected an error")
			test.T(t, errors.GetCode(err), tt.code)
		})
	}
}

func TestReadSpecsProjected(t *testing.T) {
	in := `[{"x": 15, "y": 0, "label": "A"}]`
	specs, err := ReadSpecs(strings.NewReader(in), FormatJSON, ReadOptions{Project: utm33N})
	test.Error(t, err)
	test.T(t, len(specs), 1)
	test.That(t, near(specs[0].Point.X(), 500000), "projected easting", specs[0].Point)
}
