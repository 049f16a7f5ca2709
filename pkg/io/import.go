package io

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/matzehuels/pointlabel/pkg/errors"
	"github.com/matzehuels/pointlabel/pkg/placement"
)

// DefaultLabelProperty is the GeoJSON property read for label text.
const DefaultLabelProperty = "label"

// fallbackLabelProperty is consulted when the configured property is absent.
const fallbackLabelProperty = "name"

// ReadOptions tunes ReadSpecs.
type ReadOptions struct {
	// LabelProperty names the GeoJSON property holding label text.
	// Empty means DefaultLabelProperty.
	LabelProperty string

	// Project, when non-zero, is the EPSG code of a planar reference system.
	// Coordinates are then read as WGS84 longitude/latitude and projected
	// into it, so label sizes are in that system's units (usually metres).
	Project int
}

func (o ReadOptions) labelProperty() string {
	if o.LabelProperty == "" {
		return DefaultLabelProperty
	}
	return o.LabelProperty
}

// pointRecord is the JSON shape of one input point.
type pointRecord struct {
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
	Label string   `json:"label"`
}

// ReadSpecs decodes label specs from r in the given format.
//
// Specs are returned in input order, which is also the placement priority.
// ReadSpecs returns an INVALID_INPUT error naming the offending record when
// a point lacks a coordinate, and the validator's error for bad labels.
// It does not close r.
func ReadSpecs(r io.Reader, format Format, opts ReadOptions) ([]placement.LabelSpec, error) {
	var (
		specs []placement.LabelSpec
		err   error
	)
	switch format {
	case FormatJSON:
		specs, err = readJSON(r)
	case FormatGeoJSON:
		specs, err = readGeoJSON(r, opts.labelProperty())
	case FormatCSV:
		specs, err = readCSV(r)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported input format %q", format)
	}
	if err != nil || opts.Project == 0 {
		return specs, err
	}
	return Project(specs, opts.Project)
}

// ReadSpecsFile reads specs from path, inferring the format from its
// extension.
func ReadSpecsFile(path string, opts ReadOptions) ([]placement.LabelSpec, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "file not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	specs, err := ReadSpecs(f, format, opts)
	if err != nil {
		code := errors.GetCode(err)
		if code == "" {
			code = errors.ErrCodeInvalidInput
		}
		return nil, errors.Wrap(code, err, "%s: %s", path, errors.UserMessage(err))
	}
	return specs, nil
}

func readJSON(r io.Reader) ([]placement.LabelSpec, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var records []pointRecord
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var doc struct {
			Points []pointRecord `json:"points"`
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode points")
		}
		records = doc.Points
	} else if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode points")
	}

	specs := make([]placement.LabelSpec, 0, len(records))
	for i, rec := range records {
		if rec.X == nil || rec.Y == nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "point %d: missing x or y", i)
		}
		spec, err := newSpec(i, *rec.X, *rec.Y, rec.Label)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func readGeoJSON(r io.Reader, labelProp string) ([]placement.LabelSpec, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode feature collection")
	}

	var specs []placement.LabelSpec
	for i, f := range fc.Features {
		label := featureLabel(f, labelProp)
		switch g := f.Geometry.(type) {
		case orb.Point:
			spec, err := newSpec(i, g[0], g[1], label)
			if err != nil {
				return nil, err
			}
			specs = append(specs, spec)
		case orb.MultiPoint:
			for _, p := range g {
				spec, err := newSpec(i, p[0], p[1], label)
				if err != nil {
					return nil, err
				}
				specs = append(specs, spec)
			}
		default:
			return nil, errors.New(errors.ErrCodeInvalidInput, "feature %d: unsupported geometry %s (want Point or MultiPoint)", i, geometryType(f.Geometry))
		}
	}
	return specs, nil
}

func featureLabel(f *geojson.Feature, prop string) string {
	for _, key := range []string{prop, fallbackLabelProperty} {
		v, ok := f.Properties[key]
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return ""
}

func geometryType(g orb.Geometry) string {
	if g == nil {
		return "null"
	}
	return g.GeoJSONType()
}

func readCSV(r io.Reader) ([]placement.LabelSpec, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read csv header")
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	xi, okX := cols["x"]
	yi, okY := cols["y"]
	li, okL := cols["label"]
	if !okX || !okY {
		return nil, errors.New(errors.ErrCodeInvalidInput, "csv header must name x and y columns, got %v", header)
	}

	var specs []placement.LabelSpec
	for row := 0; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read csv row %d", row+1)
		}
		if xi >= len(rec) || yi >= len(rec) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "csv row %d: missing x or y", row+1)
		}
		x, errX := strconv.ParseFloat(strings.TrimSpace(rec[xi]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(rec[yi]), 64)
		if errX != nil || errY != nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "csv row %d: invalid coordinate (%q, %q)", row+1, rec[xi], rec[yi])
		}
		var label string
		if okL && li < len(rec) {
			label = rec[li]
		}
		spec, err := newSpec(row, x, y, label)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func newSpec(i int, x, y float64, label string) (placement.LabelSpec, error) {
	if err := errors.ValidateCoordinate(x, y); err != nil {
		return placement.LabelSpec{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "point %d: %s", i, errors.UserMessage(err))
	}
	if err := errors.ValidateLabel(label); err != nil {
		return placement.LabelSpec{}, errors.Wrap(errors.ErrCodeInvalidLabel, err, "point %d: %s", i, errors.UserMessage(err))
	}
	return placement.LabelSpec{Point: orb.Point{x, y}, Label: label}, nil
}
