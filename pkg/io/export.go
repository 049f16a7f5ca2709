package io

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/matzehuels/pointlabel/pkg/errors"
	"github.com/matzehuels/pointlabel/pkg/placement"
)

// Document is the JSON form of a placement result.
type Document struct {
	Config  placement.Config `json:"config"`
	Summary Summary          `json:"summary"`
	Labels  []LabelRecord    `json:"labels"`
	Dropped []PointRecord    `json:"dropped"`
}

// Summary counts inputs by outcome.
type Summary struct {
	Input   int `json:"input"`
	Placed  int `json:"placed"`
	Dropped int `json:"dropped"`
}

// LabelRecord is one placed label.
type LabelRecord struct {
	Input     int       `json:"input"`
	Label     string    `json:"label"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Box       BoxRecord `json:"box"`
	Candidate int       `json:"candidate"`
}

// BoxRecord is an axis-aligned box with named corners.
type BoxRecord struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// PointRecord is one input point that received no label.
type PointRecord struct {
	Input int     `json:"input"`
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// NewDocument converts a result and the config that produced it.
func NewDocument(res placement.Result, cfg placement.Config) Document {
	doc := Document{
		Config: cfg,
		Summary: Summary{
			Input:   len(res.Outcomes),
			Placed:  res.PlacedCount(),
			Dropped: res.DroppedCount(),
		},
		Labels:  make([]LabelRecord, len(res.Labels)),
		Dropped: make([]PointRecord, 0, res.DroppedCount()),
	}
	for i, l := range res.Labels {
		doc.Labels[i] = LabelRecord{
			Input:     l.Input,
			Label:     l.Label,
			X:         l.Point[0],
			Y:         l.Point[1],
			Box:       boxRecord(l.Box),
			Candidate: l.Candidate,
		}
	}
	for i, o := range res.Outcomes {
		if o.Placed() {
			continue
		}
		doc.Dropped = append(doc.Dropped, PointRecord{
			Input: i,
			Label: o.Spec.Label,
			X:     o.Spec.Point[0],
			Y:     o.Spec.Point[1],
		})
	}
	return doc
}

// PlacedLabels converts the document's labels back to placement values.
func (d Document) PlacedLabels() []placement.PlacedLabel {
	out := make([]placement.PlacedLabel, len(d.Labels))
	for i, l := range d.Labels {
		out[i] = placement.PlacedLabel{
			Point:     orb.Point{l.X, l.Y},
			Label:     l.Label,
			Box:       placement.NewBox(orb.Point{l.Box.MinX, l.Box.MinY}, orb.Point{l.Box.MaxX, l.Box.MaxY}),
			Input:     l.Input,
			Candidate: l.Candidate,
		}
	}
	return out
}

func boxRecord(b orb.Bound) BoxRecord {
	return BoxRecord{MinX: b.Min[0], MinY: b.Min[1], MaxX: b.Max[0], MaxY: b.Max[1]}
}

// =============================================================================
// JSON
// =============================================================================

// WriteResultJSON writes the result as an indented Document.
func WriteResultJSON(w io.Writer, res placement.Result, cfg placement.Config) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(res, cfg)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// UnmarshalResult decodes a Document written by WriteResultJSON.
func UnmarshalResult(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode result document")
	}
	return doc, nil
}

// ReadResultFile reads a Document from path.
func ReadResultFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Document{}, errors.New(errors.ErrCodeFileNotFound, "file not found: %s", path)
	}
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalResult(data)
}

// =============================================================================
// GeoJSON
// =============================================================================

// NewFeatureCollection builds the GeoJSON form of a result: a Polygon per
// placed box followed by a Point per dropped input.
func NewFeatureCollection(res placement.Result) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, l := range res.Labels {
		f := geojson.NewFeature(l.Box.ToPolygon())
		f.Properties["label"] = l.Label
		f.Properties["x"] = l.Point[0]
		f.Properties["y"] = l.Point[1]
		f.Properties["input"] = l.Input
		f.Properties["candidate"] = l.Candidate
		fc.Append(f)
	}
	for i, o := range res.Outcomes {
		if o.Placed() {
			continue
		}
		f := geojson.NewFeature(o.Spec.Point)
		f.Properties["label"] = o.Spec.Label
		f.Properties["input"] = i
		f.Properties["dropped"] = true
		fc.Append(f)
	}
	return fc
}

// WriteGeoJSON writes the result as a GeoJSON FeatureCollection.
func WriteGeoJSON(w io.Writer, res placement.Result) error {
	data, err := NewFeatureCollection(res).MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode geojson: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// =============================================================================
// CSV
// =============================================================================

// CSVHeader is the header row written by WriteCSV.
var CSVHeader = []string{"label", "x", "y", "min_x", "min_y", "max_x", "max_y"}

// WriteCSV writes one row per placed label.
func WriteCSV(w io.Writer, res placement.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	for _, l := range res.Labels {
		row := []string{
			l.Label,
			formatFloat(l.Point[0]),
			formatFloat(l.Point[1]),
			formatFloat(l.Box.Min[0]),
			formatFloat(l.Box.Min[1]),
			formatFloat(l.Box.Max[0]),
			formatFloat(l.Box.Max[1]),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Write encodes the result in the given format.
func Write(w io.Writer, format Format, res placement.Result, cfg placement.Config) error {
	switch format {
	case FormatJSON:
		return WriteResultJSON(w, res, cfg)
	case FormatGeoJSON:
		return WriteGeoJSON(w, res)
	case FormatCSV:
		return WriteCSV(w, res)
	}
	return errors.New(errors.ErrCodeInvalidFormat, "unsupported output format %q", format)
}
