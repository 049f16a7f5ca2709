// Package io reads point features and writes placement results.
//
// # Input Formats
//
// [ReadSpecs] accepts three formats, selected explicitly or inferred from
// the file extension by [ReadSpecsFile]:
//
//	json     [{"x": 1, "y": 2, "label": "A"}, ...]  or  {"points": [...]}
//	geojson  FeatureCollection of Point (or MultiPoint) features
//	csv      header row naming x, y and label columns, in any order
//
// GeoJSON labels come from a configurable feature property ("label" by
// default) and fall back to "name" when that property is absent. Every
// label is checked with errors.ValidateLabel and every coordinate with
// errors.ValidateCoordinate, so a successful read is always placeable.
//
// # Projection
//
// Setting [ReadOptions].Project reads coordinates as WGS84 longitude and
// latitude and projects them into the given EPSG system (see [Project]).
// Label width, height and gap are then in that system's units.
//
// # Output Formats
//
// A placement result can be written as:
//
//   - JSON ([WriteResultJSON]): a [Document] with the config used, the
//     placed labels with their boxes, and the dropped points. This is the
//     format read back by [UnmarshalResult] and by "pointlabel check".
//   - GeoJSON ([WriteGeoJSON]): one Polygon feature per placed label box
//     and one Point feature per dropped input, tagged dropped=true.
//   - CSV ([WriteCSV]): label,x,y,min_x,min_y,max_x,max_y, one row per
//     placed label.
//
// Writers never reorder labels: rows and features follow input order.
package io
