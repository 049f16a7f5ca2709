package io

import (
	"path/filepath"
	"strings"

	"github.com/matzehuels/pointlabel/pkg/errors"
)

// Format names a file format for points or results.
type Format string

// Supported formats.
const (
	FormatJSON    Format = "json"
	FormatGeoJSON Format = "geojson"
	FormatCSV     Format = "csv"
)

// ValidFormats is the set of supported formats.
var ValidFormats = map[Format]bool{
	FormatJSON:    true,
	FormatGeoJSON: true,
	FormatCSV:     true,
}

// ParseFormat converts a case-insensitive name into a Format.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !ValidFormats[f] {
		return "", errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (must be one of: json, geojson, csv)", s)
	}
	return f, nil
}

// FormatFromPath infers the format from a file extension.
// ".geo.json" is treated as GeoJSON.
func FormatFromPath(path string) (Format, error) {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".geo.json") {
		return FormatGeoJSON, nil
	}
	switch filepath.Ext(lower) {
	case ".json":
		return FormatJSON, nil
	case ".geojson":
		return FormatGeoJSON, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "cannot infer format from %q (use .json, .geojson or .csv)", filepath.Base(path))
}
