// Package pkg provides the core libraries for pointlabel.
//
// # Overview
//
// Pointlabel attaches a fixed-size text label next to each point of a map
// without letting two labels overlap. Points are processed in input order;
// each tries a short list of candidate positions and keeps the first one that
// is free. Points with no free candidate are dropped. The pkg directory is
// organized into these areas:
//
//  1. [placement] - The greedy placement algorithm and its spatial indexes
//  2. [io] - Reading points (JSON, GeoJSON, CSV) and writing results
//  3. [pipeline] - Orchestration (place → export) with caching
//  4. [cache], [store] - Infrastructure for cached results and stored runs
//  5. [api] - The HTTP API served by `pointlabel serve`
//
// # Architecture
//
// The typical data flow:
//
//	points.json / points.geojson / points.csv
//	         ↓
//	    [io] package (parse into placement.LabelSpec values)
//	         ↓
//	    [placement] package (candidate boxes + collision index)
//	         ↓
//	    [pipeline] package (cache lookup, export)
//	         ↓
//	    JSON / GeoJSON / CSV output
//
// # Quick Start
//
//	import (
//	    "github.com/paulmach/orb"
//	    "github.com/matzehuels/pointlabel/pkg/placement"
//	)
//
//	specs := []placement.LabelSpec{
//	    {Point: orb.Point{0, 0}, Label: "Alpha"},
//	    {Point: orb.Point{3, 1}, Label: "Beta"},
//	}
//	res, err := placement.Place(specs, placement.DefaultConfig())
//	for _, l := range res.Labels {
//	    fmt.Println(l.Label, l.Box)
//	}
//
// # Main Packages
//
// [placement] - Candidate generation, exclusive-boundary overlap tests, and
// three interchangeable indexes (linear scan, uniform grid, quadtree). All
// indexes give identical results; they differ only in speed.
//
// [io] - Input readers and output writers. GeoJSON support is built on
// paulmach/orb.
//
// [pipeline] - Runner that validates options, hashes the input, consults the
// cache, places, and exports to the requested formats. Shared by the CLI and
// the API.
//
// [cache] - Cache interface with file (CLI), Redis (server), and null
// implementations, plus key derivation.
//
// [store] - Persistence for placement runs served by the API: memory, JSON
// files, or MongoDB.
//
// [config] - TOML configuration file handling.
//
// [errors] - Coded errors shared across packages and mapped to HTTP statuses.
//
// [observability] - Hooks for placement, cache, and HTTP events.
//
// # Testing
//
//	go test ./pkg/...            # All tests
//	go test -short ./pkg/...     # Skip the large placement run
//	go test -run Example ./...   # Examples only
//
// Redis and MongoDB tests run only when POINTLABEL_TEST_REDIS_ADDR or
// POINTLABEL_TEST_MONGO_URI is set.
//
// [placement]: https://pkg.go.dev/github.com/matzehuels/pointlabel/pkg/placement
// [io]: https://pkg.go.dev/github.com/matzehuels/pointlabel/pkg/io
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/pointlabel/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/pointlabel/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/pointlabel/pkg/store
// [api]: https://pkg.go.dev/github.com/matzehuels/pointlabel/pkg/api
// [config]: https://pkg.go.dev/github.com/matzehuels/pointlabel/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/pointlabel/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/pointlabel/pkg/observability
package pkg
