package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb"

	"github.com/matzehuels/pointlabel/pkg/buildinfo"
	"github.com/matzehuels/pointlabel/pkg/errors"
	pkgio "github.com/matzehuels/pointlabel/pkg/io"
	"github.com/matzehuels/pointlabel/pkg/pipeline"
	"github.com/matzehuels/pointlabel/pkg/placement"
	"github.com/matzehuels/pointlabel/pkg/store"
)

// placeRequest is the body of POST /v1/placements.
type placeRequest struct {
	Points []pointJSON `json:"points"`
	Config configJSON  `json:"config"`
}

type pointJSON struct {
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
	Label string   `json:"label"`
}

// configJSON mirrors the placement options; zero values select defaults.
type configJSON struct {
	Width   float64            `json:"width"`
	Height  float64            `json:"height"`
	Gap     *float64           `json:"gap"`
	Offsets []placement.Offset `json:"offsets"`
	Index   string             `json:"index"`
}

func (c configJSON) options() pipeline.Options {
	return pipeline.Options{
		Width:   c.Width,
		Height:  c.Height,
		Gap:     c.Gap,
		Offsets: c.Offsets,
		Index:   c.Index,
	}
}

// placeResponse is a stored run plus request-specific metadata.
type placeResponse struct {
	*store.Run
	Summary store.Summary `json:"summary"`
	Cached  bool          `json:"cached"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleCreatePlacement(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req placeRequest
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body: %v", err))
		return
	}

	specs, err := s.specsFromRequest(req.Points)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := req.Config.options()
	cfg, err := opts.ValidateForPlace()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, hit, err := s.runner.PlaceWithCacheInfo(r.Context(), specs, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	run := store.NewRun(cfg, specs, res)
	if err := s.store.Save(r.Context(), run); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("placed labels",
		"run", run.ID,
		"input", len(specs),
		"placed", res.PlacedCount(),
		"dropped", res.DroppedCount(),
		"cached", hit)

	w.Header().Set("Location", "/v1/placements/"+run.ID)
	writeJSON(w, http.StatusCreated, placeResponse{Run: run, Summary: run.Summary(), Cached: hit})
}

func (s *Server) specsFromRequest(points []pointJSON) ([]placement.LabelSpec, error) {
	if len(points) > s.maxPoints {
		return nil, errors.New(errors.ErrCodeInvalidInput, "too many points: %d (max %d)", len(points), s.maxPoints)
	}
	specs := make([]placement.LabelSpec, len(points))
	for i, p := range points {
		if p.X == nil || p.Y == nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "point %d: missing x or y", i)
		}
		if err := errors.ValidateLabel(p.Label); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidLabel, err, "point %d: %s", i, errors.UserMessage(err))
		}
		specs[i] = placement.LabelSpec{Point: orb.Point{*p.X, *p.Y}, Label: p.Label}
	}
	return specs, nil
}

func (s *Server) handleGetPlacement(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	name := r.URL.Query().Get("format")
	if name == "" {
		writeJSON(w, http.StatusOK, run)
		return
	}
	format, err := pkgio.ParseFormat(name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	artifacts, _, err := s.runner.ExportWithCacheInfo(r.Context(), run.Result(), run.Config, pipeline.Options{
		Formats: []string{string(format)},
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[string(format)])
}

func (s *Server) handleListPlacements(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "limit must be a positive integer, got %q", v))
			return
		}
		limit = n
	}

	runs, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	summaries := make([]store.Summary, len(runs))
	for i, run := range runs {
		summaries[i] = run.Summary()
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": summaries})
}

func contentType(f pkgio.Format) string {
	switch f {
	case pkgio.FormatGeoJSON:
		return "application/geo+json"
	case pkgio.FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/json"
	}
}
