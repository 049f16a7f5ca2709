package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/matzehuels/pointlabel/pkg/observability"
	"github.com/matzehuels/pointlabel/pkg/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(Options{MaxPoints: 100}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

type createdRun struct {
	store.Run
	Summary store.Summary `json:"summary"`
	Cached  bool          `json:"cached"`
}

const samplePoints = `{"points":[
	{"x":0,"y":0,"label":"A"},
	{"x":0,"y":0,"label":"B"},
	{"x":50,"y":50,"label":"C"}
],"config":{"offsets":[{"dx":1,"dy":1}]}}`

func createRun(t *testing.T, srv *httptest.Server) createdRun {
	t.Helper()
	resp, body := do(t, http.MethodPost, srv.URL+"/v1/placements", samplePoints)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	var run createdRun
	if err := json.Unmarshal(body, &run); err != nil {
		t.Fatalf("decode: %v (%s)", err, body)
	}
	return run
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, body := do(t, http.MethodGet, srv.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"ok"`) {
		t.Errorf("body = %s", body)
	}
	if resp.Header.Get("Content-Type") != "application/json" {
		t.Errorf("content type = %q", resp.Header.Get("Content-Type"))
	}
}

func TestCreatePlacement(t *testing.T) {
	srv := newTestServer(t)
	run := createRun(t, srv)

	if run.ID == "" {
		t.Fatal("run should have an ID")
	}
	if run.Summary.Input != 3 || run.Summary.Placed != 2 || run.Summary.Dropped != 1 {
		t.Errorf("summary = %+v", run.Summary)
	}
	if len(run.Dropped) != 1 || run.Dropped[0] != 1 {
		t.Errorf("dropped = %v, want [1]", run.Dropped)
	}
	if run.Config.Width != 6 || run.Config.Height != 2 {
		t.Errorf("config should carry defaults, got %+v", run.Config)
	}
	box := run.Placed[0].Box
	if box.Min[0] != 1 || box.Min[1] != 1 || box.Max[0] != 7 || box.Max[1] != 3 {
		t.Errorf("first box = %v", box)
	}
}

func TestCreatePlacementErrors(t *testing.T) {
	srv := newTestServer(t)

	tooMany := `{"points":[` + strings.Repeat(`{"x":0,"y":0},`, 100) + `{"x":0,"y":0}]}`
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"malformed", `{"points":`, "INVALID_INPUT"},
		{"unknown field", `{"pts":[]}`, "INVALID_INPUT"},
		{"missing coordinate", `{"points":[{"x":1}]}`, "INVALID_INPUT"},
		{"bad label", `{"points":[{"x":1,"y":1,"label":"a\u0007"}]}`, "INVALID_LABEL"},
		{"bad width", `{"points":[],"config":{"width":-1}}`, "INVALID_CONFIG"},
		{"bad index", `{"points":[],"config":{"index":"rtree"}}`, "INVALID_CONFIG"},
		{"too many points", tooMany, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, srv.URL+"/v1/placements", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			var e errorBody
			if err := json.Unmarshal(body, &e); err != nil {
				t.Fatalf("error body is not JSON: %s", body)
			}
			if e.Code != tt.wantCode {
				t.Errorf("code = %q, want %q (%s)", e.Code, tt.wantCode, e.Message)
			}
		})
	}
}

func TestGetPlacement(t *testing.T) {
	srv := newTestServer(t)
	created := createRun(t, srv)

	resp, body := do(t, http.MethodGet, srv.URL+"/v1/placements/"+created.ID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	var run store.Run
	if err := json.Unmarshal(body, &run); err != nil {
		t.Fatal(err)
	}
	if run.ID != created.ID || len(run.Placed) != 2 {
		t.Errorf("run = %+v", run)
	}
}

func TestGetPlacementFormats(t *testing.T) {
	srv := newTestServer(t)
	created := createRun(t, srv)
	url := srv.URL + "/v1/placements/" + created.ID

	resp, body := do(t, http.MethodGet, url+"?format=geojson", "")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "application/geo+json" {
		t.Fatalf("status = %d, content type = %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Features) != 3 {
		t.Errorf("got %d features, want 3", len(fc.Features))
	}

	resp, body = do(t, http.MethodGet, url+"?format=csv", "")
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(string(body), "label,x,y,") {
		t.Errorf("csv status = %d, body = %s", resp.StatusCode, body)
	}

	resp, _ = do(t, http.MethodGet, url+"?format=svg", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown format status = %d, want 400", resp.StatusCode)
	}
}

func TestGetPlacementNotFound(t *testing.T) {
	srv := newTestServer(t)
	resp, body := do(t, http.MethodGet, srv.URL+"/v1/placements/1f0c7a3e-0000-4000-8000-000000000000", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "RUN_NOT_FOUND") {
		t.Errorf("body = %s", body)
	}
}

func TestListPlacements(t *testing.T) {
	srv := newTestServer(t)
	for range 3 {
		createRun(t, srv)
	}

	resp, body := do(t, http.MethodGet, srv.URL+"/v1/placements?limit=2", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out struct {
		Runs []store.Summary `json:"runs"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Runs) != 2 {
		t.Errorf("got %d runs, want 2", len(out.Runs))
	}

	resp, _ = do(t, http.MethodGet, srv.URL+"/v1/placements?limit=zero", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", resp.StatusCode)
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t)
	resp, body := do(t, http.MethodGet, srv.URL+"/v2/nothing", "")
	if resp.StatusCode != http.StatusNotFound || !strings.Contains(string(body), "NOT_FOUND") {
		t.Errorf("status = %d, body = %s", resp.StatusCode, body)
	}
	resp, _ = do(t, http.MethodDelete, srv.URL+"/v1/placements/", "")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("DELETE status = %d, want 405", resp.StatusCode)
	}
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	routes   []string
	statuses []int
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, _, route string, status int, _ time.Duration) {
	h.routes = append(h.routes, route)
	h.statuses = append(h.statuses, status)
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	h := New(Options{}).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/placements/abc", nil))

	if len(hooks.routes) != 1 || hooks.routes[0] != "/v1/placements/{id}" {
		t.Errorf("routes = %v", hooks.routes)
	}
	if hooks.statuses[0] != http.StatusNotFound {
		t.Errorf("status = %d, want 404", hooks.statuses[0])
	}
}
