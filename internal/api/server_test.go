package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/meteor/madness/internal/auth"
	"github.com/meteor/madness/internal/engine"
	"github.com/meteor/madness/internal/neo"
	"github.com/meteor/madness/internal/simstore"
	"github.com/meteor/madness/internal/stream"
	"github.com/meteor/madness/internal/tracking"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

func newTestServer(t *testing.T, authCfg auth.Config) *Server {
	t.Helper()
	logger := testLogger()

	eng := engine.New(logger, engine.DefaultConfig())

	neoSvc := neo.NewService(logger,
		neo.NewFetcher("http://127.0.0.1:1", "test"),
		neo.NewCache(t.TempDir(), 3),
		neo.NewStore(),
	)
	neoSvc.LoadCached()

	tracker, err := tracking.NewISSTracker()
	if err != nil {
		t.Fatalf("tracker: %v", err)
	}

	store, err := simstore.Open(logger, simstore.Config{
		Path:    filepath.Join(t.TempDir(), "sim.db"),
		MaxRows: 100,
	})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	streamHandler := stream.NewHandler(eng, stream.Config{
		MaxConcurrentPerIP: 10,
		KeepaliveInterval:  30 * time.Second,
	}, logger)

	return NewServer(":0", logger, authCfg, eng, neoSvc, tracker, store, streamHandler)
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, rd)
	req.RemoteAddr = "127.0.0.1:12345"
	w := httptest.NewRecorder()
	s.HTTPServer().Handler.ServeHTTP(w, req)
	return w
}

const chelyabinskBody = `{"diameter":20,"density":3300,"velocity":19,"angle":18,"composition":"rocky"}`

func TestCalculateOK(t *testing.T) {
	s := newTestServer(t, auth.Config{})

	for _, path := range []string{"/api/v1/impact/calculate", "/api/meteors/calculate-impact"} {
		w := doJSON(t, s, "POST", path, chelyabinskBody)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, body %s", path, w.Code, w.Body.String())
		}

		var res struct {
			ImpactEnergy   float64 `json:"impactEnergy"`
			EnergyMegatons float64 `json:"energyMegatons"`
			BlastRadius    struct {
				Lethal float64 `json:"lethal"`
				Light  float64 `json:"light"`
			} `json:"blastRadius"`
			Trajectory []json.RawMessage `json:"trajectory"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
			t.Fatalf("%s: invalid response JSON: %v", path, err)
		}
		if res.ImpactEnergy <= 0 {
			t.Errorf("%s: impactEnergy = %g", path, res.ImpactEnergy)
		}
		if res.EnergyMegatons < 0.4 || res.EnergyMegatons > 0.7 {
			t.Errorf("%s: energyMegatons = %g, want 0.4-0.7", path, res.EnergyMegatons)
		}
		if res.BlastRadius.Lethal > res.BlastRadius.Light {
			t.Errorf("%s: ring ordering violated", path)
		}
		if len(res.Trajectory) == 0 {
			t.Errorf("%s: empty trajectory", path)
		}
	}
}

func TestCalculateInvalidParams(t *testing.T) {
	s := newTestServer(t, auth.Config{})

	w := doJSON(t, s, "POST", "/api/v1/impact/calculate",
		`{"diameter":-1,"velocity":0,"angle":95}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var res struct {
		Error    string   `json:"error"`
		Problems []string `json:"problems"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Problems) < 3 {
		t.Errorf("problems = %v, want one per invalid field", res.Problems)
	}
}

func TestCalculateBadJSON(t *testing.T) {
	s := newTestServer(t, auth.Config{})
	w := doJSON(t, s, "POST", "/api/v1/impact/calculate", "{not json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSimulationRunAndFetch(t *testing.T) {
	s := newTestServer(t, auth.Config{})

	w := doJSON(t, s, "POST", "/api/v1/simulations/run", chelyabinskBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("run status = %d, body %s", w.Code, w.Body.String())
	}
	var rec struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.ID == "" {
		t.Fatal("empty simulation id")
	}

	w = doJSON(t, s, "GET", "/api/v1/simulations/"+rec.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var got struct {
		Parameters struct {
			Diameter float64 `json:"diameter"`
		} `json:"parameters"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Parameters.Diameter != 20 {
		t.Errorf("stored diameter = %g, want 20", got.Parameters.Diameter)
	}

	w = doJSON(t, s, "GET", "/api/v1/simulations", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), rec.ID) {
		t.Error("list does not contain the stored run")
	}
}

func TestSimulationNotFound(t *testing.T) {
	s := newTestServer(t, auth.Config{})
	w := doJSON(t, s, "GET", "/api/v1/simulations/does-not-exist", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestComparisonEndpoint(t *testing.T) {
	s := newTestServer(t, auth.Config{})

	w := doJSON(t, s, "GET", "/api/v1/comparison?megatons=12", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var cmp struct {
		Event struct {
			Name string `json:"name"`
		} `json:"event"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &cmp); err != nil {
		t.Fatal(err)
	}
	if cmp.Event.Name != "Tunguska" {
		t.Errorf("event = %q, want Tunguska", cmp.Event.Name)
	}

	w = doJSON(t, s, "GET", "/api/v1/comparison", "")
	if w.Code != http.StatusOK {
		t.Fatalf("events status = %d", w.Code)
	}
	var events struct {
		Events []json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &events); err != nil {
		t.Fatal(err)
	}
	if len(events.Events) != 5 {
		t.Errorf("got %d events, want 5", len(events.Events))
	}

	w = doJSON(t, s, "GET", "/api/v1/comparison?megatons=abc", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad megatons status = %d, want 400", w.Code)
	}
}

func TestCacheEndpoints(t *testing.T) {
	s := newTestServer(t, auth.Config{})

	doJSON(t, s, "POST", "/api/v1/impact/calculate", chelyabinskBody)

	w := doJSON(t, s, "GET", "/api/v1/cache/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d", w.Code)
	}
	var stats struct {
		Entries int `json:"entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 1 {
		t.Errorf("entries = %d, want 1", stats.Entries)
	}

	w = doJSON(t, s, "POST", "/api/v1/cache/clear", "")
	if w.Code != http.StatusOK {
		t.Fatalf("clear status = %d", w.Code)
	}

	w = doJSON(t, s, "GET", "/api/v1/cache/stats", "")
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 0 {
		t.Errorf("entries after clear = %d, want 0", stats.Entries)
	}
}

func TestNEOFeedEndpoint(t *testing.T) {
	s := newTestServer(t, auth.Config{})

	w := doJSON(t, s, "GET", "/api/v1/neo/feed", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var ds struct {
		Fallback bool              `json:"fallback"`
		Objects  []json.RawMessage `json:"objects"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &ds); err != nil {
		t.Fatal(err)
	}
	if !ds.Fallback {
		t.Error("expected fallback dataset in tests")
	}
	if len(ds.Objects) == 0 {
		t.Error("empty object list")
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, auth.Config{})

	for _, path := range []string{"/healthz", "/readyz"} {
		w := doJSON(t, s, "GET", path, "")
		if w.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, w.Code)
		}
	}
}

func TestAuthProtectsMutatingRoutes(t *testing.T) {
	s := newTestServer(t, auth.Config{Enabled: true, Token: "secret"})

	// Protected without a token.
	w := doJSON(t, s, "POST", "/api/v1/simulations/run", chelyabinskBody)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("run without token: status = %d, want 401", w.Code)
	}

	// Calculation stays public.
	w = doJSON(t, s, "POST", "/api/v1/impact/calculate", chelyabinskBody)
	if w.Code != http.StatusOK {
		t.Errorf("calculate without token: status = %d, want 200", w.Code)
	}

	// Token unlocks the protected route.
	req := httptest.NewRequest("POST", "/api/v1/simulations/run", bytes.NewReader([]byte(chelyabinskBody)))
	req.RemoteAddr = "127.0.0.1:12345"
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	s.HTTPServer().Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Errorf("run with token: status = %d, want 201", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, auth.Config{})
	w := doJSON(t, s, "GET", "/api/v1/impact/calculate", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}
