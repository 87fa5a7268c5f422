package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tinytelemetry/klaxon/internal/track"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*track.Tracker, *gin.Engine) {
	t.Helper()

	tracker := track.New()
	srv := NewServer("", tracker)
	srv.startTime = time.Now()

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/api/health", srv.handleHealth)
	r.GET("/api/hits", srv.handleHits)
	r.GET("/api/hits/:source", srv.handleSourceHits)

	return tracker, r
}

func TestHealthEndpoint(t *testing.T) {
	_, r := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal health: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("health status = %v, want ok", body["status"])
	}
}

func TestHitsEndpoint_RanksPerSource(t *testing.T) {
	tracker, r := newTestServer(t)

	now := time.Now()
	tracker.MarkHit("web", "fp-rare", "Error: rare", now)
	for i := 0; i < 3; i++ {
		tracker.MarkHit("web", "fp-common", "Error: common", now.Add(time.Duration(i)*time.Second))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/hits/web", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("hits status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var body struct {
		Source string `json:"source"`
		Hits   []struct {
			Fingerprint string `json:"fingerprint"`
			Count       int64  `json:"count"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal hits: %v", err)
	}
	if len(body.Hits) != 2 {
		t.Fatalf("hits length = %d, want 2", len(body.Hits))
	}
	if body.Hits[0].Fingerprint != "fp-common" || body.Hits[0].Count != 3 {
		t.Errorf("hits[0] = %+v, want fp-common with count 3", body.Hits[0])
	}
}

func TestHitsEndpoint_UnknownSource(t *testing.T) {
	_, r := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/hits/ghost", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestHitsEndpoint_EmptyTracker(t *testing.T) {
	_, r := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/hits", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body struct {
		Sources map[string]interface{} `json:"sources"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Sources) != 0 {
		t.Errorf("sources = %v, want empty", body.Sources)
	}
}
