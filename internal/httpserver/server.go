package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tinytelemetry/klaxon/internal/model"
	"github.com/tinytelemetry/klaxon/internal/summary"
	"github.com/tinytelemetry/klaxon/internal/track"
)

// HitReader is the narrow tracker contract required by the status API.
type HitReader interface {
	Sources() []string
	Snapshot(source string) []track.FingerprintHit
}

// Server provides a read-only HTTP status API over the hit state, plus the
// Prometheus metrics endpoint.
type Server struct {
	addr      string
	hits      HitReader
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new status API server.
func NewServer(addr string, hits HitReader) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		hits:   hits,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/hits", s.handleHits)
	r.GET("/api/hits/:source", s.handleSourceHits)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.server = &http.Server{
		Handler:           r,
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.startTime = time.Now()

	go s.server.Serve(listener)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Addr returns the listen address.
func (s *Server) Addr() string { return s.addr }

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"uptime":  time.Since(s.startTime).String(),
		"sources": len(s.hits.Sources()),
	})
}

func (s *Server) handleHits(c *gin.Context) {
	out := make(map[string][]gin.H)
	for _, source := range s.hits.Sources() {
		out[source] = renderHits(s.hits.Snapshot(source))
	}
	c.JSON(http.StatusOK, gin.H{"sources": out})
}

func (s *Server) handleSourceHits(c *gin.Context) {
	source := c.Param("source")
	snap := s.hits.Snapshot(source)
	if snap == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown source or no hits"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"source": source, "hits": renderHits(snap)})
}

func renderHits(snap []track.FingerprintHit) []gin.H {
	ranked := summary.Rank(snap, model.SummaryTopHits)
	out := make([]gin.H, 0, len(ranked))
	for _, fh := range ranked {
		out = append(out, gin.H{
			"fingerprint": fh.Fingerprint,
			"count":       fh.Hit.Count,
			"first_seen":  fh.Hit.FirstSeen.UTC().Format(time.RFC3339),
			"last_seen":   fh.Hit.LastSeen.UTC().Format(time.RFC3339),
			"sample":      model.Truncate(fh.Hit.Sample, model.SummarySampleLength),
		})
	}
	return out
}
