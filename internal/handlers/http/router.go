// Package http exposes the transaction feed over HTTP: a snapshot query,
// an arranged feed view, a health probe and the websocket live channel.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Asthay97/personal-bank-fullstack/internal/fanout"
	"github.com/Asthay97/personal-bank-fullstack/internal/livefeed"
	"github.com/Asthay97/personal-bank-fullstack/internal/pkg/logger"
	"github.com/Asthay97/personal-bank-fullstack/internal/reconcile"
	"github.com/Asthay97/personal-bank-fullstack/internal/txfeed"
	"github.com/Asthay97/personal-bank-fullstack/internal/txrecord"
)

// Feed is the part of the txfeed service the handlers read from.
type Feed interface {
	Snapshot() []txrecord.Record
	Groups() []reconcile.Group
	Subscribe() (*fanout.Subscription[livefeed.Message], error)
	Stats() txfeed.Stats
}

type config struct {
	snapshotPath string
	livePath     string
	writeTimeout time.Duration
	pingInterval time.Duration
}

type Option func(*config)

func WithSnapshotPath(path string) Option {
	return func(c *config) {
		c.snapshotPath = path
	}
}

func WithLivePath(path string) Option {
	return func(c *config) {
		c.livePath = path
	}
}

// WithPingInterval sets how often idle live connections are pinged.
func WithPingInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.pingInterval = d
		}
	}
}

func defaultConfig() config {
	return config{
		snapshotPath: "/api/transactions",
		livePath:     "/ws",
		writeTimeout: 10 * time.Second,
		pingInterval: 30 * time.Second,
	}
}

type handler struct {
	feed Feed
	cfg  config
}

// NewRouter builds the gin engine serving feed.
func NewRouter(feed Feed, opts ...Option) *gin.Engine {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	h := &handler{feed: feed, cfg: cfg}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", h.health)
	r.GET(cfg.snapshotPath, h.snapshot)
	r.GET("/api/feed", h.arranged)
	r.GET(cfg.livePath, h.live)

	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug(c.Request.Context(), "request served",
			"http.method", c.Request.Method,
			"http.path", c.FullPath(),
			"http.status", c.Writer.Status(),
			"http.latency", time.Since(start),
		)
	}
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, struct {
		Status string `json:"status"`
		txfeed.Stats
	}{Status: "ok", Stats: h.feed.Stats()})
}

// snapshot answers with the bare log, newest first.
func (h *handler) snapshot(c *gin.Context) {
	log := h.feed.Snapshot()
	if log == nil {
		log = []txrecord.Record{}
	}
	c.JSON(http.StatusOK, log)
}

func (h *handler) arranged(c *gin.Context) {
	c.JSON(http.StatusOK, RenderGroups(h.feed.Groups()))
}

// Server runs the router until Close.
type Server struct {
	srv  *http.Server
	done chan struct{}
}

// NewServer binds handler to addr. Nothing is served before Start.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start binds the listener and serves in the background. A bind failure
// is returned immediately.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.srv.Addr = ln.Addr().String()
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		logger.Info(ctx, "http server listening", "http.addr", s.srv.Addr)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http server stopped", "error", err)
		}
	}()
	return nil
}

// Addr is the bound address once Start succeeded.
func (s *Server) Addr() string {
	return s.srv.Addr
}

// Close shuts the server down, waiting at most timeout for open requests.
// It is a no-op before Start.
func (s *Server) Close(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := s.srv.Shutdown(ctx)
	if s.done != nil {
		select {
		case <-s.done:
		case <-ctx.Done():
		}
	}
	return err
}
