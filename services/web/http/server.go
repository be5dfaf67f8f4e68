package http

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/02loveslollipop/iss-ears/internal/db"
	"github.com/02loveslollipop/iss-ears/internal/metrics"
	"github.com/02loveslollipop/iss-ears/internal/models"
	"github.com/02loveslollipop/iss-ears/internal/nabaztag"
	"github.com/02loveslollipop/iss-ears/internal/region"
	"github.com/02loveslollipop/iss-ears/services/web/config"
)

//go:embed templates/*.html
var templatesFS embed.FS

// PositionFetcher returns the current ISS position.
type PositionFetcher interface {
	FetchPosition(ctx context.Context) (models.Position, error)
}

// Dispatcher sends a command batch to the device.
type Dispatcher interface {
	Send(ctx context.Context, batch nabaztag.Batch) ([]byte, error)
	Addr() string
}

// DispatchStore reads recorded dispatch events.
type DispatchStore interface {
	RecentDispatches(ctx context.Context, q db.DispatchQuery) ([]models.DispatchRecord, error)
}

// DispatchRecorder stores one dispatch attempt.
type DispatchRecorder interface {
	RecordDispatch(ctx context.Context, rec models.DispatchRecord) error
}

// Deps are the collaborators behind the handlers. Dispatcher, Store and
// Recorder may be nil.
type Deps struct {
	Fetcher    PositionFetcher
	Dispatcher Dispatcher
	Store      DispatchStore
	Recorder   DispatchRecorder
	Logger     *logrus.Logger
}

// Server bundles router and dependencies for the web view.
type Server struct {
	cfg        config.Config
	fetcher    PositionFetcher
	dispatcher Dispatcher
	store      DispatchStore
	recorder   DispatchRecorder
	logger     *logrus.Logger
	engine     *gin.Engine
	box        region.Box
	now        func() time.Time

	mu           sync.Mutex
	lastDispatch time.Time
}

// New constructs a server with routes and middleware.
func New(cfg config.Config, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())
	engine.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	logger := deps.Logger
	if logger == nil {
		logger = logrus.New()
	}

	server := &Server{
		cfg:        cfg,
		fetcher:    deps.Fetcher,
		dispatcher: deps.Dispatcher,
		store:      deps.Store,
		recorder:   deps.Recorder,
		logger:     logger,
		engine:     engine,
		box:        region.France,
		now:        time.Now,
	}
	server.registerRoutes()
	server.registerV1Routes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	s.engine.GET("/", s.handleIndex)
}

// locate fetches and classifies the current position, and triggers the
// device when that is enabled and the cooldown has passed.
func (s *Server) locate(ctx context.Context) (models.Position, bool, error) {
	pos, err := s.fetcher.FetchPosition(ctx)
	if err != nil {
		return models.Position{}, false, err
	}
	inside := region.Classify(s.logger, s.box, pos)
	metrics.ObservePosition(pos.Latitude, pos.Longitude, inside)
	if inside {
		s.maybeDispatch(ctx, pos)
	}
	return pos, inside, nil
}

func (s *Server) maybeDispatch(ctx context.Context, pos models.Position) {
	if !s.cfg.DispatchEnabled || s.dispatcher == nil {
		return
	}

	s.mu.Lock()
	now := s.now()
	if !s.lastDispatch.IsZero() && now.Sub(s.lastDispatch) < s.cfg.DispatchCooldown {
		s.mu.Unlock()
		metrics.Dispatches.WithLabelValues("skipped").Inc()
		return
	}
	s.lastDispatch = now
	s.mu.Unlock()

	batch := nabaztag.DefaultBatch()
	resp, err := s.dispatcher.Send(ctx, batch)
	log := s.logger.WithField("target", s.dispatcher.Addr())
	if err != nil {
		log.WithField("error", err.Error()).Error("Nabaztag dispatch failed")
		metrics.Dispatches.WithLabelValues("error").Inc()
	} else {
		log.WithField("response", string(resp)).Info("Nabaztag dispatch complete")
		metrics.Dispatches.WithLabelValues("ok").Inc()
	}

	s.record(ctx, pos, batch, resp, err)
}

func (s *Server) record(ctx context.Context, pos models.Position, batch nabaztag.Batch, resp []byte, sendErr error) {
	if s.recorder == nil {
		return
	}
	payload, _ := batch.Encode()
	rec := models.NewDispatchRecord(s.now(), pos, s.dispatcher.Addr(), string(payload), resp, sendErr)
	if err := s.recorder.RecordDispatch(ctx, rec); err != nil {
		s.logger.WithField("error", err.Error()).Error("Failed to record dispatch")
	}
}
