package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/02loveslollipop/iss-ears/internal/db"
	"github.com/02loveslollipop/iss-ears/internal/issnow"
	"github.com/02loveslollipop/iss-ears/internal/logging"
	"github.com/02loveslollipop/iss-ears/internal/metrics"
	"github.com/02loveslollipop/iss-ears/internal/nabaztag"
	"github.com/02loveslollipop/iss-ears/services/tracker/internal/config"
	"github.com/02loveslollipop/iss-ears/services/tracker/internal/tracker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	if err := run(cfg, logger); err != nil {
		logger.Fatalf("tracker failed: %v", err)
	}
}

func run(cfg config.Config, logger *logrus.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fetcher := issnow.New(&http.Client{Timeout: cfg.RequestTimeout}, cfg.APIURL, logger)
	device := nabaztag.New(cfg.NabaztagHost, cfg.NabaztagPort, logger, nabaztag.WithTimeout(cfg.NabaztagTimeout))

	opts := tracker.Options{
		Interval: cfg.PollInterval,
		DryRun:   cfg.DryRun,
		Out:      os.Stdout,
	}

	if cfg.DatabaseURL != "" {
		recorder, err := db.NewRecorder(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer recorder.Close()
		opts.Recorder = recorder
		logger.Info("Recording dispatches to database")
	}

	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: metrics.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithField("error", err.Error()).Error("Metrics server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.WithField("addr", cfg.MetricsAddr).Info("Metrics listening")
	}

	return tracker.New(fetcher, device, logger, opts).Run(ctx)
}
