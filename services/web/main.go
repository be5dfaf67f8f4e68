package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/02loveslollipop/iss-ears/internal/db"
	"github.com/02loveslollipop/iss-ears/internal/issnow"
	"github.com/02loveslollipop/iss-ears/internal/logging"
	"github.com/02loveslollipop/iss-ears/internal/nabaztag"
	"github.com/02loveslollipop/iss-ears/services/web/config"
	httpserver "github.com/02loveslollipop/iss-ears/services/web/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}
	logger := logging.New(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	deps := httpserver.Deps{
		Fetcher: issnow.New(&http.Client{Timeout: cfg.RequestTimeout}, cfg.APIURL, logger),
		Logger:  logger,
	}

	if cfg.DispatchEnabled {
		deps.Dispatcher = nabaztag.New(cfg.NabaztagHost, cfg.NabaztagPort, logger, nabaztag.WithTimeout(cfg.NabaztagTimeout))
		logger.WithField("cooldown", cfg.DispatchCooldown.String()).Warn("Page requests may trigger nabaztag dispatches")
	}

	if cfg.DatabaseURL != "" {
		store, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db connection error: %v", err)
		}
		defer store.Close()
		deps.Store = store
		deps.Recorder = store.Recorder()
	}

	srv := httpserver.New(cfg, deps)
	logger.Infof("Web view listening on %s", cfg.ListenAddr())

	if err := srv.Run(ctx); err != nil {
		logger.Errorf("server error: %v", err)
	}
}
