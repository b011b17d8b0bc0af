package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	webmention "github.com/goliatone/go-webmention"
	"github.com/goliatone/go-webmention/adapters/echohttp"
	"github.com/goliatone/go-webmention/adapters/gologger"
	wmprometheus "github.com/goliatone/go-webmention/adapters/prometheus"
	"github.com/goliatone/go-webmention/core"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const shutdownTimeout = 10 * time.Second

func newServer(cfg core.Config, svc *webmention.Service) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echoprometheus.NewMiddleware(wmprometheus.MetricName(cfg.ServiceName)))
	e.Use(middleware.Recover())

	echohttp.Register(e, cfg.Receiver.Path, echohttp.NewHandler(svc.Receiver()))
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET(cfg.Server.MetricsPath, echoprometheus.NewHandler())
	return e
}

// serve runs the receiving endpoint until ctx is cancelled. Accepted
// mentions are logged.
func serve(ctx context.Context, cfg core.Config, logger *gologger.PtermLogger) error {
	svc, err := webmention.New(cfg,
		webmention.WithLoggerProvider(logger),
		webmention.WithMetricsRecorder(wmprometheus.NewRecorder(nil)),
	)
	if err != nil {
		return err
	}
	e := newServer(cfg, svc)

	errCh := make(chan error, 1)
	go func() {
		svc.Logger().Info("webmention endpoint listening",
			"address", cfg.Server.Address,
			"path", cfg.Receiver.Path,
			"metrics", cfg.Server.MetricsPath,
		)
		errCh <- e.Start(cfg.Server.Address)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	svc.Logger().Info("webmention endpoint shutting down")
	return e.Shutdown(shutdownCtx)
}
