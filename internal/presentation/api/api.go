package api

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/G1okz/Geo-app/internal/infrastructure/configs"
	"github.com/G1okz/Geo-app/internal/infrastructure/logging"
	"github.com/G1okz/Geo-app/internal/infrastructure/ratelimiter"
	healthHandler "github.com/G1okz/Geo-app/internal/presentation/handler/health"
	locationsHandler "github.com/G1okz/Geo-app/internal/presentation/handler/locations"
	roomHandler "github.com/G1okz/Geo-app/internal/presentation/handler/rooms"
	streamHandler "github.com/G1okz/Geo-app/internal/presentation/handler/stream"
)

type Application struct {
	config           configs.Config
	roomHandler      *roomHandler.Handler
	locationsHandler *locationsHandler.Handler
	streamHandler    *streamHandler.Handler
	healthHandler    *healthHandler.Handler
	logger           logging.Logger
	ratelimiter      ratelimiter.Limiter
}

func NewApplication(
	config configs.Config,
	roomHandler *roomHandler.Handler,
	locationsHandler *locationsHandler.Handler,
	streamHandler *streamHandler.Handler,
	healthHandler *healthHandler.Handler,
	logger logging.Logger,
	ratelimiter ratelimiter.Limiter,
) *Application {
	return &Application{
		config:           config,
		roomHandler:      roomHandler,
		locationsHandler: locationsHandler,
		streamHandler:    streamHandler,
		healthHandler:    healthHandler,
		logger:           logger,
		ratelimiter:      ratelimiter,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Use(app.loggerMiddleware)
	r.Use(app.rateLimiterMiddleware)
	r.Use(app.enableCors)

	r.Route("/api", func(r chi.Router) {
		r.Route("/rooms", func(r chi.Router) {
			r.Post("/", app.roomHandler.CreateRoomHandler)
			r.Post("/join", app.roomHandler.JoinRoomHandler)
			r.Get("/owned", app.roomHandler.ListOwnedRoomsHandler)
			r.Get("/joined", app.roomHandler.ListJoinedRoomsHandler)

			r.Route("/{roomId}", func(r chi.Router) {
				r.Delete("/", app.roomHandler.DeleteRoomHandler)
				r.Post("/leave", app.roomHandler.LeaveRoomHandler)

				r.Get("/markers", app.locationsHandler.ListMarkersHandler)
				r.Post("/markers", app.locationsHandler.CreateMarkerHandler)
				r.Delete("/markers/{locationId}", app.locationsHandler.DeleteMarkerHandler)
				r.Post("/positions", app.locationsHandler.ReportPositionHandler)

				r.Get("/stream", app.streamHandler.StreamRoomHandler)
			})
		})

		r.Get("/health", app.healthHandler.GetHealth)
		r.Get("/healthz", app.healthHandler.GetHealth)
		r.Get("/ready", app.healthHandler.GetHealth)
		r.Get("/live", app.healthHandler.GetHealth)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/debug/vars", expvar.Handler())

	return otelhttp.NewHandler(r, "geoapp-api")
}

func (app *Application) Run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", app.config.HTTP.Host, app.config.HTTP.Port),
		Handler:      mux,
		WriteTimeout: app.config.HTTP.WriteTimeout,
		ReadTimeout:  app.config.HTTP.ReadTimeout,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Info(logging.General, logging.Shutdown, "signal caught", map[logging.ExtraKey]any{
			"signal": s.String(),
		})

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Info(logging.General, logging.Startup, "server has started", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Info(logging.General, logging.Shutdown, "server has stopped", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	return nil
}
