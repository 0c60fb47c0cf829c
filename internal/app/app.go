// Package app wires the HTTP server: configuration, logging,
// observability, session state, services, and routes.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"sheetbridge/internal/config"
	"sheetbridge/internal/dataprocessing"
	apierrors "sheetbridge/internal/errors"
	"sheetbridge/internal/exporter"
	"sheetbridge/internal/infrastructure"
	custommw "sheetbridge/internal/middleware"
	"sheetbridge/internal/services"
	"sheetbridge/internal/session"
	handlers "sheetbridge/internal/transport/http"
	ws "sheetbridge/internal/websocket"
)

// Version identifies the build.
const Version = "1.0.0"

// Application is the composed server.
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	Router        *chi.Mux
	Server        *http.Server
	Store         *session.Store
	Hub           *ws.Hub
	OTelProviders *infrastructure.OTelProviders

	Reformat   *services.ReformatService
	Attendance *services.AttendanceService
	Health     *services.HealthService
}

// NewApplication builds the application from configuration.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("application starting", slog.String("version", Version))

	otelProviders, err := infrastructure.InitializeOTel(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}
	app.initializeServices()
	app.setupRouter()
	app.createServer()
	return app, nil
}

func (a *Application) initializeServices() {
	cache := session.NewParseCache(a.Config.Session.ParseCacheTTL)
	a.Store = session.NewStore(a.Config.Session.IdleTTL, cache, a.Logger)

	a.Hub = ws.NewHub(a.Logger)
	a.Hub.Start()

	excel := exporter.NewExcelWriter(a.Logger)
	a.Reformat = services.NewReformatService(a.Store, cache,
		dataprocessing.NewProjector(a.Logger), excel.WriteTable, a.Logger)
	a.Attendance = services.NewAttendanceService(a.Store, a.Config.Report.Title, a.Hub, a.Logger)
	a.Health = services.NewHealthService(Version, a.Hub.ClientCount, a.Logger)
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(middleware.RealIP)

	// Websocket upgrade stays outside the response-wrapping middleware.
	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		if err := ws.ServeWS(a.Hub, w, req); err != nil {
			a.Logger.ErrorContext(req.Context(), "websocket upgrade failed",
				slog.String("error", err.Error()))
		}
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(custommw.StructuredLogger(a.Logger))
		r.Use(custommw.Recoverer(a.Logger))
		r.Use(custommw.SecurityHeaders)
		r.Use(custommw.CORS(custommw.CORSConfig{}))

		if a.Config.Security.RateLimit.Enabled {
			r.Use(custommw.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		errorHandler := apierrors.NewErrorHandler(a.Logger)
		healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
		sessionHandler := handlers.NewSessionHandler(a.Reformat, a.Config, errorHandler, a.Logger)
		mappingHandler := handlers.NewMappingHandler(a.Reformat, a.Config, errorHandler, a.Logger)
		attendanceHandler := handlers.NewAttendanceHandler(a.Attendance, a.Config, errorHandler, a.Logger)

		r.Get("/healthz", healthHandler.HealthCheck)
		r.Mount("/api/session", handlers.SessionRoutes(sessionHandler, mappingHandler, attendanceHandler))
	})

	a.Router = r
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Run serves until interrupted, then shuts down gracefully.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		a.Logger.Info("server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.Error("server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}

// Stop shuts the server and background workers down.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.Hub.Stop()
	a.Store.Close()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "error shutting down OpenTelemetry",
				slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}

	a.Logger.Info("shutdown complete")
	return nil
}
