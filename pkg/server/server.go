package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"controlbot/pkg/api/analysis"
	apiconfig "controlbot/pkg/api/config"
	"controlbot/pkg/api/reports"
	coreconfig "controlbot/pkg/core/config"
	controlbotmiddleware "controlbot/pkg/server/middleware"
)

type WebAPI struct {
	router          *chi.Mux
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

type Dependencies struct {
	Pipeline  reports.Pipeline
	Providers apiconfig.ProviderSwitcher
	Prompts   apiconfig.PromptCatalog
	Settings  *coreconfig.Config
	Logger    zerolog.Logger
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
	Dependencies    Dependencies
}

// ConfigureRouter mounts every endpoint under /api/v1.
func ConfigureRouter(config Config) *chi.Mux {
	logger := config.Dependencies.Logger
	analysisHandler := analysis.NewHandler(config.Dependencies.Pipeline, config.MaxUploadBytes)
	reportHandler := reports.NewHandler(config.Dependencies.Pipeline, analysisHandler)
	configHandler := apiconfig.NewHandler(config.Dependencies.Providers, config.Dependencies.Settings, config.Dependencies.Prompts)

	router := chi.NewRouter()

	router.Use(controlbotmiddleware.Logger(&logger))
	router.Use(middleware.Recoverer)
	router.Use(controlbotmiddleware.CORS)

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/mapping", analysisHandler.HandleMapping)
		r.Post("/analysis", analysisHandler.HandleAnalysis)
		r.Post("/upload", analysisHandler.HandleUpload)
		r.Post("/report", reportHandler.HandleReport)
		r.Get("/config", configHandler.HandleConfig)
		r.Post("/config/provider", configHandler.HandleSwitch)
	})

	return router
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	config.Dependencies.Logger = logger
	router := ConfigureRouter(config)

	shutdownTimeout := config.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: shutdownTimeout,
	}
}

func (w *WebAPI) Start() error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}

		if err != nil {
			return err
		}
	}

	return nil
}
