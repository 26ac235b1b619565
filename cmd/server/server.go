package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/pmeredith/marksman/internal/config"
	"github.com/pmeredith/marksman/internal/document"
	"github.com/pmeredith/marksman/internal/gateway"
	"github.com/pmeredith/marksman/internal/grading"
	"github.com/pmeredith/marksman/internal/prompt"
	"github.com/pmeredith/marksman/pkg/lifecycle"
	"github.com/pmeredith/marksman/pkg/middleware"
	"github.com/pmeredith/marksman/pkg/routes"
)

type Server struct {
	logger    *slog.Logger
	lifecycle *lifecycle.Coordinator
	gemini    *gateway.Gemini
	http      *httpServer
}

func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	lc := lifecycle.New()

	gemini, err := gateway.NewGemini(lc.Context(), cfg.Gateway.APIKey())
	if err != nil {
		return nil, err
	}

	gw := gateway.New(gemini, cfg.Gateway.Options(), logger)
	classifier := document.NewClassifier(cfg.Normalize.TextThreshold, logger)
	normalizer := document.NewNormalizer(cfg.Normalize.DPI, logger)
	builder := prompt.NewBuilder(cfg.Grading.FeedbackLanguage)
	system := grading.New(classifier, normalizer, builder, gw, cfg.Grading.StudentPlaceholder, logger)
	handler := grading.NewHandler(system, logger, cfg.API.MaxUploadSizeBytes())

	router := buildRouter(cfg, logger, lc, handler)

	logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"models", cfg.Gateway.Models,
	)

	return &Server{
		logger:    logger,
		lifecycle: lc,
		gemini:    gemini,
		http:      newHTTPServer(&cfg.Server, router, logger),
	}, nil
}

func (s *Server) Start() error {
	if err := s.http.Start(s.lifecycle); err != nil {
		return err
	}

	s.lifecycle.OnShutdown(func() {
		<-s.lifecycle.Context().Done()
		if err := s.gemini.Close(); err != nil {
			s.logger.Error("gemini client close error", "error", err)
		}
	})

	go func() {
		s.lifecycle.WaitForStartup()
		s.logger.Info("all subsystems ready")
	}()

	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.logger.Info("initiating shutdown")
	return s.lifecycle.Shutdown(timeout)
}

func buildRouter(cfg *config.Config, logger *slog.Logger, lc *lifecycle.Coordinator, handler *grading.Handler) http.Handler {
	mux := http.NewServeMux()

	routes.Register(mux, routes.Group{
		Prefix:   cfg.API.BasePath,
		Children: []routes.Group{handler.Routes()},
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !lc.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})

	stack := middleware.New()
	stack.Use(middleware.Logger(logger))
	stack.Use(middleware.CORS(&cfg.API.CORS))

	return stack.Apply(mux)
}
