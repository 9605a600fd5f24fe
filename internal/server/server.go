package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/jonathan/resume-forge/internal/config"
	authmw "github.com/jonathan/resume-forge/internal/server/middleware"
	"github.com/jonathan/resume-forge/internal/server/ratelimit"
	"github.com/jonathan/resume-forge/internal/service"
)

const (
	serviceName    = "ResumeForge AI API"
	serviceVersion = "2.0.0"

	shutdownTimeout = 30 * time.Second
)

// Server is the ResumeForge HTTP API.
type Server struct {
	svc         *service.Service
	cfg         *config.Config
	logger      *zap.Logger
	router      chi.Router
	limiter     *ratelimit.Limiter
	authHandler *AuthHandler
	mcpHandler  http.Handler
	httpServer  *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithMCPHandler mounts h at /mcp.
func WithMCPHandler(h http.Handler) Option {
	return func(s *Server) {
		s.mcpHandler = h
	}
}

// New builds the router. A nil cfg uses the defaults.
func New(svc *service.Service, cfg *config.Config, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}

	s := &Server{svc: svc, cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.RateLimit.Enabled {
		s.limiter = ratelimit.NewLimiter(ratelimit.FromConfig(cfg.RateLimit))
	}
	if cfg.Auth.Enabled {
		s.authHandler = NewAuthHandler(&cfg.Auth, NewJWTService(cfg.Auth), logger)
	}

	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           s.router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(corsMiddleware(s.cfg.Server.CORSOrigins))

	r.Get("/", s.handleRoot)

	r.Route("/api", func(r chi.Router) {
		// Auth runs first so the limiter can count per client.
		if s.authHandler != nil {
			r.Use(authmw.Auth(s.authHandler.jwt.AsTokenValidator(), "/api/health", "/api/auth/token"))
		}
		if s.limiter != nil {
			r.Use(s.limiter.Middleware(s.logger))
		}
		if s.authHandler != nil {
			r.Post("/auth/token", s.authHandler.IssueToken)
		}

		r.Get("/health", s.handleHealth)

		r.Post("/optimize", s.handleOptimize)
		r.Post("/optimize/stream", s.handleOptimizeStream)
		r.Post("/optimize-file", s.handleOptimizeFile)
		r.Post("/career-guidance", s.handleCareerGuidance)
		r.Post("/quality-score", s.handleQualityScore)

		r.Post("/download/pdf", s.handleDownloadPDF)
		r.Post("/download/docx", s.handleDownloadDOCX)

		r.Get("/reports", s.handleListReports)
		r.Get("/reports/{id}", s.handleGetReport)
		r.Delete("/reports/{id}", s.handleDeleteReport)
	})

	if s.mcpHandler != nil {
		var mcp http.Handler = s.mcpHandler
		if s.limiter != nil {
			mcp = s.limiter.Middleware(s.logger)(mcp)
		}
		r.Handle("/mcp", mcp)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx ends or the process receives SIGINT or SIGTERM, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			zap.String("addr", s.httpServer.Addr),
			zap.Bool("auth", s.authHandler != nil),
			zap.Bool("rate_limit", s.limiter != nil),
			zap.Bool("mcp", s.mcpHandler != nil),
		)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		s.Close()
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.Close()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// requestLogger logs one line per request with the chi request id.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote", r.RemoteAddr),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			}
			if status >= http.StatusInternalServerError {
				logger.Warn("request", fields...)
				return
			}
			logger.Info("request", fields...)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}
