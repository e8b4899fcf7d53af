package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"reelscript/internal/config"
	"reelscript/internal/engagement"
	"reelscript/internal/generator"
	"reelscript/internal/logging"
	"reelscript/internal/reelstore"
	"reelscript/internal/services"
	"reelscript/internal/telemetry"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// HealthChecker reports store diagnostics.
type HealthChecker interface {
	CheckHealth(ctx context.Context) (reelstore.Health, error)
}

// Server is the HTTP front end of the generator.
type Server struct {
	bind    string
	token   string
	gen     *generator.Generator
	health  HealthChecker
	weights engagement.Weights
	logger  *slog.Logger

	handler  http.Handler
	listener net.Listener
	server   *http.Server
}

// New builds a Server. It does not listen until Start.
func New(cfg *config.Config, gen *generator.Generator, health HealthChecker, logger *slog.Logger) *Server {
	s := &Server{
		bind:   strings.TrimSpace(cfg.API.Bind),
		token:  strings.TrimSpace(cfg.API.Token),
		gen:    gen,
		health: health,
		weights: engagement.Weights{
			Comment: cfg.Engagement.CommentWeight,
			Like:    cfg.Engagement.LikeWeight,
			View:    cfg.Engagement.ViewWeight,
		},
		logger: logging.NewComponentLogger(logger, "api"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /script/auto", s.handleAuto)
	mux.HandleFunc("POST /script/save", s.handleSave)
	mux.HandleFunc("GET /script/saved", s.handleSaved)
	mux.HandleFunc("GET /reels", s.handleReels)
	mux.HandleFunc("GET /settings/{client_id}", s.handleGetSettings)
	mux.HandleFunc("PUT /settings/{client_id}", s.handlePutSettings)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.handler = s.instrument(authMiddleware(s.token, mux))
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.ItemTimeout() + time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler exposes the routed, authenticated handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Start listens on the configured address and serves until ctx ends.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "api server error", "api_serve_failed", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.Bool("auth", s.token != ""),
	)
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting up to five seconds for requests.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

// instrument assigns a request id, continues any incoming trace and logs the
// outcome of every request.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx = services.WithRequestID(ctx, requestID)
		ctx, span := telemetry.Start(ctx, r.Method+" "+r.URL.Path,
			attribute.String("http.method", r.Method),
			attribute.String("http.path", r.URL.Path),
		)
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.status_code", rec.status))
		var spanErr error
		if rec.status >= http.StatusInternalServerError {
			spanErr = fmt.Errorf("status %d", rec.status)
		}
		telemetry.End(span, spanErr)

		logger := logging.WithContext(ctx, s.logger)
		attrs := logging.Args(
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", rec.status),
			logging.Duration("duration", time.Since(started)),
		)
		if rec.status >= http.StatusInternalServerError {
			logger.Warn("request failed", attrs...)
			return
		}
		logger.Debug("request served", attrs...)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeBody(w, r, dst); err != nil {
		s.writeError(w, err)
		return false
	}
	return true
}

// decodeBody reads a JSON request body. A target of the wrong shape is an
// invalid target filter rather than a generic validation failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(body).Decode(dst)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && isTargetField(typeErr.Field) {
		return services.Wrap(services.ErrInvalidTargetFilter, "api", "decode", "malformed "+typeErr.Field, err)
	}
	return services.Wrap(services.ErrValidation, "api", "decode", "invalid JSON body", err)
}

func isTargetField(field string) bool {
	for _, name := range []string{"target", "default_target"} {
		if field == name || strings.HasPrefix(field, name+".") {
			return true
		}
	}
	return false
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, errorStatus(err), map[string]string{"error": err.Error()})
}

func errorStatus(err error) int {
	if errors.Is(err, context.Canceled) {
		// Client went away; nobody reads this.
		return 499
	}
	return services.HTTPStatus(err)
}
