// Package server is the UI bridge: a local HTTP surface that presentation
// code drives the session through, plus the SSE stream it watches.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/farklezone/farkle-client/internal/logger"
	"github.com/farklezone/farkle-client/internal/metrics"
	"github.com/farklezone/farkle-client/internal/sse"
)

type Server struct {
	httpServer *http.Server
	session    GameSession
	hub        *sse.Hub
}

// NewServer builds the UI bridge router around session and hub.
func NewServer(port int, session GameSession, hub *sse.Hub) *Server {
	r := chi.NewRouter()

	r.Use(metrics.Middleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", HandleHealthz())
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/events", sse.Handler(hub))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/state", HandleGetState(session))
		r.Get("/history", HandleGetHistory(session))
		r.Get("/balance", HandleGetBalance(session))

		r.Post("/play", HandlePlay(session))
		r.Post("/cancel", HandleCancelPlay(session))
		r.Post("/roll", HandleRoll(session))
		r.Post("/hold", HandleHold(session))
		r.Post("/deposit", HandleDeposit(session))
		r.Post("/withdraw", HandleWithdraw(session))
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: ReadHeaderTimeout,
		},
		session: session,
		hub:     hub,
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start blocks serving HTTP until Shutdown or a listen error.
func (s *Server) Start(ctx context.Context) error {
	logger.FromContext(ctx).Info(LogMsgServerStarting, "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, ShutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	logger.FromContext(ctx).Info(LogMsgServerStopped)
	return err
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Health checks, metrics scrapes and the SSE stream stay out of
		// the request log.
		switch r.URL.Path {
		case "/healthz", "/metrics", "/events":
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ctx := logger.WithRequestID(r.Context(), logger.GenerateRequestID())
		r = r.WithContext(ctx)

		log := logger.FromContext(ctx)
		log.Info(LogMsgRequestStarted,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)

		next.ServeHTTP(w, r)

		log.Info(LogMsgRequestFinished,
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds())
	})
}
