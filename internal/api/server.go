package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"tradejournal/internal/ports"
)

const shutdownTimeout = 5 * time.Second

// Server exposes the journal over HTTP and pushes dashboards over websocket.
type Server struct {
	journal Journal
	logger  ports.Logger
	hub     *Hub
	router  http.Handler
	addr    string

	unsubscribe []func()
}

// NewServer wires handlers, routes and the hub for j.
func NewServer(addr string, j Journal, logger ports.Logger) *Server {
	hub := NewHub(logger)
	s := &Server{
		journal: j,
		logger:  logger,
		hub:     hub,
		router:  SetupRoutes(NewHandler(j, logger), hub),
		addr:    addr,
	}
	s.unsubscribe = append(s.unsubscribe,
		j.OnDashboard(hub.PublishDashboard),
		j.OnOpenEditor(s.openEditor),
	)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// openEditor forwards the editor signal to dashboard clients.
func (s *Server) openEditor() {
	s.hub.Publish(context.Background(), Message{Type: TypeOpenEditor})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	hubCtx, cancelHub := context.WithCancel(ctx)
	defer cancelHub()
	go s.hub.Run(hubCtx)

	// Seed the hub so the first client gets the current state.
	s.hub.PublishDashboard(ctx, s.journal.Dashboard())

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "HTTP server listening", ports.Fields{"addr": s.addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.close()
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Info(ctx, "HTTP server stopped")
	return nil
}

func (s *Server) close() {
	for _, fn := range s.unsubscribe {
		fn()
	}
	s.unsubscribe = nil
}
