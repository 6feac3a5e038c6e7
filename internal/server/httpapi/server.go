// Package httpapi exposes the session lifecycle over HTTP: JSON bodies,
// credential-bearing cookies, bearer-token middleware, and sentinel-error
// to status-code mapping.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/accountd/internal/logging"
	"github.com/dmitrijs2005/accountd/internal/server/metrics"
	"github.com/dmitrijs2005/accountd/internal/server/sessions"
	"github.com/dmitrijs2005/accountd/internal/server/token"
)

// Server is the HTTP front of the session manager.
type Server struct {
	address  string
	logger   logging.Logger
	sessions *sessions.Service
	codec    *token.Codec
}

// NewServer constructs a Server. The codec is needed directly for the auth
// middleware and for cookie lifetimes.
func NewServer(address string, logger logging.Logger, svc *sessions.Service, codec *token.Codec) *Server {
	return &Server{
		address:  address,
		logger:   logger.With("module", "http_server"),
		sessions: svc,
		codec:    codec,
	}
}

// Router builds the route table. Exposed for tests.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.countRequests)

	r.HandleFunc("/ping", s.handlePing).Methods(http.MethodGet)
	r.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodPost)

	authed := r.NewRoute().Subrouter()
	authed.Use(s.requireAuth)
	authed.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)
	authed.HandleFunc("/password", s.handleChangePassword).Methods(http.MethodPatch)
	authed.HandleFunc("/me", s.handleGetMe).Methods(http.MethodGet)
	authed.HandleFunc("/me", s.handlePatchMe).Methods(http.MethodPatch)

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
