// Package httpapi exposes the token endpoint and the administrative client
// CRUD API over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/tokenkeeper/internal/logging"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/authorizer"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/clients"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/tokens"
)

type Server struct {
	address string
	logger  logging.Logger
	tokens  *tokens.Service
	clients *clients.Service
	authz   *authorizer.Authorizer
}

func NewServer(address string, logger logging.Logger, ts *tokens.Service, cs *clients.Service, az *authorizer.Authorizer) *Server {
	return &Server{
		address: address,
		logger:  logger.With("module", "http_server"),
		tokens:  ts,
		clients: cs,
		authz:   az,
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Get("/ping", s.handlePing)
	r.Post("/oauth/token", s.handleToken)

	r.Route("/admin/clients", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/", s.handleCreateClient)
		r.Get("/{clientID}", s.handleGetClient)
		r.Put("/{clientID}", s.handleUpdateClient)
		r.Delete("/{clientID}", s.handleDeleteClient)
	})

	return r
}

// Run starts the HTTP server and shuts it down gracefully when ctx is done.
func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.routes(),
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, errorBody{Error: code, ErrorDescription: description})
}
