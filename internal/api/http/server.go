// Package http exposes the manager dashboard and field report API.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"staffbot-backend/internal/repository"
	"staffbot-backend/internal/security"
	"staffbot-backend/internal/service"
)

// Server wires the HTTP handlers to the services.
type Server struct {
	auth           service.DashboardAuthService
	reports        service.ReportService
	users          repository.UserRepository
	tokens         *security.TokenManager
	botToken       string
	initDataMaxAge time.Duration
	logger         *slog.Logger
}

func NewServer(auth service.DashboardAuthService, reports service.ReportService, users repository.UserRepository, tokens *security.TokenManager, botToken string, initDataMaxAge time.Duration, logger *slog.Logger) *Server {
	return &Server{
		auth:           auth,
		reports:        reports,
		users:          users,
		tokens:         tokens,
		botToken:       botToken,
		initDataMaxAge: initDataMaxAge,
		logger:         logger,
	}
}

// Router builds the full route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.loggingMiddleware)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/verify", s.handleVerify).Methods(http.MethodPost)
	api.HandleFunc("/masters", s.handleMasters).Methods(http.MethodGet)

	// Employee submission, authenticated by Telegram WebApp init data.
	webapp := api.NewRoute().Subrouter()
	webapp.Use(s.initDataMiddleware)
	webapp.HandleFunc("/reports", s.handleSubmitReport).Methods(http.MethodPost)

	// Manager dashboard, authenticated by session token.
	dashboard := api.NewRoute().Subrouter()
	dashboard.Use(s.jwtMiddleware)
	dashboard.HandleFunc("/track", s.handleTrack).Methods(http.MethodGet)
	dashboard.HandleFunc("/reports/{id:[0-9]+}", s.handleGetReport).Methods(http.MethodGet)
	dashboard.HandleFunc("/reports/{id:[0-9]+}", s.handleUpdateReport).Methods(http.MethodPut)

	return r
}

// Start runs the HTTP server until the context is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
