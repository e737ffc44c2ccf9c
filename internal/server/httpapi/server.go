// Package httpapi mounts the verification protocol behind its HTTP front
// door: GET with query parameters or POST with a JSON body, plus the CORS
// preflight the embedded scan pages rely on.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/atelierhq/chipverify/internal/logging"
	"github.com/atelierhq/chipverify/internal/server/config"
	"github.com/atelierhq/chipverify/internal/server/verification"
)

// VerifyService is the orchestrator consumed by the handler.
type VerifyService interface {
	Verify(ctx context.Context, req verification.Request) (*verification.Result, error)
}

type Server struct {
	address      string
	corsOrigin   string
	storeTimeout time.Duration
	service      VerifyService
	logger       logging.Logger
}

func NewServer(cfg *config.Config, svc VerifyService, l logging.Logger) *Server {
	return &Server{
		address:      cfg.EndpointAddr,
		corsOrigin:   cfg.CORSAllowOrigin,
		storeTimeout: cfg.StoreTimeout,
		service:      svc,
		logger:       l.With("module", "http_server"),
	}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/verify", s.handleVerify)
	mux.HandleFunc("/api/health", s.handleHealth)
	return mux
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{Addr: s.address, Handler: s.routes()}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// writeJSON writes a JSON response, safely encoding values.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
