// Package server exposes resampling over HTTP and WebSocket.
// It serves JSON resample requests, resamples stored symbols through a Loader and keeps
// long-lived WebSocket sessions that answer one request per message.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rxtech-lab/argo-series/internal/logger"
	"github.com/rxtech-lab/argo-series/pkg/loader"
	"github.com/rxtech-lab/argo-series/pkg/timeseries"
	"go.uber.org/zap"
)

// Config holds the dependencies of a Server.
type Config struct {
	Resampler *timeseries.Resampler
	// Loader is optional; without it the symbol route answers 501.
	Loader loader.Loader
	Logger *logger.Logger
	// MaxBodyBytes caps request bodies; zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

const DefaultMaxBodyBytes = 32 << 20

// Server serves the resample API.
type Server struct {
	resampler    *timeseries.Resampler
	loader       loader.Loader
	logger       *logger.Logger
	maxBodyBytes int64
	upgrader     websocket.Upgrader

	httpServer *http.Server
	listener   net.Listener
}

// New creates a Server. Nil dependencies fall back to defaults.
func New(config Config) *Server {
	if config.Resampler == nil {
		config.Resampler = timeseries.DefaultResampler()
	}

	if config.Logger == nil {
		config.Logger = logger.NewNopLogger()
	}

	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}

	return &Server{
		resampler:    config.Resampler,
		loader:       config.Loader,
		logger:       config.Logger,
		maxBodyBytes: config.MaxBodyBytes,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
	}
}

// Router returns the HTTP handler with every route registered.
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/v1/providers", s.handleProviders).Methods(http.MethodGet)
	router.HandleFunc("/v1/schema", s.handleSchema).Methods(http.MethodGet)
	router.HandleFunc("/v1/resample", s.handleResample).Methods(http.MethodPost)
	router.HandleFunc("/v1/symbols/{symbol}/resample", s.handleSymbolResample).Methods(http.MethodGet)
	router.HandleFunc("/v1/ws", s.handleWebSocket)

	return router
}

// Start listens on address and serves in the background.
// An empty address or ":0" picks a random free port.
func (s *Server) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			s.logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	s.logger.Info("Server listening", zap.String("address", listener.Addr().String()))

	return nil
}

// Stop shuts the server down, waiting up to five seconds for in-flight requests.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// Address returns the address the server is listening on.
func (s *Server) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// BaseURL returns the base URL for the server.
func (s *Server) BaseURL() string {
	return "http://" + s.Address()
}
