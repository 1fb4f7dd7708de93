package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apperrors "github.com/vango-dev/slicestore/internal/errors"
	"github.com/vango-dev/slicestore/pkg/store"
)

// Server serves one store over HTTP and WebSocket.
type Server struct {
	config *ServerConfig
	logger *slog.Logger

	// mu serializes dispatches and state reads made through the server.
	mu       sync.Mutex
	dispatch func(ctx context.Context, action store.Action) error
	state    func() (any, error)

	unsubscribe func()
	feed        *feed

	httpServer *http.Server
}

// New creates a Server for st and subscribes its state feed to the store.
// Call Shutdown (or cancel Run's context) to unsubscribe.
func New[S any](st *store.Store[S], config *ServerConfig) *Server {
	config = config.withDefaults()
	logger := slog.Default().With("component", "server")

	s := &Server{
		config:   config,
		logger:   logger,
		dispatch: st.DispatchContext,
		state: func() (any, error) {
			v, err := st.State()
			return v, err
		},
	}
	s.feed = newFeed(s)
	s.unsubscribe = st.Subscribe(s.feed.publishState)
	return s
}

// SetLogger sets the server logger.
func (s *Server) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Post("/dispatch", s.handleDispatch)
	r.Get("/state", s.handleState)
	r.Get("/ws", s.feed.serveWS)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.config.MetricsHandler != nil {
		r.Handle(s.config.MetricsPath, s.config.MetricsHandler)
	}
	return r
}

// Run listens on the configured address until ctx is done, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return apperrors.New("S020").Wrap(err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return apperrors.New("S020").Wrap(err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes every feed client, unsubscribes from the store and stops
// the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.unsubscribe()
	s.feed.close()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}
	s.logger.Info("server shutdown complete")
	return nil
}

// Dispatch dispatches action, serialized with the server's other dispatches.
func (s *Server) Dispatch(ctx context.Context, action store.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatch(ctx, action)
}

// State returns the current state, serialized with the server's dispatches.
func (s *Server) State() (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, s.config.MaxMessageSize)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		status := http.StatusBadRequest
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		s.writeError(w, status, apperrors.New("S021").Wrap(err))
		return
	}

	action, err := store.ParseAction(json.RawMessage(data))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.mu.Lock()
	err = s.dispatch(r.Context(), action)
	var st any
	if err == nil {
		st, err = s.state()
	}
	s.mu.Unlock()

	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st, err := s.State()
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	coded := apperrors.FromStore(err)
	s.writeError(w, StatusFor(coded.Code), coded)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err *apperrors.Error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", err.Code, "error", err.Wrapped)
	}
	writeJSON(w, status, err)
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(code string) int {
	switch code {
	case "S021", "S030", "S031", "S032":
		return http.StatusBadRequest
	case "S035":
		return http.StatusNotFound
	case "S033":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
