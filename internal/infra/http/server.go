package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"telegram-imgbb-uploader/internal/infra/logging"
	"telegram-imgbb-uploader/internal/infra/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

// LivenessRouter answers GET / with body so hosting platforms see the process as up.
// It exposes no other route.
func LivenessRouter(body string, logger *zerolog.Logger) *chi.Mux {
	if logger == nil {
		logger = logging.Nop()
	}
	r := chi.NewRouter()
	r.Use(Recover(logger), TraceID(), RequestLog(logger))
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	})
	return r
}

// MetricsRouter serves the Prometheus registry on /metrics.
func MetricsRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return r
}

// Server is an http.Server that stops when its context does.
type Server struct {
	name string
	srv  *http.Server
	log  *zerolog.Logger
}

func NewServer(name string, port int, handler http.Handler, logger *zerolog.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Server{
		name: name,
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: logger,
	}
}

// Run listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("%s listen: %w", s.name, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("server", s.name).Str("addr", ln.Addr().String()).Msg("http server listening")
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s shutdown: %w", s.name, err)
		}
		s.log.Info().Str("server", s.name).Msg("http server stopped")
		return nil
	}
}
