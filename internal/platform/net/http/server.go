package http

import (
	"context"
	"errors"
	"net"
	stdhttp "net/http"
	"strings"
	"time"

	"garden/internal/platform/config"
	"garden/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// Server owns the root chi mux and the listener lifecycle
type Server struct {
	mux   *chi.Mux
	srv   *stdhttp.Server
	grace time.Duration
}

// NewServer reads PORT (":4000", "4000" or "host:port") and SHUTDOWN_GRACE
// from cfg, usually the CORE_API_ view
func NewServer(cfg config.Conf) *Server {
	addr := cfg.MayString("PORT", ":4000")
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}
	mux := chi.NewRouter()
	return &Server{
		mux:   mux,
		grace: cfg.MayDuration("SHUTDOWN_GRACE", 10*time.Second),
		srv:   &stdhttp.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second},
	}
}

// Router exposes the root mux for mounting
func (s *Server) Router() Router { return AdaptChi(s.mux) }

// Addr is the configured listen address
func (s *Server) Addr() string { return s.srv.Addr }

// Run listens, serves until ctx ends and then drains in-flight requests for
// at most the grace period. A failed bind is returned immediately
func (s *Server) Run(ctx context.Context) error {
	log := logger.Named("http")

	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	served := make(chan error, 1)
	go func() { served <- s.srv.Serve(ln) }()
	log.Info().Str("addr", ln.Addr().String()).Msg("http listening")

	select {
	case err := <-served:
		return ignoreClosed(err)
	case <-ctx.Done():
	}

	log.Info().Dur("grace", s.grace).Msg("http shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), s.grace)
	defer cancel()
	if err := s.srv.Shutdown(sctx); err != nil {
		return err
	}
	return ignoreClosed(<-served)
}

func ignoreClosed(err error) error {
	if errors.Is(err, stdhttp.ErrServerClosed) {
		return nil
	}
	return err
}
