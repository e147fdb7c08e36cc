package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codefionn/loopdriver/internal/consts"
	"github.com/codefionn/loopdriver/internal/logger"
)

// Server exposes /metrics, /healthz and /readyz.
type Server struct {
	router       *httprouter.Router
	server       *http.Server
	listener     net.Listener
	ready        atomic.Bool
	shutdownOnce sync.Once
}

// NewServer builds the HTTP server for c.
func NewServer(c *Collectors) *Server {
	s := &Server{router: httprouter.New()}
	s.router.Handler(http.MethodGet, "/metrics", promhttp.HandlerFor(c.Registry(), promhttp.HandlerOpts{}))
	s.router.GET("/healthz", s.handleHealthz)
	s.router.GET("/readyz", s.handleReadyz)
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.router }

// SetReady flips the /readyz answer.
func (s *Server) SetReady(ready bool) { s.ready.Store(ready) }

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	if !s.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Start listens on addr and serves in the background. It returns the bound
// address, which differs from addr when addr uses port 0.
func (s *Server) Start(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	s.listener = ln
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: consts.Timeout5Seconds,
		WriteTimeout:      consts.Timeout10Seconds,
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped: %v", err)
		}
	}()
	logger.Info("metrics server listening on %s", ln.Addr())
	return ln.Addr().String(), nil
}

// Shutdown stops the server. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.server != nil {
			err = s.server.Shutdown(ctx)
		}
	})
	return err
}
