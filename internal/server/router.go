package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loykin/mockctl/internal/metrics"
	"github.com/loykin/mockctl/internal/process"
	"github.com/loykin/mockctl/internal/supervisor"
)

// Backend is the part of *supervisor.Supervisor the router needs.
type Backend interface {
	Status() ([]process.Status, error)
	StopAll(ctx context.Context) ([]supervisor.StopResult, error)
}

// Router provides embeddable HTTP handlers exposing the recorded mock servers.
// Endpoints:
//
//	GET  {basePath}/status        all recorded pids
//	GET  {basePath}/status?pid=N  a single recorded pid
//	POST {basePath}/stop          terminate every recorded pid, remove the pid file
//	GET  {basePath}/metrics       Prometheus exposition
//
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	backend  Backend
	basePath string
	metrics  http.Handler
}

// NewRouter constructs a new Router with configurable basePath.
// Example basePath: "/mocks" results in /mocks/status, /mocks/stop.
func NewRouter(backend Backend, basePath string) *Router {
	return &Router{backend: backend, basePath: sanitizeBase(basePath), metrics: metrics.Handler()}
}

// WithMetricsHandler replaces the default Prometheus handler.
func (r *Router) WithMetricsHandler(h http.Handler) *Router {
	if h != nil {
		r.metrics = h
	}
	return r
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/status", r.handleStatus)
	group.POST("/stop", r.handleStop)
	group.GET("/metrics", gin.WrapH(r.metrics))
	return g
}

// NewServer listens on addr and serves the router in the background. Listen
// errors are returned immediately; the caller shuts the server down.
func NewServer(addr, basePath string, backend Backend) (*http.Server, net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}
	r := NewRouter(backend, basePath)
	server := &http.Server{
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.Serve(ln) }()
	return server, ln.Addr(), nil
}

// --- Handlers ---

type errorResp struct {
	Error string `json:"error"`
}

type stopResp struct {
	Stopped int         `json:"stopped"`
	Failed  []stopError `json:"failed,omitempty"`
}

type stopError struct {
	PID   int    `json:"pid"`
	Error string `json:"error"`
}

func (r *Router) handleStatus(c *gin.Context) {
	sts, err := r.backend.Status()
	if err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	raw, ok := c.GetQuery("pid")
	if !ok {
		writeJSON(c, http.StatusOK, sts)
		return
	}
	pid, valid := parsePID(raw)
	if !valid {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "pid must be an integer greater than 1"})
		return
	}
	for _, st := range sts {
		if st.PID == pid {
			writeJSON(c, http.StatusOK, st)
			return
		}
	}
	writeJSON(c, http.StatusNotFound, errorResp{Error: "pid is not recorded"})
}

func (r *Router) handleStop(c *gin.Context) {
	results, err := r.backend.StopAll(c.Request.Context())
	if err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	resp := stopResp{Stopped: len(results)}
	for _, res := range supervisor.Failed(results) {
		resp.Stopped--
		resp.Failed = append(resp.Failed, stopError{PID: res.PID, Error: res.Err.Error()})
	}
	writeJSON(c, http.StatusOK, resp)
}

// Shutdown stops srv, waiting at most timeout for in-flight requests.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
