package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"callcenter/config"
	"callcenter/internal/capability"
	"callcenter/internal/dispatch"
	"callcenter/internal/metrics"
	"callcenter/internal/protocol"
	"callcenter/internal/session"
	"callcenter/util"
)

// StatusSource snapshots the dispatcher.  *dispatch.Loop implements it.
type StatusSource interface {
	Status(ctx context.Context) (dispatch.Status, error)
}

// WebServer exposes the dispatcher over HTTP:
//
//	/metrics  Prometheus exposition
//	/health   liveness
//	/status   dispatcher and metrics snapshot as JSON
//	/ws       the request/reply protocol over a WebSocket
type WebServer struct {
	Addr     string
	Status   StatusSource
	Dispatch *capability.Dispatch // serves /ws sessions
	Metrics  *metrics.Collector
	Logger   *util.Logger

	upgrader websocket.Upgrader
}

// StatusResponse is the body of /status.
type StatusResponse struct {
	Dispatcher dispatch.Status  `json:"dispatcher"`
	Metrics    metrics.Snapshot `json:"metrics"`
}

// Handler returns the routed HTTP handler.  Requests are served with
// the context of the request; WebSocket sessions end when it does.
func (w *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", w.Metrics.Handler())
	mux.HandleFunc("GET /health", w.handleHealth)
	mux.HandleFunc("GET /status", w.handleStatus)
	mux.HandleFunc("GET /ws", w.handleWS)
	return mux
}

// Run serves on Addr until ctx is cancelled.
func (w *WebServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", w.Addr)
	if err != nil {
		return fmt.Errorf("http listen on %s: %w", w.Addr, err)
	}
	return w.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down within
// config.DefaultGracePeriod.
func (w *WebServer) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           w.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	w.Logger.Info("http on %s", ln.Addr())

	select {
	case err := <-errCh:
		return fmt.Errorf("http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.DefaultGracePeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http: %w", err)
	}
	return nil
}

func (w *WebServer) handleHealth(rw http.ResponseWriter, _ *http.Request) {
	writeJSON(rw, http.StatusOK, map[string]string{"status": "ok"})
}

func (w *WebServer) handleStatus(rw http.ResponseWriter, r *http.Request) {
	st, err := w.Status.Status(r.Context())
	if err != nil {
		writeJSON(rw, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(rw, http.StatusOK, StatusResponse{Dispatcher: st, Metrics: w.Metrics.Snapshot()})
}

func (w *WebServer) handleWS(rw http.ResponseWriter, r *http.Request) {
	conn, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		w.Logger.Debug("websocket upgrade from %s: %v", r.RemoteAddr, err)
		return
	}
	codec := protocol.NewWSCodec(conn)
	defer codec.Close()

	sess := session.New(conn.NetConn(), nil, nil, w.Logger.With("ws"))
	if err := w.Dispatch.Serve(r.Context(), sess, codec); err != nil {
		sess.Logger.Warn("session ended: %v", err)
	}
}

func writeJSON(rw http.ResponseWriter, code int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)
	_ = json.NewEncoder(rw).Encode(v)
}
