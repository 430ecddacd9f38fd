// Package rendererlink carries bridge messages between web content and the
// native host over a WebSocket
package rendererlink

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jellyshell/jellyshell/internal/bridge"
	"github.com/jellyshell/jellyshell/internal/logging"
	"github.com/jellyshell/jellyshell/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const writeTimeout = 5 * time.Second

// MessageHandler consumes raw messages from web content
type MessageHandler interface {
	Handle(ctx context.Context, raw []byte) error
}

// Options configures a Server
type Options struct {
	Handler MessageHandler
	// Script returns the adapter sent to every new connection
	Script   func() (string, error)
	Ring     *logging.Ring
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

// TypeHistoryState is sent by the script whenever the web view's history
// changes. The link consumes it; it never reaches the message handler.
const TypeHistoryState = "historyState"

type linkMessage struct {
	Type string `json:"type"`
	Args struct {
		CanGoBack bool `json:"canGoBack"`
	} `json:"args"`
}

type conn struct {
	id        string
	ws        *websocket.Conn
	writeMu   sync.Mutex
	canGoBack atomic.Bool
}

func (c *conn) writeJSON(v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Server exposes /bridge, /script, /logs and /metrics. The most recent
// connection is the active renderer.
type Server struct {
	handler  MessageHandler
	script   func() (string, error)
	ring     *logging.Ring
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader

	mu     sync.Mutex
	conns  map[string]*conn
	active *conn
	wg     sync.WaitGroup
}

// NewServer creates a link server
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		handler:  opts.Handler,
		script:   opts.Script,
		ring:     opts.Ring,
		gatherer: opts.Gatherer,
		logger:   logger.Named("link"),
		metrics:  opts.Metrics,
		upgrader: websocket.Upgrader{
			// Web content is served by the media server, not by us.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[string]*conn),
	}
}

// Routes returns the HTTP handler for all endpoints
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/bridge", s.handleBridge)
	mux.HandleFunc("/script", s.handleScript)
	mux.HandleFunc("/logs", s.handleLogs)
	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// Serve accepts connections on l until ctx is cancelled
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(l)
	}()
	s.logger.Info("renderer link listening", zap.Stringer("addr", l.Addr()))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.CloseConnections()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// ListenAndServe listens on addr and serves until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// GoBack asks the active renderer to navigate back. It reports false without
// sending anything when the renderer has no history to go back to.
// Implements bridge.Renderer.
func (s *Server) GoBack() bool {
	s.mu.Lock()
	c := s.active
	s.mu.Unlock()
	if c == nil || !c.canGoBack.Load() {
		return false
	}
	return s.Send(map[string]string{"type": "goBack"}) == nil
}

// ErrNoRenderer is returned by Send when nothing is connected
var ErrNoRenderer = errors.New("rendererlink: no renderer connected")

// Send writes a JSON message to the active renderer
func (s *Server) Send(v any) error {
	s.mu.Lock()
	c := s.active
	s.mu.Unlock()
	if c == nil {
		return ErrNoRenderer
	}
	if err := c.writeJSON(v); err != nil {
		s.logger.Debug("send failed", zap.String("conn", c.id), zap.Error(err))
		return err
	}
	return nil
}

// Connections returns the number of open connections
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// CloseConnections closes every open connection and waits for their readers
func (s *Server) CloseConnections() {
	s.mu.Lock()
	for _, c := range s.conns {
		c.ws.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) handleBridge(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &conn{id: uuid.New().String(), ws: ws}
	s.mu.Lock()
	s.conns[c.id] = c
	s.active = c
	s.wg.Add(1)
	s.mu.Unlock()
	s.metrics.ConnectionOpened()
	s.logger.Info("renderer connected", zap.String("conn", c.id), zap.String("remote", r.RemoteAddr))

	defer func() {
		s.mu.Lock()
		delete(s.conns, c.id)
		if s.active == c {
			s.active = nil
		}
		s.mu.Unlock()
		ws.Close()
		s.metrics.ConnectionClosed()
		s.logger.Info("renderer disconnected", zap.String("conn", c.id))
		s.wg.Done()
	}()

	if s.script != nil {
		script, err := s.script()
		if err != nil {
			s.logger.Error("cannot load native shell script", zap.Error(err))
		} else if err := c.writeJSON(map[string]string{"type": "injectScript", "script": script}); err != nil {
			s.logger.Warn("script injection failed", zap.Error(err))
			return
		}
	}

	ctx := r.Context()
	for {
		msgType, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("read error", zap.String("conn", c.id), zap.Error(err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		var peek linkMessage
		if sonic.Unmarshal(data, &peek) == nil && peek.Type == TypeHistoryState {
			c.canGoBack.Store(peek.Args.CanGoBack)
			continue
		}
		if s.handler == nil {
			continue
		}
		if err := s.handler.Handle(ctx, data); errors.Is(err, bridge.ErrTerminated) {
			c.writeMu.Lock()
			ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "terminated"),
				time.Now().Add(writeTimeout))
			c.writeMu.Unlock()
			return
		}
	}
}

func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.script == nil {
		s.writeError(w, http.StatusNotFound, "No script configured")
		return
	}
	script, err := s.script()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/javascript")
	w.Write([]byte(script))
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	entries := []logging.Entry{}
	if s.ring != nil {
		entries = s.ring.Entries()
	}
	s.writeJSON(w, http.StatusOK, entries)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := sonic.Marshal(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
