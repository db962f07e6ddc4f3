// Package wsrpc exposes the same JSON-RPC surface as the stdio loop over a
// WebSocket endpoint: one request per text message, one reply per message,
// routed through the shared method router so the two transports cannot
// drift apart.
package wsrpc

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/openshed/scenebridge/internal/config"
	"github.com/openshed/scenebridge/internal/envelope"
	"github.com/openshed/scenebridge/internal/rpc"
	"github.com/openshed/scenebridge/internal/server"
)

const readHeaderTimeout = 5 * time.Second

// Server is the WebSocket transport. Each connection runs its own read
// loop; shutdown/exit close that connection only, never the process.
type Server struct {
	log      *slog.Logger
	opts     *config.Options
	router   *server.Server
	upgrader websocket.Upgrader

	srv *http.Server

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// New builds the WebSocket transport over the shared method router.
func New(log *slog.Logger, opts *config.Options, router *server.Server) *Server {
	return &Server{
		log:    log.With("component", "wsrpc"),
		opts:   opts,
		router: router,
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

// Handler upgrades any path to a WebSocket session. Exposed separately so
// tests can serve it through httptest.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handleUpgrade)
}

// Start binds the configured address and serves in the background until
// Close.
func (s *Server) Start() (net.Addr, error) {
	if s.opts.WSAddr == "" {
		return nil, fmt.Errorf("websocket transport: no address configured")
	}

	ln, err := net.Listen("tcp", s.opts.WSAddr)
	if err != nil {
		return nil, fmt.Errorf("websocket transport: listen %s: %w", s.opts.WSAddr, err)
	}

	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			s.log.Error("WebSocket server stopped", "error", err)
		}
	}()
	s.log.Info("WebSocket transport listening", "addr", ln.Addr().String())

	return ln.Addr(), nil
}

// Close stops the listener and force-closes live sessions. Shutdown does
// not wait for hijacked connections, so the remaining sockets are closed
// explicitly to unblock their read loops.
func (s *Server) Close(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}

	err := s.srv.Shutdown(ctx)

	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.conns = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()

	return err
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed", "error", err, "remote", r.RemoteAddr)

		return
	}

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	s.log.Debug("Session opened", "remote", conn.RemoteAddr().String())
	s.serveConn(r.Context(), conn)

	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// serveConn runs one session: read a message, route it, write the reply.
// The envelope per message matches the stdio loop line-for-line, including
// the null-id invalid_json answer for unparseable payloads.
func (s *Server) serveConn(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()
	conn.SetReadLimit(rpc.MaxLineSize)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("Session read failed", "error", err)
			}

			return
		}

		data = bytes.TrimSpace(data)
		if len(data) == 0 {
			continue
		}

		var (
			resp *rpc.Response
			stop bool
		)
		req, err := rpc.DecodeRequest(data)
		if err != nil {
			s.log.Warn("Undecodable message", "error", err)
			r := rpc.NewError(nil, envelope.CodeInvalidJSON, "invalid JSON")
			resp = &r
		} else {
			resp, stop = s.router.Handle(ctx, req)
		}

		if resp != nil {
			if err := conn.WriteJSON(resp); err != nil {
				s.log.Warn("Failed to write reply", "error", err)

				return
			}
		}
		if stop {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))

			return
		}
	}
}
