// Package httpapi exposes the tool surface over a local HTTP endpoint for
// clients that prefer request/response over a stdio session: health probes,
// direct tool calls, and operation polling.
//
// Tool outcomes, including failures, ride in the normalized envelope with a
// 200 status; HTTP status codes are reserved for transport-level conditions
// (malformed requests, unknown operation ids, dispatcher timeouts).
package httpapi

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/openshed/scenebridge/internal/config"
	"github.com/openshed/scenebridge/internal/envelope"
	"github.com/openshed/scenebridge/internal/ops"
	"github.com/openshed/scenebridge/internal/scene"
	"github.com/openshed/scenebridge/internal/tools"
)

// readHeaderTimeout bounds how long a client may dawdle over request headers.
const readHeaderTimeout = 5 * time.Second

// Server is the HTTP transport. Reads (health, operation polling) go to the
// stores directly; tool calls go through the dispatcher so mutations stay
// serialized on the main thread.
type Server struct {
	log   *slog.Logger
	opts  *config.Options
	call  tools.CallFunc
	scene *scene.Store
	ops   *ops.Manager

	srv *http.Server
}

// New builds the HTTP transport. Start binds the configured address.
func New(log *slog.Logger, opts *config.Options, call tools.CallFunc, store *scene.Store, opsMgr *ops.Manager) *Server {
	return &Server{
		log:   log.With("component", "httpapi"),
		opts:  opts,
		call:  call,
		scene: store,
		ops:   opsMgr,
	}
}

// Handler returns the route table. Exposed separately so tests can drive it
// through httptest without binding a socket.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	r.Post("/call", s.handleCall)
	r.Get("/operations/{id}", s.handleOperation)
	r.Post("/operations/{id}/cancel", s.handleCancel)

	return r
}

// Start binds the configured address and serves in the background until
// Close. The bound address is returned so callers can report it, which
// matters when the configured port is 0.
func (s *Server) Start() (net.Addr, error) {
	if s.opts.HTTPAddr == "" {
		return nil, fmt.Errorf("http transport: no address configured")
	}

	ln, err := net.Listen("tcp", s.opts.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("http transport: listen %s: %w", s.opts.HTTPAddr, err)
	}

	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server stopped", "error", err)
		}
	}()
	s.log.Info("HTTP transport listening", "addr", ln.Addr().String())

	return ln.Addr(), nil
}

// Close shuts the listener down, letting in-flight requests finish within
// ctx. Safe to call when Start never ran.
func (s *Server) Close(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}

	return s.srv.Shutdown(ctx)
}

// handleHealth reports liveness with a first-page scene summary. It reads
// the store directly, so it stays responsive even when the executor is
// wedged behind a slow handler.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"host":   "headless",
		"scene":  s.scene.Snapshot(0, scene.DefaultChunkSize),
	})
}

// callRequest is the POST /call body.
type callRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	var req callRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Warn("Malformed /call body", "error", err)
		s.writeJSON(w, http.StatusBadRequest,
			envelope.Fail(envelope.CodeInvalidJSON, "body must be a JSON object with name and arguments"))

		return
	}
	if req.Name == "" {
		s.writeJSON(w, http.StatusBadRequest,
			envelope.Fail(envelope.CodeInvalidArguments, "name must be a non-empty string"))

		return
	}
	if req.Arguments == nil {
		req.Arguments = map[string]any{}
	}

	res := s.call(r.Context(), req.Name, req.Arguments)
	s.writeJSON(w, statusFor(res), res)
}

func (s *Server) handleOperation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := s.ops.Get(id)
	if !ok {
		s.writeJSON(w, http.StatusNotFound,
			envelope.Failf(envelope.CodeNotFound, "operation not found: %s", id))

		return
	}

	s.writeJSON(w, http.StatusOK, envelope.OK(rec))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.ops.RequestCancel(id) {
		s.writeJSON(w, http.StatusNotFound,
			envelope.Failf(envelope.CodeNotFound, "operation not found: %s", id))

		return
	}

	rec, _ := s.ops.Get(id)
	s.writeJSON(w, http.StatusOK, envelope.OK(map[string]any{
		"operation_id":     id,
		"state":            rec.Status,
		"cancel_requested": true,
	}))
}

// statusFor maps an envelope to its HTTP status. Handler failures stay 200
// like every other transport; only a dispatcher timeout surfaces as a
// gateway problem.
func statusFor(res envelope.Result) int {
	if !res.OK && res.Error != nil && res.Error.Code == envelope.CodeTimeout {
		return http.StatusGatewayTimeout
	}

	return http.StatusOK
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Warn("Failed to write response", "error", err)
	}
}
