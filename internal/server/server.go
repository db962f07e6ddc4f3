// Package server implements the backend's stdio transport: a blocking
// line-delimited JSON-RPC loop routing the well-known methods and handing
// tools/call to the dispatcher.
package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/openshed/scenebridge/internal/config"
	"github.com/openshed/scenebridge/internal/envelope"
	"github.com/openshed/scenebridge/internal/rpc"
	"github.com/openshed/scenebridge/internal/tools"
)

// Server routes decoded requests. One Server may serve multiple transports;
// the stdio loop in Serve is the canonical one.
type Server struct {
	log      *slog.Logger
	opts     *config.Options
	registry *tools.Registry
	call     tools.CallFunc
}

// New builds a router over the given registry. call runs a tool through the
// dispatcher; the registry itself is only consulted for tools/list.
func New(log *slog.Logger, opts *config.Options, registry *tools.Registry, call tools.CallFunc) *Server {
	return &Server{
		log:      log.With("component", "server"),
		opts:     opts,
		registry: registry,
		call:     call,
	}
}

// Handle routes one request. The response is nil for notifications; stop
// reports that the transport should close after writing any reply.
func (s *Server) Handle(ctx context.Context, req rpc.Request) (*rpc.Response, bool) {
	if req.IsNotification() {
		switch req.Method {
		case rpc.MethodInitialized:
			s.log.Debug("Client initialized")
		case rpc.MethodExit, rpc.MethodShutdown:
			return nil, true
		default:
			s.log.Debug("Ignoring notification", "method", req.Method)
		}

		return nil, false
	}

	switch req.Method {
	case rpc.MethodInitialize:
		result := rpc.NewInitializeResult(s.opts.EffectiveServerName(), s.opts.EffectiveServerVersion())

		return respond(rpc.NewResult(req.ID, result)), false

	case rpc.MethodPing:
		return respond(rpc.NewResult(req.ID, map[string]any{"ok": true})), false

	case rpc.MethodToolsList:
		return respond(rpc.NewResult(req.ID, map[string]any{"tools": s.registry.Specs()})), false

	case rpc.MethodToolsCall:
		return s.handleToolCall(ctx, req), false

	case rpc.MethodResourcesList:
		return respond(rpc.NewResult(req.ID, map[string]any{"resources": []any{}})), false

	case rpc.MethodPromptsList:
		return respond(rpc.NewResult(req.ID, map[string]any{"prompts": []any{}})), false

	case rpc.MethodShutdown:
		return respond(rpc.NewResult(req.ID, map[string]any{"ok": true})), true

	case rpc.MethodExit:
		return respond(rpc.NewResult(req.ID, map[string]any{})), true

	default:
		s.log.Warn("Unknown method", "method", req.Method)

		return respond(rpc.NewError(req.ID, envelope.CodeMethodNotFound,
			fmt.Sprintf("method not found: %s", req.Method))), false
	}
}

func (s *Server) handleToolCall(ctx context.Context, req rpc.Request) *rpc.Response {
	cp, err := rpc.DecodeCallParams(req.Params)
	if err != nil {
		s.log.Warn("Malformed tools/call params", "error", err)

		return respond(rpc.NewError(req.ID, envelope.CodeInvalidRequest,
			"params must be an object with name and arguments"))
	}

	var res envelope.Result
	if cp.Name == "" {
		res = envelope.Fail(envelope.CodeInvalidArguments, "name must be a non-empty string")
	} else {
		res = s.call(ctx, cp.Name, cp.Arguments)
	}

	// Tool outcomes, including failures, ride in a result payload. Error
	// replies are reserved for transport and routing problems.
	return respond(rpc.NewResult(req.ID, rpc.NewToolResult(res)))
}

// Serve runs the blocking stdio loop until exit/shutdown, EOF, or context
// cancellation. The readiness token goes to diag (stderr), never out, so
// the bootstrap proxy can watch for it without touching the protocol
// stream.
func (s *Server) Serve(ctx context.Context, in io.Reader, out, diag io.Writer) error {
	if diag != nil {
		fmt.Fprintln(diag, rpc.ReadyToken)
	}
	s.log.Info("Stdio server started",
		"server", s.opts.EffectiveServerName(),
		"version", s.opts.EffectiveServerVersion())

	enc := json.NewEncoder(out)
	scanner := bufio.NewScanner(in)
	buf := make([]byte, rpc.MaxLineSize)
	scanner.Buffer(buf, rpc.MaxLineSize)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var (
			resp *rpc.Response
			stop bool
		)
		req, err := rpc.DecodeRequest(line)
		if err != nil {
			s.log.Warn("Undecodable request line", "error", err)
			resp = respond(rpc.NewError(nil, envelope.CodeInvalidJSON, "invalid JSON"))
		} else {
			resp, stop = s.Handle(ctx, req)
		}

		if resp != nil {
			if err := enc.Encode(resp); err != nil {
				return fmt.Errorf("failed to write response: %w", err)
			}
		}
		if stop {
			s.log.Info("Stdio server stopping", "method", req.Method)

			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stdin scanner: %w", err)
	}

	s.log.Info("Stdio server stopped on EOF")

	return nil
}

func respond(r rpc.Response) *rpc.Response {
	return &r
}
