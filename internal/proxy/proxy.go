// Package proxy implements the stdio bootstrap proxy: a thin parent that
// keeps the client-facing stdout protocol-clean while the slow-starting
// backend boots, answers handshake methods itself, queues early tool calls,
// and replays them once the backend signals readiness on stderr.
package proxy

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/openshed/scenebridge/internal/config"
	"github.com/openshed/scenebridge/internal/errors"
	"github.com/openshed/scenebridge/internal/rpc"
	"github.com/openshed/scenebridge/internal/tools"
	"golang.org/x/sync/errgroup"
)

// State is the proxy lifecycle phase.
type State string

// Proxy states. Booting answers handshakes and queues the rest; ready
// forwards verbatim; shuttingDown stops accepting work.
const (
	StateBooting      State = "booting"
	StateReady        State = "ready"
	StateShuttingDown State = "shutting_down"
)

// queuedRequest is one raw client line held while the backend boots.
type queuedRequest struct {
	id  json.RawMessage
	raw []byte
}

func (q queuedRequest) isNotification() bool {
	return len(q.id) == 0 || bytes.Equal(q.id, []byte("null"))
}

// Proxy supervises the backend child and pumps its three streams. Exactly
// one invariant matters on every path: a client request carrying a non-null
// id gets exactly one reply, from the backend when possible, synthesized
// when not.
type Proxy struct {
	log   *slog.Logger
	opts  *config.Options
	child Child
	specs []map[string]any

	out    io.Writer
	diag   io.Writer
	outMu  sync.Mutex
	diagMu sync.Mutex

	// childMu serializes backend stdin writes and is held across the
	// ready-transition replay, so no forwarded line can overtake a queued
	// one.
	childMu sync.Mutex

	mu       sync.Mutex
	ran      bool
	state    State
	sawReady bool
	queue    []queuedRequest

	done chan struct{}
}

// New builds a proxy over the given child. out is the trusted protocol
// stream; diag receives backend noise and pass-through stderr.
func New(log *slog.Logger, opts *config.Options, child Child, out, diag io.Writer) *Proxy {
	if diag == nil {
		diag = io.Discard
	}

	return &Proxy{
		log:   log.With("component", "proxy"),
		opts:  opts,
		child: child,
		specs: tools.StaticSpecs(),
		out:   out,
		diag:  diag,
		state: StateBooting,
		done:  make(chan struct{}),
	}
}

// Run starts the backend and pumps until it exits. Synthesized replies for
// requests stranded by a backend that died while booting are written before
// Run returns.
func (p *Proxy) Run(ctx context.Context, in io.Reader) error {
	p.mu.Lock()
	if p.ran {
		p.mu.Unlock()

		return errors.ErrProxyClosed
	}
	p.ran = true
	p.mu.Unlock()

	if err := p.child.Start(ctx); err != nil {
		p.log.Error("Failed to start backend", "error", err)

		return err
	}
	p.log.Info("Bootstrap proxy running",
		"state", StateBooting,
		"queue_max", p.opts.EffectiveProxyQueueMax())

	go func() {
		select {
		case <-ctx.Done():
			p.log.Warn("Context canceled, stopping backend")
			_ = p.child.Kill()
		case <-p.done:
		}
	}()

	var pumps errgroup.Group
	pumps.Go(func() error {
		p.pumpChildStderr()

		return nil
	})
	pumps.Go(func() error {
		p.pumpChildStdout()

		return nil
	})

	// The client pump may stay parked on a blocking read after the child
	// dies; it exits on client EOF like the rest of the process.
	go p.pumpClientStdin(in)

	// Pipe readers must drain to EOF before Wait reaps the process.
	_ = pumps.Wait()
	waitErr := p.child.Wait()
	close(p.done)

	p.mu.Lock()
	sawReady := p.sawReady
	p.state = StateShuttingDown
	queued := p.queue
	p.queue = nil
	p.mu.Unlock()

	if !sawReady && len(queued) > 0 {
		p.log.Warn("Backend exited before ready", "queued", len(queued), "error", waitErr)
		for _, item := range queued {
			if item.isNotification() {
				continue
			}
			p.writeOut(rpc.NewResult(item.id, rpc.ToolResult{
				IsError: true,
				Content: []rpc.TextContent{{Type: "text", Text: "Backend exited before ready"}},
			}))
		}
	}

	if waitErr != nil {
		p.log.Warn("Backend exited", "error", waitErr)

		return waitErr
	}
	p.log.Info("Backend exited cleanly")

	return nil
}

// pumpClientStdin consumes client lines: answer, queue, or forward
// depending on state. Undecodable lines are dropped with a log; there is
// no id to answer on.
func (p *Proxy) pumpClientStdin(in io.Reader) {
	scanner := bufio.NewScanner(in)
	buf := make([]byte, rpc.MaxLineSize)
	scanner.Buffer(buf, rpc.MaxLineSize)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		req, err := rpc.DecodeRequest(line)
		if err != nil {
			p.log.Warn("Dropping undecodable client line", "error", err)

			continue
		}

		if p.currentState() == StateBooting {
			if p.answerBootstrap(req) {
				if req.Method == rpc.MethodShutdown || req.Method == rpc.MethodExit {
					p.log.Info("Client ended session while booting", "method", req.Method)
					p.beginShutdown()

					return
				}

				continue
			}
			p.enqueue(req.ID, line)

			continue
		}

		if err := p.writeChild(line); err != nil {
			p.log.Error("Failed to forward to backend", "error", err)
			p.beginShutdown()

			return
		}
		if req.Method == rpc.MethodShutdown || req.Method == rpc.MethodExit {
			p.log.Info("Client ended session", "method", req.Method)
			p.setState(StateShuttingDown)

			return
		}
	}

	if err := scanner.Err(); err != nil {
		p.log.Warn("Client stdin scanner error", "error", err)
	}
	p.log.Info("Client stdin closed")
	p.beginShutdown()
}

// answerBootstrap replies to the handshake methods the proxy can truthfully
// answer without a backend. It reports false for anything that must wait.
func (p *Proxy) answerBootstrap(req rpc.Request) bool {
	var result any
	switch req.Method {
	case rpc.MethodInitialize:
		result = rpc.NewInitializeResult(
			p.opts.EffectiveServerName()+"-proxy",
			p.opts.EffectiveServerVersion())
	case rpc.MethodPing:
		result = map[string]any{"ok": true}
	case rpc.MethodToolsList:
		result = map[string]any{"tools": p.specs}
	case rpc.MethodResourcesList:
		result = map[string]any{"resources": []any{}}
	case rpc.MethodPromptsList:
		result = map[string]any{"prompts": []any{}}
	case rpc.MethodShutdown:
		result = map[string]any{"ok": true}
	case rpc.MethodExit:
		result = map[string]any{}
	default:
		return false
	}

	if !req.IsNotification() {
		p.writeOut(rpc.NewResult(req.ID, result))
	}

	return true
}

// enqueue holds a raw line for replay, evicting the oldest entry when the
// queue is full. The queue bridges a startup race, not a durable mailbox.
func (p *Proxy) enqueue(id json.RawMessage, line []byte) {
	item := queuedRequest{
		id:  append(json.RawMessage(nil), id...),
		raw: append([]byte(nil), line...),
	}

	var overflow bool
	var dropped string
	p.mu.Lock()
	if len(p.queue) >= p.opts.EffectiveProxyQueueMax() {
		overflow = true
		dropped = string(p.queue[0].id)
		p.queue = p.queue[1:]
	}
	p.queue = append(p.queue, item)
	depth := len(p.queue)
	p.mu.Unlock()

	if overflow {
		p.log.Warn("Boot queue full, dropping oldest request", "id", dropped)
	}
	p.log.Debug("Queued request while booting", "id", string(item.id), "depth", depth)
}

// markReady flips booting -> ready and replays the queue verbatim, in
// arrival order, exactly once. childMu is held throughout so no freshly
// forwarded line can slip in ahead of the replay.
func (p *Proxy) markReady() {
	p.childMu.Lock()
	defer p.childMu.Unlock()

	p.mu.Lock()
	if p.state != StateBooting {
		p.mu.Unlock()

		return
	}
	p.state = StateReady
	p.sawReady = true
	queued := p.queue
	p.queue = nil
	p.mu.Unlock()

	p.log.Info("Backend ready", "replaying", len(queued))
	for _, item := range queued {
		if _, err := p.child.Stdin().Write(append(item.raw, '\n')); err != nil {
			p.log.Error("Failed to replay queued request", "id", string(item.id), "error", err)
		}
	}
}

// pumpChildStderr watches for the readiness token and passes every line
// through to the diagnostic stream.
func (p *Proxy) pumpChildStderr() {
	scanner := bufio.NewScanner(p.child.Stderr())
	buf := make([]byte, rpc.MaxLineSize)
	scanner.Buffer(buf, rpc.MaxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if bytes.Contains(line, []byte(rpc.ReadyToken)) {
			p.markReady()
		}
		p.writeDiag("backend-stderr", line)
	}
	if err := scanner.Err(); err != nil {
		p.log.Debug("Backend stderr scanner error", "error", err)
	}
}

// pumpChildStdout forwards protocol-shaped lines to the trusted stream and
// diverts everything else to diagnostics. The filtering holds in every
// state.
func (p *Proxy) pumpChildStdout() {
	scanner := bufio.NewScanner(p.child.Stdout())
	buf := make([]byte, rpc.MaxLineSize)
	scanner.Buffer(buf, rpc.MaxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if rpc.LooksLikeProtocol(line) {
			p.writeOutRaw(line)
		} else {
			p.writeDiag("backend-stdout", line)
		}
	}
	if err := scanner.Err(); err != nil {
		p.log.Debug("Backend stdout scanner error", "error", err)
	}
}

func (p *Proxy) currentState() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state
}

func (p *Proxy) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// beginShutdown stops accepting work and force-stops the backend. Used
// when the client goes away without a clean exit handshake.
func (p *Proxy) beginShutdown() {
	p.setState(StateShuttingDown)
	_ = p.child.Kill()
}

func (p *Proxy) writeChild(line []byte) error {
	p.childMu.Lock()
	defer p.childMu.Unlock()

	if _, err := p.child.Stdin().Write(line); err != nil {
		return err
	}
	_, err := p.child.Stdin().Write([]byte{'\n'})

	return err
}

func (p *Proxy) writeOut(resp rpc.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		p.log.Error("Failed to encode proxy response", "error", err)

		return
	}
	p.writeOutRaw(data)
}

func (p *Proxy) writeOutRaw(line []byte) {
	p.outMu.Lock()
	defer p.outMu.Unlock()

	_, _ = p.out.Write(line)
	_, _ = p.out.Write([]byte{'\n'})
}

func (p *Proxy) writeDiag(stream string, line []byte) {
	p.diagMu.Lock()
	defer p.diagMu.Unlock()

	fmt.Fprintf(p.diag, "[%s] %s\n", stream, line)
}
