package scenebridge

import (
	"context"
	"io"

	"github.com/openshed/scenebridge/internal/proxy"
)

// RunProxy runs the stdio bootstrap proxy: it launches the backend process,
// answers handshake methods itself while the backend boots, queues other
// requests up to the configured bound, and replays them in order once the
// backend prints ReadyToken on stderr. It blocks until the backend exits or
// ctx is canceled.
//
// in carries client requests; out is the trusted protocol stream; diag
// receives backend noise diverted off the protocol stream (nil discards it).
//
// The backend binary comes from WithBackendPath, or PATH discovery when
// unset. Returns *BackendNotFoundError when no binary can be located and
// *BackendExitError when the backend dies uncleanly.
func RunProxy(ctx context.Context, in io.Reader, out, diag io.Writer, opts ...Option) error {
	options := applyOptions(opts)

	log := options.Logger
	if log == nil {
		log = NopLogger()
	}

	child := proxy.NewExecChild(log, options)

	return proxy.New(log, options, child, out, diag).Run(ctx, in)
}
