// Command scenebridge-proxy is the stdio bootstrap proxy. Agent clients
// spawn it, and it spawns the scenebridge backend, queueing requests until
// the backend signals readiness and filtering its stdout down to protocol
// frames.
//
// By default the backend binary is discovered on PATH and in common install
// locations. An explicit backend command can be given after "--":
//
//	scenebridge-proxy
//	scenebridge-proxy --queue-max 64 -- scenebridge --debug
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	scenebridge "github.com/openshed/scenebridge"
)

func main() {
	queueMax := flag.Int("queue-max", 0, "cap on requests buffered before the backend is ready (0 uses the default)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	os.Exit(run(*queueMax, *debug, flag.Args()))
}

func run(queueMax int, debug bool, backendCmd []string) int {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []scenebridge.Option{scenebridge.WithLogger(logger)}
	if queueMax > 0 {
		opts = append(opts, scenebridge.WithProxyQueueMax(queueMax))
	}
	if len(backendCmd) > 0 {
		path := backendCmd[0]
		// A bare command name is resolved through PATH; anything with a
		// path separator is taken as given.
		if !strings.ContainsRune(path, os.PathSeparator) {
			resolved, err := exec.LookPath(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "scenebridge-proxy: backend %q not found in PATH: %v\n", path, err)

				return 127
			}
			path = resolved
		}
		opts = append(opts,
			scenebridge.WithBackendPath(path),
			scenebridge.WithBackendArgs(backendCmd[1:]...))
	}

	err := scenebridge.RunProxy(ctx, os.Stdin, os.Stdout, os.Stderr, opts...)
	if ctx.Err() != nil {
		// A signal kills the backend, which surfaces as an exit error
		// here. That is the requested shutdown, not a failure.
		logger.Info("Shutdown signal received")

		return 0
	}
	if err == nil {
		return 0
	}

	logger.Error("Proxy terminated", "error", err)

	var notFound *scenebridge.BackendNotFoundError
	if errors.As(err, &notFound) {
		return 127
	}

	// Mirror the backend's exit code so supervisors see the real cause.
	var exit *scenebridge.BackendExitError
	if errors.As(err, &exit) && exit.ExitCode > 0 {
		return exit.ExitCode
	}

	return 1
}
