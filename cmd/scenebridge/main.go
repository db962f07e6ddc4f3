// Command scenebridge runs the headless scene host with its stdio tool
// server, plus optional HTTP and WebSocket listeners.
//
// Agent clients normally launch it through scenebridge-proxy, but it can be
// run directly for debugging:
//
//	scenebridge --debug
//	scenebridge --http 127.0.0.1:8600 --ws 127.0.0.1:8601
//
// The protocol stream uses stdin/stdout; logs and the readiness token go to
// stderr.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	scenebridge "github.com/openshed/scenebridge"
)

// version is set by ldflags during release builds.
var version = "dev"

func main() {
	httpAddr := flag.String("http", "", "serve the HTTP transport on this address (e.g. 127.0.0.1:8600)")
	wsAddr := flag.String("ws", "", "serve the WebSocket transport on this address")
	debug := flag.Bool("debug", false, "enable debug logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("scenebridge %s (protocol %s)\n", version, scenebridge.ProtocolVersion)

		return
	}

	if err := run(*httpAddr, *wsAddr, *debug); err != nil {
		fmt.Fprintf(os.Stderr, "scenebridge: %v\n", err)
		os.Exit(1)
	}
}

func run(httpAddr, wsAddr string, debug bool) error {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	// stdout carries the protocol stream, so all logging goes to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []scenebridge.Option{
		scenebridge.WithLogger(logger),
		scenebridge.WithServerVersion(version),
	}
	if httpAddr != "" {
		opts = append(opts, scenebridge.WithHTTPAddr(httpAddr))
	}
	if wsAddr != "" {
		opts = append(opts, scenebridge.WithWSAddr(wsAddr))
	}

	bridge := scenebridge.New()
	if err := bridge.Start(ctx, opts...); err != nil {
		return fmt.Errorf("failed to start bridge: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- bridge.ServeStdio(ctx, os.Stdin, os.Stdout, os.Stderr)
	}()

	// A signal cannot interrupt a read blocked on stdin, so shutdown does
	// not wait for the serve goroutine; closing the bridge and returning
	// lets the process exit.
	var err error
	select {
	case err = <-serveErr:
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	if closeErr := bridge.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	return err
}
