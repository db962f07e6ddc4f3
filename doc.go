// Package scenebridge exposes a 3D host application's scene graph to
// external agents over a line-delimited JSON-RPC tool surface.
//
// The bridge solves one hard problem: host APIs are only safe on the host's
// main thread, while protocol requests arrive on arbitrary goroutines. Every
// tool call is queued as a job and executed by a drain callback the host
// invokes on its own thread; callers block until their job completes or a
// bounded timeout passes. In headless runs a built-in tick scheduler stands
// in for the host loop.
//
// # Basic Usage
//
// Start a bridge and serve the stdio protocol:
//
//	bridge := scenebridge.New()
//	defer bridge.Close()
//
//	err := bridge.Start(ctx,
//	    scenebridge.WithLogger(slog.Default()),
//	    scenebridge.WithCallTimeout(10*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := bridge.ServeStdio(ctx, os.Stdin, os.Stdout, os.Stderr); err != nil {
//	    log.Fatal(err)
//	}
//
// # Direct Calls
//
// Embedders can invoke tools without a transport:
//
//	res, err := bridge.Call(ctx, "studio.object.move", map[string]any{
//	    "name":     "Cube",
//	    "location": []float64{1, 2, 3},
//	})
//	if err != nil {
//	    log.Fatal(err) // lifecycle error, e.g. bridge not started
//	}
//	if !res.OK {
//	    log.Printf("move failed: %s: %s", res.Error.Code, res.Error.Message)
//	}
//
// # Host Integration
//
// A real host adopts the drain into its own timer system by injecting a
// Scheduler:
//
//	err := bridge.Start(ctx,
//	    scenebridge.WithScheduler(hostScheduler), // drives the drain on the UI thread
//	)
//
// # Lifecycle Helper
//
// WithBridge manages start and cleanup:
//
//	err := scenebridge.WithBridge(ctx, func(b *scenebridge.Bridge) error {
//	    res, err := b.Call(ctx, "studio.health", nil)
//	    if err != nil {
//	        return err
//	    }
//	    // process result...
//	    return nil
//	}, scenebridge.WithLogger(slog.Default()))
//
// # Bootstrap Proxy
//
// Hosts can take seconds to start. RunProxy launches the backend as a child
// process, answers handshake methods immediately, queues tool calls, and
// replays them once the backend prints its readiness token on stderr:
//
//	err := scenebridge.RunProxy(ctx, os.Stdin, os.Stdout, os.Stderr,
//	    scenebridge.WithBackendPath("/usr/local/bin/scenebridge"),
//	)
//
// # Error Handling
//
// Lifecycle failures are typed Go errors; tool failures are classified
// envelopes:
//
//	if errors.Is(err, scenebridge.ErrBridgeNotStarted) { ... }
//
//	var exitErr *scenebridge.BackendExitError
//	if errors.As(err, &exitErr) {
//	    log.Fatalf("backend died with code %d: %s", exitErr.ExitCode, exitErr.Stderr)
//	}
package scenebridge
