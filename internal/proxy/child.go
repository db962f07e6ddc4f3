package proxy

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/openshed/scenebridge/internal/config"
	"github.com/openshed/scenebridge/internal/errors"
)

// defaultBackendBinary is the backend executable searched for when no
// explicit path is configured.
const defaultBackendBinary = "scenebridge"

// Child is the backend process surface the proxy drives. Tests substitute
// in-memory pipes; production uses ExecChild.
type Child interface {
	// Start launches the backend. Stdin, Stdout, and Stderr are valid only
	// after Start returns nil.
	Start(ctx context.Context) error

	// Stdin is the backend's input stream.
	Stdin() io.Writer

	// Stdout is the backend's primary output stream.
	Stdout() io.Reader

	// Stderr is the backend's diagnostic stream, where the readiness token
	// appears.
	Stderr() io.Reader

	// Wait blocks until the backend exits.
	Wait() error

	// Kill force-stops the backend. Safe to call multiple times and after
	// exit.
	Kill() error
}

// ExecChild runs the backend as a real subprocess.
type ExecChild struct {
	log    *slog.Logger
	opts   *config.Options
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser
}

// Compile-time verification that ExecChild implements Child.
var _ Child = (*ExecChild)(nil)

// NewExecChild prepares a subprocess-backed child. Discovery and spawning
// happen in Start.
func NewExecChild(log *slog.Logger, opts *config.Options) *ExecChild {
	return &ExecChild{
		log:  log.With("component", "backend_process"),
		opts: opts,
	}
}

// Start discovers the backend binary and spawns it with pipes on all three
// streams.
func (c *ExecChild) Start(ctx context.Context) error {
	path, err := c.findBackend()
	if err != nil {
		return err
	}

	//nolint:gosec // G204: spawning the configured backend is the point
	cmd := exec.CommandContext(ctx, path, c.opts.BackendArgs...)
	cmd.Env = buildEnv(c.opts)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start backend: %w", err)
	}

	c.cmd = cmd
	c.stdin = stdin
	c.stdout = stdout
	c.stderr = stderr
	c.log.Info("Backend process started", "path", path, "pid", cmd.Process.Pid)

	return nil
}

// findBackend resolves the backend binary: the explicit configured path if
// set, otherwise PATH and the common install locations.
func (c *ExecChild) findBackend() (string, error) {
	if c.opts.BackendPath != "" {
		if _, err := os.Stat(c.opts.BackendPath); err == nil {
			return c.opts.BackendPath, nil
		}
		c.log.Warn("Configured backend path not found", "path", c.opts.BackendPath)

		return "", &errors.BackendNotFoundError{SearchedPaths: []string{c.opts.BackendPath}}
	}

	if path, err := exec.LookPath(defaultBackendBinary); err == nil {
		c.log.Debug("Found backend in PATH", "path", path)

		return path, nil
	}
	searched := []string{"$PATH"}

	common := []string{
		"/usr/local/bin/" + defaultBackendBinary,
		"/usr/bin/" + defaultBackendBinary,
	}
	if home, err := os.UserHomeDir(); err == nil {
		common = append(common, filepath.Join(home, ".local/bin", defaultBackendBinary))
	}
	for _, path := range common {
		searched = append(searched, path)
		if _, err := os.Stat(path); err == nil {
			c.log.Debug("Found backend at common path", "path", path)

			return path, nil
		}
	}
	c.log.Warn("Backend binary not found", "searched_paths", searched)

	return "", &errors.BackendNotFoundError{SearchedPaths: searched}
}

func (c *ExecChild) Stdin() io.Writer  { return c.stdin }
func (c *ExecChild) Stdout() io.Reader { return c.stdout }
func (c *ExecChild) Stderr() io.Reader { return c.stderr }

// Wait blocks until the process exits, mapping abnormal exits to
// BackendExitError.
func (c *ExecChild) Wait() error {
	err := c.cmd.Wait()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		return &errors.BackendExitError{ExitCode: exitErr.ExitCode(), Err: err}
	}

	return err
}

// Kill force-stops the process with SIGKILL.
func (c *ExecChild) Kill() error {
	if c.cmd == nil || c.cmd.Process == nil {
		return nil
	}
	c.log.Debug("Killing backend process", "pid", c.cmd.Process.Pid)

	if err := c.cmd.Process.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill backend (pid %d): %w", c.cmd.Process.Pid, err)
	}

	return nil
}

func buildEnv(opts *config.Options) []string {
	env := os.Environ()
	for k, v := range opts.Env {
		env = append(env, k+"="+v)
	}

	return env
}
