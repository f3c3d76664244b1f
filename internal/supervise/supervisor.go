// Package supervise runs a development server as a child process and
// toggles a debugger wrapper around it when the debug setting changes.
//
// The supervisor is a two-state machine: debugger-off runs the server
// command directly, debugger-on runs it wrapped in the debugger command.
// Transitions are driven by watching the config file; a crashed child is
// restarted after a delay.
package supervise

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// State identifies the supervisor's debugger mode.
type State int

const (
	// DebuggerOff runs the server command directly.
	DebuggerOff State = iota

	// DebuggerOn runs the server wrapped in the debugger command.
	DebuggerOn
)

// String returns the display name of the state.
func (s State) String() string {
	if s == DebuggerOn {
		return "debugger-on"
	}

	return "debugger-off"
}

// stateFor maps the debug flag onto a supervisor state.
func stateFor(debug bool) State {
	if debug {
		return DebuggerOn
	}

	return DebuggerOff
}

// Options configures the supervisor.
type Options struct {
	// ServerCmd is the dev-server command and its arguments.
	ServerCmd []string

	// DebuggerCmd is the wrapper prepended to ServerCmd in debugger-on
	// state (e.g. ["dlv", "exec", "--headless"]).
	DebuggerCmd []string

	// Debug selects the initial state.
	Debug bool

	// WatchConfig is an optional config file watched for debug toggles.
	WatchConfig string

	// RestartDelay is the pause before restarting a crashed child.
	RestartDelay time.Duration

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Out receives the child's stdout/stderr and status lines.
	Out io.Writer
}

// DefaultOptions returns sensible default supervisor options.
func DefaultOptions() Options {
	return Options{
		RestartDelay: 2 * time.Second,
		Logger:       slog.Default(),
		Out:          os.Stderr,
	}
}

// Supervisor owns the server child process and reacts to debug toggles.
type Supervisor struct {
	opts Options

	mu    sync.Mutex
	state State
}

// New creates a supervisor in the state selected by opts.Debug.
func New(opts Options) (*Supervisor, error) {
	if len(opts.ServerCmd) == 0 {
		return nil, fmt.Errorf("server command must not be empty")
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	if opts.RestartDelay <= 0 {
		opts.RestartDelay = 2 * time.Second
	}

	return &Supervisor{
		opts:  opts,
		state: stateFor(opts.Debug),
	}, nil
}

// State returns the current debugger state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// setState updates the current debugger state.
func (s *Supervisor) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = state
}

// commandLine returns the full child command line for the current state.
func (s *Supervisor) commandLine() []string {
	if s.State() == DebuggerOn && len(s.opts.DebuggerCmd) > 0 {
		return append(append([]string{}, s.opts.DebuggerCmd...), s.opts.ServerCmd...)
	}

	return s.opts.ServerCmd
}

// Run supervises the server until the context is cancelled or a
// SIGINT/SIGTERM signal is received.
func (s *Supervisor) Run(ctx context.Context) error {
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	toggles, cleanup, err := s.watchToggles(sigCtx)
	if err != nil {
		return err
	}
	defer cleanup()

	for {
		childCtx, cancelChild := context.WithCancel(sigCtx)
		exited := s.startChild(childCtx)

		fmt.Fprintf(s.opts.Out, "[%s] server started (%s)\n", timestamp(), s.State())

	wait:
		for {
			select {
			case <-sigCtx.Done():
				cancelChild()
				<-exited
				fmt.Fprintf(s.opts.Out, "\n[%s] shutting down supervisor\n", timestamp())

				return nil

			case debug := <-toggles:
				next := stateFor(debug)
				if next == s.State() {
					// Config changed but the debug flag did not.
					continue
				}

				s.opts.Logger.Info("debug toggled",
					slog.String("from", s.State().String()),
					slog.String("to", next.String()),
				)

				s.setState(next)

				cancelChild()
				<-exited

				break wait

			case err := <-exited:
				cancelChild()

				if err != nil {
					s.opts.Logger.Warn("server exited",
						slog.String("error", err.Error()),
						slog.Duration("restartIn", s.opts.RestartDelay),
					)
				}

				select {
				case <-sigCtx.Done():
					return nil
				case <-time.After(s.opts.RestartDelay):
				}

				break wait
			}
		}
	}
}

// startChild launches the child process and returns a channel that yields
// its exit error once.
func (s *Supervisor) startChild(ctx context.Context) <-chan error {
	exited := make(chan error, 1)

	line := s.commandLine()

	cmd := exec.CommandContext(ctx, line[0], line[1:]...) //nolint:gosec
	cmd.Stdout = s.opts.Out
	cmd.Stderr = s.opts.Out
	cmd.Env = os.Environ()

	if err := cmd.Start(); err != nil {
		exited <- fmt.Errorf("starting %q: %w", line[0], err)
		return exited
	}

	go func() {
		exited <- cmd.Wait()
	}()

	return exited
}

// watchToggles watches the config file and emits the new debug flag on
// every relevant change. Without a config file no toggles ever fire.
func (s *Supervisor) watchToggles(ctx context.Context) (<-chan bool, func(), error) {
	toggles := make(chan bool, 1)

	if s.opts.WatchConfig == "" {
		return toggles, func() {}, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("creating config watcher: %w", err)
	}

	// Watch the directory: editors replace files on save, which drops
	// a direct file watch.
	dir := filepath.Dir(s.opts.WatchConfig)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, nil, fmt.Errorf("watching %q: %w", dir, err)
	}

	target := filepath.Clean(s.opts.WatchConfig)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				if filepath.Clean(event.Name) != target {
					continue
				}

				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}

				debug, err := ReadDebugFlag(target)
				if err != nil {
					s.opts.Logger.Error("reading config",
						slog.String("path", target),
						slog.String("error", err.Error()),
					)

					continue
				}

				select {
				case toggles <- debug:
				case <-ctx.Done():
					return
				}

			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}

				s.opts.Logger.Error("config watcher error", slog.String("error", watchErr.Error()))
			}
		}
	}()

	return toggles, func() { watcher.Close() }, nil
}

// ReadDebugFlag extracts the debug setting from a YAML config file.
func ReadDebugFlag(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reading %q: %w", path, err)
	}

	var cfg struct {
		Debug bool `yaml:"debug"`
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return false, fmt.Errorf("parsing %q: %w", path, err)
	}

	return cfg.Debug, nil
}

// timestamp formats the current wall-clock time for status lines.
func timestamp() string {
	return time.Now().Format("15:04:05")
}
