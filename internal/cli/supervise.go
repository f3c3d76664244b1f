package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/devloop/internal/config"
	"github.com/hupe1980/devloop/internal/logging"
	"github.com/hupe1980/devloop/internal/supervise"
)

type superviseOptions struct {
	debuggerCmd  string
	watchConfig  string
	restartDelay time.Duration
}

func newSuperviseCommand() *cobra.Command {
	opts := &superviseOptions{}

	cmd := &cobra.Command{
		Use:   "supervise [flags] -- <server command>",
		Short: "Run a dev server with a runtime debugger toggle",
		Long: `Supervise runs a development server as a child process and restarts it
when it crashes.

The supervisor has two states: debugger-off runs the server command
directly, debugger-on runs it wrapped in the debugger command. The
initial state comes from --debug (or the DEBUG environment variable);
with --watch-config, flipping the "debug" key in that file toggles the
state at runtime, restarting the server in the other mode.

The server command goes after "--":

  devloop supervise --debugger-cmd "dlv exec --headless" -- ./server --port 8000`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSupervise(cmd.Context(), cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.Bool("debug", false, "start with the debugger attached")
	f.StringVar(&opts.debuggerCmd, "debugger-cmd", "", "debugger command prepended to the server command in debug mode")
	f.StringVar(&opts.watchConfig, "watch-config", "", "config file watched for runtime debug toggles (default: the loaded config file)")
	f.DurationVar(&opts.restartDelay, "restart-delay", 2*time.Second, "pause before restarting a crashed server")

	return cmd
}

func runSupervise(ctx context.Context, cmd *cobra.Command, serverCmd []string, opts *superviseOptions) error {
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	watchConfig := opts.watchConfig
	if watchConfig == "" {
		watchConfig = config.ConfigFileFromContext(ctx)
	}

	if cfg.Debug && opts.debuggerCmd == "" {
		return &ExitError{Code: 2, Err: fmt.Errorf("--debug requires --debugger-cmd")}
	}

	supOpts := supervise.DefaultOptions()
	supOpts.ServerCmd = serverCmd
	supOpts.DebuggerCmd = strings.Fields(opts.debuggerCmd)
	supOpts.Debug = cfg.Debug
	supOpts.WatchConfig = watchConfig
	supOpts.RestartDelay = opts.restartDelay
	supOpts.Logger = logger
	supOpts.Out = cmd.ErrOrStderr()

	sup, err := supervise.New(supOpts)
	if err != nil {
		return &ExitError{Code: 2, Err: err}
	}

	if err := sup.Run(ctx); err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	return nil
}
