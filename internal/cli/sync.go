package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/devloop/internal/config"
	"github.com/hupe1980/devloop/internal/k8s"
	"github.com/hupe1980/devloop/internal/logging"
	devsync "github.com/hupe1980/devloop/internal/sync"
)

type syncOptions struct {
	// Target server.
	serverPort int

	// Local watch configuration.
	syncDir  string
	syncRoot string
	debounce time.Duration
	ignore   []string

	// Kubernetes port-forward target.
	namespace         string
	podName           string
	deploymentSubname string
}

func newSyncCommand() *cobra.Command {
	opts := &syncOptions{}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror a local directory into a remote container",
		Long: `Sync uploads a local directory to a remote dev server, then watches it
and pushes changes as they happen. Changed files are uploaded, removed
files are deleted remotely; changes are debounced into batches.

When --namespace is given, sync resolves a target pod (by --pod-name or
the first running pod whose name contains --deployment-subname) and
keeps a kubectl port-forward to it alive for the duration, syncing
through the forwarded local port. Without a namespace it talks to the
configured server URL directly.

Upload failures are logged with their HTTP status and do not stop the
watch loop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.Context(), cmd, opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.serverPort, "server-port", 8000, "port the remote dev server listens on")
	f.StringVar(&opts.syncDir, "sync-dir", ".", "local directory to watch and sync")
	f.StringVarP(&opts.syncRoot, "sync-root", "r", "", "remote path prefix files are synced under")
	f.DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "quiet period before pushing a change batch")
	f.StringArrayVar(&opts.ignore, "ignore", nil, "glob pattern (base name) to skip, repeatable")

	f.StringVarP(&opts.namespace, "namespace", "n", "", "Kubernetes namespace (enables port-forward)")
	f.StringVarP(&opts.podName, "pod-name", "p", "", "exact pod name to forward to")
	f.StringVarP(&opts.deploymentSubname, "deployment-subname", "d", "", "substring matching the target pod's name")

	return cmd
}

func runSync(ctx context.Context, cmd *cobra.Command, opts *syncOptions) error {
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	baseURL := cfg.ServerURL

	// With a namespace, sync through a kubectl port-forward instead of
	// the configured server URL.
	if opts.namespace != "" {
		forwardCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		pod, err := resolveTargetPod(forwardCtx, opts)
		if err != nil {
			return &ExitError{Code: 1, Err: err}
		}

		logger.Info("forwarding to pod",
			slog.String("namespace", opts.namespace),
			slog.String("pod", pod.Name),
			slog.Int("port", opts.serverPort),
		)

		forwarder := k8s.NewPortForwarder(opts.namespace, pod.Name, opts.serverPort, opts.serverPort)
		forwarder.Logger = logger
		forwarder.Out = cmd.ErrOrStderr()

		go func() {
			if err := forwarder.Run(forwardCtx); err != nil {
				logger.Error("port-forward failed", slog.String("error", err.Error()))
				cancel()
			}
		}()

		addr := fmt.Sprintf("localhost:%d", opts.serverPort)
		if err := waitForPort(forwardCtx, addr, 10*time.Second); err != nil {
			return &ExitError{Code: 1, Err: fmt.Errorf("waiting for port-forward: %w", err)}
		}

		baseURL = "http://" + addr
		ctx = forwardCtx
	}

	client, err := devsync.NewClient(baseURL, logger)
	if err != nil {
		return &ExitError{Code: 2, Err: err}
	}

	syncOpts := devsync.DefaultOptions()
	syncOpts.SyncDir = opts.syncDir
	syncOpts.SyncRoot = opts.syncRoot
	syncOpts.Debounce = opts.debounce
	syncOpts.IgnorePatterns = opts.ignore
	syncOpts.Logger = logger
	syncOpts.Out = cmd.ErrOrStderr()

	if err := devsync.Run(ctx, syncOpts, client); err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	return nil
}

// resolveTargetPod lists pods in the namespace and picks the forward target.
func resolveTargetPod(ctx context.Context, opts *syncOptions) (k8s.Pod, error) {
	pods, err := k8s.ListPods(ctx, k8s.RunKubectl, opts.namespace)
	if err != nil {
		return k8s.Pod{}, err
	}

	return k8s.ResolvePod(pods, opts.podName, opts.deploymentSubname)
}

// waitForPort blocks until the TCP address accepts connections, the
// timeout elapses, or the context is cancelled.
func waitForPort(ctx context.Context, addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for {
		conn, err := net.DialTimeout("tcp", addr, time.Second)
		if err == nil {
			_ = conn.Close()
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%s not reachable after %s", addr, timeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}
