package k8s

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// PortForwarder keeps a kubectl port-forward session alive, restarting it
// with a delay whenever the child process exits.
type PortForwarder struct {
	// Namespace and Pod identify the forward target.
	Namespace string
	Pod       string

	// LocalPort and RemotePort form the port mapping.
	LocalPort  int
	RemotePort int

	// RestartDelay is the pause before respawning a dead session.
	RestartDelay time.Duration

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Out receives the child's stdout/stderr.
	Out io.Writer
}

// NewPortForwarder creates a forwarder with default restart behaviour.
func NewPortForwarder(namespace, pod string, localPort, remotePort int) *PortForwarder {
	return &PortForwarder{
		Namespace:    namespace,
		Pod:          pod,
		LocalPort:    localPort,
		RemotePort:   remotePort,
		RestartDelay: 2 * time.Second,
		Logger:       slog.Default(),
		Out:          os.Stderr,
	}
}

// Run blocks, maintaining the port-forward until ctx is cancelled.
func (f *PortForwarder) Run(ctx context.Context) error {
	kubectlPath, err := exec.LookPath("kubectl")
	if err != nil {
		return fmt.Errorf("kubectl not found on PATH: %w", err)
	}

	mapping := fmt.Sprintf("%d:%d", f.LocalPort, f.RemotePort)

	for {
		f.Logger.Info("starting port-forward",
			slog.String("pod", f.Pod),
			slog.String("namespace", f.Namespace),
			slog.String("mapping", mapping),
		)

		cmd := exec.CommandContext(ctx, kubectlPath, //nolint:gosec
			"port-forward", "-n", f.Namespace, f.Pod, mapping)
		cmd.Stdout = f.Out
		cmd.Stderr = f.Out

		runErr := cmd.Run()

		if ctx.Err() != nil {
			return nil
		}

		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			f.Logger.Warn("port-forward exited",
				slog.String("error", runErr.Error()),
				slog.Duration("restartIn", f.RestartDelay),
			)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(f.RestartDelay):
		}
	}
}
