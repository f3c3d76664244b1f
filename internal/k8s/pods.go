// Package k8s drives kubectl for pod discovery and port-forwarding.
package k8s

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Pod is the subset of pod state needed for target selection.
type Pod struct {
	Name      string
	Namespace string
	Phase     string
}

// Running reports whether the pod is in the Running phase.
func (p Pod) Running() bool {
	return p.Phase == "Running"
}

// KubectlRunner executes a kubectl invocation and returns its stdout.
// Tests substitute a stub; production code uses RunKubectl.
type KubectlRunner func(ctx context.Context, args ...string) ([]byte, error)

// RunKubectl invokes the kubectl binary found on PATH.
func RunKubectl(ctx context.Context, args ...string) ([]byte, error) {
	kubectlPath, err := exec.LookPath("kubectl")
	if err != nil {
		return nil, fmt.Errorf("kubectl not found on PATH: %w", err)
	}

	out, err := exec.CommandContext(ctx, kubectlPath, args...).Output() //nolint:gosec
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("kubectl %s: %s", strings.Join(args, " "),
				strings.TrimSpace(string(exitErr.Stderr)))
		}

		return nil, fmt.Errorf("kubectl %s: %w", strings.Join(args, " "), err)
	}

	return out, nil
}

// ListPods fetches all pods in a namespace.
func ListPods(ctx context.Context, run KubectlRunner, namespace string) ([]Pod, error) {
	if run == nil {
		run = RunKubectl
	}

	out, err := run(ctx, "get", "pods", "-n", namespace, "-o", "json")
	if err != nil {
		return nil, err
	}

	return parsePods(out)
}

// parsePods decodes a kubectl pod list into Pods.
func parsePods(data []byte) ([]Pod, error) {
	var list struct {
		Items []map[string]any `json:"items"`
	}

	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parsing pod list: %w", err)
	}

	pods := make([]Pod, 0, len(list.Items))

	for _, item := range list.Items {
		u := &unstructured.Unstructured{Object: item}

		phase, _, err := unstructured.NestedString(u.Object, "status", "phase")
		if err != nil {
			return nil, fmt.Errorf("pod %q: reading status.phase: %w", u.GetName(), err)
		}

		pods = append(pods, Pod{
			Name:      u.GetName(),
			Namespace: u.GetNamespace(),
			Phase:     phase,
		})
	}

	return pods, nil
}

// ResolvePod selects the sync target pod. An explicit podName must match
// exactly; otherwise the first running pod whose name contains subname is
// chosen. Pods that are not running are never selected.
func ResolvePod(pods []Pod, podName, subname string) (Pod, error) {
	if podName != "" {
		for _, p := range pods {
			if p.Name == podName {
				if !p.Running() {
					return Pod{}, fmt.Errorf("pod %q is not running (phase %s)", podName, p.Phase)
				}

				return p, nil
			}
		}

		return Pod{}, fmt.Errorf("pod %q not found", podName)
	}

	if subname == "" {
		return Pod{}, fmt.Errorf("either a pod name or a deployment subname is required")
	}

	for _, p := range pods {
		if p.Running() && strings.Contains(p.Name, subname) {
			return p, nil
		}
	}

	return Pod{}, fmt.Errorf("no running pod matching %q found", subname)
}
