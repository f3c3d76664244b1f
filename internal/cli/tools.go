package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/hupe1980/devloop/internal/config"
	"github.com/hupe1980/devloop/internal/logging"
	"github.com/hupe1980/devloop/internal/schema"
	"github.com/hupe1980/devloop/internal/tools"
)

func newToolsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List, describe, and invoke remote server tools",
		Long: `Interact with a remote tool server.

The server exposes namespaced tools over HTTP. Tools advertise an
optional parameter schema; when present, invocation arguments are
validated locally before the call.`,
	}

	pf := cmd.PersistentFlags()
	pf.String("server-url", "", "tool server base URL (default from config)")
	pf.String("namespace", "", "tool namespace (default from config)")
	pf.Bool("skip-version-check", false, "skip the server version compatibility check")

	cmd.AddCommand(
		newToolsListCommand(),
		newToolsDescribeCommand(),
		newToolsInvokeCommand(),
	)

	return cmd
}

// ---------------------------------------------------------------------------
// tools list
// ---------------------------------------------------------------------------

func newToolsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the tools available in a namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runToolsList(cmd.Context(), cmd)
		},
	}
}

func runToolsList(ctx context.Context, cmd *cobra.Command) error {
	client, namespace, err := newToolsClient(ctx, cmd)
	if err != nil {
		return err
	}

	names, err := client.ListTools(ctx, namespace)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	w := cmd.OutOrStdout()
	for _, name := range names {
		_, _ = fmt.Fprintln(w, name)
	}

	return nil
}

// ---------------------------------------------------------------------------
// tools describe
// ---------------------------------------------------------------------------

func newToolsDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <tool>",
		Short: "Show a tool's description and parameter model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToolsDescribe(cmd.Context(), cmd, args[0])
		},
	}
}

func runToolsDescribe(ctx context.Context, cmd *cobra.Command, name string) error {
	client, namespace, err := newToolsClient(ctx, cmd)
	if err != nil {
		return err
	}

	desc, err := client.DescribeTool(ctx, namespace, name)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "Name:        %s\n", desc.Name)

	if desc.Description != "" {
		_, _ = fmt.Fprintf(w, "Description: %s\n", desc.Description)
	}

	model, err := desc.ParameterModel()
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	if model == nil {
		return nil
	}

	summary, err := schema.RenderSummary(schema.Summarize(model))
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	_, _ = fmt.Fprintf(w, "\nParameters:\n%s", summary)

	return nil
}

// ---------------------------------------------------------------------------
// tools invoke
// ---------------------------------------------------------------------------

type toolsInvokeOptions struct {
	args     []string
	argsFile string
	validate bool
}

func newToolsInvokeCommand() *cobra.Command {
	opts := &toolsInvokeOptions{}

	cmd := &cobra.Command{
		Use:   "invoke <tool>",
		Short: "Invoke a tool and print its raw JSON result",
		Long: `Invoke calls a tool on the remote server and prints the JSON result
exactly as the server returned it.

Arguments come from --arg key=value flags and/or an --args-file
(YAML or JSON map); --arg values override file values. Values are
parsed as JSON where possible (42, true, [1,2]) and fall back to
plain strings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToolsInvoke(cmd.Context(), cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&opts.args, "arg", nil, "tool argument (key=value), repeatable")
	f.StringVar(&opts.argsFile, "args-file", "", "YAML/JSON file with tool arguments")
	f.BoolVar(&opts.validate, "validate", true, "validate arguments against the tool's parameter schema")

	return cmd
}

func runToolsInvoke(ctx context.Context, cmd *cobra.Command, name string, opts *toolsInvokeOptions) error {
	client, namespace, err := newToolsClient(ctx, cmd)
	if err != nil {
		return err
	}

	kwargs, err := collectArgs(opts.args, opts.argsFile)
	if err != nil {
		return &ExitError{Code: 2, Err: err}
	}

	if opts.validate {
		desc, descErr := client.DescribeTool(ctx, namespace, name)
		if descErr != nil {
			return &ExitError{Code: 1, Err: descErr}
		}

		if valErr := desc.ValidateArgs(kwargs); valErr != nil {
			return &ExitError{Code: 1, Err: fmt.Errorf("invalid arguments for %q: %w", name, valErr)}
		}
	}

	result, err := client.Invoke(ctx, namespace, name, nil, kwargs)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(result))

	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// newToolsClient builds a tool-server client from the resolved config and
// runs the version compatibility check unless skipped.
func newToolsClient(ctx context.Context, cmd *cobra.Command) (*tools.Client, string, error) {
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	client, err := tools.NewClient(cfg.ServerURL, tools.WithLogger(logger))
	if err != nil {
		return nil, "", &ExitError{Code: 2, Err: err}
	}

	skip, _ := cmd.Flags().GetBool("skip-version-check")
	if !skip {
		if err := client.CheckCompatibility(ctx); err != nil {
			return nil, "", &ExitError{Code: 1, Err: err}
		}
	}

	return client, cfg.Namespace, nil
}

// collectArgs merges an optional args file with --arg key=value pairs.
func collectArgs(pairs []string, file string) (map[string]any, error) {
	kwargs := map[string]any{}

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading args file: %w", err)
		}

		if err := sigsyaml.Unmarshal(data, &kwargs); err != nil {
			return nil, fmt.Errorf("parsing args file %s: %w", file, err)
		}
	}

	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --arg %q: expected key=value", pair)
		}

		kwargs[key] = parseArgValue(raw)
	}

	return kwargs, nil
}

// parseArgValue interprets a flag value as JSON when possible, falling
// back to a plain string.
func parseArgValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}

	return raw
}
