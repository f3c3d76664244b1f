package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/hupe1980/devloop/internal/config"
	"github.com/hupe1980/devloop/internal/schema"
)

func newSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect, validate, and diff record schemas",
		Long: `Work with JSON-Schema-shaped record schemas.

A schema file (YAML or JSON) describes a record model: an object with
typed, optionally required properties. Subcommands reconstruct the
model from the schema, validate data documents against it, and compare
two schema versions.`,
	}

	cmd.AddCommand(
		newSchemaInspectCommand(),
		newSchemaValidateCommand(),
		newSchemaDiffCommand(),
	)

	return cmd
}

// ---------------------------------------------------------------------------
// schema inspect
// ---------------------------------------------------------------------------

func newSchemaInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <schema-file>",
		Short: "Print the record model described by a schema file",
		Long: `Inspect loads a schema file, reconstructs the record model it
describes, and prints a YAML summary: one entry per field with its
display type (e.g. array<integer>, map<string,string>, union[string|null]),
requiredness, default, and description.

Schemas using an unsupported "type" value fail with an error naming the
offending type and its path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaInspect(cmd, args[0])
		},
	}
}

func runSchemaInspect(cmd *cobra.Command, path string) error {
	model, err := loadModel(path)
	if err != nil {
		return err
	}

	out, err := schema.RenderSummary(schema.Summarize(model))
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	_, err = cmd.OutOrStdout().Write(out)

	return err
}

// ---------------------------------------------------------------------------
// schema validate
// ---------------------------------------------------------------------------

type schemaValidateOptions struct {
	schemaFile string
}

func newSchemaValidateCommand() *cobra.Command {
	opts := &schemaValidateOptions{}

	cmd := &cobra.Command{
		Use:   "validate -s <schema-file> <data-file>",
		Short: "Validate a data document against a schema",
		Long: `Validate loads a schema file and a data document (YAML or JSON) and
checks the document against the reconstructed record model.

Every violation is reported with its field path. Exit codes:
  0  Document is valid
  1  Document is invalid, or an error occurred
  2  Invalid arguments`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaValidate(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.schemaFile, "schema", "s", "", "schema file to validate against (required)")

	_ = cmd.MarkFlagRequired("schema")

	return cmd
}

func runSchemaValidate(cmd *cobra.Command, dataFile string, opts *schemaValidateOptions) error {
	model, err := loadModel(opts.schemaFile)
	if err != nil {
		return err
	}

	doc, err := loadDocument(dataFile)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()

	if err := schema.Validate(model, doc); err != nil {
		var valErr *schema.ValidationError
		if errors.As(err, &valErr) {
			_, _ = fmt.Fprintf(w, "INVALID: %d issue(s)\n", len(valErr.Issues))

			for _, issue := range valErr.Issues {
				_, _ = fmt.Fprintf(w, "  - %s\n", issue)
			}
		}

		return &ExitError{Code: 1, Err: err}
	}

	_, _ = fmt.Fprintln(w, "VALID")

	return nil
}

// ---------------------------------------------------------------------------
// schema diff
// ---------------------------------------------------------------------------

func newSchemaDiffCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <old-schema-file> <new-schema-file>",
		Short: "Compare two schema files",
		Long: `Diff compares the normalized renderings of two schema files and
prints a unified diff. Normalization sorts keys, so reordering
properties in the source file does not register as a change.

Exit codes:
  0  Schemas are identical
  1  Schemas differ, or an error occurred
  2  Invalid arguments`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaDiff(cmd.Context(), cmd, args[0], args[1])
		},
	}
}

func runSchemaDiff(ctx context.Context, cmd *cobra.Command, oldPath, newPath string) error {
	oldSchema, err := schema.LoadFile(oldPath)
	if err != nil {
		return &ExitError{Code: 1, Err: fmt.Errorf("loading old schema: %w", err)}
	}

	newSchema, err := schema.LoadFile(newPath)
	if err != nil {
		return &ExitError{Code: 1, Err: fmt.Errorf("loading new schema: %w", err)}
	}

	diffOpts := schema.DefaultDiffOptions()
	diffOpts.OldLabel = oldPath
	diffOpts.NewLabel = newPath

	result, err := schema.Diff(oldSchema, newSchema, diffOpts)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	color := true
	if cfg := config.FromContext(ctx); cfg != nil && cfg.NoColor {
		color = false
	}

	schema.WriteDiff(cmd.OutOrStdout(), result, color)

	// diff(1) semantics: differences are a non-zero exit.
	if result.HasDifferences {
		return &ExitError{Code: 1, Err: fmt.Errorf("schemas differ")}
	}

	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// loadModel loads a schema file and reconstructs its record model.
func loadModel(path string) (*schema.Model, error) {
	s, err := schema.LoadFile(path)
	if err != nil {
		return nil, &ExitError{Code: 1, Err: fmt.Errorf("loading schema: %w", err)}
	}

	model, err := schema.Deserialize(s)
	if err != nil {
		return nil, &ExitError{Code: 1, Err: fmt.Errorf("reading schema: %w", err)}
	}

	return model, nil
}

// loadDocument reads a YAML or JSON data file into a runtime Value.
func loadDocument(path string) (schema.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.Value{}, &ExitError{Code: 1, Err: fmt.Errorf("reading data file: %w", err)}
	}

	jsonData, err := sigsyaml.YAMLToJSON(data)
	if err != nil {
		return schema.Value{}, &ExitError{Code: 1, Err: fmt.Errorf("parsing data file %s: %w", path, err)}
	}

	doc, err := schema.DecodeJSON(jsonData)
	if err != nil {
		return schema.Value{}, &ExitError{Code: 1, Err: fmt.Errorf("decoding data file %s: %w", path, err)}
	}

	return doc, nil
}
