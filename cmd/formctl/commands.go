package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formengine/pkg/form"
	"github.com/goliatone/go-formengine/pkg/renderers/html"
	"github.com/goliatone/go-formengine/pkg/renderers/jsontree"
	"github.com/goliatone/go-formengine/pkg/renderers/tui"
)

func newComponentsCmd(g *globalFlags, env environment) *cobra.Command {
	var forms bool
	cmd := &cobra.Command{
		Use:   "components",
		Short: "list the schema components of a document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o, err := g.orchestrator(env)
			if err != nil {
				return err
			}
			if forms {
				for _, id := range o.Forms() {
					fmt.Fprintln(env.stdout, id)
				}
				return nil
			}
			req, err := g.source(env)
			if err != nil {
				return err
			}
			names, err := o.Components(cmd.Context(), req)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(env.stdout, name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&forms, "forms", false, "list UI schema form ids instead")
	return cmd
}

func newDefaultsCmd(g *globalFlags, env environment) *cobra.Command {
	return &cobra.Command{
		Use:   "defaults",
		Short: "print the initial form data as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := g.form(cmd, env)
			if err != nil {
				return err
			}
			return writeJSON(env.stdout, f.Data())
		},
	}
}

func newCondsCmd(g *globalFlags, env environment) *cobra.Command {
	var hiddenOnly bool
	cmd := &cobra.Command{
		Use:   "conds",
		Short: "print the visibility of every conditioned field as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := g.form(cmd, env)
			if err != nil {
				return err
			}
			if hiddenOnly {
				hidden := f.Conditions().Hidden()
				if hidden == nil {
					hidden = []string{}
				}
				return writeJSON(env.stdout, hidden)
			}
			return writeJSON(env.stdout, f.Conditions())
		},
	}
	cmd.Flags().BoolVar(&hiddenOnly, "hidden", false, "print only the hidden paths")
	return cmd
}

type validateOutput struct {
	Valid  bool                `json:"valid"`
	Value  any                 `json:"value,omitempty"`
	Errors map[string][]string `json:"errors,omitempty"`
}

func newValidateCmd(g *globalFlags, env environment) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "validate the form data and print the result as JSON",
		Long: `validate submits the form built from --data and --set. Hidden fields
are stripped first. The command exits non-zero when the data is invalid.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := g.form(cmd, env)
			if err != nil {
				return err
			}
			result, err := f.OnSubmit()
			if err != nil {
				return err
			}
			out := validateOutput{Valid: result.Valid, Value: result.Value}
			if !result.Valid {
				out.Value = nil
				out.Errors = make(map[string][]string, len(result.Errors))
				for _, issue := range result.Errors.Flatten() {
					out.Errors[issue.Name()] = append(out.Errors[issue.Name()], issue.Message)
				}
			}
			if err := writeJSON(env.stdout, out); err != nil {
				return err
			}
			if !result.Valid {
				return fmt.Errorf("%w: %d invalid field(s)", errPrinted, len(out.Errors))
			}
			return nil
		},
	}
}

func newLintCmd(g *globalFlags, env environment) *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "report UI schema entries that match nothing in the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o, err := g.orchestrator(env)
			if err != nil {
				return err
			}
			req, err := g.request(env)
			if err != nil {
				return err
			}
			violations, err := o.Lint(cmd.Context(), req)
			if err != nil {
				return err
			}
			for _, v := range violations {
				fmt.Fprintln(env.stdout, v)
			}
			if len(violations) > 0 {
				return fmt.Errorf("%w: %d violation(s)", errPrinted, len(violations))
			}
			return nil
		},
	}
}

func newRenderCmd(g *globalFlags, env environment) *cobra.Command {
	var (
		format    string
		action    string
		method    string
		templates string
		output    string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "render the form as HTML or as a JSON tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var render func(*form.Form) ([]byte, error)
			switch format {
			case "html":
				renderer, err := html.New(html.WithAction(action, method), html.WithTemplatesDir(templates))
				if err != nil {
					return err
				}
				render = renderer.Render
			case "json":
				render = jsontree.New(jsontree.WithIndent("  ")).Render
			default:
				return fmt.Errorf("unknown --format %q (html, json)", format)
			}
			f, err := g.form(cmd, env)
			if err != nil {
				return err
			}
			out, err := render(f)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = env.stdout.Write(out)
				return err
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			g.logger(env).Info("form written", "path", output, "format", format)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "html", "output format: html or json")
	cmd.Flags().StringVar(&action, "action", "", "form action URL")
	cmd.Flags().StringVar(&method, "method", "post", "form method")
	cmd.Flags().StringVar(&templates, "templates", "", "directory of template overrides")
	cmd.Flags().StringVarP(&output, "out", "o", "", "output file (stdout if empty)")
	return cmd
}

func newFillCmd(g *globalFlags, env environment) *cobra.Command {
	var (
		format      string
		maxAttempts int
	)
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "fill the form interactively and print the submitted value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			outputFormat := tui.OutputFormat(format)
			switch outputFormat {
			case tui.OutputFormatJSON, tui.OutputFormatFormURLEncoded, tui.OutputFormatPrettyText:
			default:
				return fmt.Errorf("unknown --format %q (json, form, pretty)", format)
			}
			f, err := g.form(cmd, env)
			if err != nil {
				return err
			}
			filler := tui.New(
				tui.WithPromptDriver(env.driver),
				tui.WithOutput(env.stderr),
				tui.WithOutputFormat(outputFormat),
				tui.WithMaxAttempts(maxAttempts),
				tui.WithTheme(tui.Theme{ErrorPrefix: "✗ "}),
			)
			out, err := filler.Render(cmd.Context(), f)
			if err != nil {
				return err
			}
			_, err = env.stdout.Write(out)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", string(tui.OutputFormatJSON), "output format: json, form or pretty")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", tui.DefaultMaxAttempts, "re-prompts per invalid field")
	return cmd
}
