package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formengine/pkg/fieldpath"
	"github.com/goliatone/go-formengine/pkg/form"
	"github.com/goliatone/go-formengine/pkg/jsonschema"
	"github.com/goliatone/go-formengine/pkg/openapi"
	"github.com/goliatone/go-formengine/pkg/orchestrator"
	"github.com/goliatone/go-formengine/pkg/patch"
	"github.com/goliatone/go-formengine/pkg/renderers/tui"
	"github.com/goliatone/go-formengine/pkg/uischema"
)

// errPrinted marks failures whose details were already written out.
var errPrinted = errors.New("formctl: error already reported")

// environment holds the process streams. Tests substitute buffers and a
// scripted prompt driver.
type environment struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	driver tui.PromptDriver
}

type globalFlags struct {
	schema      string
	component   string
	ui          string
	overlay     string
	formID      string
	data        string
	sets        []string
	verbose     bool
	validateDoc bool
	httpTimeout time.Duration
}

func newRootCmd(env environment) *cobra.Command {
	g := &globalFlags{}
	cmd := &cobra.Command{
		Use:   "formctl",
		Short: "formctl builds forms from OpenAPI or JSON Schema documents.",
		Long: `formctl converts an OpenAPI schema component, or a JSON Schema
(draft 2020-12) document, into a form, optionally paired with a UI schema
document, and then:

	defaults   prints the initial form data
	conds      prints which fields are visible
	validate   validates data against the form
	lint       checks the UI schema against the schema
	render     renders the form as HTML or a JSON tree
	fill       fills the form interactively in the terminal

Initial data comes from --data (a JSON file, or - for stdin) and --set
path=value edits applied on top of it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetIn(env.stdin)
	cmd.SetOut(env.stdout)
	cmd.SetErr(env.stderr)

	flags := cmd.PersistentFlags()
	flags.StringVar(&g.schema, "schema", "", "OpenAPI or JSON Schema document path or URL")
	flags.StringVar(&g.component, "component", "", "schema component name (JSON Schema: $defs entry, default root)")
	flags.StringVar(&g.overlay, "overlay", "", "JSON Schema overlay file adding x-* extensions")
	flags.StringVar(&g.ui, "ui", "", "UI schema file or directory")
	flags.StringVar(&g.formID, "form", "", "UI schema form id")
	flags.StringVar(&g.data, "data", "", "JSON file with initial data (- for stdin)")
	flags.StringArrayVar(&g.sets, "set", nil, "edit applied after loading data, as path=value")
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "log pipeline diagnostics to stderr")
	flags.BoolVar(&g.validateDoc, "validate-document", false, "validate the document before converting")
	flags.DurationVar(&g.httpTimeout, "http-timeout", 0, "allow URL schemas, with this request timeout")

	subCommands := []*cobra.Command{
		newComponentsCmd(g, env),
		newDefaultsCmd(g, env),
		newCondsCmd(g, env),
		newValidateCmd(g, env),
		newLintCmd(g, env),
		newRenderCmd(g, env),
		newFillCmd(g, env),
	}
	for _, sub := range subCommands {
		cmd.AddCommand(sub)
	}
	return cmd
}

func (g *globalFlags) logger(env environment) *slog.Logger {
	level := slog.LevelWarn
	if g.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(env.stderr, &slog.HandlerOptions{Level: level}))
}

func (g *globalFlags) orchestrator(env environment) (*orchestrator.Orchestrator, error) {
	logger := g.logger(env)

	var loaderOpts []openapi.LoaderOption
	if g.httpTimeout > 0 {
		loaderOpts = append(loaderOpts, openapi.WithHTTPFallback(g.httpTimeout))
	}
	opts := []orchestrator.Option{
		orchestrator.WithLogger(logger),
		orchestrator.WithLoader(openapi.NewLoader(loaderOpts...)),
	}
	if g.validateDoc {
		opts = append(opts,
			orchestrator.WithParseOptions(openapi.WithDocumentValidation()),
			orchestrator.WithJSONSchemaOptions(jsonschema.WithMetaValidation()),
		)
	}
	if g.overlay != "" {
		raw, err := os.ReadFile(g.overlay)
		if err != nil {
			return nil, fmt.Errorf("overlay: %w", err)
		}
		overlay, err := jsonschema.ParseOverlay(raw)
		if err != nil {
			return nil, err
		}
		opts = append(opts, orchestrator.WithJSONSchemaOptions(jsonschema.WithOverlay(overlay)))
	}

	if g.ui != "" {
		info, err := os.Stat(g.ui)
		if err != nil {
			return nil, fmt.Errorf("ui schema: %w", err)
		}
		if info.IsDir() {
			opts = append(opts, orchestrator.WithUISchemaFS(os.DirFS(g.ui)))
		} else {
			raw, err := os.ReadFile(g.ui)
			if err != nil {
				return nil, fmt.Errorf("ui schema: %w", err)
			}
			store, err := uischema.ParseStore(raw, g.ui)
			if err != nil {
				return nil, err
			}
			opts = append(opts, orchestrator.WithUIStore(store))
		}
	}
	return orchestrator.New(opts...)
}

// source resolves --schema alone.
func (g *globalFlags) source(env environment) (orchestrator.Request, error) {
	var req orchestrator.Request
	if g.schema == "" {
		return req, errors.New("--schema is required")
	}

	switch {
	case g.schema == "-":
		raw, err := io.ReadAll(env.stdin)
		if err != nil {
			return req, fmt.Errorf("read schema: %w", err)
		}
		doc, err := openapi.NewDocument(openapi.SourceFromFile("<stdin>"), raw)
		if err != nil {
			return req, err
		}
		req.Document = &doc
	case strings.HasPrefix(g.schema, "http://"), strings.HasPrefix(g.schema, "https://"):
		src, err := openapi.SourceFromURL(g.schema)
		if err != nil {
			return req, err
		}
		req.Source = src
	default:
		req.Source = openapi.SourceFromFile(g.schema)
	}
	return req, nil
}

func (g *globalFlags) request(env environment) (orchestrator.Request, error) {
	req, err := g.source(env)
	if err != nil {
		return req, err
	}
	req.Component, req.FormID = g.component, g.formID

	if g.data != "" {
		if g.data == "-" && g.schema == "-" {
			return req, errors.New("--schema and --data cannot both read stdin")
		}
		data, err := readJSON(env.stdin, g.data)
		if err != nil {
			return req, err
		}
		req.Data = data
	}
	return req, nil
}

// form builds the form for the current flags and applies --set edits.
func (g *globalFlags) form(cmd *cobra.Command, env environment) (*form.Form, error) {
	o, err := g.orchestrator(env)
	if err != nil {
		return nil, err
	}
	req, err := g.request(env)
	if err != nil {
		return nil, err
	}
	f, err := o.Form(cmd.Context(), req)
	if err != nil {
		return nil, err
	}
	for _, raw := range g.sets {
		event, err := parseSet(raw)
		if err != nil {
			return nil, err
		}
		if err := f.OnChange(event); err != nil {
			return nil, fmt.Errorf("--set %s: %w", raw, err)
		}
	}
	return f, nil
}

// parseSet reads path=value. Values that parse as JSON are used as such,
// anything else is taken as a string.
func parseSet(raw string) (patch.Event, error) {
	name, value, ok := strings.Cut(raw, "=")
	if !ok {
		return patch.Event{}, fmt.Errorf("--set %q: expected path=value", raw)
	}
	path, err := fieldpath.Parse(strings.TrimSpace(name))
	if err != nil {
		return patch.Event{}, fmt.Errorf("--set %q: %w", raw, err)
	}
	var decoded any
	if err := json.Unmarshal([]byte(value), &decoded); err != nil {
		decoded = value
	}
	return patch.Update(path, decoded), nil
}

func readJSON(stdin io.Reader, name string) (any, error) {
	var (
		raw []byte
		err error
	)
	if name == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode data %s: %w", name, err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = w.Write(append(out, '\n'))
	return err
}
